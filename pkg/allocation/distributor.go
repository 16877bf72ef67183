package allocation

import (
	"fmt"
	"sort"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// sharePlaces is the precision shares are rounded to before the residual
// from rounding is folded back into the largest share.
const sharePlaces = 8

var hundred = decimal.NewFromInt(100)

// Input is one participant's view going into a distribution run. RawScore
// is either the participant's totalPoints or a pre-weighted share supplied
// upstream; the distributor normalizes either the same way.
type Input struct {
	Address     string
	RawScore    decimal.Decimal
	TotalStaked decimal.Decimal
	IsActive    bool
	Joined      bool
}

// Share is one participant's slice of a phase pool. StakeRank and
// ScoreRank are independent orderings: leaderboards rank by stake,
// allocation is driven by score. They must not be conflated.
type Share struct {
	Address      string
	SharePercent decimal.Decimal
	TokenAmount  decimal.Decimal
	TotalPoints  decimal.Decimal
	StakeRank    int
	ScoreRank    int
}

// Result is a full distribution for one phase. EmptyPopulation is set when
// no participant qualified (or every raw score was zero); in that case the
// pool is undistributed and Shares is empty.
type Result struct {
	PhaseNumber     uint64
	RewardPool      decimal.Decimal
	EmptyPopulation bool
	TotalRawScore   decimal.Decimal
	Shares          []*Share
}

type Distributor struct {
	logger *zap.Logger
}

func NewDistributor(l *zap.Logger) *Distributor {
	return &Distributor{
		logger: l,
	}
}

// Distribute normalizes the eligible participants' raw scores into shares
// of the fixed pool. Shares sum to exactly 100 and token amounts sum to
// exactly the pool; rounding residue is folded into the largest share.
func (d *Distributor) Distribute(phaseNumber uint64, rewardPool decimal.Decimal, inputs []*Input) (*Result, error) {
	if rewardPool.Sign() <= 0 {
		return nil, fmt.Errorf("reward pool must be positive, got %s", rewardPool.String())
	}

	result := &Result{
		PhaseNumber:   phaseNumber,
		RewardPool:    rewardPool,
		TotalRawScore: decimal.Zero,
		Shares:        []*Share{},
	}

	// Jeeted, zero-stake and not-joined participants receive nothing and
	// are excluded from the denominator.
	eligible := make([]*Input, 0, len(inputs))
	for _, in := range inputs {
		if !in.IsActive || in.TotalStaked.Sign() <= 0 || !in.Joined {
			continue
		}
		raw := in.RawScore
		if raw.Sign() < 0 {
			d.logger.Sugar().Warnw("Dropping negative raw score",
				zap.String("address", in.Address),
				zap.String("rawScore", raw.String()),
			)
			continue
		}
		eligible = append(eligible, in)
		result.TotalRawScore = result.TotalRawScore.Add(raw)
	}

	if len(eligible) == 0 || result.TotalRawScore.Sign() == 0 {
		d.logger.Sugar().Warnw("No eligible participants for phase, pool undistributed",
			zap.Uint64("phaseNumber", phaseNumber),
			zap.Int("inputs", len(inputs)),
			zap.Int("eligible", len(eligible)),
		)
		result.EmptyPopulation = true
		return result, nil
	}

	shares := make([]*Share, 0, len(eligible))
	for _, in := range eligible {
		sharePercent := in.RawScore.Mul(hundred).Div(result.TotalRawScore).Round(sharePlaces)
		shares = append(shares, &Share{
			Address:      in.Address,
			SharePercent: sharePercent,
			TotalPoints:  in.RawScore,
		})
	}

	// Fold the rounding residual into the largest share so the emitted
	// percentages sum to exactly 100.
	shareSum := decimal.Zero
	largest := 0
	for i, s := range shares {
		shareSum = shareSum.Add(s.SharePercent)
		if s.SharePercent.GreaterThan(shares[largest].SharePercent) {
			largest = i
		}
	}
	if residual := hundred.Sub(shareSum); !residual.IsZero() {
		shares[largest].SharePercent = shares[largest].SharePercent.Add(residual)
	}

	// Token amounts, with the same residual treatment against the pool.
	tokenSum := decimal.Zero
	for _, s := range shares {
		s.TokenAmount = s.SharePercent.Mul(rewardPool).Div(hundred).Round(sharePlaces)
		tokenSum = tokenSum.Add(s.TokenAmount)
	}
	if residual := rewardPool.Sub(tokenSum); !residual.IsZero() {
		shares[largest].TokenAmount = shares[largest].TokenAmount.Add(residual)
	}

	assignRanks(shares, eligible)

	// Emit in score order, highest share first.
	sort.Slice(shares, func(i, j int) bool {
		return shares[i].ScoreRank < shares[j].ScoreRank
	})

	result.Shares = shares
	return result, nil
}

func assignRanks(shares []*Share, eligible []*Input) {
	byAddress := make(map[string]*Share, len(shares))
	for _, s := range shares {
		byAddress[s.Address] = s
	}

	// Stake rank: descending stake, address ascending for determinism.
	stakeOrder := make([]*Input, len(eligible))
	copy(stakeOrder, eligible)
	sort.Slice(stakeOrder, func(i, j int) bool {
		if !stakeOrder[i].TotalStaked.Equal(stakeOrder[j].TotalStaked) {
			return stakeOrder[i].TotalStaked.GreaterThan(stakeOrder[j].TotalStaked)
		}
		return stakeOrder[i].Address < stakeOrder[j].Address
	})
	for i, in := range stakeOrder {
		byAddress[in.Address].StakeRank = i + 1
	}

	// Score rank: descending raw score.
	scoreOrder := make([]*Input, len(eligible))
	copy(scoreOrder, eligible)
	sort.Slice(scoreOrder, func(i, j int) bool {
		if !scoreOrder[i].RawScore.Equal(scoreOrder[j].RawScore) {
			return scoreOrder[i].RawScore.GreaterThan(scoreOrder[j].RawScore)
		}
		return scoreOrder[i].Address < scoreOrder[j].Address
	})
	for i, in := range scoreOrder {
		byAddress[in.Address].ScoreRank = i + 1
	}
}
