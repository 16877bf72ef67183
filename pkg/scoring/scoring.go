package scoring

import (
	"github.com/shopspring/decimal"
	"github.com/steakhouse-fi/sizzle/pkg/tiers"
	"go.uber.org/zap"
)

var secondsPerDay = decimal.NewFromInt(24 * 60 * 60)

// Referral bonuses are an opaque input from the referral subsystem; the
// reported split between direct and second-level referrals is fixed.
var (
	referralLevel1Fraction = decimal.RequireFromString("0.8")
	referralLevel2Fraction = decimal.RequireFromString("0.2")
)

// Breakdown is the scored view of a single participant.
type Breakdown struct {
	BasePoints      decimal.Decimal
	ReferralBonus   decimal.Decimal
	ReferralLevel1  decimal.Decimal
	ReferralLevel2  decimal.Decimal
	TotalPoints     decimal.Decimal
	PointsPerSecond decimal.Decimal
}

type ScoreCalculator struct {
	logger *zap.Logger
}

func NewScoreCalculator(l *zap.Logger) *ScoreCalculator {
	return &ScoreCalculator{
		logger: l,
	}
}

// Score computes basePoints = totalStaked * holdingDays * multiplier and
// adds the opaque referral bonus unmodified. Negative stake or holding
// duration (clock skew, malformed feed rows) clamps to zero rather than
// producing a negative score.
func (sc *ScoreCalculator) Score(
	totalStaked decimal.Decimal,
	holdingDays float64,
	tier tiers.Tier,
	referralBonus decimal.Decimal,
) *Breakdown {
	if totalStaked.Sign() < 0 {
		sc.logger.Sugar().Warnw("Clamping negative stake to zero",
			zap.String("totalStaked", totalStaked.String()),
		)
		totalStaked = decimal.Zero
	}
	if holdingDays < 0 {
		sc.logger.Sugar().Warnw("Clamping negative holding duration to zero",
			zap.Float64("holdingDays", holdingDays),
		)
		holdingDays = 0
	}
	if referralBonus.Sign() < 0 {
		referralBonus = decimal.Zero
	}

	multiplier := tier.Multiplier()
	days := decimal.NewFromFloat(holdingDays)

	basePoints := totalStaked.Mul(days).Mul(multiplier)

	return &Breakdown{
		BasePoints:      basePoints,
		ReferralBonus:   referralBonus,
		ReferralLevel1:  referralBonus.Mul(referralLevel1Fraction),
		ReferralLevel2:  referralBonus.Mul(referralLevel2Fraction),
		TotalPoints:     basePoints.Add(referralBonus),
		PointsPerSecond: totalStaked.Mul(multiplier).Div(secondsPerDay),
	}
}
