package engine

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/steakhouse-fi/sizzle/internal/config"
	"github.com/steakhouse-fi/sizzle/internal/metrics"
	"github.com/steakhouse-fi/sizzle/internal/metrics/metricsTypes"
	"github.com/steakhouse-fi/sizzle/pkg/allocation"
	"github.com/steakhouse-fi/sizzle/pkg/eventBus/eventBusTypes"
	"github.com/steakhouse-fi/sizzle/pkg/phases"
	"github.com/steakhouse-fi/sizzle/pkg/scoring"
	"github.com/steakhouse-fi/sizzle/pkg/storage"
	"github.com/steakhouse-fi/sizzle/pkg/tiers"
	"go.uber.org/zap"
)

// Typed errors the transport layer maps onto response codes.
var (
	ErrUnknownPhase      = errors.New("unknown phase")
	ErrAlreadyJoined     = errors.New("already joined phase")
	ErrOutsideJoinWindow = errors.New("join outside phase window")
)

// AllocationEngine ties the snapshot store, tier classifier, score
// calculator and distributor together. It owns the two read paths
// (participant standing, leaderboard) and the one write path
// (calculating a phase's allocations at its cutoff).
type AllocationEngine struct {
	logger       *zap.Logger
	globalConfig *config.Config
	store        storage.LeaderboardStore
	registry     *phases.Registry
	calculator   *scoring.ScoreCalculator
	cache        *scoring.ScoreCache
	distributor  *allocation.Distributor
	eventBus     eventBusTypes.IEventBus
	metricsSink  *metrics.MetricsSink
	now          func() time.Time
}

func NewAllocationEngine(
	l *zap.Logger,
	cfg *config.Config,
	store storage.LeaderboardStore,
	registry *phases.Registry,
	calculator *scoring.ScoreCalculator,
	cache *scoring.ScoreCache,
	distributor *allocation.Distributor,
	eb eventBusTypes.IEventBus,
	sink *metrics.MetricsSink,
) *AllocationEngine {
	return &AllocationEngine{
		logger:       l,
		globalConfig: cfg,
		store:        store,
		registry:     registry,
		calculator:   calculator,
		cache:        cache,
		distributor:  distributor,
		eventBus:     eb,
		metricsSink:  sink,
		now:          time.Now,
	}
}

// UseClock overrides the engine's notion of now. Tests use a fixed clock;
// everything else should leave this alone.
func (ae *AllocationEngine) UseClock(now func() time.Time) {
	ae.now = now
}

// Standing is the display view of a single participant: current tier
// derived from facts, plus the live score breakdown.
type Standing struct {
	Address         string
	Tier            tiers.Tier
	TierName        string
	Grade           string
	Level           tiers.StakingLevel
	Multiplier      decimal.Decimal
	TotalStaked     decimal.Decimal
	HoldingDays     float64
	IsActive        bool
	MembershipState phases.MembershipState
	Breakdown       *scoring.Breakdown
}

// factsFor assembles the classifier's inputs for one participant as of a
// given instant. Membership may be nil when the participant never joined
// the phase in question.
func (ae *AllocationEngine) factsFor(
	p *storage.Participant,
	membership *storage.PhaseMembership,
	launchParticipant bool,
	asOf time.Time,
) tiers.Facts {
	facts := tiers.Facts{
		TotalStaked:       p.TotalStaked,
		HoldingDays:       p.HoldingDays(asOf),
		IsActive:          p.IsActive,
		LaunchParticipant: launchParticipant,
		EverUnstaked:      p.EverUnstaked(),
	}
	if membership != nil {
		facts.PhaseCompletion = &tiers.PhaseCompletion{
			JoinedWithin24h:     membership.JoinedWithin24h,
			StakeTxDuringPhase:  membership.StakeTxDuringPhase,
			UnstakedDuringPhase: membership.UnstakedDuringPhase,
		}
	}
	return facts
}

// launchAddresses returns the set of addresses that joined the first
// phase. Genesis OG eligibility hangs off this set.
func (ae *AllocationEngine) launchAddresses() (map[string]bool, error) {
	memberships, err := ae.store.ListMembershipsForPhase(1)
	if err != nil {
		return nil, fmt.Errorf("failed to list launch phase memberships: %w", err)
	}
	addresses := make(map[string]bool, len(memberships))
	for _, m := range memberships {
		addresses[m.Address] = true
	}
	return addresses, nil
}

// GetParticipantStanding derives the live standing for an address. An
// unknown address is a valid request and yields a default VIRGEN
// standing rather than an error. Breakdowns are served from the display
// cache when fresh.
func (ae *AllocationEngine) GetParticipantStanding(address string) (*Standing, error) {
	now := ae.now()

	participant, err := ae.store.GetParticipant(address)
	if err != nil {
		return nil, fmt.Errorf("failed to load participant '%s': %w", address, err)
	}
	if participant == nil {
		return defaultStanding(address), nil
	}

	var membership *storage.PhaseMembership
	membershipState := phases.MembershipState_NotJoined
	currentPhase, inPhase := ae.registry.PhaseAt(now)
	if inPhase {
		membership, err = ae.store.GetMembership(participant.Address, currentPhase.Number)
		if err != nil {
			return nil, err
		}
		if membership != nil {
			membershipState = membership.State
		}
	}

	launch, err := ae.launchAddresses()
	if err != nil {
		return nil, err
	}

	facts := ae.factsFor(participant, membership, launch[participant.Address], now)
	tier := tiers.Classify(facts)

	breakdown, cached := ae.cache.Get(participant.Address)
	if !cached {
		breakdown = ae.calculator.Score(
			participant.TotalStaked,
			facts.HoldingDays,
			tier,
			participant.ReferralBonusPoints,
		)
		ae.cache.Set(participant.Address, breakdown)
	}

	return &Standing{
		Address:         participant.Address,
		Tier:            tier,
		TierName:        tier.String(),
		Grade:           tier.Grade(),
		Level:           tiers.LevelForStake(participant.TotalStaked),
		Multiplier:      tier.Multiplier(),
		TotalStaked:     participant.TotalStaked,
		HoldingDays:     facts.HoldingDays,
		IsActive:        participant.IsActive,
		MembershipState: membershipState,
		Breakdown:       breakdown,
	}, nil
}

func defaultStanding(address string) *Standing {
	return &Standing{
		Address:         address,
		Tier:            tiers.Tier_Virgen,
		TierName:        tiers.Tier_Virgen.String(),
		Grade:           tiers.Tier_Virgen.Grade(),
		Level:           tiers.Level_Entry,
		Multiplier:      tiers.Tier_Virgen.Multiplier(),
		TotalStaked:     decimal.Zero,
		HoldingDays:     0,
		IsActive:        false,
		MembershipState: phases.MembershipState_NotJoined,
		Breakdown: &scoring.Breakdown{
			BasePoints:      decimal.Zero,
			ReferralBonus:   decimal.Zero,
			ReferralLevel1:  decimal.Zero,
			ReferralLevel2:  decimal.Zero,
			TotalPoints:     decimal.Zero,
			PointsPerSecond: decimal.Zero,
		},
	}
}

// GetLeaderboard returns the top participants by stake with their derived
// standings. Ordering is stake-based; allocation ordering is score-based
// and lives on allocation records instead.
func (ae *AllocationEngine) GetLeaderboard(limit int) ([]*Standing, error) {
	participants, err := ae.store.ListTopByStake(limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list leaderboard: %w", err)
	}

	launch, err := ae.launchAddresses()
	if err != nil {
		return nil, err
	}

	now := ae.now()
	currentPhase, inPhase := ae.registry.PhaseAt(now)

	standings := make([]*Standing, 0, len(participants))
	for _, p := range participants {
		var membership *storage.PhaseMembership
		membershipState := phases.MembershipState_NotJoined
		if inPhase {
			membership, err = ae.store.GetMembership(p.Address, currentPhase.Number)
			if err != nil {
				return nil, err
			}
			if membership != nil {
				membershipState = membership.State
			}
		}

		facts := ae.factsFor(p, membership, launch[p.Address], now)
		tier := tiers.Classify(facts)

		breakdown, cached := ae.cache.Get(p.Address)
		if !cached {
			breakdown = ae.calculator.Score(p.TotalStaked, facts.HoldingDays, tier, p.ReferralBonusPoints)
			ae.cache.Set(p.Address, breakdown)
		}

		standings = append(standings, &Standing{
			Address:         p.Address,
			Tier:            tier,
			TierName:        tier.String(),
			Grade:           tier.Grade(),
			Level:           tiers.LevelForStake(p.TotalStaked),
			Multiplier:      tier.Multiplier(),
			TotalStaked:     p.TotalStaked,
			HoldingDays:     facts.HoldingDays,
			IsActive:        p.IsActive,
			MembershipState: membershipState,
			Breakdown:       breakdown,
		})
	}
	return standings, nil
}

// JoinPhase records an explicit join for the given phase. Joining is the
// only way into a phase; there is no carryover from earlier phases. The
// join must land inside the phase window and is recorded at most once
// per (address, phase).
func (ae *AllocationEngine) JoinPhase(address string, phaseNumber uint64) (*storage.PhaseMembership, error) {
	phase, err := ae.registry.Get(phaseNumber)
	if err != nil {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPhase, phaseNumber)
	}

	joinedAt := ae.now()
	if err := phases.ValidateJoin(phase, joinedAt); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrOutsideJoinWindow, err.Error())
	}

	existing, err := ae.store.GetMembership(address, phaseNumber)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: address '%s' phase %d", ErrAlreadyJoined, address, phaseNumber)
	}

	membership, err := ae.store.RecordJoin(&storage.PhaseMembership{
		Address:         address,
		PhaseNumber:     phaseNumber,
		State:           phases.MembershipState_Joined,
		JoinedAt:        joinedAt,
		JoinedWithin24h: phases.JoinedWithin24h(phase, joinedAt),
	})
	if err != nil {
		return nil, err
	}

	if ae.metricsSink != nil {
		_ = ae.metricsSink.Incr(metricsTypes.Metric_Incr_JoinRecorded, nil, 1)
	}
	ae.logger.Sugar().Infow("Recorded phase join",
		zap.String("address", membership.Address),
		zap.Uint64("phaseNumber", phaseNumber),
		zap.Bool("joinedWithin24h", membership.JoinedWithin24h),
	)
	return membership, nil
}

// CalculateAllocationsForPhase runs the full allocation for a phase whose
// window has closed. Scores are computed at the phase cutoff, never from
// the display cache, and the resulting records are written exactly once.
func (ae *AllocationEngine) CalculateAllocationsForPhase(phaseNumber uint64, asOf time.Time) (*allocation.Result, error) {
	startedAt := time.Now()

	phase, err := ae.registry.Get(phaseNumber)
	if err != nil {
		return nil, err
	}
	if !phase.EndedBy(asOf) {
		return nil, fmt.Errorf("phase %d has not ended as of %s", phaseNumber, asOf.Format(time.RFC3339))
	}

	settled, err := ae.store.PhaseSettled(phaseNumber)
	if err != nil {
		return nil, err
	}
	if settled {
		return nil, fmt.Errorf("phase %d is already allocated", phaseNumber)
	}

	memberships, err := ae.store.ListMembershipsForPhase(phaseNumber)
	if err != nil {
		return nil, fmt.Errorf("failed to list memberships for phase %d: %w", phaseNumber, err)
	}

	launch, err := ae.launchAddresses()
	if err != nil {
		return nil, err
	}

	// Scores are fixed at the phase cutoff, not at calculation time.
	cutoff := phase.EndTime

	type candidate struct {
		participant *storage.Participant
		breakdown   *scoring.Breakdown
	}
	candidates := make([]*candidate, 0, len(memberships))
	scored := make([]string, 0, len(memberships))
	preWeighted := 0
	for _, membership := range memberships {
		if membership.State != phases.MembershipState_Joined {
			ae.logger.Sugar().Debugw("Skipping membership not in JOINED state",
				zap.String("address", membership.Address),
				zap.String("state", string(membership.State)),
			)
			continue
		}

		participant, err := ae.store.GetParticipant(membership.Address)
		if err != nil {
			return nil, err
		}
		if participant == nil {
			ae.logger.Sugar().Warnw("Membership without participant record",
				zap.String("address", membership.Address),
				zap.Uint64("phaseNumber", phaseNumber),
			)
			continue
		}

		facts := ae.factsFor(participant, membership, launch[participant.Address], cutoff)
		tier := tiers.Classify(facts)
		breakdown := ae.calculator.Score(
			participant.TotalStaked,
			facts.HoldingDays,
			tier,
			participant.ReferralBonusPoints,
		)

		candidates = append(candidates, &candidate{participant: participant, breakdown: breakdown})
		if participant.PreWeightedShare != nil {
			preWeighted++
		}
		scored = append(scored, participant.Address)
	}

	// The feed may supply pre-weighted shares instead of raw scores, but
	// only as a population-wide alternative: feed fractions and local
	// point totals live on incomparable scales, so a mixed batch falls
	// back to computed points for everyone.
	usePreWeighted := len(candidates) > 0 && preWeighted == len(candidates)
	if preWeighted > 0 && !usePreWeighted {
		ae.logger.Sugar().Warnw("Ignoring pre-weighted shares on a partially weighted population",
			zap.Uint64("phaseNumber", phaseNumber),
			zap.Int("preWeighted", preWeighted),
			zap.Int("population", len(candidates)),
		)
	}

	inputs := make([]*allocation.Input, 0, len(candidates))
	for _, c := range candidates {
		rawScore := c.breakdown.TotalPoints
		if usePreWeighted {
			rawScore = *c.participant.PreWeightedShare
		}
		inputs = append(inputs, &allocation.Input{
			Address:     c.participant.Address,
			RawScore:    rawScore,
			TotalStaked: c.participant.TotalStaked,
			IsActive:    c.participant.IsActive,
			Joined:      true,
		})
	}

	result, err := ae.distributor.Distribute(phaseNumber, phase.RewardPool, inputs)
	if err != nil {
		return nil, err
	}

	if err := ae.store.UpdateMembershipStates(phaseNumber, scored, phases.MembershipState_Scored); err != nil {
		return nil, err
	}

	if !result.EmptyPopulation {
		calculatedAt := ae.now()
		records := make([]*storage.AllocationRecord, 0, len(result.Shares))
		allocatedAddresses := make([]string, 0, len(result.Shares))
		for _, share := range result.Shares {
			records = append(records, &storage.AllocationRecord{
				PhaseNumber:  phaseNumber,
				Address:      share.Address,
				SharePercent: share.SharePercent,
				TokenAmount:  share.TokenAmount,
				TotalPoints:  share.TotalPoints,
				StakeRank:    share.StakeRank,
				ScoreRank:    share.ScoreRank,
				CalculatedAt: calculatedAt,
			})
			allocatedAddresses = append(allocatedAddresses, share.Address)
		}
		if err := ae.store.InsertAllocationRecords(records); err != nil {
			return nil, err
		}
		if err := ae.store.UpdateMembershipStates(phaseNumber, allocatedAddresses, phases.MembershipState_Allocated); err != nil {
			return nil, err
		}
	}

	// The settlement marker is written even for an empty population so
	// the cutoff scheduler stops retrying a phase that settled empty.
	if err := ae.store.MarkPhaseSettled(&storage.PhaseSettlement{
		PhaseNumber:     phaseNumber,
		EmptyPopulation: result.EmptyPopulation,
		SettledAt:       ae.now(),
	}); err != nil {
		return nil, err
	}

	if ae.eventBus != nil {
		ae.eventBus.Publish(&eventBusTypes.Event{
			Name: eventBusTypes.Event_PhaseAllocated,
			Data: &eventBusTypes.PhaseAllocatedData{
				PhaseNumber:     phaseNumber,
				Participants:    len(result.Shares),
				EmptyPopulation: result.EmptyPopulation,
			},
		})
	}
	if ae.metricsSink != nil {
		_ = ae.metricsSink.Timing(metricsTypes.Metric_Timing_AllocationDuration, time.Since(startedAt), []metricsTypes.MetricsLabel{
			{Name: "phase", Value: strconv.FormatUint(phaseNumber, 10)},
		})
	}

	ae.logger.Sugar().Infow("Calculated allocations for phase",
		zap.Uint64("phaseNumber", phaseNumber),
		zap.Int("participants", len(result.Shares)),
		zap.Bool("emptyPopulation", result.EmptyPopulation),
		zap.String("totalRawScore", result.TotalRawScore.String()),
	)
	return result, nil
}

// CalculateAllocationsForLatestEndedPhase finds the oldest ended phase
// that has not been allocated yet and allocates it. Phases settle in
// order.
func (ae *AllocationEngine) CalculateAllocationsForLatestEndedPhase(asOf time.Time) (uint64, *allocation.Result, error) {
	for _, phase := range ae.registry.EndedBy(asOf) {
		settled, err := ae.store.PhaseSettled(phase.Number)
		if err != nil {
			return 0, nil, err
		}
		if settled {
			continue
		}
		result, err := ae.CalculateAllocationsForPhase(phase.Number, asOf)
		if err != nil {
			return 0, nil, err
		}
		return phase.Number, result, nil
	}
	return 0, nil, fmt.Errorf("no ended phases awaiting allocation as of %s", asOf.Format(time.RFC3339))
}
