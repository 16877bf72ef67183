package tiers

import "github.com/shopspring/decimal"

// PhaseCompletion carries the facts needed for the phase upgrade path.
// All three requirements must hold for the +1 tier bump:
// joined within 24 hours of phase start, at least one additional staking
// transaction during the phase, and zero unstaking (even partial).
type PhaseCompletion struct {
	JoinedWithin24h     bool
	StakeTxDuringPhase  bool
	UnstakedDuringPhase bool
}

func (pc *PhaseCompletion) Satisfied() bool {
	return pc != nil && pc.JoinedWithin24h && pc.StakeTxDuringPhase && !pc.UnstakedDuringPhase
}

// Facts is everything the classifier needs about a participant. Tier is
// never persisted as authoritative state; it is recomputed from these
// facts on every read.
type Facts struct {
	TotalStaked decimal.Decimal
	HoldingDays float64
	IsActive    bool

	// PhaseCompletion describes the current phase only; nil when the
	// participant has no membership in the current phase.
	PhaseCompletion *PhaseCompletion

	// LaunchParticipant is true when the participant joined the very first
	// phase. Together with a clean unstake history it qualifies Genesis OG
	// independently of the ladder.
	LaunchParticipant bool
	EverUnstaked      bool
}

// naturalLadder lists each tier's minimum staking level and cumulative
// holding duration, highest first. A participant qualifies for the highest
// rung whose (level, duration) pair they currently satisfy; satisfying a
// higher rung implies all lower ones.
var naturalLadder = []struct {
	tier     Tier
	minLevel StakingLevel
	minDays  float64
}{
	{Tier_HeavyEater, Level_Special, 90},
	{Tier_StakeWizard, Level_High, 60},
	{Tier_Grilluminati, Level_Mid, 30},
	{Tier_FlameJuggler, Level_Mid, 14},
	{Tier_Flipstarter, Level_Entry, 7},
	{Tier_SizzlinNoob, Level_Entry, 0},
}

// Classify returns the participant's effective tier.
func Classify(f Facts) Tier {
	// A full unstake is a hard reset, not a decay. History does not matter.
	if !f.IsActive {
		return Tier_Virgen
	}
	if f.TotalStaked.Sign() <= 0 {
		return Tier_Virgen
	}

	// Genesis OG via launch-day participation with no unstake event ever.
	if f.LaunchParticipant && !f.EverUnstaked {
		return Tier_GenesisOG
	}

	holdingDays := f.HoldingDays
	if holdingDays < 0 {
		holdingDays = 0
	}

	natural := Tier_Virgen
	level := LevelForStake(f.TotalStaked)
	for _, rung := range naturalLadder {
		if level >= rung.minLevel && holdingDays >= rung.minDays {
			natural = rung.tier
			break
		}
	}

	// Phase completion grants +1 on top of the natural tier, capped at
	// Genesis OG. Whichever upgrade path is faster applies first.
	effective := natural
	if f.PhaseCompletion.Satisfied() {
		boosted := natural + 1
		if boosted > Tier_GenesisOG {
			boosted = Tier_GenesisOG
		}
		if boosted > effective {
			effective = boosted
		}
	}

	return effective
}
