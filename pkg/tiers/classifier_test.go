package tiers

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func activeFacts(staked string, holdingDays float64) Facts {
	return Facts{
		TotalStaked: decimal.RequireFromString(staked),
		HoldingDays: holdingDays,
		IsActive:    true,
	}
}

func Test_Classify_NaturalLadder(t *testing.T) {
	tests := []struct {
		name        string
		staked      string
		holdingDays float64
		expected    Tier
	}{
		{"fresh entry stake", "1000", 0, Tier_SizzlinNoob},
		{"entry stake at one week", "150000", 7, Tier_Flipstarter},
		{"entry stake held long never passes flipstarter", "150000", 120, Tier_Flipstarter},
		{"mid stake under two weeks", "500000", 13, Tier_Flipstarter},
		{"mid stake at two weeks", "500000", 14, Tier_FlameJuggler},
		{"mid stake at one month", "500000", 30, Tier_Grilluminati},
		{"high stake at sixty days", "5000000", 60, Tier_StakeWizard},
		{"high stake under sixty days", "5000000", 59, Tier_Grilluminati},
		{"special stake at ninety days", "20000000", 90, Tier_HeavyEater},
		{"special stake under ninety days", "20000000", 89, Tier_StakeWizard},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, Classify(activeFacts(tc.staked, tc.holdingDays)))
		})
	}
}

func Test_Classify_HardResets(t *testing.T) {
	t.Run("jeeted participant is virgen regardless of history", func(t *testing.T) {
		facts := activeFacts("20000000", 365)
		facts.IsActive = false
		assert.Equal(t, Tier_Virgen, Classify(facts))
	})

	t.Run("zero stake is virgen", func(t *testing.T) {
		assert.Equal(t, Tier_Virgen, Classify(activeFacts("0", 100)))
	})

	t.Run("negative holding duration clamps instead of crashing", func(t *testing.T) {
		assert.Equal(t, Tier_SizzlinNoob, Classify(activeFacts("1000", -5)))
	})
}

func Test_Classify_PhaseBoost(t *testing.T) {
	completed := &PhaseCompletion{
		JoinedWithin24h:    true,
		StakeTxDuringPhase: true,
	}

	t.Run("completion bumps one tier", func(t *testing.T) {
		facts := activeFacts("500000", 14)
		facts.PhaseCompletion = completed
		assert.Equal(t, Tier_Grilluminati, Classify(facts))
	})

	t.Run("any unstake during the phase voids the boost", func(t *testing.T) {
		facts := activeFacts("500000", 14)
		facts.PhaseCompletion = &PhaseCompletion{
			JoinedWithin24h:     true,
			StakeTxDuringPhase:  true,
			UnstakedDuringPhase: true,
		}
		assert.Equal(t, Tier_FlameJuggler, Classify(facts))
	})

	t.Run("late join voids the boost", func(t *testing.T) {
		facts := activeFacts("500000", 14)
		facts.PhaseCompletion = &PhaseCompletion{
			JoinedWithin24h:    false,
			StakeTxDuringPhase: true,
		}
		assert.Equal(t, Tier_FlameJuggler, Classify(facts))
	})

	t.Run("boost caps at genesis og", func(t *testing.T) {
		facts := activeFacts("20000000", 90)
		facts.PhaseCompletion = completed
		assert.Equal(t, Tier_GenesisOG, Classify(facts))
	})
}

func Test_Classify_GenesisOG(t *testing.T) {
	t.Run("launch participant with clean history", func(t *testing.T) {
		facts := activeFacts("1000", 1)
		facts.LaunchParticipant = true
		assert.Equal(t, Tier_GenesisOG, Classify(facts))
	})

	t.Run("launch participant who ever unstaked falls back to the ladder", func(t *testing.T) {
		facts := activeFacts("500000", 30)
		facts.LaunchParticipant = true
		facts.EverUnstaked = true
		assert.Equal(t, Tier_Grilluminati, Classify(facts))
	})

	t.Run("genesis og still requires an active stake", func(t *testing.T) {
		facts := activeFacts("0", 100)
		facts.LaunchParticipant = true
		assert.Equal(t, Tier_Virgen, Classify(facts))
	})
}

// Holding time and stake never lower the tier: for a fixed completion
// state, growing either input can only move the result up the ladder.
func Test_Classify_Monotonicity(t *testing.T) {
	stakes := []string{"1000", "150000", "500000", "5000000", "20000000"}
	durations := []float64{0, 7, 14, 30, 60, 90, 120}

	for _, staked := range stakes {
		previous := Tier_Virgen
		for _, days := range durations {
			tier := Classify(activeFacts(staked, days))
			assert.GreaterOrEqual(t, int(tier), int(previous),
				"tier regressed at staked=%s days=%.0f", staked, days)
			previous = tier
		}
	}

	for _, days := range durations {
		previous := Tier_Virgen
		for _, staked := range stakes {
			tier := Classify(activeFacts(staked, days))
			assert.GreaterOrEqual(t, int(tier), int(previous),
				"tier regressed at staked=%s days=%.0f", staked, days)
			previous = tier
		}
	}
}
