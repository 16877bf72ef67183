package tests

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/steakhouse-fi/sizzle/internal/config"
	"github.com/steakhouse-fi/sizzle/pkg/storage"
)

func GetConfig() *config.Config {
	cfg := config.NewConfig()

	if cfg.DatabaseConfig.Host == "" {
		cfg.DatabaseConfig.Host = "localhost"
	}
	if cfg.DatabaseConfig.Port == 0 {
		cfg.DatabaseConfig.Port = 5432
	}
	if cfg.DatabaseConfig.User == "" {
		cfg.DatabaseConfig.User = "sizzle"
	}
	if cfg.PhasesConfig.Count == 0 {
		cfg.PhasesConfig.Count = 6
	}
	if cfg.PhasesConfig.DurationDays == 0 {
		cfg.PhasesConfig.DurationDays = 30
	}
	if cfg.PhasesConfig.RewardPool.IsZero() {
		cfg.PhasesConfig.RewardPool = decimal.RequireFromString(config.DefaultPhaseRewardPool)
	}
	if cfg.PhasesConfig.LaunchTime.IsZero() {
		cfg.PhasesConfig.LaunchTime = time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	}
	if cfg.ScoreCacheConfig.Ttl == 0 {
		cfg.ScoreCacheConfig.Ttl = 5 * time.Minute
	}
	return cfg
}

// NewTestParticipant builds a participant with sensible defaults for
// fixtures. firstStakedDaysAgo is relative to now.
func NewTestParticipant(address string, totalStaked string, firstStakedDaysAgo float64) *storage.Participant {
	firstStake := time.Now().UTC().Add(-time.Duration(firstStakedDaysAgo * 24 * float64(time.Hour)))
	return &storage.Participant{
		Address:             address,
		TotalStaked:         decimal.RequireFromString(totalStaked),
		FirstStakeTime:      &firstStake,
		IsActive:            true,
		StakeCount:          1,
		UnstakeCount:        0,
		ReferralBonusPoints: decimal.Zero,
	}
}
