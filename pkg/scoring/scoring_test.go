package scoring

import (
	"os"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/steakhouse-fi/sizzle/internal/config"
	"github.com/steakhouse-fi/sizzle/internal/logger"
	"github.com/steakhouse-fi/sizzle/pkg/tiers"
	"github.com/stretchr/testify/assert"
)

func testLogger() *logger.LoggerConfig {
	return &logger.LoggerConfig{Debug: os.Getenv(config.Debug) == "true"}
}

func Test_Score(t *testing.T) {
	l, _ := logger.NewLogger(testLogger())
	sc := NewScoreCalculator(l)

	t.Run("one million staked for 35 days at grilluminati", func(t *testing.T) {
		breakdown := sc.Score(
			decimal.NewFromInt(1_000_000),
			35,
			tiers.Tier_Grilluminati,
			decimal.Zero,
		)
		assert.True(t, breakdown.BasePoints.Equal(decimal.NewFromInt(49_000_000)),
			"expected 49,000,000 got %s", breakdown.BasePoints.String())
		assert.True(t, breakdown.TotalPoints.Equal(decimal.NewFromInt(49_000_000)))
	})

	t.Run("virgen scores zero no matter the stake", func(t *testing.T) {
		breakdown := sc.Score(
			decimal.NewFromInt(20_000_000),
			365,
			tiers.Tier_Virgen,
			decimal.Zero,
		)
		assert.True(t, breakdown.BasePoints.IsZero())
		assert.True(t, breakdown.PointsPerSecond.IsZero())
	})

	t.Run("referral bonus adds on top and splits 80/20", func(t *testing.T) {
		breakdown := sc.Score(
			decimal.NewFromInt(100_000),
			10,
			tiers.Tier_SizzlinNoob,
			decimal.NewFromInt(1000),
		)
		assert.True(t, breakdown.BasePoints.Equal(decimal.NewFromInt(1_000_000)))
		assert.True(t, breakdown.TotalPoints.Equal(decimal.NewFromInt(1_001_000)))
		assert.True(t, breakdown.ReferralLevel1.Equal(decimal.NewFromInt(800)))
		assert.True(t, breakdown.ReferralLevel2.Equal(decimal.NewFromInt(200)))
	})

	t.Run("negative inputs clamp to zero", func(t *testing.T) {
		breakdown := sc.Score(
			decimal.NewFromInt(-500),
			-3,
			tiers.Tier_SizzlinNoob,
			decimal.NewFromInt(-10),
		)
		assert.True(t, breakdown.BasePoints.IsZero())
		assert.True(t, breakdown.ReferralBonus.IsZero())
		assert.True(t, breakdown.TotalPoints.IsZero())
	})

	t.Run("points per second is the daily rate over 86400", func(t *testing.T) {
		breakdown := sc.Score(
			decimal.NewFromInt(86_400),
			1,
			tiers.Tier_SizzlinNoob,
			decimal.Zero,
		)
		assert.True(t, breakdown.PointsPerSecond.Equal(decimal.NewFromInt(1)),
			"expected 1 got %s", breakdown.PointsPerSecond.String())
	})

	t.Run("score grows with the multiplier", func(t *testing.T) {
		previous := decimal.NewFromInt(-1)
		for _, tier := range tiers.AllTiers {
			breakdown := sc.Score(decimal.NewFromInt(500_000), 30, tier, decimal.Zero)
			assert.True(t, breakdown.BasePoints.GreaterThan(previous),
				"score did not grow at tier %s", tier.String())
			previous = breakdown.BasePoints
		}
	})
}
