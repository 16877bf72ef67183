package fetcher

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/jarcoal/httpmock"
	"github.com/shopspring/decimal"
	"github.com/steakhouse-fi/sizzle/internal/config"
	"github.com/steakhouse-fi/sizzle/internal/logger"
	"github.com/stretchr/testify/assert"
)

const testFeedUrl = "https://feed.example.com/leaderboard"

func newTestClient(t *testing.T) *FeedClient {
	l, err := logger.NewLogger(&logger.LoggerConfig{Debug: os.Getenv(config.Debug) == "true"})
	assert.NoError(t, err)
	return NewFeedClient(&config.FeedConfig{
		BaseUrl:        testFeedUrl,
		RequestTimeout: 5 * time.Second,
	}, l)
}

func Test_FetchLeaderboard(t *testing.T) {
	httpmock.Activate()
	defer httpmock.DeactivateAndReset()

	fc := newTestClient(t)

	t.Run("parses a successful response", func(t *testing.T) {
		httpmock.RegisterResponder("GET", testFeedUrl,
			httpmock.NewStringResponder(200, `{
				"status": "success",
				"total_rows": 2,
				"leaderboard": [
					{
						"address": "0xAAA",
						"grade": "Epic",
						"rank": 1,
						"percentile": 0.5,
						"total_staked": "1000000",
						"stake_count": 3,
						"unstake_count": 0,
						"is_active": true,
						"first_stake_time": 1749000000,
						"referral_bonus_earned": 0
					},
					{
						"address": "0xBBB",
						"grade": "Normal",
						"rank": 2,
						"percentile": 50,
						"total_staked": 50000,
						"stake_count": 1,
						"unstake_count": 1,
						"is_active": "TRUE",
						"first_stake_time": 1749500000,
						"referral_bonus_earned": "120.5"
					}
				]
			}`))

		response, err := fc.FetchLeaderboard(context.Background())
		assert.NoError(t, err)
		assert.Equal(t, 2, response.TotalRows)
		assert.Len(t, response.Leaderboard, 2)

		first := response.Leaderboard[0]
		assert.Equal(t, "0xAAA", first.Address)
		assert.True(t, first.TotalStaked.Equal(decimal.NewFromInt(1_000_000)))
		assert.True(t, bool(first.IsActive))

		second := response.Leaderboard[1]
		assert.True(t, second.TotalStaked.Equal(decimal.NewFromInt(50_000)))
		assert.True(t, bool(second.IsActive), "string TRUE should parse as true")
		assert.True(t, second.ReferralBonusEarned.Equal(decimal.RequireFromString("120.5")))
	})

	t.Run("in-band failure is an error", func(t *testing.T) {
		httpmock.RegisterResponder("GET", testFeedUrl,
			httpmock.NewStringResponder(200, `{"status": "error", "message": "sheet unavailable"}`))

		_, err := fc.FetchLeaderboard(context.Background())
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "sheet unavailable")
	})

	t.Run("http error status is an error", func(t *testing.T) {
		httpmock.RegisterResponder("GET", testFeedUrl,
			httpmock.NewStringResponder(500, "boom"))

		_, err := fc.FetchLeaderboard(context.Background())
		assert.Error(t, err)
	})

	t.Run("malformed json is an error", func(t *testing.T) {
		httpmock.RegisterResponder("GET", testFeedUrl,
			httpmock.NewStringResponder(200, `{"status": "success", "leaderboard": [`))

		_, err := fc.FetchLeaderboard(context.Background())
		assert.Error(t, err)
	})
}

func Test_ConvertRows(t *testing.T) {
	fc := newTestClient(t)
	fetchedAt := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)

	t.Run("rejects rows with no address", func(t *testing.T) {
		participants, rejected := fc.ConvertRows([]*LeaderboardRow{
			{Address: "", TotalStaked: decimal.NewFromInt(100)},
			{Address: "  ", TotalStaked: decimal.NewFromInt(100)},
			{Address: "0xAAA", TotalStaked: decimal.NewFromInt(100), IsActive: true},
		}, fetchedAt)
		assert.Equal(t, 2, rejected)
		assert.Len(t, participants, 1)
	})

	t.Run("addresses are lowercased", func(t *testing.T) {
		participants, _ := fc.ConvertRows([]*LeaderboardRow{
			{Address: "0xAbCd", TotalStaked: decimal.NewFromInt(100)},
		}, fetchedAt)
		assert.Equal(t, "0xabcd", participants[0].Address)
	})

	t.Run("negative amounts clamp to zero", func(t *testing.T) {
		participants, rejected := fc.ConvertRows([]*LeaderboardRow{
			{
				Address:             "0xaaa",
				TotalStaked:         decimal.NewFromInt(-100),
				ReferralBonusEarned: decimal.NewFromInt(-5),
			},
		}, fetchedAt)
		assert.Equal(t, 0, rejected)
		assert.True(t, participants[0].TotalStaked.IsZero())
		assert.True(t, participants[0].ReferralBonusPoints.IsZero())
	})

	t.Run("virtual stake counts toward the total", func(t *testing.T) {
		participants, _ := fc.ConvertRows([]*LeaderboardRow{
			{
				Address:       "0xaaa",
				TotalStaked:   decimal.NewFromInt(1000),
				VirtualStaked: decimal.NewFromInt(500),
			},
		}, fetchedAt)
		assert.True(t, participants[0].TotalStaked.Equal(decimal.NewFromInt(1500)))
	})

	t.Run("future first stake time is dropped", func(t *testing.T) {
		future := float64(fetchedAt.Add(time.Hour).Unix())
		participants, _ := fc.ConvertRows([]*LeaderboardRow{
			{Address: "0xaaa", FirstStakeTime: future},
		}, fetchedAt)
		assert.Nil(t, participants[0].FirstStakeTime)
	})

	t.Run("holding days derive from first stake time", func(t *testing.T) {
		tenDaysAgo := float64(fetchedAt.Add(-10 * 24 * time.Hour).Unix())
		participants, _ := fc.ConvertRows([]*LeaderboardRow{
			{Address: "0xaaa", FirstStakeTime: tenDaysAgo},
		}, fetchedAt)
		assert.NotNil(t, participants[0].FirstStakeTime)
		assert.InDelta(t, 10, participants[0].HoldingDays(fetchedAt), 0.001)
	})
}

func Test_TruthyBool(t *testing.T) {
	tests := []struct {
		raw      string
		expected bool
		wantErr  bool
	}{
		{`true`, true, false},
		{`false`, false, false},
		{`"TRUE"`, true, false},
		{`"False"`, false, false},
		{`1`, true, false},
		{`0`, false, false},
		{`"yes"`, false, true},
	}
	for _, tc := range tests {
		var b TruthyBool
		err := b.UnmarshalJSON([]byte(tc.raw))
		if tc.wantErr {
			assert.Error(t, err, "raw %s", tc.raw)
			continue
		}
		assert.NoError(t, err, "raw %s", tc.raw)
		assert.Equal(t, tc.expected, bool(b), "raw %s", tc.raw)
	}
}
