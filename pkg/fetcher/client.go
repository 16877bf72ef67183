package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/steakhouse-fi/sizzle/internal/config"
	"github.com/steakhouse-fi/sizzle/pkg/storage"
	"go.uber.org/zap"
)

// FeedClient pulls the full leaderboard snapshot from the upstream feed.
// The feed is the single source of truth for staking facts; everything
// downstream (tiers, scores, allocations) is derived from what this
// client accepts.
type FeedClient struct {
	baseUrl    string
	httpClient *http.Client
	logger     *zap.Logger
}

func NewFeedClient(cfg *config.FeedConfig, l *zap.Logger) *FeedClient {
	return &FeedClient{
		baseUrl: cfg.BaseUrl,
		httpClient: &http.Client{
			Timeout: cfg.RequestTimeout,
		},
		logger: l,
	}
}

// FetchLeaderboard retrieves the current snapshot. A non-success status
// in the payload is an error even when HTTP says 200, since the upstream
// reports its own failures in-band.
func (fc *FeedClient) FetchLeaderboard(ctx context.Context) (*LeaderboardResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fc.baseUrl, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create feed request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	res, err := fc.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch leaderboard: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("leaderboard feed returned status %d", res.StatusCode)
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read feed response: %w", err)
	}

	response := &LeaderboardResponse{}
	if err := json.Unmarshal(body, response); err != nil {
		return nil, fmt.Errorf("failed to parse feed response: %w", err)
	}

	if response.Status != "success" {
		return nil, fmt.Errorf("leaderboard feed reported failure: %s", response.Message)
	}

	if response.TotalRows != len(response.Leaderboard) {
		fc.logger.Sugar().Warnw("Feed row count mismatch",
			zap.Int("totalRows", response.TotalRows),
			zap.Int("actualRows", len(response.Leaderboard)),
		)
	}
	return response, nil
}

// ConvertRows validates feed rows into canonical participants. Rows with
// no address are rejected outright; negative stakes and bonuses are
// clamped to zero with a warning. Holding days from the feed are
// discarded and re-derived from first_stake_time on read.
func (fc *FeedClient) ConvertRows(rows []*LeaderboardRow, fetchedAt time.Time) ([]*storage.Participant, int) {
	participants := make([]*storage.Participant, 0, len(rows))
	rejected := 0

	for _, row := range rows {
		address := strings.ToLower(strings.TrimSpace(row.Address))
		if address == "" {
			rejected++
			fc.logger.Sugar().Warnw("Rejecting feed row with empty address",
				zap.String("grade", row.Grade),
				zap.Uint64("rank", row.Rank),
			)
			continue
		}

		totalStaked := row.TotalStaked.Add(row.VirtualStaked)
		if totalStaked.IsNegative() {
			fc.logger.Sugar().Warnw("Clamping negative staked balance",
				zap.String("address", address),
				zap.String("totalStaked", totalStaked.String()),
			)
			totalStaked = decimal.Zero
		}

		referralBonus := row.ReferralBonusEarned
		if referralBonus.IsNegative() {
			fc.logger.Sugar().Warnw("Clamping negative referral bonus",
				zap.String("address", address),
				zap.String("referralBonus", referralBonus.String()),
			)
			referralBonus = decimal.Zero
		}

		var firstStakeTime *time.Time
		if row.FirstStakeTime > 0 {
			t := time.Unix(int64(row.FirstStakeTime), 0).UTC()
			if t.After(fetchedAt) {
				fc.logger.Sugar().Warnw("Ignoring future first stake time",
					zap.String("address", address),
					zap.Time("firstStakeTime", t),
				)
			} else {
				firstStakeTime = &t
			}
		}

		participants = append(participants, &storage.Participant{
			Address:             address,
			TotalStaked:         totalStaked,
			FirstStakeTime:      firstStakeTime,
			IsActive:            bool(row.IsActive),
			StakeCount:          row.StakeCount,
			UnstakeCount:        row.UnstakeCount,
			ReferralBonusPoints: referralBonus,
			PreWeightedShare:    row.AirdropSharePhase,
			AdvisoryGrade:       row.Grade,
			AdvisoryRank:        row.Rank,
			AdvisoryPercentile:  row.Percentile,
		})
	}
	return participants, rejected
}
