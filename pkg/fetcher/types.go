package fetcher

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// TruthyBool tolerates the feed's loose boolean encoding. The upstream
// sheet export emits true, "TRUE", "true" and occasionally 1 for the
// same flag.
type TruthyBool bool

func (b *TruthyBool) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case bool:
		*b = TruthyBool(v)
	case string:
		parsed, err := strconv.ParseBool(strings.ToLower(strings.TrimSpace(v)))
		if err != nil {
			return fmt.Errorf("invalid boolean value '%s'", v)
		}
		*b = TruthyBool(parsed)
	case float64:
		*b = v != 0
	default:
		return fmt.Errorf("invalid boolean value '%s'", string(data))
	}
	return nil
}

// LeaderboardRow is one row of the upstream snapshot. Numeric fields use
// decimal.Decimal, which accepts both quoted and bare numbers. Grade,
// rank and percentile are the feed's own opinion and stored as advisory
// only; tiers are always re-derived locally.
type LeaderboardRow struct {
	Address             string           `json:"address"`
	Grade               string           `json:"grade"`
	Rank                uint64           `json:"rank"`
	Percentile          float64          `json:"percentile"`
	TotalStaked         decimal.Decimal  `json:"total_staked"`
	VirtualStaked       decimal.Decimal  `json:"virtual_staked"`
	HoldingDays         decimal.Decimal  `json:"holding_days"`
	StakeCount          uint64           `json:"stake_count"`
	UnstakeCount        uint64           `json:"unstake_count"`
	IsActive            TruthyBool       `json:"is_active"`
	FirstStakeTime      float64          `json:"first_stake_time"`
	ReferralBonusEarned decimal.Decimal  `json:"referral_bonus_earned"`
	AirdropSharePhase   *decimal.Decimal `json:"airdrop_share_phase"`
}

type LeaderboardResponse struct {
	Status      string            `json:"status"`
	Message     string            `json:"message"`
	TotalRows   int               `json:"total_rows"`
	Leaderboard []*LeaderboardRow `json:"leaderboard"`
}
