package tiers

import "github.com/shopspring/decimal"

// StakingLevel is the amount-based bucket, independent of Tier. The ladder
// thresholds reference levels, not raw amounts.
type StakingLevel int

const (
	Level_Entry StakingLevel = iota
	Level_Mid
	Level_High
	Level_Special
)

var (
	levelEntryMax = decimal.NewFromInt(200_000)
	levelMidMax   = decimal.NewFromInt(1_000_000)
	levelHighMax  = decimal.NewFromInt(10_000_000)
)

var levelNames = map[StakingLevel]string{
	Level_Entry:   "Entry",
	Level_Mid:     "Mid",
	Level_High:    "High",
	Level_Special: "Special",
}

func (l StakingLevel) String() string {
	if name, ok := levelNames[l]; ok {
		return name
	}
	return "Entry"
}

// LevelForStake buckets a staked amount: Entry up to 200K, Mid to 1M,
// High to 10M, Special above.
func LevelForStake(totalStaked decimal.Decimal) StakingLevel {
	switch {
	case totalStaked.LessThanOrEqual(levelEntryMax):
		return Level_Entry
	case totalStaked.LessThanOrEqual(levelMidMax):
		return Level_Mid
	case totalStaked.LessThanOrEqual(levelHighMax):
		return Level_High
	default:
		return Level_Special
	}
}
