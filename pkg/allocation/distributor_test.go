package allocation

import (
	"os"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/steakhouse-fi/sizzle/internal/config"
	"github.com/steakhouse-fi/sizzle/internal/logger"
	"github.com/stretchr/testify/assert"
)

func newTestDistributor(t *testing.T) *Distributor {
	l, err := logger.NewLogger(&logger.LoggerConfig{Debug: os.Getenv(config.Debug) == "true"})
	assert.NoError(t, err)
	return NewDistributor(l)
}

func activeInput(address string, rawScore string, staked string) *Input {
	return &Input{
		Address:     address,
		RawScore:    decimal.RequireFromString(rawScore),
		TotalStaked: decimal.RequireFromString(staked),
		IsActive:    true,
		Joined:      true,
	}
}

func Test_Distribute_TwoParticipants(t *testing.T) {
	d := newTestDistributor(t)
	pool := decimal.RequireFromString("41670000")

	result, err := d.Distribute(1, pool, []*Input{
		activeInput("0xaaa", "300", "1000000"),
		activeInput("0xbbb", "100", "500000"),
	})
	assert.NoError(t, err)
	assert.False(t, result.EmptyPopulation)
	assert.Len(t, result.Shares, 2)

	first := result.Shares[0]
	second := result.Shares[1]

	assert.Equal(t, "0xaaa", first.Address)
	assert.True(t, first.SharePercent.Equal(decimal.NewFromInt(75)),
		"expected 75 got %s", first.SharePercent.String())
	assert.True(t, first.TokenAmount.Equal(decimal.RequireFromString("31252500")),
		"expected 31252500 got %s", first.TokenAmount.String())

	assert.Equal(t, "0xbbb", second.Address)
	assert.True(t, second.SharePercent.Equal(decimal.NewFromInt(25)))
	assert.True(t, second.TokenAmount.Equal(decimal.RequireFromString("10417500")))
}

func Test_Distribute_ExactSums(t *testing.T) {
	d := newTestDistributor(t)
	pool := decimal.RequireFromString("41670000")

	// Three-way split of 100% cannot be exact at fixed precision; the
	// residual lands in the largest share.
	result, err := d.Distribute(1, pool, []*Input{
		activeInput("0xaaa", "1", "100"),
		activeInput("0xbbb", "1", "100"),
		activeInput("0xccc", "1", "100"),
	})
	assert.NoError(t, err)
	assert.Len(t, result.Shares, 3)

	shareSum := decimal.Zero
	tokenSum := decimal.Zero
	for _, s := range result.Shares {
		shareSum = shareSum.Add(s.SharePercent)
		tokenSum = tokenSum.Add(s.TokenAmount)
	}
	assert.True(t, shareSum.Equal(decimal.NewFromInt(100)),
		"shares sum to %s", shareSum.String())
	assert.True(t, tokenSum.Equal(pool),
		"tokens sum to %s", tokenSum.String())
}

func Test_Distribute_Exclusions(t *testing.T) {
	d := newTestDistributor(t)
	pool := decimal.NewFromInt(1000)

	jeeted := activeInput("0xjeeted", "500", "1000000")
	jeeted.IsActive = false

	zeroStake := activeInput("0xzero", "500", "0")

	notJoined := activeInput("0xlurker", "500", "1000000")
	notJoined.Joined = false

	negative := activeInput("0xneg", "-5", "1000")

	result, err := d.Distribute(1, pool, []*Input{
		activeInput("0xaaa", "500", "1000000"),
		jeeted,
		zeroStake,
		notJoined,
		negative,
	})
	assert.NoError(t, err)
	assert.Len(t, result.Shares, 1)
	assert.Equal(t, "0xaaa", result.Shares[0].Address)
	assert.True(t, result.Shares[0].SharePercent.Equal(decimal.NewFromInt(100)))
	assert.True(t, result.Shares[0].TokenAmount.Equal(pool))
}

func Test_Distribute_EmptyPopulation(t *testing.T) {
	d := newTestDistributor(t)
	pool := decimal.NewFromInt(1000)

	t.Run("no inputs", func(t *testing.T) {
		result, err := d.Distribute(1, pool, []*Input{})
		assert.NoError(t, err)
		assert.True(t, result.EmptyPopulation)
		assert.Empty(t, result.Shares)
	})

	t.Run("all raw scores zero", func(t *testing.T) {
		result, err := d.Distribute(1, pool, []*Input{
			activeInput("0xaaa", "0", "1000"),
			activeInput("0xbbb", "0", "2000"),
		})
		assert.NoError(t, err)
		assert.True(t, result.EmptyPopulation)
	})

	t.Run("nobody eligible", func(t *testing.T) {
		in := activeInput("0xaaa", "100", "1000")
		in.IsActive = false
		result, err := d.Distribute(1, pool, []*Input{in})
		assert.NoError(t, err)
		assert.True(t, result.EmptyPopulation)
	})
}

func Test_Distribute_InvalidPool(t *testing.T) {
	d := newTestDistributor(t)

	_, err := d.Distribute(1, decimal.Zero, []*Input{activeInput("0xaaa", "1", "1")})
	assert.Error(t, err)

	_, err = d.Distribute(1, decimal.NewFromInt(-5), []*Input{activeInput("0xaaa", "1", "1")})
	assert.Error(t, err)
}

func Test_Distribute_IndependentRanks(t *testing.T) {
	d := newTestDistributor(t)
	pool := decimal.NewFromInt(1000)

	// Highest stake but lowest score, and vice versa.
	result, err := d.Distribute(1, pool, []*Input{
		activeInput("0xwhale", "100", "10000000"),
		activeInput("0xgrinder", "900", "50000"),
	})
	assert.NoError(t, err)
	assert.Len(t, result.Shares, 2)

	byAddress := map[string]*Share{}
	for _, s := range result.Shares {
		byAddress[s.Address] = s
	}

	assert.Equal(t, 1, byAddress["0xwhale"].StakeRank)
	assert.Equal(t, 2, byAddress["0xwhale"].ScoreRank)
	assert.Equal(t, 2, byAddress["0xgrinder"].StakeRank)
	assert.Equal(t, 1, byAddress["0xgrinder"].ScoreRank)

	// Output ordering follows score rank.
	assert.Equal(t, "0xgrinder", result.Shares[0].Address)
}
