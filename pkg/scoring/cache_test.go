package scoring

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func Test_ScoreCache(t *testing.T) {
	now := time.Date(2025, 7, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }

	cache := NewScoreCache(5*time.Minute, clock)
	breakdown := &Breakdown{TotalPoints: decimal.NewFromInt(42)}

	t.Run("miss before set", func(t *testing.T) {
		_, ok := cache.Get("0xabc")
		assert.False(t, ok)
	})

	t.Run("hit within ttl", func(t *testing.T) {
		cache.Set("0xabc", breakdown)
		now = now.Add(4 * time.Minute)

		got, ok := cache.Get("0xabc")
		assert.True(t, ok)
		assert.True(t, got.TotalPoints.Equal(decimal.NewFromInt(42)))
	})

	t.Run("expired entry reads as absent", func(t *testing.T) {
		now = now.Add(2 * time.Minute)
		_, ok := cache.Get("0xabc")
		assert.False(t, ok)
	})

	t.Run("invalidate drops a single address", func(t *testing.T) {
		cache.Set("0xabc", breakdown)
		cache.Set("0xdef", breakdown)
		cache.Invalidate("0xabc")

		_, ok := cache.Get("0xabc")
		assert.False(t, ok)
		_, ok = cache.Get("0xdef")
		assert.True(t, ok)
	})

	t.Run("purge drops everything", func(t *testing.T) {
		cache.Set("0xabc", breakdown)
		cache.Purge()

		_, ok := cache.Get("0xabc")
		assert.False(t, ok)
		_, ok = cache.Get("0xdef")
		assert.False(t, ok)
	})
}
