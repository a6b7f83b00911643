package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResultCache_SetGet(t *testing.T) {
	c := NewResultCache(time.Minute)

	// 从未写入
	_, ok := c.Get()
	assert.False(t, ok)

	result := &PollResult{
		SpotTotal:    10,
		FuturesTotal: 100,
		Timestamp:    time.Now(),
	}
	c.Set(result)

	got, ok := c.Get()
	require.True(t, ok)
	assert.Equal(t, 10.0, got.SpotTotal)
	assert.Equal(t, 100.0, got.FuturesTotal)
}

func TestResultCache_Expiry(t *testing.T) {
	c := NewResultCache(100 * time.Millisecond)

	c.Set(&PollResult{FuturesTotal: 100, Timestamp: time.Now()})
	_, ok := c.Get()
	assert.True(t, ok)

	// 等待过期
	time.Sleep(150 * time.Millisecond)
	_, ok = c.Get()
	assert.False(t, ok)
}

func TestResultCache_Overwrite(t *testing.T) {
	c := NewResultCache(time.Minute)

	c.Set(&PollResult{FuturesTotal: 100, Timestamp: time.Now()})
	c.Set(&PollResult{FuturesTotal: 200, Timestamp: time.Now()})

	got, ok := c.Get()
	require.True(t, ok)
	assert.Equal(t, 200.0, got.FuturesTotal)
}

func TestResultCache_Stats(t *testing.T) {
	c := NewResultCache(time.Minute)
	c.Set(&PollResult{Timestamp: time.Now()})

	stats := c.Stats()
	assert.Equal(t, 1, stats["item_count"])
	assert.Equal(t, 1.0, stats["ttl_minutes"])
}
