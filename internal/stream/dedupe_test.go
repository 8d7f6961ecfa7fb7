package stream

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSeenWithinSameMinute(t *testing.T) {
	cache := NewDedupeCache(5*time.Minute, 5*time.Second)
	fixed := time.Date(2026, 9, 1, 8, 15, 10, 0, time.UTC)
	cache.now = func() time.Time { return fixed }

	assert.False(t, cache.Seen("s001"))
	assert.True(t, cache.Seen("s001"))
	assert.False(t, cache.Seen("s002"))
}

func TestSeenNewMinuteBucket(t *testing.T) {
	cache := NewDedupeCache(5*time.Minute, 5*time.Second)
	now := time.Date(2026, 9, 1, 8, 15, 55, 0, time.UTC)
	cache.now = func() time.Time { return now }

	assert.False(t, cache.Seen("s001"))

	now = now.Add(10 * time.Second)
	assert.False(t, cache.Seen("s001"))
	assert.True(t, cache.Seen("s001"))
}

func TestPurgeDropsExpiredEntries(t *testing.T) {
	cache := NewDedupeCache(5*time.Minute, 5*time.Second)
	now := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	cache.Seen("s001")
	cache.Seen("s002")
	assert.Equal(t, 2, cache.Len())

	now = now.Add(6 * time.Minute)
	cache.purge()
	assert.Equal(t, 0, cache.Len())
}

func TestPurgeKeepsFreshEntries(t *testing.T) {
	cache := NewDedupeCache(5*time.Minute, 5*time.Second)
	now := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)
	cache.now = func() time.Time { return now }

	cache.Seen("s001")
	now = now.Add(4 * time.Minute)
	cache.Seen("s002")

	cache.purge()
	assert.Equal(t, 2, cache.Len())
}
