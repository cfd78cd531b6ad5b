package collector

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_GetOrFetch(t *testing.T) {
	now := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	c := NewCache[int](time.Hour)
	c.now = func() time.Time { return now }

	calls := 0
	fetch := func() (int, error) {
		calls++
		return calls, nil
	}

	v, err := c.GetOrFetch("k", fetch)
	require.NoError(t, err)
	assert.Equal(t, 1, v)

	v, _ = c.GetOrFetch("k", fetch)
	assert.Equal(t, 1, v, "served from cache")

	now = now.Add(time.Hour)
	v, _ = c.GetOrFetch("k", fetch)
	assert.Equal(t, 2, v, "expired after ttl")

	c.Invalidate()
	v, _ = c.GetOrFetch("k", fetch)
	assert.Equal(t, 3, v, "refetched after invalidate")

	c.InvalidateKey("k")
	assert.Equal(t, 0, c.Len())
}

func TestCache_ErrorsAreNotStored(t *testing.T) {
	c := NewCache[string](time.Hour)
	boom := errors.New("boom")

	v, err := c.GetOrFetch("k", func() (string, error) { return "partial", boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, "partial", v)

	_, ok := c.Get("k")
	assert.False(t, ok)
}

func TestCache_InvalidateDuringFetchDropsResult(t *testing.T) {
	c := NewCache[string](time.Hour)

	v, err := c.GetOrFetch("k", func() (string, error) {
		c.Invalidate()
		return "stale", nil
	})
	require.NoError(t, err)
	assert.Equal(t, "stale", v, "caller still gets its value")

	_, ok := c.Get("k")
	assert.False(t, ok, "result fetched before the invalidation is not stored")

	v, _ = c.GetOrFetch("k", func() (string, error) { return "fresh", nil })
	assert.Equal(t, "fresh", v)
	got, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, "fresh", got)
}
