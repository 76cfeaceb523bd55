package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func newTestLRU(size int) (*LRU[int], *time.Time) {
	now := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	c := NewLRU[int](size)
	c.now = func() time.Time { return now }
	return c, &now
}

func TestLRU_GetSet(t *testing.T) {
	c, now := newTestLRU(10)

	c.Set("a", 1, now.Add(time.Minute))
	v, ok := c.Get("a")
	assert.True(t, ok)
	assert.Equal(t, 1, v)

	c.Set("a", 2, now.Add(time.Minute))
	v, _ = c.Get("a")
	assert.Equal(t, 2, v)

	_, ok = c.Get("missing")
	assert.False(t, ok)

	c.Delete("a")
	_, ok = c.Get("a")
	assert.False(t, ok)
}

func TestLRU_Expiry(t *testing.T) {
	c, now := newTestLRU(10)

	c.Set("short", 1, now.Add(time.Second))
	c.Set("long", 2, now.Add(time.Hour))
	c.Set("stale", 3, now.Add(-time.Second))
	assert.Equal(t, 2, c.Len())

	*now = now.Add(time.Second)
	_, ok := c.Get("short")
	assert.False(t, ok, "deadline is exclusive")
	assert.Equal(t, 1, c.Len())

	*now = now.Add(2 * time.Hour)
	assert.Equal(t, 1, c.CleanExpired())
	assert.Equal(t, 0, c.Len())
}

func TestLRU_EvictsLeastRecentlyUsed(t *testing.T) {
	c, now := newTestLRU(2)
	exp := now.Add(time.Hour)

	c.Set("a", 1, exp)
	c.Set("b", 2, exp)
	c.Get("a")
	c.Set("c", 3, exp)

	_, ok := c.Get("b")
	assert.False(t, ok)
	_, ok = c.Get("a")
	assert.True(t, ok)
	_, ok = c.Get("c")
	assert.True(t, ok)
	assert.Equal(t, 2, c.Len())
}
