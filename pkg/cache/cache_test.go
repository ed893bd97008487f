package cache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetSetAndExpiry(t *testing.T) {
	base := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	c := New(5 * time.Minute)
	c.now = func() time.Time { return base }

	_, ok := c.Get("missing")
	assert.False(t, ok)

	c.Set("k", 42)
	v, ok := c.Get("k")
	assert.True(t, ok)
	assert.Equal(t, 42, v)

	// Still fresh just before the deadline.
	c.now = func() time.Time { return base.Add(5*time.Minute - time.Second) }
	_, ok = c.Get("k")
	assert.True(t, ok)

	// Gone at the deadline, and the expired entry is dropped.
	c.now = func() time.Time { return base.Add(5 * time.Minute) }
	_, ok = c.Get("k")
	assert.False(t, ok)
	assert.Empty(t, c.entries)
}

func TestSetRefreshesTTL(t *testing.T) {
	base := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	c := New(time.Minute)
	c.now = func() time.Time { return base }

	c.Set("k", "v1")
	c.now = func() time.Time { return base.Add(50 * time.Second) }
	c.Set("k", "v2")

	c.now = func() time.Time { return base.Add(100 * time.Second) }
	v, ok := c.Get("k")
	assert.True(t, ok, "rewrite restarts the clock")
	assert.Equal(t, "v2", v)
}

func TestInvalidate(t *testing.T) {
	c := New(time.Minute)
	c.Set("a", 1)
	c.Set("b", 2)

	c.Invalidate("a")
	_, ok := c.Get("a")
	assert.False(t, ok)
	_, ok = c.Get("b")
	assert.True(t, ok)

	c.InvalidateAll()
	_, ok = c.Get("b")
	assert.False(t, ok)
}
