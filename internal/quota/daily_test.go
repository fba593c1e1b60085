package quota

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestAdvisoryCounterAllowsUpToLimit(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	counter := NewAdvisoryCounter(clock.Now)
	resetAt := clock.Now().Add(12 * time.Hour)

	for i := 0; i < 3; i++ {
		assert.True(t, counter.Allow("u|vision", 3, resetAt))
	}
	assert.False(t, counter.Allow("u|vision", 3, resetAt))
	assert.Equal(t, 3, counter.Count("u|vision"))
}

func TestAdvisoryCounterKeysAreIndependent(t *testing.T) {
	t.Parallel()

	clock := newFakeClock()
	counter := NewAdvisoryCounter(clock.Now)
	resetAt := clock.Now().Add(12 * time.Hour)

	assert.True(t, counter.Allow("u|vision", 1, resetAt))
	assert.False(t, counter.Allow("u|vision", 1, resetAt))
	assert.True(t, counter.Allow("u|nutrition", 1, resetAt))
	assert.True(t, counter.Allow("v|vision", 1, resetAt))
}

func TestAdvisoryCounterEntriesExpire(t *testing.T) {
	t.Parallel()

	// The cache TTL runs on wall-clock time, so this test uses a real reset
	// horizon a few milliseconds out instead of the fake clock.
	counter := NewAdvisoryCounter(nil)
	resetAt := time.Now().Add(20 * time.Millisecond)

	assert.True(t, counter.Allow("u|vision", 1, resetAt))
	assert.False(t, counter.Allow("u|vision", 1, resetAt))

	time.Sleep(30 * time.Millisecond)

	// The day rolled over: the counter starts from zero again.
	assert.True(t, counter.Allow("u|vision", 1, time.Now().Add(time.Hour)))
}
