package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTracker_FirstObservationUnknown(t *testing.T) {
	tr := NewTracker()

	_, ok := tr.Observe(100, 10.0, 500, 100)
	assert.False(t, ok, "no baseline yet")
	assert.Equal(t, 1, tr.Len())
}

func TestTracker_MonotonicDelta(t *testing.T) {
	tr := NewTracker()

	_, ok := tr.Observe(100, 10.0, 500, 100)
	require.False(t, ok)

	// 200 ticks used over 2.0s at 100 ticks/s => a full core.
	pct, ok := tr.Observe(100, 12.0, 700, 100)
	require.True(t, ok)
	assert.InDelta(t, 100.0, pct, 1e-9)
}

func TestTracker_MultiCoreExceeds100(t *testing.T) {
	tr := NewTracker()

	tr.Observe(7, 10.0, 0, 100)
	pct, ok := tr.Observe(7, 11.0, 250, 100)
	require.True(t, ok)
	assert.InDelta(t, 250.0, pct, 1e-9, "per-process figure is relative to one core")
}

func TestTracker_CounterResetSaturates(t *testing.T) {
	tr := NewTracker()

	tr.Observe(100, 10.0, 700, 100)
	pct, ok := tr.Observe(100, 12.0, 500, 100)
	require.True(t, ok)
	assert.Equal(t, 0.0, pct, "decreased counter saturates to a zero delta")

	// The stored baseline moved to the new reading.
	pct, ok = tr.Observe(100, 13.0, 600, 100)
	require.True(t, ok)
	assert.InDelta(t, 100.0, pct, 1e-9)
}

func TestTracker_ZeroIntervalUnknown(t *testing.T) {
	tr := NewTracker()

	tr.Observe(100, 10.0, 500, 100)

	_, ok := tr.Observe(100, 10.0, 700, 100)
	assert.False(t, ok, "zero elapsed time must not divide")

	_, ok = tr.Observe(100, 9.0, 900, 100)
	assert.False(t, ok, "negative elapsed time must not divide")
}

func TestTracker_EvictStale(t *testing.T) {
	tr := NewTracker()

	tr.Observe(1, 10.0, 100, 100)
	tr.Observe(2, 10.0, 100, 100)
	tr.Observe(3, 10.0, 100, 100)

	tr.EvictStale(map[int]struct{}{1: {}, 3: {}})
	assert.Equal(t, 2, tr.Len())

	// The evicted identity starts over; its old baseline is gone.
	_, ok := tr.Observe(2, 12.0, 300, 100)
	assert.False(t, ok)

	pct, ok := tr.Observe(1, 12.0, 300, 100)
	require.True(t, ok)
	assert.InDelta(t, 100.0, pct, 1e-9)
}

func TestTracker_EvictAll(t *testing.T) {
	tr := NewTracker()
	tr.Observe(1, 10.0, 100, 100)
	tr.EvictStale(map[int]struct{}{})
	assert.Equal(t, 0, tr.Len())
}

func TestTracker_Reset(t *testing.T) {
	tr := NewTracker()

	tr.Observe(1, 10.0, 100, 100)
	tr.Observe(2, 10.0, 100, 100)
	tr.Reset()
	assert.Equal(t, 0, tr.Len())

	_, ok := tr.Observe(1, 12.0, 300, 100)
	assert.False(t, ok, "post-reset observation is a fresh first sight")
}

func TestSatDelta(t *testing.T) {
	t.Run("increase", func(t *testing.T) {
		assert.Equal(t, uint64(10), satDelta(110, 100))
	})
	t.Run("no_change", func(t *testing.T) {
		assert.Equal(t, uint64(0), satDelta(100, 100))
	})
	t.Run("decrease", func(t *testing.T) {
		assert.Equal(t, uint64(0), satDelta(99, 100))
	})
}
