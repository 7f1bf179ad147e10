package stats

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCPUTimes_WorkAndTotal(t *testing.T) {
	c := CPUTimes{
		User: 1, Nice: 2, System: 3, Idle: 4, IOWait: 5,
		IRQ: 6, SoftIRQ: 7, Steal: 8, Guest: 9, GuestNice: 10,
	}
	assert.Equal(t, uint64(1+2+3+6+7), c.Work())
	assert.Equal(t, c.Work()+4+5+8+9+10, c.Total())
	assert.LessOrEqual(t, c.Work(), c.Total())
}

func TestCPUTimes_Usage(t *testing.T) {
	t.Run("aggregate_scenario", func(t *testing.T) {
		prev := CPUTimes{User: 1000, Idle: 9000}
		curr := CPUTimes{User: 1100, Idle: 9300}
		pct, ok := curr.Usage(prev)
		require.True(t, ok)
		assert.InDelta(t, 25.0, pct, 1e-9, "dwork=100 over dtotal=400")
	})

	t.Run("no_elapsed_ticks", func(t *testing.T) {
		c := CPUTimes{User: 1000, Idle: 9000}
		_, ok := c.Usage(c)
		assert.False(t, ok)
	})

	t.Run("work_counter_went_backwards", func(t *testing.T) {
		prev := CPUTimes{User: 1000, Idle: 9000}
		curr := CPUTimes{User: 900, Idle: 9500}
		pct, ok := curr.Usage(prev)
		require.True(t, ok)
		assert.Equal(t, 0.0, pct)
	})

	t.Run("bounded", func(t *testing.T) {
		prev := CPUTimes{User: 100, Idle: 100}
		curr := CPUTimes{User: 500, Idle: 100}
		pct, ok := curr.Usage(prev)
		require.True(t, ok)
		assert.GreaterOrEqual(t, pct, 0.0)
		assert.LessOrEqual(t, pct, 100.0)
	})
}

func TestSystemCPU_FirstPassAbsent(t *testing.T) {
	sys := NewSystemCPU()

	avg, per := sys.Observe(CPUTimes{User: 10, Idle: 90}, []CPUTimes{{User: 10, Idle: 90}})
	assert.Nil(t, avg, "first pass has no baseline")
	assert.Nil(t, per)
}

func TestSystemCPU_SecondPass(t *testing.T) {
	sys := NewSystemCPU()

	sys.Observe(
		CPUTimes{User: 1000, Idle: 9000},
		[]CPUTimes{{User: 500, Idle: 4500}, {User: 500, Idle: 4500}},
	)
	avg, per := sys.Observe(
		CPUTimes{User: 1100, Idle: 9300},
		[]CPUTimes{{User: 600, Idle: 4500}, {User: 500, Idle: 4800}},
	)
	require.NotNil(t, avg)
	assert.InDelta(t, 25.0, *avg, 1e-9)
	require.Len(t, per, 2)
	assert.InDelta(t, 100.0, per[0], 1e-9)
	assert.InDelta(t, 0.0, per[1], 1e-9)
}

func TestSystemCPU_CPUCountChanged(t *testing.T) {
	sys := NewSystemCPU()

	sys.Observe(CPUTimes{User: 100}, []CPUTimes{{User: 50}})
	_, per := sys.Observe(CPUTimes{User: 200, Idle: 100}, []CPUTimes{{User: 100, Idle: 50}, {User: 100, Idle: 50}})
	assert.Len(t, per, 1, "only the overlapping prefix is comparable")
}

func TestSystemCPU_Reset(t *testing.T) {
	sys := NewSystemCPU()

	sys.Observe(CPUTimes{User: 1000, Idle: 9000}, nil)
	sys.Reset()

	avg, per := sys.Observe(CPUTimes{User: 1100, Idle: 9300}, nil)
	assert.Nil(t, avg)
	assert.Nil(t, per)
}

func TestSatAdd(t *testing.T) {
	assert.Equal(t, uint64(3), satAdd(1, 2))
	assert.Equal(t, ^uint64(0), satAdd(^uint64(0), 1), "saturates instead of wrapping")
}
