package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	t.Run("kernel_thread", func(t *testing.T) {
		assert.Equal(t, KernelThread, Classify(2, 2, ""))
		// An empty command line wins even for a non-leader id.
		assert.Equal(t, KernelThread, Classify(43, 42, ""))
	})
	t.Run("task", func(t *testing.T) {
		assert.Equal(t, Task, Classify(42, 42, "/usr/bin/worker"))
	})
	t.Run("thread", func(t *testing.T) {
		assert.Equal(t, Thread, Classify(43, 42, "/usr/bin/worker"))
	})
}

func TestProcessTypeString(t *testing.T) {
	assert.Equal(t, "task", Task.String())
	assert.Equal(t, "thread", Thread.String())
	assert.Equal(t, "kthread", KernelThread.String())
	assert.Equal(t, "unknown", ProcessType(99).String())
}

func TestZero(t *testing.T) {
	s := Zero()
	assert.False(t, s.Timestamp.IsZero())
	assert.Nil(t, s.CPUAvg)
	assert.Nil(t, s.PerCPU)
	assert.Empty(t, s.Processes)
}
