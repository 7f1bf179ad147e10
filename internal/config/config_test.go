package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 1500*time.Millisecond, cfg.Interval)
	assert.False(t, cfg.Threads)
	assert.Equal(t, "cpu", cfg.Sort)
}

func TestFromFlags(t *testing.T) {
	cfg := FromFlags([]string{"-interval", "2s", "-threads", "-sort", "mem"})
	assert.Equal(t, 2*time.Second, cfg.Interval)
	assert.True(t, cfg.Threads)
	assert.Equal(t, "mem", cfg.Sort)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("PROCTOP_INTERVAL", "500ms")
	t.Setenv("PROCTOP_THREADS", "1")
	t.Setenv("PROCTOP_SORT", "pid")

	cfg := FromFlags(nil)
	assert.Equal(t, 500*time.Millisecond, cfg.Interval)
	assert.True(t, cfg.Threads)
	assert.Equal(t, "pid", cfg.Sort)
}

func TestEnvBareSeconds(t *testing.T) {
	t.Setenv("PROCTOP_INTERVAL", "3")
	cfg := FromFlags(nil)
	assert.Equal(t, 3*time.Second, cfg.Interval)
}

func TestNonPositiveIntervalFallsBack(t *testing.T) {
	cfg := FromFlags([]string{"-interval", "-1s"})
	assert.Equal(t, Default().Interval, cfg.Interval)
}
