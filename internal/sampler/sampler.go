// Package sampler drives one sampling pass per interval on a dedicated
// goroutine and delivers assembled snapshots over a bounded channel. All
// previous-sample state is owned by that goroutine; the UI talks to it
// only through channels.
package sampler

import (
	"context"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/Dicklesworthstone/proctop/internal/model"
	"github.com/Dicklesworthstone/proctop/internal/procfs"
	"github.com/Dicklesworthstone/proctop/internal/stats"
)

// Sampler periodically assembles Snapshots from procfs counters.
type Sampler struct {
	Interval time.Duration

	reader  *procfs.Reader
	tracker *stats.Tracker
	sysCPU  *stats.SystemCPU
	threads bool

	ctrl chan bool
	errs chan error
}

func New(interval time.Duration) *Sampler {
	return NewWithReader(interval, procfs.New())
}

// NewWithReader wires an explicit reader; tests use it with fixture trees.
func NewWithReader(interval time.Duration, r *procfs.Reader) *Sampler {
	return &Sampler{
		Interval: interval,
		reader:   r,
		tracker:  stats.NewTracker(),
		sysCPU:   stats.NewSystemCPU(),
		ctrl:     make(chan bool, 1),
		errs:     make(chan error, 4),
	}
}

// Stream starts the sampling goroutine and returns its snapshot channel.
// The channel is unbuffered: a slow consumer pauses sampling rather than
// growing a backlog. It is closed when ctx is cancelled.
func (s *Sampler) Stream(ctx context.Context) <-chan model.Snapshot {
	ch := make(chan model.Snapshot)
	go s.loop(ctx, ch)
	return ch
}

// Errors returns the status channel for pass failures. Sends never block;
// if nobody drains it, messages are dropped, not buffered unboundedly.
func (s *Sampler) Errors() <-chan error { return s.errs }

// SetThreadDetail asks the loop to switch between process-level and
// thread-level enumeration. Applied at or before the next pass; the last
// request before the loop wakes wins.
func (s *Sampler) SetThreadDetail(enabled bool) {
	for {
		select {
		case s.ctrl <- enabled:
			return
		default:
			select {
			case <-s.ctrl:
			default:
			}
		}
	}
}

func (s *Sampler) loop(ctx context.Context, ch chan<- model.Snapshot) {
	defer close(ch)
	for {
		snap, err := s.pass(time.Now())
		if err != nil {
			s.report(err)
		} else {
			select {
			case ch <- snap:
			case <-ctx.Done():
				return
			}
		}

		// Sleep until the next tick, waking early for a mode change so a
		// toggle is applied promptly rather than a full interval later.
		timer := time.NewTimer(s.Interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case enabled := <-s.ctrl:
			timer.Stop()
			if enabled != s.threads {
				s.threads = enabled
				// Process-level and thread-level identity sets are
				// disjoint populations; every baseline is now invalid.
				s.tracker.Reset()
			}
		case <-timer.C:
		}
	}
}

func (s *Sampler) report(err error) {
	select {
	case s.errs <- err:
	default:
	}
}

// pass performs one complete sampling cycle. Only an unreadable uptime
// aborts the pass; everything else degrades individual fields.
func (s *Sampler) pass(now time.Time) (model.Snapshot, error) {
	uptime, err := s.reader.Uptime()
	if err != nil {
		return model.Snapshot{}, fmt.Errorf("sampling pass: %w", err)
	}

	procs, counts, seen := s.collect(uptime)
	s.tracker.EvictStale(seen)

	var cpuAvg *float64
	var perCPU []float64
	if total, per, err := s.reader.CPUTimes(); err == nil {
		cpuAvg, perCPU = s.sysCPU.Observe(total, per)
	} else {
		s.report(fmt.Errorf("sampling pass: %w", err))
	}

	var la model.LoadAvg
	if avg, err := load.Avg(); err == nil {
		la = model.LoadAvg{One: avg.Load1, Five: avg.Load5, Fifteen: avg.Load15}
	}

	var ms model.MemSwap
	if vm, err := mem.VirtualMemory(); err == nil {
		ms.MemTotal = vm.Total
		ms.MemUsed = vm.Total - vm.Available
	}
	if sw, err := mem.SwapMemory(); err == nil {
		ms.SwapTotal = sw.Total
		ms.SwapUsed = sw.Used
	}

	return model.Snapshot{
		Timestamp: now,
		Uptime:    time.Duration(uptime * float64(time.Second)),
		Processes: procs,
		Counts:    counts,
		CPUAvg:    cpuAvg,
		PerCPU:    perCPU,
		Load:      la,
		Memory:    ms,
	}, nil
}

// collect enumerates the current identity set, routes each cumulative
// counter through the tracker, and tallies classifications. Identities
// that vanish between enumeration and read are silently skipped.
func (s *Sampler) collect(uptime float64) ([]model.ProcessInfo, model.ThreadCounts, map[int]struct{}) {
	pids, err := s.reader.PIDs()
	if err != nil {
		s.report(fmt.Errorf("enumerate processes: %w", err))
		return nil, model.ThreadCounts{}, map[int]struct{}{}
	}

	var procs []model.ProcessInfo
	var counts model.ThreadCounts
	seen := make(map[int]struct{}, len(pids))

	observe := func(ps procfs.ProcessSample) model.ProcessInfo {
		seen[ps.ID] = struct{}{}
		info := model.ProcessInfo{
			PID:           ps.ID,
			UID:           ps.UID,
			Name:          ps.Name,
			State:         ps.State,
			Memory:        ps.Memory,
			VirtualMemory: ps.VirtualMemory,
			Cmdline:       ps.Cmdline,
			Type:          ps.Type,
			NumThreads:    ps.NumThreads,
		}
		if pct, ok := s.tracker.Observe(ps.ID, uptime, ps.CPUTicks, s.reader.ClockTicks()); ok {
			info.CPUPercent = &pct
		}
		return info
	}

	for _, pid := range pids {
		if !s.threads {
			ps, ok := s.reader.ProcessSample(pid, pid)
			if !ok {
				continue
			}
			info := observe(ps)
			if info.Type == model.KernelThread {
				counts.KernelThreads++
			} else {
				counts.Tasks++
			}
			if ps.NumThreads > 1 {
				counts.Threads += ps.NumThreads - 1
			}
			procs = append(procs, info)
			continue
		}

		for _, tid := range s.reader.TIDs(pid) {
			ps, ok := s.reader.ProcessSample(tid, pid)
			if !ok {
				continue
			}
			info := observe(ps)
			switch info.Type {
			case model.KernelThread:
				counts.KernelThreads++
			case model.Thread:
				counts.Threads++
			default:
				counts.Tasks++
			}
			procs = append(procs, info)
		}
	}
	return procs, counts, seen
}
