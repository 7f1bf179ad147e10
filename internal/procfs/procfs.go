// Package procfs reads the raw, cumulative kernel counters and static
// process metadata the sampler works from. Reads are point-in-time and
// best-effort: a process racing with its own exit is expected, not an
// error. All state derived from two reads lives elsewhere.
package procfs

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"

	"github.com/tklauser/go-sysconf"

	"github.com/Dicklesworthstone/proctop/internal/model"
	"github.com/Dicklesworthstone/proctop/internal/stats"
)

// Reader translates a procfs mount into samples. The root is configurable
// so tests can point it at a fixture tree.
type Reader struct {
	root     string
	clkTck   uint64
	pageSize uint64
}

func New() *Reader { return NewWithRoot("/proc") }

func NewWithRoot(root string) *Reader {
	return &Reader{
		root:     root,
		clkTck:   clockTicks(),
		pageSize: uint64(os.Getpagesize()),
	}
}

// ClockTicks returns the scheduler ticks-per-second constant used to turn
// wall-clock intervals into tick budgets.
func (r *Reader) ClockTicks() uint64 { return r.clkTck }

func clockTicks() uint64 {
	if hz, err := sysconf.Sysconf(sysconf.SC_CLK_TCK); err == nil && hz > 0 {
		return uint64(hz)
	}
	return 100
}

// PIDs enumerates the currently running processes. Individual unreadable
// entries are skipped; the result is a best-effort point-in-time view.
func (r *Reader) PIDs() ([]int, error) {
	entries, err := os.ReadDir(r.root)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", r.root, err)
	}
	pids := make([]int, 0, len(entries))
	for _, e := range entries {
		if pid, err := strconv.Atoi(e.Name()); err == nil {
			pids = append(pids, pid)
		}
	}
	return pids, nil
}

// TIDs enumerates the task ids of one process. An unreadable task dir
// (the process exited) yields an empty list.
func (r *Reader) TIDs(pid int) []int {
	entries, err := os.ReadDir(filepath.Join(r.root, strconv.Itoa(pid), "task"))
	if err != nil {
		return nil
	}
	tids := make([]int, 0, len(entries))
	for _, e := range entries {
		if tid, err := strconv.Atoi(e.Name()); err == nil {
			tids = append(tids, tid)
		}
	}
	return tids
}

// Uptime returns fractional wall-clock seconds since boot. This is the
// timestamp attached to every counter read in a pass.
func (r *Reader) Uptime() (float64, error) {
	b, err := os.ReadFile(filepath.Join(r.root, "uptime"))
	if err != nil {
		return 0, fmt.Errorf("read uptime: %w", err)
	}
	first, _, ok := strings.Cut(strings.TrimSpace(string(b)), " ")
	if !ok {
		return 0, ErrMalformedUptime
	}
	uptime, err := strconv.ParseFloat(first, 64)
	if err != nil {
		return 0, ErrMalformedUptime
	}
	return uptime, nil
}

// CPUTimes reads the system stat file once and returns the aggregate tick
// decomposition plus one per logical CPU. A single read keeps the
// aggregate and per-CPU categories skew-free.
func (r *Reader) CPUTimes() (stats.CPUTimes, []stats.CPUTimes, error) {
	b, err := os.ReadFile(filepath.Join(r.root, "stat"))
	if err != nil {
		return stats.CPUTimes{}, nil, fmt.Errorf("read stat: %w", err)
	}

	var total stats.CPUTimes
	var perCPU []stats.CPUTimes
	found := false
	for _, line := range strings.Split(string(b), "\n") {
		switch {
		case strings.HasPrefix(line, "cpu "):
			total = parseCPULine(line)
			found = true
		case strings.HasPrefix(line, "cpu"):
			perCPU = append(perCPU, parseCPULine(line))
		}
	}
	if !found {
		return stats.CPUTimes{}, nil, ErrNoCPULine
	}
	return total, perCPU, nil
}

// parseCPULine parses "cpuN user nice system idle iowait irq softirq
// steal guest guest_nice". Trailing categories are absent on old kernels
// and default to zero.
func parseCPULine(line string) stats.CPUTimes {
	fields := strings.Fields(line)
	get := func(i int) uint64 {
		if i >= len(fields) {
			return 0
		}
		v, _ := strconv.ParseUint(fields[i], 10, 64)
		return v
	}
	return stats.CPUTimes{
		User:      get(1),
		Nice:      get(2),
		System:    get(3),
		Idle:      get(4),
		IOWait:    get(5),
		IRQ:       get(6),
		SoftIRQ:   get(7),
		Steal:     get(8),
		Guest:     get(9),
		GuestNice: get(10),
	}
}

// ProcessSample is one raw per-identity read: cumulative CPU ticks plus
// the static metadata the table shows.
type ProcessSample struct {
	ID            int
	Parent        int
	Name          string
	State         model.RunState
	CPUTicks      uint64
	Memory        uint64 // resident bytes
	VirtualMemory uint64
	NumThreads    int
	Cmdline       string
	UID           *uint32
	Type          model.ProcessType
}

// ProcessSample reads the counters and metadata for one identity. id and
// parent are equal for a process; a thread's parent is its group leader.
// ok is false when the entity exited between enumeration and read.
func (r *Reader) ProcessSample(id, parent int) (ProcessSample, bool) {
	dir := filepath.Join(r.root, strconv.Itoa(parent))
	if id != parent {
		dir = filepath.Join(dir, "task", strconv.Itoa(id))
	}

	b, err := os.ReadFile(filepath.Join(dir, "stat"))
	if err != nil {
		return ProcessSample{}, false
	}
	st, err := parseStat(string(b))
	if err != nil {
		return ProcessSample{}, false
	}

	// Kernel threads have an empty cmdline; a read failure is folded into
	// the same case, matching how the table would render it anyway.
	cmdRaw, _ := os.ReadFile(filepath.Join(dir, "cmdline"))
	cmdline := strings.TrimSpace(strings.ReplaceAll(string(cmdRaw), "\x00", " "))

	var uid *uint32
	if info, err := os.Stat(dir); err == nil {
		if sys, ok := info.Sys().(*syscall.Stat_t); ok {
			u := sys.Uid
			uid = &u
		}
	}

	return ProcessSample{
		ID:            id,
		Parent:        parent,
		Name:          st.name,
		State:         st.state,
		CPUTicks:      st.utime + st.stime,
		Memory:        st.rssPages * r.pageSize,
		VirtualMemory: st.vsize,
		NumThreads:    st.numThreads,
		Cmdline:       cmdline,
		UID:           uid,
		Type:          model.Classify(id, parent, cmdline),
	}, true
}

type statFields struct {
	name       string
	state      model.RunState
	utime      uint64
	stime      uint64
	numThreads int
	vsize      uint64
	rssPages   uint64
}

// parseStat extracts the fields proctop needs from a pid stat line. The
// comm field is wrapped in parens and may itself contain spaces and
// parens, so everything up to the last ") " is pid + comm.
func parseStat(line string) (statFields, error) {
	line = strings.TrimSpace(line)
	end := strings.LastIndex(line, ") ")
	open := strings.IndexByte(line, '(')
	if end < 0 || open < 0 || open > end {
		return statFields{}, ErrMalformedStat
	}

	// Fields after ") ": state ppid pgrp session tty_nr tpgid flags
	// minflt cminflt majflt cmajflt utime stime cutime cstime priority
	// nice num_threads itrealvalue starttime vsize rss ...
	fields := strings.Fields(line[end+2:])
	if len(fields) < 22 {
		return statFields{}, ErrShortStat
	}

	utime, err := strconv.ParseUint(fields[11], 10, 64)
	if err != nil {
		return statFields{}, ErrMalformedStat
	}
	stime, err := strconv.ParseUint(fields[12], 10, 64)
	if err != nil {
		return statFields{}, ErrMalformedStat
	}
	numThreads, err := strconv.Atoi(fields[17])
	if err != nil {
		return statFields{}, ErrMalformedStat
	}
	vsize, err := strconv.ParseUint(fields[20], 10, 64)
	if err != nil {
		return statFields{}, ErrMalformedStat
	}
	rss, err := strconv.ParseUint(fields[21], 10, 64)
	if err != nil {
		return statFields{}, ErrMalformedStat
	}

	return statFields{
		name:       line[open+1 : end],
		state:      model.RunState(fields[0]),
		utime:      utime,
		stime:      stime,
		numThreads: numThreads,
		vsize:      vsize,
		rssPages:   rss,
	}, nil
}
