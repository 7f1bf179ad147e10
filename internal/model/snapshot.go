package model

import "time"

// ProcessType tags what kind of schedulable entity a procfs entry is.
type ProcessType int

const (
	// Task is an ordinary userspace process (the thread-group leader).
	Task ProcessType = iota
	// Thread is a non-leader task inside another process's thread group.
	Thread
	// KernelThread is a kernel-owned task; it has no command line.
	KernelThread
)

func (t ProcessType) String() string {
	switch t {
	case Task:
		return "task"
	case Thread:
		return "thread"
	case KernelThread:
		return "kthread"
	default:
		return "unknown"
	}
}

// Classify is the single source of truth for process classification.
// Kernel threads expose an empty command line; a task whose id equals the
// thread-group leader's id is the process itself, anything else is a thread.
func Classify(id, parent int, cmdline string) ProcessType {
	switch {
	case cmdline == "":
		return KernelThread
	case id == parent:
		return Task
	default:
		return Thread
	}
}

// RunState is the single-letter scheduler state from the stat line.
type RunState string

const (
	StateRunning  RunState = "R"
	StateSleeping RunState = "S"
	StateWaiting  RunState = "D"
	StateZombie   RunState = "Z"
	StateStopped  RunState = "T"
	StateTracing  RunState = "t"
	StateDead     RunState = "X"
	StateIdle     RunState = "I"
)

// ProcessInfo is one row of a snapshot's process table.
//
// CPUPercent is nil until a second sample for the same identity exists; it
// is relative to a single core, so a process running on n cores may report
// up to n*100.
type ProcessInfo struct {
	PID           int
	UID           *uint32 // nil when the owner could not be determined
	Name          string
	State         RunState
	Memory        uint64 // resident bytes
	VirtualMemory uint64
	CPUPercent    *float64
	Cmdline       string
	Type          ProcessType
	NumThreads    int
}

// ThreadCounts breaks the observed identities down by classification.
type ThreadCounts struct {
	Tasks         int
	Threads       int
	KernelThreads int
}

// LoadAvg holds the 1/5/15-minute load averages.
type LoadAvg struct {
	One     float64
	Five    float64
	Fifteen float64
}

// MemSwap holds memory and swap totals in bytes.
type MemSwap struct {
	MemTotal  uint64
	MemUsed   uint64
	SwapTotal uint64
	SwapUsed  uint64
}

// Snapshot is the assembled result of one sampling pass. It is immutable
// once delivered and consumed exactly once by the presentation layer.
//
// CPUAvg and PerCPU are nil on the very first pass (no baseline yet) and
// whenever the system counters were unreadable; nil means unknown, which
// is deliberately distinct from zero.
type Snapshot struct {
	Timestamp time.Time
	Uptime    time.Duration
	Processes []ProcessInfo
	Counts    ThreadCounts
	CPUAvg    *float64
	PerCPU    []float64
	Load      LoadAvg
	Memory    MemSwap
}

// Zero returns an empty snapshot for initialization.
func Zero() Snapshot { return Snapshot{Timestamp: time.Now()} }
