package stats

// CPUTimes is one /proc/stat cpu line: cumulative ticks spent in each
// scheduler state since boot, for the whole machine or one logical CPU.
type CPUTimes struct {
	User      uint64
	Nice      uint64
	System    uint64
	Idle      uint64
	IOWait    uint64
	IRQ       uint64
	SoftIRQ   uint64
	Steal     uint64
	Guest     uint64
	GuestNice uint64
}

// Work is the time spent doing something.
func (c CPUTimes) Work() uint64 {
	return satAdd(satAdd(satAdd(satAdd(c.User, c.System), c.Nice), c.IRQ), c.SoftIRQ)
}

// Total is the full tick budget for the same interval.
func (c CPUTimes) Total() uint64 {
	return satAdd(satAdd(satAdd(satAdd(satAdd(c.Work(), c.Idle), c.IOWait), c.Steal), c.Guest), c.GuestNice)
}

// Usage computes the busy percentage between prev and c. Both numerator
// and denominator are deltas of the same tick counter, so no
// ticks-per-second factor is needed and the result is bounded to [0,100].
// Reports unknown when the total did not advance, and saturates decreased
// counters to zero.
func (c CPUTimes) Usage(prev CPUTimes) (float64, bool) {
	dTotal := satDelta(c.Total(), prev.Total())
	if dTotal == 0 {
		return 0, false
	}
	dWork := satDelta(c.Work(), prev.Work())
	return float64(dWork) * 100 / float64(dTotal), true
}

// SystemCPU retains the previous pass's aggregate and per-CPU counters.
type SystemCPU struct {
	prevTotal  CPUTimes
	prevPerCPU []CPUTimes
	primed     bool
}

func NewSystemCPU() *SystemCPU {
	return &SystemCPU{}
}

// Observe swaps in the current counters and returns the machine-wide and
// per-CPU busy percentages since the previous call. The first call only
// primes the baselines and returns (nil, nil): absent, not zero.
//
// Per-CPU lists are matched by index; if the number of online CPUs changed
// between passes, the result covers the overlapping prefix only.
func (s *SystemCPU) Observe(total CPUTimes, perCPU []CPUTimes) (*float64, []float64) {
	var avg *float64
	var percents []float64

	if s.primed {
		if v, ok := total.Usage(s.prevTotal); ok {
			avg = &v
		}
		n := len(perCPU)
		if len(s.prevPerCPU) < n {
			n = len(s.prevPerCPU)
		}
		if n > 0 {
			percents = make([]float64, 0, n)
			for i := 0; i < n; i++ {
				v, _ := perCPU[i].Usage(s.prevPerCPU[i])
				percents = append(percents, v)
			}
		}
	}

	s.prevTotal = total
	s.prevPerCPU = perCPU
	s.primed = true
	return avg, percents
}

// Reset forgets the retained counters; the next Observe primes again.
func (s *SystemCPU) Reset() {
	s.prevTotal = CPUTimes{}
	s.prevPerCPU = nil
	s.primed = false
}

func satAdd(a, b uint64) uint64 {
	if sum := a + b; sum >= a {
		return sum
	}
	return ^uint64(0)
}
