// Package stats turns pairs of cumulative kernel counters into
// instantaneous utilization percentages. It owns all previous-sample
// state; the sampler goroutine is its only caller, so nothing here locks.
package stats

// baseline is the last-seen counter reading for one identity.
type baseline struct {
	timestamp float64 // seconds since boot at the time of the read
	ticks     uint64  // cumulative utime+stime
}

// Tracker maps process/thread identities to their previous sample.
//
// Identities are OS pid/tid values and are reused after an entity dies, so
// entries not re-observed in a pass must be evicted before the id can come
// back attached to an unrelated process.
type Tracker struct {
	prev map[int]baseline
}

func NewTracker() *Tracker {
	return &Tracker{prev: make(map[int]baseline)}
}

// Observe records a counter reading and returns the CPU percentage since
// the previous reading for the same identity.
//
// The first observation of an identity only establishes the baseline and
// reports unknown (ok == false). A non-positive elapsed interval also
// reports unknown. A counter that moved backwards (reset, wraparound, or
// pid reuse inside one pass) saturates to a zero delta rather than
// underflowing. The stored baseline is advanced on every call.
func (t *Tracker) Observe(id int, timestamp float64, ticks uint64, ticksPerSec uint64) (float64, bool) {
	prev, seen := t.prev[id]
	t.prev[id] = baseline{timestamp: timestamp, ticks: ticks}
	if !seen {
		return 0, false
	}

	elapsed := (timestamp - prev.timestamp) * float64(ticksPerSec)
	if elapsed <= 0 {
		return 0, false
	}
	return float64(satDelta(ticks, prev.ticks)) * 100 / elapsed, true
}

// EvictStale drops every identity not present in seen. Called once per
// pass with the identities enumerated in that pass; this bounds the store
// as processes churn and guarantees a reused id starts from a clean
// baseline.
func (t *Tracker) EvictStale(seen map[int]struct{}) {
	for id := range t.prev {
		if _, ok := seen[id]; !ok {
			delete(t.prev, id)
		}
	}
}

// Reset clears all baselines. Used when the sampling granularity flips
// between processes and threads: the two identity populations are
// disjoint, so every retained baseline is invalid.
func (t *Tracker) Reset() {
	clear(t.prev)
}

// Len reports the number of retained baselines.
func (t *Tracker) Len() int { return len(t.prev) }

// satDelta returns curr - prev, saturating at zero on a decrease.
func satDelta(curr, prev uint64) uint64 {
	if curr < prev {
		return 0
	}
	return curr - prev
}
