package resilience

import (
	"sort"
	"sync"
	"time"
)

// EstimatorConfig tunes one latency estimator. Zero fields fall back to defaults.
type EstimatorConfig struct {
	Capacity   int           // ring buffer size
	MinSamples int           // samples required before adapting
	Floor      time.Duration // lower bound on every derived timeout
	Default    time.Duration // static total timeout while below MinSamples
}

func (c EstimatorConfig) withDefaults() EstimatorConfig {
	if c.Capacity <= 0 {
		c.Capacity = 100
	}
	if c.MinSamples <= 0 {
		c.MinSamples = 10
	}
	if c.Floor <= 0 {
		c.Floor = 5 * time.Second
	}
	if c.Default <= 0 {
		c.Default = 30 * time.Second
	}
	return c
}

// Timeouts is the (connect, read, total) triple recommended for one call.
type Timeouts struct {
	Connect time.Duration
	Read    time.Duration
	Total   time.Duration
}

// TimeoutEstimator keeps a bounded FIFO history of observed latencies per
// source and derives deadlines from percentiles. One mutex guards the ring.
type TimeoutEstimator struct {
	mu sync.Mutex

	cfg     EstimatorConfig
	samples []time.Duration
	next    int
	full    bool
}

// NewTimeoutEstimator builds an empty history.
func NewTimeoutEstimator(cfg EstimatorConfig) *TimeoutEstimator {
	cfg = cfg.withDefaults()
	return &TimeoutEstimator{
		cfg:     cfg,
		samples: make([]time.Duration, cfg.Capacity),
	}
}

// Record appends one observed latency, evicting the oldest once full.
func (te *TimeoutEstimator) Record(latency time.Duration) {
	if latency < 0 {
		return
	}

	te.mu.Lock()
	defer te.mu.Unlock()

	te.samples[te.next] = latency
	te.next++
	if te.next == len(te.samples) {
		te.next = 0
		te.full = true
	}
}

// Count reports how many samples the history currently holds.
func (te *TimeoutEstimator) Count() int {
	te.mu.Lock()
	defer te.mu.Unlock()
	return te.count()
}

// mutex held by caller
func (te *TimeoutEstimator) count() int {
	if te.full {
		return len(te.samples)
	}
	return te.next
}

// snapshot copies the live window, sorted ascending.
// mutex held by caller
func (te *TimeoutEstimator) snapshot() []time.Duration {
	n := te.count()
	out := make([]time.Duration, n)
	copy(out, te.samples[:n])
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(p * float64(len(sorted)-1))
	return sorted[idx]
}

// Estimate derives the recommended timeout triple. Below MinSamples it
// returns the static default for all three values. The multipliers are
// tuning choices; derived values only need to be monotone in the inputs
// and never below Floor.
func (te *TimeoutEstimator) Estimate() Timeouts {
	te.mu.Lock()
	defer te.mu.Unlock()

	if te.count() < te.cfg.MinSamples {
		d := max(te.cfg.Default, te.cfg.Floor)
		return Timeouts{Connect: d, Read: d, Total: d}
	}

	sorted := te.snapshot()
	p50 := percentile(sorted, 0.50)
	p95 := percentile(sorted, 0.95)
	p99 := percentile(sorted, 0.99)

	return Timeouts{
		Connect: max(te.cfg.Floor, time.Duration(1.5*float64(p50))+5*time.Second),
		Read:    max(te.cfg.Floor, time.Duration(1.2*float64(p95))+10*time.Second),
		Total:   max(te.cfg.Floor, time.Duration(1.1*float64(p99))+15*time.Second),
	}
}
