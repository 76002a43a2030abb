package table

import (
	"sync"
	"time"
)

const DefaultSettleDelay = 700 * time.Millisecond

// Aggregator debounces total recomputation for one table. Bursts of Trigger
// calls collapse into a single pass that runs once the delay has passed since
// the last call.
type Aggregator struct {
	table       *Table
	delay       time.Duration
	onRecompute func([]float64)

	mu      sync.Mutex
	timer   *time.Timer
	pending bool
	stopped bool
}

// NewAggregator returns an idle aggregator. onRecompute may be nil.
func NewAggregator(t *Table, delay time.Duration, onRecompute func([]float64)) *Aggregator {
	if delay <= 0 {
		delay = DefaultSettleDelay
	}
	return &Aggregator{
		table:       t,
		delay:       delay,
		onRecompute: onRecompute,
	}
}

// Trigger schedules a recomputation, pushing back any pass that has not run yet.
func (a *Aggregator) Trigger() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.stopped {
		return
	}
	a.pending = true
	if a.timer == nil {
		a.timer = time.AfterFunc(a.delay, a.fire)
		return
	}
	a.timer.Reset(a.delay)
}

// Flush runs a pending pass immediately and returns the current totals.
// Without a pending pass the cached totals are returned.
func (a *Aggregator) Flush() []float64 {
	a.mu.Lock()
	pending := a.pending
	a.pending = false
	if a.timer != nil {
		a.timer.Stop()
	}
	a.mu.Unlock()

	if !pending {
		return a.table.Totals()
	}
	return a.run()
}

// Pending reports whether a pass is scheduled and has not run yet.
func (a *Aggregator) Pending() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pending
}

// Stop cancels a scheduled pass. Later triggers are ignored.
func (a *Aggregator) Stop() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.stopped = true
	a.pending = false
	if a.timer != nil {
		a.timer.Stop()
	}
}

func (a *Aggregator) fire() {
	a.mu.Lock()
	if !a.pending || a.stopped {
		a.mu.Unlock()
		return
	}
	a.pending = false
	a.mu.Unlock()

	a.run()
}

func (a *Aggregator) run() []float64 {
	totals := a.table.RecomputeTotals()
	if a.onRecompute != nil {
		a.onRecompute(totals)
	}
	return totals
}
