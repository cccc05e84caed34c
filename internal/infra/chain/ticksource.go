// Package chain provides tick sources. The lottery core never controls the
// clock — it only reads the current tick, which in production stands in for
// the block height of the external consensus substrate.
package chain

import (
	"sync/atomic"
	"time"
)

// TickSource reports the current external monotonic tick.
type TickSource interface {
	CurrentTick() uint64
}

// ─── Interval Clock ─────────────────────────────────────────────────────────

// IntervalClock derives a block-height style tick from wall time: one tick
// per interval elapsed since genesis. The genesis instant is persisted by the
// daemon so ticks stay monotonic across restarts.
type IntervalClock struct {
	genesis  time.Time
	interval time.Duration
}

// NewIntervalClock creates a clock ticking once per interval since genesis.
func NewIntervalClock(genesis time.Time, interval time.Duration) *IntervalClock {
	if interval <= 0 {
		interval = time.Second
	}
	return &IntervalClock{genesis: genesis, interval: interval}
}

// CurrentTick returns the number of whole intervals elapsed since genesis.
func (c *IntervalClock) CurrentTick() uint64 {
	elapsed := time.Since(c.genesis)
	if elapsed < 0 {
		return 0
	}
	return uint64(elapsed / c.interval)
}

// ─── Manual Clock ───────────────────────────────────────────────────────────

// Manual is a hand-driven tick source for tests and local experiments.
type Manual struct {
	tick atomic.Uint64
}

// NewManual creates a manual clock starting at the given tick.
func NewManual(start uint64) *Manual {
	m := &Manual{}
	m.tick.Store(start)
	return m
}

// CurrentTick returns the stored tick.
func (m *Manual) CurrentTick() uint64 { return m.tick.Load() }

// Set moves the clock to an absolute tick.
func (m *Manual) Set(tick uint64) { m.tick.Store(tick) }

// Advance moves the clock forward by n ticks.
func (m *Manual) Advance(n uint64) { m.tick.Add(n) }
