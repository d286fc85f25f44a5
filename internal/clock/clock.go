// Package clock implements the two clock variants: a deterministic
// TestClock driving the backtest's logical time, and a LiveClock wrapping
// wall-clock time for completeness of the Clock interface (never used by
// the backtest driver itself).
package clock

import "time"

// TimeEvent is produced when a timer fires.
type TimeEvent struct {
	Name     string
	FireTsNs int64
	Callback func(TimeEvent)
}

// Clock is the common interface both variants satisfy.
type Clock interface {
	NowNs() int64
}

// LiveClock returns wall-clock nanoseconds.
type LiveClock struct{}

func (LiveClock) NowNs() int64 { return time.Now().UnixNano() }

type timer struct {
	name       string
	nextNs     int64
	intervalNs int64 // 0 for a one-shot timer
	callback   func(TimeEvent)
	index      int  // registration order, for tie-breaking
	fired      bool // one-shot timers only: fired timers are dropped
}

// TestClock holds a logical now_ns that only ever moves forward via
// AdvanceTo.
type TestClock struct {
	nowNs     int64
	timers    []*timer
	nextIndex int
}

func NewTestClock(startNs int64) *TestClock {
	return &TestClock{nowNs: startNs}
}

func (c *TestClock) NowNs() int64 { return c.nowNs }

// SetTimer registers a one-shot timer firing at fireAtNs.
func (c *TestClock) SetTimer(name string, fireAtNs int64, callback func(TimeEvent)) {
	c.addTimer(name, fireAtNs, 0, callback)
}

// SetPeriodicTimer registers a timer firing every intervalNs starting at
// firstFireNs.
func (c *TestClock) SetPeriodicTimer(name string, firstFireNs, intervalNs int64, callback func(TimeEvent)) {
	c.addTimer(name, firstFireNs, intervalNs, callback)
}

func (c *TestClock) addTimer(name string, nextNs, intervalNs int64, callback func(TimeEvent)) {
	c.timers = append(c.timers, &timer{
		name:       name,
		nextNs:     nextNs,
		intervalNs: intervalNs,
		callback:   callback,
		index:      c.nextIndex,
	})
	c.nextIndex++
}

// CancelTimer removes a registered timer by name. No-op if not found.
func (c *TestClock) CancelTimer(name string) {
	out := c.timers[:0]
	for _, t := range c.timers {
		if t.name != name {
			out = append(out, t)
		}
	}
	c.timers = out
}

// AdvanceTo moves now_ns forward to t, never backwards, and returns every
// TimeEvent whose fire time lies in (previous_now, t], in strictly
// non-decreasing fire_ts order with ties broken by registration index. A
// periodic timer rescheduled during this call fires at most once per
// nominal tick even when t - previous_now >= interval (coalescing), and is
// advanced past t so a second AdvanceTo(t) call produces no additional
// events — idempotence.
func (c *TestClock) AdvanceTo(t int64) []TimeEvent {
	if t < c.nowNs {
		panic("clock: AdvanceTo must not move time backwards")
	}
	previousNow := c.nowNs

	type candidate struct {
		ev  TimeEvent
		idx int
	}
	var fired []candidate

	for _, tm := range c.timers {
		if tm.nextNs <= previousNow || tm.nextNs > t {
			continue
		}
		fired = append(fired, candidate{
			ev:  TimeEvent{Name: tm.name, FireTsNs: tm.nextNs, Callback: tm.callback},
			idx: tm.index,
		})
		if tm.intervalNs > 0 {
			for tm.nextNs <= t {
				tm.nextNs += tm.intervalNs
			}
		} else {
			tm.fired = true
		}
	}

	// Fired one-shot timers are removed so they can never fire again.
	live := c.timers[:0]
	for _, tm := range c.timers {
		if !tm.fired {
			live = append(live, tm)
		}
	}
	c.timers = live

	// Stable sort by fire_ts, ties broken by registration index (insertion order).
	for i := 1; i < len(fired); i++ {
		for j := i; j > 0; j-- {
			a, b := fired[j-1], fired[j]
			if a.ev.FireTsNs < b.ev.FireTsNs || (a.ev.FireTsNs == b.ev.FireTsNs && a.idx <= b.idx) {
				break
			}
			fired[j-1], fired[j] = fired[j], fired[j-1]
		}
	}

	c.nowNs = t

	events := make([]TimeEvent, len(fired))
	for i, f := range fired {
		events[i] = f.ev
	}
	return events
}
