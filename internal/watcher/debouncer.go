package watcher

import (
	"context"
	"time"
)

// Clock abstracts time for the debouncer.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

type realClock struct{}

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// Debouncer decides which events trigger a rebuild. It fires on the leading
// edge: the first qualifying event triggers, and every event that follows
// within minInterval of the last trigger is dropped. Dropped events are not
// replayed later.
//
// A Debouncer is owned by a single loop and is not safe for concurrent use.
type Debouncer struct {
	minInterval time.Duration
	settleDelay time.Duration
	clock       Clock

	last      time.Time
	triggered bool
}

// DebouncerOption configures a Debouncer.
type DebouncerOption func(*Debouncer)

// WithClock replaces the wall clock, used by tests.
func WithClock(clock Clock) DebouncerOption {
	return func(d *Debouncer) {
		d.clock = clock
	}
}

// NewDebouncer creates a debouncer with the given cool-down and settle delay.
func NewDebouncer(minInterval, settleDelay time.Duration, opts ...DebouncerOption) *Debouncer {
	d := &Debouncer{
		minInterval: minInterval,
		settleDelay: settleDelay,
		clock:       realClock{},
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Accept reports whether ev triggers a rebuild, and if so records the
// trigger time.
func (d *Debouncer) Accept(ev WatchedEvent) bool {
	if !ev.Kind.Qualifies() {
		return false
	}

	now := d.clock.Now()
	if d.triggered && now.Sub(d.last) < d.minInterval {
		return false
	}

	d.last = now
	d.triggered = true
	return true
}

// Settle waits for the settle delay so that editors finish writing before the
// rebuild reads the sources. It returns early with ctx's error on cancellation.
func (d *Debouncer) Settle(ctx context.Context) error {
	if d.settleDelay <= 0 {
		return ctx.Err()
	}
	select {
	case <-d.clock.After(d.settleDelay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LastTrigger returns the time of the last accepted event.
func (d *Debouncer) LastTrigger() (time.Time, bool) {
	return d.last, d.triggered
}
