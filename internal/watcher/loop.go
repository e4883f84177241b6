package watcher

import (
	"context"
	"fmt"
	"time"

	"github.com/conneroisu/unreact/internal/logging"
)

// Rebuilder regenerates the site from its sources.
type Rebuilder interface {
	Rebuild(ctx context.Context) error
}

// RebuilderFunc adapts a function to Rebuilder.
type RebuilderFunc func(ctx context.Context) error

// Rebuild calls f(ctx).
func (f RebuilderFunc) Rebuild(ctx context.Context) error {
	return f(ctx)
}

// Reloader tells connected pages to reload and returns how many were told.
type Reloader interface {
	Reload(ctx context.Context) int
}

// RebuildObserver is called after every rebuild attempt.
type RebuildObserver func(elapsed time.Duration, err error)

// Loop turns watcher events into rebuild and reload cycles.
type Loop struct {
	events    <-chan WatchedEvent
	debouncer *Debouncer
	rebuilder Rebuilder
	reloader  Reloader
	logger    logging.Logger
	observe   RebuildObserver
}

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithLoopLogger sets the loop logger.
func WithLoopLogger(logger logging.Logger) LoopOption {
	return func(l *Loop) {
		l.logger = logger
	}
}

// WithRebuildObserver registers a callback for rebuild outcomes.
func WithRebuildObserver(observe RebuildObserver) LoopOption {
	return func(l *Loop) {
		l.observe = observe
	}
}

// NewLoop creates a loop over events.
func NewLoop(events <-chan WatchedEvent, debouncer *Debouncer, rebuilder Rebuilder, reloader Reloader, opts ...LoopOption) *Loop {
	l := &Loop{
		events:    events,
		debouncer: debouncer,
		rebuilder: rebuilder,
		reloader:  reloader,
		logger:    logging.Discard(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Run processes events until ctx is cancelled or the event stream closes.
// Rebuild failures are logged and never end the loop; a reload is broadcast
// after every rebuild attempt, failed or not.
func (l *Loop) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-l.events:
			if !ok {
				return nil
			}
			if !l.debouncer.Accept(ev) {
				l.logger.Debug(ctx, "Change ignored", "path", ev.Path, "kind", ev.Kind.String())
				continue
			}

			l.logger.Info(ctx, "Change detected", "path", ev.Path, "kind", ev.Kind.String())
			if err := l.debouncer.Settle(ctx); err != nil {
				return nil
			}
			l.cycle(ctx)
		}
	}
}

func (l *Loop) cycle(ctx context.Context) {
	start := time.Now()
	err := l.rebuild(ctx)
	elapsed := time.Since(start)

	if l.observe != nil {
		l.observe(elapsed, err)
	}
	if err != nil {
		l.logger.Error(ctx, err, "Rebuild failed", "duration", elapsed)
	} else {
		l.logger.Info(ctx, "Rebuild finished", "duration", elapsed)
	}

	n := l.reloader.Reload(ctx)
	l.logger.Debug(ctx, "Reload sent", "clients", n)
}

func (l *Loop) rebuild(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("rebuild panicked: %v", r)
		}
	}()
	return l.rebuilder.Rebuild(ctx)
}
