package websocket

import (
	"context"

	"github.com/conneroisu/unreact/internal/logging"
	"github.com/conneroisu/unreact/internal/metrics"
)

// ReloadMessage tells a page to reload itself.
const ReloadMessage = "reload"

// Broadcaster sends reload notifications to every registered page.
type Broadcaster struct {
	registry *Registry
	logger   logging.Logger
	metrics  *metrics.Metrics
}

// NewBroadcaster creates a broadcaster over reg. logger and m may be nil.
func NewBroadcaster(reg *Registry, logger logging.Logger, m *metrics.Metrics) *Broadcaster {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Broadcaster{
		registry: reg,
		logger:   logger,
		metrics:  m,
	}
}

// Reload sends "reload" to all connected pages and returns how many were sent to.
func (b *Broadcaster) Reload(ctx context.Context) int {
	n := b.registry.Broadcast(ReloadMessage)
	b.metrics.AddReloads(n)
	b.logger.Debug(ctx, "Broadcast reload", "clients", n)
	return n
}
