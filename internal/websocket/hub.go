package websocket

import (
	"context"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/conneroisu/unreact/internal/logging"
	"github.com/conneroisu/unreact/internal/metrics"
)

// DefaultOriginPatterns admits pages served from the local machine only.
// Patterns use filepath.Match syntax, hence the escaped brackets.
var DefaultOriginPatterns = []string{"localhost:*", "127.0.0.1:*", `\[::1\]:*`}

type hubEvent struct {
	connect bool
	client  *client
}

// Hub accepts live-reload connections and keeps the registry in sync with
// them. Connection goroutines only emit events; Run is the single goroutine
// that applies them.
type Hub struct {
	registry       *Registry
	events         chan hubEvent
	done           chan struct{}
	nextID         atomic.Uint64

	// conns holds every accepted connection until it ends, so shutdown can
	// close those whose connect event was never applied.
	mu     sync.Mutex
	conns  map[uint64]*client
	closed bool

	started        time.Time
	originPatterns []string
	logger         logging.Logger
	metrics        *metrics.Metrics
}

// HubOption configures a Hub.
type HubOption func(*Hub)

// WithHubLogger sets the hub logger.
func WithHubLogger(logger logging.Logger) HubOption {
	return func(h *Hub) {
		h.logger = logger
	}
}

// WithHubMetrics records client counts in m.
func WithHubMetrics(m *metrics.Metrics) HubOption {
	return func(h *Hub) {
		h.metrics = m
	}
}

// WithStartTime sets the timestamp pushed to every new connection.
func WithStartTime(t time.Time) HubOption {
	return func(h *Hub) {
		h.started = t
	}
}

// WithOriginPatterns replaces the accepted origin host patterns.
func WithOriginPatterns(patterns ...string) HubOption {
	return func(h *Hub) {
		h.originPatterns = patterns
	}
}

// NewHub creates a hub feeding reg.
func NewHub(reg *Registry, opts ...HubOption) *Hub {
	h := &Hub{
		registry:       reg,
		events:         make(chan hubEvent, 64),
		done:           make(chan struct{}),
		conns:          make(map[uint64]*client),
		started:        time.Now(),
		originPatterns: DefaultOriginPatterns,
		logger:         logging.Discard(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// StartMessage returns the text pushed to a page when it connects.
func (h *Hub) StartMessage() string {
	return strconv.FormatInt(h.started.UnixMilli(), 10)
}

// ServeHTTP upgrades the request and reads from the connection until it
// fails. Inbound messages are discarded.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns:  h.originPatterns,
		CompressionMode: websocket.CompressionDisabled,
	})
	if err != nil {
		// Accept has already written the response
		h.logger.Warn(r.Context(), err, "WebSocket upgrade failed", "remote", r.RemoteAddr)
		return
	}

	c := newClient(h.nextID.Add(1), conn)
	if !h.track(c) {
		c.close(websocket.StatusGoingAway, "server shutting down")
		return
	}
	defer h.untrack(c.id)
	if !h.emit(hubEvent{connect: true, client: c}) {
		c.close(websocket.StatusGoingAway, "server shutting down")
		return
	}
	go c.writePump()

	for {
		if _, _, err := conn.Read(r.Context()); err != nil {
			if websocket.CloseStatus(err) == -1 {
				h.logger.Debug(r.Context(), "WebSocket read ended", "id", c.id, "error", err.Error())
			}
			break
		}
	}

	h.emit(hubEvent{connect: false, client: c})
	c.close(websocket.StatusNormalClosure, "")
}

func (h *Hub) emit(ev hubEvent) bool {
	select {
	case h.events <- ev:
		return true
	case <-h.done:
		return false
	}
}

// Run applies connection events to the registry until ctx is cancelled, then
// closes every remaining connection.
func (h *Hub) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			return nil
		case ev := <-h.events:
			if ev.connect {
				// queued before registering so it precedes any reload
				_ = ev.client.Send(h.StartMessage())
				h.registry.Connect(ev.client.id, ev.client)
				h.logger.Info(ctx, "Client connected", "id", ev.client.id, "clients", h.registry.Len())
			} else if h.registry.Disconnect(ev.client.id) {
				h.logger.Info(ctx, "Client disconnected", "id", ev.client.id, "clients", h.registry.Len())
			}
			h.metrics.SetClients(h.registry.Len())
		}
	}
}

func (h *Hub) track(c *client) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return false
	}
	h.conns[c.id] = c
	return true
}

func (h *Hub) untrack(id uint64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, id)
}

// shutdown refuses new connections, closes the accepted ones, empties the
// registry and discards events still queued.
func (h *Hub) shutdown() {
	close(h.done)

	h.mu.Lock()
	h.closed = true
	conns := h.conns
	h.conns = make(map[uint64]*client)
	h.mu.Unlock()

	for _, c := range conns {
		c.close(websocket.StatusGoingAway, "server shutting down")
	}

	for _, id := range h.registry.IDs() {
		h.registry.Disconnect(id)
	}
	for {
		select {
		case <-h.events:
		default:
			h.metrics.SetClients(h.registry.Len())
			return
		}
	}
}

// accepted counts open connections, registered or not.
func (h *Hub) accepted() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.conns)
}
