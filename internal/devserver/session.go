// Package devserver runs a development session: the initial build, the file
// watcher with its rebuild loop, the HTTP file server over the dev output and
// the websocket hub that tells open pages to reload.
package devserver

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/conneroisu/unreact/internal/build"
	"github.com/conneroisu/unreact/internal/config"
	uerrors "github.com/conneroisu/unreact/internal/errors"
	"github.com/conneroisu/unreact/internal/logging"
	"github.com/conneroisu/unreact/internal/metrics"
	"github.com/conneroisu/unreact/internal/server"
	"github.com/conneroisu/unreact/internal/watcher"
	"github.com/conneroisu/unreact/internal/websocket"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

// Session owns every resource of one dev run. It is created by New, which
// acquires the watches and listeners, and released by Run.
type Session struct {
	cfg       *config.Config
	logger    logging.Logger
	metrics   *metrics.Metrics
	rebuilder watcher.Rebuilder

	watcher  *watcher.FileWatcher
	registry *websocket.Registry
	hub      *websocket.Hub
	loop     *watcher.Loop

	httpListener net.Listener
	wsListener   net.Listener
	httpServer   *http.Server
	wsServer     *http.Server
}

type options struct {
	logger        logging.Logger
	metrics       *metrics.Metrics
	rebuilder     watcher.Rebuilder
	fatal         server.FatalHook
	debouncerOpts []watcher.DebouncerOption
}

// Option configures a Session.
type Option func(*options)

// WithLogger sets the session logger; components log under their own name.
func WithLogger(logger logging.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMetrics records session metrics in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) {
		o.metrics = m
	}
}

// WithRebuilder replaces the dev build of the configured site.
func WithRebuilder(r watcher.Rebuilder) Option {
	return func(o *options) {
		o.rebuilder = r
	}
}

// WithFatalHook is passed to the file server.
func WithFatalHook(hook server.FatalHook) Option {
	return func(o *options) {
		o.fatal = hook
	}
}

// WithDebouncerOptions is passed to the debouncer.
func WithDebouncerOptions(opts ...watcher.DebouncerOption) Option {
	return func(o *options) {
		o.debouncerOpts = append(o.debouncerOpts, opts...)
	}
}

// New prepares a session. A missing or unwatchable source directory and a
// port that cannot be bound are startup-fatal and returned as typed errors.
// Ports configured as 0 are assigned by the system.
func New(cfg *config.Config, opts ...Option) (*Session, error) {
	o := &options{logger: logging.Discard()}
	for _, opt := range opts {
		opt(o)
	}
	if o.metrics == nil {
		o.metrics = metrics.New(nil)
	}

	fw, err := watcher.New(cfg.WatchedDirs(),
		watcher.WithLogger(o.logger.WithComponent("watcher")),
		watcher.WithIgnore(cfg.Watch.Ignore...))
	if err != nil {
		return nil, err
	}

	httpListener, err := listen(cfg.HTTPAddr())
	if err != nil {
		_ = fw.Close()
		return nil, err
	}
	wsListener, err := listen(cfg.WSAddr())
	if err != nil {
		_ = fw.Close()
		_ = httpListener.Close()
		return nil, err
	}

	// the dev script and the site URL need the bound ports
	resolved := *cfg
	resolved.Server.Port = httpListener.Addr().(*net.TCPAddr).Port
	resolved.Server.WSPort = wsListener.Addr().(*net.TCPAddr).Port

	s := &Session{
		cfg:          &resolved,
		logger:       o.logger.WithComponent("devserver"),
		metrics:      o.metrics,
		rebuilder:    o.rebuilder,
		watcher:      fw,
		registry:     websocket.NewRegistry(),
		httpListener: httpListener,
		wsListener:   wsListener,
	}
	if s.rebuilder == nil {
		s.rebuilder = build.NewSite(&resolved, true, build.WithLogger(o.logger.WithComponent("build")))
	}

	s.hub = websocket.NewHub(s.registry,
		websocket.WithHubLogger(o.logger.WithComponent("websocket")),
		websocket.WithHubMetrics(o.metrics))

	broadcaster := websocket.NewBroadcaster(s.registry, o.logger.WithComponent("websocket"), o.metrics)
	s.loop = watcher.NewLoop(fw.Events(),
		watcher.NewDebouncer(cfg.Watch.MinInterval, cfg.Watch.SettleDelay, o.debouncerOpts...),
		s.rebuilder, broadcaster,
		watcher.WithLoopLogger(o.logger.WithComponent("watcher")),
		watcher.WithRebuildObserver(o.metrics.ObserveRebuild))

	fileOpts := []server.Option{
		server.WithLogger(o.logger.WithComponent("http")),
		server.WithMetrics(o.metrics),
	}
	if o.fatal != nil {
		fileOpts = append(fileOpts, server.WithFatalHook(o.fatal))
	}
	s.httpServer = &http.Server{
		Handler:           server.NewFileServer(resolved.Paths.DevBuild, resolved.Server.WSPort, fileOpts...),
		ReadHeaderTimeout: 10 * time.Second,
	}

	wsMux := http.NewServeMux()
	wsMux.Handle("/metrics", o.metrics.Handler())
	wsMux.Handle("/", s.hub)
	s.wsServer = &http.Server{
		Handler:           wsMux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s, nil
}

// HTTPAddr returns the bound address of the file server.
func (s *Session) HTTPAddr() string {
	return s.httpListener.Addr().String()
}

// WSAddr returns the bound address of the websocket hub.
func (s *Session) WSAddr() string {
	return s.wsListener.Addr().String()
}

// Config returns the configuration with the bound ports filled in.
func (s *Session) Config() *config.Config {
	return s.cfg
}

// Registry returns the live connection registry.
func (s *Session) Registry() *websocket.Registry {
	return s.registry
}

// Run builds the site once, then serves and watches until ctx is cancelled.
// A failed initial build is logged and the session keeps running so the next
// change can fix it.
func (s *Session) Run(ctx context.Context) error {
	defer func() { _ = s.watcher.Close() }()
	if closer, ok := s.rebuilder.(io.Closer); ok {
		defer func() { _ = closer.Close() }()
	}

	if err := s.rebuilder.Rebuild(ctx); err != nil {
		s.logger.Error(ctx, err, "Initial build failed")
	}

	s.logger.Info(ctx, "Serving",
		"url", fmt.Sprintf("http://%s/", s.HTTPAddr()),
		"websocket", s.WSAddr(),
		"watching", s.cfg.WatchedDirs())

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return serve(ctx, s.httpServer, s.httpListener)
	})
	g.Go(func() error {
		return serve(ctx, s.wsServer, s.wsListener)
	})
	g.Go(func() error {
		return s.hub.Run(ctx)
	})
	g.Go(func() error {
		return s.loop.Run(ctx)
	})

	err := g.Wait()
	s.logger.Info(context.Background(), "Session stopped")
	return err
}

func listen(addr string) (net.Listener, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, uerrors.NewNetworkError(uerrors.CodeListenFailed,
			fmt.Sprintf("cannot listen on %s", addr), err)
	}
	return ln, nil
}

// serve runs srv on ln until ctx is cancelled, then shuts it down.
func serve(ctx context.Context, srv *http.Server, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return uerrors.NewNetworkError(uerrors.CodeListenFailed, "server stopped", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			_ = srv.Close()
		}
		<-errCh
		return nil
	}
}
