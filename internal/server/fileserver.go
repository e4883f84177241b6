// Package server implements the dev-mode HTTP file server. It serves the
// freshly built output directory, re-reading files on every request, and
// answers everything it cannot resolve with the site's 404 page or a built-in
// fallback that still carries the live-reload script.
package server

import (
	"context"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/conneroisu/unreact/internal/devscript"
	"github.com/conneroisu/unreact/internal/logging"
	"github.com/conneroisu/unreact/internal/metrics"
)

// FatalHook is called when a resolved file cannot be read.
type FatalHook func(path string, err error)

// FileServer is the GET-only handler over the output directory.
type FileServer struct {
	resolver *Resolver
	wsPort   int
	fatal    FatalHook
	logger   logging.Logger
	metrics  *metrics.Metrics
	prefixes []string

	readFile func(string) ([]byte, error)
}

// Option configures a FileServer.
type Option func(*FileServer)

// WithFatalHook replaces the default exit-on-read-failure behaviour.
func WithFatalHook(hook FatalHook) Option {
	return func(s *FileServer) {
		s.fatal = hook
	}
}

// WithLogger sets the request logger.
func WithLogger(logger logging.Logger) Option {
	return func(s *FileServer) {
		s.logger = logger
	}
}

// WithMetrics counts responses in m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *FileServer) {
		s.metrics = m
	}
}

// WithStaticPrefixes replaces DefaultStaticPrefixes.
func WithStaticPrefixes(prefixes ...string) Option {
	return func(s *FileServer) {
		s.prefixes = prefixes
	}
}

// NewFileServer serves root. wsPort is substituted into the fallback 404 page.
func NewFileServer(root string, wsPort int, opts ...Option) *FileServer {
	s := &FileServer{
		wsPort:   wsPort,
		logger:   logging.Discard(),
		readFile: os.ReadFile,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.resolver = NewResolver(root, s.prefixes...)
	if s.fatal == nil {
		s.fatal = s.exit
	}
	return s
}

// ServeHTTP implements http.Handler.
func (s *FileServer) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

	s.serve(rec, r)

	s.metrics.ObserveRequest(rec.status)
	s.logger.Debug(r.Context(), "HTTP request",
		"method", r.Method,
		"path", r.URL.Path,
		"status", rec.status,
		"duration", time.Since(start))
}

func (s *FileServer) serve(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodGet {
		if file, ok := s.resolver.Resolve(r.URL.Path); ok {
			s.serveFile(w, file, http.StatusOK)
			return
		}
	}
	s.notFound(w)
}

func (s *FileServer) notFound(w http.ResponseWriter) {
	if file, ok := s.resolver.Resolve("/404"); ok {
		s.serveFile(w, file, http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusNotFound)
	_, _ = w.Write([]byte(devscript.Fallback404(s.wsPort)))
}

func (s *FileServer) serveFile(w http.ResponseWriter, file string, status int) {
	data, err := s.readFile(file)
	if err != nil {
		s.fatal(file, err)
		// only reached when the hook returns
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	if contentType := mime.TypeByExtension(filepath.Ext(file)); contentType != "" {
		w.Header().Set("Content-Type", contentType)
	} else {
		// stop net/http from sniffing a type
		w.Header()["Content-Type"] = nil
	}
	w.WriteHeader(status)
	_, _ = w.Write(data)
}

func (s *FileServer) exit(path string, err error) {
	s.logger.Error(context.Background(), err, "Cannot read resolved file", "path", path)
	os.Exit(1)
}

// statusRecorder remembers the status code written through it.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}
