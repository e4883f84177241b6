// Package build generates the static site: it renders every route to HTML,
// converts the style sources and copies the public assets into a freshly
// recreated output directory.
package build

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/a-h/templ"
	"github.com/conneroisu/unreact/internal/config"
	"github.com/conneroisu/unreact/internal/devscript"
	"github.com/conneroisu/unreact/internal/errors"
	"github.com/conneroisu/unreact/internal/logging"
)

// Result summarizes one build.
type Result struct {
	OutputDir string
	Files     int
	Digest    uint64
	Duration  time.Duration
}

// DigestHex returns the digest as 16 hex digits.
func (r *Result) DigestHex() string {
	return fmt.Sprintf("%016x", r.Digest)
}

type route struct {
	path string
	page page
}

// Site holds the routes of a site and builds them. Builds are serialized.
type Site struct {
	cfg      *config.Config
	dev      bool
	routes   []route
	notFound *page
	globals  map[string]interface{}
	styles   []StyleConverter
	logger   logging.Logger

	mu   sync.Mutex
	last *Result
}

// Option configures a Site.
type Option func(*Site)

// WithLogger sets the build logger.
func WithLogger(logger logging.Logger) Option {
	return func(s *Site) {
		s.logger = logger
	}
}

// WithStyleConverter adds c ahead of the default converters, so it wins for
// every file it handles.
func WithStyleConverter(c StyleConverter) Option {
	return func(s *Site) {
		s.styles = append([]StyleConverter{c}, s.styles...)
	}
}

// NewSite creates a site with the routes, not-found page and globals of cfg.
// In dev mode it builds into the dev output directory with the live-reload
// script appended to every page.
func NewSite(cfg *config.Config, dev bool, opts ...Option) *Site {
	s := &Site{
		cfg:     cfg,
		dev:     dev,
		globals: make(map[string]interface{}),
		styles: []StyleConverter{
			CSSConverter{Minify: cfg.Build.Minify},
			&SCSSConverter{Minify: cfg.Build.Minify, IncludePaths: []string{cfg.Paths.Styles}},
		},
		logger: logging.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.Globalize(cfg.Site.Globals)
	for _, r := range cfg.Site.Routes {
		s.addPage(r.Path, fromConfig(r.PageConfig))
	}
	if cfg.Site.NotFound != nil {
		p := fromConfig(*cfg.Site.NotFound)
		s.notFound = &p
	}
	return s
}

func fromConfig(pc config.PageConfig) page {
	if pc.Raw != "" {
		return page{kind: pageRaw, raw: pc.Raw}
	}
	return page{kind: pageTemplate, template: pc.Template, data: pc.Data}
}

func (s *Site) addPage(path string, p page) *Site {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routes = append(s.routes, route{path: path, page: p})
	return s
}

// Route renders the named template at path.
func (s *Site) Route(path, template string, data map[string]interface{}) *Site {
	return s.addPage(path, page{kind: pageTemplate, template: template, data: data})
}

// RouteRaw serves content as is at path.
func (s *Site) RouteRaw(path, content string) *Site {
	return s.addPage(path, page{kind: pageRaw, raw: content})
}

// RouteComponent renders a templ component at path.
func (s *Site) RouteComponent(path string, c templ.Component) *Site {
	return s.addPage(path, page{kind: pageComponent, component: c})
}

// Index renders the named template at the site root.
func (s *Site) Index(template string, data map[string]interface{}) *Site {
	return s.Route("", template, data)
}

// NotFound renders the named template as 404.html.
func (s *Site) NotFound(template string, data map[string]interface{}) *Site {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notFound = &page{kind: pageTemplate, template: template, data: data}
	return s
}

// Globalize merges globals into the values exposed as .GLOBAL.
func (s *Site) Globalize(globals map[string]interface{}) *Site {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range globals {
		s.globals[k] = v
	}
	return s
}

// OutputDir returns the directory this site builds into.
func (s *Site) OutputDir() string {
	return s.cfg.OutputDir(s.dev)
}

// URL returns the site URL given to templates.
func (s *Site) URL() string {
	return s.cfg.SiteURL(s.dev)
}

// Last returns the result of the last successful build, or nil.
func (s *Site) Last() *Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Rebuild builds the site and discards the result.
func (s *Site) Rebuild(ctx context.Context) error {
	_, err := s.Build(ctx)
	return err
}

// Build regenerates the whole output directory.
func (s *Site) Build(ctx context.Context) (*Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	perf := logging.StartOperation(s.logger, "build")
	paths := s.cfg.Paths

	if err := requireDirs(paths.Templates, paths.Styles, paths.Public); err != nil {
		perf.EndWithError(ctx, err, "Build failed")
		return nil, err
	}

	out := newOutput(s.OutputDir())
	steps := []struct {
		name string
		run  func(context.Context, *output) error
	}{
		{"reset", func(_ context.Context, o *output) error { return o.reset() }},
		{"public", func(_ context.Context, o *output) error { return o.copyTree(paths.Public, "public") }},
		{"routes", s.renderRoutes},
		{"styles", s.convertStyles},
	}
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := step.run(ctx, out); err != nil {
			perf.EndWithError(ctx, err, "Build failed", "step", step.name)
			return nil, err
		}
	}

	result := &Result{
		OutputDir: out.root,
		Files:     out.files,
		Digest:    out.digest.Sum64(),
		Duration:  perf.Elapsed(),
	}
	s.last = result
	perf.End(ctx, "Build finished", "files", result.Files, "digest", result.DigestHex())
	return result, nil
}

func (s *Site) renderRoutes(ctx context.Context, out *output) error {
	set, err := loadTemplates(s.cfg.Paths.Templates, s.URL(), s.cfg.Build.Strict)
	if err != nil {
		return err
	}

	routes := s.routes
	if s.notFound != nil {
		routes = append(append([]route(nil), routes...), route{path: "404", page: *s.notFound})
	}

	for _, r := range routes {
		if strings.Contains(r.path, "..") {
			return errors.NewBuildError(errors.CodeRenderTemplate,
				fmt.Sprintf("route %q escapes the output directory", r.path), nil)
		}

		var buf bytes.Buffer
		if err := r.page.render(set, s.globals).Render(ctx, &buf); err != nil {
			return fmt.Errorf("route %q: %w", r.path, err)
		}

		doc := buf.String()
		if s.dev {
			doc = devscript.Append(doc, s.cfg.Server.WSPort)
		}
		if err := out.write(routeFile(r.path), []byte(doc)); err != nil {
			return err
		}
	}
	return nil
}

func (s *Site) convertStyles(_ context.Context, out *output) error {
	dir := s.cfg.Paths.Styles
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		conv := s.converterFor(path)
		if conv == nil {
			return nil
		}

		rel, err := filepath.Rel(dir, path)
		if err != nil {
			return err
		}
		name := strings.TrimSuffix(filepath.ToSlash(rel), filepath.Ext(rel))

		src, err := readFile(path)
		if err != nil {
			return err
		}
		css, err := conv.Convert(src)
		if err != nil {
			return errors.NewBuildError(errors.CodeConvertStyle,
				fmt.Sprintf("cannot convert style %q", name), err).WithPath(path)
		}
		return out.write("styles/"+name+"/style.css", []byte(css))
	})
}

func (s *Site) converterFor(path string) StyleConverter {
	for _, c := range s.styles {
		if c.Handles(path) {
			return c
		}
	}
	return nil
}

// Close releases the resources held by the style converters.
func (s *Site) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var errs []error
	for _, c := range s.styles {
		if closer, ok := c.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return stderrors.Join(errs...)
}
