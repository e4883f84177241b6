package build

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/bep/godartsass/v2"
)

// DefaultSassBinary is the Dart Sass executable looked up on PATH.
const DefaultSassBinary = "sass"

// SCSSConverter compiles .scss sources to CSS with Dart Sass, optionally
// minified. The Dart Sass process starts on the first Convert and runs until
// Close.
type SCSSConverter struct {
	Minify bool
	// IncludePaths are searched by @use and @import.
	IncludePaths []string
	// Binary is the Dart Sass executable, DefaultSassBinary when empty.
	Binary string

	mu         sync.Mutex
	transpiler *godartsass.Transpiler
}

// Handles accepts .scss files, except partials whose name starts with an
// underscore; those are only reachable through @use.
func (c *SCSSConverter) Handles(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".scss") &&
		!strings.HasPrefix(filepath.Base(path), "_")
}

// Convert compiles src in the expanded output style, then minifies the result
// when c.Minify is set.
func (c *SCSSConverter) Convert(src string) (string, error) {
	t, err := c.start()
	if err != nil {
		return "", err
	}

	res, err := t.Execute(godartsass.Args{
		Source:       src,
		SourceSyntax: godartsass.SourceSyntaxSCSS,
		OutputStyle:  godartsass.OutputStyleExpanded,
		IncludePaths: c.IncludePaths,
	})
	if err != nil {
		return "", err
	}

	css := res.CSS
	if !strings.HasSuffix(css, "\n") {
		css += "\n"
	}
	if !c.Minify {
		return css, nil
	}
	return MinifyCSS(css)
}

// Close stops the Dart Sass process, if it was started.
func (c *SCSSConverter) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.transpiler == nil {
		return nil
	}
	err := c.transpiler.Close()
	c.transpiler = nil
	return err
}

func (c *SCSSConverter) start() (*godartsass.Transpiler, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// a crashed process is replaced on the next build
	if c.transpiler != nil && !c.transpiler.IsShutDown() {
		return c.transpiler, nil
	}

	bin := c.Binary
	if bin == "" {
		bin = DefaultSassBinary
	}
	t, err := godartsass.Start(godartsass.Options{DartSassEmbeddedFilename: bin})
	if err != nil {
		return nil, fmt.Errorf("starting Dart Sass %q: %w", bin, err)
	}
	c.transpiler = t
	return t, nil
}
