package server

import (
	"os"
	"path"
	"path/filepath"
	"strings"
)

// DefaultStaticPrefixes are served verbatim, without .html or index.html
// fallbacks.
var DefaultStaticPrefixes = []string{"/styles", "/public"}

// Resolver maps request paths to files under the output directory.
type Resolver struct {
	root     string
	prefixes []string
}

// NewResolver creates a resolver rooted at root. Without staticPrefixes it uses
// DefaultStaticPrefixes.
func NewResolver(root string, staticPrefixes ...string) *Resolver {
	if len(staticPrefixes) == 0 {
		staticPrefixes = DefaultStaticPrefixes
	}
	return &Resolver{root: root, prefixes: staticPrefixes}
}

// Candidates returns the slash paths tried for p, in order. Paths ending in
// .html and paths under a static prefix are tried as is; anything else also
// tries p.html and p/index.html.
func (r *Resolver) Candidates(p string) []string {
	clean := cleanPath(p)
	if strings.HasSuffix(clean, ".html") || r.isStatic(clean) {
		return []string{clean}
	}
	return []string{clean, clean + ".html", path.Join(clean, "index.html")}
}

// Resolve returns the filesystem path of the first candidate that is a
// regular file.
func (r *Resolver) Resolve(p string) (string, bool) {
	for _, candidate := range r.Candidates(p) {
		full := filepath.Join(r.root, filepath.FromSlash(candidate))
		info, err := os.Stat(full)
		if err == nil && info.Mode().IsRegular() {
			return full, true
		}
	}
	return "", false
}

func (r *Resolver) isStatic(p string) bool {
	for _, prefix := range r.prefixes {
		if p == prefix || strings.HasPrefix(p, prefix+"/") {
			return true
		}
	}
	return false
}

// cleanPath roots and cleans p so it cannot climb above the output directory.
// A trailing slash survives cleaning.
func cleanPath(p string) string {
	clean := path.Clean("/" + p)
	if strings.HasSuffix(p, "/") && clean != "/" {
		clean += "/"
	}
	return clean
}
