package server

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupOutputTree writes files (slash paths relative to the root) into a
// temporary output directory.
func setupOutputTree(t *testing.T, files map[string]string) string {
	t.Helper()
	root := t.TempDir()
	for name, content := range files {
		full := filepath.Join(root, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0644))
	}
	return root
}

func TestResolverCandidates(t *testing.T) {
	r := NewResolver("out")

	testCases := []struct {
		path     string
		expected []string
	}{
		{"/", []string{"/", "/.html", "/index.html"}},
		{"/about", []string{"/about", "/about.html", "/about/index.html"}},
		{"/about/", []string{"/about/", "/about/.html", "/about/index.html"}},
		{"/about.html", []string{"/about.html"}},
		{"/styles", []string{"/styles"}},
		{"/styles/site/style.css", []string{"/styles/site/style.css"}},
		{"/public/logo.png", []string{"/public/logo.png"}},
		{"/stylesheet", []string{"/stylesheet", "/stylesheet.html", "/stylesheet/index.html"}},
		{"/../../etc/passwd", []string{"/etc/passwd", "/etc/passwd.html", "/etc/passwd/index.html"}},
		{"", []string{"/", "/.html", "/index.html"}},
	}

	for _, tc := range testCases {
		t.Run(tc.path, func(t *testing.T) {
			assert.Equal(t, tc.expected, r.Candidates(tc.path))
		})
	}
}

func TestResolverCustomPrefixes(t *testing.T) {
	r := NewResolver("out", "/assets")

	assert.Equal(t, []string{"/assets/app.js"}, r.Candidates("/assets/app.js"))
	assert.Len(t, r.Candidates("/styles/main.css"), 3)
}

func TestResolverResolve(t *testing.T) {
	root := setupOutputTree(t, map[string]string{
		"index.html":            "home",
		"about.html":            "about",
		"about/index.html":      "about index",
		"styles/site/style.css": "body{}",
	})
	r := NewResolver(root)

	testCases := []struct {
		path     string
		expected string
		found    bool
	}{
		{"/", "index.html", true},
		{"/index.html", "index.html", true},
		{"/about", "about.html", true},
		{"/about.html", "about.html", true},
		{"/about/", "about/index.html", true},
		{"/about/index.html", "about/index.html", true},
		{"/styles/site/style.css", "styles/site/style.css", true},
		{"/styles/site", "", false},
		{"/styles/site/style", "", false},
		{"/missing", "", false},
		{"/../about.html", "about.html", true},
	}

	for _, tc := range testCases {
		t.Run(tc.path, func(t *testing.T) {
			got, ok := r.Resolve(tc.path)
			assert.Equal(t, tc.found, ok)
			if tc.found {
				assert.Equal(t, filepath.Join(root, filepath.FromSlash(tc.expected)), got)
			}
		})
	}
}

func TestResolverIsDeterministic(t *testing.T) {
	root := setupOutputTree(t, map[string]string{
		"about.html":       "about",
		"about/index.html": "about index",
	})
	r := NewResolver(root)

	first, ok := r.Resolve("/about")
	require.True(t, ok)
	for i := 0; i < 10; i++ {
		again, _ := r.Resolve("/about")
		assert.Equal(t, first, again)
	}
}
