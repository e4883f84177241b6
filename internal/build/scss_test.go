package build

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/conneroisu/unreact/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// requireSass returns a started converter, or skips when no Dart Sass with
// the embedded protocol is installed.
func requireSass(t *testing.T, c *SCSSConverter) *SCSSConverter {
	t.Helper()
	if _, err := c.start(); err != nil {
		t.Skipf("Dart Sass not available: %v", err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestSCSSConverterHandles(t *testing.T) {
	c := &SCSSConverter{}
	assert.True(t, c.Handles("styles/main.scss"))
	assert.True(t, c.Handles("styles/pages/HOME.SCSS"))
	assert.False(t, c.Handles("styles/_variables.scss"))
	assert.False(t, c.Handles("styles/main.css"))
	assert.False(t, c.Handles("styles/main.sass"))
}

func TestSCSSConverterConvertsToCSS(t *testing.T) {
	scss := `$foo: white;

body {
    background-color: black;

    p {
        color: $foo;
    }
}
`

	large, err := requireSass(t, &SCSSConverter{}).Convert(scss)
	require.NoError(t, err)
	assert.Equal(t, "body {\n  background-color: black;\n}\nbody p {\n  color: white;\n}\n", large)

	mini, err := requireSass(t, &SCSSConverter{Minify: true}).Convert(scss)
	require.NoError(t, err)
	assert.Equal(t, "body{background-color:black;}body p{color:white;}", mini)
}

func TestSCSSConverterIncludePaths(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "_colors.scss"), []byte("$accent: blue;\n"), 0644))

	c := requireSass(t, &SCSSConverter{Minify: true, IncludePaths: []string{dir}})
	css, err := c.Convert(`@use "colors"; a { color: colors.$accent; }`)
	require.NoError(t, err)
	assert.Equal(t, "a{color:blue;}", css)
}

func TestSCSSConverterSyntaxError(t *testing.T) {
	c := requireSass(t, &SCSSConverter{})
	_, err := c.Convert("body { color: $undefined; }")
	assert.Error(t, err)
}

func TestSCSSConverterMissingBinary(t *testing.T) {
	c := &SCSSConverter{Binary: "unreact-missing-sass-binary"}
	_, err := c.Convert("a { b: c }")
	require.Error(t, err)
	assert.Contains(t, err.Error(), `starting Dart Sass "unreact-missing-sass-binary"`)
	assert.NoError(t, c.Close())
}

func TestBuildCompilesSCSS(t *testing.T) {
	cfg := setupSite(t, map[string]string{
		"styles/_vars.scss": "$gap: 4px;\n",
		"styles/site.scss":  "@use \"vars\";\nmain { padding: vars.$gap; }\n",
	})
	site := NewSite(cfg, false)
	defer site.Close()
	requireSass(t, site.styles[1].(*SCSSConverter))

	_, err := site.Build(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "main{padding:4px;}", readOutput(t, cfg.Paths.Build, "styles/site/style.css"))
	assert.NoDirExists(t, filepath.Join(cfg.Paths.Build, "styles", "_vars"))
}

func TestBuildSCSSErrorIsBuildError(t *testing.T) {
	cfg := setupSite(t, map[string]string{"styles/broken.scss": "a { color: $nope; }"})
	site := NewSite(cfg, false)
	defer site.Close()
	requireSass(t, site.styles[1].(*SCSSConverter))

	_, err := site.Build(context.Background())
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeConvertStyle))
	assert.True(t, errors.IsRecoverable(err))
}
