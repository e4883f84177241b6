package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/conneroisu/unreact/internal/config"
	"github.com/conneroisu/unreact/internal/devscript"
	"github.com/conneroisu/unreact/internal/errors"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const projectConfig = `site:
  name: my blog
  globals:
    author: Ada
  routes:
    - path: ""
      template: page
      data:
        message: World
    - path: hello
      raw: this is my hello page
server:
  port: 4000
  ws_port: 4001
`

// setupProject creates a site in a temp directory and changes into it.
func setupProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)

	for _, sub := range []string{"templates", "styles", "public"} {
		require.NoError(t, os.Mkdir(sub, 0755))
	}
	require.NoError(t, os.WriteFile("templates/page.html",
		[]byte(`<p>Hello {{.message}} by {{.GLOBAL.author}}</p>`), 0644))
	require.NoError(t, os.WriteFile("styles/main.css", []byte("p {\n  margin: 0;\n}\n"), 0644))
	require.NoError(t, os.WriteFile(".unreact.yml", []byte(projectConfig), 0644))
	return dir
}

func executeCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()

	// commands share global state between runs
	viper.Reset()
	cfgFile = ""
	buildDev = false
	versionFormat = "text"
	versionShort = false

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestBuildCommand(t *testing.T) {
	setupProject(t)

	out, err := executeCommand(t, "build")
	require.NoError(t, err)
	assert.Contains(t, out, "Built 3 files into build")

	index, err := os.ReadFile(filepath.Join("build", "index.html"))
	require.NoError(t, err)
	assert.Equal(t, "<p>Hello World by Ada</p>", string(index))

	hello, err := os.ReadFile(filepath.Join("build", "hello", "index.html"))
	require.NoError(t, err)
	assert.Equal(t, "this is my hello page", string(hello))

	css, err := os.ReadFile(filepath.Join("build", "styles", "main", "style.css"))
	require.NoError(t, err)
	assert.Equal(t, "p{margin:0;}", string(css))
}

func TestBuildCommandDev(t *testing.T) {
	setupProject(t)

	_, err := executeCommand(t, "build", "--dev")
	require.NoError(t, err)

	index, err := os.ReadFile(filepath.Join(".devbuild", "index.html"))
	require.NoError(t, err)
	assert.Equal(t, devscript.Append("<p>Hello World by Ada</p>", 4001), string(index))
	assert.NoDirExists(t, "build")
}

func TestBuildCommandFailure(t *testing.T) {
	setupProject(t)
	require.NoError(t, os.RemoveAll("templates"))

	_, err := executeCommand(t, "build")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeSourceDirMissing))
}

func TestConfigCommand(t *testing.T) {
	setupProject(t)

	out, err := executeCommand(t, "config")
	require.NoError(t, err)

	// skip the "Using config file" line
	doc := out[strings.Index(out, "paths:"):]
	var cfg config.Config
	require.NoError(t, yaml.Unmarshal([]byte(doc), &cfg))
	assert.Equal(t, 4000, cfg.Server.Port)
	assert.Equal(t, 4001, cfg.Server.WSPort)
	assert.Equal(t, "my blog", cfg.Site.Name)
	assert.Len(t, cfg.Site.Routes, 2)
	assert.Contains(t, doc, "min_interval: 500ms")
}

func TestConfigFileFlag(t *testing.T) {
	dir := setupProject(t)
	custom := filepath.Join(dir, "custom.yml")
	require.NoError(t, os.WriteFile(custom, []byte("server: {port: 5000, ws_port: 5001}\n"), 0644))

	out, err := executeCommand(t, "config", "--config", custom)
	require.NoError(t, err)
	assert.Contains(t, out, "port: 5000")
}

func TestConfigFileFlagMissing(t *testing.T) {
	setupProject(t)

	_, err := executeCommand(t, "config", "--config", "does-not-exist.yml")
	assert.Error(t, err)
}

func TestConfigEnvironmentOverride(t *testing.T) {
	setupProject(t)
	t.Setenv("UNREACT_SERVER_PORT", "6000")

	out, err := executeCommand(t, "config")
	require.NoError(t, err)
	assert.Contains(t, out, "port: 6000")
}

func TestInvalidConfig(t *testing.T) {
	setupProject(t)
	require.NoError(t, os.WriteFile(".unreact.yml", []byte("server: {host: 0.0.0.0}\n"), 0644))

	_, err := executeCommand(t, "build")
	require.Error(t, err)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))
}

func TestDevCommandMissingDirectory(t *testing.T) {
	setupProject(t)
	require.NoError(t, os.RemoveAll("public"))

	_, err := executeCommand(t, "dev")
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.CodeWatchDirMissing))
}

func TestDevCommandAliases(t *testing.T) {
	assert.ElementsMatch(t, []string{"serve", "s"}, devCmd.Aliases)
	for _, name := range []string{"host", "port", "ws-port"} {
		assert.NotNil(t, devCmd.Flags().Lookup(name), name)
	}
}

func TestPrintBanner(t *testing.T) {
	cfg := config.Default()
	cfg.Site.Name = "my blog"

	var out bytes.Buffer
	printBanner(&out, cfg)

	assert.Contains(t, out.String(), "My Blog dev server")
	assert.Contains(t, out.String(), "http://localhost:3000/")
	assert.Contains(t, out.String(), "ws://localhost:3001/")
}

func TestVersionCommand(t *testing.T) {
	out, err := executeCommand(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Version:")

	out, err = executeCommand(t, "version", "--format", "yaml")
	require.NoError(t, err)
	assert.Contains(t, out, "go_version:")

	_, err = executeCommand(t, "version", "--format", "xml")
	assert.Error(t, err)
}
