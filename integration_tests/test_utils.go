//go:build integration
// +build integration

package integration_tests

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/conneroisu/unreact/internal/config"
	"github.com/conneroisu/unreact/internal/devserver"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// minInterval is long enough to swallow the burst of events one write
// produces, and short enough to keep successive edits quick.
const minInterval = 300 * time.Millisecond

// Project is a site laid out in a temporary directory.
type Project struct {
	Root   string
	Config *config.Config
}

// NewProject creates the source directories and a config with system-assigned
// ports.
func NewProject(t *testing.T) *Project {
	t.Helper()
	root := t.TempDir()

	cfg := config.Default()
	cfg.Paths.Templates = filepath.Join(root, "templates")
	cfg.Paths.Styles = filepath.Join(root, "styles")
	cfg.Paths.Public = filepath.Join(root, "public")
	cfg.Paths.Build = filepath.Join(root, "build")
	cfg.Paths.DevBuild = filepath.Join(root, ".devbuild")
	cfg.Server.Port = 0
	cfg.Server.WSPort = 0
	cfg.Watch.MinInterval = minInterval
	cfg.Watch.SettleDelay = 20 * time.Millisecond

	for _, dir := range cfg.WatchedDirs() {
		require.NoError(t, os.MkdirAll(dir, 0755))
	}
	return &Project{Root: root, Config: cfg}
}

// Write creates or replaces a file relative to the project root.
func (p *Project) Write(t *testing.T, rel, content string) {
	t.Helper()
	path := filepath.Join(p.Root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

// StartSession runs a dev session until the test ends.
func StartSession(t *testing.T, cfg *config.Config) *devserver.Session {
	t.Helper()
	s, err := devserver.New(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- s.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			assert.NoError(t, err)
		case <-time.After(10 * time.Second):
			t.Error("session did not stop")
		}
	})

	readyCtx, stop := context.WithTimeout(context.Background(), 10*time.Second)
	defer stop()
	require.NoError(t, WaitForServerReadiness(readyCtx, "http://"+s.HTTPAddr()+"/", 20*time.Millisecond))
	return s
}

// WaitForServerReadiness polls url until the initial build has produced it.
func WaitForServerReadiness(ctx context.Context, url string, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		resp, err := http.Get(url)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return nil
			}
		}

		select {
		case <-ctx.Done():
			return fmt.Errorf("server at %s not ready: %w", url, ctx.Err())
		case <-ticker.C:
		}
	}
}

// Get fetches url and returns the status, body and content type.
func Get(t *testing.T, url string) (int, string, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, string(body), resp.Header.Get("Content-Type")
}

// DialReload connects a live-reload client and consumes the start message.
func DialReload(ctx context.Context, t *testing.T, s *devserver.Session) *websocket.Conn {
	t.Helper()
	before := s.Registry().Len()

	conn, _, err := websocket.Dial(ctx, "ws://"+s.WSAddr()+"/", nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.CloseNow() })

	_, msg, err := conn.Read(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, msg)

	require.Eventually(t, func() bool {
		return s.Registry().Len() > before
	}, 5*time.Second, 10*time.Millisecond)
	return conn
}

// ExpectReload waits for the next message on conn and checks it is a reload.
func ExpectReload(ctx context.Context, t *testing.T, conn *websocket.Conn) {
	t.Helper()
	_, msg, err := conn.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, "reload", string(msg))
}

// Settle waits out the debounce interval so the next edit triggers a rebuild.
func Settle() {
	time.Sleep(minInterval + 100*time.Millisecond)
}
