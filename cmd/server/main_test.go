package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "config", "envs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config", "envs", "test.yaml"), []byte(body), 0o644))
	t.Chdir(dir)
}

func TestRun_MissingConfigReturnsError(t *testing.T) {
	t.Chdir(t.TempDir())

	err := run(context.Background(), "test")

	assert.Error(t, err)
}

func TestRun_ClosesSessionStoreOnShutdown(t *testing.T) {
	// Arrange
	mr := miniredis.RunT(t)
	writeConfig(t, fmt.Sprintf(`
server:
  port: "0"
  mode: release
api:
  base_url: http://127.0.0.1:1
session:
  driver: redis
  redis:
    addr: %s
log:
  level: error
`, mr.Addr()))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Act
	err := run(ctx, "test")

	// Assert
	require.NoError(t, err)
	assert.Eventually(t, func() bool { return mr.CurrentConnectionCount() == 0 }, 2*time.Second, 10*time.Millisecond)
}
