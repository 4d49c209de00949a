package cli_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/lazy/internal/cli"
)

// syncBuffer lets a test read output while a command is still writing it.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()

	tc := cli.NewRootCmd("test_lazycell", "", "")
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}

	tc.SetArgs(args)
	tc.SetOut(stdout)
	tc.SetErr(stderr)

	err := tc.Execute()
	return stdout.String(), stderr.String(), err
}

func absentConfig(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "absent.toml")
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "lazycell.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDemoCmd(t *testing.T) {
	t.Parallel()

	stdout, stderr, err := execute(t, "demo", "--config", absentConfig(t))
	require.NoError(t, err)
	assert.Empty(t, stderr, "stderr should be empty")

	assert.Equal(t, `record: name=ada
greeting: set=false
greeting: Hello, ada!
greeting: set=true
quota: error: quota service unavailable
quota: set=false
quota: 30
tags: [admin]
greeting: Hello, ada! Welcome back.
greeting: cleared "Hello, ada! Welcome back."
greeting: Hello, ada!
greeting: builds=2 quota: builds=2 failures=1
`, stdout)
}

func TestBenchCmd(t *testing.T) {
	t.Parallel()

	config := writeConfig(t, "build_delay = \"2ms\"\n")

	t.Run("Blocking", func(t *testing.T) {
		t.Parallel()

		stdout, _, err := execute(t, "bench", "--config", config, "--callers", "32", "--rounds", "3")
		require.NoError(t, err)
		assert.Contains(t, stdout, "callers=32 rounds=3 builds=3 agreed=true")
	})

	t.Run("Async", func(t *testing.T) {
		t.Parallel()

		stdout, _, err := execute(t, "bench", "--config", config, "--callers", "32", "--async")
		require.NoError(t, err)
		assert.Contains(t, stdout, "callers=32 rounds=1 builds=1 agreed=true")
	})

	t.Run("InvalidRounds", func(t *testing.T) {
		t.Parallel()

		_, _, err := execute(t, "bench", "--config", config, "--rounds", "0")
		assert.ErrorContains(t, err, "rounds must be positive")
	})
}

func TestSettingsFromEnv(t *testing.T) {
	t.Setenv("LAZYCELL_CALLERS", "3")
	t.Setenv("LAZYCELL_BUILD_DELAY", "1ms")

	stdout, _, err := execute(t, "bench", "--config", absentConfig(t))
	require.NoError(t, err)
	assert.Contains(t, stdout, "callers=3 ")
}

func TestInvalidSettings(t *testing.T) {
	t.Parallel()

	config := writeConfig(t, `
callers = -1
poll_interval = "1ms"

[log]
level = "loud"
format = "xml"
`)

	_, _, err := execute(t, "demo", "--config", config)
	require.Error(t, err)

	msg := err.Error()
	assert.Contains(t, msg, "callers must be positive")
	assert.Contains(t, msg, "poll_interval must be at least")
	assert.Contains(t, msg, "log.level")
	assert.Contains(t, msg, "log.format")
}

func TestLogFlags(t *testing.T) {
	config := writeConfig(t, "[log]\nlevel = \"error\"\n")

	_, stderr, err := execute(t, "demo", "--config", config, "--log_level", "debug", "--log_format", "json")
	require.NoError(t, err)
	assert.Contains(t, stderr, `"msg":"settings loaded"`)
	assert.Contains(t, stderr, `"msg":"value built"`)

	_, _, err = execute(t, "demo", "--config", config, "--log_format", "xml")
	assert.ErrorContains(t, err, "unknown log format")
}

func TestWatchCmd(t *testing.T) {
	t.Parallel()

	config := writeConfig(t, "poll_interval = \"100ms\"\ncallers = 4\n")

	tc := cli.NewRootCmd("test_lazycell", "", "")
	stdout := &syncBuffer{}
	tc.SetArgs([]string{"watch", config, "--config", config, "--count", "1"})
	tc.SetOut(stdout)
	tc.SetErr(&syncBuffer{})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- tc.ExecuteContext(ctx)
	}()

	require.Eventually(t, func() bool {
		return bytes.Contains([]byte(stdout.String()), []byte("loaded: callers=4"))
	}, 5*time.Second, 10*time.Millisecond)
	time.Sleep(250 * time.Millisecond)

	require.NoError(t, os.WriteFile(config, []byte("poll_interval = \"100ms\"\ncallers = 12345\n"), 0o644))

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-ctx.Done():
		t.Fatal("watch did not report the change")
	}

	assert.Contains(t, stdout.String(), "changed: callers=12345")
}
