// FILE: lixenwraith/lazy/filecell/io_test.go
package filecell

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStoreRoundTrip(t *testing.T) {
	t.Parallel()

	want := testConfig{
		Name: "stored",
		Server: serverConfig{
			Host:    "example.org",
			Port:    9443,
			Timeout: 90 * time.Second,
		},
		Tags: []string{"a", "b"},
	}

	for _, name := range []string{"app.toml", "app.yaml", "app.json", "app.conf"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)
			c, err := NewBuilder[testConfig]().
				WithFile(path).
				WithDefaults(testDefaults()).
				Build()
			require.NoError(t, err)

			require.NoError(t, c.Store(want))
			assert.True(t, c.Has(), "Store caches the value")

			got, ok := c.Peek()
			require.True(t, ok)
			assert.Equal(t, want, got)

			got, err = c.Reload()
			require.NoError(t, err)
			assert.Equal(t, want, got, "the written file decodes back to the stored value")
		})
	}
}

func TestStoreValidates(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "app.toml")
	c, err := NewBuilder[testConfig]().
		WithFile(path).
		WithValidator(func(cfg *testConfig) error {
			if cfg.Name == "" {
				return errors.New("name required")
			}
			return nil
		}).
		Build()
	require.NoError(t, err)

	err = c.Store(testConfig{})
	require.ErrorIs(t, err, ErrValidation)
	assert.NoFileExists(t, path)
	assert.False(t, c.Has())
}

func TestEncodeStoredFormat(t *testing.T) {
	t.Parallel()

	data, err := encode(testDefaults(), FormatTOML, "toml")
	require.NoError(t, err)
	assert.Contains(t, string(data), `timeout = "1s"`)
	assert.Contains(t, string(data), "[server]")

	_, err = encode(testDefaults(), "ini", "toml")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

func TestAtomicWriteFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "sub", "file.toml")

	require.NoError(t, atomicWriteFile(path, []byte("a = 1\n")))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a = 1\n", string(data))

	if runtime.GOOS != "windows" {
		require.NoError(t, os.Chmod(path, 0600))
		require.NoError(t, atomicWriteFile(path, []byte("a = 2\n")))

		info, err := os.Stat(path)
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm(), "existing permissions are kept")
	}

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files left behind")
}
