// FILE: lixenwraith/lazy/filecell/discovery_test.go
package filecell

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscover(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", xdg)
	t.Setenv("XDG_CONFIG_DIRS", t.TempDir())
	t.Setenv("DISCOVERAPP_CONFIG", "")

	opts := DefaultDiscoveryOptions("discoverapp")
	opts.UseCurrentDir = false

	t.Run("NothingFound", func(t *testing.T) {
		assert.Empty(t, Discover(opts))
	})

	t.Run("XDGHome", func(t *testing.T) {
		dir := filepath.Join(xdg, "discoverapp")
		require.NoError(t, os.MkdirAll(dir, 0o755))
		path := filepath.Join(dir, "discoverapp.yaml")
		require.NoError(t, os.WriteFile(path, []byte("a: 1\n"), 0o644))

		assert.Equal(t, path, Discover(opts))
	})

	t.Run("CustomPathFirst", func(t *testing.T) {
		dir := t.TempDir()
		path := filepath.Join(dir, "discoverapp.toml")
		require.NoError(t, os.WriteFile(path, []byte("a = 1\n"), 0o644))

		custom := opts
		custom.Paths = []string{dir}
		assert.Equal(t, path, Discover(custom))
	})

	t.Run("ExtensionOrder", func(t *testing.T) {
		dir := t.TempDir()
		for _, name := range []string{"discoverapp.json", "discoverapp.toml"} {
			require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("{}"), 0o644))
		}

		custom := opts
		custom.Paths = []string{dir}
		assert.Equal(t, filepath.Join(dir, "discoverapp.toml"), Discover(custom))
	})

	t.Run("EnvVarWins", func(t *testing.T) {
		t.Setenv("DISCOVERAPP_CONFIG", "/explicit/path.toml")
		assert.Equal(t, "/explicit/path.toml", Discover(opts))
	})
}
