// FILE: lixenwraith/lazy/filecell/helper_test.go
package filecell

import (
	"net"
	"net/url"
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

type netConfig struct {
	Addr   net.IP     `toml:"addr"`
	Subnet *net.IPNet `toml:"subnet"`
	Home   *url.URL   `toml:"home"`
	Start  time.Time  `toml:"start"`
}

func TestFlattenMap(t *testing.T) {
	nested := map[string]any{
		"a": 1,
		"b": map[string]any{
			"c": "x",
			"d": map[string]any{"e": true},
		},
		"empty": map[string]any{},
	}

	assert.Equal(t, map[string]any{
		"a":     1,
		"b.c":   "x",
		"b.d.e": true,
	}, flattenMap(nested, ""))

	assert.Equal(t, map[string]any{"p.a": 1}, flattenMap(map[string]any{"a": 1}, "p"))
}

func TestSetNestedValue(t *testing.T) {
	m := map[string]any{"server": "scalar"}

	setNestedValue(m, "server.port", 80)
	setNestedValue(m, "server.host", "h")
	setNestedValue(m, "name", "n")

	assert.Equal(t, map[string]any{
		"server": map[string]any{"port": 80, "host": "h"},
		"name":   "n",
	}, m)
}

func TestFieldPaths(t *testing.T) {
	type inner struct {
		Level int `toml:"level"`
	}
	type sample struct {
		Plain    string
		Tagged   string `toml:"tagged,omitempty"`
		Skipped  string `toml:"-"`
		hidden   string
		Inner    inner  `toml:"inner"`
		Optional *inner `toml:"optional"`
		Present  *inner `toml:"present"`
		Net      netConfig
	}

	v := sample{
		Plain:   "p",
		Tagged:  "t",
		hidden:  "h",
		Inner:   inner{Level: 2},
		Present: &inner{Level: 3},
	}

	paths := fieldPaths(reflect.ValueOf(v), "toml")

	assert.Equal(t, "p", paths["Plain"])
	assert.Equal(t, "t", paths["tagged"])
	assert.Equal(t, 2, paths["inner.level"])
	assert.Equal(t, 3, paths["present.level"])
	assert.NotContains(t, paths, "Skipped")
	assert.NotContains(t, paths, "hidden")
	assert.NotContains(t, paths, "optional.level", "nil struct pointers are skipped")

	// leaf structs are not walked
	assert.Contains(t, paths, "Net.start")
	assert.Contains(t, paths, "Net.subnet")
	assert.Contains(t, paths, "Net.home")
	assert.NotContains(t, paths, "Net.start.wall")
}

func TestDefaultEnvTransform(t *testing.T) {
	transform := defaultEnvTransform("APP_")
	assert.Equal(t, "APP_SERVER_PORT", transform("server.port"))
	assert.Equal(t, "APP_NAME", transform("name"))
	assert.Equal(t, "LOG_LEVEL", defaultEnvTransform("")("log.level"))
}
