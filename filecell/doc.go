// Package filecell provides a lazy cell whose value is decoded from a
// configuration file.
//
// The file is not read when the cell is built. The first Get reads it, layers
// it over the registered defaults and under environment overrides, decodes the
// result into T and runs the validators. The value is cached until the cell is
// cleared, which a running watcher does whenever the file changes:
//
//	type Settings struct {
//	    Workers int           `toml:"workers"`
//	    Timeout time.Duration `toml:"timeout"`
//	}
//
//	c, err := filecell.NewBuilder[Settings]().
//	    WithFile("app.toml").
//	    WithDefaults(Settings{Workers: 4, Timeout: time.Second}).
//	    WithEnvPrefix("APP_").
//	    Build()
//
//	s, err := c.Get()                              // loads app.toml
//	events := c.Watch(filecell.DefaultWatchOptions()) // reloads on change
//
// Precedence, highest first:
//  1. Environment variables (APP_WORKERS=8)
//  2. The file
//  3. Defaults
//
// Supported formats are TOML, YAML and JSON, chosen by extension or detected
// from content. A failed load leaves the cell unset; the next Get retries.
package filecell
