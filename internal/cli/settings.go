package cli

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/go-multierror"

	"github.com/lixenwraith/lazy/filecell"
)

// EnvPrefix is prepended to settings paths to form environment variable
// names, e.g. LAZYCELL_LOG_LEVEL.
const EnvPrefix = "LAZYCELL_"

// DefaultConfigFile is read when --config is not given. It may be absent.
const DefaultConfigFile = "lazycell.toml"

// Settings configures the lazycell commands.
type Settings struct {
	Callers      int           `toml:"callers"`
	BuildDelay   time.Duration `toml:"build_delay"`
	PollInterval time.Duration `toml:"poll_interval"`
	Log          LogSettings   `toml:"log"`
}

type LogSettings struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

func DefaultSettings() Settings {
	return Settings{
		Callers:      64,
		BuildDelay:   10 * time.Millisecond,
		PollInterval: filecell.DefaultPollInterval,
		Log: LogSettings{
			Level:  "warn",
			Format: TextFormat,
		},
	}
}

// Validate reports every invalid field at once.
func (s *Settings) Validate() error {
	var merr error

	if s.Callers <= 0 {
		merr = multierror.Append(merr, fmt.Errorf("callers must be positive, got %d", s.Callers))
	}
	if s.BuildDelay < 0 {
		merr = multierror.Append(merr, fmt.Errorf("build_delay must not be negative, got %s", s.BuildDelay))
	}
	if s.PollInterval < filecell.MinPollInterval {
		merr = multierror.Append(merr, fmt.Errorf("poll_interval must be at least %s, got %s",
			filecell.MinPollInterval, s.PollInterval))
	}
	if _, err := log.ParseLevel(s.Log.Level); err != nil {
		merr = multierror.Append(merr, fmt.Errorf("log.level: %w", err))
	}
	if _, err := parseFormat(s.Log.Format); err != nil {
		merr = multierror.Append(merr, fmt.Errorf("log.format: %w", err))
	}

	return merr
}

// NewSettingsCell returns a file-backed cell for the settings at path,
// layered over [DefaultSettings] and under LAZYCELL_* environment variables.
func NewSettingsCell(path string) (*filecell.Cell[Settings], error) {
	return filecell.NewBuilder[Settings]().
		WithName("settings").
		WithFile(path).
		WithDefaults(DefaultSettings()).
		WithEnvPrefix(EnvPrefix).
		WithValidator(func(s *Settings) error {
			return s.Validate()
		}).
		Build()
}
