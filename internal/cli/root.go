package cli

import (
	"fmt"
	"log/slog"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"

	"github.com/lixenwraith/lazy/filecell"
)

// app is the state resolved by the root command before any subcommand runs.
type app struct {
	configPath string
	settings   *filecell.Cell[Settings]
	logger     *log.Logger
}

// current returns the loaded settings, or the defaults before PersistentPreRunE
// has loaded them.
func (a *app) current() Settings {
	if a.settings == nil {
		return DefaultSettings()
	}
	s, ok := a.settings.Peek()
	if !ok {
		return DefaultSettings()
	}
	return s
}

func NewRootCmd(name, shortDesc, longDesc string) *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:           name,
		Short:         shortDesc,
		Long:          longDesc,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&a.configPath, "config", DefaultConfigFile,
		"Settings file (toml, yaml or json); searched for in ./ and XDG directories when unset")
	cmd.PersistentFlags().String("log_level", "", "Set the log level (debug, info, warn, error)")
	cmd.PersistentFlags().String("log_format", "", "Set the log format (text, logfmt, json)")

	cmd.PersistentPreRunE = func(cc *cobra.Command, _ []string) error {
		flags := cc.Flags()

		var merr error

		logLevel, err := flags.GetString("log_level")
		if err != nil {
			merr = multierror.Append(merr, err)
		}

		logFormat, err := flags.GetString("log_format")
		if err != nil {
			merr = multierror.Append(merr, err)
		}

		if merr != nil {
			return fmt.Errorf("invalid argument: %w", merr)
		}

		if !flags.Changed("config") {
			if found := filecell.Discover(filecell.DefaultDiscoveryOptions(cc.Root().Name())); found != "" {
				a.configPath = found
			}
		}

		settings, err := NewSettingsCell(a.configPath)
		if err != nil {
			return fmt.Errorf("invalid settings: %w", err)
		}
		s, err := settings.Get()
		if err != nil {
			return fmt.Errorf("failed loading settings: %w", err)
		}

		// flags win over file and environment
		if logLevel == "" {
			logLevel = s.Log.Level
		}
		if logFormat == "" {
			logFormat = s.Log.Format
		}

		logger, err := NewLogger(cc.ErrOrStderr(), logLevel, logFormat)
		if err != nil {
			return fmt.Errorf("failed creating logger: %w", err)
		}
		slog.SetDefault(slog.New(logger))

		a.settings = settings
		a.logger = logger
		logger.Debug("settings loaded", "path", a.configPath, "callers", s.Callers)

		return nil
	}

	cmd.AddCommand(NewDemoCmd(a))
	cmd.AddCommand(NewBenchCmd(a))
	cmd.AddCommand(NewWatchCmd(a))

	return cmd
}
