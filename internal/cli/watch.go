package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/lixenwraith/lazy/filecell"
)

func NewWatchCmd(a *app) *cobra.Command {
	var count int

	cmd := &cobra.Command{
		Use:   "watch FILE",
		Short: "Print a settings file's decoded value every time it changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cc *cobra.Command, args []string) error {
			opts := filecell.DefaultWatchOptions()
			opts.PollInterval = a.current().PollInterval

			return runWatch(cc.Context(), cc.OutOrStdout(), args[0], opts, count, a.logger)
		},
	}

	cmd.Flags().IntVar(&count, "count", 0, "Exit after this many events (0 = run until interrupted)")

	return cmd
}

func runWatch(ctx context.Context, out io.Writer, path string, opts filecell.WatchOptions, count int, logger *log.Logger) error {
	c, err := NewSettingsCell(path)
	if err != nil {
		return err
	}

	s, err := c.Get()
	if err != nil {
		return fmt.Errorf("initial load: %w", err)
	}
	printSettings(out, "loaded", s)

	events := c.Watch(opts)
	defer c.StopWatch()
	logger.Info("watching", "path", path, "poll_interval", opts.PollInterval)

	for n := 0; count <= 0 || n < count; n++ {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			switch ev.Kind {
			case filecell.EventChanged:
				if s, ok := c.Peek(); ok {
					printSettings(out, string(ev.Kind), s)
				}
			case filecell.EventReloadError:
				fmt.Fprintf(out, "%s: %v\n", ev.Kind, ev.Err)
			default:
				fmt.Fprintf(out, "%s\n", ev.Kind)
			}
		}
	}

	return nil
}

func printSettings(out io.Writer, label string, s Settings) {
	fmt.Fprintf(out, "%s: callers=%d build_delay=%s poll_interval=%s log.level=%s log.format=%s\n",
		label, s.Callers, s.BuildDelay, s.PollInterval, s.Log.Level, s.Log.Format)
}
