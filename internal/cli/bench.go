package cli

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"github.com/sourcegraph/conc/pool"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/lixenwraith/lazy"
)

// benchResult summarizes one contention run.
type benchResult struct {
	Callers int
	Rounds  int
	Builds  int64
	Agreed  bool
	Elapsed time.Duration
}

func (r benchResult) String() string {
	return fmt.Sprintf("callers=%d rounds=%d builds=%d agreed=%t elapsed=%s",
		r.Callers, r.Rounds, r.Builds, r.Agreed, r.Elapsed.Round(time.Microsecond))
}

func NewBenchCmd(a *app) *cobra.Command {
	var (
		callers int
		rounds  int
		async   bool
	)

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Race concurrent callers on an unset cell and count builder calls",
		Args:  cobra.NoArgs,
		RunE: func(cc *cobra.Command, _ []string) error {
			s := a.current()
			if cc.Flags().Changed("callers") {
				s.Callers = callers
			}
			if rounds <= 0 {
				return fmt.Errorf("rounds must be positive, got %d", rounds)
			}
			if err := s.Validate(); err != nil {
				return fmt.Errorf("invalid settings: %w", err)
			}

			run := runBench
			if async {
				run = runAsyncBench
			}
			res, err := run(cc.Context(), s.Callers, rounds, s.BuildDelay, a.logger)
			if err != nil {
				return err
			}

			fmt.Fprintln(cc.OutOrStdout(), res)
			if !res.Agreed || res.Builds != int64(rounds) {
				return fmt.Errorf("expected %d builds with agreement, got %s", rounds, res)
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&callers, "callers", 0, "Concurrent callers per round (default from settings)")
	cmd.Flags().IntVar(&rounds, "rounds", 1, "Clear the cell and race again this many times")
	cmd.Flags().BoolVar(&async, "async", false, "Use the context-aware cell")

	return cmd
}

// runBench races blocking callers on a Cell.
func runBench(_ context.Context, callers, rounds int, delay time.Duration, logger *log.Logger) (benchResult, error) {
	var builds atomic.Int64
	c := lazy.New(func() int64 {
		time.Sleep(delay)
		return builds.Add(1)
	}, lazy.WithName("bench"), lazy.WithLogger(logger))

	res := benchResult{Callers: callers, Rounds: rounds, Agreed: true}
	start := time.Now()

	for round := 1; round <= rounds; round++ {
		got := make([]int64, callers)

		p := pool.New().WithMaxGoroutines(callers)
		for i := range got {
			p.Go(func() {
				got[i] = c.Get()
			})
		}
		p.Wait()

		res.Agreed = res.Agreed && allEqual(got, int64(round))
		c.Clear()
	}

	res.Elapsed = time.Since(start)
	res.Builds = builds.Load()
	return res, nil
}

// runAsyncBench races context-aware callers on an AsyncCell.
func runAsyncBench(ctx context.Context, callers, rounds int, delay time.Duration, logger *log.Logger) (benchResult, error) {
	var builds atomic.Int64
	c := lazy.NewAsyncTry(func(ctx context.Context) (int64, error) {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return 0, ctx.Err()
		}
		return builds.Add(1), nil
	}, lazy.WithName("bench"), lazy.WithLogger(logger))

	res := benchResult{Callers: callers, Rounds: rounds, Agreed: true}
	start := time.Now()

	for round := 1; round <= rounds; round++ {
		got := make([]int64, callers)

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(callers)
		for i := range got {
			g.Go(func() error {
				v, err := c.Get(gctx)
				got[i] = v
				return err
			})
		}
		if err := g.Wait(); err != nil {
			return res, fmt.Errorf("round %d: %w", round, err)
		}

		res.Agreed = res.Agreed && allEqual(got, int64(round))
		if _, _, err := c.Clear(ctx); err != nil {
			return res, fmt.Errorf("round %d: %w", round, err)
		}
	}

	res.Elapsed = time.Since(start)
	res.Builds = builds.Load()
	return res, nil
}

func allEqual(got []int64, want int64) bool {
	for _, v := range got {
		if v != want {
			return false
		}
	}
	return true
}
