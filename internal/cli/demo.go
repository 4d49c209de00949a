package cli

import (
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/spf13/cobra"

	"github.com/lixenwraith/lazy"
	"github.com/lixenwraith/lazy/rwlock"
)

var errQuotaUnavailable = errors.New("quota service unavailable")

// profile is a record mixing a plain field, lazy fields derived from it and
// a lock-only field.
type profile struct {
	name string

	greeting *lazy.Cell[string]
	quota    *lazy.TryCell[int]
	tags     *rwlock.RWLock[[]string]

	quotaCalls atomic.Int32
}

func newProfile(name string, opts ...lazy.Option) *profile {
	p := &profile{name: name, tags: rwlock.New([]string(nil))}

	p.greeting = lazy.New(func() string {
		return fmt.Sprintf("Hello, %s!", p.name)
	}, append([]lazy.Option{lazy.WithName("greeting")}, opts...)...)

	// the first lookup fails, showing that a failure is not cached
	p.quota = lazy.NewTry(func() (int, error) {
		if p.quotaCalls.Add(1) == 1 {
			return 0, errQuotaUnavailable
		}
		return len(p.name) * 10, nil
	}, append([]lazy.Option{lazy.WithName("quota")}, opts...)...)

	return p
}

func NewDemoCmd(a *app) *cobra.Command {
	var name string

	cmd := &cobra.Command{
		Use:   "demo",
		Short: "Walk a record with lazy fields through its state transitions",
		Args:  cobra.NoArgs,
		RunE: func(cc *cobra.Command, _ []string) error {
			p := newProfile(name, lazy.WithLogger(a.logger))
			return runDemo(cc.OutOrStdout(), p)
		},
	}

	cmd.Flags().StringVar(&name, "name", "ada", "Name stored in the record's plain field")

	return cmd
}

func runDemo(out io.Writer, p *profile) error {
	fmt.Fprintf(out, "record: name=%s\n", p.name)

	fmt.Fprintf(out, "greeting: set=%t\n", p.greeting.Has())
	fmt.Fprintf(out, "greeting: %s\n", p.greeting.Get())
	fmt.Fprintf(out, "greeting: set=%t\n", p.greeting.Has())

	if _, err := p.quota.Get(); err != nil {
		fmt.Fprintf(out, "quota: error: %v\n", err)
	}
	fmt.Fprintf(out, "quota: set=%t\n", p.quota.Has())
	q, err := p.quota.Get()
	if err != nil {
		return fmt.Errorf("quota: %w", err)
	}
	fmt.Fprintf(out, "quota: %d\n", q)

	p.tags.Update(func(tags *[]string) {
		*tags = append(*tags, "admin")
	})
	fmt.Fprintf(out, "tags: %v\n", p.tags.Load())

	v := p.greeting.GetMut()
	*v.Value() += " Welcome back."
	v.Release()
	fmt.Fprintf(out, "greeting: %s\n", p.greeting.Get())

	old, _ := p.greeting.Clear()
	fmt.Fprintf(out, "greeting: cleared %q\n", old)
	fmt.Fprintf(out, "greeting: %s\n", p.greeting.Get())

	fmt.Fprintf(out, "greeting: builds=%d quota: builds=%d failures=%d\n",
		p.greeting.Stats().Builds, p.quota.Stats().Builds, p.quota.Stats().Failures)

	return nil
}
