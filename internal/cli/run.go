package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/watzon/stepbench/internal/config"
	"github.com/watzon/stepbench/internal/history"
	"github.com/watzon/stepbench/internal/runnable"
)

var (
	runTasks []string
	runAll   bool
	runMatch string
)

var errNoSelection = errors.New("specify --task or --all")

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Benchmark one or more runnables",
	Long: `Run each selected runnable for its configured number of repetitions and
write the latency report to the runnable's output path.

A run is all-or-nothing: if any repetition fails, no report is written.

Examples:
  stepbench run --task resize
  stepbench run --task resize --task thumbnails
  stepbench run --all --match 'image-*'`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	runCmd.Flags().StringSliceVarP(&runTasks, "task", "t", nil, "runnable to execute (repeatable)")
	runCmd.Flags().BoolVar(&runAll, "all", false, "execute every runnable in the runnable directory")
	runCmd.Flags().StringVar(&runMatch, "match", "", "glob filter for --all")
	runCmd.MarkFlagsMutuallyExclusive("task", "all")

	rootCmd.AddCommand(runCmd)
}

func runRun(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runnables, err := selectRunnables(cfg, runTasks, runAll, runMatch)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load runnables")
		return err
	}

	store, closeStore, err := openHistory(ctx, cfg)
	if err != nil {
		log.Error().Err(err).Msg("Failed to open run history")
		return err
	}
	defer closeStore()

	err = runMany(ctx, awsRunFunc(cfg), store, runnables, cfg.Runner.Parallelism)
	flushMetrics(cfg)
	return err
}

// selectRunnables resolves --task / --all into loaded runnables.
func selectRunnables(c *config.Config, tasks []string, all bool, match string) ([]*runnable.Runnable, error) {
	dir := c.Project.RunnablePath()

	names := tasks
	if all {
		var err error
		names, err = runnable.List(dir, match)
		if err != nil {
			return nil, err
		}
		if len(names) == 0 {
			return nil, fmt.Errorf("no runnables in %s match %q", dir, match)
		}
	}
	if len(names) == 0 {
		return nil, errNoSelection
	}

	names = uniqueNames(names)
	runnables := make([]*runnable.Runnable, 0, len(names))
	for _, name := range names {
		rb, err := runnable.Load(dir, name)
		if err != nil {
			return nil, err
		}
		runnables = append(runnables, rb)
	}
	return runnables, nil
}

// uniqueNames drops repeated names, keeping first-seen order.
func uniqueNames(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, name := range names {
		if !seen[name] {
			seen[name] = true
			out = append(out, name)
		}
	}
	return out
}

// runMany executes runnables with at most parallelism in flight. Runnables
// sharing a log group run one after another. A failure does not cancel the
// others; all failures are returned joined.
func runMany(ctx context.Context, run runFunc, store *history.Store, runnables []*runnable.Runnable, parallelism int) error {
	if parallelism < 1 {
		parallelism = 1
	}

	errs := make([]error, len(runnables))
	locks := newGroupLocks()

	var g errgroup.Group
	g.SetLimit(parallelism)
	for i, rb := range runnables {
		i, rb := i, rb
		g.Go(func() error {
			m := locks.get(rb.Logger.Name)
			m.Lock()
			defer m.Unlock()

			_, errs[i] = execute(ctx, run, store, rb)
			return nil
		})
	}
	_ = g.Wait()

	return errors.Join(errs...)
}
