package cli

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/watzon/stepbench/internal/config"
	"github.com/watzon/stepbench/internal/history"
	"github.com/watzon/stepbench/internal/metrics"
	"github.com/watzon/stepbench/internal/runnable"
	"github.com/watzon/stepbench/internal/scheduler"
)

var (
	scheduleTasks       []string
	scheduleCron        string
	scheduleEvery       string
	scheduleTimezone    string
	scheduleMetricsAddr string
)

var errNoScheduleExpr = errors.New("specify exactly one of --cron or --every")

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Re-run benchmarks on a schedule",
	Long: `Keep running and benchmark the given runnables on a cron expression or a
fixed interval until interrupted. Runnable files are re-read on every tick.
A tick is skipped while an earlier run of the same runnable, or of another
runnable writing to the same log group, is still active.

Examples:
  stepbench schedule --task resize --cron '0 * * * *'
  stepbench schedule --task resize --every 30m --metrics-addr :9090`,
	Args: cobra.NoArgs,
	RunE: runSchedule,
}

func init() {
	scheduleCmd.Flags().StringSliceVarP(&scheduleTasks, "task", "t", nil, "runnable to schedule (repeatable)")
	scheduleCmd.Flags().StringVar(&scheduleCron, "cron", "", "five-field cron expression or descriptor such as @hourly")
	scheduleCmd.Flags().StringVar(&scheduleEvery, "every", "", "fixed interval such as 30m")
	scheduleCmd.Flags().StringVar(&scheduleTimezone, "tz", "UTC", "timezone for --cron")
	scheduleCmd.Flags().StringVar(&scheduleMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	_ = scheduleCmd.MarkFlagRequired("task")

	rootCmd.AddCommand(scheduleCmd)
}

func runSchedule(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	typ, expr, err := scheduleExpression(scheduleCron, scheduleEvery)
	if err != nil {
		return err
	}

	// Fail fast on unknown runnables rather than on the first tick.
	if _, err := selectRunnables(cfg, scheduleTasks, false, ""); err != nil {
		log.Error().Err(err).Msg("Failed to load runnables")
		return err
	}

	store, closeStore, err := openHistory(ctx, cfg)
	if err != nil {
		log.Error().Err(err).Msg("Failed to open run history")
		return err
	}
	defer closeStore()

	s := scheduler.New(scheduledJob(cfg, awsRunFunc(cfg), store, newGroupLocks()))

	now := time.Now()
	for _, task := range uniqueNames(scheduleTasks) {
		if err := s.Add(&scheduler.Schedule{
			Runnable:   task,
			Type:       typ,
			Expression: expr,
			Timezone:   scheduleTimezone,
		}, now); err != nil {
			return err
		}
	}

	if scheduleMetricsAddr != "" {
		srv := &http.Server{
			Addr:              scheduleMetricsAddr,
			Handler:           metricsMux(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			log.Info().Str("addr", scheduleMetricsAddr).Msg("Serving metrics")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Error().Err(err).Msg("Metrics server error")
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()
	}

	s.Run(ctx, scheduler.DefaultPollInterval)

	for _, sc := range s.Schedules() {
		ev := log.Info().Str("runnable", sc.Runnable).Time("next_run", sc.NextRun)
		if !sc.LastRun.IsZero() {
			ev = ev.Time("last_run", sc.LastRun).Str("last_status", sc.LastStatus)
		}
		ev.Msg("Schedule stopped")
	}
	return nil
}

func scheduleExpression(cron, every string) (scheduler.ScheduleType, string, error) {
	switch {
	case cron != "" && every == "":
		return scheduler.ScheduleTypeCron, cron, nil
	case every != "" && cron == "":
		return scheduler.ScheduleTypeInterval, every, nil
	default:
		return "", "", errNoScheduleExpr
	}
}

// scheduledJob reloads the runnable on every tick so edits take effect
// without a restart. A tick whose log group is busy is skipped.
func scheduledJob(c *config.Config, run runFunc, store *history.Store, locks *groupLocks) scheduler.Job {
	return func(ctx context.Context, name string) error {
		rb, err := runnable.Load(c.Project.RunnablePath(), name)
		if err != nil {
			return err
		}

		m := locks.get(rb.Logger.Name)
		if !m.TryLock() {
			log.Warn().
				Str("runnable", rb.Name).
				Str("log_group", rb.Logger.Name).
				Msg("Log group busy with another run, skipping")
			return nil
		}
		defer m.Unlock()

		_, err = execute(ctx, run, store, rb)
		flushMetrics(c)
		return err
	}
}

func metricsMux() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	return mux
}
