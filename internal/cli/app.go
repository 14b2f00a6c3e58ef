package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/watzon/stepbench/internal/cloud"
	"github.com/watzon/stepbench/internal/config"
	"github.com/watzon/stepbench/internal/database"
	"github.com/watzon/stepbench/internal/history"
	"github.com/watzon/stepbench/internal/logs"
	"github.com/watzon/stepbench/internal/metrics"
	"github.com/watzon/stepbench/internal/report"
	"github.com/watzon/stepbench/internal/runnable"
	"github.com/watzon/stepbench/internal/runner"
	"github.com/watzon/stepbench/internal/workflow"
)

// runnerOptions maps the runner config onto runner.Options.
func runnerOptions(c *config.Config) runner.Options {
	return runner.Options{
		BaseDir:          c.Project.Dir,
		PollInterval:     c.Runner.PollInterval,
		StreamAttempts:   c.Runner.StreamAttempts,
		StreamRetryDelay: c.Runner.StreamRetryDelay,
		LogSettleDelay:   c.Runner.LogSettleDelay,
		Compression:      c.Report.Compression,
	}
}

// newRunner builds a Runner backed by AWS clients for the runnable's region.
func newRunner(ctx context.Context, c *config.Config, rb *runnable.Runnable) (*runner.Runner, error) {
	clients, err := cloud.NewClients(ctx, c.AWS, rb.Region)
	if err != nil {
		return nil, err
	}

	r := runner.New(
		workflow.NewSFNService(clients.SFN),
		logs.NewCloudWatchService(clients.Logs),
		runnerOptions(c),
	).WithObserver(logObserver{})

	if c.Report.Upload.Enabled {
		r.WithArchiver(report.NewS3Archiver(clients.S3, c.Report.Upload.Bucket, c.Report.Upload.Prefix))
	}

	return r, nil
}

// openHistory returns nil when history is disabled.
func openHistory(ctx context.Context, c *config.Config) (*history.Store, func(), error) {
	if !c.History.Enabled {
		return nil, func() {}, nil
	}

	db, err := database.Open(ctx, database.Options{
		Path:        c.Project.Resolve(c.History.Path),
		BusyTimeout: c.History.BusyTimeout,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("opening history: %w", err)
	}

	return history.NewStore(db), func() { db.Close() }, nil
}

// runFunc executes one runnable. Tests replace it.
type runFunc func(ctx context.Context, rb *runnable.Runnable) (*runner.Result, error)

func awsRunFunc(c *config.Config) runFunc {
	return func(ctx context.Context, rb *runnable.Runnable) (*runner.Result, error) {
		r, err := newRunner(ctx, c, rb)
		if err != nil {
			return nil, err
		}
		return r.Run(ctx, rb)
	}
}

// execute runs rb, records the outcome in store (when non-nil) and prints
// where the report went.
func execute(ctx context.Context, run runFunc, store *history.Store, rb *runnable.Runnable) (*runner.Result, error) {
	started := time.Now()
	log.Info().Str("runnable", rb.Name).Int("repetitions", rb.Repetitions).Msg("Starting run")

	res, err := run(ctx, rb)

	if store != nil {
		entry := historyEntry(rb, res, err, started)
		if recErr := store.Record(context.WithoutCancel(ctx), entry); recErr != nil {
			log.Warn().Err(recErr).Str("runnable", rb.Name).Msg("Failed to record run history")
		}
	}

	if err != nil {
		log.Error().Err(err).Str("runnable", rb.Name).Msg("Run failed")
		return nil, err
	}

	log.Info().Str("runnable", rb.Name).Msgf("Check out your data ➡ %s", res.OutputPath)
	if res.ArchiveURI != "" {
		log.Info().Str("runnable", rb.Name).Str("uri", res.ArchiveURI).Msg("Report archived")
	}

	return res, nil
}

func historyEntry(rb *runnable.Runnable, res *runner.Result, runErr error, started time.Time) *history.Run {
	entry := &history.Run{
		Runnable:    rb.Name,
		Repetitions: max(rb.Repetitions, 1),
		Status:      history.StatusSucceeded,
		StartedAt:   started,
		FinishedAt:  time.Now(),
	}

	if runErr != nil {
		entry.Status = history.StatusFailed
		entry.Error = runErr.Error()
		return entry
	}

	entry.OutputPath = res.OutputPath
	entry.ArchiveURI = res.ArchiveURI
	for _, rep := range res.Repetitions {
		entry.Executions = append(entry.Executions, history.Execution{
			Index:        rep.Index,
			ExecutionARN: rep.Execution.ExecutionARN,
			LogStream:    rep.Stream.Name,
			Duration:     rep.Execution.Duration,
		})
	}

	return entry
}

// flushMetrics writes the textfile export if one is configured.
func flushMetrics(c *config.Config) {
	if c.Metrics.Textfile == "" {
		return
	}
	path := c.Project.Resolve(c.Metrics.Textfile)
	if err := metrics.WriteTextfile(path); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Failed to write metrics textfile")
		return
	}
	log.Debug().Str("path", path).Msg("Metrics written")
}
