// Package runner drives repeated workflow executions and turns their traces
// into a persisted latency report.
package runner

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/watzon/stepbench/internal/logs"
	"github.com/watzon/stepbench/internal/metrics"
	"github.com/watzon/stepbench/internal/report"
	"github.com/watzon/stepbench/internal/runnable"
	"github.com/watzon/stepbench/internal/trace"
	"github.com/watzon/stepbench/internal/workflow"
)

// Archiver stores a copy of the encoded report somewhere durable.
type Archiver interface {
	ObjectKey(runnable string, at time.Time, ext string) string
	Archive(ctx context.Context, key string, data []byte) (string, error)
}

// Options tunes timing and persistence.
type Options struct {
	// BaseDir resolves relative runnable output paths
	BaseDir string

	PollInterval     time.Duration
	StreamAttempts   int
	StreamRetryDelay time.Duration
	LogSettleDelay   time.Duration

	// Compression applied to the report file ("", "gzip", "zstd")
	Compression string
}

// Repetition is what one trigger-to-log-collection cycle produced.
type Repetition struct {
	Index     int
	Execution *workflow.Result
	Stream    *logs.Stream
	Events    []logs.Event
}

// Result describes a completed run.
type Result struct {
	Runnable    string
	Repetitions []Repetition
	Reports     report.Reports
	OutputPath  string
	ArchiveURI  string
	StartedAt   time.Time
	FinishedAt  time.Time
}

// Runner executes runnables. A Runner holds no per-run state, so separate
// runs may share one.
type Runner struct {
	workflows workflow.Service
	logs      logs.Service
	archiver  Archiver
	observer  Observer
	opts      Options
}

func New(workflows workflow.Service, logSvc logs.Service, opts Options) *Runner {
	return &Runner{
		workflows: workflows,
		logs:      logSvc,
		observer:  NopObserver{},
		opts:      opts,
	}
}

// WithObserver sets the progress observer.
func (r *Runner) WithObserver(o Observer) *Runner {
	if o == nil {
		o = NopObserver{}
	}
	r.observer = o
	return r
}

// WithArchiver enables uploading every written report.
func (r *Runner) WithArchiver(a Archiver) *Runner {
	r.archiver = a
	return r
}

// OutputPath returns where the report of rb is written.
func (r *Runner) OutputPath(rb *runnable.Runnable) string {
	if filepath.IsAbs(rb.Output) || r.opts.BaseDir == "" {
		return rb.Output
	}
	return filepath.Join(r.opts.BaseDir, rb.Output)
}

// Run executes rb.Repetitions sequential repetitions, then correlates and
// aggregates every trace and writes the combined report. The run is
// all-or-nothing: any failure returns before a report is written.
func (r *Runner) Run(ctx context.Context, rb *runnable.Runnable) (*Result, error) {
	res := &Result{Runnable: rb.Name, StartedAt: time.Now()}

	if err := r.run(ctx, rb, res); err != nil {
		r.observer.StateChanged(rb.Name, -1, StateFailed)
		metrics.RecordRun(rb.Name, "failed")
		return nil, err
	}

	res.FinishedAt = time.Now()
	r.observer.StateChanged(rb.Name, -1, StatePersisted)
	metrics.RecordRun(rb.Name, "succeeded")
	return res, nil
}

func (r *Runner) run(ctx context.Context, rb *runnable.Runnable, res *Result) error {
	if err := rb.Validate(); err != nil {
		return err
	}

	r.observer.StateChanged(rb.Name, -1, StateIdle)

	group := rb.Logger.Name
	if err := logs.CheckLogGroup(ctx, r.logs, group); err != nil {
		return err
	}

	trigger := workflow.NewTrigger(r.workflows)
	claimed := make([]string, 0, rb.Repetitions)

	for i := 0; i < rb.Repetitions; i++ {
		rep, err := r.repeat(ctx, rb, i, trigger, claimed)
		if err != nil {
			return err
		}
		claimed = append(claimed, rep.Stream.Name)
		res.Repetitions = append(res.Repetitions, *rep)
	}

	reports := make(report.Reports, len(res.Repetitions))
	var samples []trace.Sample
	for _, rep := range res.Repetitions {
		r.observer.StateChanged(rb.Name, rep.Index, StateCorrelating)
		c, err := correlate(rep.Events)
		if err != nil {
			return fmt.Errorf("correlating %s:%d: %w", rb.Name, rep.Index, err)
		}

		r.observer.StateChanged(rb.Name, rep.Index, StateAggregating)
		samples = append(samples, c.Samples...)
		reports[report.Key(rep.Index)] = report.Build(c)
	}
	res.Reports = reports

	if err := r.persist(ctx, rb, res); err != nil {
		return err
	}

	// Latency is only published for runs whose report was written.
	for _, s := range samples {
		metrics.RecordSample(rb.Name, s.FunctionName, s.StartUpTime, s.ExecutionTime)
	}
	return nil
}

// repeat runs one trigger -> wait -> locate -> fetch cycle.
func (r *Runner) repeat(ctx context.Context, rb *runnable.Runnable, i int, trigger *workflow.Trigger, claimed []string) (*Repetition, error) {
	r.observer.StateChanged(rb.Name, i, StateTriggering)
	executionARN, err := trigger.Start(ctx, rb.Workflow.ARN, rb.PayloadOrDefault())
	if err != nil {
		return nil, fmt.Errorf("repetition %s:%d: %w", rb.Name, i, err)
	}
	log.Debug().Str("runnable", rb.Name).Int("repetition", i).Str("execution_arn", executionARN).Msg("Execution started")

	r.observer.StateChanged(rb.Name, i, StateAwaitingCompletion)
	waiter := workflow.NewWaiter(r.workflows, r.opts.PollInterval)
	waiter.OnPoll = func(exec *workflow.Execution) {
		r.observer.ExecutionPolled(rb.Name, i, exec)
	}

	exec, err := waiter.Wait(ctx, executionARN)
	if err != nil {
		var failed *workflow.ExecutionFailedError
		if errors.As(err, &failed) {
			failed.Task = rb.Name
			failed.Repetition = i
			metrics.RecordExecution(rb.Name, string(failed.Status), 0)
			return nil, err
		}
		return nil, fmt.Errorf("repetition %s:%d: %w", rb.Name, i, err)
	}
	metrics.RecordExecution(rb.Name, string(workflow.StatusSucceeded), exec.Duration)
	r.observer.ExecutionSucceeded(rb.Name, i, exec)

	r.observer.StateChanged(rb.Name, i, StateLocatingStream)
	locator := logs.NewLocator(r.logs, r.opts.StreamAttempts, r.opts.StreamRetryDelay)
	locator.OnAttempt = func(int) {
		metrics.RecordStreamLookup(rb.Name)
	}

	stream, err := locator.Locate(ctx, rb.Logger.Name, claimed)
	if err != nil {
		return nil, fmt.Errorf("repetition %s:%d: %w", rb.Name, i, err)
	}
	r.observer.StreamClaimed(rb.Name, i, stream)

	r.observer.StateChanged(rb.Name, i, StateFetchingLogs)
	fetcher := logs.NewFetcher(r.logs, r.opts.LogSettleDelay)
	fetcher.OnPage = func(n int) {
		metrics.RecordLogPage(rb.Name, n)
	}

	events, err := fetcher.Fetch(ctx, rb.Logger.Name, stream.Name, exec.StartDate)
	if err != nil {
		return nil, fmt.Errorf("repetition %s:%d: %w", rb.Name, i, err)
	}

	return &Repetition{
		Index:     i,
		Execution: exec,
		Stream:    stream,
		Events:    events,
	}, nil
}

func correlate(events []logs.Event) (*trace.Correlation, error) {
	messages := make([]string, len(events))
	for i, ev := range events {
		messages[i] = ev.Message
	}

	parsed, err := trace.ParseMessages(messages)
	if err != nil {
		return nil, err
	}
	return trace.Correlate(parsed)
}

func (r *Runner) persist(ctx context.Context, rb *runnable.Runnable, res *Result) error {
	writer := report.NewWriter(r.opts.Compression)

	path, err := writer.Write(r.OutputPath(rb), res.Reports)
	if err != nil {
		return fmt.Errorf("writing report for %s: %w", rb.Name, err)
	}
	res.OutputPath = path

	if r.archiver == nil {
		return nil
	}

	data, err := writer.Encode(res.Reports)
	if err != nil {
		return err
	}
	key := r.archiver.ObjectKey(rb.Name, res.StartedAt, writer.Extension())
	uri, err := r.archiver.Archive(ctx, key, data)
	if err != nil {
		// The local report is already in place; archiving is best effort.
		log.Warn().Err(err).Str("runnable", rb.Name).Msg("Failed to archive report")
		return nil
	}
	res.ArchiveURI = uri

	return nil
}
