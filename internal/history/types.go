// Package history records every benchmark run in the local database.
package history

import (
	"errors"
	"time"
)

var (
	ErrNotFound  = errors.New("run not found")
	ErrDuplicate = errors.New("run already recorded")
)

// Status is the outcome of a run.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
)

// Run is one recorded invocation of a runnable.
type Run struct {
	ID          string
	Runnable    string
	Repetitions int
	Status      Status
	OutputPath  string
	ArchiveURI  string
	Error       string
	StartedAt   time.Time
	FinishedAt  time.Time

	// Executions is only populated by Get.
	Executions []Execution
}

// Duration is the wall time of the whole run.
func (r *Run) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Execution is the workflow execution and log stream of one repetition.
type Execution struct {
	Index        int
	ExecutionARN string
	LogStream    string
	Duration     time.Duration
}

// Filter narrows List results. Zero values match everything.
type Filter struct {
	Runnable string
	Status   Status
	Limit    int
}
