// Package workflow starts Step Functions executions and waits for them to finish.
package workflow

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Status is the lifecycle state reported by DescribeExecution.
type Status string

const (
	StatusRunning        Status = "RUNNING"
	StatusSucceeded      Status = "SUCCEEDED"
	StatusFailed         Status = "FAILED"
	StatusTimedOut       Status = "TIMED_OUT"
	StatusAborted        Status = "ABORTED"
	StatusPendingRedrive Status = "PENDING_REDRIVE"
)

// Terminal reports whether the execution has stopped running.
func (s Status) Terminal() bool {
	return s != StatusRunning
}

var (
	ErrExecutionFailed = errors.New("execution failed")
	ErrNoExecutionARN  = errors.New("workflow service returned no execution arn")
)

// ExecutionFailedError is returned when an execution ends in any state
// other than SUCCEEDED. Task and Repetition are filled in by the caller
// that knows which runnable repetition it belonged to.
type ExecutionFailedError struct {
	ExecutionARN string
	Status       Status
	Task         string
	Repetition   int
}

func (e *ExecutionFailedError) Error() string {
	if e.Task == "" {
		return fmt.Sprintf("execution %s ended with status %s", e.ExecutionARN, e.Status)
	}
	return fmt.Sprintf("execution failed on task %s:%d (%s ended with status %s)",
		e.Task, e.Repetition, e.ExecutionARN, e.Status)
}

func (e *ExecutionFailedError) Unwrap() error {
	return ErrExecutionFailed
}

// Execution is a snapshot of one workflow execution.
type Execution struct {
	ARN       string
	Status    Status
	StartDate time.Time
	StopDate  time.Time
}

// Service is the subset of the workflow provider the runner relies on.
type Service interface {
	StartExecution(ctx context.Context, stateMachineARN, input string) (string, error)
	DescribeExecution(ctx context.Context, executionARN string) (*Execution, error)
}

// Result holds the timestamps of a succeeded execution.
type Result struct {
	ExecutionARN string
	StartDate    time.Time
	StopDate     time.Time
	Duration     time.Duration
}
