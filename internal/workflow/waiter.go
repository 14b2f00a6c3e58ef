package workflow

import (
	"context"
	"fmt"
	"time"
)

// DefaultPollInterval is the delay between status checks.
const DefaultPollInterval = 1500 * time.Millisecond

// Waiter blocks until an execution leaves RUNNING. There is no attempt cap;
// the remote workflow's own timeout bounds the wait.
type Waiter struct {
	svc      Service
	interval time.Duration

	// OnPoll, when set, receives every non-terminal snapshot.
	OnPoll func(*Execution)
}

func NewWaiter(svc Service, interval time.Duration) *Waiter {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	return &Waiter{svc: svc, interval: interval}
}

// Wait polls executionARN until it is terminal. SUCCEEDED yields a Result;
// any other terminal status yields an *ExecutionFailedError.
func (w *Waiter) Wait(ctx context.Context, executionARN string) (*Result, error) {
	exec, err := w.svc.DescribeExecution(ctx, executionARN)
	if err != nil {
		return nil, err
	}

	for !exec.Status.Terminal() {
		if w.OnPoll != nil {
			w.OnPoll(exec)
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("waiting for %s: %w", executionARN, ctx.Err())
		case <-time.After(w.interval):
		}

		exec, err = w.svc.DescribeExecution(ctx, executionARN)
		if err != nil {
			return nil, err
		}
	}

	if exec.Status != StatusSucceeded {
		return nil, &ExecutionFailedError{
			ExecutionARN: executionARN,
			Status:       exec.Status,
		}
	}

	return &Result{
		ExecutionARN: executionARN,
		StartDate:    exec.StartDate,
		StopDate:     exec.StopDate,
		Duration:     exec.StopDate.Sub(exec.StartDate),
	}, nil
}
