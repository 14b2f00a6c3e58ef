package workflow

import (
	"context"
	"fmt"
)

// Trigger starts executions. It is not idempotent: every call starts a new
// execution, and errors are never retried.
type Trigger struct {
	svc Service
}

func NewTrigger(svc Service) *Trigger {
	return &Trigger{svc: svc}
}

// Start launches stateMachineARN with payload and returns the execution ARN.
func (t *Trigger) Start(ctx context.Context, stateMachineARN, payload string) (string, error) {
	executionARN, err := t.svc.StartExecution(ctx, stateMachineARN, payload)
	if err != nil {
		return "", fmt.Errorf("triggering %s: %w", stateMachineARN, err)
	}
	if executionARN == "" {
		return "", fmt.Errorf("triggering %s: %w", stateMachineARN, ErrNoExecutionARN)
	}
	return executionARN, nil
}
