// Package logs locates and reads the CloudWatch log streams written by
// workflow executions.
package logs

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrNoLogs           = errors.New("no logs found")
	ErrLogGroupNotFound = errors.New("log group not found")
)

// StreamNotFoundError is returned when no unclaimed stream became visible
// in the log group within the retry budget.
type StreamNotFoundError struct {
	LogGroup string
	Attempts int
}

func (e *StreamNotFoundError) Error() string {
	return fmt.Sprintf("no logs found: stream not found in %s after %d attempts", e.LogGroup, e.Attempts)
}

func (e *StreamNotFoundError) Unwrap() error {
	return ErrNoLogs
}

// Stream identifies one log stream in a group.
type Stream struct {
	Name          string
	CreationTime  int64
	LastEventTime int64
}

// Event is a raw log event as stored by the provider.
type Event struct {
	Message   string
	Timestamp int64
}

// Page is one GetLogEvents response.
type Page struct {
	Events    []Event
	NextToken string
}

// Service is the subset of the log provider the runner relies on.
type Service interface {
	LogGroupExists(ctx context.Context, group string) (bool, error)

	// NewestStream returns the most recently written stream, or nil if the
	// group has none yet.
	NewestStream(ctx context.Context, group string) (*Stream, error)

	// GetEvents returns events at or after startTime (epoch ms). An empty
	// token requests the first page.
	GetEvents(ctx context.Context, group, stream string, startTime int64, token string) (*Page, error)
}

// CheckLogGroup fails with ErrLogGroupNotFound when group does not exist.
func CheckLogGroup(ctx context.Context, svc Service, group string) error {
	ok, err := svc.LogGroupExists(ctx, group)
	if err != nil {
		return fmt.Errorf("checking log group %s: %w", group, err)
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrLogGroupNotFound, group)
	}
	return nil
}
