package logs

import (
	"context"
	"slices"
	"time"
)

const (
	DefaultStreamAttempts   = 3
	DefaultStreamRetryDelay = 300 * time.Millisecond
)

// Locator finds the stream created by the execution that just finished.
//
// The provider creates one stream per execution asynchronously, so the
// newest stream may still belong to the previous repetition right after
// the waiter returns. Locator waits and re-checks a bounded number of times.
type Locator struct {
	svc      Service
	attempts int
	delay    time.Duration

	// OnAttempt, when set, is called before each lookup.
	OnAttempt func(attempt int)
}

func NewLocator(svc Service, attempts int, delay time.Duration) *Locator {
	if attempts < 1 {
		attempts = DefaultStreamAttempts
	}
	if delay < 0 {
		delay = 0
	}
	return &Locator{svc: svc, attempts: attempts, delay: delay}
}

// Locate returns the newest stream in group whose name is not in claimed.
// The delay before each attempt doubles, starting from the configured delay.
func (l *Locator) Locate(ctx context.Context, group string, claimed []string) (*Stream, error) {
	delay := l.delay

	for attempt := 1; attempt <= l.attempts; attempt++ {
		if err := sleep(ctx, delay); err != nil {
			return nil, err
		}
		delay *= 2

		if l.OnAttempt != nil {
			l.OnAttempt(attempt)
		}

		stream, err := l.svc.NewestStream(ctx, group)
		if err != nil {
			return nil, err
		}
		if stream != nil && !slices.Contains(claimed, stream.Name) {
			return stream, nil
		}
	}

	return nil, &StreamNotFoundError{LogGroup: group, Attempts: l.attempts}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
