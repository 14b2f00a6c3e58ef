package logs

import (
	"context"
	"fmt"
	"time"
)

// DefaultSettleDelay gives the provider time to flush the final events of
// an execution into its stream.
const DefaultSettleDelay = 500 * time.Millisecond

// Fetcher reads every event of one stream written at or after a start time.
type Fetcher struct {
	svc    Service
	settle time.Duration

	// OnPage, when set, receives the event count of every page that was kept.
	OnPage func(events int)
}

func NewFetcher(svc Service, settle time.Duration) *Fetcher {
	if settle < 0 {
		settle = 0
	}
	return &Fetcher{svc: svc, settle: settle}
}

// Fetch follows the backward pagination token until it is absent or the
// provider echoes the token it was given, which marks the end of the data.
// Events are returned in the order received.
func (f *Fetcher) Fetch(ctx context.Context, group, stream string, start time.Time) ([]Event, error) {
	if err := sleep(ctx, f.settle); err != nil {
		return nil, err
	}

	startTime := start.UnixMilli()

	page, err := f.svc.GetEvents(ctx, group, stream, startTime, "")
	if err != nil {
		return nil, fmt.Errorf("fetching %s/%s: %w", group, stream, err)
	}

	events := append([]Event(nil), page.Events...)
	f.pageKept(len(page.Events))

	token := page.NextToken
	for token != "" {
		page, err = f.svc.GetEvents(ctx, group, stream, startTime, token)
		if err != nil {
			return nil, fmt.Errorf("fetching %s/%s: %w", group, stream, err)
		}
		if page.NextToken == token {
			break
		}

		events = append(events, page.Events...)
		f.pageKept(len(page.Events))
		token = page.NextToken
	}

	return events, nil
}

func (f *Fetcher) pageKept(n int) {
	if f.OnPage != nil {
		f.OnPage(n)
	}
}
