package logs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"
	"github.com/stretchr/testify/require"
)

type pagedService struct {
	groups  map[string]bool
	streams []*Stream
	lookups int

	pages      map[string]*Page
	tokensSeen []string
	startTimes []int64
}

func (s *pagedService) LogGroupExists(_ context.Context, group string) (bool, error) {
	return s.groups[group], nil
}

func (s *pagedService) NewestStream(_ context.Context, _ string) (*Stream, error) {
	idx := s.lookups
	s.lookups++
	if len(s.streams) == 0 {
		return nil, nil
	}
	if idx >= len(s.streams) {
		idx = len(s.streams) - 1
	}
	return s.streams[idx], nil
}

func (s *pagedService) GetEvents(_ context.Context, _, _ string, startTime int64, token string) (*Page, error) {
	s.tokensSeen = append(s.tokensSeen, token)
	s.startTimes = append(s.startTimes, startTime)
	page, ok := s.pages[token]
	if !ok {
		return nil, errors.New("unexpected token " + token)
	}
	return page, nil
}

func events(msgs ...string) []Event {
	out := make([]Event, len(msgs))
	for i, m := range msgs {
		out[i] = Event{Message: m, Timestamp: int64(i)}
	}
	return out
}

func TestFetcher_StopsOnEchoedToken(t *testing.T) {
	svc := &pagedService{pages: map[string]*Page{
		"":  {Events: events("e1", "e2"), NextToken: "A"},
		"A": {Events: events("e3"), NextToken: "B"},
		"B": {Events: events("e4"), NextToken: "B"},
	}}

	var kept []int
	fetcher := NewFetcher(svc, 0)
	fetcher.OnPage = func(n int) { kept = append(kept, n) }

	start := time.UnixMilli(1_700_000_000_123)
	got, err := fetcher.Fetch(context.Background(), "group", "stream", start)
	require.NoError(t, err)

	require.Equal(t, []string{"", "A", "B"}, svc.tokensSeen)
	require.Len(t, got, 3)
	require.Equal(t, "e1", got[0].Message)
	require.Equal(t, "e3", got[2].Message)
	require.Equal(t, []int{2, 1}, kept)

	for _, ts := range svc.startTimes {
		require.Equal(t, start.UnixMilli(), ts)
	}
}

func TestFetcher_StopsWhenTokenAbsent(t *testing.T) {
	svc := &pagedService{pages: map[string]*Page{
		"":  {Events: events("e1"), NextToken: "A"},
		"A": {Events: events("e2", "e3")},
	}}

	got, err := NewFetcher(svc, 0).Fetch(context.Background(), "group", "stream", time.Now())
	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, []string{"", "A"}, svc.tokensSeen)
}

func TestFetcher_SinglePage(t *testing.T) {
	svc := &pagedService{pages: map[string]*Page{
		"": {Events: events("only")},
	}}

	got, err := NewFetcher(svc, 0).Fetch(context.Background(), "group", "stream", time.Now())
	require.NoError(t, err)
	require.Len(t, got, 1)
}

func TestLocator_SkipsClaimedStreams(t *testing.T) {
	svc := &pagedService{streams: []*Stream{
		{Name: "old"},
		{Name: "old"},
		{Name: "new"},
	}}

	var attempts []int
	locator := NewLocator(svc, 3, 0)
	locator.OnAttempt = func(n int) { attempts = append(attempts, n) }

	stream, err := locator.Locate(context.Background(), "group", []string{"old"})
	require.NoError(t, err)
	require.Equal(t, "new", stream.Name)
	require.Equal(t, []int{1, 2, 3}, attempts)
}

func TestLocator_FirstAttempt(t *testing.T) {
	svc := &pagedService{streams: []*Stream{{Name: "fresh"}}}

	stream, err := NewLocator(svc, 3, 0).Locate(context.Background(), "group", nil)
	require.NoError(t, err)
	require.Equal(t, "fresh", stream.Name)
	require.Equal(t, 1, svc.lookups)
}

func TestLocator_GivesUp(t *testing.T) {
	svc := &pagedService{streams: []*Stream{{Name: "old"}}}

	_, err := NewLocator(svc, 3, time.Millisecond).Locate(context.Background(), "my-group", []string{"old"})
	require.ErrorIs(t, err, ErrNoLogs)
	require.Equal(t, 3, svc.lookups)

	var nf *StreamNotFoundError
	require.True(t, errors.As(err, &nf))
	require.Equal(t, "my-group", nf.LogGroup)
	require.Contains(t, err.Error(), "my-group")
}

func TestLocator_EmptyGroup(t *testing.T) {
	svc := &pagedService{}

	_, err := NewLocator(svc, 2, 0).Locate(context.Background(), "group", nil)
	require.ErrorIs(t, err, ErrNoLogs)
	require.Equal(t, 2, svc.lookups)
}

func TestCheckLogGroup(t *testing.T) {
	svc := &pagedService{groups: map[string]bool{"present": true}}

	require.NoError(t, CheckLogGroup(context.Background(), svc, "present"))
	require.ErrorIs(t, CheckLogGroup(context.Background(), svc, "absent"), ErrLogGroupNotFound)
}

type fakeCloudWatch struct {
	streamsInput *cloudwatchlogs.DescribeLogStreamsInput
	eventsInputs []*cloudwatchlogs.GetLogEventsInput
}

func (f *fakeCloudWatch) DescribeLogGroups(_ context.Context, _ *cloudwatchlogs.DescribeLogGroupsInput, _ ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.DescribeLogGroupsOutput, error) {
	return &cloudwatchlogs.DescribeLogGroupsOutput{LogGroups: []types.LogGroup{
		{LogGroupName: aws.String("bench-logGroup-old")},
		{LogGroupName: aws.String("bench-logGroup")},
	}}, nil
}

func (f *fakeCloudWatch) DescribeLogStreams(_ context.Context, in *cloudwatchlogs.DescribeLogStreamsInput, _ ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.DescribeLogStreamsOutput, error) {
	f.streamsInput = in
	return &cloudwatchlogs.DescribeLogStreamsOutput{LogStreams: []types.LogStream{
		{LogStreamName: aws.String("states/bench/2024-01-01/abc"), CreationTime: aws.Int64(10)},
	}}, nil
}

func (f *fakeCloudWatch) GetLogEvents(_ context.Context, in *cloudwatchlogs.GetLogEventsInput, _ ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.GetLogEventsOutput, error) {
	f.eventsInputs = append(f.eventsInputs, in)
	return &cloudwatchlogs.GetLogEventsOutput{
		Events:            []types.OutputLogEvent{{Message: aws.String(`{"id":"1"}`), Timestamp: aws.Int64(5)}},
		NextBackwardToken: aws.String("b/123"),
	}, nil
}

func TestCloudWatchService(t *testing.T) {
	client := &fakeCloudWatch{}
	svc := NewCloudWatchService(client)
	ctx := context.Background()

	ok, err := svc.LogGroupExists(ctx, "bench-logGroup")
	require.NoError(t, err)
	require.True(t, ok)

	ok, err = svc.LogGroupExists(ctx, "bench")
	require.NoError(t, err)
	require.False(t, ok)

	stream, err := svc.NewestStream(ctx, "bench-logGroup")
	require.NoError(t, err)
	require.Equal(t, "states/bench/2024-01-01/abc", stream.Name)
	require.Equal(t, types.OrderByLastEventTime, client.streamsInput.OrderBy)
	require.True(t, aws.ToBool(client.streamsInput.Descending))

	page, err := svc.GetEvents(ctx, "bench-logGroup", stream.Name, 42, "")
	require.NoError(t, err)
	require.Equal(t, "b/123", page.NextToken)
	require.Len(t, page.Events, 1)
	require.Nil(t, client.eventsInputs[0].NextToken)
	require.Equal(t, int64(42), aws.ToInt64(client.eventsInputs[0].StartTime))

	_, err = svc.GetEvents(ctx, "bench-logGroup", stream.Name, 42, "b/123")
	require.NoError(t, err)
	require.Equal(t, "b/123", aws.ToString(client.eventsInputs[1].NextToken))
}
