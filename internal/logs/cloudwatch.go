package logs

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs"
	"github.com/aws/aws-sdk-go-v2/service/cloudwatchlogs/types"
)

// CloudWatchAPI is the part of *cloudwatchlogs.Client used by CloudWatchService.
type CloudWatchAPI interface {
	DescribeLogGroups(ctx context.Context, params *cloudwatchlogs.DescribeLogGroupsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.DescribeLogGroupsOutput, error)
	DescribeLogStreams(ctx context.Context, params *cloudwatchlogs.DescribeLogStreamsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.DescribeLogStreamsOutput, error)
	GetLogEvents(ctx context.Context, params *cloudwatchlogs.GetLogEventsInput, optFns ...func(*cloudwatchlogs.Options)) (*cloudwatchlogs.GetLogEventsOutput, error)
}

// CloudWatchService implements Service on top of CloudWatch Logs.
type CloudWatchService struct {
	client CloudWatchAPI
}

func NewCloudWatchService(client CloudWatchAPI) *CloudWatchService {
	return &CloudWatchService{client: client}
}

func (s *CloudWatchService) LogGroupExists(ctx context.Context, group string) (bool, error) {
	out, err := s.client.DescribeLogGroups(ctx, &cloudwatchlogs.DescribeLogGroupsInput{
		LogGroupNamePrefix: aws.String(group),
	})
	if err != nil {
		return false, fmt.Errorf("describing log groups: %w", err)
	}

	for _, lg := range out.LogGroups {
		if aws.ToString(lg.LogGroupName) == group {
			return true, nil
		}
	}
	return false, nil
}

func (s *CloudWatchService) NewestStream(ctx context.Context, group string) (*Stream, error) {
	out, err := s.client.DescribeLogStreams(ctx, &cloudwatchlogs.DescribeLogStreamsInput{
		LogGroupName: aws.String(group),
		OrderBy:      types.OrderByLastEventTime,
		Descending:   aws.Bool(true),
		Limit:        aws.Int32(1),
	})
	if err != nil {
		return nil, fmt.Errorf("describing log streams: %w", err)
	}

	if len(out.LogStreams) == 0 {
		return nil, nil
	}

	ls := out.LogStreams[0]
	return &Stream{
		Name:          aws.ToString(ls.LogStreamName),
		CreationTime:  aws.ToInt64(ls.CreationTime),
		LastEventTime: aws.ToInt64(ls.LastEventTimestamp),
	}, nil
}

func (s *CloudWatchService) GetEvents(ctx context.Context, group, stream string, startTime int64, token string) (*Page, error) {
	in := &cloudwatchlogs.GetLogEventsInput{
		LogGroupName:  aws.String(group),
		LogStreamName: aws.String(stream),
		StartTime:     aws.Int64(startTime),
	}
	if token != "" {
		in.NextToken = aws.String(token)
	}

	out, err := s.client.GetLogEvents(ctx, in)
	if err != nil {
		return nil, fmt.Errorf("getting log events: %w", err)
	}

	page := &Page{
		Events:    make([]Event, 0, len(out.Events)),
		NextToken: aws.ToString(out.NextBackwardToken),
	}
	for _, ev := range out.Events {
		page.Events = append(page.Events, Event{
			Message:   aws.ToString(ev.Message),
			Timestamp: aws.ToInt64(ev.Timestamp),
		})
	}

	return page, nil
}
