package workflow

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sfn"
)

// SFNAPI is the part of *sfn.Client used by SFNService.
type SFNAPI interface {
	StartExecution(ctx context.Context, params *sfn.StartExecutionInput, optFns ...func(*sfn.Options)) (*sfn.StartExecutionOutput, error)
	DescribeExecution(ctx context.Context, params *sfn.DescribeExecutionInput, optFns ...func(*sfn.Options)) (*sfn.DescribeExecutionOutput, error)
}

// SFNService implements Service on top of AWS Step Functions.
type SFNService struct {
	client SFNAPI
}

func NewSFNService(client SFNAPI) *SFNService {
	return &SFNService{client: client}
}

func (s *SFNService) StartExecution(ctx context.Context, stateMachineARN, input string) (string, error) {
	out, err := s.client.StartExecution(ctx, &sfn.StartExecutionInput{
		StateMachineArn: aws.String(stateMachineARN),
		Input:           aws.String(input),
	})
	if err != nil {
		return "", fmt.Errorf("starting execution: %w", err)
	}

	return aws.ToString(out.ExecutionArn), nil
}

func (s *SFNService) DescribeExecution(ctx context.Context, executionARN string) (*Execution, error) {
	out, err := s.client.DescribeExecution(ctx, &sfn.DescribeExecutionInput{
		ExecutionArn: aws.String(executionARN),
	})
	if err != nil {
		return nil, fmt.Errorf("describing execution: %w", err)
	}

	return &Execution{
		ARN:       executionARN,
		Status:    Status(out.Status),
		StartDate: aws.ToTime(out.StartDate),
		StopDate:  aws.ToTime(out.StopDate),
	}, nil
}
