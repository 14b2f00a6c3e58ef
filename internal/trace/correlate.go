package trace

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws/arn"
)

var ErrEmptyTrace = errors.New("trace contains no events")

// Sample is the measured latency of one succeeded task, in epoch-unit
// (millisecond) differences.
type Sample struct {
	FunctionName  string
	StartUpTime   int64
	ExecutionTime int64
}

// WorkflowTiming is the end-to-end latency of one execution.
type WorkflowTiming struct {
	ExecutionTime int64
	Region        string
}

// Correlation is everything derived from one repetition's trace.
type Correlation struct {
	Workflow WorkflowTiming
	Samples  []Sample
}

// Correlate rebuilds scheduled -> started -> succeeded chains for every
// succeeded task. Any broken chain aborts the whole correlation.
func Correlate(events []*Event) (*Correlation, error) {
	if len(events) == 0 {
		return nil, ErrEmptyTrace
	}

	ix := NewIndex(events)

	workflow, err := workflowTiming(ix, events[0])
	if err != nil {
		return nil, err
	}

	succeeded := ix.OfType(TaskSucceeded)
	samples := make([]Sample, 0, len(succeeded))
	for _, ev := range succeeded {
		s, err := taskSample(ix, ev)
		if err != nil {
			return nil, err
		}
		samples = append(samples, s)
	}

	return &Correlation{Workflow: workflow, Samples: samples}, nil
}

func workflowTiming(ix *Index, first *Event) (WorkflowTiming, error) {
	started, err := ix.ByType(ExecutionStarted)
	if err != nil {
		return WorkflowTiming{}, err
	}
	finished, err := ix.LastByType(ExecutionSucceeded)
	if err != nil {
		return WorkflowTiming{}, err
	}

	parsed, err := arn.Parse(first.ExecutionARN)
	if err != nil {
		return WorkflowTiming{}, fmt.Errorf("%w: execution_arn %q: %v", ErrMalformedEvent, first.ExecutionARN, err)
	}

	return WorkflowTiming{
		ExecutionTime: finished.Timestamp - started.Timestamp,
		Region:        parsed.Region,
	}, nil
}

func taskSample(ix *Index, succeeded *Event) (Sample, error) {
	started, err := ix.ByID(succeeded.PreviousID)
	if err != nil {
		return Sample{}, err
	}
	scheduled, err := ix.ByID(started.PreviousID)
	if err != nil {
		return Sample{}, err
	}

	details, ok := scheduled.Details.(TaskScheduledDetails)
	if !ok {
		return Sample{}, fmt.Errorf("%w: event %d is %s, expected %s",
			ErrMalformedEvent, scheduled.ID, scheduled.Type, TaskScheduled)
	}

	name, err := FunctionName(details.Parameters.FunctionName)
	if err != nil {
		return Sample{}, fmt.Errorf("event %d: %w", scheduled.ID, err)
	}

	return Sample{
		FunctionName:  name,
		StartUpTime:   started.Timestamp - scheduled.Timestamp,
		ExecutionTime: succeeded.Timestamp - started.Timestamp,
	}, nil
}

// FunctionName reduces a Lambda function reference to its short name: the
// last "-" separated segment of the ARN resource. Values that are not ARNs
// are treated as the resource itself.
func FunctionName(ref string) (string, error) {
	if ref == "" {
		return "", fmt.Errorf("%w: missing FunctionName parameter", ErrMalformedEvent)
	}

	resource := ref
	if arn.IsARN(ref) {
		parsed, err := arn.Parse(ref)
		if err != nil {
			return "", fmt.Errorf("%w: FunctionName %q: %v", ErrMalformedEvent, ref, err)
		}
		resource = parsed.Resource
	}

	parts := strings.Split(resource, "-")
	return parts[len(parts)-1], nil
}
