// Package trace turns the Step Functions execution history written to
// CloudWatch Logs into per-task latency samples.
package trace

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// EventType is the history event tag, e.g. "TaskScheduled".
type EventType string

const (
	ExecutionStarted   EventType = "ExecutionStarted"
	ExecutionSucceeded EventType = "ExecutionSucceeded"
	TaskScheduled      EventType = "TaskScheduled"
	TaskStarted        EventType = "TaskStarted"
	TaskSucceeded      EventType = "TaskSucceeded"
)

var ErrMalformedEvent = errors.New("malformed log event")

// Event is one parsed history event. Details holds the variant matching
// Type, or nil for types the correlator does not inspect.
type Event struct {
	ID           int
	Type         EventType
	PreviousID   int
	Timestamp    int64
	ExecutionARN string
	Details      Details
}

// Details is implemented by every per-type detail variant.
type Details interface {
	detailsOf() EventType
}

// TaskParameters is the decoded "parameters" blob of a scheduled task.
type TaskParameters struct {
	FunctionName string          `json:"FunctionName"`
	Payload      json.RawMessage `json:"Payload,omitempty"`
}

type TaskScheduledDetails struct {
	Region       string
	Resource     string
	ResourceType string
	Parameters   TaskParameters
}

type TaskStartedDetails struct {
	Resource     string
	ResourceType string
}

type TaskSucceededDetails struct {
	Resource     string
	ResourceType string
	Output       string
}

type ExecutionStartedDetails struct {
	RoleARN string
	Input   string
}

type ExecutionSucceededDetails struct {
	Output string
}

func (TaskScheduledDetails) detailsOf() EventType      { return TaskScheduled }
func (TaskStartedDetails) detailsOf() EventType        { return TaskStarted }
func (TaskSucceededDetails) detailsOf() EventType      { return TaskSucceeded }
func (ExecutionStartedDetails) detailsOf() EventType   { return ExecutionStarted }
func (ExecutionSucceededDetails) detailsOf() EventType { return ExecutionSucceeded }

// wireEvent mirrors the JSON log line; numbers arrive string-encoded.
type wireEvent struct {
	ID              string          `json:"id"`
	Type            string          `json:"type"`
	Details         json.RawMessage `json:"details"`
	ExecutionARN    string          `json:"execution_arn"`
	PreviousEventID string          `json:"previous_event_id"`
	EventTimestamp  string          `json:"event_timestamp"`
}

type wireDetails struct {
	RoleARN      string `json:"roleArn"`
	Input        string `json:"input"`
	Output       string `json:"output"`
	Parameters   string `json:"parameters"`
	Region       string `json:"region"`
	Resource     string `json:"resource"`
	ResourceType string `json:"resourceType"`
}

// Parse decodes a single log message.
func Parse(message string) (*Event, error) {
	var w wireEvent
	if err := json.Unmarshal([]byte(message), &w); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
	}

	id, err := strconv.Atoi(w.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: id %q", ErrMalformedEvent, w.ID)
	}

	var prev int
	if w.PreviousEventID != "" {
		prev, err = strconv.Atoi(w.PreviousEventID)
		if err != nil {
			return nil, fmt.Errorf("%w: event %d previous_event_id %q", ErrMalformedEvent, id, w.PreviousEventID)
		}
	}

	ts, err := strconv.ParseInt(w.EventTimestamp, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: event %d event_timestamp %q", ErrMalformedEvent, id, w.EventTimestamp)
	}

	ev := &Event{
		ID:           id,
		Type:         EventType(w.Type),
		PreviousID:   prev,
		Timestamp:    ts,
		ExecutionARN: w.ExecutionARN,
	}

	ev.Details, err = parseDetails(ev.Type, w.Details)
	if err != nil {
		return nil, fmt.Errorf("%w: event %d (%s): %v", ErrMalformedEvent, id, ev.Type, err)
	}

	return ev, nil
}

func parseDetails(t EventType, raw json.RawMessage) (Details, error) {
	var d wireDetails
	if len(raw) > 0 && string(raw) != "null" {
		if err := json.Unmarshal(raw, &d); err != nil {
			return nil, err
		}
	}

	switch t {
	case TaskScheduled:
		details := TaskScheduledDetails{
			Region:       d.Region,
			Resource:     d.Resource,
			ResourceType: d.ResourceType,
		}
		if d.Parameters != "" {
			if err := json.Unmarshal([]byte(d.Parameters), &details.Parameters); err != nil {
				return nil, fmt.Errorf("parameters: %w", err)
			}
		}
		return details, nil
	case TaskStarted:
		return TaskStartedDetails{Resource: d.Resource, ResourceType: d.ResourceType}, nil
	case TaskSucceeded:
		return TaskSucceededDetails{Resource: d.Resource, ResourceType: d.ResourceType, Output: d.Output}, nil
	case ExecutionStarted:
		return ExecutionStartedDetails{RoleARN: d.RoleARN, Input: d.Input}, nil
	case ExecutionSucceeded:
		return ExecutionSucceededDetails{Output: d.Output}, nil
	default:
		return nil, nil
	}
}

// ParseMessages decodes every message, failing on the first bad one.
func ParseMessages(messages []string) ([]*Event, error) {
	events := make([]*Event, 0, len(messages))
	for _, m := range messages {
		ev, err := Parse(m)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, nil
}
