package runner

import (
	"github.com/watzon/stepbench/internal/logs"
	"github.com/watzon/stepbench/internal/workflow"
)

// State is a step of the run state machine.
type State string

const (
	StateIdle               State = "idle"
	StateTriggering         State = "triggering"
	StateAwaitingCompletion State = "awaiting_completion"
	StateLocatingStream     State = "locating_stream"
	StateFetchingLogs       State = "fetching_logs"
	StateCorrelating        State = "correlating"
	StateAggregating        State = "aggregating"
	StatePersisted          State = "persisted"
	StateFailed             State = "failed"
)

// Observer receives progress from a run. Implementations must not block;
// the run waits for every call to return.
type Observer interface {
	StateChanged(runnable string, repetition int, state State)
	ExecutionPolled(runnable string, repetition int, exec *workflow.Execution)
	ExecutionSucceeded(runnable string, repetition int, res *workflow.Result)
	StreamClaimed(runnable string, repetition int, stream *logs.Stream)
}

// NopObserver discards all progress.
type NopObserver struct{}

func (NopObserver) StateChanged(string, int, State)                  {}
func (NopObserver) ExecutionPolled(string, int, *workflow.Execution) {}
func (NopObserver) ExecutionSucceeded(string, int, *workflow.Result) {}
func (NopObserver) StreamClaimed(string, int, *logs.Stream)          {}
