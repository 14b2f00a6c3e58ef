package cli

import (
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/watzon/stepbench/internal/logs"
	"github.com/watzon/stepbench/internal/runner"
	"github.com/watzon/stepbench/internal/workflow"
)

// logObserver reports run progress through the global logger.
type logObserver struct{}

func (logObserver) StateChanged(name string, repetition int, state runner.State) {
	switch state {
	case runner.StateTriggering:
		log.Info().Msgf("Task: %s:%d - Running", name, repetition)
	case runner.StateFailed:
		log.Error().Str("runnable", name).Msg("Run failed, no report written")
	default:
		log.Debug().
			Str("runnable", name).
			Int("repetition", repetition).
			Str("state", string(state)).
			Msg("State changed")
	}
}

func (logObserver) ExecutionPolled(name string, repetition int, exec *workflow.Execution) {
	log.Debug().
		Str("runnable", name).
		Int("repetition", repetition).
		Str("status", string(exec.Status)).
		Msg("Execution still running")
}

func (logObserver) ExecutionSucceeded(name string, repetition int, res *workflow.Result) {
	log.Info().Msgf("Task: %s:%d - Succeeded - finished in %s", name, repetition, formatDuration(res.Duration))
}

func (logObserver) StreamClaimed(name string, repetition int, stream *logs.Stream) {
	log.Debug().
		Str("runnable", name).
		Int("repetition", repetition).
		Str("stream", stream.Name).
		Msg("Log stream located")
}

// formatDuration renders d as "Xs Yms".
func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	ms := d.Milliseconds()
	return fmt.Sprintf("%ds %dms", ms/1000, ms%1000)
}
