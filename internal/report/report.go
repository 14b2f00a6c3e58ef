// Package report aggregates latency samples and persists execution reports.
package report

import (
	"fmt"
	"math"

	"github.com/watzon/stepbench/internal/trace"
)

// Summary describes one latency series.
type Summary struct {
	Min        int64   `json:"min"`
	Max        int64   `json:"max"`
	Average    int64   `json:"average"`
	Times      []int64 `json:"times"`
	Executions int     `json:"executions"`
}

// FunctionStats holds both series for one function.
type FunctionStats struct {
	StartUpTime   Summary `json:"startUpTime"`
	ExecutionTime Summary `json:"executionTime"`
}

// WorkflowStats is the end-to-end latency of the execution.
type WorkflowStats struct {
	ExecutionTime int64  `json:"executionTime"`
	Region        string `json:"region"`
}

// ExecutionReport is the persisted result of one repetition.
type ExecutionReport struct {
	Workflow  WorkflowStats            `json:"workflow"`
	Functions map[string]FunctionStats `json:"functions"`
}

// Reports maps "run<i>" to the report of repetition i.
type Reports map[string]*ExecutionReport

// Key returns the map key for repetition i.
func Key(i int) string {
	return fmt.Sprintf("run%d", i)
}

// Summarize reduces series. The average is rounded up. ok is false for an
// empty series, which has no meaningful statistics.
func Summarize(series []int64) (s Summary, ok bool) {
	if len(series) == 0 {
		return Summary{}, false
	}

	s = Summary{
		Min:        series[0],
		Max:        series[0],
		Times:      append([]int64(nil), series...),
		Executions: len(series),
	}

	var sum int64
	for _, v := range series {
		s.Min = min(s.Min, v)
		s.Max = max(s.Max, v)
		sum += v
	}
	s.Average = int64(math.Ceil(float64(sum) / float64(len(series))))

	return s, true
}

// Aggregate groups samples by function name and summarizes each group.
// Within a group the series keep sample order. Functions without samples
// never appear.
func Aggregate(samples []trace.Sample) map[string]FunctionStats {
	startUp := make(map[string][]int64)
	execution := make(map[string][]int64)

	for _, s := range samples {
		startUp[s.FunctionName] = append(startUp[s.FunctionName], s.StartUpTime)
		execution[s.FunctionName] = append(execution[s.FunctionName], s.ExecutionTime)
	}

	out := make(map[string]FunctionStats, len(startUp))
	for name := range startUp {
		su, ok := Summarize(startUp[name])
		if !ok {
			continue
		}
		ex, _ := Summarize(execution[name])
		out[name] = FunctionStats{StartUpTime: su, ExecutionTime: ex}
	}

	return out
}

// Build turns a correlated trace into an ExecutionReport.
func Build(c *trace.Correlation) *ExecutionReport {
	return &ExecutionReport{
		Workflow: WorkflowStats{
			ExecutionTime: c.Workflow.ExecutionTime,
			Region:        c.Workflow.Region,
		},
		Functions: Aggregate(c.Samples),
	}
}
