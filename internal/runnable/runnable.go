// Package runnable loads the benchmark definitions produced at deploy time.
//
// A runnable lives in <project>/runnable/<name>.yaml and is read-only for
// the lifetime of a run.
package runnable

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound = errors.New("runnable not found")
	ErrInvalid  = errors.New("invalid runnable")
)

// NotFoundError names the runnable and the directory that was searched.
type NotFoundError struct {
	Name string
	Dir  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("unable to find runnable %q (looked in %s); deploy tasks first", e.Name, e.Dir)
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}

// Resource is a named cloud resource addressed by ARN.
type Resource struct {
	Name string `yaml:"name"`
	ARN  string `yaml:"arn"`
}

// LogGroup references the CloudWatch log group the workflow writes to.
type LogGroup struct {
	Name string `yaml:"logGroupName"`
	ARN  string `yaml:"arn,omitempty"`
}

// Runnable is one benchmarkable workflow invocation.
type Runnable struct {
	Name        string     `yaml:"name"`
	Region      string     `yaml:"region"`
	Workflow    Resource   `yaml:"workflow"`
	Resources   []Resource `yaml:"resources,omitempty"`
	Payload     string     `yaml:"payload,omitempty"`
	Output      string     `yaml:"output"`
	Logger      LogGroup   `yaml:"logger"`
	Repetitions int        `yaml:"repetitions"`
}

// Validate reports every missing or malformed field.
func (r *Runnable) Validate() error {
	var problems []string

	if r.Name == "" {
		problems = append(problems, "name is required")
	}
	if r.Region == "" {
		problems = append(problems, "region is required")
	}
	if r.Workflow.ARN == "" {
		problems = append(problems, "workflow.arn is required")
	}
	if r.Output == "" {
		problems = append(problems, "output is required")
	}
	if r.Logger.Name == "" {
		problems = append(problems, "logger.logGroupName is required")
	}
	if r.Repetitions < 1 {
		problems = append(problems, "repetitions must be at least 1")
	}

	if len(problems) > 0 {
		return fmt.Errorf("%w %q: %s", ErrInvalid, r.Name, strings.Join(problems, "; "))
	}
	return nil
}

// PayloadOrDefault returns the execution input, defaulting to an empty object.
func (r *Runnable) PayloadOrDefault() string {
	if strings.TrimSpace(r.Payload) == "" {
		return "{}"
	}
	return r.Payload
}
