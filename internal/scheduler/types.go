package scheduler

import (
	"context"
	"time"
)

// ScheduleType selects how Expression is interpreted.
type ScheduleType string

const (
	ScheduleTypeCron     ScheduleType = "cron"
	ScheduleTypeInterval ScheduleType = "interval"
)

// Schedule runs one runnable repeatedly.
type Schedule struct {
	Runnable   string
	Type       ScheduleType
	Expression string // cron expression or interval duration
	Timezone   string // IANA zone for cron expressions, default "UTC"

	NextRun    time.Time
	LastRun    time.Time
	LastStatus string
}

// Job executes the runnable of a schedule.
type Job func(ctx context.Context, runnable string) error
