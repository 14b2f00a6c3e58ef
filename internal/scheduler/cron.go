package scheduler

import (
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

var ErrIntervalTooShort = errors.New("interval must be at least 1 second")

// CronParser wraps robfig/cron for standard five-field expressions and
// descriptors such as @hourly.
type CronParser struct {
	parser cron.Parser
}

func NewCronParser() *CronParser {
	return &CronParser{
		parser: cron.NewParser(
			cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
		),
	}
}

func (p *CronParser) Parse(expression string) (cron.Schedule, error) {
	schedule, err := p.parser.Parse(expression)
	if err != nil {
		return nil, fmt.Errorf("parsing cron expression: %w", err)
	}
	return schedule, nil
}

// NextRun returns the first activation of expression after the given time,
// evaluated in timezone.
func (p *CronParser) NextRun(expression, timezone string, after time.Time) (time.Time, error) {
	schedule, err := p.Parse(expression)
	if err != nil {
		return time.Time{}, err
	}

	loc, err := loadLocation(timezone)
	if err != nil {
		return time.Time{}, err
	}

	return schedule.Next(after.In(loc)), nil
}

// ParseInterval parses a duration such as "30m". Sub-second intervals are
// rejected.
func ParseInterval(interval string) (time.Duration, error) {
	d, err := time.ParseDuration(interval)
	if err != nil {
		return 0, fmt.Errorf("parsing interval: %w", err)
	}
	if d < time.Second {
		return 0, ErrIntervalTooShort
	}
	return d, nil
}

// CalculateNextRun returns when schedule fires next after the given time.
func CalculateNextRun(schedule *Schedule, after time.Time) (time.Time, error) {
	switch schedule.Type {
	case ScheduleTypeCron:
		return NewCronParser().NextRun(schedule.Expression, schedule.Timezone, after)

	case ScheduleTypeInterval:
		d, err := ParseInterval(schedule.Expression)
		if err != nil {
			return time.Time{}, err
		}
		return after.Add(d), nil

	default:
		return time.Time{}, fmt.Errorf("unknown schedule type: %s", schedule.Type)
	}
}

func loadLocation(timezone string) (*time.Location, error) {
	if timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone: %w", err)
	}
	return loc, nil
}
