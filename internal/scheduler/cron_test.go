package scheduler

import (
	"errors"
	"testing"
	"time"
)

func TestCronParser_Parse(t *testing.T) {
	parser := NewCronParser()

	tests := []struct {
		name       string
		expression string
		wantErr    bool
	}{
		{name: "every minute", expression: "* * * * *"},
		{name: "hourly", expression: "0 * * * *"},
		{name: "weekdays in office hours", expression: "0 9-17 * * 1-5"},
		{name: "steps", expression: "*/5 * * * *"},
		{name: "descriptor", expression: "@daily"},
		{name: "too few fields", expression: "* * *", wantErr: true},
		{name: "minute out of range", expression: "60 * * * *", wantErr: true},
		{name: "seconds field not accepted", expression: "0 0 * * * *", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parser.Parse(tt.expression)
			if (err != nil) != tt.wantErr {
				t.Errorf("Parse() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCronParser_NextRun(t *testing.T) {
	parser := NewCronParser()
	after := time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name       string
		expression string
		timezone   string
		want       time.Time
		wantErr    bool
	}{
		{
			name:       "every minute, empty zone means UTC",
			expression: "* * * * *",
			want:       time.Date(2026, 1, 15, 10, 31, 0, 0, time.UTC),
		},
		{
			name:       "top of the hour",
			expression: "0 * * * *",
			timezone:   "UTC",
			want:       time.Date(2026, 1, 15, 11, 0, 0, 0, time.UTC),
		},
		{
			name:       "midnight in New York",
			expression: "0 0 * * *",
			timezone:   "America/New_York",
			// 00:00 EST on the 16th
			want: time.Date(2026, 1, 16, 5, 0, 0, 0, time.UTC),
		},
		{
			name:       "unknown zone",
			expression: "* * * * *",
			timezone:   "Mars/Olympus",
			wantErr:    true,
		},
		{
			name:       "bad expression",
			expression: "nope",
			wantErr:    true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parser.NextRun(tt.expression, tt.timezone, after)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NextRun() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !got.Equal(tt.want) {
				t.Errorf("NextRun() = %v, want %v", got.UTC(), tt.want)
			}
		})
	}
}

func TestParseInterval(t *testing.T) {
	tests := []struct {
		interval string
		want     time.Duration
		wantErr  error
	}{
		{interval: "30s", want: 30 * time.Second},
		{interval: "1h30m", want: 90 * time.Minute},
		{interval: "500ms", wantErr: ErrIntervalTooShort},
	}

	for _, tt := range tests {
		t.Run(tt.interval, func(t *testing.T) {
			got, err := ParseInterval(tt.interval)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("ParseInterval() error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseInterval() = %v, want %v", got, tt.want)
			}
		})
	}

	if _, err := ParseInterval("soon"); err == nil {
		t.Error("expected error for unparseable interval")
	}
}

func TestCalculateNextRun(t *testing.T) {
	after := time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC)

	next, err := CalculateNextRun(&Schedule{Type: ScheduleTypeInterval, Expression: "15m"}, after)
	if err != nil {
		t.Fatalf("CalculateNextRun() error = %v", err)
	}
	if want := after.Add(15 * time.Minute); !next.Equal(want) {
		t.Errorf("CalculateNextRun() = %v, want %v", next, want)
	}

	next, err = CalculateNextRun(&Schedule{Type: ScheduleTypeCron, Expression: "@hourly"}, after)
	if err != nil {
		t.Fatalf("CalculateNextRun() error = %v", err)
	}
	if want := time.Date(2026, 1, 15, 11, 0, 0, 0, time.UTC); !next.Equal(want) {
		t.Errorf("CalculateNextRun() = %v, want %v", next, want)
	}

	if _, err := CalculateNextRun(&Schedule{Type: "one_time"}, after); err == nil {
		t.Error("expected error for unknown schedule type")
	}
}
