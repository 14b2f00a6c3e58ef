// Package scheduler re-runs benchmarks on a cron or interval schedule.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const DefaultPollInterval = time.Second

// Scheduler fires jobs for due schedules. It polls rather than sleeping
// until the next activation so clock jumps are picked up.
type Scheduler struct {
	job Job

	mu        sync.Mutex
	schedules []*Schedule
	running   map[string]int

	wg sync.WaitGroup
}

func New(job Job) *Scheduler {
	return &Scheduler{
		job:     job,
		running: make(map[string]int),
	}
}

// Add registers schedule and computes its first activation.
func (s *Scheduler) Add(schedule *Schedule, now time.Time) error {
	next, err := CalculateNextRun(schedule, now)
	if err != nil {
		return fmt.Errorf("schedule for %s: %w", schedule.Runnable, err)
	}
	schedule.NextRun = next

	s.mu.Lock()
	defer s.mu.Unlock()
	s.schedules = append(s.schedules, schedule)

	log.Info().
		Str("runnable", schedule.Runnable).
		Str("expression", schedule.Expression).
		Time("next_run", next).
		Msg("Schedule registered")

	return nil
}

// Schedules returns a snapshot of the registered schedules.
func (s *Scheduler) Schedules() []Schedule {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Schedule, len(s.schedules))
	for i, sc := range s.schedules {
		out[i] = *sc
	}
	return out
}

// Run polls until ctx is done, then waits for in-flight jobs.
func (s *Scheduler) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = DefaultPollInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Info().Dur("poll_interval", interval).Msg("Scheduler started")

	for {
		select {
		case <-ctx.Done():
			s.Wait()
			log.Info().Msg("Scheduler stopped")
			return
		case now := <-ticker.C:
			s.ProcessDue(ctx, now)
		}
	}
}

// ProcessDue starts a job for every schedule whose activation is at or
// before now. Jobs run in their own goroutines. A runnable never runs twice
// at once: a tick that lands while its previous run is active is dropped.
func (s *Scheduler) ProcessDue(ctx context.Context, now time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, schedule := range s.schedules {
		if schedule.NextRun.After(now) {
			continue
		}

		next, err := CalculateNextRun(schedule, now)
		if err != nil {
			log.Error().Err(err).Str("runnable", schedule.Runnable).Msg("Failed to calculate next run")
			continue
		}
		schedule.NextRun = next

		if s.running[schedule.Runnable] > 0 {
			log.Warn().
				Str("runnable", schedule.Runnable).
				Time("next_run", next).
				Msg("Previous run still active, skipping")
			continue
		}

		schedule.LastRun = now
		s.running[schedule.Runnable]++
		s.wg.Add(1)
		go s.execute(ctx, schedule)
	}
}

// Wait blocks until every started job has returned.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) execute(ctx context.Context, schedule *Schedule) {
	defer s.wg.Done()

	status := "succeeded"
	if err := s.job(ctx, schedule.Runnable); err != nil {
		status = "failed"
		log.Error().Err(err).Str("runnable", schedule.Runnable).Msg("Scheduled run failed")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	schedule.LastStatus = status
	s.running[schedule.Runnable]--
	if s.running[schedule.Runnable] <= 0 {
		delete(s.running, schedule.Runnable)
	}
}
