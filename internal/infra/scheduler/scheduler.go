package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
)

// Scheduler decides when the next polling cycle starts and blocks until then.
// It does not run jobs on its own goroutines: the caller waits in line.
type Scheduler struct {
	schedule cron.Schedule
	spec     string
	now      func() time.Time
}

// New parses a standard cron spec, including descriptors such as "@every 600s".
func New(spec string) (*Scheduler, error) {
	schedule, err := cron.ParseStandard(spec)
	if err != nil {
		return nil, fmt.Errorf("invalid poll schedule %q: %w", spec, err)
	}
	return &Scheduler{
		schedule: schedule,
		spec:     spec,
		now:      time.Now,
	}, nil
}

// Spec returns the schedule the scheduler was built from.
func (s *Scheduler) Spec() string {
	return s.spec
}

// Next returns the activation time following t.
func (s *Scheduler) Next(t time.Time) time.Time {
	return s.schedule.Next(t)
}

// Wait blocks until the next activation or until ctx is done.
func (s *Scheduler) Wait(ctx context.Context) error {
	now := s.now()
	next := s.schedule.Next(now)
	if next.IsZero() { // schedule can never fire again
		return fmt.Errorf("poll schedule %q has no future activation", s.spec)
	}

	timer := time.NewTimer(next.Sub(now))
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
