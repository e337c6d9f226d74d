// Package janitor runs the single periodic cleanup sweep per bot instance:
// expired participation records and topic-cache entries, stale queued
// messages, and stuck observation tasks.
package janitor

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	robfigcron "github.com/robfig/cron/v3"
)

// Sweepable is one eviction target. Sweeps must be cheap and must never
// block message processing.
type Sweepable interface {
	Sweep(now time.Time)
}

// Janitor schedules the sweep with a cron runner. The sweep is not
// reentrant: a tick that arrives while the previous sweep is still running
// is skipped.
type Janitor struct {
	period  time.Duration
	targets []Sweepable
	c       *robfigcron.Cron
}

// New creates a Janitor sweeping targets every period.
func New(period time.Duration, targets ...Sweepable) *Janitor {
	if period <= 0 {
		period = time.Minute
	}
	return &Janitor{
		period:  period,
		targets: targets,
		c: robfigcron.New(robfigcron.WithChain(
			robfigcron.SkipIfStillRunning(robfigcron.DiscardLogger),
		)),
	}
}

// Start runs the sweep schedule until ctx is cancelled.
func (j *Janitor) Start(ctx context.Context) error {
	spec := fmt.Sprintf("@every %s", j.period)
	if _, err := j.c.AddFunc(spec, j.sweep); err != nil {
		return fmt.Errorf("schedule janitor: %w", err)
	}

	j.c.Start()
	slog.Info("janitor: started", "period", j.period, "targets", len(j.targets))

	<-ctx.Done()
	<-j.c.Stop().Done()
	slog.Info("janitor: stopped")
	return ctx.Err()
}

func (j *Janitor) sweep() {
	now := time.Now()
	for _, t := range j.targets {
		t.Sweep(now)
	}
}
