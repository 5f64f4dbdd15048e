// Package refresh reloads the task store on a cron schedule.
package refresh

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	appLog "taskcal/internal/log"
)

// Reloader is implemented by the task store.
type Reloader interface {
	Reload(ctx context.Context) error
}

// Scheduler runs Reload on every tick of a cron spec. Runs never overlap.
type Scheduler struct {
	cron    *cron.Cron
	target  Reloader
	timeout time.Duration
}

// New parses spec (standard 5-field cron, descriptors like "@every 1m" are
// accepted too) and prepares a scheduler for target.
func New(spec string, target Reloader) (*Scheduler, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	s := &Scheduler{cron: c, target: target, timeout: 30 * time.Second}
	if _, err := c.AddFunc(spec, s.RunOnce); err != nil {
		return nil, fmt.Errorf("refresh: invalid schedule %q: %w", spec, err)
	}
	return s, nil
}

// RunOnce reloads immediately, logging failures.
func (s *Scheduler) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	start := time.Now()
	if err := s.target.Reload(ctx); err != nil {
		appLog.Error("task reload failed", err)
		return
	}
	appLog.Debug("task reload finished", "elapsed", time.Since(start).String())
}

// Next returns the next scheduled run after the scheduler was started.
func (s *Scheduler) Next() time.Time {
	entries := s.cron.Entries()
	if len(entries) == 0 {
		return time.Time{}
	}
	return entries[0].Next
}

// Run starts the schedule and blocks until ctx is done, then waits for a
// running reload to finish.
func (s *Scheduler) Run(ctx context.Context) {
	s.cron.Start()
	appLog.Info("refresh scheduler started", "next", s.Next().Format(time.RFC3339))
	<-ctx.Done()
	<-s.cron.Stop().Done()
	appLog.Info("refresh scheduler stopped")
}
