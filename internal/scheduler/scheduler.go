// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs the periodic maintenance jobs: thread stats
// reconciliation and event log pruning.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Job names.
const (
	JobReconcileStats = "reconcile-thread-stats"
	JobPruneEvents    = "prune-events"
)

// ErrJobNotFound is returned by TriggerNow for a name with no registered job.
var ErrJobNotFound = errors.New("job not found")

// DefaultJobTimeout bounds a single job run.
const DefaultJobTimeout = 5 * time.Minute

// StatsReconciler recomputes every thread summary and reports how many had drifted.
type StatsReconciler interface {
	RebuildAllThreadStats(ctx context.Context) (int, error)
}

// EventPruner removes event log entries older than a retention window.
type EventPruner interface {
	DeleteOldEvents(ctx context.Context, olderThan time.Duration) (int64, error)
}

// Config selects job schedules. An empty schedule disables the job.
type Config struct {
	ReconcileSchedule string
	PruneSchedule     string
	EventRetention    time.Duration
	JobTimeout        time.Duration
}

type job struct {
	name        string
	description string
	schedule    string
	entryID     cron.EntryID
	run         func(ctx context.Context) error
}

// JobInfo is the public view of a registered job.
type JobInfo struct {
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Schedule    string    `json:"schedule"`
	LastRun     time.Time `json:"last_run"`
	NextRun     time.Time `json:"next_run"`
}

// Scheduler handles the maintenance jobs.
type Scheduler struct {
	cron    *cron.Cron
	logger  *slog.Logger
	timeout time.Duration

	mu   sync.RWMutex
	jobs map[string]*job
}

// New creates a scheduler with the jobs enabled by cfg registered. Either
// collaborator may be nil, which leaves its job out.
func New(cfg Config, stats StatsReconciler, events EventPruner, logger *slog.Logger) (*Scheduler, error) {
	timeout := cfg.JobTimeout
	if timeout <= 0 {
		timeout = DefaultJobTimeout
	}
	s := &Scheduler{
		cron:    cron.New(cron.WithChain(cron.Recover(cron.DiscardLogger), cron.SkipIfStillRunning(cron.DiscardLogger))),
		logger:  logger,
		timeout: timeout,
		jobs:    make(map[string]*job),
	}

	if stats != nil && cfg.ReconcileSchedule != "" {
		err := s.add(JobReconcileStats, "Recompute thread summaries from published comments", cfg.ReconcileSchedule,
			func(ctx context.Context) error {
				corrected, err := stats.RebuildAllThreadStats(ctx)
				if err != nil {
					return err
				}
				s.logger.Info("thread stats reconciled", "corrected", corrected)
				return nil
			})
		if err != nil {
			return nil, err
		}
	}

	if events != nil && cfg.PruneSchedule != "" && cfg.EventRetention > 0 {
		retention := cfg.EventRetention
		err := s.add(JobPruneEvents, "Delete event log entries past retention", cfg.PruneSchedule,
			func(ctx context.Context) error {
				n, err := events.DeleteOldEvents(ctx, retention)
				if err != nil {
					return err
				}
				if n > 0 {
					s.logger.Info("old events pruned", "deleted", n, "retention", retention.String())
				}
				return nil
			})
		if err != nil {
			return nil, err
		}
	}

	return s, nil
}

func (s *Scheduler) add(name, description, schedule string, run func(ctx context.Context) error) error {
	j := &job{name: name, description: description, schedule: schedule, run: run}
	id, err := s.cron.AddFunc(schedule, func() {
		if err := s.execute(context.Background(), j); err != nil {
			s.logger.Error("scheduled job failed", "job", name, "error", err)
		}
	})
	if err != nil {
		return fmt.Errorf("scheduling %s with %q: %w", name, schedule, err)
	}
	j.entryID = id

	s.mu.Lock()
	s.jobs[name] = j
	s.mu.Unlock()

	s.logger.Debug("registered scheduled job", "name", name, "schedule", schedule)
	return nil
}

func (s *Scheduler) execute(ctx context.Context, j *job) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	err := j.run(ctx)
	s.logger.Debug("scheduled job finished", "job", j.name, "duration", time.Since(start), "ok", err == nil)
	return err
}

// Start begins running the registered jobs.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
}

// Stop gracefully stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// List returns all registered jobs sorted by name.
func (s *Scheduler) List() []JobInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]JobInfo, 0, len(s.jobs))
	for _, j := range s.jobs {
		entry := s.cron.Entry(j.entryID)
		result = append(result, JobInfo{
			Name:        j.name,
			Description: j.description,
			Schedule:    j.schedule,
			LastRun:     entry.Prev,
			NextRun:     entry.Next,
		})
	}
	sort.Slice(result, func(i, k int) bool { return result[i].Name < result[k].Name })
	return result
}

// TriggerNow runs a job immediately in the caller's goroutine.
func (s *Scheduler) TriggerNow(ctx context.Context, name string) error {
	s.mu.RLock()
	j, ok := s.jobs[name]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrJobNotFound, name)
	}

	s.logger.Info("manually triggering job", "name", name)
	return s.execute(ctx, j)
}
