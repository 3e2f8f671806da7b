package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

// ReclassifyTag identifies the periodic reclassification job
const ReclassifyTag = "reclassify-resources"

// Scheduler manages scheduled maintenance jobs
type Scheduler struct {
	scheduler *gocron.Scheduler
	cancel    context.CancelFunc
	ctx       context.Context
	logger    *slog.Logger
}

// NewScheduler creates a new scheduler running in UTC
func NewScheduler(logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	s := gocron.NewScheduler(time.UTC)
	s.TagsUnique()
	s.SingletonModeAll()

	return &Scheduler{
		scheduler: s,
		ctx:       ctx,
		cancel:    cancel,
		logger:    logger,
	}
}

// Start starts the scheduler
func (s *Scheduler) Start() {
	s.scheduler.StartAsync()
}

// Stop stops the scheduler and cancels running jobs
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
	if s.cancel != nil {
		s.cancel()
	}
}

// ScheduleJob schedules a job on a cron expression. The job receives a
// context cancelled by Stop.
func (s *Scheduler) ScheduleJob(tag, cronExpr string, job func(ctx context.Context) error) error {
	_, err := s.scheduler.Cron(cronExpr).Tag(tag).Do(func() {
		start := time.Now()
		if err := job(s.ctx); err != nil {
			s.logger.Error("scheduled job failed", "tag", tag, "error", err)
			return
		}
		s.logger.Info("scheduled job completed", "tag", tag, "duration_ms", time.Since(start).Milliseconds())
	})
	if err != nil {
		return fmt.Errorf("schedule %s (%q): %w", tag, cronExpr, err)
	}
	return nil
}

// ScheduleReclassify enqueues a reclassification on cronExpr.
// An empty expression disables the job.
func (s *Scheduler) ScheduleReclassify(cronExpr string, enqueue func(ctx context.Context) error) error {
	if cronExpr == "" {
		s.logger.Info("periodic reclassification disabled")
		return nil
	}
	if err := s.ScheduleJob(ReclassifyTag, cronExpr, enqueue); err != nil {
		return err
	}
	s.logger.Info("periodic reclassification scheduled", "cron", cronExpr)
	return nil
}

// RemoveJob removes a scheduled job by tag
func (s *Scheduler) RemoveJob(tag string) error {
	return s.scheduler.RemoveByTag(tag)
}

// Tags lists the tags of every scheduled job
func (s *Scheduler) Tags() []string {
	var out []string
	for _, j := range s.scheduler.Jobs() {
		out = append(out, j.Tags()...)
	}
	return out
}
