package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/dpr/internal/service/distribution"
)

// DailyRunner is the scheduled distribution entry point.
type DailyRunner interface {
	RunDaily(ctx context.Context, opts distribution.Options) (distribution.Result, error)
}

// Scheduler manages scheduled tasks.
type Scheduler struct {
	cron     *cron.Cron
	runner   DailyRunner
	schedule string
	timeout  time.Duration
	logger   *zap.Logger
}

// NewScheduler creates a scheduler that triggers runner on schedule, a
// standard 5-field cron expression evaluated in loc. The runner gates itself,
// so the schedule may fire more often than once a day.
func NewScheduler(runner DailyRunner, schedule string, loc *time.Location, logger *zap.Logger) *Scheduler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if loc == nil {
		loc = time.UTC
	}

	c := cron.New(
		cron.WithLocation(loc),
		cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)),
	)

	return &Scheduler{
		cron:     c,
		runner:   runner,
		schedule: schedule,
		timeout:  10 * time.Minute,
		logger:   logger,
	}
}

// Start registers the jobs and starts the scheduler.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler", zap.String("schedule", s.schedule))

	if _, err := s.cron.AddFunc(s.schedule, s.runDaily); err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

func (s *Scheduler) runDaily() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	res, err := s.runner.RunDaily(ctx, distribution.Options{})
	if err != nil {
		s.logger.Error("daily distribution failed", zap.String("run_id", res.RunID), zap.Error(err))
		return
	}

	fields := []zap.Field{
		zap.String("run_id", res.RunID),
		zap.String("status", string(res.Status)),
		zap.Int("sent", res.Sent),
		zap.Int("failed", res.Failed),
	}
	switch res.Status {
	case distribution.StatusSkipped:
		s.logger.Debug("daily distribution skipped", append(fields, zap.String("reason", res.Reason))...)
	case distribution.StatusPartial:
		s.logger.Warn("daily distribution partially failed", fields...)
	case distribution.StatusFailed:
		s.logger.Error("daily distribution failed for every recipient", fields...)
	default:
		s.logger.Info(res.Message(), fields...)
	}
}
