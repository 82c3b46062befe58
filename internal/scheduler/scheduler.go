// internal/scheduler/scheduler.go
package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	JobAdExpiry       = "ad-expiry"
	JobBanExpiry      = "ban-expiry"
	JobBoostExpiry    = "boost-expiry"
	JobExpiryWarning  = "expiry-warning"
	JobAdLimitWarning = "ad-limit-warning"
)

// Cron expressions, evaluated in the scheduler's location.
const (
	adExpiryCron       = "0 0 * * *"
	banExpiryCron      = "0 * * * *"
	boostExpiryCron    = "30 * * * *"
	expiryWarningCron  = "0 9 * * *"
	adLimitWarningCron = "0 10 * * *"

	jobTimeout = 10 * time.Minute
)

type Config struct {
	Timezone string
	// LockTTL bounds how long a run holds the cross-instance lock.
	LockTTL time.Duration
}

// Scheduler owns the gocron instance and the marketplace sweep jobs.
type Scheduler struct {
	scheduler gocron.Scheduler
	jobs      *Jobs
	logger    *zap.Logger
}

func New(cfg Config, jobs *Jobs, rdb redis.Cmdable, logger *zap.Logger) (*Scheduler, error) {
	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("failed to load scheduler timezone %q: %w", cfg.Timezone, err)
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 5 * time.Minute
	}

	opts := []gocron.SchedulerOption{
		gocron.WithLocation(loc),
		gocron.WithLogger(zapLogger{logger.Sugar()}),
		gocron.WithGlobalJobOptions(gocron.WithSingletonMode(gocron.LimitModeReschedule)),
	}
	if rdb != nil {
		opts = append(opts, gocron.WithDistributedLocker(newRedisLocker(rdb, cfg.LockTTL)))
	}

	s, err := gocron.NewScheduler(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}

	return &Scheduler{scheduler: s, jobs: jobs, logger: logger}, nil
}

// Register adds every sweep job. It is called once before Start.
func (s *Scheduler) Register() error {
	entries := []struct {
		name string
		cron string
		run  func(context.Context) (int64, error)
	}{
		{JobAdExpiry, adExpiryCron, s.jobs.ExpireAds},
		{JobBanExpiry, banExpiryCron, s.jobs.LiftBans},
		{JobBoostExpiry, boostExpiryCron, s.jobs.ExpireBoosts},
		{JobExpiryWarning, expiryWarningCron, s.jobs.WarnExpiringAds},
		{JobAdLimitWarning, adLimitWarningCron, s.jobs.WarnAdLimits},
	}

	for _, e := range entries {
		if _, err := s.scheduler.NewJob(
			gocron.CronJob(e.cron, false),
			gocron.NewTask(s.wrap(e.name, e.run)),
			gocron.WithName(e.name),
			gocron.WithTags("sweep"),
		); err != nil {
			return fmt.Errorf("failed to register job %s: %w", e.name, err)
		}
		s.logger.Info("registered scheduled job", zap.String("job", e.name), zap.String("cron", e.cron))
	}
	return nil
}

func (s *Scheduler) wrap(name string, run func(context.Context) (int64, error)) func() {
	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		start := time.Now()
		n, err := run(ctx)
		if err != nil {
			s.logger.Error("scheduled job failed",
				zap.String("job", name),
				zap.Duration("duration", time.Since(start)),
				zap.Error(err))
			return
		}
		s.logger.Debug("scheduled job finished",
			zap.String("job", name),
			zap.Int64("affected", n),
			zap.Duration("duration", time.Since(start)))
	}
}

// JobNames lists registered jobs, for health output and tests.
func (s *Scheduler) JobNames() []string {
	jobs := s.scheduler.Jobs()
	names := make([]string, 0, len(jobs))
	for _, j := range jobs {
		names = append(names, j.Name())
	}
	return names
}

func (s *Scheduler) Start() {
	s.scheduler.Start()
	s.logger.Info("scheduler started", zap.Int("jobs", len(s.scheduler.Jobs())))
}

func (s *Scheduler) Shutdown() error {
	if err := s.scheduler.Shutdown(); err != nil {
		return fmt.Errorf("failed to shut down scheduler: %w", err)
	}
	s.logger.Info("scheduler stopped")
	return nil
}

// zapLogger adapts zap to gocron's logger interface.
type zapLogger struct {
	s *zap.SugaredLogger
}

func (l zapLogger) Debug(msg string, args ...any) { l.s.Debugw(msg, args...) }
func (l zapLogger) Error(msg string, args ...any) { l.s.Errorw(msg, args...) }
func (l zapLogger) Info(msg string, args ...any)  { l.s.Infow(msg, args...) }
func (l zapLogger) Warn(msg string, args ...any)  { l.s.Warnw(msg, args...) }
