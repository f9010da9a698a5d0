package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/mamadbah2/canebill/internal/config"
)

const jobTimeout = 2 * time.Minute

// SharePurger removes expired share links.
type SharePurger interface {
	PurgeExpired(ctx context.Context) (int64, error)
}

// ActivityPruner removes audit entries past retention.
type ActivityPruner interface {
	PruneExpired(ctx context.Context) (int64, error)
}

// Scheduler manages scheduled maintenance tasks.
type Scheduler struct {
	cron   *cron.Cron
	cfg    config.SchedulerConfig
	shares SharePurger
	logs   ActivityPruner
	logger *zap.Logger
}

// NewScheduler creates a new scheduler instance. logs may be nil.
func NewScheduler(cfg config.SchedulerConfig, shares SharePurger, logs ActivityPruner, logger *zap.Logger) (*Scheduler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	loc, err := time.LoadLocation(cfg.Timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %s: %w", cfg.Timezone, err)
	}

	return &Scheduler{
		cron:   cron.New(cron.WithLocation(loc)),
		cfg:    cfg,
		shares: shares,
		logs:   logs,
		logger: logger,
	}, nil
}

// Start registers the configured jobs and starts the scheduler.
func (s *Scheduler) Start() error {
	s.logger.Info("starting scheduler")

	if s.cfg.SharePurgeCron != "" && s.shares != nil {
		if _, err := s.cron.AddFunc(s.cfg.SharePurgeCron, s.purgeShareLinks); err != nil {
			return fmt.Errorf("schedule share link purge: %w", err)
		}
	}
	if s.cfg.ActivityPruneCron != "" && s.logs != nil {
		if _, err := s.cron.AddFunc(s.cfg.ActivityPruneCron, s.pruneActivity); err != nil {
			return fmt.Errorf("schedule activity prune: %w", err)
		}
	}

	s.cron.Start()
	return nil
}

// Stop stops the scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	s.logger.Info("stopping scheduler")
	<-s.cron.Stop().Done()
}

// Jobs reports how many jobs are registered.
func (s *Scheduler) Jobs() int {
	return len(s.cron.Entries())
}

func (s *Scheduler) purgeShareLinks() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	removed, err := s.shares.PurgeExpired(ctx)
	if err != nil {
		s.logger.Error("failed to purge share links", zap.Error(err))
		return
	}
	s.logger.Debug("share link purge finished", zap.Int64("removed", removed))
}

func (s *Scheduler) pruneActivity() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	removed, err := s.logs.PruneExpired(ctx)
	if err != nil {
		s.logger.Error("failed to prune activity logs", zap.Error(err))
		return
	}
	s.logger.Info("activity prune finished", zap.Int64("removed", removed))
}
