package activity

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mamadbah2/canebill/internal/domain/models"
	"github.com/mamadbah2/canebill/internal/repository"
	"github.com/mamadbah2/canebill/internal/service/access"
)

// DefaultRetention is how long entries survive a prune.
const DefaultRetention = 3 * 24 * time.Hour

// Recorder writes audit entries without ever failing the caller.
type Recorder interface {
	Record(ctx context.Context, actor models.Actor, action, details string)
}

// Service implements Recorder plus the root-only listing and pruning.
type Service struct {
	repo      repository.ActivityRepository
	retention time.Duration
	logger    *zap.Logger
	now       func() time.Time
}

// NewService wires an activity service. A non-positive retention uses DefaultRetention.
func NewService(repo repository.ActivityRepository, retention time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if retention <= 0 {
		retention = DefaultRetention
	}
	return &Service{repo: repo, retention: retention, logger: logger, now: time.Now}
}

// Record appends an entry. Failures are logged and swallowed.
func (s *Service) Record(ctx context.Context, actor models.Actor, action, details string) {
	entry := &models.ActivityLog{
		UserID:    actor.ID,
		Username:  actor.Username,
		Role:      actor.Role,
		Action:    action,
		Details:   details,
		Timestamp: s.now().UTC(),
	}
	if err := s.repo.Insert(ctx, entry); err != nil {
		s.logger.Error("failed to record activity",
			zap.String("action", action),
			zap.String("username", actor.Username),
			zap.Error(err))
	}
}

// List returns the filtered audit trail, newest first.
func (s *Service) List(ctx context.Context, actor models.Actor, filter models.ActivityFilter) ([]models.ActivityLog, error) {
	if err := access.Authorize(actor, access.LogsRead); err != nil {
		return nil, err
	}
	logs, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list activity logs: %w", err)
	}
	return logs, nil
}

// Prune deletes entries older than the retention window on behalf of actor.
func (s *Service) Prune(ctx context.Context, actor models.Actor) (int64, error) {
	if err := access.Authorize(actor, access.LogsPrune); err != nil {
		return 0, err
	}
	removed, err := s.PruneExpired(ctx)
	if err != nil {
		return 0, err
	}
	s.Record(ctx, actor, models.ActionPruneActivityLog, fmt.Sprintf("Pruned %d activity logs", removed))
	return removed, nil
}

// PruneExpired is the unauthenticated variant used by the scheduler.
func (s *Service) PruneExpired(ctx context.Context) (int64, error) {
	cutoff := s.now().UTC().Add(-s.retention)
	removed, err := s.repo.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune activity logs: %w", err)
	}
	s.logger.Info("activity logs pruned", zap.Int64("removed", removed), zap.Time("cutoff", cutoff))
	return removed, nil
}

// Nop discards every entry.
type Nop struct{}

func (Nop) Record(context.Context, models.Actor, string, string) {}
