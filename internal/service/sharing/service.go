package sharing

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mamadbah2/canebill/internal/domain/models"
	"github.com/mamadbah2/canebill/internal/repository"
	"github.com/mamadbah2/canebill/internal/service/access"
	"github.com/mamadbah2/canebill/internal/service/activity"
)

// Forever is the duration value for links that never expire.
const Forever = "forever"

// BillLister is the read-only bill listing exposed through a link.
type BillLister interface {
	ListAll(ctx context.Context, filter models.BillFilter) ([]models.Bill, error)
}

// Service issues and validates share links.
type Service struct {
	repo   repository.ShareLinkRepository
	bills  BillLister
	audit  activity.Recorder
	logger *zap.Logger
	now    func() time.Time
	token  func() string
}

// NewService wires the share link service.
func NewService(repo repository.ShareLinkRepository, bills BillLister, audit activity.Recorder, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if audit == nil {
		audit = activity.Nop{}
	}
	return &Service{
		repo:   repo,
		bills:  bills,
		audit:  audit,
		logger: logger,
		now:    time.Now,
		token:  newToken,
	}
}

func newToken() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// ParseDuration reads a link lifetime: a positive number of hours or "forever".
// A nil result means the link never expires.
func ParseDuration(raw string) (*time.Duration, error) {
	raw = strings.TrimSpace(raw)
	if strings.EqualFold(raw, Forever) {
		return nil, nil
	}
	hours, err := strconv.ParseFloat(raw, 64)
	if err != nil || hours <= 0 {
		return nil, models.Validationf("duration must be a positive number of hours or %q", Forever)
	}
	d := time.Duration(hours * float64(time.Hour))
	return &d, nil
}

// Create issues a new link valid for duration.
func (s *Service) Create(ctx context.Context, actor models.Actor, duration string) (models.ShareLink, error) {
	if err := access.Authorize(actor, access.ShareCreate); err != nil {
		return models.ShareLink{}, err
	}
	ttl, err := ParseDuration(duration)
	if err != nil {
		return models.ShareLink{}, err
	}

	now := s.now().UTC()
	link := models.ShareLink{Token: s.token(), CreatedAt: now}
	if ttl != nil {
		expiresAt := now.Add(*ttl)
		link.ExpiresAt = &expiresAt
	}
	if err := s.repo.Create(ctx, &link); err != nil {
		return models.ShareLink{}, fmt.Errorf("create share link: %w", err)
	}

	details := "Created share link valid forever"
	if link.ExpiresAt != nil {
		details = fmt.Sprintf("Created share link valid until %s", link.ExpiresAt.Format(time.RFC3339))
	}
	s.audit.Record(ctx, actor, models.ActionCreateShareLink, details)
	return link, nil
}

// Validate returns the link for token if it exists and has not expired.
func (s *Service) Validate(ctx context.Context, token string) (models.ShareLink, error) {
	link, err := s.repo.FindByToken(ctx, token)
	if errors.Is(err, repository.ErrNotFound) {
		return models.ShareLink{}, fmt.Errorf("%w: share link", models.ErrNotFound)
	}
	if err != nil {
		return models.ShareLink{}, fmt.Errorf("find share link: %w", err)
	}
	if link.Expired(s.now()) {
		return models.ShareLink{}, models.ErrShareLinkExpired
	}
	return link, nil
}

// SharedBills validates token and returns the bill listing.
func (s *Service) SharedBills(ctx context.Context, token string, filter models.BillFilter) ([]models.Bill, error) {
	if _, err := s.Validate(ctx, token); err != nil {
		return nil, err
	}
	return s.bills.ListAll(ctx, filter)
}

// PurgeExpired removes links past their expiry.
func (s *Service) PurgeExpired(ctx context.Context) (int64, error) {
	removed, err := s.repo.DeleteExpired(ctx, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("purge share links: %w", err)
	}
	if removed > 0 {
		s.logger.Info("purged expired share links", zap.Int64("removed", removed))
	}
	return removed, nil
}
