package settings

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/mamadbah2/canebill/internal/domain/models"
	"github.com/mamadbah2/canebill/internal/repository"
	"github.com/mamadbah2/canebill/internal/service/access"
	"github.com/mamadbah2/canebill/internal/service/activity"
	"github.com/mamadbah2/canebill/internal/service/pricing"
)

// UpdateInput patches settings. A nil Quotas leaves the quota list as stored;
// any price field records a new price entry effective now.
type UpdateInput struct {
	Quotas *[]string
	Prices pricing.PartialInput
}

// Result is what Update changed.
type Result struct {
	Setting models.Setting     `json:"settings"`
	Price   *models.PriceEntry `json:"price,omitempty"`
}

// Service manages the settings document.
type Service struct {
	repo    repository.SettingRepository
	pricing *pricing.Service
	audit   activity.Recorder
	logger  *zap.Logger
}

// NewService wires the settings service.
func NewService(repo repository.SettingRepository, pricingSvc *pricing.Service, audit activity.Recorder, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if audit == nil {
		audit = activity.Nop{}
	}
	return &Service{repo: repo, pricing: pricingSvc, audit: audit, logger: logger}
}

// Get returns the stored settings, or defaults when none were saved.
func (s *Service) Get(ctx context.Context, actor models.Actor) (models.Setting, error) {
	if err := access.Authorize(actor, access.SettingsRead); err != nil {
		return models.Setting{}, err
	}
	return s.load(ctx)
}

func (s *Service) load(ctx context.Context) (models.Setting, error) {
	setting, err := s.repo.Get(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		return models.DefaultSetting(), nil
	}
	if err != nil {
		return models.Setting{}, fmt.Errorf("load settings: %w", err)
	}
	if setting.Quotas == nil {
		setting.Quotas = []string{}
	}
	return setting, nil
}

// Update saves quotas and, when prices are given, a new price entry.
func (s *Service) Update(ctx context.Context, actor models.Actor, in UpdateInput) (Result, error) {
	if err := access.Authorize(actor, access.SettingsUpdate); err != nil {
		return Result{}, err
	}

	if err := in.Prices.Validate(); err != nil {
		return Result{}, err
	}

	setting, err := s.load(ctx)
	if err != nil {
		return Result{}, err
	}
	if in.Quotas != nil {
		setting.Quotas = cleanQuotas(*in.Quotas)
	}
	if err := s.repo.Save(ctx, &setting); err != nil {
		return Result{}, fmt.Errorf("save settings: %w", err)
	}

	result := Result{Setting: setting}
	if !in.Prices.Empty() {
		entry, err := s.pricing.ApplyPartial(ctx, in.Prices)
		if err != nil {
			return Result{}, err
		}
		result.Price = &entry
		s.logger.Info("price entry recorded from settings",
			zap.Time("effective_date", entry.EffectiveDate),
			zap.String("username", actor.Username))
	}

	s.audit.Record(ctx, actor, models.ActionUpdateSettings, "Updated system settings")
	return result, nil
}

func cleanQuotas(quotas []string) []string {
	out := make([]string, 0, len(quotas))
	for _, q := range quotas {
		if q = strings.TrimSpace(q); q != "" {
			out = append(out, q)
		}
	}
	return out
}
