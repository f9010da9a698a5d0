package pricing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/mamadbah2/canebill/internal/domain/models"
	"github.com/mamadbah2/canebill/internal/repository"
	"github.com/mamadbah2/canebill/internal/service/access"
	"github.com/mamadbah2/canebill/internal/service/activity"
)

const dateLayout = "2006-01-02"

// UpsertInput is a full price row for one effective date.
type UpsertInput struct {
	EffectiveDate time.Time
	FreshPrice    float64
	BurntPrice    float64
	LongTopPrice  float64
}

// PartialInput carries the prices an operator changed; nil fields keep the latest value.
type PartialInput struct {
	FreshPrice   *float64
	BurntPrice   *float64
	LongTopPrice *float64
}

// Empty reports whether no price was supplied.
func (p PartialInput) Empty() bool {
	return p.FreshPrice == nil && p.BurntPrice == nil && p.LongTopPrice == nil
}

// Validate rejects negative prices.
func (p PartialInput) Validate() error {
	for _, v := range []*float64{p.FreshPrice, p.BurntPrice, p.LongTopPrice} {
		if v != nil && *v < 0 {
			return models.Validationf("prices must not be negative")
		}
	}
	return nil
}

// Service manages the price table and exposes price resolution.
type Service struct {
	prices   repository.PriceRepository
	settings repository.SettingRepository
	resolver *Resolver
	audit    activity.Recorder
	logger   *zap.Logger
	now      func() time.Time
}

// NewService wires the price table service.
func NewService(prices repository.PriceRepository, settings repository.SettingRepository, resolver *Resolver, audit activity.Recorder, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if audit == nil {
		audit = activity.Nop{}
	}
	if resolver == nil {
		resolver = NewStandardResolver(prices, settings)
	}
	return &Service{
		prices:   prices,
		settings: settings,
		resolver: resolver,
		audit:    audit,
		logger:   logger,
		now:      time.Now,
	}
}

// Resolver exposes the resolution chain to other services.
func (s *Service) Resolver() *Resolver {
	return s.resolver
}

// List returns the price table, newest effective date first.
func (s *Service) List(ctx context.Context, actor models.Actor) ([]models.PriceEntry, error) {
	if err := access.Authorize(actor, access.PriceRead); err != nil {
		return nil, err
	}
	entries, err := s.prices.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list prices: %w", err)
	}
	return entries, nil
}

// Upsert writes a price row, overwriting any row with the same effective date.
func (s *Service) Upsert(ctx context.Context, actor models.Actor, in UpsertInput) (models.PriceEntry, bool, error) {
	if err := access.Authorize(actor, access.PriceUpdate); err != nil {
		return models.PriceEntry{}, false, err
	}
	if in.EffectiveDate.IsZero() {
		return models.PriceEntry{}, false, models.Validationf("effectiveDate is required")
	}
	if in.FreshPrice < 0 || in.BurntPrice < 0 || in.LongTopPrice < 0 {
		return models.PriceEntry{}, false, models.Validationf("prices must not be negative")
	}

	entry := models.PriceEntry{
		EffectiveDate: in.EffectiveDate.UTC(),
		FreshPrice:    in.FreshPrice,
		BurntPrice:    in.BurntPrice,
		LongTopPrice:  in.LongTopPrice,
	}
	inserted, err := s.prices.Upsert(ctx, &entry)
	if err != nil {
		return models.PriceEntry{}, false, fmt.Errorf("upsert price: %w", err)
	}

	day := entry.EffectiveDate.Format(dateLayout)
	if inserted {
		s.audit.Record(ctx, actor, models.ActionAddPriceConfig, fmt.Sprintf("Added new price config for %s", day))
	} else {
		s.audit.Record(ctx, actor, models.ActionUpdatePrice, fmt.Sprintf("Updated price config for %s", day))
	}
	return entry, inserted, nil
}

// ApplyPartial records a new row effective now, filling unspecified prices
// from the most recent row (0 when the table is empty).
func (s *Service) ApplyPartial(ctx context.Context, in PartialInput) (models.PriceEntry, error) {
	if in.Empty() {
		return models.PriceEntry{}, models.Validationf("no prices supplied")
	}
	if err := in.Validate(); err != nil {
		return models.PriceEntry{}, err
	}

	// Missing fields come from the row with the greatest effective date,
	// even when that row is dated in the future.
	var current models.PriceEntry
	entries, err := s.prices.List(ctx)
	if err != nil {
		return models.PriceEntry{}, fmt.Errorf("load latest price: %w", err)
	}
	if len(entries) > 0 {
		current = entries[0]
	}

	entry := models.PriceEntry{
		EffectiveDate: s.now().UTC(),
		FreshPrice:    pick(in.FreshPrice, current.FreshPrice),
		BurntPrice:    pick(in.BurntPrice, current.BurntPrice),
		LongTopPrice:  pick(in.LongTopPrice, current.LongTopPrice),
	}
	if _, err := s.prices.Upsert(ctx, &entry); err != nil {
		return models.PriceEntry{}, fmt.Errorf("insert price effective now: %w", err)
	}
	return entry, nil
}

// Delete removes a price row. Bills keep the price frozen at their creation.
func (s *Service) Delete(ctx context.Context, actor models.Actor, id primitive.ObjectID) error {
	if err := access.Authorize(actor, access.PriceDelete); err != nil {
		return err
	}
	if _, err := s.prices.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("%w: price config %s", models.ErrNotFound, id.Hex())
		}
		return fmt.Errorf("delete price: %w", err)
	}
	s.audit.Record(ctx, actor, models.ActionDeletePrice, fmt.Sprintf("Deleted price config with ID %s", id.Hex()))
	return nil
}

// Check returns the applicable row for at, or for now when at is zero.
func (s *Service) Check(ctx context.Context, actor models.Actor, at time.Time) (Resolution, error) {
	if err := access.Authorize(actor, access.PriceCheck); err != nil {
		return Resolution{}, err
	}
	if at.IsZero() {
		at = s.now().UTC()
	}
	return s.resolver.ResolveEntry(ctx, at)
}

// MigrateLegacy seeds the table from the legacy settings row when the table is empty.
func (s *Service) MigrateLegacy(ctx context.Context) (bool, error) {
	count, err := s.prices.Count(ctx)
	if err != nil {
		return false, fmt.Errorf("count prices: %w", err)
	}
	if count > 0 {
		return false, nil
	}

	setting, err := s.settings.Get(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("load legacy settings: %w", err)
	}

	now := s.now().UTC()
	entry := models.PriceEntry{
		EffectiveDate: models.LegacyPriceEffectiveDate,
		FreshPrice:    setting.FreshPrice,
		BurntPrice:    setting.BurntPrice,
		LongTopPrice:  setting.LongTopPrice,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.prices.Insert(ctx, &entry); err != nil {
		if errors.Is(err, repository.ErrDuplicateKey) {
			return false, nil
		}
		return false, fmt.Errorf("insert migrated price: %w", err)
	}

	s.logger.Info("migrated legacy settings to price table",
		zap.Float64("fresh", entry.FreshPrice),
		zap.Float64("burnt", entry.BurntPrice),
		zap.Float64("long_top", entry.LongTopPrice))
	return true, nil
}

func pick(v *float64, fallback float64) float64 {
	if v != nil {
		return *v
	}
	return fallback
}
