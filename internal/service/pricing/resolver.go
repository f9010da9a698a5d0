package pricing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mamadbah2/canebill/internal/domain/models"
	"github.com/mamadbah2/canebill/internal/repository"
)

// Source names the tier that answered a resolution.
type Source string

const (
	SourceTable   Source = "table"
	SourceLegacy  Source = "legacy"
	SourceDefault Source = "default"
)

// Tier is one step of the fallback chain. ok=false means "no answer, ask the next tier".
type Tier interface {
	Source() Source
	Lookup(ctx context.Context, at time.Time) (entry models.PriceEntry, ok bool, err error)
}

// TableTier answers from the price table: the entry with the greatest
// effectiveDate on or before the query date.
type TableTier struct {
	Prices repository.PriceRepository
}

func (TableTier) Source() Source { return SourceTable }

func (t TableTier) Lookup(ctx context.Context, at time.Time) (models.PriceEntry, bool, error) {
	entry, err := t.Prices.LatestOnOrBefore(ctx, at)
	if errors.Is(err, repository.ErrNotFound) {
		return models.PriceEntry{}, false, nil
	}
	if err != nil {
		return models.PriceEntry{}, false, fmt.Errorf("lookup price table: %w", err)
	}
	return entry, true, nil
}

// LegacyTier answers from the single legacy settings row. Zero prices fall
// back to the hardcoded default for that category.
type LegacyTier struct {
	Settings repository.SettingRepository
}

func (LegacyTier) Source() Source { return SourceLegacy }

func (t LegacyTier) Lookup(ctx context.Context, _ time.Time) (models.PriceEntry, bool, error) {
	setting, err := t.Settings.Get(ctx)
	if errors.Is(err, repository.ErrNotFound) {
		return models.PriceEntry{}, false, nil
	}
	if err != nil {
		return models.PriceEntry{}, false, fmt.Errorf("lookup legacy settings: %w", err)
	}

	defaults := models.DefaultPrices()
	return models.PriceEntry{
		FreshPrice:   orDefault(setting.FreshPrice, defaults.FreshPrice),
		BurntPrice:   orDefault(setting.BurntPrice, defaults.BurntPrice),
		LongTopPrice: orDefault(setting.LongTopPrice, defaults.LongTopPrice),
	}, true, nil
}

// DefaultTier always answers with the hardcoded prices.
type DefaultTier struct{}

func (DefaultTier) Source() Source { return SourceDefault }

func (DefaultTier) Lookup(context.Context, time.Time) (models.PriceEntry, bool, error) {
	return models.DefaultPrices(), true, nil
}

// Resolution is the entry chosen for a date and the tier that supplied it.
type Resolution struct {
	Entry  models.PriceEntry `json:"entry"`
	Source Source            `json:"source"`
}

// Resolver walks its tiers in order and returns the first answer.
type Resolver struct {
	tiers []Tier
}

// NewResolver composes tiers in priority order.
func NewResolver(tiers ...Tier) *Resolver {
	return &Resolver{tiers: tiers}
}

// NewStandardResolver builds the table -> legacy -> default chain.
func NewStandardResolver(prices repository.PriceRepository, settings repository.SettingRepository) *Resolver {
	return NewResolver(TableTier{Prices: prices}, LegacyTier{Settings: settings}, DefaultTier{})
}

// ResolveEntry returns the applicable price record for at. When no tier
// answers the hardcoded defaults are used, so an empty store never errors.
func (r *Resolver) ResolveEntry(ctx context.Context, at time.Time) (Resolution, error) {
	for _, tier := range r.tiers {
		entry, ok, err := tier.Lookup(ctx, at)
		if err != nil {
			return Resolution{}, err
		}
		if ok {
			return Resolution{Entry: entry, Source: tier.Source()}, nil
		}
	}
	return Resolution{Entry: models.DefaultPrices(), Source: SourceDefault}, nil
}

// Resolve returns the per-unit price of category t on date at.
func (r *Resolver) Resolve(ctx context.Context, t models.SugarcaneType, at time.Time) (float64, error) {
	if !t.Valid() {
		return 0, models.Validationf("unknown sugarcane type %d", t)
	}
	res, err := r.ResolveEntry(ctx, at)
	if err != nil {
		return 0, err
	}
	return res.Entry.PriceFor(t), nil
}

func orDefault(v, fallback float64) float64 {
	if v == 0 {
		return fallback
	}
	return v
}
