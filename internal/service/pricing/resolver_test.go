package pricing

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/canebill/internal/domain/models"
	"github.com/mamadbah2/canebill/internal/repository/memory"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func seedEntry(t *testing.T, repo *memory.PriceRepository, at time.Time, fresh, burnt, longTop float64) {
	t.Helper()
	_, err := repo.Upsert(context.Background(), &models.PriceEntry{
		EffectiveDate: at,
		FreshPrice:    fresh,
		BurntPrice:    burnt,
		LongTopPrice:  longTop,
	})
	require.NoError(t, err)
}

func TestResolver_TableScenario(t *testing.T) {
	prices := memory.NewPriceRepository()
	settings := memory.NewSettingRepository()
	seedEntry(t, prices, day(2024, 1, 1), 1000, 900, 950)
	seedEntry(t, prices, day(2024, 6, 1), 1200, 1000, 1100)

	r := NewStandardResolver(prices, settings)
	ctx := context.Background()

	p, err := r.Resolve(ctx, models.SugarcaneFresh, day(2024, 3, 15))
	require.NoError(t, err)
	assert.Equal(t, 1000.0, p)

	p, err = r.Resolve(ctx, models.SugarcaneFresh, day(2024, 7, 1))
	require.NoError(t, err)
	assert.Equal(t, 1200.0, p)

	res, err := r.ResolveEntry(ctx, day(2023, 12, 1))
	require.NoError(t, err)
	assert.Equal(t, SourceDefault, res.Source)
	assert.Equal(t, models.DefaultFreshPrice, res.Entry.FreshPrice)
}

func TestResolver_EffectiveDateIsInclusive(t *testing.T) {
	prices := memory.NewPriceRepository()
	seedEntry(t, prices, day(2024, 6, 1), 1200, 1000, 1100)

	r := NewStandardResolver(prices, memory.NewSettingRepository())
	p, err := r.Resolve(context.Background(), models.SugarcaneBurnt, day(2024, 6, 1))
	require.NoError(t, err)
	assert.Equal(t, 1000.0, p)
}

func TestResolver_LegacyTierFillsZeroFields(t *testing.T) {
	settings := memory.NewSettingRepository()
	require.NoError(t, settings.Save(context.Background(), &models.Setting{FreshPrice: 1300, BurntPrice: 0, LongTopPrice: 1150}))

	r := NewStandardResolver(memory.NewPriceRepository(), settings)
	res, err := r.ResolveEntry(context.Background(), day(2024, 1, 1))
	require.NoError(t, err)
	assert.Equal(t, SourceLegacy, res.Source)
	assert.Equal(t, 1300.0, res.Entry.FreshPrice)
	assert.Equal(t, models.DefaultBurntPrice, res.Entry.BurntPrice)
	assert.Equal(t, 1150.0, res.Entry.LongTopPrice)
}

func TestResolver_EachCategory(t *testing.T) {
	prices := memory.NewPriceRepository()
	seedEntry(t, prices, day(2024, 1, 1), 1, 2, 3)
	r := NewStandardResolver(prices, memory.NewSettingRepository())

	for typ, want := range map[models.SugarcaneType]float64{
		models.SugarcaneFresh:   1,
		models.SugarcaneBurnt:   2,
		models.SugarcaneLongTop: 3,
	} {
		got, err := r.Resolve(context.Background(), typ, day(2024, 2, 1))
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := r.Resolve(context.Background(), models.SugarcaneType(4), day(2024, 2, 1))
	assert.ErrorIs(t, err, models.ErrValidation)
}

func TestResolver_EmptyChainFallsBackToDefaults(t *testing.T) {
	res, err := NewResolver().ResolveEntry(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, SourceDefault, res.Source)
	assert.Equal(t, models.DefaultPrices(), res.Entry)
}

type brokenTier struct{}

func (brokenTier) Source() Source { return SourceTable }

func (brokenTier) Lookup(context.Context, time.Time) (models.PriceEntry, bool, error) {
	return models.PriceEntry{}, false, errors.New("connection reset")
}

func TestResolver_StorageErrorsSurface(t *testing.T) {
	_, err := NewResolver(brokenTier{}, DefaultTier{}).ResolveEntry(context.Background(), time.Now())
	assert.Error(t, err)
}

// The resolved price always comes from the latest entry on or before the
// query date, compared against a brute-force scan of what was written.
func TestResolver_MatchesOracleForRandomWrites(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	base := day(2024, 1, 1)

	for round := 0; round < 50; round++ {
		prices := memory.NewPriceRepository()
		written := map[time.Time]float64{}

		for i := 0; i < 20; i++ {
			at := base.AddDate(0, 0, rng.Intn(120))
			fresh := float64(rng.Intn(2000) + 1)
			seedEntry(t, prices, at, fresh, 0, 0)
			written[at] = fresh
		}

		count, err := prices.Count(context.Background())
		require.NoError(t, err)
		assert.Equal(t, int64(len(written)), count, "one entry per effective date")

		r := NewStandardResolver(prices, memory.NewSettingRepository())
		for q := 0; q < 20; q++ {
			at := base.AddDate(0, 0, rng.Intn(140)-10)

			want := models.DefaultFreshPrice
			var bestDate time.Time
			found := false
			for d, p := range written {
				if !d.After(at) && (!found || d.After(bestDate)) {
					bestDate, want, found = d, p, true
				}
			}

			got, err := r.Resolve(context.Background(), models.SugarcaneFresh, at)
			require.NoError(t, err)
			assert.Equal(t, want, got, "query %s", at.Format(dateLayout))
		}
	}
}
