package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mamadbah2/canebill/internal/domain/models"
	"github.com/mamadbah2/canebill/internal/repository"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestBillRepository_UniqueNumber(t *testing.T) {
	ctx := context.Background()
	repo := NewBillRepository()

	first := models.Bill{BillNumber: "1001"}
	require.NoError(t, repo.Create(ctx, &first))
	assert.False(t, first.ID.IsZero())

	dup := models.Bill{BillNumber: "1001"}
	assert.ErrorIs(t, repo.Create(ctx, &dup), repository.ErrDuplicateKey)

	second := models.Bill{BillNumber: "1002"}
	require.NoError(t, repo.Create(ctx, &second))
	second.BillNumber = "1001"
	assert.ErrorIs(t, repo.Update(ctx, &second), repository.ErrDuplicateKey)

	_, err := repo.FindByNumber(ctx, "9999")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestBillRepository_ListOrderAndFilter(t *testing.T) {
	ctx := context.Background()
	repo := NewBillRepository()
	created := time.Now()
	for _, b := range []models.Bill{
		{BillNumber: "a", OwnerName: "Somchai", Date: day(2024, 1, 5), CreatedAt: created},
		{BillNumber: "b", OwnerName: "Somchai", Date: day(2024, 1, 5), CreatedAt: created.Add(time.Minute)},
		{BillNumber: "c", OwnerName: "Malee", Date: day(2024, 2, 1), CreatedAt: created},
	} {
		b := b
		require.NoError(t, repo.Create(ctx, &b))
	}

	all, err := repo.List(ctx, models.BillFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"c", "b", "a"}, []string{all[0].BillNumber, all[1].BillNumber, all[2].BillNumber})

	owned, err := repo.List(ctx, models.BillFilter{OwnerName: "Somchai", To: day(2024, 1, 31)})
	require.NoError(t, err)
	assert.Len(t, owned, 2)
}

func TestPriceRepository_LatestOnOrBefore(t *testing.T) {
	ctx := context.Background()
	repo := NewPriceRepository()
	for _, d := range []time.Time{day(2024, 1, 1), day(2024, 6, 1), day(2030, 1, 1)} {
		inserted, err := repo.Upsert(ctx, &models.PriceEntry{EffectiveDate: d, FreshPrice: float64(d.Year())})
		require.NoError(t, err)
		assert.True(t, inserted)
	}

	entry, err := repo.LatestOnOrBefore(ctx, day(2024, 6, 1))
	require.NoError(t, err)
	assert.Equal(t, day(2024, 6, 1), entry.EffectiveDate)

	entry, err = repo.LatestOnOrBefore(ctx, day(2025, 3, 1))
	require.NoError(t, err)
	assert.Equal(t, day(2024, 6, 1), entry.EffectiveDate, "future entries are never selected")

	_, err = repo.LatestOnOrBefore(ctx, day(2023, 12, 31))
	assert.ErrorIs(t, err, repository.ErrNotFound)

	inserted, err := repo.Upsert(ctx, &models.PriceEntry{EffectiveDate: day(2024, 1, 1), FreshPrice: 1})
	require.NoError(t, err)
	assert.False(t, inserted)
	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 3, count)

	assert.ErrorIs(t, repo.Insert(ctx, &models.PriceEntry{EffectiveDate: day(2024, 1, 1)}), repository.ErrDuplicateKey)
}

func TestShareLinkRepository_DeleteExpired(t *testing.T) {
	ctx := context.Background()
	repo := NewShareLinkRepository()
	now := time.Now().UTC()
	past, future := now.Add(-time.Hour), now.Add(time.Hour)

	require.NoError(t, repo.Create(ctx, &models.ShareLink{Token: "old", ExpiresAt: &past}))
	require.NoError(t, repo.Create(ctx, &models.ShareLink{Token: "new", ExpiresAt: &future}))
	require.NoError(t, repo.Create(ctx, &models.ShareLink{Token: "forever"}))

	removed, err := repo.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, removed)

	_, err = repo.FindByToken(ctx, "old")
	assert.ErrorIs(t, err, repository.ErrNotFound)
	_, err = repo.FindByToken(ctx, "forever")
	assert.NoError(t, err)
}
