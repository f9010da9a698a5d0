package sharing

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mamadbah2/canebill/internal/domain/models"
	"github.com/mamadbah2/canebill/internal/repository/memory"
)

var adminActor = models.Actor{ID: primitive.NewObjectID(), Username: "admin", Role: models.RoleAdmin}

type stubBills []models.Bill

func (s stubBills) ListAll(context.Context, models.BillFilter) ([]models.Bill, error) {
	return s, nil
}

func TestParseDuration(t *testing.T) {
	d, err := ParseDuration("forever")
	require.NoError(t, err)
	assert.Nil(t, d)

	d, err = ParseDuration("24")
	require.NoError(t, err)
	require.NotNil(t, d)
	assert.Equal(t, 24*time.Hour, *d)

	for _, bad := range []string{"", "0", "-3", "soon"} {
		_, err := ParseDuration(bad)
		assert.ErrorIs(t, err, models.ErrValidation, bad)
	}
}

func TestCreateAndValidate(t *testing.T) {
	svc := NewService(memory.NewShareLinkRepository(), stubBills{{BillNumber: "B-1"}}, nil, nil)
	ctx := context.Background()

	link, err := svc.Create(ctx, adminActor, "1")
	require.NoError(t, err)
	assert.Len(t, link.Token, 32)
	require.NotNil(t, link.ExpiresAt)

	_, err = svc.Validate(ctx, link.Token)
	require.NoError(t, err)

	bills, err := svc.SharedBills(ctx, link.Token, models.BillFilter{})
	require.NoError(t, err)
	assert.Len(t, bills, 1)

	_, err = svc.Validate(ctx, "missing")
	assert.ErrorIs(t, err, models.ErrNotFound)

	_, err = svc.Create(ctx, models.Actor{}, "1")
	assert.ErrorIs(t, err, models.ErrForbidden)
}

func TestExpiryAndPurge(t *testing.T) {
	repo := memory.NewShareLinkRepository()
	svc := NewService(repo, stubBills{}, nil, nil)
	ctx := context.Background()

	expiring, err := svc.Create(ctx, adminActor, "2")
	require.NoError(t, err)
	forever, err := svc.Create(ctx, adminActor, "forever")
	require.NoError(t, err)
	assert.Nil(t, forever.ExpiresAt)

	svc.now = func() time.Time { return time.Now().Add(3 * time.Hour) }

	_, err = svc.Validate(ctx, expiring.Token)
	assert.ErrorIs(t, err, models.ErrShareLinkExpired)
	_, err = svc.SharedBills(ctx, expiring.Token, models.BillFilter{})
	assert.ErrorIs(t, err, models.ErrShareLinkExpired)

	removed, err := svc.PurgeExpired(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), removed)

	_, err = svc.Validate(ctx, forever.Token)
	assert.NoError(t, err)
	_, err = svc.Validate(ctx, expiring.Token)
	assert.ErrorIs(t, err, models.ErrNotFound)
}
