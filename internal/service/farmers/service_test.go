package farmers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mamadbah2/canebill/internal/domain/models"
	"github.com/mamadbah2/canebill/internal/repository/memory"
)

var (
	rootActor  = models.Actor{ID: primitive.NewObjectID(), Username: "root", Role: models.RoleRoot}
	adminActor = models.Actor{ID: primitive.NewObjectID(), Username: "admin", Role: models.RoleAdmin}
)

func TestSyncPlate_CreatesFarmerWhenMissing(t *testing.T) {
	repo := memory.NewFarmerRepository()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	require.NoError(t, svc.SyncPlate(ctx, "Somchai", "กข-1234"))

	farmer, err := repo.FindByName(ctx, "Somchai")
	require.NoError(t, err)
	assert.Equal(t, []string{"กข-1234"}, farmer.LicensePlates)
}

func TestSyncPlate_AppendsOnlyNewPlates(t *testing.T) {
	repo := memory.NewFarmerRepository()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	require.NoError(t, svc.SyncPlate(ctx, "Somchai", "A-1"))
	require.NoError(t, svc.SyncPlate(ctx, "Somchai", "A-1"))
	require.NoError(t, svc.SyncPlate(ctx, "Somchai", "B-2"))
	require.NoError(t, svc.SyncPlate(ctx, "Somchai", "  "))

	farmer, err := repo.FindByName(ctx, "Somchai")
	require.NoError(t, err)
	assert.Equal(t, []string{"A-1", "B-2"}, farmer.LicensePlates)
}

func TestSyncPlate_ExactNameMatchOnly(t *testing.T) {
	repo := memory.NewFarmerRepository()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	require.NoError(t, svc.SyncPlate(ctx, "Somchai", "A-1"))
	require.NoError(t, svc.SyncPlate(ctx, "somchai ", "A-2"))

	all, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestCRUD_RootManagesAdminReads(t *testing.T) {
	repo := memory.NewFarmerRepository()
	svc := NewService(repo, nil, nil)
	ctx := context.Background()

	_, err := svc.Create(ctx, adminActor, Input{Name: "Somchai"})
	assert.ErrorIs(t, err, models.ErrForbidden)

	_, err = svc.Create(ctx, rootActor, Input{Name: " "})
	assert.ErrorIs(t, err, models.ErrValidation)

	farmer, err := svc.Create(ctx, rootActor, Input{Name: "Somchai", LicensePlates: []string{"A-1", "A-1", ""}})
	require.NoError(t, err)
	assert.Equal(t, []string{"A-1"}, farmer.LicensePlates)

	updated, err := svc.Update(ctx, rootActor, farmer.ID, Input{Name: "Somchai K.", LicensePlates: []string{"B-2"}})
	require.NoError(t, err)
	assert.Equal(t, "Somchai K.", updated.Name)

	list, err := svc.List(ctx, adminActor)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, []string{"B-2"}, list[0].LicensePlates)

	_, err = svc.Update(ctx, rootActor, primitive.NewObjectID(), Input{Name: "x"})
	assert.ErrorIs(t, err, models.ErrNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, adminActor, farmer.ID), models.ErrForbidden)
	require.NoError(t, svc.Delete(ctx, rootActor, farmer.ID))
	assert.ErrorIs(t, svc.Delete(ctx, rootActor, farmer.ID), models.ErrNotFound)
}
