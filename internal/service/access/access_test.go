package access

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mamadbah2/canebill/internal/domain/models"
)

func admin() models.Actor {
	return models.Actor{ID: primitive.NewObjectID(), Username: "admin", Role: models.RoleAdmin}
}

func root() models.Actor {
	return models.Actor{ID: primitive.NewObjectID(), Username: "root", Role: models.RoleRoot}
}

func superRoot() models.Actor {
	return models.Actor{ID: primitive.NewObjectID(), Username: "Phat", Role: models.RoleRoot, SuperRoot: true}
}

func userOf(a models.Actor) models.User {
	return models.User{ID: a.ID, Username: a.Username, Role: a.Role, SuperRoot: a.SuperRoot}
}

func TestAuthorize_RoleTable(t *testing.T) {
	adminAllowed := []Action{BillCreate, BillRead, BillCheckDuplicate, FarmerRead, SettingsRead, SettingsUpdate, PriceRead, PriceUpdate, PriceCheck, ProfileRead, StatsRead, BillExport, ShareCreate}
	adminDenied := []Action{BillEdit, BillDelete, FarmerManage, PriceDelete, LogsRead, LogsPrune, UserList, UserCreate, UserUpdate, UserDelete}

	for _, a := range adminAllowed {
		assert.NoError(t, Authorize(admin(), a), a)
		assert.NoError(t, Authorize(root(), a), a)
	}
	for _, a := range adminDenied {
		assert.ErrorIs(t, Authorize(admin(), a), models.ErrForbidden, a)
		assert.NoError(t, Authorize(root(), a), a)
	}
}

func TestAuthorize_UnknownActionOrRole(t *testing.T) {
	assert.ErrorIs(t, Authorize(root(), Action("nope")), models.ErrForbidden)
	assert.ErrorIs(t, Authorize(models.Actor{Role: "guest"}, BillRead), models.ErrForbidden)
}

func TestAuthorizeUserCreate(t *testing.T) {
	assert.NoError(t, AuthorizeUserCreate(root(), models.RoleAdmin))
	assert.ErrorIs(t, AuthorizeUserCreate(root(), models.RoleRoot), models.ErrForbidden)
	assert.NoError(t, AuthorizeUserCreate(superRoot(), models.RoleRoot))
	assert.ErrorIs(t, AuthorizeUserCreate(admin(), models.RoleAdmin), models.ErrForbidden)
}

func TestAuthorizeUserUpdate(t *testing.T) {
	otherAdmin := userOf(admin())
	otherRoot := userOf(root())
	sr := superRoot()

	assert.NoError(t, AuthorizeUserUpdate(root(), otherAdmin, ""))
	assert.ErrorIs(t, AuthorizeUserUpdate(root(), otherAdmin, models.RoleRoot), models.ErrForbidden)
	assert.ErrorIs(t, AuthorizeUserUpdate(root(), otherRoot, ""), models.ErrForbidden)
	assert.ErrorIs(t, AuthorizeUserUpdate(root(), userOf(sr), ""), models.ErrForbidden)

	r := root()
	assert.ErrorIs(t, AuthorizeUserUpdate(r, userOf(r), ""), models.ErrForbidden, "plain root is a root-role target")

	assert.NoError(t, AuthorizeUserUpdate(sr, otherRoot, models.RoleAdmin))
	assert.NoError(t, AuthorizeUserUpdate(sr, userOf(sr), ""))
	assert.ErrorIs(t, AuthorizeUserUpdate(admin(), otherAdmin, ""), models.ErrForbidden)
}

func TestAuthorizeUserDelete(t *testing.T) {
	r := root()
	sr := superRoot()

	assert.NoError(t, AuthorizeUserDelete(r, userOf(admin())))
	assert.ErrorIs(t, AuthorizeUserDelete(r, userOf(r)), models.ErrForbidden)
	assert.ErrorIs(t, AuthorizeUserDelete(r, userOf(root())), models.ErrForbidden)
	assert.ErrorIs(t, AuthorizeUserDelete(r, userOf(sr)), models.ErrForbidden)

	assert.NoError(t, AuthorizeUserDelete(sr, userOf(root())))
	assert.ErrorIs(t, AuthorizeUserDelete(sr, userOf(sr)), models.ErrForbidden)
}

func TestProtectedFields(t *testing.T) {
	assert.True(t, ProtectedFields(userOf(superRoot())))
	assert.False(t, ProtectedFields(userOf(root())))
}
