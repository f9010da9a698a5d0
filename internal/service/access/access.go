package access

import (
	"fmt"
	"strings"

	"github.com/mamadbah2/canebill/internal/domain/models"
)

// Action names an operation gated by the matrix.
type Action string

const (
	BillCreate         Action = "bill.create"
	BillRead           Action = "bill.read"
	BillCheckDuplicate Action = "bill.checkDuplicate"
	BillEdit           Action = "bill.edit"
	BillDelete         Action = "bill.delete"
	BillExport         Action = "bill.export"
	FarmerRead         Action = "farmer.read"
	FarmerManage       Action = "farmer.manage"
	SettingsRead       Action = "settings.read"
	SettingsUpdate     Action = "settings.update"
	PriceRead          Action = "price.read"
	PriceUpdate        Action = "price.update"
	PriceCheck         Action = "price.check"
	PriceDelete        Action = "price.delete"
	ProfileRead        Action = "profile.read"
	StatsRead          Action = "stats.read"
	ShareCreate        Action = "share.create"
	LogsRead           Action = "logs.read"
	LogsPrune          Action = "logs.prune"
	UserList           Action = "user.list"
	UserCreate         Action = "user.create"
	UserUpdate         Action = "user.update"
	UserDelete         Action = "user.delete"
)

var (
	adminAndRoot = []models.Role{models.RoleAdmin, models.RoleRoot}
	rootOnly     = []models.Role{models.RoleRoot}
)

var matrix = map[Action][]models.Role{
	BillCreate:         adminAndRoot,
	BillRead:           adminAndRoot,
	BillCheckDuplicate: adminAndRoot,
	BillExport:         adminAndRoot,
	BillEdit:           rootOnly,
	BillDelete:         rootOnly,
	FarmerRead:         adminAndRoot,
	FarmerManage:       rootOnly,
	SettingsRead:       adminAndRoot,
	SettingsUpdate:     adminAndRoot,
	PriceRead:          adminAndRoot,
	PriceUpdate:        adminAndRoot,
	PriceCheck:         adminAndRoot,
	PriceDelete:        rootOnly,
	ProfileRead:        adminAndRoot,
	StatsRead:          adminAndRoot,
	ShareCreate:        adminAndRoot,
	LogsRead:           rootOnly,
	LogsPrune:          rootOnly,
	UserList:           rootOnly,
	UserCreate:         rootOnly,
	UserUpdate:         rootOnly,
	UserDelete:         rootOnly,
}

func denied(action Action) error {
	return fmt.Errorf("%w: %s", models.ErrForbidden, action)
}

// Authorize checks the role table. Unknown actions are denied.
func Authorize(actor models.Actor, action Action) error {
	for _, role := range matrix[action] {
		if actor.Role == role {
			return nil
		}
	}
	return denied(action)
}

// AuthorizeUserCreate gates creation of a user with the given role. Only the
// super root may mint another root.
func AuthorizeUserCreate(actor models.Actor, role models.Role) error {
	if err := Authorize(actor, UserCreate); err != nil {
		return err
	}
	if role == models.RoleRoot && !actor.SuperRoot {
		return denied(UserCreate)
	}
	return nil
}

// AuthorizeUserUpdate gates edits of target. newRole is the requested role,
// empty when unchanged.
func AuthorizeUserUpdate(actor models.Actor, target models.User, newRole models.Role) error {
	if err := Authorize(actor, UserUpdate); err != nil {
		return err
	}
	if actor.SuperRoot {
		return nil
	}
	if target.Role == models.RoleRoot || target.SuperRoot {
		return denied(UserUpdate)
	}
	if newRole == models.RoleRoot {
		return denied(UserUpdate)
	}
	return nil
}

// AuthorizeUserDelete gates removal of target. Nobody deletes themselves and
// the super root cannot be deleted at all.
func AuthorizeUserDelete(actor models.Actor, target models.User) error {
	if err := Authorize(actor, UserDelete); err != nil {
		return err
	}
	if target.ID == actor.ID || target.SuperRoot {
		return denied(UserDelete)
	}
	if target.Role == models.RoleRoot && !actor.SuperRoot {
		return denied(UserDelete)
	}
	return nil
}

// AuthorizeUsername gates taking username, for a new account or a rename.
// The reserved super root name is only available to the super root.
func AuthorizeUsername(actor models.Actor, username, reserved string) error {
	if reserved != "" && strings.EqualFold(strings.TrimSpace(username), strings.TrimSpace(reserved)) && !actor.SuperRoot {
		return fmt.Errorf("%w: username %s is reserved", models.ErrForbidden, username)
	}
	return nil
}

// ProtectedFields reports whether username and role of target are immutable.
func ProtectedFields(target models.User) bool {
	return target.SuperRoot
}
