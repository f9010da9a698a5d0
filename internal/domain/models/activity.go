package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Activity action names written to the audit trail.
const (
	ActionLogin            = "LOGIN"
	ActionLogout           = "LOGOUT"
	ActionAddBill          = "ADD_BILL"
	ActionUpdateBill       = "UPDATE_BILL"
	ActionDeleteBill       = "DELETE_BILL"
	ActionAddFarmer        = "ADD_FARMER"
	ActionUpdateFarmer     = "UPDATE_FARMER"
	ActionDeleteFarmer     = "DELETE_FARMER"
	ActionAddPriceConfig   = "ADD_PRICE_CONFIG"
	ActionUpdatePrice      = "UPDATE_PRICE_CONFIG"
	ActionDeletePrice      = "DELETE_PRICE_CONFIG"
	ActionUpdateSettings   = "UPDATE_SETTINGS"
	ActionCreateUser       = "CREATE_USER"
	ActionUpdateUser       = "UPDATE_USER"
	ActionDeleteUser       = "DELETE_USER"
	ActionCreateShareLink  = "CREATE_SHARE_LINK"
	ActionPruneActivityLog = "PRUNE_LOGS"
)

// ActivityLog is one append-only audit entry.
type ActivityLog struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	UserID    primitive.ObjectID `bson:"userId" json:"userId"`
	Username  string             `bson:"username" json:"username"`
	Role      Role               `bson:"role" json:"role"`
	Action    string             `bson:"action" json:"action"`
	Details   string             `bson:"details,omitempty" json:"details,omitempty"`
	Timestamp time.Time          `bson:"timestamp" json:"timestamp"`
}

// ActivityFilter narrows activity listings.
type ActivityFilter struct {
	Search string
	Role   Role
	From   time.Time
	To     time.Time
}

// Matches reports whether the entry passes the filter. Search is a
// case-insensitive substring match over username, action and details.
func (f ActivityFilter) Matches(l ActivityLog) bool {
	if f.Role != "" && l.Role != f.Role {
		return false
	}
	if !f.From.IsZero() && l.Timestamp.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && l.Timestamp.After(f.To) {
		return false
	}
	if f.Search != "" {
		needle := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(l.Username), needle) &&
			!strings.Contains(strings.ToLower(l.Action), needle) &&
			!strings.Contains(strings.ToLower(l.Details), needle) {
			return false
		}
	}
	return true
}
