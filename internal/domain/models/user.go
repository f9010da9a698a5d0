package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role is the privilege tier of a user.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleRoot  Role = "root"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleRoot
}

// User is an operator account. SuperRoot marks the single identity that other
// root users cannot manage; it is set by startup seeding, never by the API.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username     string             `bson:"username" json:"username"`
	PasswordHash string             `bson:"password" json:"-"`
	Role         Role               `bson:"role" json:"role"`
	SuperRoot    bool               `bson:"superRoot" json:"superRoot"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Actor is the authenticated identity behind a request.
type Actor struct {
	ID        primitive.ObjectID
	Username  string
	Role      Role
	SuperRoot bool
}

// ActorFromUser builds the actor triple for a stored user.
func ActorFromUser(u User) Actor {
	return Actor{ID: u.ID, Username: u.Username, Role: u.Role, SuperRoot: u.SuperRoot}
}
