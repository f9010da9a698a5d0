package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Farmer is linked to bills only by OwnerName == Name.
type Farmer struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name          string             `bson:"name" json:"name"`
	LicensePlates []string           `bson:"licensePlates" json:"licensePlates"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// HasPlate reports whether plate is already listed.
func (f Farmer) HasPlate(plate string) bool {
	for _, p := range f.LicensePlates {
		if p == plate {
			return true
		}
	}
	return false
}
