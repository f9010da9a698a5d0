package models

import "go.mongodb.org/mongo-driver/bson/primitive"

// Setting is the single settings document. Its price fields are the legacy
// single-row price record consulted when the price table has no applicable entry.
type Setting struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FreshPrice   float64            `bson:"freshPrice" json:"freshPrice"`
	BurntPrice   float64            `bson:"burntPrice" json:"burntPrice"`
	LongTopPrice float64            `bson:"longTopPrice" json:"longTopPrice"`
	Quotas       []string           `bson:"quotas" json:"quotas"`
}

// DefaultSetting mirrors the document created when none exists yet.
func DefaultSetting() Setting {
	return Setting{
		FreshPrice:   DefaultFreshPrice,
		BurntPrice:   DefaultBurntPrice,
		LongTopPrice: DefaultLongTopPrice,
		Quotas:       []string{},
	}
}
