package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Hardcoded last-resort prices per unit (ton).
const (
	DefaultFreshPrice   float64 = 1200
	DefaultBurntPrice   float64 = 1000
	DefaultLongTopPrice float64 = 1100
)

// LegacyPriceEffectiveDate pins the entry migrated from the legacy settings row.
var LegacyPriceEffectiveDate = time.Date(2020, time.January, 1, 0, 0, 0, 0, time.UTC)

// PriceEntry holds the per-unit price of each cane category, effective from
// EffectiveDate until a later entry supersedes it.
type PriceEntry struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	EffectiveDate time.Time          `bson:"effectiveDate" json:"effectiveDate"`
	FreshPrice    float64            `bson:"freshPrice" json:"freshPrice"`
	BurntPrice    float64            `bson:"burntPrice" json:"burntPrice"`
	LongTopPrice  float64            `bson:"longTopPrice" json:"longTopPrice"`
	CreatedAt     time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// PriceFor returns the field matching the cane category.
func (p PriceEntry) PriceFor(t SugarcaneType) float64 {
	switch t {
	case SugarcaneFresh:
		return p.FreshPrice
	case SugarcaneBurnt:
		return p.BurntPrice
	case SugarcaneLongTop:
		return p.LongTopPrice
	default:
		return 0
	}
}

// DefaultPrices is the hardcoded fallback tier.
func DefaultPrices() PriceEntry {
	return PriceEntry{
		FreshPrice:   DefaultFreshPrice,
		BurntPrice:   DefaultBurntPrice,
		LongTopPrice: DefaultLongTopPrice,
	}
}
