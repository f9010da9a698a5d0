package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// SugarcaneType enumerates the cane categories a bill can be priced under.
type SugarcaneType int

const (
	SugarcaneFresh   SugarcaneType = 1
	SugarcaneBurnt   SugarcaneType = 2
	SugarcaneLongTop SugarcaneType = 3
)

// Valid reports whether t is one of the three known categories.
func (t SugarcaneType) Valid() bool {
	return t == SugarcaneFresh || t == SugarcaneBurnt || t == SugarcaneLongTop
}

// Label returns the Thai label printed on exports.
func (t SugarcaneType) Label() string {
	switch t {
	case SugarcaneFresh:
		return "อ้อยสด"
	case SugarcaneBurnt:
		return "อ้อยไฟไหม้"
	case SugarcaneLongTop:
		return "อ้อยยอดยาว"
	default:
		return "unknown"
	}
}

// Bill is one recorded sugarcane purchase. PricePerUnit, TotalAmount and
// NetAmount are frozen at write time.
type Bill struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	BillNumber   string             `bson:"billNumber" json:"billNumber"`
	OwnerName    string             `bson:"ownerName" json:"ownerName"`
	QuotaNumber  string             `bson:"quotaNumber,omitempty" json:"quotaNumber,omitempty"`
	LicensePlate string             `bson:"licensePlate,omitempty" json:"licensePlate,omitempty"`
	Date         time.Time          `bson:"date" json:"date"`
	Type         SugarcaneType      `bson:"sugarcaneType" json:"sugarcaneType"`
	Weight       float64            `bson:"weight" json:"weight"`
	FuelCost     float64            `bson:"fuelCost" json:"fuelCost"`
	PricePerUnit float64            `bson:"pricePerUnit" json:"pricePerUnit"`
	TotalAmount  float64            `bson:"totalAmount" json:"totalAmount"`
	NetAmount    float64            `bson:"netAmount" json:"netAmount"`
	CreatedAt    time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updatedAt"`
}

// Recompute derives TotalAmount and NetAmount from the stored weight, price and fuel cost.
func (b *Bill) Recompute() {
	b.TotalAmount = b.Weight * b.PricePerUnit
	b.NetAmount = b.TotalAmount - b.FuelCost
}

// BillFilter narrows bill listings. Zero values match everything.
type BillFilter struct {
	OwnerName string
	From      time.Time
	To        time.Time
}

// Matches reports whether the bill passes the filter.
func (f BillFilter) Matches(b Bill) bool {
	if f.OwnerName != "" && b.OwnerName != f.OwnerName {
		return false
	}
	if !f.From.IsZero() && b.Date.Before(f.From) {
		return false
	}
	if !f.To.IsZero() && b.Date.After(f.To) {
		return false
	}
	return true
}
