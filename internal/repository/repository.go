// Package repository declares the storage contracts shared by the MongoDB and
// in-memory backends.
package repository

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mamadbah2/canebill/internal/domain/models"
)

var (
	// ErrNotFound is returned when no document matches.
	ErrNotFound = errors.New("document not found")
	// ErrDuplicateKey is returned when a unique index rejects a write.
	ErrDuplicateKey = errors.New("duplicate key")
)

// BillRepository stores bills. billNumber is unique.
type BillRepository interface {
	Create(ctx context.Context, bill *models.Bill) error
	Update(ctx context.Context, bill *models.Bill) error
	Delete(ctx context.Context, id primitive.ObjectID) (models.Bill, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (models.Bill, error)
	FindByNumber(ctx context.Context, billNumber string) (models.Bill, error)
	// List returns bills sorted by date then createdAt, newest first.
	List(ctx context.Context, filter models.BillFilter) ([]models.Bill, error)
}

// PriceRepository stores the price table. effectiveDate is unique.
type PriceRepository interface {
	// Upsert writes entry keyed by its EffectiveDate, overwriting an existing
	// entry for the same date. It reports whether a new entry was inserted.
	Upsert(ctx context.Context, entry *models.PriceEntry) (bool, error)
	Insert(ctx context.Context, entry *models.PriceEntry) error
	Delete(ctx context.Context, id primitive.ObjectID) (models.PriceEntry, error)
	// LatestOnOrBefore returns the entry with the greatest effectiveDate <= at.
	LatestOnOrBefore(ctx context.Context, at time.Time) (models.PriceEntry, error)
	// List returns entries sorted by effectiveDate, newest first.
	List(ctx context.Context) ([]models.PriceEntry, error)
	Count(ctx context.Context) (int64, error)
}

// FarmerRepository stores farmers.
type FarmerRepository interface {
	Create(ctx context.Context, farmer *models.Farmer) error
	Update(ctx context.Context, farmer *models.Farmer) error
	Delete(ctx context.Context, id primitive.ObjectID) (models.Farmer, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (models.Farmer, error)
	FindByName(ctx context.Context, name string) (models.Farmer, error)
	// List returns farmers sorted by name.
	List(ctx context.Context) ([]models.Farmer, error)
}

// UserRepository stores users. username is unique.
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
	Delete(ctx context.Context, id primitive.ObjectID) error
	FindByID(ctx context.Context, id primitive.ObjectID) (models.User, error)
	FindByUsername(ctx context.Context, username string) (models.User, error)
	// List returns users sorted by username.
	List(ctx context.Context) ([]models.User, error)
}

// SettingRepository stores the single settings document.
type SettingRepository interface {
	Get(ctx context.Context) (models.Setting, error)
	Save(ctx context.Context, setting *models.Setting) error
}

// ActivityRepository stores the audit trail.
type ActivityRepository interface {
	Insert(ctx context.Context, entry *models.ActivityLog) error
	// List returns entries sorted by timestamp, newest first.
	List(ctx context.Context, filter models.ActivityFilter) ([]models.ActivityLog, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// ShareLinkRepository stores share links. token is unique.
type ShareLinkRepository interface {
	Create(ctx context.Context, link *models.ShareLink) error
	FindByToken(ctx context.Context, token string) (models.ShareLink, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Store bundles every repository a running service needs.
type Store struct {
	Bills    BillRepository
	Prices   PriceRepository
	Farmers  FarmerRepository
	Users    UserRepository
	Settings SettingRepository
	Activity ActivityRepository
	Shares   ShareLinkRepository
}
