// Package memory is an in-process implementation of the repository contracts,
// enforcing the same unique keys as the MongoDB indexes.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/mamadbah2/canebill/internal/domain/models"
	"github.com/mamadbah2/canebill/internal/repository"
)

// NewStore returns a fresh, empty repository bundle.
func NewStore() repository.Store {
	return repository.Store{
		Bills:    NewBillRepository(),
		Prices:   NewPriceRepository(),
		Farmers:  NewFarmerRepository(),
		Users:    NewUserRepository(),
		Settings: NewSettingRepository(),
		Activity: NewActivityRepository(),
		Shares:   NewShareLinkRepository(),
	}
}

func duplicate(field, value string) error {
	return fmt.Errorf("%w: %s %q", repository.ErrDuplicateKey, field, value)
}

// BillRepository keeps bills in a map keyed by id.
type BillRepository struct {
	mu    sync.RWMutex
	bills map[primitive.ObjectID]models.Bill
}

// NewBillRepository returns an empty BillRepository.
func NewBillRepository() *BillRepository {
	return &BillRepository{bills: make(map[primitive.ObjectID]models.Bill)}
}

// Create inserts a bill.
func (r *BillRepository) Create(_ context.Context, bill *models.Bill) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, b := range r.bills {
		if b.BillNumber == bill.BillNumber {
			return duplicate("billNumber", bill.BillNumber)
		}
	}
	if bill.ID.IsZero() {
		bill.ID = primitive.NewObjectID()
	}
	r.bills[bill.ID] = *bill
	return nil
}

// Update replaces a stored a bill.
func (r *BillRepository) Update(_ context.Context, bill *models.Bill) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.bills[bill.ID]; !ok {
		return repository.ErrNotFound
	}
	for id, b := range r.bills {
		if id != bill.ID && b.BillNumber == bill.BillNumber {
			return duplicate("billNumber", bill.BillNumber)
		}
	}
	r.bills[bill.ID] = *bill
	return nil
}

// Delete removes a bill by id and returns it.
func (r *BillRepository) Delete(_ context.Context, id primitive.ObjectID) (models.Bill, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	bill, ok := r.bills[id]
	if !ok {
		return models.Bill{}, repository.ErrNotFound
	}
	delete(r.bills, id)
	return bill, nil
}

// FindByID returns a bill by id.
func (r *BillRepository) FindByID(_ context.Context, id primitive.ObjectID) (models.Bill, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	bill, ok := r.bills[id]
	if !ok {
		return models.Bill{}, repository.ErrNotFound
	}
	return bill, nil
}

// FindByNumber returns the bill with billNumber.
func (r *BillRepository) FindByNumber(_ context.Context, billNumber string) (models.Bill, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, b := range r.bills {
		if b.BillNumber == billNumber {
			return b, nil
		}
	}
	return models.Bill{}, repository.ErrNotFound
}

// List returns bills in display order.
func (r *BillRepository) List(_ context.Context, filter models.BillFilter) ([]models.Bill, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []models.Bill{}
	for _, b := range r.bills {
		if filter.Matches(b) {
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date) {
			return out[i].Date.After(out[j].Date)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

// PriceRepository keeps the price table keyed by id with a unique effectiveDate.
type PriceRepository struct {
	mu      sync.RWMutex
	entries map[primitive.ObjectID]models.PriceEntry
}

// NewPriceRepository returns an empty PriceRepository.
func NewPriceRepository() *PriceRepository {
	return &PriceRepository{entries: make(map[primitive.ObjectID]models.PriceEntry)}
}

// Upsert writes the entry for its effective date and reports whether it was inserted.
func (r *PriceRepository) Upsert(_ context.Context, entry *models.PriceEntry) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now().UTC()
	for id, e := range r.entries {
		if e.EffectiveDate.Equal(entry.EffectiveDate) {
			e.FreshPrice = entry.FreshPrice
			e.BurntPrice = entry.BurntPrice
			e.LongTopPrice = entry.LongTopPrice
			e.UpdatedAt = now
			r.entries[id] = e
			*entry = e
			return false, nil
		}
	}
	entry.ID = primitive.NewObjectID()
	entry.CreatedAt = now
	entry.UpdatedAt = now
	r.entries[entry.ID] = *entry
	return true, nil
}

// Insert adds a price entry. An existing effective date is a duplicate key.
func (r *PriceRepository) Insert(_ context.Context, entry *models.PriceEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.entries {
		if e.EffectiveDate.Equal(entry.EffectiveDate) {
			return duplicate("effectiveDate", entry.EffectiveDate.Format(time.RFC3339))
		}
	}
	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}
	r.entries[entry.ID] = *entry
	return nil
}

// Delete removes a price entry by id and returns it.
func (r *PriceRepository) Delete(_ context.Context, id primitive.ObjectID) (models.PriceEntry, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	entry, ok := r.entries[id]
	if !ok {
		return models.PriceEntry{}, repository.ErrNotFound
	}
	delete(r.entries, id)
	return entry, nil
}

// LatestOnOrBefore returns the entry with the greatest effective date not after at.
func (r *PriceRepository) LatestOnOrBefore(_ context.Context, at time.Time) (models.PriceEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var (
		best  models.PriceEntry
		found bool
	)
	for _, e := range r.entries {
		if e.EffectiveDate.After(at) {
			continue
		}
		if !found || e.EffectiveDate.After(best.EffectiveDate) {
			best, found = e, true
		}
	}
	if !found {
		return models.PriceEntry{}, repository.ErrNotFound
	}
	return best, nil
}

// List returns entries in display order.
func (r *PriceRepository) List(_ context.Context) ([]models.PriceEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.PriceEntry, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EffectiveDate.After(out[j].EffectiveDate) })
	return out, nil
}

// Count returns the number of entries.
func (r *PriceRepository) Count(_ context.Context) (int64, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return int64(len(r.entries)), nil
}

// FarmerRepository keeps farmers by id.
type FarmerRepository struct {
	mu      sync.RWMutex
	farmers map[primitive.ObjectID]models.Farmer
}

// NewFarmerRepository returns an empty FarmerRepository.
func NewFarmerRepository() *FarmerRepository {
	return &FarmerRepository{farmers: make(map[primitive.ObjectID]models.Farmer)}
}

// Create inserts a farmer.
func (r *FarmerRepository) Create(_ context.Context, farmer *models.Farmer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if farmer.ID.IsZero() {
		farmer.ID = primitive.NewObjectID()
	}
	if farmer.LicensePlates == nil {
		farmer.LicensePlates = []string{}
	}
	r.farmers[farmer.ID] = cloneFarmer(*farmer)
	return nil
}

// Update replaces a stored a farmer.
func (r *FarmerRepository) Update(_ context.Context, farmer *models.Farmer) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.farmers[farmer.ID]; !ok {
		return repository.ErrNotFound
	}
	r.farmers[farmer.ID] = cloneFarmer(*farmer)
	return nil
}

// Delete removes a farmer by id and returns it.
func (r *FarmerRepository) Delete(_ context.Context, id primitive.ObjectID) (models.Farmer, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	farmer, ok := r.farmers[id]
	if !ok {
		return models.Farmer{}, repository.ErrNotFound
	}
	delete(r.farmers, id)
	return farmer, nil
}

// FindByID returns a farmer by id.
func (r *FarmerRepository) FindByID(_ context.Context, id primitive.ObjectID) (models.Farmer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	farmer, ok := r.farmers[id]
	if !ok {
		return models.Farmer{}, repository.ErrNotFound
	}
	return cloneFarmer(farmer), nil
}

// FindByName returns the farmer with the exact name.
func (r *FarmerRepository) FindByName(_ context.Context, name string) (models.Farmer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, f := range r.farmers {
		if f.Name == name {
			return cloneFarmer(f), nil
		}
	}
	return models.Farmer{}, repository.ErrNotFound
}

// List returns farmers in display order.
func (r *FarmerRepository) List(_ context.Context) ([]models.Farmer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.Farmer, 0, len(r.farmers))
	for _, f := range r.farmers {
		out = append(out, cloneFarmer(f))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func cloneFarmer(f models.Farmer) models.Farmer {
	f.LicensePlates = append([]string{}, f.LicensePlates...)
	return f
}

// UserRepository keeps users by id with a unique username.
type UserRepository struct {
	mu    sync.RWMutex
	users map[primitive.ObjectID]models.User
}

// NewUserRepository returns an empty UserRepository.
func NewUserRepository() *UserRepository {
	return &UserRepository{users: make(map[primitive.ObjectID]models.User)}
}

// Create inserts a user.
func (r *UserRepository) Create(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Username == user.Username {
			return duplicate("username", user.Username)
		}
	}
	if user.ID.IsZero() {
		user.ID = primitive.NewObjectID()
	}
	r.users[user.ID] = *user
	return nil
}

// Update replaces a stored a user.
func (r *UserRepository) Update(_ context.Context, user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return repository.ErrNotFound
	}
	for id, u := range r.users {
		if id != user.ID && u.Username == user.Username {
			return duplicate("username", user.Username)
		}
	}
	r.users[user.ID] = *user
	return nil
}

// Delete removes a user by id.
func (r *UserRepository) Delete(_ context.Context, id primitive.ObjectID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.users, id)
	return nil
}

// FindByID returns a user by id.
func (r *UserRepository) FindByID(_ context.Context, id primitive.ObjectID) (models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[id]
	if !ok {
		return models.User{}, repository.ErrNotFound
	}
	return user, nil
}

// FindByUsername returns the user with the exact username.
func (r *UserRepository) FindByUsername(_ context.Context, username string) (models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if u.Username == username {
			return u, nil
		}
	}
	return models.User{}, repository.ErrNotFound
}

// List returns users in display order.
func (r *UserRepository) List(_ context.Context) ([]models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]models.User, 0, len(r.users))
	for _, u := range r.users {
		out = append(out, u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Username < out[j].Username })
	return out, nil
}

// SettingRepository holds at most one settings document.
type SettingRepository struct {
	mu      sync.RWMutex
	setting *models.Setting
}

// NewSettingRepository returns an empty SettingRepository.
func NewSettingRepository() *SettingRepository {
	return &SettingRepository{}
}

// Get returns the settings document.
func (r *SettingRepository) Get(_ context.Context) (models.Setting, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if r.setting == nil {
		return models.Setting{}, repository.ErrNotFound
	}
	s := *r.setting
	s.Quotas = append([]string{}, s.Quotas...)
	return s, nil
}

// Save stores the settings document.
func (r *SettingRepository) Save(_ context.Context, setting *models.Setting) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if setting.ID.IsZero() {
		setting.ID = primitive.NewObjectID()
	}
	s := *setting
	s.Quotas = append([]string{}, s.Quotas...)
	r.setting = &s
	return nil
}

// ActivityRepository is an append-only slice.
type ActivityRepository struct {
	mu   sync.RWMutex
	logs []models.ActivityLog
}

// NewActivityRepository returns an empty ActivityRepository.
func NewActivityRepository() *ActivityRepository {
	return &ActivityRepository{}
}

// Insert appends an entry.
func (r *ActivityRepository) Insert(_ context.Context, entry *models.ActivityLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if entry.ID.IsZero() {
		entry.ID = primitive.NewObjectID()
	}
	r.logs = append(r.logs, *entry)
	return nil
}

// List returns entries in display order.
func (r *ActivityRepository) List(_ context.Context, filter models.ActivityFilter) ([]models.ActivityLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []models.ActivityLog{}
	for _, l := range r.logs {
		if filter.Matches(l) {
			out = append(out, l)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out, nil
}

// DeleteOlderThan drops entries before cutoff and returns how many.
func (r *ActivityRepository) DeleteOlderThan(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.logs[:0]
	var removed int64
	for _, l := range r.logs {
		if l.Timestamp.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, l)
	}
	r.logs = kept
	return removed, nil
}

// ShareLinkRepository keeps links by token.
type ShareLinkRepository struct {
	mu    sync.RWMutex
	links map[string]models.ShareLink
}

// NewShareLinkRepository returns an empty ShareLinkRepository.
func NewShareLinkRepository() *ShareLinkRepository {
	return &ShareLinkRepository{links: make(map[string]models.ShareLink)}
}

// Create inserts a link.
func (r *ShareLinkRepository) Create(_ context.Context, link *models.ShareLink) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.links[link.Token]; ok {
		return duplicate("token", link.Token)
	}
	if link.ID.IsZero() {
		link.ID = primitive.NewObjectID()
	}
	r.links[link.Token] = *link
	return nil
}

// FindByToken returns the link for token.
func (r *ShareLinkRepository) FindByToken(_ context.Context, token string) (models.ShareLink, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	link, ok := r.links[token]
	if !ok {
		return models.ShareLink{}, repository.ErrNotFound
	}
	return link, nil
}

// DeleteExpired drops links expired at now and returns how many.
func (r *ShareLinkRepository) DeleteExpired(_ context.Context, now time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var removed int64
	for token, link := range r.links {
		if link.Expired(now) {
			delete(r.links, token)
			removed++
		}
	}
	return removed, nil
}
