package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/canebill/internal/domain/models"
)

// PriceRepository implements repository.PriceRepository.
type PriceRepository struct {
	coll *mongo.Collection
}

// Upsert writes the entry keyed by effectiveDate and reloads it so the caller
// sees the stored id and timestamps.
func (r *PriceRepository) Upsert(ctx context.Context, entry *models.PriceEntry) (bool, error) {
	now := time.Now().UTC()
	filter := bson.M{"effectiveDate": entry.EffectiveDate}
	update := bson.M{
		"$set": bson.M{
			"freshPrice":   entry.FreshPrice,
			"burntPrice":   entry.BurntPrice,
			"longTopPrice": entry.LongTopPrice,
			"updatedAt":    now,
		},
		"$setOnInsert": bson.M{"createdAt": now},
	}

	res, err := r.coll.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true))
	if err != nil {
		return false, fmt.Errorf("upsert price entry %s: %w", entry.EffectiveDate.Format(time.RFC3339), translate(err))
	}

	if err := r.coll.FindOne(ctx, filter).Decode(entry); err != nil {
		return false, fmt.Errorf("reload price entry: %w", translate(err))
	}
	return res.UpsertedCount > 0, nil
}

// Insert adds a new entry; the unique index rejects a second entry for the same date.
func (r *PriceRepository) Insert(ctx context.Context, entry *models.PriceEntry) error {
	res, err := r.coll.InsertOne(ctx, entry)
	if err != nil {
		return fmt.Errorf("insert price entry: %w", translate(err))
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		entry.ID = id
	}
	return nil
}

// Delete removes an entry by id.
func (r *PriceRepository) Delete(ctx context.Context, id primitive.ObjectID) (models.PriceEntry, error) {
	var entry models.PriceEntry
	if err := r.coll.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&entry); err != nil {
		return models.PriceEntry{}, translate(err)
	}
	return entry, nil
}

// LatestOnOrBefore returns the applicable entry for at.
func (r *PriceRepository) LatestOnOrBefore(ctx context.Context, at time.Time) (models.PriceEntry, error) {
	var entry models.PriceEntry
	opts := options.FindOne().SetSort(bson.D{{Key: "effectiveDate", Value: -1}})
	err := r.coll.FindOne(ctx, bson.M{"effectiveDate": bson.M{"$lte": at}}, opts).Decode(&entry)
	if err != nil {
		return models.PriceEntry{}, translate(err)
	}
	return entry, nil
}

// List returns all entries, newest effectiveDate first.
func (r *PriceRepository) List(ctx context.Context) ([]models.PriceEntry, error) {
	opts := options.Find().SetSort(bson.D{{Key: "effectiveDate", Value: -1}})
	cursor, err := r.coll.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("find price entries: %w", err)
	}
	entries := []models.PriceEntry{}
	if err := cursor.All(ctx, &entries); err != nil {
		return nil, fmt.Errorf("decode price entries: %w", err)
	}
	return entries, nil
}

// Count returns the number of entries.
func (r *PriceRepository) Count(ctx context.Context) (int64, error) {
	return r.coll.CountDocuments(ctx, bson.M{})
}
