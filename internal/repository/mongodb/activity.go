package mongodb

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/canebill/internal/domain/models"
)

// ActivityRepository implements repository.ActivityRepository.
type ActivityRepository struct {
	coll *mongo.Collection
}

func (r *ActivityRepository) Insert(ctx context.Context, entry *models.ActivityLog) error {
	res, err := r.coll.InsertOne(ctx, entry)
	if err != nil {
		return fmt.Errorf("insert activity log: %w", err)
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		entry.ID = id
	}
	return nil
}

func (r *ActivityRepository) List(ctx context.Context, filter models.ActivityFilter) ([]models.ActivityLog, error) {
	query := bson.M{}
	if filter.Role != "" {
		query["role"] = filter.Role
	}
	ts := bson.M{}
	if !filter.From.IsZero() {
		ts["$gte"] = filter.From
	}
	if !filter.To.IsZero() {
		ts["$lte"] = filter.To
	}
	if len(ts) > 0 {
		query["timestamp"] = ts
	}
	if filter.Search != "" {
		pattern := primitive.Regex{Pattern: regexp.QuoteMeta(filter.Search), Options: "i"}
		query["$or"] = bson.A{
			bson.M{"username": pattern},
			bson.M{"action": pattern},
			bson.M{"details": pattern},
		}
	}

	cursor, err := r.coll.Find(ctx, query, options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("find activity logs: %w", err)
	}
	logs := []models.ActivityLog{}
	if err := cursor.All(ctx, &logs); err != nil {
		return nil, fmt.Errorf("decode activity logs: %w", err)
	}
	return logs, nil
}

func (r *ActivityRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"timestamp": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, fmt.Errorf("prune activity logs: %w", err)
	}
	return res.DeletedCount, nil
}
