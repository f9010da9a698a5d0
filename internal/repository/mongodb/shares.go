package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/mamadbah2/canebill/internal/domain/models"
)

// ShareLinkRepository implements repository.ShareLinkRepository.
type ShareLinkRepository struct {
	coll *mongo.Collection
}

func (r *ShareLinkRepository) Create(ctx context.Context, link *models.ShareLink) error {
	res, err := r.coll.InsertOne(ctx, link)
	if err != nil {
		return fmt.Errorf("insert share link: %w", translate(err))
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		link.ID = id
	}
	return nil
}

func (r *ShareLinkRepository) FindByToken(ctx context.Context, token string) (models.ShareLink, error) {
	var link models.ShareLink
	if err := r.coll.FindOne(ctx, bson.M{"token": token}).Decode(&link); err != nil {
		return models.ShareLink{}, translate(err)
	}
	return link, nil
}

// DeleteExpired removes links whose expiry has passed; permanent links are kept.
func (r *ShareLinkRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.coll.DeleteMany(ctx, bson.M{"expiresAt": bson.M{"$ne": nil, "$lt": now}})
	if err != nil {
		return 0, fmt.Errorf("purge share links: %w", err)
	}
	return res.DeletedCount, nil
}
