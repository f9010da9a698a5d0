package mongodb

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/canebill/internal/domain/models"
)

// SettingRepository implements repository.SettingRepository over a single-document collection.
type SettingRepository struct {
	coll *mongo.Collection
}

func (r *SettingRepository) Get(ctx context.Context) (models.Setting, error) {
	var setting models.Setting
	if err := r.coll.FindOne(ctx, bson.M{}).Decode(&setting); err != nil {
		return models.Setting{}, translate(err)
	}
	return setting, nil
}

func (r *SettingRepository) Save(ctx context.Context, setting *models.Setting) error {
	if setting.ID.IsZero() {
		setting.ID = primitive.NewObjectID()
	}
	_, err := r.coll.ReplaceOne(ctx, bson.M{"_id": setting.ID}, setting, options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	return nil
}
