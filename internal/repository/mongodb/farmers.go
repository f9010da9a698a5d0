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

// FarmerRepository implements repository.FarmerRepository.
type FarmerRepository struct {
	coll *mongo.Collection
}

func (r *FarmerRepository) Create(ctx context.Context, farmer *models.Farmer) error {
	if farmer.LicensePlates == nil {
		farmer.LicensePlates = []string{}
	}
	res, err := r.coll.InsertOne(ctx, farmer)
	if err != nil {
		return fmt.Errorf("insert farmer %s: %w", farmer.Name, translate(err))
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		farmer.ID = id
	}
	return nil
}

func (r *FarmerRepository) Update(ctx context.Context, farmer *models.Farmer) error {
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": farmer.ID}, farmer)
	if err != nil {
		return fmt.Errorf("update farmer %s: %w", farmer.ID.Hex(), translate(err))
	}
	if res.MatchedCount == 0 {
		return translate(mongo.ErrNoDocuments)
	}
	return nil
}

func (r *FarmerRepository) Delete(ctx context.Context, id primitive.ObjectID) (models.Farmer, error) {
	var farmer models.Farmer
	if err := r.coll.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&farmer); err != nil {
		return models.Farmer{}, translate(err)
	}
	return farmer, nil
}

func (r *FarmerRepository) FindByID(ctx context.Context, id primitive.ObjectID) (models.Farmer, error) {
	var farmer models.Farmer
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&farmer); err != nil {
		return models.Farmer{}, translate(err)
	}
	return farmer, nil
}

// FindByName matches the exact name string.
func (r *FarmerRepository) FindByName(ctx context.Context, name string) (models.Farmer, error) {
	var farmer models.Farmer
	if err := r.coll.FindOne(ctx, bson.M{"name": name}).Decode(&farmer); err != nil {
		return models.Farmer{}, translate(err)
	}
	return farmer, nil
}

func (r *FarmerRepository) List(ctx context.Context) ([]models.Farmer, error) {
	cursor, err := r.coll.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find farmers: %w", err)
	}
	farmers := []models.Farmer{}
	if err := cursor.All(ctx, &farmers); err != nil {
		return nil, fmt.Errorf("decode farmers: %w", err)
	}
	return farmers, nil
}
