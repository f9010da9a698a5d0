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

// BillRepository implements repository.BillRepository.
type BillRepository struct {
	coll *mongo.Collection
}

// Create inserts a bill; the unique billNumber index rejects duplicates.
func (r *BillRepository) Create(ctx context.Context, bill *models.Bill) error {
	res, err := r.coll.InsertOne(ctx, bill)
	if err != nil {
		return fmt.Errorf("insert bill %s: %w", bill.BillNumber, translate(err))
	}
	if id, ok := res.InsertedID.(primitive.ObjectID); ok {
		bill.ID = id
	}
	return nil
}

// Update replaces the stored bill with the same id.
func (r *BillRepository) Update(ctx context.Context, bill *models.Bill) error {
	res, err := r.coll.ReplaceOne(ctx, bson.M{"_id": bill.ID}, bill)
	if err != nil {
		return fmt.Errorf("update bill %s: %w", bill.ID.Hex(), translate(err))
	}
	if res.MatchedCount == 0 {
		return translate(mongo.ErrNoDocuments)
	}
	return nil
}

// Delete removes a bill and returns what was removed.
func (r *BillRepository) Delete(ctx context.Context, id primitive.ObjectID) (models.Bill, error) {
	var bill models.Bill
	if err := r.coll.FindOneAndDelete(ctx, bson.M{"_id": id}).Decode(&bill); err != nil {
		return models.Bill{}, translate(err)
	}
	return bill, nil
}

// FindByID loads a bill by id.
func (r *BillRepository) FindByID(ctx context.Context, id primitive.ObjectID) (models.Bill, error) {
	var bill models.Bill
	if err := r.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&bill); err != nil {
		return models.Bill{}, translate(err)
	}
	return bill, nil
}

// FindByNumber loads a bill by its bill number.
func (r *BillRepository) FindByNumber(ctx context.Context, billNumber string) (models.Bill, error) {
	var bill models.Bill
	if err := r.coll.FindOne(ctx, bson.M{"billNumber": billNumber}).Decode(&bill); err != nil {
		return models.Bill{}, translate(err)
	}
	return bill, nil
}

// List returns the filtered bills, newest first.
func (r *BillRepository) List(ctx context.Context, filter models.BillFilter) ([]models.Bill, error) {
	query := bson.M{}
	if filter.OwnerName != "" {
		query["ownerName"] = filter.OwnerName
	}
	dateRange := bson.M{}
	if !filter.From.IsZero() {
		dateRange["$gte"] = filter.From
	}
	if !filter.To.IsZero() {
		dateRange["$lte"] = filter.To
	}
	if len(dateRange) > 0 {
		query["date"] = dateRange
	}

	opts := options.Find().SetSort(bson.D{{Key: "date", Value: -1}, {Key: "createdAt", Value: -1}})
	cursor, err := r.coll.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("find bills: %w", err)
	}

	bills := []models.Bill{}
	if err := cursor.All(ctx, &bills); err != nil {
		return nil, fmt.Errorf("decode bills: %w", err)
	}
	return bills, nil
}
