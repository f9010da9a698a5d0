package mongodb

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/mamadbah2/canebill/internal/repository"
)

const (
	billsCollection      = "bills"
	pricesCollection     = "priceconfigs"
	farmersCollection    = "farmers"
	usersCollection      = "users"
	settingsCollection   = "settings"
	activityCollection   = "activitylogs"
	shareLinksCollection = "sharelinks"
)

// MongoDBRepository owns the client connection and hands out per-collection repositories.
type MongoDBRepository struct {
	client *mongo.Client
	db     *mongo.Database
	logger *zap.Logger
}

// NewMongoDBRepository connects, pings and ensures the unique indexes the
// domain relies on.
func NewMongoDBRepository(ctx context.Context, uri string, dbName string, logger *zap.Logger) (*MongoDBRepository, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	r := &MongoDBRepository{
		client: client,
		db:     client.Database(dbName),
		logger: logger,
	}

	if err := r.ensureIndexes(ctx); err != nil {
		return nil, err
	}

	return r, nil
}

// Store returns the repository bundle backed by this connection.
func (r *MongoDBRepository) Store() repository.Store {
	return repository.Store{
		Bills:    &BillRepository{coll: r.db.Collection(billsCollection)},
		Prices:   &PriceRepository{coll: r.db.Collection(pricesCollection)},
		Farmers:  &FarmerRepository{coll: r.db.Collection(farmersCollection)},
		Users:    &UserRepository{coll: r.db.Collection(usersCollection)},
		Settings: &SettingRepository{coll: r.db.Collection(settingsCollection)},
		Activity: &ActivityRepository{coll: r.db.Collection(activityCollection)},
		Shares:   &ShareLinkRepository{coll: r.db.Collection(shareLinksCollection)},
	}
}

// Close closes the MongoDB connection.
func (r *MongoDBRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}

func (r *MongoDBRepository) ensureIndexes(ctx context.Context) error {
	unique := map[string]string{
		billsCollection:      "billNumber",
		pricesCollection:     "effectiveDate",
		usersCollection:      "username",
		shareLinksCollection: "token",
	}

	for coll, field := range unique {
		model := mongo.IndexModel{
			Keys:    bson.D{{Key: field, Value: 1}},
			Options: options.Index().SetUnique(true),
		}
		name, err := r.db.Collection(coll).Indexes().CreateOne(ctx, model)
		if err != nil {
			return fmt.Errorf("create unique index on %s.%s: %w", coll, field, err)
		}
		r.logger.Debug("index ensured", zap.String("collection", coll), zap.String("index", name))
	}

	secondary := []struct {
		coll string
		keys bson.D
	}{
		{billsCollection, bson.D{{Key: "date", Value: -1}, {Key: "createdAt", Value: -1}}},
		{farmersCollection, bson.D{{Key: "name", Value: 1}}},
		{activityCollection, bson.D{{Key: "timestamp", Value: -1}}},
	}
	for _, idx := range secondary {
		if _, err := r.db.Collection(idx.coll).Indexes().CreateOne(ctx, mongo.IndexModel{Keys: idx.keys}); err != nil {
			return fmt.Errorf("create index on %s: %w", idx.coll, err)
		}
	}

	return nil
}

// translate maps driver errors onto the repository sentinels.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return repository.ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", repository.ErrDuplicateKey, err)
	default:
		return err
	}
}
