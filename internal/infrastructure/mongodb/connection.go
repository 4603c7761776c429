package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	ordersCollection     = "orders"
	productsCollection   = "products"
	categoriesCollection = "categories"
	usersCollection      = "users"
)

func ConnectMongoDB(ctx context.Context, uri, database string) (*mongo.Database, error) {
	clientOpts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second).
		SetMaxPoolSize(100).
		SetMinPoolSize(10)

	client, err := mongo.Connect(ctx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	// Ping to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	return client.Database(database), nil
}

// CreateIndexes creates the indexes every repository relies on, including the
// unique constraints on category names and user emails.
func CreateIndexes(ctx context.Context, db *mongo.Database) error {
	all := map[string][]mongo.IndexModel{
		ordersCollection: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
			{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
		},
		productsCollection: {
			{Keys: bson.D{{Key: "category_id", Value: 1}}},
			{Keys: bson.D{{Key: "created_at", Value: -1}}},
		},
		categoriesCollection: {
			{Keys: bson.D{{Key: "name", Value: 1}}, Options: options.Index().SetUnique(true)},
			{Keys: bson.D{{Key: "parent_id", Value: 1}}},
		},
		usersCollection: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
	}

	for name, indexes := range all {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, indexes); err != nil {
			return fmt.Errorf("failed to create %s indexes: %w", name, err)
		}
	}
	return nil
}
