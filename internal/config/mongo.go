package config

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"vet1stop-platform/internal/repository"
	"vet1stop-platform/models"
)

func ConnectMongoDB(cfg *Config) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %v", err)
	}

	// Test connection
	err = client.Ping(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to ping MongoDB: %v", err)
	}

	// Create indexes
	err = createIndexes(ctx, client.Database(cfg.DBName), cfg.ResourcesCollection)
	if err != nil {
		return nil, fmt.Errorf("failed to create indexes: %v", err)
	}

	return client, nil
}

// createIndexes covers every category partition plus the query collection
func createIndexes(ctx context.Context, db *mongo.Database, resources string) error {
	names := make([]string, 0, len(models.AllCategories())+1)
	for _, c := range models.AllCategories() {
		names = append(names, c.Partition())
	}
	if resources != FederatedCollection {
		names = append(names, resources)
	}

	seen := make(map[string]bool, len(names))
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true
		if err := repository.EnsureIndexes(ctx, db.Collection(name)); err != nil {
			return err
		}
	}
	return nil
}
