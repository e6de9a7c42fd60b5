package storage

import (
	"context"
	"fmt"
	"time"

	"villa-importer/config"
	"villa-importer/utils"
)

// Open connects to the backend selected by cfg.Store.
func Open(ctx context.Context, cfg *config.Config, logger *utils.Logger) (DocumentStore, error) {
	retry := &utils.RetryConfig{
		MaxAttempts: cfg.ConnectRetries,
		BaseDelay:   time.Second,
		Logger:      logger,
	}

	switch cfg.Store {
	case config.StoreFirestore:
		logger.Info("[storage] Connecting to Firestore project %s", cfg.GCPProject)
		fs, err := NewFirestoreStore(ctx, cfg.GCPProject)
		if err != nil {
			return nil, err
		}
		return fs, nil
	case config.StoreMongo:
		logger.Info("[storage] Connecting to MongoDB database %s", cfg.MongoDB)
		ms, err := NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDB, retry)
		if err != nil {
			return nil, err
		}
		return ms, nil
	case config.StoreDynamoDB:
		logger.Info("[storage] Using DynamoDB (key attribute %q)", cfg.DynamoKey)
		ds, err := NewDynamoStore(ctx, cfg.DynamoRegion, cfg.DynamoEndpoint, cfg.DynamoKey)
		if err != nil {
			return nil, err
		}
		return ds, nil
	case config.StorePostgres:
		logger.Info("[storage] Connecting to PostgreSQL at %s:%s/%s",
			cfg.PostgresHost, cfg.PostgresPort, cfg.PostgresDB)
		ps, err := NewPostgresStore(ctx, cfg.DSN(), retry)
		if err != nil {
			return nil, err
		}
		return ps, nil
	case config.StoreMemory:
		logger.Warn("[storage] Using in-memory store, nothing will persist after exit")
		return NewMemoryStore(), nil
	}
	return nil, fmt.Errorf("storage: unknown store %q", cfg.Store)
}
