package main

import (
	"context"
	"fmt"

	"task-api/internal/config"
	"task-api/internal/tasks"
)

func noopClose() error { return nil }

func openStore(ctx context.Context, cfg config.Config) (tasks.Store, func() error, error) {
	switch cfg.Store {
	case config.StoreMemory:
		return tasks.NewMemoryStore(), noopClose, nil
	case config.StoreSQLite:
		store, err := tasks.NewSQLiteStore(cfg.DSN, cfg.Table)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	case config.StoreMySQL:
		store, err := tasks.NewMySQLStore(ctx, cfg.DSN, cfg.Table)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	case config.StorePostgres:
		store, err := tasks.NewPostgresStore(ctx, cfg.DSN, cfg.Table)
		if err != nil {
			return nil, nil, err
		}
		return store, store.Close, nil
	case config.StoreDynamoDB:
		store, err := tasks.NewDynamoStoreFromEnv(ctx, cfg.Table, tasks.DynamoOptions{
			Region:   cfg.DynamoDB.Region,
			Endpoint: cfg.DynamoDB.Endpoint,
		})
		if err != nil {
			return nil, nil, err
		}
		return store, noopClose, nil
	default:
		return nil, nil, fmt.Errorf("unknown store %q", cfg.Store)
	}
}
