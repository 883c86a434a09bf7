// Package storage provides the key/value "local storage" that holds the
// persisted session record, with interchangeable backends.
package storage

import (
	"context"
	"fmt"

	"snapgram/internal/config"
	"snapgram/internal/observability"
)

// SessionKey is the key under which the logged-in user is persisted.
const SessionKey = "instagram_user"

// LocalStorage is a string key/value store. GetItem reports ok=false for a
// missing key; RemoveItem on a missing key is not an error.
type LocalStorage interface {
	GetItem(ctx context.Context, key string) (string, bool, error)
	SetItem(ctx context.Context, key, value string) error
	RemoveItem(ctx context.Context, key string) error
	Close() error
}

// Open builds the backend selected by cfg.StorageDriver.
func Open(ctx context.Context, cfg *config.Config) (LocalStorage, error) {
	switch cfg.StorageDriver {
	case "", config.DriverMemory:
		return NewMemory(), nil
	case config.DriverFile:
		return NewFile(cfg.StoragePath)
	case config.DriverRedis:
		return NewRedis(ctx, cfg.RedisURL, "snapgram:")
	case config.DriverSQLite:
		return OpenSQLite(ctx, cfg.StoragePath)
	case config.DriverPostgres:
		return OpenPostgres(ctx, cfg.DatabaseURL)
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.StorageDriver)
	}
}

func recordError(driver, op string, err error) error {
	if err != nil {
		observability.SessionStoreErrors.WithLabelValues(driver, op).Inc()
	}
	return err
}
