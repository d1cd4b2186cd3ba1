package storage

import (
	"context"
	"fmt"

	"github.com/dennisdiepolder/monti/calldesk/internal/config"
	"github.com/rs/zerolog"
)

// NewStore builds the backend selected by cfg.StoreMode
func NewStore(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (Store, error) {
	storeLogger := logger.With().Str("component", "storage").Str("mode", cfg.StoreMode).Logger()

	switch cfg.StoreMode {
	case "memory", "":
		storeLogger.Info().Msg("Using in-memory store")
		return NewMemoryStore(), nil
	case "sqlite":
		return NewSQLiteStore(ctx, cfg.SQLitePath, storeLogger)
	case "postgres":
		return NewPostgresStore(ctx, cfg.DatabaseURL, storeLogger)
	case "dynamodb":
		return NewDynamoDBStore(ctx, LoadDynamoConfig(), storeLogger)
	default:
		return nil, fmt.Errorf("unknown store mode %q", cfg.StoreMode)
	}
}
