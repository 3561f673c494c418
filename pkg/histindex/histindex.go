// Package histindex silently records chat messages into a local SQLite index
// and answers fuzzy retrieval queries over it.
package histindex

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/zenfun/histindex/internal/executor"
	"github.com/zenfun/histindex/pkg/core"
)

// Config represents database configuration
type Config struct {
	Path      string         // Database file path, supplied by the hosting environment
	Workers   int            // Storage worker pool size (default 2)
	Threshold int            // Similarity threshold used when a query leaves it unset (default 70)
	ScoreFn   core.ScoreFunc // Similarity strategy (default: core.PartialRatio)
	Logger    zerolog.Logger // Structured logger (default: disabled)
}

// DefaultConfig returns default configuration for the given database path
func DefaultConfig(path string) Config {
	return Config{
		Path:      path,
		Workers:   executor.DefaultWorkers,
		Threshold: core.DefaultThreshold,
		ScoreFn:   core.PartialRatio,
		Logger:    zerolog.Nop(),
	}
}

// DB owns the durable store, the blocking-call boundary and the search
// service built on top of them.
type DB struct {
	store   *core.SQLiteStore
	pool    *executor.Pool
	service *core.Service
}

// Open creates the store, initializes the schema and wires the service. An
// initialization failure is fatal to the caller: a plugin that cannot open
// its index must not start.
func Open(ctx context.Context, config Config) (*DB, error) {
	store, err := core.NewStore(core.Config{
		Path:      config.Path,
		Threshold: config.Threshold,
		ScoreFn:   config.ScoreFn,
		Logger:    config.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create store: %w", err)
	}

	pool := executor.New(config.Workers)
	if err := pool.Do(func() error { return store.Init(ctx) }); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}

	return &DB{
		store:   store,
		pool:    pool,
		service: core.NewService(store, pool),
	}, nil
}

// Service returns the ingestion and retrieval engine.
func (db *DB) Service() *core.Service {
	return db.service
}

// Close drains in-flight storage work and closes the database.
func (db *DB) Close() error {
	db.pool.Close()
	return db.store.Close()
}
