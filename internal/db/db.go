// Package db provides PostgreSQL storage for extracted claims.
package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DB wraps a PostgreSQL connection pool
type DB struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database
func Connect(ctx context.Context, databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{pool: pool}, nil
}

// Close closes the connection pool
func (db *DB) Close() {
	if db.pool != nil {
		db.pool.Close()
	}
}

// EnsureSchema creates the extraction table when it does not exist
func (db *DB) EnsureSchema(ctx context.Context) error {
	_, err := db.pool.Exec(ctx, schemaSQL)
	if err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// GetExtraction returns the stored claims payload for a cache key.
// A missing row yields (nil, false, nil).
func (db *DB) GetExtraction(ctx context.Context, cacheKey string) ([]byte, bool, error) {
	var payload []byte
	err := db.pool.QueryRow(ctx,
		`SELECT payload FROM claim_extractions WHERE cache_key = $1`,
		cacheKey,
	).Scan(&payload)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to get extraction: %w", err)
	}
	return payload, true, nil
}

// SaveExtraction upserts a claims payload. The last writer wins.
func (db *DB) SaveExtraction(ctx context.Context, cacheKey, kind string, payload []byte) error {
	_, err := db.pool.Exec(ctx,
		`INSERT INTO claim_extractions (cache_key, kind, payload)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (cache_key) DO UPDATE SET kind = $2, payload = $3, updated_at = NOW()`,
		cacheKey, kind, payload,
	)
	if err != nil {
		return fmt.Errorf("failed to save extraction: %w", err)
	}
	return nil
}

// GetExtractionRecord retrieves a full record including timestamps
func (db *DB) GetExtractionRecord(ctx context.Context, cacheKey string) (*ExtractionRecord, error) {
	var rec ExtractionRecord
	err := db.pool.QueryRow(ctx,
		`SELECT cache_key, kind, payload, created_at, updated_at
		 FROM claim_extractions WHERE cache_key = $1`,
		cacheKey,
	).Scan(&rec.CacheKey, &rec.Kind, &rec.Payload, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get extraction record: %w", err)
	}
	return &rec, nil
}

// DeleteExtraction removes a cached payload
func (db *DB) DeleteExtraction(ctx context.Context, cacheKey string) error {
	_, err := db.pool.Exec(ctx, `DELETE FROM claim_extractions WHERE cache_key = $1`, cacheKey)
	if err != nil {
		return fmt.Errorf("failed to delete extraction: %w", err)
	}
	return nil
}

// Extractions adapts the DB to the byte-oriented cache tier interface.
func (db *DB) Extractions() *ExtractionStore {
	return &ExtractionStore{db: db}
}

// ExtractionStore is a cache tier backed by the claim_extractions table.
type ExtractionStore struct {
	db *DB
}

// Name identifies the tier in logs and metrics
func (s *ExtractionStore) Name() string {
	return "postgres"
}

// Get implements the cache tier lookup
func (s *ExtractionStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return s.db.GetExtraction(ctx, key)
}

// Set implements the cache tier insert. The document kind is the key prefix.
func (s *ExtractionStore) Set(ctx context.Context, key string, value []byte) error {
	return s.db.SaveExtraction(ctx, key, KindFromKey(key), value)
}
