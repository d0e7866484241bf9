// --- quizdeck-server/store/postgres.go ---
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres keeps each collection as one JSONB document row. It is the
// durable backend behind the Store interface; writes are whole-collection
// upserts, which makes autosave naturally idempotent.
type Postgres struct {
	pool *pgxpool.Pool
}

// Open initializes the PostgreSQL connection pool and verifies it.
func Open(ctx context.Context, connString string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, connString)
	if err != nil {
		return nil, fmt.Errorf("unable to create connection pool: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Println("Successfully connected to PostgreSQL database!")
	return &Postgres{pool: pool}, nil
}

// Close releases the underlying pool.
func (s *Postgres) Close() {
	s.pool.Close()
}

// CreateSchema sets up the collections table.
// In a production environment, use a proper migration tool (e.g., golang-migrate).
func (s *Postgres) CreateSchema(ctx context.Context) error {
	schemaSQL := `
	CREATE TABLE IF NOT EXISTS collections (
		name VARCHAR(255) PRIMARY KEY,
		data JSONB NOT NULL,
		updated_at TIMESTAMP WITH TIME ZONE DEFAULT CURRENT_TIMESTAMP
	);
	`
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("error executing schema SQL: %w", err)
	}
	return nil
}

// ReadAll loads the named collection into out. Missing collections read as empty.
func (s *Postgres) ReadAll(ctx context.Context, collection string, out any) error {
	var data []byte
	err := s.pool.QueryRow(ctx, `SELECT data FROM collections WHERE name = $1`, collection).Scan(&data)
	if errors.Is(err, pgx.ErrNoRows) {
		data = []byte("[]")
	} else if err != nil {
		return fmt.Errorf("failed to read collection %s: %w", collection, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("failed to decode collection %s: %w", collection, err)
	}
	return nil
}

// WriteAll replaces the named collection with records.
func (s *Postgres) WriteAll(ctx context.Context, collection string, records any) error {
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to encode collection %s: %w", collection, err)
	}
	_, err = s.pool.Exec(ctx, `
		INSERT INTO collections (name, data, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (name) DO UPDATE SET data = EXCLUDED.data, updated_at = NOW()
	`, collection, data)
	if err != nil {
		return fmt.Errorf("failed to write collection %s: %w", collection, err)
	}
	return nil
}
