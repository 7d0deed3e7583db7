// Package sqlite stores embedding vectors in a SQLite database using the pure-Go
// modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"

	_ "modernc.org/sqlite"

	"github.com/hupe1980/canonify/embedcache"
)

var _ embedcache.Cache = (*Cache)(nil)

const schema = `CREATE TABLE IF NOT EXISTS embeddings (
	model  TEXT NOT NULL,
	value  TEXT NOT NULL,
	vector BLOB NOT NULL,
	PRIMARY KEY (model, value)
)`

// Cache implements embedcache.Cache on a SQLite table.
type Cache struct {
	db          *sql.DB
	compression embedcache.Compression
}

// Open opens (or creates) the database at path. Use ":memory:" for a throwaway cache.
func Open(ctx context.Context, path string) (*Cache, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// A single connection keeps ":memory:" databases coherent and serialises writers.
	db.SetMaxOpenConns(1)

	c, err := New(ctx, db)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return c, nil
}

// New creates the table if needed and returns a Cache using db.
func New(ctx context.Context, db *sql.DB) (*Cache, error) {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return nil, err
	}
	return &Cache{db: db, compression: embedcache.CompressionLZ4}, nil
}

// Get implements embedcache.Cache.
func (c *Cache) Get(ctx context.Context, key embedcache.Key) ([]float32, bool, error) {
	var block []byte
	err := c.db.QueryRowContext(ctx,
		`SELECT vector FROM embeddings WHERE model = ? AND value = ?`, key.Model, key.Value,
	).Scan(&block)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	vec, err := embedcache.DecodeVector(block)
	if err != nil {
		return nil, false, err
	}
	return vec, true, nil
}

// Put implements embedcache.Cache.
func (c *Cache) Put(ctx context.Context, key embedcache.Key, vec []float32) error {
	block, err := embedcache.EncodeVector(vec, c.compression)
	if err != nil {
		return err
	}
	_, err = c.db.ExecContext(ctx,
		`INSERT INTO embeddings (model, value, vector) VALUES (?, ?, ?)
		 ON CONFLICT (model, value) DO UPDATE SET vector = excluded.vector`,
		key.Model, key.Value, block,
	)
	return err
}

// Len returns the number of stored vectors.
func (c *Cache) Len(ctx context.Context) (int, error) {
	var n int
	err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM embeddings`).Scan(&n)
	return n, err
}

// Close closes the underlying database.
func (c *Cache) Close() error {
	return c.db.Close()
}
