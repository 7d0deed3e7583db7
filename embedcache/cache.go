// Package embedcache provides caller-owned caches for embedding vectors.
//
// The semantic similarity backend consults a Cache before calling the embedding
// provider and only fetches misses. Entries are keyed by (model, value), so a cache
// can be shared across columns, passes and runs.
//
// # Implementations
//
//   - NewLRU: bounded in-memory cache
//   - NewBlobCache: compressed vectors in any blobstore.Store (local, S3, MinIO)
//   - NewTiered: read-through combination, typically LRU in front of a remote tier
//   - dynamo.Cache: DynamoDB table
//   - sqlite.Cache: SQLite file
package embedcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
)

// Key identifies one embedding.
type Key struct {
	Model string
	Value string
}

// Hash returns a stable hex digest of the key, suitable as a storage key.
func (k Key) Hash() string {
	h := sha256.New()
	_, _ = h.Write([]byte(k.Model))
	_, _ = h.Write([]byte{0})
	_, _ = h.Write([]byte(k.Value))
	return hex.EncodeToString(h.Sum(nil))
}

// Cache stores embedding vectors.
//
// Implementations must be safe for concurrent use. Get returns ok=false on a miss;
// an error is reserved for backend failures. Returned slices must be treated as
// read-only.
type Cache interface {
	Get(ctx context.Context, key Key) (vec []float32, ok bool, err error)
	Put(ctx context.Context, key Key, vec []float32) error
}
