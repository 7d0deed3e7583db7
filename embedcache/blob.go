package embedcache

import (
	"context"
	"errors"

	"github.com/hupe1980/canonify/blobstore"
)

var _ Cache = (*BlobCache)(nil)

// BlobCache stores each vector as one compressed blob named
// "<prefix><sha256(model, value)>".
type BlobCache struct {
	store       blobstore.Store
	prefix      string
	compression Compression
}

// BlobOption configures a BlobCache.
type BlobOption func(*BlobCache)

// WithPrefix sets the blob name prefix. Default "embeddings/".
func WithPrefix(p string) BlobOption {
	return func(c *BlobCache) { c.prefix = p }
}

// WithCompression sets the block compression. Default CompressionZSTD.
func WithCompression(comp Compression) BlobOption {
	return func(c *BlobCache) { c.compression = comp }
}

// NewBlobCache creates a cache on top of store.
func NewBlobCache(store blobstore.Store, optFns ...BlobOption) *BlobCache {
	c := &BlobCache{
		store:       store,
		prefix:      "embeddings/",
		compression: CompressionZSTD,
	}
	for _, fn := range optFns {
		fn(c)
	}
	return c
}

func (c *BlobCache) name(key Key) string { return c.prefix + key.Hash() }

// Get implements Cache.
func (c *BlobCache) Get(ctx context.Context, key Key) ([]float32, bool, error) {
	data, err := c.store.Get(ctx, c.name(key))
	if err != nil {
		if errors.Is(err, blobstore.ErrNotFound) {
			return nil, false, nil
		}
		return nil, false, err
	}
	vec, err := DecodeVector(data)
	if err != nil {
		return nil, false, err
	}
	return vec, true, nil
}

// Put implements Cache.
func (c *BlobCache) Put(ctx context.Context, key Key, vec []float32) error {
	data, err := EncodeVector(vec, c.compression)
	if err != nil {
		return err
	}
	return c.store.Put(ctx, c.name(key), data)
}
