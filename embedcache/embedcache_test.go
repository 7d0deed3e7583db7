package embedcache

import (
	"context"
	"errors"
	"testing"

	"github.com/hupe1980/canonify/blobstore"
	"github.com/hupe1980/canonify/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKey_Hash(t *testing.T) {
	a := Key{Model: "m", Value: "NYC"}
	assert.Equal(t, a.Hash(), Key{Model: "m", Value: "NYC"}.Hash())
	assert.NotEqual(t, a.Hash(), Key{Model: "m2", Value: "NYC"}.Hash())
	// The separator keeps ("ab","c") and ("a","bc") apart.
	assert.NotEqual(t, Key{Model: "ab", Value: "c"}.Hash(), Key{Model: "a", Value: "bc"}.Hash())
	assert.Len(t, a.Hash(), 64)
}

func TestLRU(t *testing.T) {
	ctx := context.Background()
	c := NewLRU(2)

	_, ok, err := c.Get(ctx, Key{"m", "a"})
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, c.Put(ctx, Key{"m", "a"}, []float32{1}))
	require.NoError(t, c.Put(ctx, Key{"m", "b"}, []float32{2}))

	// Touch a so b is the eviction candidate.
	v, ok, _ := c.Get(ctx, Key{"m", "a"})
	assert.True(t, ok)
	assert.Equal(t, []float32{1}, v)

	require.NoError(t, c.Put(ctx, Key{"m", "c"}, []float32{3}))
	assert.Equal(t, 2, c.Len())

	_, ok, _ = c.Get(ctx, Key{"m", "b"})
	assert.False(t, ok)
	_, ok, _ = c.Get(ctx, Key{"m", "c"})
	assert.True(t, ok)

	hits, misses := c.Stats()
	assert.Equal(t, int64(2), hits)
	assert.Equal(t, int64(2), misses)
}

func TestLRU_CopiesInput(t *testing.T) {
	ctx := context.Background()
	c := NewLRU(0)
	vec := []float32{1, 2}
	require.NoError(t, c.Put(ctx, Key{"m", "a"}, vec))
	vec[0] = 9

	got, _, _ := c.Get(ctx, Key{"m", "a"})
	assert.Equal(t, []float32{1, 2}, got)
}

func TestEncodeDecode(t *testing.T) {
	vec := testutil.NewRNG(4711).UnitVector(256)
	sparse := make([]float32, 512) // compresses well

	for _, comp := range []Compression{CompressionNone, CompressionLZ4, CompressionZSTD} {
		for _, v := range [][]float32{vec, sparse, {}} {
			block, err := EncodeVector(v, comp)
			require.NoError(t, err)
			got, err := DecodeVector(block)
			require.NoError(t, err)
			assert.Equal(t, len(v), len(got))
			assert.Equal(t, v, got[:len(v)])
		}
	}

	block, err := EncodeVector(sparse, CompressionZSTD)
	require.NoError(t, err)
	assert.Less(t, len(block), 4*len(sparse))
	assert.Equal(t, byte(CompressionZSTD), block[0])
}

func TestDecodeVector_Corrupt(t *testing.T) {
	_, err := DecodeVector([]byte{1, 2})
	assert.ErrorIs(t, err, ErrCorrupt)

	block, err := EncodeVector([]float32{1, 2, 3}, CompressionNone)
	require.NoError(t, err)
	_, err = DecodeVector(block[:len(block)-1])
	assert.ErrorIs(t, err, ErrCorrupt)

	block[0] = 7
	_, err = DecodeVector(block)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestBlobCache(t *testing.T) {
	ctx := context.Background()
	store := blobstore.NewMemoryStore()
	c := NewBlobCache(store, WithPrefix("emb/"), WithCompression(CompressionLZ4))

	key := Key{Model: "text-embedding-3-small", Value: "New York"}
	_, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.False(t, ok)

	vec := []float32{0.6, 0.8}
	require.NoError(t, c.Put(ctx, key, vec))

	got, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, vec, got)

	names, err := store.List(ctx, "emb/")
	require.NoError(t, err)
	assert.Equal(t, []string{"emb/" + key.Hash()}, names)
}

func TestBlobCache_LocalStore(t *testing.T) {
	ctx := context.Background()
	c := NewBlobCache(blobstore.NewLocalStore(t.TempDir()))

	key := Key{Model: "m", Value: "Boston"}
	require.NoError(t, c.Put(ctx, key, []float32{1, 0, 0}))

	got, ok, err := c.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []float32{1, 0, 0}, got)
}

type failingCache struct{ err error }

func (f failingCache) Get(context.Context, Key) ([]float32, bool, error) { return nil, false, f.err }
func (f failingCache) Put(context.Context, Key, []float32) error        { return f.err }

func TestTiered(t *testing.T) {
	ctx := context.Background()
	l1 := NewLRU(10)
	l2 := NewBlobCache(blobstore.NewMemoryStore())
	tiered := NewTiered(l1, l2)

	key := Key{"m", "x"}
	require.NoError(t, l2.Put(ctx, key, []float32{1}))

	got, ok, err := tiered.Get(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []float32{1}, got)

	// Promoted into l1.
	_, ok, _ = l1.Get(ctx, key)
	assert.True(t, ok)

	require.NoError(t, tiered.Put(ctx, Key{"m", "y"}, []float32{2}))
	_, ok, _ = l2.Get(ctx, Key{"m", "y"})
	assert.True(t, ok)

	_, ok, err = NewTiered(l1).Get(ctx, Key{"m", "missing"})
	require.NoError(t, err)
	assert.False(t, ok)

	boom := errors.New("boom")
	_, _, err = NewTiered(failingCache{boom}).Get(ctx, key)
	assert.ErrorIs(t, err, boom)
}
