package testutil

import (
	"context"
	"hash/fnv"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/canonify/provider"
)

var _ provider.Embedder = (*FakeEmbedder)(nil)

// FakeEmbedder returns deterministic embeddings. Values registered in the same group
// are embedded close to a shared centroid; any other value gets a random unit vector
// derived from its hash.
type FakeEmbedder struct {
	dim    int
	rng    *RNG
	vecs   map[string][]float32
	mu     sync.Mutex
	calls  atomic.Int64
	texts  atomic.Int64
	failN  atomic.Int64
	failFn func() error
}

// NewFakeEmbedder creates an embedder of the given dimension. Members of a group have
// pairwise cosine similarity close to 1.
func NewFakeEmbedder(dim int, seed int64, groups ...[]string) *FakeEmbedder {
	f := &FakeEmbedder{
		dim:  dim,
		rng:  NewRNG(seed),
		vecs: make(map[string][]float32),
	}
	for _, g := range groups {
		centroid := f.rng.UnitVector(dim)
		for _, v := range g {
			f.vecs[v] = f.rng.Jitter(centroid, 0.02)
		}
	}
	return f
}

// FailNext makes the next n calls return the error produced by fn.
func (f *FakeEmbedder) FailNext(n int, fn func() error) {
	f.mu.Lock()
	f.failFn = fn
	f.mu.Unlock()
	f.failN.Store(int64(n))
}

// Calls returns the number of Embed calls.
func (f *FakeEmbedder) Calls() int { return int(f.calls.Load()) }

// Texts returns the number of texts embedded.
func (f *FakeEmbedder) Texts() int { return int(f.texts.Load()) }

// Embed implements provider.Embedder.
func (f *FakeEmbedder) Embed(ctx context.Context, model string, texts []string) ([][]float32, error) {
	f.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if f.failN.Add(-1) >= 0 {
		f.mu.Lock()
		fn := f.failFn
		f.mu.Unlock()
		return nil, fn()
	}
	f.texts.Add(int64(len(texts)))

	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, ok := f.vecs[t]
		if !ok {
			h := fnv.New64a()
			_, _ = h.Write([]byte(t))
			v = NewRNG(int64(h.Sum64())).UnitVector(f.dim)
			f.vecs[t] = v
		}
		out[i] = append([]float32(nil), v...)
	}
	return out, nil
}
