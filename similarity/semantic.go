package similarity

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/canonify/distance"
	"github.com/hupe1980/canonify/embedcache"
	"github.com/hupe1980/canonify/provider"
	"github.com/hupe1980/canonify/resource"
)

// DefaultEmbeddingModel is used when Semantic.Model is empty.
const DefaultEmbeddingModel = "text-embedding-3-small"

// DefaultEmbedBatchSize is the number of texts per embedding request.
const DefaultEmbedBatchSize = 256

var _ Backend = (*Semantic)(nil)

// Semantic scores pairs by cosine similarity of embeddings.
type Semantic struct {
	Embedder   provider.Embedder
	Model      string
	BatchSize  int
	Cache      embedcache.Cache
	Controller *resource.Controller
	Logger     *slog.Logger

	// OnCall is invoked after each embedding request.
	OnCall Observer
	// OnCacheLookup is invoked for every cache lookup.
	OnCacheLookup func(hit bool)
}

// Method implements Backend.
func (*Semantic) Method() Method { return MethodSemantic }

func (s *Semantic) model() string {
	if s.Model == "" {
		return DefaultEmbeddingModel
	}
	return s.Model
}

// Compute implements Backend. Cached vectors are used first; misses are embedded in
// concurrent batches and all batches complete before any similarity is computed.
func (s *Semantic) Compute(ctx context.Context, values []string) (*Matrix, error) {
	n := len(values)
	if n < 2 {
		return Identity(n), nil
	}

	vecs, err := s.Embed(ctx, values)
	if err != nil {
		return nil, err
	}

	normed := make([][]float32, n)
	dim := len(vecs[0])
	for i, v := range vecs {
		if len(v) != dim {
			return nil, fmt.Errorf("embedding dimension mismatch: %q has %d, want %d", values[i], len(v), dim)
		}
		normed[i], _ = distance.NormalizeL2Copy(v)
	}

	m := NewMatrix(n)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			m.Set(i, j, float64(distance.Dot(normed[i], normed[j])))
		}
	}
	return m, nil
}

// Embed returns one vector per value, consulting the cache first.
func (s *Semantic) Embed(ctx context.Context, values []string) ([][]float32, error) {
	if s.Embedder == nil {
		return nil, fmt.Errorf("semantic similarity requires an embedder")
	}
	model := s.model()
	vecs := make([][]float32, len(values))

	var misses []int
	for i, v := range values {
		if s.Cache != nil {
			vec, ok, err := s.Cache.Get(ctx, embedcache.Key{Model: model, Value: v})
			if err != nil {
				s.logger().WarnContext(ctx, "embedding cache lookup failed", "error", err)
			}
			if s.OnCacheLookup != nil {
				s.OnCacheLookup(ok)
			}
			if ok {
				vecs[i] = vec
				continue
			}
		}
		misses = append(misses, i)
	}

	if len(misses) == 0 {
		return vecs, nil
	}

	size := s.BatchSize
	if size <= 0 {
		size = DefaultEmbedBatchSize
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(1, s.Controller.MaxConcurrentCalls()))

	for start := 0; start < len(misses); start += size {
		batch := misses[start:min(start+size, len(misses))]
		g.Go(func() error {
			texts := make([]string, len(batch))
			for k, idx := range batch {
				texts[k] = values[idx]
			}

			begin := time.Now()
			var out [][]float32
			err := s.Controller.Do(gctx, "embed", func(ctx context.Context) error {
				res, err := s.Embedder.Embed(ctx, model, texts)
				if err != nil {
					return err
				}
				if len(res) != len(texts) {
					return resource.Permanent(fmt.Errorf("%w: got %d embeddings for %d inputs",
						provider.ErrMalformedResponse, len(res), len(texts)))
				}
				out = res
				return nil
			})
			err = provider.Wrap("embed", model, err)
			if s.OnCall != nil {
				s.OnCall("embed", time.Since(begin), err)
			}
			if err != nil {
				return err
			}

			for k, idx := range batch {
				vecs[idx] = out[k]
			}
			return nil
		})
	}

	// Barrier: no similarity is computed until every batch has returned.
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if s.Cache != nil {
		for _, idx := range misses {
			if err := s.Cache.Put(ctx, embedcache.Key{Model: model, Value: values[idx]}, vecs[idx]); err != nil {
				s.logger().WarnContext(ctx, "embedding cache write failed", "error", err)
				break
			}
		}
	}
	return vecs, nil
}

func (s *Semantic) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.New(slog.DiscardHandler)
}
