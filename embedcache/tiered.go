package embedcache

import "context"

var _ Cache = (*Tiered)(nil)

// Tiered reads through a list of caches in order. A hit in a lower tier is copied
// into every tier above it; Put writes to all tiers.
type Tiered struct {
	tiers []Cache
}

// NewTiered creates a read-through cache. The first tier should be the fastest.
func NewTiered(tiers ...Cache) *Tiered {
	return &Tiered{tiers: tiers}
}

// Get implements Cache.
func (t *Tiered) Get(ctx context.Context, key Key) ([]float32, bool, error) {
	for i, c := range t.tiers {
		vec, ok, err := c.Get(ctx, key)
		if err != nil {
			return nil, false, err
		}
		if !ok {
			continue
		}
		for _, upper := range t.tiers[:i] {
			if err := upper.Put(ctx, key, vec); err != nil {
				return nil, false, err
			}
		}
		return vec, true, nil
	}
	return nil, false, nil
}

// Put implements Cache.
func (t *Tiered) Put(ctx context.Context, key Key, vec []float32) error {
	for _, c := range t.tiers {
		if err := c.Put(ctx, key, vec); err != nil {
			return err
		}
	}
	return nil
}
