// Package queue provides the priority queue used by agglomerative clustering.
package queue

// Item is a candidate merge between clusters A and B (A < B).
type Item struct {
	A, B  int
	Score float64

	// Versions of A and B when the item was pushed. Used for lazy invalidation.
	VA, VB uint32
}

// Epsilon is the tolerance under which two scores are considered equal.
const Epsilon = 1e-9

// PairQueue is a max-heap of Items. Scores within Epsilon of each other are ordered
// by the lowest (A, B) pair.
type PairQueue struct {
	items []Item
}

// New returns a queue with the given capacity.
func New(capacity int) *PairQueue {
	return &PairQueue{items: make([]Item, 0, capacity)}
}

// Len returns the number of queued items.
func (pq *PairQueue) Len() int { return len(pq.items) }

// Push inserts an item while maintaining the heap invariant.
func (pq *PairQueue) Push(item Item) {
	pq.items = append(pq.items, item)
	pq.siftUp(len(pq.items) - 1)
}

// Top returns the best item without removing it.
func (pq *PairQueue) Top() (Item, bool) {
	if len(pq.items) == 0 {
		return Item{}, false
	}
	return pq.items[0], true
}

// Pop removes and returns the best item.
func (pq *PairQueue) Pop() (Item, bool) {
	n := len(pq.items)
	if n == 0 {
		return Item{}, false
	}
	root := pq.items[0]
	last := pq.items[n-1]
	pq.items = pq.items[:n-1]
	if n-1 > 0 {
		pq.items[0] = last
		pq.siftDown(0)
	}
	return root, true
}

// Reset clears the queue for reuse.
func (pq *PairQueue) Reset() {
	pq.items = pq.items[:0]
}

func (pq *PairQueue) less(i, j int) bool {
	return Before(pq.items[i], pq.items[j])
}

// Before reports whether x is popped before y.
func Before(x, y Item) bool {
	if d := x.Score - y.Score; d > Epsilon || d < -Epsilon {
		return d > 0
	}
	if x.A != y.A {
		return x.A < y.A
	}
	return x.B < y.B
}

func (pq *PairQueue) siftUp(i int) {
	for i > 0 {
		p := (i - 1) / 2
		if !pq.less(i, p) {
			return
		}
		pq.items[i], pq.items[p] = pq.items[p], pq.items[i]
		i = p
	}
}

func (pq *PairQueue) siftDown(i int) {
	n := len(pq.items)
	for {
		l := 2*i + 1
		if l >= n {
			return
		}
		best := l
		r := l + 1
		if r < n && pq.less(r, l) {
			best = r
		}
		if !pq.less(best, i) {
			return
		}
		pq.items[i], pq.items[best] = pq.items[best], pq.items[i]
		i = best
	}
}
