package column

import "github.com/RoaringBitmap/roaring/v2"

// Entry describes one distinct value of a column.
type Entry struct {
	Value    string
	Count    int
	FirstRow int
	Rows     *roaring.Bitmap
}

// ValueSet is the set of distinct non-null values of a column, in order of first
// occurrence. It is rebuilt from the current column state at the start of every pass.
type ValueSet struct {
	entries []Entry
	index   map[string]int
}

// Build derives the ValueSet of c.
func Build(c Column) *ValueSet {
	vs := &ValueSet{index: make(map[string]int)}
	for row, v := range c.Values {
		if c.IsNull(row) {
			continue
		}
		i, ok := vs.index[v]
		if !ok {
			i = len(vs.entries)
			vs.index[v] = i
			vs.entries = append(vs.entries, Entry{
				Value:    v,
				FirstRow: row,
				Rows:     roaring.New(),
			})
		}
		vs.entries[i].Count++
		vs.entries[i].Rows.Add(uint32(row))
	}
	return vs
}

// Len returns the number of distinct values.
func (vs *ValueSet) Len() int { return len(vs.entries) }

// Entry returns the i-th distinct value.
func (vs *ValueSet) Entry(i int) Entry { return vs.entries[i] }

// Values returns the distinct values in first-occurrence order.
func (vs *ValueSet) Values() []string {
	out := make([]string, len(vs.entries))
	for i, e := range vs.entries {
		out[i] = e.Value
	}
	return out
}

// Counts returns the occurrence counts aligned with Values.
func (vs *ValueSet) Counts() []int {
	out := make([]int, len(vs.entries))
	for i, e := range vs.entries {
		out[i] = e.Count
	}
	return out
}

// Index returns the position of v in the set.
func (vs *ValueSet) Index(v string) (int, bool) {
	i, ok := vs.index[v]
	return i, ok
}

// Count returns how often v occurs. Unknown values count zero.
func (vs *ValueSet) Count(v string) int {
	if i, ok := vs.index[v]; ok {
		return vs.entries[i].Count
	}
	return 0
}

// Rows returns the total number of non-null rows covered by the set.
func (vs *ValueSet) Rows() int {
	total := 0
	for _, e := range vs.entries {
		total += e.Count
	}
	return total
}
