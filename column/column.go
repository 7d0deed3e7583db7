package column

import (
	"slices"

	"github.com/RoaringBitmap/roaring/v2"
)

// Column is a snapshot of one categorical column.
//
// Values holds one entry per row. Rows listed in Nulls hold no value; whatever is
// stored in Values at those positions is ignored.
type Column struct {
	Name   string
	Values []string
	Nulls  *roaring.Bitmap
}

// New creates a column without null rows.
func New(name string, values []string) Column {
	return Column{Name: name, Values: values}
}

// FromPointers creates a column where nil entries are null rows.
func FromPointers(name string, values []*string) Column {
	c := Column{
		Name:   name,
		Values: make([]string, len(values)),
	}
	for i, v := range values {
		if v == nil {
			if c.Nulls == nil {
				c.Nulls = roaring.New()
			}
			c.Nulls.Add(uint32(i))
			continue
		}
		c.Values[i] = *v
	}
	return c
}

// Len returns the number of rows, including null rows.
func (c Column) Len() int { return len(c.Values) }

// IsNull reports whether row holds no value.
func (c Column) IsNull(row int) bool {
	return c.Nulls != nil && c.Nulls.Contains(uint32(row))
}

// Value returns the value at row. ok is false for null rows.
func (c Column) Value(row int) (string, bool) {
	if c.IsNull(row) {
		return "", false
	}
	return c.Values[row], true
}

// NullCount returns the number of null rows.
func (c Column) NullCount() int {
	if c.Nulls == nil {
		return 0
	}
	return int(c.Nulls.GetCardinality())
}

// Clone returns a deep copy of c.
func (c Column) Clone() Column {
	out := Column{
		Name:   c.Name,
		Values: slices.Clone(c.Values),
	}
	if c.Nulls != nil {
		out.Nulls = c.Nulls.Clone()
	}
	return out
}

// Distinct returns the number of distinct non-null values.
func (c Column) Distinct() int {
	seen := make(map[string]struct{})
	for i, v := range c.Values {
		if c.IsNull(i) {
			continue
		}
		seen[v] = struct{}{}
	}
	return len(seen)
}
