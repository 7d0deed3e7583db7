// Package column holds the immutable column snapshot the cleaning passes operate on,
// the per-pass ValueSet of distinct values and the Mapping that rewrites a column.
//
// A Column never changes in place. Every transform returns a new Column of the same
// length, so a failed pass can never leave a half-rewritten column behind:
//
//	col := column.New("country", []string{"NYC", "New York", "NYC"})
//	vs := column.Build(col)                    // distinct values, counts, row bitmaps
//	out, changed := column.Mapping{"NYC": "New York"}.ApplyTo(col, vs)
//
// Null rows are tracked in a roaring bitmap and pass through every mapping untouched.
package column
