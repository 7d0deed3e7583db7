package column

// Mapping rewrites original values to canonical values for one pass.
// Values missing from the mapping and null rows pass through unchanged.
type Mapping map[string]string

// Apply rewrites c and returns the new column and the number of rows that changed.
func (m Mapping) Apply(c Column) (Column, int) {
	return m.ApplyTo(c, Build(c))
}

// ApplyTo is like Apply but reuses a ValueSet already built from c.
// Only the rows of values that actually change are touched.
func (m Mapping) ApplyTo(c Column, vs *ValueSet) (Column, int) {
	out := c.Clone()
	changed := 0
	for _, e := range vs.entries {
		to, ok := m[e.Value]
		if !ok || to == e.Value {
			continue
		}
		it := e.Rows.Iterator()
		for it.HasNext() {
			out.Values[it.Next()] = to
		}
		changed += e.Count
	}
	return out, changed
}

// Changes returns the number of entries that map a value to a different one.
func (m Mapping) Changes() int {
	n := 0
	for from, to := range m {
		if from != to {
			n++
		}
	}
	return n
}
