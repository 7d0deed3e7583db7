package column

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strp(s string) *string { return &s }

func TestFromPointers(t *testing.T) {
	c := FromPointers("city", []*string{strp("NYC"), nil, strp("Boston"), nil})

	assert.Equal(t, 4, c.Len())
	assert.Equal(t, 2, c.NullCount())
	assert.True(t, c.IsNull(1))
	assert.False(t, c.IsNull(0))

	v, ok := c.Value(2)
	assert.True(t, ok)
	assert.Equal(t, "Boston", v)

	_, ok = c.Value(3)
	assert.False(t, ok)
	assert.Equal(t, 2, c.Distinct())
}

func TestBuild(t *testing.T) {
	c := FromPointers("flag", []*string{strp("no"), strp("No"), nil, strp("no"), strp("NO"), strp("No"), strp("no")})
	vs := Build(c)

	require.Equal(t, 3, vs.Len())
	assert.Equal(t, []string{"no", "No", "NO"}, vs.Values())
	assert.Equal(t, []int{3, 2, 1}, vs.Counts())
	assert.Equal(t, 6, vs.Rows())

	e := vs.Entry(1)
	assert.Equal(t, 1, e.FirstRow)
	assert.Equal(t, []uint32{1, 5}, e.Rows.ToArray())

	i, ok := vs.Index("NO")
	assert.True(t, ok)
	assert.Equal(t, 2, i)
	assert.Equal(t, 0, vs.Count("nope"))
}

func TestBuild_Empty(t *testing.T) {
	vs := Build(FromPointers("empty", []*string{nil, nil}))
	assert.Equal(t, 0, vs.Len())
	assert.Empty(t, vs.Values())
}

func TestMapping_Apply(t *testing.T) {
	c := FromPointers("city", []*string{strp("NYC"), nil, strp("New York"), strp("nyc"), strp("Boston")})
	m := Mapping{"NYC": "New York", "nyc": "New York", "New York": "New York", "Unknown": "X"}

	out, changed := m.Apply(c)

	assert.Equal(t, 2, changed)
	assert.Equal(t, c.Len(), out.Len())
	assert.True(t, out.IsNull(1))
	assert.Equal(t, "New York", out.Values[0])
	assert.Equal(t, "New York", out.Values[3])
	assert.Equal(t, "Boston", out.Values[4])

	// Input snapshot is untouched.
	assert.Equal(t, "NYC", c.Values[0])
	assert.Equal(t, 3, m.Changes())
}

func TestMapping_ApplyIdentity(t *testing.T) {
	c := New("x", []string{"a", "b", "a"})
	out, changed := Mapping{"a": "a", "b": "b"}.Apply(c)
	assert.Equal(t, 0, changed)
	assert.Equal(t, c.Values, out.Values)
}
