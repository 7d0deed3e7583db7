package similarity

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Method names a similarity backend.
type Method string

const (
	MethodCharacter Method = "character"
	MethodSemantic  Method = "semantic"
	MethodLLM       Method = "llm"
)

// ParseMethod validates s.
func ParseMethod(s string) (Method, error) {
	switch m := Method(s); m {
	case MethodCharacter, MethodSemantic, MethodLLM:
		return m, nil
	default:
		return "", fmt.Errorf("unknown similarity method %q", s)
	}
}

// Matrix is a symmetric similarity matrix with unit diagonal and entries in [0,1].
type Matrix struct {
	n   int
	sym *mat.SymDense
}

// NewMatrix returns an n×n matrix with 1 on the diagonal and 0 elsewhere.
func NewMatrix(n int) *Matrix {
	m := &Matrix{n: n}
	if n == 0 {
		return m
	}
	m.sym = mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		m.sym.SetSym(i, i, 1)
	}
	return m
}

// Identity is an alias of NewMatrix for readability at call sites.
func Identity(n int) *Matrix { return NewMatrix(n) }

// Len returns n.
func (m *Matrix) Len() int { return m.n }

// At returns the similarity of values i and j.
func (m *Matrix) At(i, j int) float64 { return m.sym.At(i, j) }

// Set stores v for (i,j) and (j,i), clamped to [0,1]. The diagonal is fixed at 1.
func (m *Matrix) Set(i, j int, v float64) {
	if i == j {
		return
	}
	switch {
	case math.IsNaN(v) || v < 0:
		v = 0
	case v > 1:
		v = 1
	}
	m.sym.SetSym(i, j, v)
}

// Symmetric exposes the underlying gonum matrix. It is nil for n == 0.
func (m *Matrix) Symmetric() mat.Symmetric {
	if m.sym == nil {
		return nil
	}
	return m.sym
}

// OffDiagonal returns the upper-triangle entries in row-major order.
func (m *Matrix) OffDiagonal() []float64 {
	if m.n < 2 {
		return nil
	}
	out := make([]float64, 0, m.n*(m.n-1)/2)
	for i := 0; i < m.n; i++ {
		for j := i + 1; j < m.n; j++ {
			out = append(out, m.sym.At(i, j))
		}
	}
	return out
}

// Summary describes the off-diagonal distribution.
type Summary struct {
	Min, Max, Median float64
}

// Summarize returns min, max and median of the off-diagonal entries. All fields are
// zero when n < 2.
func (m *Matrix) Summarize() Summary {
	vals := m.OffDiagonal()
	if len(vals) == 0 {
		return Summary{}
	}
	sort.Float64s(vals)
	s := Summary{Min: vals[0], Max: vals[len(vals)-1]}
	mid := len(vals) / 2
	if len(vals)%2 == 1 {
		s.Median = vals[mid]
	} else {
		s.Median = (vals[mid-1] + vals[mid]) / 2
	}
	return s
}
