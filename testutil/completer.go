package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"golang.org/x/text/cases"

	"github.com/hupe1980/canonify/provider"
)

var _ provider.Completer = (*FakeLLM)(nil)

// FakeLLM answers the structured requests issued by the llm package. It dispatches on
// the request's schema name; a nil hook answers with an error.
type FakeLLM struct {
	// Score rates a pair for similarity_response requests.
	Score func(a, b string) float64
	// Group partitions values for value_groups requests.
	Group func(values []string) [][]int
	// Select returns a 1-based member number for canonical_selection requests.
	Select func(members []string) int
	// Propose returns a label for canonical_name requests.
	Propose func(members []string) string
	// Evaluate returns the raw JSON answer for cluster_evaluation requests.
	Evaluate func(round int, prompt string) string
	// Err, when set, is returned by every call.
	Err error

	mu       sync.Mutex
	requests []provider.Request
	evals    int
}

// Requests returns a copy of all requests received.
func (f *FakeLLM) Requests() []provider.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]provider.Request(nil), f.requests...)
}

// Count returns the number of requests for schema name.
func (f *FakeLLM) Count(schemaName string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, r := range f.requests {
		if r.SchemaName == schemaName {
			n++
		}
	}
	return n
}

// Complete implements provider.Completer.
func (f *FakeLLM) Complete(ctx context.Context, req provider.Request) (string, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if f.Err != nil {
		return "", f.Err
	}

	switch req.SchemaName {
	case "similarity_response":
		return f.scores(req)
	case "value_groups":
		if f.Group == nil {
			break
		}
		b, err := json.Marshal(map[string]any{"groups": f.Group(parseNumbered(req.User))})
		return string(b), err
	case "canonical_selection":
		if f.Select == nil {
			break
		}
		return fmt.Sprintf(`{"index": %d}`, f.Select(parseNumbered(req.User))), nil
	case "canonical_name":
		if f.Propose == nil {
			break
		}
		b, err := json.Marshal(map[string]string{
			"canonical": f.Propose(parseNumbered(req.User)),
			"reasoning": "test",
		})
		return string(b), err
	case "cluster_evaluation":
		if f.Evaluate == nil {
			break
		}
		f.mu.Lock()
		f.evals++
		round := f.evals
		f.mu.Unlock()
		return f.Evaluate(round, req.User), nil
	}
	return "", fmt.Errorf("fake llm: no hook for schema %q", req.SchemaName)
}

func (f *FakeLLM) scores(req provider.Request) (string, error) {
	if f.Score == nil {
		return "", fmt.Errorf("fake llm: no score hook")
	}
	var pairs []struct {
		Index int    `json:"index"`
		A     string `json:"a"`
		B     string `json:"b"`
	}
	if err := json.Unmarshal([]byte(req.User), &pairs); err != nil {
		return "", err
	}

	type score struct {
		Index      int     `json:"index"`
		Similarity float64 `json:"similarity"`
	}
	out := struct {
		Scores []score `json:"scores"`
	}{Scores: make([]score, 0, len(pairs))}
	for _, p := range pairs {
		out.Scores = append(out.Scores, score{Index: p.Index, Similarity: f.Score(p.A, p.B)})
	}
	b, err := json.Marshal(out)
	return string(b), err
}

var numberedLine = regexp.MustCompile(`^(\d+)\. (.*)$`)

// parseNumbered reads "N. value" lines into a slice ordered by line.
func parseNumbered(text string) []string {
	var out []string
	for _, line := range strings.Split(text, "\n") {
		m := numberedLine.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		if _, err := strconv.Atoi(m[1]); err != nil {
			continue
		}
		out = append(out, m[2])
	}
	return out
}

var folder = cases.Fold()

// ExactFold scores 1 when a and b are equal after case folding and whitespace
// removal, 0 otherwise.
func ExactFold(a, b string) float64 {
	norm := func(s string) string {
		return strings.Join(strings.Fields(folder.String(s)), "")
	}
	if norm(a) == norm(b) {
		return 1
	}
	return 0
}

// Longest selects the longest member (1-based), the first one on ties.
func Longest(members []string) int {
	best := 0
	for i, m := range members {
		if len(m) > len(members[best]) {
			best = i
		}
	}
	return best + 1
}
