package llm

import (
	"fmt"
	"strings"

	"github.com/hupe1980/canonify/provider"
)

// ExtractJSON returns the outermost JSON object in text. Models without structured
// output support tend to wrap the object in prose or code fences.
func ExtractJSON(text string) ([]byte, error) {
	start := strings.IndexByte(text, '{')
	end := strings.LastIndexByte(text, '}')
	if start < 0 || end < start {
		return nil, fmt.Errorf("%w: no JSON object in response", provider.ErrMalformedResponse)
	}
	return []byte(text[start : end+1]), nil
}
