// Package codec centralizes JSON encoding for provider requests and structured LLM
// responses.
//
// Providers and the llm package never call encoding/json directly; they go through a
// Codec so that callers can swap the implementation (for example to the standard
// library codec when debugging decode differences).
package codec

// Codec encodes/decodes values.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// OrDefault returns c, or Default when c is nil.
func OrDefault(c Codec) Codec {
	if c == nil {
		return Default
	}
	return c
}
