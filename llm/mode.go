package llm

import (
	"fmt"
	"strings"

	"github.com/hupe1980/canonify/provider"
)

// Mode selects the pairwise scoring behaviour.
type Mode string

const (
	// ModeStrict asks a binary "same quantity" question. Suited to unit standardisation.
	ModeStrict Mode = "strict"
	// ModeFast scores on a graded 0-1 scale with one deterministic sample.
	ModeFast Mode = "fast"
	// ModeReliable scores on the graded scale and takes the per-pair median over
	// several samples.
	ModeReliable Mode = "reliable"
)

// DefaultSamples is the number of samples per batch in reliable mode.
const DefaultSamples = 3

// ParseMode converts s into a Mode. The empty string means ModeFast.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeFast, nil
	case ModeStrict, ModeFast, ModeReliable:
		return m, nil
	default:
		return "", fmt.Errorf("invalid llm mode %q: must be strict, fast or reliable", s)
	}
}

// settings are the request parameters a mode implies.
type settings struct {
	model           string
	temperature     *float64
	reasoningEffort string
	binary          bool
	samples         int
}

func (m Mode) settings() settings {
	switch m {
	case ModeStrict:
		return settings{model: "gpt-5-mini", reasoningEffort: "low", binary: true, samples: 1}
	case ModeReliable:
		return settings{model: "gpt-5-mini", reasoningEffort: "low", samples: DefaultSamples}
	default:
		return settings{model: "gpt-4.1", temperature: provider.Float(0), samples: 1}
	}
}

// DefaultModel returns the model a mode uses when none is configured.
func (m Mode) DefaultModel() string { return m.settings().model }
