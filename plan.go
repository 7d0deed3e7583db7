package canonify

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Plan is a named sequence of passes.
type Plan struct {
	Passes []PassConfig `yaml:"passes"`
}

// LoadPlan decodes a YAML plan. Unknown fields are rejected.
//
//	passes:
//	  - similarity: {method: character, fold_case: true}
//	    clustering: {method: hierarchical, threshold: 0.8}
//	    canonical: {strategy: most_frequent}
//	  - similarity: {method: semantic}
//	    clustering: {method: connected_components, threshold: 0.85}
func LoadPlan(r io.Reader) ([]PassConfig, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var p Plan
	if err := dec.Decode(&p); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, configErr(-1, "passes", "plan is empty", err)
		}
		return nil, configErr(-1, "plan", "cannot decode YAML", err)
	}
	if len(p.Passes) == 0 {
		return nil, configErr(-1, "passes", "plan has no passes", nil)
	}
	return p.Passes, nil
}

// LoadPlanFile reads a YAML plan from path.
func LoadPlanFile(path string) ([]PassConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open plan: %w", err)
	}
	defer f.Close()
	return LoadPlan(f)
}
