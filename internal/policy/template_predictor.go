package policy

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/fiberleif/syntheseus/internal/chem"
	"github.com/fiberleif/syntheseus/internal/types"
)

// templateFile is the on-disk YAML schema for a template rule table.
type templateFile struct {
	Name      string          `yaml:"name"`
	Reactions []templateEntry `yaml:"reactions"`
}

type templateEntry struct {
	Product    string              `yaml:"product"`
	Candidates []templateCandidate `yaml:"candidates"`
}

type templateCandidate struct {
	Precursors []string `yaml:"precursors"`
	Score      float64  `yaml:"score"`
	TemplateID string   `yaml:"template_id"`
}

// TemplatePredictor is a rule-based Predictor backed by a static table
// mapping canonical products to ranked precursor sets. It is the offline
// predictor used by the CLI and by tests; neural predictors implement the
// same Predictor interface externally.
type TemplatePredictor struct {
	name  string
	rules map[chem.Molecule][]Prediction
}

// NewTemplatePredictor builds a TemplatePredictor from an in-memory rule set.
func NewTemplatePredictor(name string, rules map[chem.Molecule][]Prediction) *TemplatePredictor {
	if name == "" {
		name = "template"
	}
	return &TemplatePredictor{name: name, rules: rules}
}

// LoadTemplatePredictor reads a YAML rule table from path, canonicalizing
// every product and precursor with the given canonicalizer. A non-empty name
// overrides the name recorded in the file.
func LoadTemplatePredictor(name, path string, canon chem.Canonicalizer) (*TemplatePredictor, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, types.WrapError(types.CONFIG_LOAD_FAILED,
			fmt.Sprintf("failed to read template file %q", path), err)
	}

	var file templateFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, types.WrapError(types.CONFIG_PARSE_FAILED,
			fmt.Sprintf("failed to parse template file %q", path), err)
	}

	rules := make(map[chem.Molecule][]Prediction, len(file.Reactions))
	for _, entry := range file.Reactions {
		product, err := canon.Canonicalize(entry.Product)
		if err != nil {
			return nil, fmt.Errorf("template product %q: %w", entry.Product, err)
		}
		for _, cand := range entry.Candidates {
			precursors, err := chem.CanonicalizeAll(canon, cand.Precursors)
			if err != nil {
				return nil, fmt.Errorf("template candidate for %q: %w", entry.Product, err)
			}
			rules[product] = append(rules[product], Prediction{
				Precursors: precursors,
				Score:      cand.Score,
				TemplateID: cand.TemplateID,
			})
		}
	}

	if name == "" {
		name = file.Name
	}
	return NewTemplatePredictor(name, rules), nil
}

// Name implements Predictor.
func (p *TemplatePredictor) Name() string {
	return p.name
}

// Predict implements Predictor. Candidates are returned in table order; an
// unknown product yields no candidates.
func (p *TemplatePredictor) Predict(_ context.Context, product chem.Molecule) ([]Prediction, error) {
	return p.rules[product], nil
}

// RuleCount returns the number of products with at least one candidate.
func (p *TemplatePredictor) RuleCount() int {
	return len(p.rules)
}
