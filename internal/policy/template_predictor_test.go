package policy

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fiberleif/syntheseus/internal/chem"
	"github.com/fiberleif/syntheseus/internal/types"
)

const templateYAML = `
name: uspto-50k
reactions:
  - product: "CCOC(=O)C"
    candidates:
      - precursors: ["CCO", "CC(=O)O"]
        score: 0.92
        template_id: esterification
      - precursors: ["CCBr", "CC(=O)[O-]"]
        score: 0.41
        template_id: alkylation
  - product: "CCO"
    candidates:
      - precursors: ["CC=O"]
        score: 0.85
        template_id: reduction
`

func writeTemplateFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "templates.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadTemplatePredictor(t *testing.T) {
	path := writeTemplateFile(t, templateYAML)

	p, err := LoadTemplatePredictor("", path, chem.NewNormalizingCanonicalizer())
	require.NoError(t, err)

	assert.Equal(t, "uspto-50k", p.Name())
	assert.Equal(t, 2, p.RuleCount())

	predictions, err := p.Predict(context.Background(), mol("CCOC(=O)C"))
	require.NoError(t, err)
	require.Len(t, predictions, 2)
	assert.Equal(t, 0.92, predictions[0].Score)
	assert.Equal(t, "esterification", predictions[0].TemplateID)
	require.Len(t, predictions[0].Precursors, 2)
	assert.Equal(t, "CCO", predictions[0].Precursors[0].String())
}

func TestLoadTemplatePredictor_NameOverride(t *testing.T) {
	path := writeTemplateFile(t, templateYAML)

	p, err := LoadTemplatePredictor("primary", path, chem.NewNormalizingCanonicalizer())
	require.NoError(t, err)
	assert.Equal(t, "primary", p.Name())
}

func TestLoadTemplatePredictor_MissingFile(t *testing.T) {
	_, err := LoadTemplatePredictor("", filepath.Join(t.TempDir(), "absent.yaml"), chem.NewNormalizingCanonicalizer())
	require.Error(t, err)
	assert.Equal(t, types.CONFIG_LOAD_FAILED, types.CodeOf(err))
}

func TestLoadTemplatePredictor_MalformedYAML(t *testing.T) {
	path := writeTemplateFile(t, "reactions: [unclosed")
	_, err := LoadTemplatePredictor("", path, chem.NewNormalizingCanonicalizer())
	require.Error(t, err)
	assert.Equal(t, types.CONFIG_PARSE_FAILED, types.CodeOf(err))
}

func TestLoadTemplatePredictor_InvalidMolecule(t *testing.T) {
	path := writeTemplateFile(t, `
name: bad
reactions:
  - product: ""
    candidates:
      - precursors: ["CCO"]
        score: 0.5
`)
	_, err := LoadTemplatePredictor("", path, chem.NewNormalizingCanonicalizer())
	require.Error(t, err)
	assert.Equal(t, types.MOLECULE_INVALID, types.CodeOf(err))
}

func TestTemplatePredictor_DefaultName(t *testing.T) {
	p := NewTemplatePredictor("", nil)
	assert.Equal(t, "template", p.Name())
}
