package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fiberleif/syntheseus/internal/types"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultConfig_IsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, NewValidator().Validate(cfg))

	assert.Equal(t, "best_first", cfg.Search.Strategy)
	assert.Equal(t, 100, cfg.Search.MaxExpansionCalls)
	assert.Equal(t, 10*time.Minute, cfg.Search.TimeLimit)
	assert.Equal(t, 1, cfg.Search.ParallelLimit)
	assert.Equal(t, "memory", cfg.Inventory.Type)
	assert.Equal(t, 0, cfg.Policy.MaxRetries, "retries stay off unless explicitly configured")
	assert.Equal(t, 5, cfg.Output.MaxRoutes)
	assert.Equal(t, "sum", cfg.Output.CostAggregation)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
}

func TestLoader_Load(t *testing.T) {
	path := writeConfigFile(t, `
search:
  strategy: mcts
  max_expansion_calls: 50
  time_limit: 2m
  parallel_limit: 4
  exploration_constant: 1.5
inventory:
  type: memory
  molecules:
    - "c1"
    - "c2"
predictor:
  - name: template
    type: template
    path: rules.yaml
    weight: 0.8
output:
  max_routes: 3
  cost_aggregation: max
logging:
  level: debug
  format: text
`)

	cfg, err := NewLoader(NewValidator()).Load(path)
	require.NoError(t, err)

	assert.Equal(t, "mcts", cfg.Search.Strategy)
	assert.Equal(t, 50, cfg.Search.MaxExpansionCalls)
	assert.Equal(t, 2*time.Minute, cfg.Search.TimeLimit)
	assert.Equal(t, 4, cfg.Search.ParallelLimit)
	assert.Equal(t, 1.5, cfg.Search.ExplorationConstant)
	assert.Equal(t, []string{"c1", "c2"}, cfg.Inventory.Molecules)
	require.Len(t, cfg.Predictor, 1)
	assert.Equal(t, "template", cfg.Predictor[0].Name)
	assert.Equal(t, 0.8, cfg.Predictor[0].Weight)
	assert.Equal(t, 3, cfg.Output.MaxRoutes)
	assert.Equal(t, "max", cfg.Output.CostAggregation)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoader_PartialFileInheritsDefaults(t *testing.T) {
	path := writeConfigFile(t, `
search:
  strategy: breadth_first
`)

	cfg, err := NewLoader(NewValidator()).Load(path)
	require.NoError(t, err)

	assert.Equal(t, "breadth_first", cfg.Search.Strategy)
	assert.Equal(t, 100, cfg.Search.MaxExpansionCalls, "unset fields keep their defaults")
	assert.Equal(t, "memory", cfg.Inventory.Type)
	assert.Equal(t, 5, cfg.Output.MaxRoutes)
}

func TestLoader_EnvInterpolation(t *testing.T) {
	t.Setenv("STOCK_DB_PATH", "/var/lib/stock.db")

	path := writeConfigFile(t, `
inventory:
  type: sqlite
  path: ${STOCK_DB_PATH}
`)

	cfg, err := NewLoader(NewValidator()).Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/var/lib/stock.db", cfg.Inventory.Path)
}

func TestLoader_UnsetEnvVarLeftVerbatim(t *testing.T) {
	path := writeConfigFile(t, `
inventory:
  type: sqlite
  path: ${DEFINITELY_NOT_SET_STOCK_PATH}
`)

	cfg, err := NewLoader(NewValidator()).Load(path)
	require.NoError(t, err)
	assert.Equal(t, "${DEFINITELY_NOT_SET_STOCK_PATH}", cfg.Inventory.Path)
}

func TestLoader_MissingFile(t *testing.T) {
	loader := NewLoader(NewValidator())

	_, err := loader.Load(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
	assert.Equal(t, types.CONFIG_LOAD_FAILED, types.CodeOf(err))

	cfg, err := loader.LoadWithDefaults(filepath.Join(t.TempDir(), "missing.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoader_MalformedYAML(t *testing.T) {
	path := writeConfigFile(t, "search: [not a mapping")

	_, err := NewLoader(NewValidator()).Load(path)
	require.Error(t, err)
	assert.Equal(t, types.CONFIG_LOAD_FAILED, types.CodeOf(err))
}

func TestValidator_Rejections(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(cfg *Config)
		wantMsg string
	}{
		{
			name:    "unknown strategy",
			mutate:  func(cfg *Config) { cfg.Search.Strategy = "depth_first" },
			wantMsg: "search.strategy",
		},
		{
			name:    "zero expansion calls",
			mutate:  func(cfg *Config) { cfg.Search.MaxExpansionCalls = 0 },
			wantMsg: "search.max_expansion_calls",
		},
		{
			name:    "excess parallelism",
			mutate:  func(cfg *Config) { cfg.Search.ParallelLimit = 500 },
			wantMsg: "search.parallel_limit",
		},
		{
			name:    "unknown aggregation",
			mutate:  func(cfg *Config) { cfg.Output.CostAggregation = "median" },
			wantMsg: "output.cost_aggregation",
		},
		{
			name:    "sqlite inventory without path",
			mutate:  func(cfg *Config) { cfg.Inventory.Type = "sqlite" },
			wantMsg: "inventory.path",
		},
		{
			name: "diverse count beyond max routes",
			mutate: func(cfg *Config) {
				cfg.Output.DiverseCount = 10
				cfg.Output.MaxRoutes = 3
			},
			wantMsg: "output.diverse_count",
		},
		{
			name: "predictor without name",
			mutate: func(cfg *Config) {
				cfg.Predictor = []PredictorConfig{{Type: "template", Path: "rules.yaml", Weight: 1}}
			},
			wantMsg: "name",
		},
	}

	v := NewValidator()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)

			err := v.Validate(cfg)
			require.Error(t, err)
			assert.Equal(t, types.CONFIG_VALIDATION_FAILED, types.CodeOf(err))
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestValidator_NilConfig(t *testing.T) {
	err := NewValidator().Validate(nil)
	require.Error(t, err)
	assert.Equal(t, types.CONFIG_VALIDATION_FAILED, types.CodeOf(err))
}
