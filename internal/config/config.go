// Package config defines the run configuration for the planning engine and
// loads it from YAML with environment variable interpolation and validation.
package config

import (
	"time"
)

// Config is the root configuration for a planning run.
type Config struct {
	Search    SearchConfig      `mapstructure:"search" yaml:"search" validate:"required"`
	Inventory InventoryConfig   `mapstructure:"inventory" yaml:"inventory" validate:"required"`
	Policy    PolicyConfig      `mapstructure:"policy" yaml:"policy"`
	Predictor []PredictorConfig `mapstructure:"predictor" yaml:"predictor" validate:"dive"`
	Output    OutputConfig      `mapstructure:"output" yaml:"output"`
	Logging   LoggingConfig     `mapstructure:"logging" yaml:"logging"`
	Tracing   TracingConfig     `mapstructure:"tracing" yaml:"tracing"`
}

// SearchConfig contains search strategy and budget settings.
type SearchConfig struct {
	// Strategy selects the search algorithm.
	Strategy string `mapstructure:"strategy" yaml:"strategy" validate:"oneof=best_first mcts breadth_first"`

	// MaxExpansionCalls is the expansion call budget for the run.
	MaxExpansionCalls int `mapstructure:"max_expansion_calls" yaml:"max_expansion_calls" validate:"min=1"`

	// TimeLimit is the wall-clock budget; zero disables it.
	TimeLimit time.Duration `mapstructure:"time_limit" yaml:"time_limit" validate:"min=0"`

	// ParallelLimit bounds concurrent expansion calls.
	ParallelLimit int `mapstructure:"parallel_limit" yaml:"parallel_limit" validate:"min=1,max=64"`

	// ExplorationConstant tunes the MCTS exploration term.
	ExplorationConstant float64 `mapstructure:"exploration_constant" yaml:"exploration_constant" validate:"min=0"`
}

// InventoryConfig contains purchasability lookup settings.
type InventoryConfig struct {
	// Type selects the inventory backend.
	Type string `mapstructure:"type" yaml:"type" validate:"oneof=memory sqlite"`

	// Path is the SQLite database file (sqlite type only).
	Path string `mapstructure:"path" yaml:"path"`

	// Molecules seeds an in-memory inventory (memory type only).
	Molecules []string `mapstructure:"molecules" yaml:"molecules,omitempty"`

	// MaxConnections bounds the SQLite connection pool.
	MaxConnections int `mapstructure:"max_connections" yaml:"max_connections" validate:"min=1,max=100"`

	// BusyTimeout is the SQLite busy timeout.
	BusyTimeout time.Duration `mapstructure:"busy_timeout" yaml:"busy_timeout" validate:"min=0"`

	// QueryTimeout bounds each purchasability lookup.
	QueryTimeout time.Duration `mapstructure:"query_timeout" yaml:"query_timeout" validate:"min=0"`
}

// PolicyConfig contains expansion policy settings shared by all predictors.
type PolicyConfig struct {
	// CallTimeout bounds each predictor call; zero disables it.
	CallTimeout time.Duration `mapstructure:"call_timeout" yaml:"call_timeout" validate:"min=0"`

	// CacheEnabled turns on per-molecule result caching.
	CacheEnabled bool `mapstructure:"cache_enabled" yaml:"cache_enabled"`

	// MaxRetries is the retry attempt count for failed predictor calls.
	MaxRetries int `mapstructure:"max_retries" yaml:"max_retries" validate:"min=0,max=10"`

	// BackoffStrategy selects how retry delays grow.
	BackoffStrategy string `mapstructure:"backoff_strategy" yaml:"backoff_strategy" validate:"oneof=constant linear exponential"`

	// InitialDelay is the delay before the first retry.
	InitialDelay time.Duration `mapstructure:"initial_delay" yaml:"initial_delay" validate:"min=0"`

	// MaxDelay caps exponential backoff delays.
	MaxDelay time.Duration `mapstructure:"max_delay" yaml:"max_delay" validate:"min=0"`

	// Multiplier is the exponential backoff growth factor.
	Multiplier float64 `mapstructure:"multiplier" yaml:"multiplier" validate:"min=1"`
}

// PredictorConfig describes one single-step predictor in the ensemble.
type PredictorConfig struct {
	// Name identifies the predictor in reaction provenance.
	Name string `mapstructure:"name" yaml:"name" validate:"required"`

	// Type selects the predictor implementation.
	Type string `mapstructure:"type" yaml:"type" validate:"oneof=template"`

	// Path is the template rule file (template type only).
	Path string `mapstructure:"path" yaml:"path" validate:"required"`

	// Weight scales the predictor's scores in the ensemble.
	Weight float64 `mapstructure:"weight" yaml:"weight" validate:"min=0,max=1"`
}

// OutputConfig contains route extraction and reporting settings.
type OutputConfig struct {
	// MaxRoutes bounds how many routes are extracted.
	MaxRoutes int `mapstructure:"max_routes" yaml:"max_routes" validate:"min=1"`

	// CostAggregation selects how reaction costs combine into route costs.
	CostAggregation string `mapstructure:"cost_aggregation" yaml:"cost_aggregation" validate:"oneof=sum max"`

	// DiverseCount selects a diverse subset of the extracted routes; zero
	// disables diversity selection.
	DiverseCount int `mapstructure:"diverse_count" yaml:"diverse_count" validate:"min=0"`

	// DiversityMetric selects the route distance used for diverse selection.
	DiversityMetric string `mapstructure:"diversity_metric" yaml:"diversity_metric" validate:"oneof=molecule_jaccard reaction_jaccard"`

	// Path is the routes JSON output file; empty writes to stdout.
	Path string `mapstructure:"path" yaml:"path"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level" validate:"oneof=debug info warn error"`
	Format string `mapstructure:"format" yaml:"format" validate:"oneof=json text"`
}

// TracingConfig contains tracing configuration.
type TracingConfig struct {
	Enabled  bool   `mapstructure:"enabled" yaml:"enabled"`
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`
}
