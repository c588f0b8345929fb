package config

import (
	"time"
)

// DefaultConfig returns a Config with sensible default values. The predictor
// list is intentionally empty: every run must name at least one predictor.
func DefaultConfig() *Config {
	return &Config{
		Search: SearchConfig{
			Strategy:            "best_first",
			MaxExpansionCalls:   100,
			TimeLimit:           10 * time.Minute,
			ParallelLimit:       1,
			ExplorationConstant: 1.0,
		},
		Inventory: InventoryConfig{
			Type:           "memory",
			MaxConnections: 10,
			BusyTimeout:    5 * time.Second,
			QueryTimeout:   5 * time.Second,
		},
		// Failed predictions are not retried unless a retry policy is
		// configured; the backoff fields only take effect with max_retries > 0.
		Policy: PolicyConfig{
			CallTimeout:     30 * time.Second,
			CacheEnabled:    true,
			MaxRetries:      0,
			BackoffStrategy: "exponential",
			InitialDelay:    100 * time.Millisecond,
			MaxDelay:        5 * time.Second,
			Multiplier:      2.0,
		},
		Output: OutputConfig{
			MaxRoutes:       5,
			CostAggregation: "sum",
			DiverseCount:    0,
			DiversityMetric: "molecule_jaccard",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Tracing: TracingConfig{
			Enabled:  false,
			Endpoint: "",
		},
	}
}
