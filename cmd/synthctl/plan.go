package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"

	"github.com/fiberleif/syntheseus/internal/chem"
	"github.com/fiberleif/syntheseus/internal/config"
	"github.com/fiberleif/syntheseus/internal/estimator"
	"github.com/fiberleif/syntheseus/internal/graph"
	"github.com/fiberleif/syntheseus/internal/observability"
	"github.com/fiberleif/syntheseus/internal/policy"
	"github.com/fiberleif/syntheseus/internal/route"
	"github.com/fiberleif/syntheseus/internal/search"
	"github.com/fiberleif/syntheseus/internal/types"
)

var planCmd = &cobra.Command{
	Use:   "plan <target-molecule>",
	Short: "Search for synthesis routes to a target molecule",
	Long: `Plan runs a budgeted retrosynthetic search for the target molecule and
reports the best routes found, ranked by cost. The run configuration
(strategy, budget, inventory, predictors) comes from the config file.`,
	Args: cobra.ExactArgs(1),
	RunE: runPlan,
}

// planReport is the JSON document the plan command emits.
type planReport struct {
	Target  string         `json:"target"`
	Result  *search.Result `json:"result"`
	Routes  []*route.Route `json:"routes,omitempty"`
	Diverse []*route.Route `json:"diverse_routes,omitempty"`
}

func runPlan(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.NewLoader(config.NewValidator()).LoadWithDefaults(configFile)
	if err != nil {
		return err
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}

	logger := observability.NewLogger(cfg.Logging, os.Stderr)

	tp, err := observability.InitTracing(ctx, cfg.Tracing)
	if err != nil {
		return err
	}
	defer func() {
		if err := observability.ShutdownTracing(context.Background(), tp); err != nil {
			logger.Warn("failed to shut down tracing", "error", err)
		}
	}()
	var tracer trace.Tracer
	if cfg.Tracing.Enabled {
		tracer = tp.Tracer("synthctl")
	}

	canon := chem.NewNormalizingCanonicalizer()
	target, err := canon.Canonicalize(args[0])
	if err != nil {
		return err
	}

	inventory, err := buildInventory(ctx, cfg.Inventory, canon)
	if err != nil {
		return err
	}
	defer inventory.Close()

	pol, err := buildPolicy(cfg, canon, logger, tracer)
	if err != nil {
		return err
	}

	strategy, err := search.NewStrategy(search.StrategyName(cfg.Search.Strategy), search.StrategyConfig{
		ExplorationConstant: cfg.Search.ExplorationConstant,
	})
	if err != nil {
		return err
	}

	budget, err := search.NewBudget(cfg.Search.MaxExpansionCalls, cfg.Search.TimeLimit)
	if err != nil {
		return err
	}

	g, err := graph.New(ctx, target, inventory, graph.WithLogger(logger))
	if err != nil {
		return err
	}

	est := estimator.NewPurchasabilityEstimator(1.0)
	runner, err := search.NewRunner(g, pol, est, strategy, budget,
		search.WithParallelism(cfg.Search.ParallelLimit),
		search.WithLogger(logger),
		search.WithTracer(tracer),
	)
	if err != nil {
		return err
	}

	result, runErr := runner.Run(ctx)
	if runErr != nil {
		logger.Warn("search interrupted", "error", runErr)
	}

	report := &planReport{
		Target: target.String(),
		Result: result,
	}

	if result.Outcome == search.OutcomeSolved {
		routes, err := route.Extract(g, cfg.Output.MaxRoutes, route.CostAggregation(cfg.Output.CostAggregation))
		if err != nil {
			return err
		}
		report.Routes = routes

		if cfg.Output.DiverseCount > 0 {
			diverse, err := route.DiversitySelect(routes, cfg.Output.DiverseCount, diversityMetric(cfg.Output.DiversityMetric))
			if err != nil {
				return err
			}
			report.Diverse = diverse
		}
	}

	return writeReport(cmd, cfg.Output.Path, report)
}

// buildInventory constructs the purchasability backend named by the config.
func buildInventory(ctx context.Context, cfg config.InventoryConfig, canon chem.Canonicalizer) (chem.Inventory, error) {
	switch cfg.Type {
	case "sqlite":
		sqliteCfg := chem.DefaultSQLiteInventoryConfig(cfg.Path)
		if cfg.MaxConnections > 0 {
			sqliteCfg.MaxOpenConns = cfg.MaxConnections
		}
		if cfg.BusyTimeout > 0 {
			sqliteCfg.BusyTimeout = cfg.BusyTimeout
		}
		if cfg.QueryTimeout > 0 {
			sqliteCfg.QueryTimeout = cfg.QueryTimeout
		}
		return chem.OpenSQLiteInventory(sqliteCfg)

	case "memory":
		mols, err := chem.CanonicalizeAll(canon, cfg.Molecules)
		if err != nil {
			return nil, err
		}
		return chem.NewMapInventory(mols...), nil

	default:
		return nil, types.NewError(types.CONFIG_VALIDATION_FAILED,
			fmt.Sprintf("unknown inventory type %q", cfg.Type))
	}
}

// buildPolicy loads the predictor ensemble and wraps it in an expansion
// policy with the configured retry, timeout, cache, and weights.
func buildPolicy(cfg *config.Config, canon chem.Canonicalizer, logger *slog.Logger, tracer trace.Tracer) (*policy.ExpansionPolicy, error) {
	if len(cfg.Predictor) == 0 {
		return nil, types.NewError(types.CONFIG_VALIDATION_FAILED, "at least one predictor must be configured")
	}

	predictors := make([]policy.Predictor, 0, len(cfg.Predictor))
	opts := []policy.PolicyOption{
		policy.WithLogger(logger),
		policy.WithRetryPolicy(policy.RetryPolicy{
			MaxRetries:      cfg.Policy.MaxRetries,
			BackoffStrategy: policy.BackoffStrategy(cfg.Policy.BackoffStrategy),
			InitialDelay:    cfg.Policy.InitialDelay,
			MaxDelay:        cfg.Policy.MaxDelay,
			Multiplier:      cfg.Policy.Multiplier,
		}),
	}

	for _, pc := range cfg.Predictor {
		switch pc.Type {
		case "template":
			p, err := policy.LoadTemplatePredictor(pc.Name, pc.Path, canon)
			if err != nil {
				return nil, err
			}
			predictors = append(predictors, p)
		default:
			return nil, types.NewError(types.CONFIG_VALIDATION_FAILED,
				fmt.Sprintf("unknown predictor type %q", pc.Type))
		}
		if pc.Weight > 0 {
			opts = append(opts, policy.WithPredictorWeight(pc.Name, pc.Weight))
		}
	}

	if cfg.Policy.CallTimeout > 0 {
		opts = append(opts, policy.WithCallTimeout(cfg.Policy.CallTimeout))
	}
	if cfg.Policy.CacheEnabled {
		opts = append(opts, policy.WithCache())
	}
	if tracer != nil {
		opts = append(opts, policy.WithTracer(tracer))
	}

	return policy.NewExpansionPolicy(predictors, opts...)
}

// diversityMetric maps the config metric name to a route distance.
func diversityMetric(name string) route.DistanceMetric {
	if name == "reaction_jaccard" {
		return route.ReactionJaccardDistance
	}
	return route.MoleculeJaccardDistance
}

// writeReport marshals the report to the output path, or to stdout when no
// path is configured.
func writeReport(cmd *cobra.Command, path string, report *planReport) error {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	if path == "" {
		cmd.OutOrStdout().Write(data)
		return nil
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write report to %q: %w", path, err)
	}
	cmd.PrintErrf("Report written to %s\n", path)
	return nil
}
