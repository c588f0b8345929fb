package search

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fiberleif/syntheseus/internal/estimator"
	"github.com/fiberleif/syntheseus/internal/graph"
	"github.com/fiberleif/syntheseus/internal/policy"
	"github.com/fiberleif/syntheseus/internal/types"
)

// Outcome is the terminal state of a search run.
type Outcome string

const (
	// OutcomeSolved means the root molecule was solved within budget.
	OutcomeSolved Outcome = "solved"
	// OutcomeBudgetExhausted means the call or time budget ran out first.
	// An external stop signal is also reported as OutcomeBudgetExhausted,
	// together with the context error.
	OutcomeBudgetExhausted Outcome = "budget_exhausted"
	// OutcomeUnsolvable means the frontier emptied with the root unsolved.
	OutcomeUnsolvable Outcome = "unsolvable"
)

// Result summarizes a finished search run.
type Result struct {
	// RunID uniquely identifies the run.
	RunID types.ID `json:"run_id"`

	// Outcome is the terminal state.
	Outcome Outcome `json:"outcome"`

	// CallsMade is the number of expansion-policy calls consumed.
	CallsMade int `json:"calls_made"`

	// MoleculesCreated and ReactionsCreated count the graph nodes built.
	MoleculesCreated int `json:"molecules_created"`
	ReactionsCreated int `json:"reactions_created"`

	// Iterations is the number of selection/expansion/update cycles run.
	Iterations int `json:"iterations"`

	// Elapsed is the wall-clock duration of the run.
	Elapsed time.Duration `json:"elapsed"`
}

// Runner drives one search run: it repeatedly asks the strategy for frontier
// molecules, expands them through the policy, links results into the graph,
// and re-propagates costs and solved status until a terminal outcome.
//
// Expansion calls for independent molecules may run concurrently (bounded by
// the parallelism limit); all graph mutation happens serially in the runner
// goroutine after each batch joins, preserving the dedup and cycle-freedom
// invariants. Each Runner owns its Graph; runs share no state.
type Runner struct {
	graph     *graph.Graph
	policy    *policy.ExpansionPolicy
	estimator estimator.Estimator
	strategy  Strategy
	budget    *Budget
	parallel  int
	logger    *slog.Logger
	tracer    trace.Tracer
}

// RunnerOption is a functional option for configuring a Runner.
type RunnerOption func(*Runner)

// WithParallelism bounds how many independent expansion calls may be in
// flight at once. A limit of 1 (the default) gives fully serial execution.
func WithParallelism(n int) RunnerOption {
	return func(r *Runner) {
		if n > 0 {
			r.parallel = n
		}
	}
}

// WithLogger configures the runner to use the specified structured logger.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithTracer configures the runner to emit spans for the run and each
// iteration batch.
func WithTracer(tracer trace.Tracer) RunnerOption {
	return func(r *Runner) {
		r.tracer = tracer
	}
}

// NewRunner creates a Runner over a seeded graph. All collaborators are
// required except the options.
func NewRunner(g *graph.Graph, pol *policy.ExpansionPolicy, est estimator.Estimator, strat Strategy, budget *Budget, opts ...RunnerOption) (*Runner, error) {
	if g == nil || pol == nil || est == nil || strat == nil || budget == nil {
		return nil, types.NewError(types.CONFIG_VALIDATION_FAILED,
			"runner requires a graph, expansion policy, estimator, strategy, and budget")
	}

	r := &Runner{
		graph:     g,
		policy:    pol,
		estimator: est,
		strategy:  strat,
		budget:    budget,
		parallel:  1,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// expansionResult carries one worker's policy output back to the runner.
type expansionResult struct {
	candidates []policy.Candidate
	err        error
}

// Run executes the search until the root is solved, the budget is exhausted,
// or the frontier empties. The returned Result is always populated; the error
// is non-nil only when the context was cancelled (the run stops at the next
// iteration boundary after any in-flight predictor calls complete).
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	runID := types.NewID()

	if r.tracer != nil {
		var span trace.Span
		ctx, span = r.tracer.Start(ctx, "search.run",
			trace.WithAttributes(
				attribute.String("run.id", runID.String()),
				attribute.String("run.strategy", string(r.strategy.Name())),
				attribute.String("run.target", r.graph.Root().Molecule.String()),
			),
		)
		defer span.End()
	}

	r.logger.InfoContext(ctx, "starting search run",
		"run_id", runID,
		"strategy", r.strategy.Name(),
		"target", r.graph.Root().Molecule.String(),
		"parallelism", r.parallel,
	)

	r.budget.Start()
	iterations := 0

	for {
		if r.graph.IsSolved() {
			return r.finish(ctx, runID, OutcomeSolved, iterations), nil
		}
		if err := ctx.Err(); err != nil {
			return r.finish(ctx, runID, OutcomeBudgetExhausted, iterations), err
		}
		if r.budget.TimeExceeded() {
			return r.finish(ctx, runID, OutcomeBudgetExhausted, iterations), nil
		}

		batch, budgetRefused := r.selectBatch()
		if len(batch) == 0 {
			if budgetRefused {
				return r.finish(ctx, runID, OutcomeBudgetExhausted, iterations), nil
			}
			return r.finish(ctx, runID, OutcomeUnsolvable, iterations), nil
		}

		results := r.expandBatch(ctx, batch)
		r.applyBatch(ctx, batch, results)
		iterations++
	}
}

// selectBatch asks the strategy for up to `parallel` distinct frontier
// molecules, consuming one budget call per selection. Selected nodes are
// marked expanded immediately so repeated SelectNext calls cannot return
// them again. budgetRefused reports that selection stopped because the call
// budget ran out rather than because the frontier emptied.
func (r *Runner) selectBatch() (batch []*graph.MoleculeNode, budgetRefused bool) {
	for len(batch) < r.parallel {
		node := r.strategy.SelectNext(r.graph)
		if node == nil {
			break
		}
		if !r.budget.TryConsumeCall() {
			budgetRefused = true
			break
		}
		node.Expanded = true
		batch = append(batch, node)
	}
	return batch, budgetRefused
}

// expandBatch runs the policy for each batch molecule, in parallel bounded by
// a semaphore. Results are indexed by batch position so the later serial
// update phase processes them in selection order regardless of completion
// order.
func (r *Runner) expandBatch(ctx context.Context, batch []*graph.MoleculeNode) []expansionResult {
	results := make([]expansionResult, len(batch))

	sem := make(chan struct{}, r.parallel)
	var wg sync.WaitGroup

	for i, node := range batch {
		wg.Add(1)
		sem <- struct{}{}

		go func(i int, n *graph.MoleculeNode) {
			defer wg.Done()
			defer func() { <-sem }()

			candidates, err := r.policy.Expand(ctx, n.Molecule)
			results[i] = expansionResult{candidates: candidates, err: err}
		}(i, node)
	}

	wg.Wait()
	return results
}

// applyBatch links each expansion's candidates into the graph, estimates the
// cost of newly created molecules, propagates solved status, and notifies the
// strategy. All mutation is serial, in selection order.
func (r *Runner) applyBatch(ctx context.Context, batch []*graph.MoleculeNode, results []expansionResult) {
	for i, node := range batch {
		res := results[i]

		if res.err != nil {
			if ctx.Err() != nil {
				// Cancelled mid-call: leave the molecule selectable so the
				// graph stays consistent for inspection.
				node.Expanded = false
				continue
			}
			r.logger.WarnContext(ctx, "expansion failed, marking molecule exhausted",
				"molecule", node.Molecule.String(),
				"error", res.err,
			)
			node.Exhausted = true
			r.strategy.OnExpanded(ctx, r.graph, node, nil)
			continue
		}

		molsBefore := r.graph.MoleculeCount()
		var created []*graph.ReactionNode

		for _, cand := range res.candidates {
			reaction, err := r.graph.AddReaction(ctx, node, cand.Precursors, cand.Score, cand.Metadata)
			if err != nil {
				if types.CodeOf(err) == types.CYCLE_DETECTED {
					r.logger.DebugContext(ctx, "skipping cyclic reaction candidate",
						"molecule", node.Molecule.String(),
						"predictor", cand.Metadata.PredictorName,
						"rank", cand.Metadata.Rank,
					)
				} else {
					r.logger.WarnContext(ctx, "skipping malformed reaction candidate",
						"molecule", node.Molecule.String(),
						"error", err,
					)
				}
				continue
			}
			created = append(created, reaction)
		}

		if len(node.ReactionChildren) == 0 {
			node.Exhausted = true
		}

		// Estimate every molecule the batch item created, then propagate
		// solved status from each new reaction.
		for _, m := range r.graph.Molecules()[molsBefore:] {
			if !m.Purchasable {
				m.CostEstimate = r.estimator.Estimate(ctx, m)
			}
		}
		for _, reaction := range created {
			r.graph.UpdateSolvedFromReaction(reaction)
		}

		r.strategy.OnExpanded(ctx, r.graph, node, created)
	}
}

// finish assembles the run result and logs the terminal diagnostics.
func (r *Runner) finish(ctx context.Context, runID types.ID, outcome Outcome, iterations int) *Result {
	result := &Result{
		RunID:            runID,
		Outcome:          outcome,
		CallsMade:        r.budget.CallsMade(),
		MoleculesCreated: r.graph.MoleculeCount(),
		ReactionsCreated: r.graph.ReactionCount(),
		Iterations:       iterations,
		Elapsed:          r.budget.Elapsed(),
	}

	r.logger.InfoContext(ctx, "search run finished",
		"run_id", runID,
		"outcome", outcome,
		"calls_made", result.CallsMade,
		"molecules", result.MoleculesCreated,
		"reactions", result.ReactionsCreated,
		"iterations", result.Iterations,
		"elapsed", result.Elapsed,
	)
	return result
}
