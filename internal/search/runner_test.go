package search

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fiberleif/syntheseus/internal/chem"
	"github.com/fiberleif/syntheseus/internal/estimator"
	"github.com/fiberleif/syntheseus/internal/graph"
	"github.com/fiberleif/syntheseus/internal/policy"
	"github.com/fiberleif/syntheseus/internal/types"
)

func mol(s string) chem.Molecule {
	return chem.NewMolecule(s)
}

// tableRules builds template predictor rules from a compact literal:
// product -> list of (precursors, score).
type rule struct {
	precursors []string
	score      float64
}

func tablePredictor(name string, table map[string][]rule) *policy.TemplatePredictor {
	rules := make(map[chem.Molecule][]policy.Prediction, len(table))
	for product, candidates := range table {
		for _, c := range candidates {
			precursors := make([]chem.Molecule, 0, len(c.precursors))
			for _, p := range c.precursors {
				precursors = append(precursors, mol(p))
			}
			rules[mol(product)] = append(rules[mol(product)], policy.Prediction{
				Precursors: precursors,
				Score:      c.score,
			})
		}
	}
	return policy.NewTemplatePredictor(name, rules)
}

// chainPredictor returns a fresh, never-purchasable precursor for any queried
// molecule, producing an endless unsolvable chain.
type chainPredictor struct{}

func (p *chainPredictor) Name() string { return "chain" }

func (p *chainPredictor) Predict(_ context.Context, product chem.Molecule) ([]policy.Prediction, error) {
	return []policy.Prediction{
		{Precursors: []chem.Molecule{mol(product.String() + "x")}, Score: 0.5},
	}, nil
}

type testHarness struct {
	graph  *graph.Graph
	runner *Runner
	budget *Budget
}

func newHarness(t *testing.T, target string, stock []string, predictor policy.Predictor, name StrategyName, maxCalls int, runnerOpts ...RunnerOption) *testHarness {
	t.Helper()

	mols := make([]chem.Molecule, 0, len(stock))
	for _, s := range stock {
		mols = append(mols, mol(s))
	}

	g, err := graph.New(context.Background(), mol(target), chem.NewMapInventory(mols...))
	require.NoError(t, err)

	pol, err := policy.NewExpansionPolicy([]policy.Predictor{predictor})
	require.NoError(t, err)

	strat, err := NewStrategy(name, StrategyConfig{})
	require.NoError(t, err)

	budget, err := NewBudget(maxCalls, 0)
	require.NoError(t, err)

	runner, err := NewRunner(g, pol, estimator.NewPurchasabilityEstimator(1), strat, budget, runnerOpts...)
	require.NoError(t, err)

	return &testHarness{graph: g, runner: runner, budget: budget}
}

func TestNewStrategy(t *testing.T) {
	for _, name := range []StrategyName{StrategyBestFirst, StrategyMCTS, StrategyBreadthFirst} {
		t.Run(string(name), func(t *testing.T) {
			s, err := NewStrategy(name, StrategyConfig{})
			require.NoError(t, err)
			assert.Equal(t, name, s.Name())
		})
	}

	_, err := NewStrategy("depth_first", StrategyConfig{})
	require.Error(t, err)
	assert.Equal(t, types.SEARCH_STRATEGY_UNKNOWN, types.CodeOf(err))
}

func TestNewRunner_RequiresCollaborators(t *testing.T) {
	_, err := NewRunner(nil, nil, nil, nil, nil)
	require.Error(t, err)
	assert.Equal(t, types.CONFIG_VALIDATION_FAILED, types.CodeOf(err))
}

func TestRun_PurchasableRootSolvesWithoutCalls(t *testing.T) {
	// Scenario A: the target itself is purchasable.
	h := newHarness(t, "CCO", []string{"CCO"},
		tablePredictor("template", nil), StrategyBestFirst, 5)

	result, err := h.runner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomeSolved, result.Outcome)
	assert.Equal(t, 0, result.CallsMade)
	assert.Equal(t, 0, result.Iterations)
}

func TestRun_NoCandidatesIsUnsolvable(t *testing.T) {
	// Scenario B: the predictor has no candidates for any molecule.
	h := newHarness(t, "target", nil,
		tablePredictor("template", nil), StrategyBestFirst, 10)

	result, err := h.runner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomeUnsolvable, result.Outcome)
	assert.False(t, h.graph.IsSolved())
	assert.True(t, h.graph.Root().Exhausted)
}

func TestRun_BudgetExhaustedAfterExactlyNCalls(t *testing.T) {
	// Scenario C: every expansion yields one unsolvable candidate; a budget
	// of 5 calls ends the run after exactly 5 expansions.
	h := newHarness(t, "target", nil, &chainPredictor{}, StrategyBestFirst, 5)

	result, err := h.runner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomeBudgetExhausted, result.Outcome)
	assert.Equal(t, 5, result.CallsMade)
	assert.False(t, h.graph.IsSolved())
}

func TestRun_SolvesTwoStepRoute(t *testing.T) {
	table := map[string][]rule{
		"target":       {{precursors: []string{"intermediate", "CBr"}, score: 0.9}},
		"intermediate": {{precursors: []string{"CCO"}, score: 0.8}},
	}

	for _, name := range []StrategyName{StrategyBestFirst, StrategyMCTS, StrategyBreadthFirst} {
		t.Run(string(name), func(t *testing.T) {
			h := newHarness(t, "target", []string{"CCO", "CBr"},
				tablePredictor("template", table), name, 10)

			result, err := h.runner.Run(context.Background())
			require.NoError(t, err)

			assert.Equal(t, OutcomeSolved, result.Outcome, "strategy %s must solve", name)
			assert.True(t, h.graph.IsSolved())
			assert.LessOrEqual(t, result.CallsMade, 3)
		})
	}
}

func TestRun_BestFirstPrefersCheapBranch(t *testing.T) {
	// Two routes to the target: a high-score one-step route to purchasable
	// stock, and a low-score route through a long chain. Best-first should
	// solve through the cheap branch without expanding the chain.
	table := map[string][]rule{
		"target": {
			{precursors: []string{"CCO"}, score: 0.95},
			{precursors: []string{"deep1"}, score: 0.1},
		},
		"deep1": {{precursors: []string{"deep2"}, score: 0.1}},
		"deep2": {{precursors: []string{"deep3"}, score: 0.1}},
	}
	h := newHarness(t, "target", []string{"CCO"},
		tablePredictor("template", table), StrategyBestFirst, 10)

	result, err := h.runner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomeSolved, result.Outcome)
	assert.Equal(t, 1, result.CallsMade, "one expansion of the target suffices")
}

func TestRun_SharedPrecursorSolvesBothBranches(t *testing.T) {
	// Scenario D: two predictors propose different reactions sharing one
	// precursor molecule; solving it marks both reactions solved.
	nn := tablePredictor("nn", map[string][]rule{
		"target": {{precursors: []string{"shared", "CCl"}, score: 0.9}},
	})
	template := tablePredictor("template", map[string][]rule{
		"target": {{precursors: []string{"shared", "CBr"}, score: 0.8}},
		"shared": {{precursors: []string{"CCO"}, score: 0.9}},
	})

	g, err := graph.New(context.Background(), mol("target"),
		chem.NewMapInventory(mol("CCO"), mol("CBr"), mol("CCl")))
	require.NoError(t, err)

	pol, err := policy.NewExpansionPolicy([]policy.Predictor{nn, template})
	require.NoError(t, err)
	strat, err := NewStrategy(StrategyBestFirst, StrategyConfig{})
	require.NoError(t, err)
	budget, err := NewBudget(10, 0)
	require.NoError(t, err)
	runner, err := NewRunner(g, pol, estimator.NewPurchasabilityEstimator(1), strat, budget)
	require.NoError(t, err)

	result, err := runner.Run(context.Background())
	require.NoError(t, err)
	require.Equal(t, OutcomeSolved, result.Outcome)

	root := g.Root()
	require.Len(t, root.ReactionChildren, 2)
	assert.True(t, root.ReactionChildren[0].Solved)
	assert.True(t, root.ReactionChildren[1].Solved)
	assert.Same(t, root.ReactionChildren[0].Precursors[0], root.ReactionChildren[1].Precursors[0],
		"the shared precursor must be one node")
}

func TestRun_PredictionFailureExhaustsMolecule(t *testing.T) {
	h := newHarness(t, "target", nil, &failingPredictor{}, StrategyBestFirst, 10)

	result, err := h.runner.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, OutcomeUnsolvable, result.Outcome)
	assert.True(t, h.graph.Root().Exhausted)
}

type failingPredictor struct{}

func (p *failingPredictor) Name() string { return "failing" }

func (p *failingPredictor) Predict(context.Context, chem.Molecule) ([]policy.Prediction, error) {
	return nil, fmt.Errorf("gpu on fire")
}

func TestRun_CancellationStopsAtIterationBoundary(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	h := newHarness(t, "target", nil, &chainPredictor{}, StrategyBestFirst, 1000)

	result, err := h.runner.Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, OutcomeBudgetExhausted, result.Outcome)
	assert.Equal(t, 0, result.CallsMade)
}

func TestRun_TimeLimitEndsRun(t *testing.T) {
	g, err := graph.New(context.Background(), mol("target"), chem.NewMapInventory())
	require.NoError(t, err)
	pol, err := policy.NewExpansionPolicy([]policy.Predictor{&slowChainPredictor{delay: 5 * time.Millisecond}})
	require.NoError(t, err)
	strat, err := NewStrategy(StrategyBreadthFirst, StrategyConfig{})
	require.NoError(t, err)
	budget, err := NewBudget(100000, 20*time.Millisecond)
	require.NoError(t, err)
	runner, err := NewRunner(g, pol, estimator.NewPurchasabilityEstimator(1), strat, budget)
	require.NoError(t, err)

	result, err := runner.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, OutcomeBudgetExhausted, result.Outcome)
}

type slowChainPredictor struct {
	delay time.Duration
}

func (p *slowChainPredictor) Name() string { return "slow" }

func (p *slowChainPredictor) Predict(_ context.Context, product chem.Molecule) ([]policy.Prediction, error) {
	time.Sleep(p.delay)
	return []policy.Prediction{
		{Precursors: []chem.Molecule{mol(product.String() + "x")}, Score: 0.5},
	}, nil
}

// graphFingerprint serializes the structural state of the graph for
// determinism comparisons.
func graphFingerprint(g *graph.Graph) string {
	var fp string
	for _, m := range g.Molecules() {
		fp += fmt.Sprintf("M(%s,%v,%v,%d);", m.Molecule.String(), m.Solved, m.Expanded, m.Depth)
	}
	for _, r := range g.Reactions() {
		fp += fmt.Sprintf("R(%s,%s,%d,%.4f", r.Product.Molecule.String(), r.Metadata.PredictorName, r.Metadata.Rank, r.Score)
		for _, p := range r.Precursors {
			fp += "," + p.Molecule.String()
		}
		fp += ");"
	}
	return fp
}

func TestRun_DeterministicAcrossRuns(t *testing.T) {
	table := map[string][]rule{
		"target": {
			{precursors: []string{"a1", "a2"}, score: 0.7},
			{precursors: []string{"b1"}, score: 0.7},
		},
		"a1": {{precursors: []string{"CCO"}, score: 0.6}},
		"b1": {{precursors: []string{"b2"}, score: 0.5}},
	}

	for _, name := range []StrategyName{StrategyBestFirst, StrategyMCTS, StrategyBreadthFirst} {
		t.Run(string(name), func(t *testing.T) {
			run := func() string {
				h := newHarness(t, "target", []string{"CCO", "a2"},
					tablePredictor("template", table), name, 6)
				_, err := h.runner.Run(context.Background())
				require.NoError(t, err)
				return graphFingerprint(h.graph)
			}

			assert.Equal(t, run(), run(), "identical runs must build identical graphs")
		})
	}
}

func TestRun_ParallelRunIsDeterministic(t *testing.T) {
	table := map[string][]rule{
		"target": {
			{precursors: []string{"p1"}, score: 0.9},
			{precursors: []string{"p2"}, score: 0.8},
			{precursors: []string{"p3"}, score: 0.7},
		},
		"p1": {{precursors: []string{"q1"}, score: 0.9}},
		"p2": {{precursors: []string{"CCO"}, score: 0.9}},
		"p3": {{precursors: []string{"CCO"}, score: 0.9}},
	}

	run := func() string {
		h := newHarness(t, "target", []string{"CCO"},
			tablePredictor("template", table), StrategyBreadthFirst, 8,
			WithParallelism(4))
		result, err := h.runner.Run(context.Background())
		require.NoError(t, err)
		require.Equal(t, OutcomeSolved, result.Outcome)
		return graphFingerprint(h.graph)
	}

	assert.Equal(t, run(), run(), "parallel runs with one batch order must be reproducible")
}
