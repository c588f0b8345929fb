// Package estimator provides pluggable cost-to-solve heuristics for molecule
// nodes. Estimates feed the search strategies: lower is better, 0 means free
// (purchasable), +Inf means no finite estimate is known.
package estimator

import (
	"context"
	"math"

	"github.com/fiberleif/syntheseus/internal/graph"
)

// minScore clamps predictor scores before taking -log, so a reaction cost is
// always finite for positive scores and very large for near-zero scores.
const minScore = 1e-6

// Estimator assigns a non-negative estimated cost-to-solve to a molecule node.
// Implementations must be deterministic for a given node state, and must never
// lower an estimate without being re-invoked after the node's children change.
type Estimator interface {
	// Estimate returns the estimated cost-to-solve for the node.
	Estimate(ctx context.Context, node *graph.MoleculeNode) float64

	// Name identifies the estimator in logs and diagnostics.
	Name() string
}

// ReactionCost converts a predictor confidence score into an additive cost
// contribution: -log(score), with the score clamped to [minScore, 1].
func ReactionCost(score float64) float64 {
	if score > 1 {
		score = 1
	}
	if score < minScore {
		score = minScore
	}
	return -math.Log(score)
}

// PurchasabilityEstimator is the default heuristic: 0 for purchasable
// molecules, +Inf for exhausted dead ends, and a flat unsolved cost otherwise.
type PurchasabilityEstimator struct {
	unsolvedCost float64
}

// NewPurchasabilityEstimator creates a PurchasabilityEstimator with the given
// flat cost for unsolved, unexhausted molecules. Non-positive values fall back
// to the default of 1.
func NewPurchasabilityEstimator(unsolvedCost float64) *PurchasabilityEstimator {
	if unsolvedCost <= 0 {
		unsolvedCost = 1
	}
	return &PurchasabilityEstimator{unsolvedCost: unsolvedCost}
}

// Estimate implements Estimator.
func (e *PurchasabilityEstimator) Estimate(_ context.Context, node *graph.MoleculeNode) float64 {
	switch {
	case node.Purchasable:
		return 0
	case node.Exhausted && len(node.ReactionChildren) == 0:
		return math.Inf(1)
	default:
		return e.unsolvedCost
	}
}

// Name implements Estimator.
func (e *PurchasabilityEstimator) Name() string {
	return "purchasability"
}

// DepthPenaltyEstimator discourages deep intermediates by charging a per-level
// penalty on top of a base estimator. Useful to bias best-first search toward
// shorter routes.
type DepthPenaltyEstimator struct {
	base    Estimator
	penalty float64
}

// NewDepthPenaltyEstimator wraps base with a per-depth-level penalty.
func NewDepthPenaltyEstimator(base Estimator, penalty float64) *DepthPenaltyEstimator {
	return &DepthPenaltyEstimator{base: base, penalty: penalty}
}

// Estimate implements Estimator.
func (e *DepthPenaltyEstimator) Estimate(ctx context.Context, node *graph.MoleculeNode) float64 {
	baseCost := e.base.Estimate(ctx, node)
	if math.IsInf(baseCost, 1) {
		return baseCost
	}
	return baseCost + e.penalty*float64(node.Depth)
}

// Name implements Estimator.
func (e *DepthPenaltyEstimator) Name() string {
	return "depth_penalty(" + e.base.Name() + ")"
}

// CompositeEstimator combines several estimators as a weighted sum. If any
// component returns +Inf the composite is +Inf.
type CompositeEstimator struct {
	components []weightedEstimator
}

type weightedEstimator struct {
	estimator Estimator
	weight    float64
}

// NewCompositeEstimator creates an empty CompositeEstimator.
func NewCompositeEstimator() *CompositeEstimator {
	return &CompositeEstimator{}
}

// Add registers an estimator with the given weight and returns the composite
// for chaining. Non-positive weights are ignored.
func (e *CompositeEstimator) Add(est Estimator, weight float64) *CompositeEstimator {
	if weight > 0 {
		e.components = append(e.components, weightedEstimator{estimator: est, weight: weight})
	}
	return e
}

// Estimate implements Estimator.
func (e *CompositeEstimator) Estimate(ctx context.Context, node *graph.MoleculeNode) float64 {
	if len(e.components) == 0 {
		return 0
	}
	var total float64
	for _, c := range e.components {
		cost := c.estimator.Estimate(ctx, node)
		if math.IsInf(cost, 1) {
			return cost
		}
		total += c.weight * cost
	}
	return total
}

// Name implements Estimator.
func (e *CompositeEstimator) Name() string {
	return "composite"
}
