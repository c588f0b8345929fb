// Package search implements the multi-step retrosynthetic search engine: a
// budgeted selection/expansion/update loop over the AND-OR graph, with
// interchangeable selection strategies (best-first, MCTS, breadth-first).
package search

import (
	"context"
	"fmt"

	"github.com/fiberleif/syntheseus/internal/graph"
	"github.com/fiberleif/syntheseus/internal/types"
)

// StrategyName enumerates the built-in search strategies.
type StrategyName string

const (
	// StrategyBestFirst selects the cheapest frontier molecule on the current
	// best partial route (Retro*-style cost propagation).
	StrategyBestFirst StrategyName = "best_first"
	// StrategyMCTS selects by UCT score balancing estimated value and visit
	// counts.
	StrategyMCTS StrategyName = "mcts"
	// StrategyBreadthFirst expands the shallowest frontier molecule in
	// insertion order (baseline).
	StrategyBreadthFirst StrategyName = "breadth_first"
)

// Strategy decides which frontier molecule to expand next and maintains any
// strategy-private bookkeeping as the graph grows. The runner owns the loop;
// a strategy only answers selection queries and observes expansions.
//
// Determinism contract: given the same graph state, SelectNext must return
// the same node. Ties among equally attractive candidates are broken by
// insertion order (lowest Seq wins).
type Strategy interface {
	// Name returns the strategy's registered name.
	Name() StrategyName

	// SelectNext returns the next unexpanded molecule to hand to the
	// expansion policy, or nil when no expandable molecule remains. The
	// runner marks the returned node as expanded before dispatch, so
	// repeated calls within one batch yield distinct nodes.
	SelectNext(g *graph.Graph) *graph.MoleculeNode

	// OnExpanded is invoked after an expansion of node completed and the
	// resulting reactions (possibly none) were linked into the graph, with
	// solved status already propagated. Strategies update costs, visit
	// counts, or other private state here.
	OnExpanded(ctx context.Context, g *graph.Graph, node *graph.MoleculeNode, created []*graph.ReactionNode)
}

// StrategyConfig carries the strategy-specific tuning knobs.
type StrategyConfig struct {
	// ExplorationConstant is the UCT exploration weight (MCTS only).
	ExplorationConstant float64
}

// NewStrategy constructs a built-in strategy by name. Unknown names are
// rejected with SEARCH_STRATEGY_UNKNOWN before a run starts.
func NewStrategy(name StrategyName, cfg StrategyConfig) (Strategy, error) {
	switch name {
	case StrategyBestFirst:
		return NewBestFirst(), nil
	case StrategyMCTS:
		return NewMCTS(cfg.ExplorationConstant), nil
	case StrategyBreadthFirst:
		return NewBreadthFirst(), nil
	default:
		return nil, types.NewError(types.SEARCH_STRATEGY_UNKNOWN,
			fmt.Sprintf("unknown search strategy %q", name))
	}
}
