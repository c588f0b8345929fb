package search

import (
	"context"
	"math"

	"github.com/fiberleif/syntheseus/internal/estimator"
	"github.com/fiberleif/syntheseus/internal/graph"
)

// BestFirst implements Retro*-style best-first selection: molecule costs are
// propagated bottom-up (molecule cost = min over reactions of reaction cost
// plus the sum of precursor costs), and the next expansion is the cheapest
// frontier molecule on the current best partial route below the root.
type BestFirst struct{}

// NewBestFirst creates a BestFirst strategy.
func NewBestFirst() *BestFirst {
	return &BestFirst{}
}

// Name implements Strategy.
func (s *BestFirst) Name() StrategyName {
	return StrategyBestFirst
}

// SelectNext implements Strategy. It follows the cheapest reaction at every
// expanded molecule starting from the root, collects the frontier molecules
// on that partial route, and returns the cheapest of them (insertion order
// breaks ties). When the best route holds no frontier molecule it falls back
// to the globally cheapest frontier node.
func (s *BestFirst) SelectNext(g *graph.Graph) *graph.MoleculeNode {
	if node := s.selectOnBestRoute(g); node != nil {
		return node
	}
	return minCostFrontier(g)
}

// OnExpanded implements Strategy: it re-propagates molecule costs upward from
// the expanded node so stale estimates never survive a structure change.
func (s *BestFirst) OnExpanded(_ context.Context, g *graph.Graph, node *graph.MoleculeNode, _ []*graph.ReactionNode) {
	propagateCosts(node)
}

// selectOnBestRoute walks the current best partial route below the root and
// returns its cheapest frontier molecule, or nil if the route has none.
func (s *BestFirst) selectOnBestRoute(g *graph.Graph) *graph.MoleculeNode {
	root := g.Root()
	if root == nil || root.Solved {
		return nil
	}

	var best *graph.MoleculeNode
	visited := make(map[*graph.MoleculeNode]struct{})
	stack := []*graph.MoleculeNode{root}

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		if _, seen := visited[current]; seen {
			continue
		}
		visited[current] = struct{}{}

		if current.Solved {
			continue
		}
		if current.Frontier() {
			best = cheaper(best, current)
			continue
		}

		if r := bestReaction(current); r != nil {
			for _, p := range r.Precursors {
				stack = append(stack, p)
			}
		}
	}
	return best
}

// bestReaction returns the reaction child with the lowest total cost
// (reaction cost plus precursor cost estimates), ties broken by insertion
// order.
func bestReaction(m *graph.MoleculeNode) *graph.ReactionNode {
	var best *graph.ReactionNode
	bestCost := math.Inf(1)

	for _, r := range m.ReactionChildren {
		cost := reactionTotalCost(r)
		if best == nil || cost < bestCost {
			best = r
			bestCost = cost
		}
	}
	return best
}

// reactionTotalCost is the AND-node cost: the reaction's own score-derived
// cost plus the sum of its precursors' current estimates.
func reactionTotalCost(r *graph.ReactionNode) float64 {
	total := estimator.ReactionCost(r.Score)
	for _, p := range r.Precursors {
		total += p.CostEstimate
	}
	return total
}

// propagateCosts recomputes molecule costs upward from start until no value
// changes. The graph is acyclic, so the worklist terminates.
func propagateCosts(start *graph.MoleculeNode) {
	queue := []*graph.MoleculeNode{start}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		cost := moleculeCost(current)
		if cost == current.CostEstimate {
			continue
		}
		current.CostEstimate = cost

		for _, r := range current.ReactionParents {
			if r.Product != nil {
				queue = append(queue, r.Product)
			}
		}
	}
}

// moleculeCost recomputes the OR-node cost of an expanded molecule from its
// reaction children. Unexpanded molecules keep their estimator-assigned
// heuristic; purchasable molecules are free; an expanded molecule with no
// viable reaction is infinitely expensive.
func moleculeCost(m *graph.MoleculeNode) float64 {
	if m.Purchasable {
		return 0
	}
	if !m.Expanded {
		return m.CostEstimate
	}
	best := math.Inf(1)
	for _, r := range m.ReactionChildren {
		if cost := reactionTotalCost(r); cost < best {
			best = cost
		}
	}
	return best
}

// cheaper returns the node with the lower (CostEstimate, Seq) pair.
func cheaper(a, b *graph.MoleculeNode) *graph.MoleculeNode {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	if b.CostEstimate < a.CostEstimate || (b.CostEstimate == a.CostEstimate && b.Seq < a.Seq) {
		return b
	}
	return a
}

// minCostFrontier scans the arena for the frontier molecule with the lowest
// (CostEstimate, Seq) pair.
func minCostFrontier(g *graph.Graph) *graph.MoleculeNode {
	var best *graph.MoleculeNode
	for _, m := range g.Molecules() {
		if !m.Frontier() {
			continue
		}
		best = cheaper(best, m)
	}
	return best
}
