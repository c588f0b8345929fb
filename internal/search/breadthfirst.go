package search

import (
	"context"

	"github.com/fiberleif/syntheseus/internal/graph"
)

// BreadthFirst is the baseline strategy: it expands the shallowest frontier
// molecule, with insertion order breaking ties. It maintains no private
// state, making it the reference for determinism tests.
type BreadthFirst struct{}

// NewBreadthFirst creates a BreadthFirst strategy.
func NewBreadthFirst() *BreadthFirst {
	return &BreadthFirst{}
}

// Name implements Strategy.
func (s *BreadthFirst) Name() StrategyName {
	return StrategyBreadthFirst
}

// SelectNext implements Strategy.
func (s *BreadthFirst) SelectNext(g *graph.Graph) *graph.MoleculeNode {
	var best *graph.MoleculeNode
	for _, m := range g.Molecules() {
		if !m.Frontier() {
			continue
		}
		if best == nil || m.Depth < best.Depth || (m.Depth == best.Depth && m.Seq < best.Seq) {
			best = m
		}
	}
	return best
}

// OnExpanded implements Strategy; breadth-first keeps no state.
func (s *BreadthFirst) OnExpanded(context.Context, *graph.Graph, *graph.MoleculeNode, []*graph.ReactionNode) {
}
