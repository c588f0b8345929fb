package search

import (
	"context"
	"math"

	"github.com/fiberleif/syntheseus/internal/graph"
)

// DefaultExplorationConstant is the UCT exploration weight used when the
// configuration does not supply one.
const DefaultExplorationConstant = 1.0

// unvisitedBase dominates any possible UCT score so unvisited reactions are
// always explored first, ranked among themselves by predictor score.
const unvisitedBase = 1e9

// MCTS implements Monte-Carlo tree search selection over the AND-OR graph.
// Reactions carry visit counts and accumulated rewards; descent picks the
// reaction maximizing the UCT score and, within a reaction, the least-visited
// unsolved precursor. The reward of an expansion (1 for a solve, otherwise
// the best candidate score) is backed up along the selection path.
//
// All bookkeeping lives in the strategy, keyed by node pointers, so the graph
// model stays algorithm-agnostic.
type MCTS struct {
	exploration float64
	stats       map[*graph.ReactionNode]*uctStats
	paths       map[*graph.MoleculeNode][]*graph.ReactionNode
}

type uctStats struct {
	visits int
	reward float64
}

// NewMCTS creates an MCTS strategy with the given exploration constant.
// Non-positive values fall back to DefaultExplorationConstant.
func NewMCTS(exploration float64) *MCTS {
	if exploration <= 0 {
		exploration = DefaultExplorationConstant
	}
	return &MCTS{
		exploration: exploration,
		stats:       make(map[*graph.ReactionNode]*uctStats),
		paths:       make(map[*graph.MoleculeNode][]*graph.ReactionNode),
	}
}

// Name implements Strategy.
func (s *MCTS) Name() StrategyName {
	return StrategyMCTS
}

// SelectNext implements Strategy. It descends from the root by UCT until it
// reaches a frontier molecule, remembering the reaction path for the later
// reward backup. If the descent gets stuck in an exhausted subtree it falls
// back to the least-visited frontier molecule in the arena.
func (s *MCTS) SelectNext(g *graph.Graph) *graph.MoleculeNode {
	root := g.Root()
	if root == nil {
		return nil
	}

	current := root
	var path []*graph.ReactionNode
	visited := make(map[*graph.MoleculeNode]struct{})

	for {
		if current.Frontier() {
			s.paths[current] = path
			return current
		}
		if _, seen := visited[current]; seen {
			break
		}
		visited[current] = struct{}{}

		r := s.selectReaction(current)
		if r == nil {
			break
		}
		path = append(path, r)

		next := s.selectPrecursor(r, visited)
		if next == nil {
			break
		}
		current = next
	}

	// Stuck below an exhausted or fully solved subtree.
	if node := s.leastVisitedFrontier(g); node != nil {
		s.paths[node] = nil
		return node
	}
	return nil
}

// OnExpanded implements Strategy: it computes the expansion reward and backs
// it up along the recorded selection path.
func (s *MCTS) OnExpanded(_ context.Context, _ *graph.Graph, node *graph.MoleculeNode, created []*graph.ReactionNode) {
	reward := 0.0
	if node.Solved {
		reward = 1.0
	} else {
		for _, r := range created {
			if r.Score > reward {
				reward = r.Score
			}
		}
	}

	node.VisitCount++
	for _, r := range s.paths[node] {
		st := s.stats[r]
		if st == nil {
			st = &uctStats{}
			s.stats[r] = st
		}
		st.visits++
		st.reward += reward
		if r.Product != nil {
			r.Product.VisitCount++
		}
	}
	delete(s.paths, node)
}

// selectReaction picks the reaction child of m with the highest UCT score.
// Unvisited reactions are preferred outright; ties fall to insertion order.
func (s *MCTS) selectReaction(m *graph.MoleculeNode) *graph.ReactionNode {
	var best *graph.ReactionNode
	bestScore := math.Inf(-1)
	parentVisits := float64(m.VisitCount)

	for _, r := range m.ReactionChildren {
		st := s.stats[r]
		var score float64
		if st == nil || st.visits == 0 {
			// Unvisited reactions explore first, ranked by predictor score.
			score = unvisitedBase + r.Score
		} else {
			exploit := st.reward / float64(st.visits)
			explore := s.exploration * math.Sqrt(math.Log(parentVisits+1)/float64(st.visits+1))
			score = exploit + explore
		}
		if best == nil || score > bestScore {
			best = r
			bestScore = score
		}
	}
	return best
}

// selectPrecursor picks the least-visited unsolved precursor of r that has
// not been visited during this descent, ties broken by insertion order.
func (s *MCTS) selectPrecursor(r *graph.ReactionNode, visited map[*graph.MoleculeNode]struct{}) *graph.MoleculeNode {
	var best *graph.MoleculeNode
	for _, p := range r.Precursors {
		if p.Solved {
			continue
		}
		if _, seen := visited[p]; seen {
			continue
		}
		if best == nil || p.VisitCount < best.VisitCount ||
			(p.VisitCount == best.VisitCount && p.Seq < best.Seq) {
			best = p
		}
	}
	return best
}

// leastVisitedFrontier scans the arena for the frontier molecule with the
// lowest (VisitCount, Seq) pair.
func (s *MCTS) leastVisitedFrontier(g *graph.Graph) *graph.MoleculeNode {
	var best *graph.MoleculeNode
	for _, m := range g.Molecules() {
		if !m.Frontier() {
			continue
		}
		if best == nil || m.VisitCount < best.VisitCount ||
			(m.VisitCount == best.VisitCount && m.Seq < best.Seq) {
			best = m
		}
	}
	return best
}
