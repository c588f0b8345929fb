package route

import (
	"math"
	"sort"
	"strconv"

	"github.com/fiberleif/syntheseus/internal/estimator"
	"github.com/fiberleif/syntheseus/internal/graph"
	"github.com/fiberleif/syntheseus/internal/types"
)

// Extract returns up to k complete routes for the graph's root, ranked by
// aggregated cost ascending. Ties keep the deterministic enumeration order
// (reaction insertion order). It fails with NO_ROUTE_FOUND when the root is
// not solved. The graph is not mutated.
func Extract(g *graph.Graph, k int, aggregation CostAggregation) ([]*Route, error) {
	root := g.Root()
	if root == nil || !root.Solved {
		return nil, types.NewError(types.NO_ROUTE_FOUND, "root molecule is not solved")
	}
	if k <= 0 {
		k = 1
	}
	if aggregation == "" {
		aggregation = AggregationSum
	}

	ex := &extractor{
		k:           k,
		aggregation: aggregation,
		memo:        make(map[*graph.MoleculeNode][]*candidate),
	}

	candidates := ex.routesFor(root)
	if len(candidates) == 0 {
		return nil, types.NewError(types.NO_ROUTE_FOUND, "root is solved but no complete route was assembled")
	}

	routes := make([]*Route, 0, len(candidates))
	for rank, c := range candidates {
		route := &Route{
			Rank:        rank,
			Cost:        c.cost,
			Aggregation: aggregation,
			Root:        c.node,
			molecules:   map[string]struct{}{},
			reactions:   map[string]struct{}{},
		}
		collectRouteStats(route, c.node)
		route.ID = routeID(route)
		routes = append(routes, route)
	}
	return routes, nil
}

// routeID derives a content-addressed ID from the route's target, rank, and
// reaction set, so identical runs serialize byte-identical routes.
func routeID(r *Route) types.ID {
	parts := append([]string{r.Root.Identity, strconv.Itoa(r.Rank), string(r.Aggregation)}, r.Reactions()...)
	return types.DeterministicID(parts...)
}

// candidate is one assembled (sub)route with its locally accumulated cost.
type candidate struct {
	node *Node
	cost float64
}

type extractor struct {
	k           int
	aggregation CostAggregation
	memo        map[*graph.MoleculeNode][]*candidate
}

// routesFor returns the up-to-k cheapest subroutes synthesizing m, sorted by
// cost ascending. The graph is acyclic, so recursion over precursors
// terminates; memoization keeps shared molecules from being re-enumerated.
func (ex *extractor) routesFor(m *graph.MoleculeNode) []*candidate {
	if cached, ok := ex.memo[m]; ok {
		return cached
	}

	var results []*candidate

	if m.Purchasable {
		results = append(results, &candidate{
			node: &Node{
				Type:     graph.NodeTypeMolecule,
				Identity: m.Molecule.String(),
				Solved:   true,
				Cost:     0,
			},
			cost: 0,
		})
		ex.memo[m] = results
		return results
	}

	for _, r := range m.ReactionChildren {
		if !r.Solved {
			continue
		}
		results = append(results, ex.routesThroughReaction(m, r)...)
	}

	sort.SliceStable(results, func(a, b int) bool {
		return results[a].cost < results[b].cost
	})
	if len(results) > ex.k {
		results = results[:ex.k]
	}

	ex.memo[m] = results
	return results
}

// routesThroughReaction assembles subroutes for product m through reaction r
// by combining the precursor subroutes, bounding the combination count at k.
func (ex *extractor) routesThroughReaction(m *graph.MoleculeNode, r *graph.ReactionNode) []*candidate {
	reactionCost := estimator.ReactionCost(r.Score)

	// combos holds partial combinations of precursor subroutes.
	combos := []*candidate{{
		node: &Node{
			Type:     graph.NodeTypeReaction,
			Identity: reactionIdentity(r),
			Solved:   true,
			Cost:     reactionCost,
			Score:    r.Score,
			Metadata: &graph.ReactionMetadata{
				PredictorName: r.Metadata.PredictorName,
				TemplateID:    r.Metadata.TemplateID,
				Rank:          r.Metadata.Rank,
			},
		},
		cost: reactionCost,
	}}

	for _, p := range r.Precursors {
		sub := ex.routesFor(p)
		if len(sub) == 0 {
			return nil
		}

		var next []*candidate
		for _, combo := range combos {
			for _, s := range sub {
				merged := &candidate{
					node: &Node{
						Type:     combo.node.Type,
						Identity: combo.node.Identity,
						Solved:   true,
						Cost:     combo.node.Cost,
						Score:    combo.node.Score,
						Metadata: combo.node.Metadata,
						Children: append(append([]*Node{}, combo.node.Children...), s.node),
					},
					cost: ex.combine(combo.cost, s.cost),
				}
				next = append(next, merged)
			}
		}
		sort.SliceStable(next, func(a, b int) bool {
			return next[a].cost < next[b].cost
		})
		if len(next) > ex.k {
			next = next[:ex.k]
		}
		combos = next
	}

	// Wrap each completed reaction combo in the product molecule node.
	results := make([]*candidate, 0, len(combos))
	for _, combo := range combos {
		results = append(results, &candidate{
			node: &Node{
				Type:     graph.NodeTypeMolecule,
				Identity: m.Molecule.String(),
				Solved:   true,
				Cost:     0,
				Children: []*Node{combo.node},
			},
			cost: combo.cost,
		})
	}
	return results
}

// combine folds a subroute cost into an accumulated cost under the
// configured aggregation.
func (ex *extractor) combine(accumulated, sub float64) float64 {
	if ex.aggregation == AggregationMax {
		return math.Max(accumulated, sub)
	}
	return accumulated + sub
}

// collectRouteStats walks the finished tree once, filling the route's step
// count, leaf list, and molecule set.
func collectRouteStats(route *Route, node *Node) {
	switch node.Type {
	case graph.NodeTypeMolecule:
		route.molecules[node.Identity] = struct{}{}
		if len(node.Children) == 0 {
			route.Leaves = append(route.Leaves, node.Identity)
		}
	case graph.NodeTypeReaction:
		route.Steps++
		route.reactions[node.Identity] = struct{}{}
	}
	for _, child := range node.Children {
		collectRouteStats(route, child)
	}
}
