// Package route extracts complete synthesis routes (proof trees) from a
// solved AND-OR search graph, ranks them by cost, serializes them for
// downstream reporting, and selects diverse subsets for presentation.
//
// Extraction is strictly read-only: route costs are accumulated locally per
// route, never by mutating shared graph nodes, so a molecule shared between
// candidate routes is costed independently in each.
package route

import (
	"fmt"
	"sort"

	"github.com/fiberleif/syntheseus/internal/graph"
	"github.com/fiberleif/syntheseus/internal/types"
)

// CostAggregation selects how per-reaction costs combine into a route cost.
type CostAggregation string

const (
	// AggregationSum ranks routes by the sum of reaction costs (default).
	AggregationSum CostAggregation = "sum"
	// AggregationMax ranks routes by their most expensive single reaction.
	AggregationMax CostAggregation = "max"
)

// Node is one serializable node of an extracted route tree. Molecule nodes
// alternate with reaction nodes: a molecule either has no children
// (purchasable leaf) or exactly one reaction child, and a reaction's children
// are its precursor molecules.
type Node struct {
	// Type tags the node as molecule or reaction.
	Type graph.NodeType `json:"type"`

	// Identity is the canonical molecule representation, or for reactions a
	// human-readable provenance string.
	Identity string `json:"identity"`

	// Solved is always true inside a complete route; kept for schema
	// compatibility with partial-graph exports.
	Solved bool `json:"solved"`

	// Cost is the node's local cost contribution: 0 for molecules,
	// the score-derived cost for reactions.
	Cost float64 `json:"cost"`

	// Score is the predictor confidence (reaction nodes only).
	Score float64 `json:"score,omitempty"`

	// Metadata records reaction provenance (reaction nodes only).
	Metadata *graph.ReactionMetadata `json:"metadata,omitempty"`

	// Children are the node's route children.
	Children []*Node `json:"children,omitempty"`
}

// Route is one complete synthesis plan: a proof tree from the target down to
// purchasable leaves.
type Route struct {
	// ID uniquely identifies the extracted route.
	ID types.ID `json:"id"`

	// Rank is the route's position in the cost-ordered extraction (0-based).
	Rank int `json:"rank"`

	// Cost is the aggregated route cost under the chosen aggregation.
	Cost float64 `json:"cost"`

	// Aggregation records how Cost was computed.
	Aggregation CostAggregation `json:"aggregation"`

	// Steps is the number of reactions in the route.
	Steps int `json:"steps"`

	// Root is the serializable route tree, rooted at the target molecule.
	Root *Node `json:"root"`

	// Leaves are the purchasable starting materials, in tree order.
	Leaves []string `json:"leaves"`

	// molecules and reactions are the node sets of the route, used for
	// diversity distance computations.
	molecules map[string]struct{}
	reactions map[string]struct{}
}

// Molecules returns the sorted set of molecules appearing in the route.
func (r *Route) Molecules() []string {
	mols := make([]string, 0, len(r.molecules))
	for m := range r.molecules {
		mols = append(mols, m)
	}
	sort.Strings(mols)
	return mols
}

// Reactions returns the sorted set of reaction identities in the route.
func (r *Route) Reactions() []string {
	rxns := make([]string, 0, len(r.reactions))
	for rxn := range r.reactions {
		rxns = append(rxns, rxn)
	}
	sort.Strings(rxns)
	return rxns
}

// reactionIdentity renders a stable provenance string for a reaction node.
func reactionIdentity(r *graph.ReactionNode) string {
	return fmt.Sprintf("%s#%d>%s", r.Metadata.PredictorName, r.Metadata.Rank, r.Product.Molecule.String())
}
