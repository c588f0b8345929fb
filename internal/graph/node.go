package graph

import (
	"github.com/fiberleif/syntheseus/internal/chem"
)

// NodeType identifies the two node kinds of the AND-OR search graph.
type NodeType string

const (
	// NodeTypeMolecule is an OR-node: solved by any one reaction child.
	NodeTypeMolecule NodeType = "molecule"
	// NodeTypeReaction is an AND-node: solved only when all precursors are solved.
	NodeTypeReaction NodeType = "reaction"
)

// ReactionMetadata records the provenance of a reaction candidate.
// Two reactions with identical precursor sets but different provenance are
// distinct nodes in the graph.
type ReactionMetadata struct {
	// PredictorName identifies which predictor proposed the reaction.
	PredictorName string `json:"predictor_name"`

	// TemplateID is the reaction template identifier, if the predictor is
	// template-based.
	TemplateID string `json:"template_id,omitempty"`

	// Rank is the position of this candidate in the predictor's ranked output.
	Rank int `json:"rank"`
}

// MoleculeNode is an OR-node of the search graph. A molecule is solved when
// it is purchasable or when at least one of its reaction children is solved.
//
// Nodes are shared: a molecule reached as a precursor of several reactions
// resolves to one node, so the graph is a DAG rather than a tree. Nodes are
// created once and never deleted during a run.
type MoleculeNode struct {
	// Seq is the node's insertion sequence number, used as the deterministic
	// tie-break for selection among equal-cost candidates.
	Seq int

	// Molecule is the canonical molecule identity.
	Molecule chem.Molecule

	// Solved reports whether a complete synthesis below this molecule exists.
	Solved bool

	// Purchasable reports whether the molecule is directly obtainable.
	// A purchasable molecule is always solved with cost 0.
	Purchasable bool

	// Depth is the shortest distance from the root seen so far.
	Depth int

	// CostEstimate is the current estimated cost-to-solve. Infinity means
	// no finite estimate is known yet.
	CostEstimate float64

	// VisitCount tracks strategy visits (used by MCTS-style strategies).
	VisitCount int

	// Expanded reports whether the expansion policy has been invoked for
	// this molecule.
	Expanded bool

	// Exhausted reports that no further expansion is possible: either the
	// predictor returned nothing or prediction failed permanently.
	Exhausted bool

	// ReactionChildren are the candidate reactions producing this molecule.
	ReactionChildren []*ReactionNode

	// ReactionParents are the reactions that consume this molecule as a
	// precursor (non-owning back-references).
	ReactionParents []*ReactionNode
}

// Frontier reports whether the molecule is still a candidate for expansion:
// not yet expanded and not exhausted.
func (n *MoleculeNode) Frontier() bool {
	return !n.Expanded && !n.Exhausted
}

// ReactionNode is an AND-node of the search graph. A reaction is solved only
// when every precursor molecule is solved.
type ReactionNode struct {
	// Seq is the node's insertion sequence number.
	Seq int

	// Product is the molecule this reaction produces (non-owning back-reference).
	Product *MoleculeNode

	// Precursors are the molecules the reaction requires, in predictor order.
	// The reaction owns none of them; molecules are shared across the DAG.
	Precursors []*MoleculeNode

	// Score is the predictor confidence for this candidate.
	Score float64

	// Solved reports whether all precursors are solved.
	Solved bool

	// Metadata records which predictor and template produced the reaction.
	Metadata ReactionMetadata
}

// allPrecursorsSolved recomputes the AND condition over the precursors.
func (r *ReactionNode) allPrecursorsSolved() bool {
	for _, p := range r.Precursors {
		if !p.Solved {
			return false
		}
	}
	return true
}
