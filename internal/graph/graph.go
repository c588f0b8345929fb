// Package graph implements the AND-OR search graph for retrosynthetic
// planning: molecule OR-nodes, reaction AND-nodes, mandatory deduplication by
// canonical molecule, cycle rejection at insertion time, and fixed-point
// solved-status propagation.
//
// The graph is deliberately not goroutine-safe. All mutation is serialized by
// the search runner (single-writer discipline); read-only traversals such as
// route extraction may run after the search completes.
package graph

import (
	"context"
	"fmt"
	"log/slog"
	"math"

	"github.com/fiberleif/syntheseus/internal/chem"
	"github.com/fiberleif/syntheseus/internal/types"
)

// Graph is the AND-OR DAG for one search run. It owns every node, maps
// canonical molecules to their unique nodes, and keeps arena slices in
// insertion order so iteration is deterministic.
type Graph struct {
	root      *MoleculeNode
	nodes     map[chem.Molecule]*MoleculeNode
	molecules []*MoleculeNode
	reactions []*ReactionNode
	inventory chem.Inventory
	logger    *slog.Logger
	nextSeq   int
}

// Option is a functional option for configuring a Graph.
type Option func(*Graph)

// WithLogger configures the graph to use the specified structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(g *Graph) {
		g.logger = logger
	}
}

// New creates a Graph seeded with the root target molecule. The inventory is
// consulted to set the root's initial purchasability and solved status.
func New(ctx context.Context, target chem.Molecule, inventory chem.Inventory, opts ...Option) (*Graph, error) {
	if target.IsZero() {
		return nil, types.NewError(types.MOLECULE_INVALID, "target molecule is empty")
	}

	g := &Graph{
		nodes:     make(map[chem.Molecule]*MoleculeNode),
		inventory: inventory,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}

	root, _ := g.GetOrCreateMoleculeNode(ctx, target)
	g.root = root
	return g, nil
}

// Root returns the distinguished root molecule node.
func (g *Graph) Root() *MoleculeNode {
	return g.root
}

// IsSolved reports whether the root molecule is solved.
func (g *Graph) IsSolved() bool {
	return g.root != nil && g.root.Solved
}

// MoleculeCount returns the number of molecule nodes created so far.
func (g *Graph) MoleculeCount() int {
	return len(g.molecules)
}

// ReactionCount returns the number of reaction nodes created so far.
func (g *Graph) ReactionCount() int {
	return len(g.reactions)
}

// Molecules returns all molecule nodes in insertion order. The slice is
// shared with the graph and must not be modified.
func (g *Graph) Molecules() []*MoleculeNode {
	return g.molecules
}

// Reactions returns all reaction nodes in insertion order. The slice is
// shared with the graph and must not be modified.
func (g *Graph) Reactions() []*ReactionNode {
	return g.reactions
}

// GetOrCreateMoleculeNode returns the unique node for the molecule, creating
// it on first reference. The second return value reports whether a new node
// was created. Creation consults the inventory: purchasable molecules start
// solved with cost 0. An inventory lookup failure is logged and treated as
// "not purchasable"; the run continues.
func (g *Graph) GetOrCreateMoleculeNode(ctx context.Context, mol chem.Molecule) (*MoleculeNode, bool) {
	if node, ok := g.nodes[mol]; ok {
		return node, false
	}

	node := &MoleculeNode{
		Seq:          g.nextSeq,
		Molecule:     mol,
		CostEstimate: math.Inf(1),
	}
	g.nextSeq++

	if g.inventory != nil {
		purchasable, err := g.inventory.IsPurchasable(ctx, mol)
		if err != nil {
			g.logger.WarnContext(ctx, "inventory lookup failed, treating molecule as not purchasable",
				"molecule", mol.String(),
				"error", err,
			)
		} else if purchasable {
			node.Purchasable = true
			node.Solved = true
			node.CostEstimate = 0
		}
	}

	g.nodes[mol] = node
	g.molecules = append(g.molecules, node)
	return node, true
}

// AddReaction creates a reaction AND-node producing product from the given
// precursor molecules and links it into the graph. Precursor nodes are
// created through the same deduplicating lookup.
//
// The insertion is all-or-nothing: if any precursor is the product itself or
// an ancestor of the product, AddReaction returns a CYCLE_DETECTED error and
// the graph is left unchanged (no nodes created, no edges linked).
func (g *Graph) AddReaction(ctx context.Context, product *MoleculeNode, precursors []chem.Molecule, score float64, meta ReactionMetadata) (*ReactionNode, error) {
	if product == nil {
		return nil, types.NewError(types.MOLECULE_INVALID, "reaction product node is nil")
	}
	if len(precursors) == 0 {
		return nil, types.NewError(types.PREDICTION_MALFORMED,
			fmt.Sprintf("reaction for %q has no precursors", product.Molecule.String()))
	}

	// Validate before any mutation. Ancestors of the product are every
	// molecule from which the product is reachable through reaction edges,
	// found by walking up precursor -> consuming reaction -> product links.
	ancestors := g.ancestorsOf(product)
	for _, mol := range precursors {
		if mol.IsZero() {
			return nil, types.NewError(types.MOLECULE_INVALID,
				fmt.Sprintf("reaction for %q has an empty precursor", product.Molecule.String()))
		}
		if existing, ok := g.nodes[mol]; ok {
			if _, isAncestor := ancestors[existing]; isAncestor {
				return nil, types.NewError(types.CYCLE_DETECTED,
					fmt.Sprintf("precursor %q is an ancestor of product %q", mol.String(), product.Molecule.String()))
			}
		}
	}

	reaction := &ReactionNode{
		Seq:      g.nextSeq,
		Product:  product,
		Score:    score,
		Metadata: meta,
	}
	g.nextSeq++

	for _, mol := range precursors {
		node, created := g.GetOrCreateMoleculeNode(ctx, mol)
		if depth := product.Depth + 1; created || depth < node.Depth {
			node.Depth = depth
		}
		reaction.Precursors = append(reaction.Precursors, node)
		node.ReactionParents = append(node.ReactionParents, reaction)
	}

	reaction.Solved = reaction.allPrecursorsSolved()
	product.ReactionChildren = append(product.ReactionChildren, reaction)
	g.reactions = append(g.reactions, reaction)

	return reaction, nil
}

// ancestorsOf returns the set of molecules from which node is reachable via
// reaction edges, including node itself. Traversal walks upward through the
// reactions that consume each molecule as a precursor.
func (g *Graph) ancestorsOf(node *MoleculeNode) map[*MoleculeNode]struct{} {
	ancestors := map[*MoleculeNode]struct{}{node: {}}
	stack := []*MoleculeNode{node}

	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		for _, r := range current.ReactionParents {
			if r.Product == nil {
				continue
			}
			if _, seen := ancestors[r.Product]; !seen {
				ancestors[r.Product] = struct{}{}
				stack = append(stack, r.Product)
			}
		}
	}
	return ancestors
}

// UpdateSolvedStatus recomputes the solved flag of the given molecule node
// and propagates any change upward through reaction parents and their product
// molecules until a fixed point is reached. The final state is independent of
// propagation order; repeated calls with no intervening graph change are
// no-ops.
func (g *Graph) UpdateSolvedStatus(node *MoleculeNode) {
	if node == nil {
		return
	}

	molecules := []*MoleculeNode{node}
	for len(molecules) > 0 {
		current := molecules[0]
		molecules = molecules[1:]

		solved := current.Purchasable
		if !solved {
			for _, r := range current.ReactionChildren {
				if r.Solved {
					solved = true
					break
				}
			}
		}
		if solved == current.Solved {
			continue
		}
		current.Solved = solved
		if solved && current.Purchasable {
			current.CostEstimate = 0
		}

		// A molecule flip may flip every reaction consuming it, which in
		// turn may flip the reaction's product molecule.
		for _, r := range current.ReactionParents {
			if rSolved := r.allPrecursorsSolved(); rSolved != r.Solved {
				r.Solved = rSolved
				if r.Product != nil {
					molecules = append(molecules, r.Product)
				}
			}
		}
	}
}

// UpdateSolvedFromReaction recomputes a reaction's solved flag and, on
// change, propagates through its product molecule. Used after new reactions
// are linked.
func (g *Graph) UpdateSolvedFromReaction(reaction *ReactionNode) {
	if reaction == nil {
		return
	}
	reaction.Solved = reaction.allPrecursorsSolved()
	if reaction.Product != nil {
		g.UpdateSolvedStatus(reaction.Product)
	}
}
