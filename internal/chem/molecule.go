// Package chem defines the chemistry-facing value types and collaborator
// interfaces the search engine depends on: canonical molecule identity,
// canonicalization, and purchasability lookup.
//
// The engine never interprets molecular structure. It relies only on
// canonical-form equality, so the real chemistry toolkit stays behind the
// Canonicalizer interface.
package chem

import (
	"fmt"
	"sort"
	"strings"

	"github.com/fiberleif/syntheseus/internal/types"
)

// Molecule is an opaque canonical molecule representation.
// Two Molecules are equal iff their canonical forms are equal, which makes
// Molecule usable directly as a map key for graph deduplication.
type Molecule struct {
	canonical string
}

// NewMolecule wraps an already-canonical representation in a Molecule.
// Callers that hold raw input should go through a Canonicalizer instead.
func NewMolecule(canonical string) Molecule {
	return Molecule{canonical: canonical}
}

// String returns the canonical representation.
func (m Molecule) String() string {
	return m.canonical
}

// IsZero reports whether the molecule is the zero value.
func (m Molecule) IsZero() bool {
	return m.canonical == ""
}

// Canonicalizer converts raw molecule input into canonical form.
// The production implementation wraps an external chemistry toolkit; the
// engine only requires that equal molecules canonicalize identically.
type Canonicalizer interface {
	// Canonicalize parses raw input and returns its canonical Molecule.
	// Returns a MOLECULE_INVALID error if the input cannot be parsed.
	Canonicalize(raw string) (Molecule, error)
}

// NormalizingCanonicalizer is a deterministic, toolkit-free Canonicalizer
// used for offline runs and tests. It trims whitespace and sorts
// dot-separated fragments so that fragment order does not affect identity.
// It performs no structural chemistry.
type NormalizingCanonicalizer struct{}

// NewNormalizingCanonicalizer creates a NormalizingCanonicalizer.
func NewNormalizingCanonicalizer() *NormalizingCanonicalizer {
	return &NormalizingCanonicalizer{}
}

// Canonicalize normalizes raw input into a canonical Molecule.
func (c *NormalizingCanonicalizer) Canonicalize(raw string) (Molecule, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return Molecule{}, types.NewError(types.MOLECULE_INVALID, "molecule representation is empty")
	}
	if strings.ContainsAny(trimmed, " \t\n") {
		return Molecule{}, types.NewError(types.MOLECULE_INVALID,
			fmt.Sprintf("molecule representation contains whitespace: %q", raw))
	}

	// Multi-fragment inputs are order-insensitive.
	fragments := strings.Split(trimmed, ".")
	sort.Strings(fragments)

	return Molecule{canonical: strings.Join(fragments, ".")}, nil
}

// CanonicalizeAll canonicalizes a slice of raw inputs, failing on the first
// invalid entry.
func CanonicalizeAll(c Canonicalizer, raws []string) ([]Molecule, error) {
	mols := make([]Molecule, 0, len(raws))
	for _, raw := range raws {
		mol, err := c.Canonicalize(raw)
		if err != nil {
			return nil, err
		}
		mols = append(mols, mol)
	}
	return mols, nil
}
