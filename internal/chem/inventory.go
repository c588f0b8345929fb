package chem

import (
	"context"
	"sync"
)

// Inventory answers purchasability queries for molecules.
// It is consulted exactly once per molecule, when the search graph first
// creates the molecule's node.
type Inventory interface {
	// IsPurchasable reports whether the molecule can be obtained without
	// further synthesis.
	IsPurchasable(ctx context.Context, mol Molecule) (bool, error)

	// Close releases any resources held by the inventory.
	Close() error
}

// MapInventory is an in-memory Inventory backed by a set of molecules.
// It is safe for concurrent use and is the default inventory for tests
// and small offline runs.
type MapInventory struct {
	mu    sync.RWMutex
	stock map[Molecule]struct{}
}

// NewMapInventory creates a MapInventory containing the given molecules.
func NewMapInventory(mols ...Molecule) *MapInventory {
	stock := make(map[Molecule]struct{}, len(mols))
	for _, mol := range mols {
		stock[mol] = struct{}{}
	}
	return &MapInventory{stock: stock}
}

// Add inserts a molecule into the inventory.
func (inv *MapInventory) Add(mol Molecule) {
	inv.mu.Lock()
	defer inv.mu.Unlock()
	inv.stock[mol] = struct{}{}
}

// IsPurchasable reports whether the molecule is in stock.
func (inv *MapInventory) IsPurchasable(_ context.Context, mol Molecule) (bool, error) {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	_, ok := inv.stock[mol]
	return ok, nil
}

// Size returns the number of molecules in stock.
func (inv *MapInventory) Size() int {
	inv.mu.RLock()
	defer inv.mu.RUnlock()
	return len(inv.stock)
}

// Close is a no-op for MapInventory.
func (inv *MapInventory) Close() error {
	return nil
}
