package chem

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapInventory(t *testing.T) {
	ctx := context.Background()
	inv := NewMapInventory(NewMolecule("CCO"), NewMolecule("CBr"))
	defer inv.Close()

	ok, err := inv.IsPurchasable(ctx, NewMolecule("CCO"))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = inv.IsPurchasable(ctx, NewMolecule("c1ccccc1"))
	require.NoError(t, err)
	assert.False(t, ok)

	inv.Add(NewMolecule("c1ccccc1"))
	ok, err = inv.IsPurchasable(ctx, NewMolecule("c1ccccc1"))
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 3, inv.Size())
}

func TestSQLiteInventory_RoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "stock.db")

	inv, err := OpenSQLiteInventory(DefaultSQLiteInventoryConfig(path))
	require.NoError(t, err)
	defer inv.Close()

	require.NoError(t, inv.AddStock(ctx, NewMolecule("CCO"), NewMolecule("CBr")))

	// Duplicate insert is ignored.
	require.NoError(t, inv.AddStock(ctx, NewMolecule("CCO")))

	ok, err := inv.IsPurchasable(ctx, NewMolecule("CCO"))
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = inv.IsPurchasable(ctx, NewMolecule("CCCCC"))
	require.NoError(t, err)
	assert.False(t, ok)
}
