package main

import (
	"bufio"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/fiberleif/syntheseus/internal/chem"
)

var stockFile string

var stockCmd = &cobra.Command{
	Use:   "stock",
	Short: "Manage the purchasable stock database",
}

var stockLoadCmd = &cobra.Command{
	Use:   "load <db-path> [molecule...]",
	Short: "Load molecules into a SQLite stock database",
	Long: `Load inserts purchasable molecules into the stock database, creating it
if necessary. Molecules are given as arguments or read from a file
(one per line, blank lines and #-comments skipped) with --file.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runStockLoad,
}

func init() {
	stockLoadCmd.Flags().StringVarP(&stockFile, "file", "f", "", "Read molecules from this file, one per line")
	stockCmd.AddCommand(stockLoadCmd)
}

func runStockLoad(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	raws := args[1:]
	if stockFile != "" {
		fromFile, err := readMoleculeFile(stockFile)
		if err != nil {
			return err
		}
		raws = append(raws, fromFile...)
	}

	canon := chem.NewNormalizingCanonicalizer()
	mols, err := chem.CanonicalizeAll(canon, raws)
	if err != nil {
		return err
	}

	inv, err := chem.OpenSQLiteInventory(chem.DefaultSQLiteInventoryConfig(args[0]))
	if err != nil {
		return err
	}
	defer inv.Close()

	if err := inv.AddStock(ctx, mols...); err != nil {
		return err
	}

	cmd.Printf("Loaded %d molecule(s) into %s\n", len(mols), args[0])
	return nil
}

// readMoleculeFile reads one molecule per line, skipping blanks and comments.
func readMoleculeFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var mols []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		mols = append(mols, line)
	}
	return mols, scanner.Err()
}
