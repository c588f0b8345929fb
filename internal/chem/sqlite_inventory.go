package chem

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	// Import sqlite3 driver
	_ "github.com/mattn/go-sqlite3"

	"github.com/fiberleif/syntheseus/internal/types"
)

// SQLiteInventoryConfig holds connection options for a SQLite-backed inventory.
type SQLiteInventoryConfig struct {
	Path         string        // Database file path
	MaxOpenConns int           // Maximum number of open connections
	MaxIdleConns int           // Maximum number of idle connections
	BusyTimeout  time.Duration // SQLite busy timeout
	QueryTimeout time.Duration // Per-lookup timeout
}

// DefaultSQLiteInventoryConfig returns sensible defaults for the given path.
func DefaultSQLiteInventoryConfig(path string) SQLiteInventoryConfig {
	return SQLiteInventoryConfig{
		Path:         path,
		MaxOpenConns: 10,
		MaxIdleConns: 5,
		BusyTimeout:  5 * time.Second,
		QueryTimeout: 5 * time.Second,
	}
}

// SQLiteInventory is an Inventory backed by a SQLite stock database.
// The schema is a single table of canonical molecule strings with a unique
// index, so lookups are point queries.
type SQLiteInventory struct {
	conn   *sql.DB
	lookup *sql.Stmt
	cfg    SQLiteInventoryConfig
}

// OpenSQLiteInventory opens (creating if necessary) a SQLite inventory at the
// configured path. WAL mode is enabled for concurrent readers during a run.
func OpenSQLiteInventory(cfg SQLiteInventoryConfig) (*SQLiteInventory, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=%d",
		cfg.Path,
		int(cfg.BusyTimeout.Milliseconds()),
	)

	conn, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, types.WrapError(types.INVENTORY_OPEN_FAILED, "failed to open inventory database", err)
	}

	conn.SetMaxOpenConns(cfg.MaxOpenConns)
	conn.SetMaxIdleConns(cfg.MaxIdleConns)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := conn.PingContext(ctx); err != nil {
		conn.Close()
		return nil, types.WrapError(types.INVENTORY_OPEN_FAILED, "failed to connect to inventory database", err)
	}

	if _, err := conn.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS stock (
			molecule TEXT PRIMARY KEY
		)
	`); err != nil {
		conn.Close()
		return nil, types.WrapError(types.INVENTORY_OPEN_FAILED, "failed to initialize stock table", err)
	}

	lookup, err := conn.Prepare(`SELECT 1 FROM stock WHERE molecule = ? LIMIT 1`)
	if err != nil {
		conn.Close()
		return nil, types.WrapError(types.INVENTORY_OPEN_FAILED, "failed to prepare stock lookup", err)
	}

	return &SQLiteInventory{conn: conn, lookup: lookup, cfg: cfg}, nil
}

// IsPurchasable reports whether the molecule exists in the stock table.
func (inv *SQLiteInventory) IsPurchasable(ctx context.Context, mol Molecule) (bool, error) {
	if inv.cfg.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, inv.cfg.QueryTimeout)
		defer cancel()
	}

	var one int
	err := inv.lookup.QueryRowContext(ctx, mol.String()).Scan(&one)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, types.WrapRetryableError(types.INVENTORY_QUERY_FAILED, "stock lookup failed", err)
	}
	return true, nil
}

// AddStock inserts molecules into the stock table, ignoring duplicates.
// Used by the CLI when loading a stock file.
func (inv *SQLiteInventory) AddStock(ctx context.Context, mols ...Molecule) error {
	tx, err := inv.conn.BeginTx(ctx, nil)
	if err != nil {
		return types.WrapError(types.INVENTORY_QUERY_FAILED, "failed to begin stock transaction", err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO stock (molecule) VALUES (?)`)
	if err != nil {
		tx.Rollback()
		return types.WrapError(types.INVENTORY_QUERY_FAILED, "failed to prepare stock insert", err)
	}
	defer stmt.Close()

	for _, mol := range mols {
		if _, err := stmt.ExecContext(ctx, mol.String()); err != nil {
			tx.Rollback()
			return types.WrapError(types.INVENTORY_QUERY_FAILED,
				fmt.Sprintf("failed to insert stock molecule %q", mol.String()), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return types.WrapError(types.INVENTORY_QUERY_FAILED, "failed to commit stock transaction", err)
	}
	return nil
}

// Close releases the prepared statement and database connection.
func (inv *SQLiteInventory) Close() error {
	if inv.lookup != nil {
		inv.lookup.Close()
	}
	if inv.conn != nil {
		return inv.conn.Close()
	}
	return nil
}
