// Package index implements the deposit index (A4): a rebuildable,
// non-authoritative SQLite secondary index that answers "list deposits"
// queries without scanning the filesystem on every request. The
// properties store (C1) remains the source of truth; any divergence is
// resolved by Rebuild from a fresh filesystem scan.
package index

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/scidataarchive/depositd/internal/domain/deposit"
	"github.com/scidataarchive/depositd/internal/domain/repository"
)

//go:embed schema.sql
var schemaSQL string

// Index is the SQLite-backed DepositIndex.
type Index struct {
	db *sql.DB
}

// Open opens (creating if necessary) the SQLite database at path and
// applies the schema.
func Open(path string) (*Index, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("index: open %s: %w", path, err)
	}
	idx := &Index{db: db}
	if err := idx.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return idx, nil
}

func (idx *Index) migrate() error {
	for _, stmt := range splitStatements(schemaSQL) {
		if _, err := idx.db.Exec(stmt); err != nil {
			return fmt.Errorf("index: apply schema statement %q: %w", stmt, err)
		}
	}
	return nil
}

func splitStatements(schema string) []string {
	var out []string
	for _, stmt := range strings.Split(schema, ";") {
		stmt = strings.TrimSpace(stmt)
		if stmt != "" {
			out = append(out, stmt)
		}
	}
	return out
}

// Upsert implements repository.DepositIndex.
func (idx *Index) Upsert(ctx context.Context, entry repository.IndexEntry) error {
	_, err := idx.db.ExecContext(ctx, `
		INSERT INTO deposit_index (deposit_id, state, size_bytes, received_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(deposit_id) DO UPDATE SET
			state = excluded.state,
			size_bytes = excluded.size_bytes,
			received_at = excluded.received_at
	`, entry.DepositID, string(entry.State), entry.SizeBytes, entry.ReceivedAt)
	if err != nil {
		return fmt.Errorf("index: upsert %s: %w", entry.DepositID, err)
	}
	return nil
}

// List implements repository.DepositIndex.
func (idx *Index) List(ctx context.Context) ([]repository.IndexEntry, error) {
	rows, err := idx.db.QueryContext(ctx, `
		SELECT deposit_id, state, size_bytes, received_at FROM deposit_index ORDER BY received_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("index: list: %w", err)
	}
	defer rows.Close()

	var out []repository.IndexEntry
	for rows.Next() {
		var e repository.IndexEntry
		var state string
		if err := rows.Scan(&e.DepositID, &state, &e.SizeBytes, &e.ReceivedAt); err != nil {
			return nil, fmt.Errorf("index: scan row: %w", err)
		}
		e.State = deposit.State(state)
		out = append(out, e)
	}
	return out, rows.Err()
}

// Rebuild replaces the entire index contents with entries, inside a
// single transaction, used at startup to repair any divergence between
// the index and the filesystem's actual properties records.
func (idx *Index) Rebuild(ctx context.Context, entries []repository.IndexEntry) error {
	tx, err := idx.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("index: rebuild: begin: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM deposit_index`); err != nil {
		return fmt.Errorf("index: rebuild: clear: %w", err)
	}
	for _, e := range entries {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO deposit_index (deposit_id, state, size_bytes, received_at)
			VALUES (?, ?, ?, ?)
		`, e.DepositID, string(e.State), e.SizeBytes, e.ReceivedAt); err != nil {
			return fmt.Errorf("index: rebuild: insert %s: %w", e.DepositID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("index: rebuild: commit: %w", err)
	}
	return nil
}

// Close implements repository.DepositIndex.
func (idx *Index) Close() error {
	return idx.db.Close()
}

var _ repository.DepositIndex = (*Index)(nil)
