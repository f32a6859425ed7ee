package store

import (
	"context"
	"database/sql"
	"fmt"
)

// Tx wraps a single logical write transaction, giving identity/upsert/
// refresh/ingest packages access to the store's prepared statements bound
// to this transaction's connection.
type Tx struct {
	tx *sql.Tx
	s  *Store
}

// BeginTx starts a new exclusive-writer transaction. Every write path
// (upsert, refresh, delete, sweep) is expected to run inside one Tx and
// commit or roll back as a single atomic unit.
func (s *Store) BeginTx(ctx context.Context) (*Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("store: begin tx: %w", err)
	}
	return &Tx{tx: tx, s: s}, nil
}

func (t *Tx) Commit() error   { return t.tx.Commit() }
func (t *Tx) Rollback() error { return t.tx.Rollback() }

func (t *Tx) stmt(stmt *sql.Stmt) *sql.Stmt {
	return t.tx.Stmt(stmt)
}
