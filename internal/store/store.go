package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"go.uber.org/multierr"
	"golang.org/x/text/unicode/norm"

	_ "modernc.org/sqlite" // pure Go SQLite driver, registers as "sqlite"
)

// Store is the durable, transactional item graph. A single handle is meant
// to be shared by all readers and the one logical writer per process;
// opening the same database path twice is unsupported.
type Store struct {
	db     *sql.DB
	logger *slog.Logger

	itemStmts itemStatements
	fileStmts fileStatements
	dirStmts  dirStatements
	rootStmts rootStatements
}

type itemStatements struct {
	getByUUID, getByParentName, insert, updateParentName, markStale,
	clearStale, deleteByUUID, sweepStale, deleteOrphanedSearch, setLocalData,
	setRecent, getFavoriteRank *sql.Stmt
}

type fileStatements struct {
	insert, update, updateRaw, updateDecoded *sql.Stmt
}

type dirStatements struct {
	insert, update, updateRaw, updateDecoded, touchLastListed *sql.Stmt
}

type rootStatements struct {
	get, upsert *sql.Stmt
}

// Open opens (or creates) the database at path, configures WAL pragmas,
// applies migrations, prepares all statements, and bootstraps the trash
// sentinel. Use ":memory:" for tests.
func Open(ctx context.Context, path string, logger *slog.Logger) (*Store, error) {
	logger.Info("opening cache store", slog.String("path", path))

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("store: open sqlite: %w", err)
	}

	if err := setPragmas(ctx, db); err != nil {
		db.Close()
		return nil, err
	}

	if err := runMigrations(ctx, db, logger); err != nil {
		db.Close()
		return nil, err
	}

	s := &Store{db: db, logger: logger}

	if err := s.prepareStatements(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("store: prepare statements: %w", err)
	}

	if err := s.bootstrapTrash(ctx); err != nil {
		s.Close()
		return nil, err
	}

	logger.Info("cache store ready", slog.String("path", path))

	return s, nil
}

func setPragmas(ctx context.Context, db *sql.DB) error {
	pragmas := []struct{ sql, desc string }{
		{"PRAGMA journal_mode = WAL", "WAL mode"},
		{"PRAGMA synchronous = NORMAL", "synchronous NORMAL"},
		{"PRAGMA foreign_keys = ON", "foreign keys"},
		{"PRAGMA recursive_triggers = ON", "recursive triggers"},
		{"PRAGMA temp_store = MEMORY", "temp store in memory"},
	}

	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p.sql); err != nil {
			return fmt.Errorf("store: set pragma %s: %w", p.desc, err)
		}
	}

	return nil
}

func (s *Store) bootstrapTrash(ctx context.Context) error {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM items WHERE uuid = ?`, TrashUUID).Scan(&count); err != nil {
		return fmt.Errorf("store: check trash sentinel: %w", err)
	}

	if count > 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin trash bootstrap: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`INSERT INTO items (uuid, parent, type, is_stale, is_recent) VALUES (?, NULL, ?, 0, 0)`,
		TrashUUID, TypeDirectory,
	)
	if err != nil {
		return fmt.Errorf("store: insert trash item: %w", err)
	}

	itemID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("store: trash item id: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO directories (item_id, metadata_state) VALUES (?, ?)`,
		itemID, MetadataDecoded,
	); err != nil {
		return fmt.Errorf("store: insert trash directory row: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO dir_meta (dir_id, name, created) VALUES (?, 'Trash', 0)`,
		itemID,
	); err != nil {
		return fmt.Errorf("store: insert trash meta: %w", err)
	}

	return tx.Commit()
}

func (s *Store) prepareStatements(ctx context.Context) error {
	prep := func(dst **sql.Stmt, query string) error {
		stmt, err := s.db.PrepareContext(ctx, query)
		if err != nil {
			return fmt.Errorf("prepare %q: %w", query, err)
		}
		*dst = stmt
		return nil
	}

	stmts := []struct {
		dst   **sql.Stmt
		query string
	}{
		{&s.itemStmts.getByUUID, `SELECT id, uuid, COALESCE(parent,''), type, is_stale, is_recent, COALESCE(local_data,''), COALESCE(parent_path,'') FROM items WHERE uuid = ?`},
		{&s.itemStmts.getByParentName, `
			SELECT i.id, i.uuid, COALESCE(i.parent,''), i.type, i.is_stale, i.is_recent, COALESCE(i.local_data,''), COALESCE(i.parent_path,'')
			FROM items i
			LEFT JOIN files f ON f.item_id = i.id
			LEFT JOIN file_meta fm ON fm.file_id = f.item_id
			LEFT JOIN directories d ON d.item_id = i.id
			LEFT JOIN dir_meta dm ON dm.dir_id = d.item_id
			WHERE i.parent = ? AND i.is_stale = 0 AND COALESCE(fm.name, dm.name, i.uuid) = ?`},
		{&s.itemStmts.insert, `INSERT INTO items (uuid, parent, type, is_stale, is_recent, local_data, parent_path) VALUES (?, ?, ?, 0, ?, ?, ?)`},
		{&s.itemStmts.updateParentName, `UPDATE items SET uuid = ?, parent = ?, is_stale = 0, is_recent = ?, local_data = ?, parent_path = ? WHERE id = ?`},
		{&s.itemStmts.markStale, `UPDATE items SET is_stale = 1 WHERE parent = ? AND is_stale = 0`},
		{&s.itemStmts.clearStale, `UPDATE items SET is_stale = 0 WHERE id = ?`},
		{&s.itemStmts.deleteByUUID, `DELETE FROM items WHERE uuid = ?`},
		{&s.itemStmts.sweepStale, `DELETE FROM items WHERE parent = ? AND is_stale = 1`},
		{&s.itemStmts.deleteOrphanedSearch, `DELETE FROM items WHERE parent_path IS NOT NULL AND parent NOT IN (SELECT uuid FROM items)`},
		{&s.itemStmts.setLocalData, `UPDATE items SET local_data = ? WHERE uuid = ?`},
		{&s.itemStmts.setRecent, `UPDATE items SET is_recent = 1 WHERE uuid = ?`},
		{&s.itemStmts.getFavoriteRank, `
			SELECT COALESCE(f.favorite_rank, d.favorite_rank, 0)
			FROM items i
			LEFT JOIN files f ON f.item_id = i.id
			LEFT JOIN directories d ON d.item_id = i.id
			WHERE i.id = ?`},

		{&s.fileStmts.insert, `INSERT INTO files (item_id, size, chunk_count, favorite_rank, storage_region, storage_bucket, metadata_state, raw_metadata) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`},
		{&s.fileStmts.update, `UPDATE files SET size = ?, chunk_count = ?, favorite_rank = ?, storage_region = ?, storage_bucket = ? WHERE item_id = ?`},
		{&s.fileStmts.updateRaw, `UPDATE files SET metadata_state = ?, raw_metadata = ? WHERE item_id = ?`},
		{&s.fileStmts.updateDecoded, `UPDATE files SET metadata_state = 0, raw_metadata = NULL WHERE item_id = ?`},

		{&s.dirStmts.insert, `INSERT INTO directories (item_id, favorite_rank, color, last_listed, metadata_state, raw_metadata) VALUES (?, ?, ?, 0, ?, ?)`},
		{&s.dirStmts.update, `UPDATE directories SET favorite_rank = ?, color = ? WHERE item_id = ?`},
		{&s.dirStmts.updateRaw, `UPDATE directories SET metadata_state = ?, raw_metadata = ? WHERE item_id = ?`},
		{&s.dirStmts.updateDecoded, `UPDATE directories SET metadata_state = 0, raw_metadata = NULL WHERE item_id = ?`},
		{&s.dirStmts.touchLastListed, `UPDATE directories SET last_listed = ? WHERE item_id = ?`},

		{&s.rootStmts.get, `SELECT storage_used, max_storage, last_updated FROM root WHERE item_id = ?`},
		{&s.rootStmts.upsert, `INSERT INTO root (item_id, storage_used, max_storage, last_updated) VALUES (?, ?, ?, ?)
			ON CONFLICT(item_id) DO UPDATE SET storage_used = excluded.storage_used, max_storage = excluded.max_storage, last_updated = excluded.last_updated`},
	}

	for _, st := range stmts {
		if err := prep(st.dst, st.query); err != nil {
			return err
		}
	}

	return nil
}

// Close releases every prepared statement and the underlying database
// handle, aggregating any errors encountered along the way.
func (s *Store) Close() error {
	var err error

	allStmts := []*sql.Stmt{
		s.itemStmts.getByUUID, s.itemStmts.getByParentName, s.itemStmts.insert,
		s.itemStmts.updateParentName, s.itemStmts.markStale, s.itemStmts.clearStale,
		s.itemStmts.deleteByUUID, s.itemStmts.sweepStale, s.itemStmts.deleteOrphanedSearch,
		s.itemStmts.setLocalData, s.itemStmts.setRecent, s.itemStmts.getFavoriteRank,
		s.fileStmts.insert, s.fileStmts.update, s.fileStmts.updateRaw, s.fileStmts.updateDecoded,
		s.dirStmts.insert, s.dirStmts.update, s.dirStmts.updateRaw, s.dirStmts.updateDecoded, s.dirStmts.touchLastListed,
		s.rootStmts.get, s.rootStmts.upsert,
	}

	for _, stmt := range allStmts {
		if stmt == nil {
			continue
		}
		err = multierr.Append(err, stmt.Close())
	}

	err = multierr.Append(err, s.db.Close())

	return err
}

// normalizeName applies Unicode NFC normalization to names crossing the
// foreign-binding-layer boundary, so effective-name comparisons are not
// fooled by combining-character variance.
func normalizeName(name string) string {
	return norm.NFC.String(name)
}

// DB exposes the underlying *sql.DB. Packages that write inside a
// transaction (internal/identity, internal/upsert) go through BeginTx and
// *Tx instead.
func (s *Store) DB() *sql.DB {
	return s.db
}

// Logger returns the store's logger for collaborating packages.
func (s *Store) Logger() *slog.Logger {
	return s.logger
}
