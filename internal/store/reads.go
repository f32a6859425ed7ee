package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/filen/filen-cache-core/internal/storeerr"
)

// GetItemByUUID returns the lean item row (no joined metadata) for uuid.
func (t *Tx) GetItemByUUID(ctx context.Context, uuid string) (Item, error) {
	return scanLeanItem(t.stmt(t.s.itemStmts.getByUUID).QueryRowContext(ctx, uuid))
}

// GetItemByParentName resolves an item by (parent, effective_name) among
// non-stale rows, per the identity resolver's rule 2.
func (t *Tx) GetItemByParentName(ctx context.Context, parent, name string) (Item, error) {
	return scanLeanItem(t.stmt(t.s.itemStmts.getByParentName).QueryRowContext(ctx, parent, normalizeName(name)))
}

// GetFavoriteRank reads the current favorite_rank of the file or directory
// extension row for itemID. GetItemByUUID/GetItemByParentName return the
// lean item (no joined extension columns), so an upsert merging an
// incoming favorite_rank against the existing one must fetch it here first.
func (t *Tx) GetFavoriteRank(ctx context.Context, itemID int64) (int, error) {
	var rank int

	err := t.stmt(t.s.itemStmts.getFavoriteRank).QueryRowContext(ctx, itemID).Scan(&rank)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, storeerr.Wrap("get_favorite_rank", "", fmt.Errorf("%w: %v", storeerr.ErrStoreIO, err))
	}

	return rank, nil
}

func scanLeanItem(row *sql.Row) (Item, error) {
	var it Item
	var typ int
	var isStale, isRecent int

	err := row.Scan(&it.ID, &it.UUID, &it.Parent, &typ, &isStale, &isRecent, &it.LocalData, &it.ParentPath)
	if errors.Is(err, sql.ErrNoRows) {
		return Item{}, storeerr.Wrap("get_item", "", storeerr.ErrNotFound)
	}
	if err != nil {
		return Item{}, storeerr.Wrap("get_item", "", fmt.Errorf("%w: %v", storeerr.ErrStoreIO, err))
	}

	it.Type = ItemType(typ)
	it.IsStale = isStale != 0
	it.IsRecent = isRecent != 0

	return it, nil
}

// GetObject returns the fully joined projection of uuid, shaped by the
// item's type, for the query surface.
func (s *Store) GetObject(ctx context.Context, uuid string) (Item, error) {
	return s.getObject(ctx, s.db, uuid)
}

func (s *Store) getObject(ctx context.Context, q queryer, uuid string) (Item, error) {
	row := q.QueryRowContext(ctx, fullItemQuery+` WHERE i.uuid = ?`, uuid)
	it, err := scanFullItem(row)
	if err != nil {
		return Item{}, err
	}
	return it, nil
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

const fullItemQuery = `
SELECT
	i.id, i.uuid, COALESCE(i.parent,''), i.type, i.is_stale, i.is_recent, COALESCE(i.local_data,''), COALESCE(i.parent_path,''),
	COALESCE(f.size,0), COALESCE(f.chunk_count,0), COALESCE(f.favorite_rank, d.favorite_rank, 0),
	COALESCE(f.storage_region,''), COALESCE(f.storage_bucket,''),
	COALESCE(f.metadata_state, d.metadata_state, 0), COALESCE(f.raw_metadata, d.raw_metadata),
	COALESCE(d.color,''), COALESCE(d.last_listed,0),
	COALESCE(fm.name, dm.name, ''), COALESCE(fm.mime,''), COALESCE(fm.file_key,''), COALESCE(fm.file_key_version,0),
	COALESCE(fm.created, dm.created, 0), COALESCE(fm.modified,0), COALESCE(fm.hash,''),
	COALESCE(r.storage_used,0), COALESCE(r.max_storage,0), COALESCE(r.last_updated,0)
FROM items i
LEFT JOIN files f ON f.item_id = i.id
LEFT JOIN file_meta fm ON fm.file_id = f.item_id
LEFT JOIN directories d ON d.item_id = i.id
LEFT JOIN dir_meta dm ON dm.dir_id = d.item_id
LEFT JOIN root r ON r.item_id = i.id
`

func scanFullItem(row *sql.Row) (Item, error) {
	var it Item
	var typ, state int
	var isStale, isRecent int
	var rawMeta []byte

	err := row.Scan(
		&it.ID, &it.UUID, &it.Parent, &typ, &isStale, &isRecent, &it.LocalData, &it.ParentPath,
		&it.Size, &it.ChunkCount, &it.FavoriteRank,
		&it.StorageRegion, &it.StorageBucket,
		&state, &rawMeta,
		&it.Color, &it.LastListed,
		&it.Name, &it.Mime, &it.FileKey, &it.KeyVer,
		&it.Created, &it.Modified, &it.Hash,
		&it.StorageUsed, &it.MaxStorage, &it.LastUpdated,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return Item{}, storeerr.Wrap("get_object", "", storeerr.ErrNotFound)
	}
	if err != nil {
		return Item{}, storeerr.Wrap("get_object", "", fmt.Errorf("%w: %v", storeerr.ErrStoreIO, err))
	}

	it.Type = ItemType(typ)
	it.IsStale = isStale != 0
	it.IsRecent = isRecent != 0
	it.MetadataState = MetadataState(state)
	it.RawMetadata = rawMeta

	return it, nil
}

func scanFullItemRows(rows *sql.Rows) ([]Item, error) {
	defer rows.Close()

	var out []Item
	for rows.Next() {
		var it Item
		var typ, state int
		var isStale, isRecent int
		var rawMeta []byte

		err := rows.Scan(
			&it.ID, &it.UUID, &it.Parent, &typ, &isStale, &isRecent, &it.LocalData, &it.ParentPath,
			&it.Size, &it.ChunkCount, &it.FavoriteRank,
			&it.StorageRegion, &it.StorageBucket,
			&state, &rawMeta,
			&it.Color, &it.LastListed,
			&it.Name, &it.Mime, &it.FileKey, &it.KeyVer,
			&it.Created, &it.Modified, &it.Hash,
			&it.StorageUsed, &it.MaxStorage, &it.LastUpdated,
		)
		if err != nil {
			return nil, storeerr.Wrap("list", "", fmt.Errorf("%w: %v", storeerr.ErrStoreIO, err))
		}

		it.Type = ItemType(typ)
		it.IsStale = isStale != 0
		it.IsRecent = isRecent != 0
		it.MetadataState = MetadataState(state)
		it.RawMetadata = rawMeta

		out = append(out, it)
	}

	if err := rows.Err(); err != nil {
		return nil, storeerr.Wrap("list", "", fmt.Errorf("%w: %v", storeerr.ErrStoreIO, err))
	}

	return out, nil
}

// ListDirChildren returns every non-stale child of parent.
func (s *Store) ListDirChildren(ctx context.Context, parent string) ([]Item, error) {
	rows, err := s.db.QueryContext(ctx, fullItemQuery+` WHERE i.parent = ? AND i.is_stale = 0`, parent)
	if err != nil {
		return nil, storeerr.Wrap("list_dir_children", parent, fmt.Errorf("%w: %v", storeerr.ErrStoreIO, err))
	}
	return scanFullItemRows(rows)
}

// FindChild matches name against either meta row or the uuid fallback,
// ties broken in favor of a real name over a uuid match.
func (s *Store) FindChild(ctx context.Context, parent, name string) (Item, error) {
	name = normalizeName(name)

	row := s.db.QueryRowContext(ctx, fullItemQuery+`
		WHERE i.parent = ? AND i.is_stale = 0 AND COALESCE(fm.name, dm.name, i.uuid) = ?
		ORDER BY (COALESCE(fm.name, dm.name) IS NULL) ASC
		LIMIT 1`, parent, name)

	it, err := scanFullItem(row)
	if err != nil {
		return Item{}, err
	}
	return it, nil
}

// ListRecents returns every item with is_recent=TRUE.
func (s *Store) ListRecents(ctx context.Context) ([]Item, error) {
	rows, err := s.db.QueryContext(ctx, fullItemQuery+` WHERE i.is_recent = 1`)
	if err != nil {
		return nil, storeerr.Wrap("list_recents", "", fmt.Errorf("%w: %v", storeerr.ErrStoreIO, err))
	}
	return scanFullItemRows(rows)
}

// GetRoot returns the single root row plus its directory row's last_listed.
func (s *Store) GetRoot(ctx context.Context) (Item, error) {
	row := s.db.QueryRowContext(ctx, fullItemQuery+` WHERE i.type = ?`, TypeRoot)
	it, err := scanFullItem(row)
	if err != nil {
		return Item{}, storeerr.Wrap("get_root", "", storeerr.ErrNotFound)
	}
	return it, nil
}

// SearchFilter carries the parameters of a local store search.
type SearchFilter struct {
	NameSubstring string
	MimeGlobs     []string
	MinSize       int64
	MinModified   int64
	Type          *ItemType
}

// Search filters the joined view per spec §4.7: files respect size/mime/
// modified, directories respect only type/name/created.
func (s *Store) Search(ctx context.Context, f SearchFilter) ([]Item, error) {
	query := fullItemQuery + ` WHERE 1=1`
	var args []any

	if f.NameSubstring != "" {
		query += ` AND COALESCE(fm.name, dm.name, i.uuid) LIKE ?`
		args = append(args, "%"+normalizeName(f.NameSubstring)+"%")
	}
	if f.Type != nil {
		query += ` AND i.type = ?`
		args = append(args, *f.Type)
	}
	if f.MinSize > 0 {
		query += ` AND (i.type != ? OR f.size >= ?)`
		args = append(args, TypeFile, f.MinSize)
	}
	if f.MinModified > 0 {
		query += ` AND (
			(i.type = ? AND fm.modified >= ?) OR
			(i.type = ? AND dm.created >= ?)
		)`
		args = append(args, TypeFile, f.MinModified, TypeDirectory, f.MinModified)
	}
	for _, glob := range f.MimeGlobs {
		query += ` AND (i.type != ? OR fm.mime GLOB ?)`
		args = append(args, TypeFile, glob)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, storeerr.Wrap("search", "", fmt.Errorf("%w: %v", storeerr.ErrStoreIO, err))
	}
	return scanFullItemRows(rows)
}
