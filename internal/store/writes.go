package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/filen/filen-cache-core/internal/storeerr"
)

// DeleteConflictingName deletes the row at (parent, effective_name) other
// than excludeUUID, used by the identity resolver to clear a name
// collision inside the same transaction as the subsequent insert.
func (t *Tx) DeleteConflictingName(ctx context.Context, parent, name, excludeUUID string) error {
	existing, err := t.GetItemByParentName(ctx, parent, name)
	if err != nil {
		if errors.Is(err, storeerr.ErrNotFound) {
			return nil
		}
		return err
	}

	if existing.UUID == excludeUUID {
		return nil
	}

	if _, err := t.stmt(t.s.itemStmts.deleteByUUID).ExecContext(ctx, existing.UUID); err != nil {
		return storeerr.Wrap("delete_conflicting_name", existing.UUID, fmt.Errorf("%w: %v", storeerr.ErrStoreIO, err))
	}

	return nil
}

// InsertItemRow inserts a bare items row and returns its auto id.
func (t *Tx) InsertItemRow(ctx context.Context, uuid, parent string, typ ItemType, isRecent bool, localData *string, parentPath string) (int64, error) {
	var localDataVal any
	if localData != nil {
		localDataVal = *localData
	}

	var parentVal any
	if parent != "" {
		parentVal = parent
	}

	var parentPathVal any
	if parentPath != "" {
		parentPathVal = parentPath
	}

	res, err := t.stmt(t.s.itemStmts.insert).ExecContext(ctx, uuid, parentVal, typ, isRecent, localDataVal, parentPathVal)
	if err != nil {
		return 0, storeerr.Wrap("insert_item", uuid, fmt.Errorf("%w: %v", storeerr.ErrStoreIO, err))
	}

	id, err := res.LastInsertId()
	if err != nil {
		return 0, storeerr.Wrap("insert_item", uuid, fmt.Errorf("%w: %v", storeerr.ErrStoreIO, err))
	}

	return id, nil
}

// UpdateItemIdentity rewrites the identity/placement fields of an existing
// item row (by internal id), used when an upsert matches an existing row
// via the identity resolver.
func (t *Tx) UpdateItemIdentity(ctx context.Context, id int64, uuid, parent string, isRecent bool, localData *string, parentPath string) error {
	var localDataVal any
	if localData != nil {
		localDataVal = *localData
	}

	var parentVal any
	if parent != "" {
		parentVal = parent
	}

	var parentPathVal any
	if parentPath != "" {
		parentPathVal = parentPath
	}

	if _, err := t.stmt(t.s.itemStmts.updateParentName).ExecContext(ctx, uuid, parentVal, isRecent, localDataVal, parentPathVal, id); err != nil {
		return storeerr.Wrap("update_item", uuid, fmt.Errorf("%w: %v", storeerr.ErrStoreIO, err))
	}

	return nil
}

// InsertFileRow inserts the file extension row for itemID.
func (t *Tx) InsertFileRow(ctx context.Context, itemID int64, size int64, chunks, favoriteRank int, region, bucket string, state MetadataState, raw []byte) error {
	if _, err := t.stmt(t.s.fileStmts.insert).ExecContext(ctx, itemID, size, chunks, favoriteRank, region, bucket, state, rawOrNil(state, raw)); err != nil {
		return storeerr.Wrap("insert_file", "", fmt.Errorf("%w: %v", storeerr.ErrStoreIO, err))
	}
	return nil
}

// UpdateFileRow updates the hot attributes of an existing file row.
func (t *Tx) UpdateFileRow(ctx context.Context, itemID int64, size int64, chunks, favoriteRank int, region, bucket string) error {
	if _, err := t.stmt(t.s.fileStmts.update).ExecContext(ctx, size, chunks, favoriteRank, region, bucket, itemID); err != nil {
		return storeerr.Wrap("update_file", "", fmt.Errorf("%w: %v", storeerr.ErrStoreIO, err))
	}
	return nil
}

// UpdateFileRawMetadata stores still-encrypted metadata (metadata_state != 0).
func (t *Tx) UpdateFileRawMetadata(ctx context.Context, itemID int64, state MetadataState, raw []byte) error {
	if _, err := t.stmt(t.s.fileStmts.updateRaw).ExecContext(ctx, state, raw, itemID); err != nil {
		return storeerr.Wrap("update_file_meta_state", "", fmt.Errorf("%w: %v", storeerr.ErrStoreIO, err))
	}
	return nil
}

// ClearFileRawMetadata transitions a file to metadata_state=0.
func (t *Tx) ClearFileRawMetadata(ctx context.Context, itemID int64) error {
	if _, err := t.stmt(t.s.fileStmts.updateDecoded).ExecContext(ctx, itemID); err != nil {
		return storeerr.Wrap("clear_file_meta_state", "", fmt.Errorf("%w: %v", storeerr.ErrStoreIO, err))
	}
	return nil
}

// UpsertFileMeta writes or overwrites the decoded file_meta row.
func (t *Tx) UpsertFileMeta(ctx context.Context, itemID int64, name, mime, fileKey string, keyVer int, created, modified int64, hash string) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO file_meta (file_id, name, mime, file_key, file_key_version, created, modified, hash)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(file_id) DO UPDATE SET
			name = excluded.name, mime = excluded.mime, file_key = excluded.file_key,
			file_key_version = excluded.file_key_version, created = excluded.created,
			modified = excluded.modified, hash = excluded.hash`,
		itemID, normalizeName(name), mime, fileKey, keyVer, created, modified, hash,
	)
	if err != nil {
		return storeerr.Wrap("upsert_file_meta", "", fmt.Errorf("%w: %v", storeerr.ErrStoreIO, err))
	}
	return nil
}

// InsertDirRow inserts the directory extension row for itemID.
func (t *Tx) InsertDirRow(ctx context.Context, itemID int64, favoriteRank int, color string, state MetadataState, raw []byte) error {
	if _, err := t.stmt(t.s.dirStmts.insert).ExecContext(ctx, itemID, favoriteRank, color, state, rawOrNil(state, raw)); err != nil {
		return storeerr.Wrap("insert_dir", "", fmt.Errorf("%w: %v", storeerr.ErrStoreIO, err))
	}
	return nil
}

// UpdateDirRow updates the hot attributes of an existing directory row.
func (t *Tx) UpdateDirRow(ctx context.Context, itemID int64, favoriteRank int, color string) error {
	if _, err := t.stmt(t.s.dirStmts.update).ExecContext(ctx, favoriteRank, color, itemID); err != nil {
		return storeerr.Wrap("update_dir", "", fmt.Errorf("%w: %v", storeerr.ErrStoreIO, err))
	}
	return nil
}

func (t *Tx) UpdateDirRawMetadata(ctx context.Context, itemID int64, state MetadataState, raw []byte) error {
	if _, err := t.stmt(t.s.dirStmts.updateRaw).ExecContext(ctx, state, raw, itemID); err != nil {
		return storeerr.Wrap("update_dir_meta_state", "", fmt.Errorf("%w: %v", storeerr.ErrStoreIO, err))
	}
	return nil
}

func (t *Tx) ClearDirRawMetadata(ctx context.Context, itemID int64) error {
	if _, err := t.stmt(t.s.dirStmts.updateDecoded).ExecContext(ctx, itemID); err != nil {
		return storeerr.Wrap("clear_dir_meta_state", "", fmt.Errorf("%w: %v", storeerr.ErrStoreIO, err))
	}
	return nil
}

// UpsertDirMeta writes or overwrites the decoded dir_meta row.
func (t *Tx) UpsertDirMeta(ctx context.Context, itemID int64, name string, created int64) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO dir_meta (dir_id, name, created) VALUES (?, ?, ?)
		ON CONFLICT(dir_id) DO UPDATE SET name = excluded.name, created = excluded.created`,
		itemID, normalizeName(name), created,
	)
	if err != nil {
		return storeerr.Wrap("upsert_dir_meta", "", fmt.Errorf("%w: %v", storeerr.ErrStoreIO, err))
	}
	return nil
}

// TouchLastListed sets a directory's last_listed timestamp, called when a
// refresh cycle commits.
func (t *Tx) TouchLastListed(ctx context.Context, itemID int64, at int64) error {
	if _, err := t.stmt(t.s.dirStmts.touchLastListed).ExecContext(ctx, at, itemID); err != nil {
		return storeerr.Wrap("touch_last_listed", "", fmt.Errorf("%w: %v", storeerr.ErrStoreIO, err))
	}
	return nil
}

// MarkChildrenStale marks every non-stale child of parent as stale, step 2
// of a directory refresh.
func (t *Tx) MarkChildrenStale(ctx context.Context, parent string) error {
	if _, err := t.stmt(t.s.itemStmts.markStale).ExecContext(ctx, parent); err != nil {
		return storeerr.Wrap("mark_stale", parent, fmt.Errorf("%w: %v", storeerr.ErrStoreIO, err))
	}
	return nil
}

// ClearStale clears the stale flag on a row that was rediscovered during
// the current refresh pass.
func (t *Tx) ClearStale(ctx context.Context, id int64) error {
	if _, err := t.stmt(t.s.itemStmts.clearStale).ExecContext(ctx, id); err != nil {
		return storeerr.Wrap("clear_stale", "", fmt.Errorf("%w: %v", storeerr.ErrStoreIO, err))
	}
	return nil
}

// SweepStale deletes rows still marked stale under parent, the final step
// of a directory refresh; cascade triggers remove non-orphan subtrees.
func (t *Tx) SweepStale(ctx context.Context, parent string) error {
	if _, err := t.stmt(t.s.itemStmts.sweepStale).ExecContext(ctx, parent); err != nil {
		return storeerr.Wrap("sweep_stale", parent, fmt.Errorf("%w: %v", storeerr.ErrStoreIO, err))
	}
	return nil
}

// DeleteItem removes a single item by uuid; cascade triggers fire for
// non-file types.
func (t *Tx) DeleteItem(ctx context.Context, uuid string) error {
	if _, err := t.stmt(t.s.itemStmts.deleteByUUID).ExecContext(ctx, uuid); err != nil {
		return storeerr.Wrap("delete", uuid, fmt.Errorf("%w: %v", storeerr.ErrStoreIO, err))
	}
	return nil
}

// SetLocalData sets the opaque local payload pointer for uuid.
func (t *Tx) SetLocalData(ctx context.Context, uuid string, value *string) error {
	var v any
	if value != nil {
		v = *value
	}
	if _, err := t.stmt(t.s.itemStmts.setLocalData).ExecContext(ctx, v, uuid); err != nil {
		return storeerr.Wrap("set_local_data", uuid, fmt.Errorf("%w: %v", storeerr.ErrStoreIO, err))
	}
	return nil
}

// SetRecent marks uuid as recent. Sticky: never clears the flag.
func (t *Tx) SetRecent(ctx context.Context, uuid string) error {
	if _, err := t.stmt(t.s.itemStmts.setRecent).ExecContext(ctx, uuid); err != nil {
		return storeerr.Wrap("set_recent", uuid, fmt.Errorf("%w: %v", storeerr.ErrStoreIO, err))
	}
	return nil
}

// DeleteOrphanedSearch removes parent_path-tagged items whose parent never
// became visible in the store.
func (t *Tx) DeleteOrphanedSearch(ctx context.Context) error {
	if _, err := t.stmt(t.s.itemStmts.deleteOrphanedSearch).ExecContext(ctx); err != nil {
		return storeerr.Wrap("clear_search", "", fmt.Errorf("%w: %v", storeerr.ErrStoreIO, err))
	}
	return nil
}

// UpsertRoot writes the writable subset of the root row.
func (t *Tx) UpsertRoot(ctx context.Context, itemID int64, acc RootAccounting) error {
	if _, err := t.stmt(t.s.rootStmts.upsert).ExecContext(ctx, itemID, acc.StorageUsed, acc.MaxStorage, acc.LastUpdated); err != nil {
		return storeerr.Wrap("update_root_accounting", "", fmt.Errorf("%w: %v", storeerr.ErrStoreIO, err))
	}
	return nil
}

func rawOrNil(state MetadataState, raw []byte) any {
	if state == MetadataDecoded {
		return nil
	}
	return raw
}
