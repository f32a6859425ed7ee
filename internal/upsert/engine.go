package upsert

import (
	"context"

	"github.com/filen/filen-cache-core/internal/identity"
	"github.com/filen/filen-cache-core/internal/store"
	"github.com/filen/filen-cache-core/internal/storeerr"
)

// Engine is the write path for files, directories, and the root. Every
// entry point runs inside the caller-supplied transaction so a refresh or
// an ingestion batch can compose many upserts into one atomic commit.
type Engine struct {
	s *store.Store
}

// New builds an Engine bound to s. Every entry point takes the caller's
// transaction and does all its work on it; the engine never begins a
// transaction of its own.
func New(s *store.Store) *Engine {
	return &Engine{s: s}
}

// UpsertRoot upserts the root row's writable accounting fields. Only
// storage_used, max_storage, and last_updated are writable; the row is
// keyed by the singleton root item.
func (e *Engine) UpsertRoot(ctx context.Context, tx *store.Tx, rootUUID string, acc store.RootAccounting) error {
	item, err := tx.GetItemByUUID(ctx, rootUUID)
	if err != nil {
		id, insertErr := tx.InsertItemRow(ctx, rootUUID, "", store.TypeRoot, false, nil, "")
		if insertErr != nil {
			return insertErr
		}
		return tx.UpsertRoot(ctx, id, acc)
	}

	return tx.UpsertRoot(ctx, item.ID, acc)
}

// ItemUpsert carries the identity/placement fields common to every upsert
// entry point.
type ItemUpsert struct {
	UUID       string
	Parent     string
	Name       string // effective name, used for identity resolution by name
	LocalData  *string
	IsRecent   bool
	ParentPath string
}

// UpsertItemOnly creates or updates bare identity/placement, used when only
// identity is known. No extension or meta row is written.
func (e *Engine) UpsertItemOnly(ctx context.Context, tx *store.Tx, typ store.ItemType, in ItemUpsert) (store.Item, error) {
	res, err := identity.Resolve(ctx, tx, in.UUID, in.Parent, in.Name, typ)
	if err != nil {
		return store.Item{}, err
	}

	if res.TypeConflict {
		return store.Item{}, storeerr.Wrap("upsert_item_only", in.UUID, storeerr.ErrConflict)
	}

	if res.Found {
		merged := mergeLocalData(res.Item.LocalData, in.LocalData)
		recent := mergeIsRecent(res.Item.IsRecent, in.IsRecent)

		if err := tx.UpdateItemIdentity(ctx, res.Item.ID, in.UUID, in.Parent, recent, merged, in.ParentPath); err != nil {
			return store.Item{}, err
		}

		res.Item.UUID, res.Item.Parent, res.Item.IsRecent = in.UUID, in.Parent, recent
		return res.Item, nil
	}

	id, err := tx.InsertItemRow(ctx, in.UUID, in.Parent, typ, in.IsRecent, in.LocalData, in.ParentPath)
	if err != nil {
		return store.Item{}, err
	}

	return store.Item{ID: id, UUID: in.UUID, Parent: in.Parent, Type: typ, IsRecent: in.IsRecent, ParentPath: in.ParentPath}, nil
}

// FileUpsert carries every field upsert_file may write.
type FileUpsert struct {
	ItemUpsert
	Size          int64
	ChunkCount    int
	FavoriteRank  int
	StorageRegion string
	StorageBucket string

	MetadataState store.MetadataState
	RawMetadata   []byte
	Mime          string
	FileKey       string
	KeyVer        int
	Created       int64
	Modified      int64
	Hash          string
}

// UpsertFile is the write path for a single file: identity resolution,
// favorite-rank merge, local_data/is_recent carry-forward, metadata-state
// transition, all inside tx.
func (e *Engine) UpsertFile(ctx context.Context, tx *store.Tx, in FileUpsert) (store.Item, error) {
	if cyc, err := rejectsCycle(ctx, tx, in.UUID, in.Parent); err != nil {
		return store.Item{}, err
	} else if cyc {
		return store.Item{}, storeerr.Wrap("upsert_file", in.UUID, storeerr.ErrConflict)
	}

	lookupName := in.Name
	trans := classifyMetadata(in.MetadataState, in.RawMetadata)

	res, err := identity.Resolve(ctx, tx, in.UUID, in.Parent, lookupName, store.TypeFile)
	if err != nil {
		return store.Item{}, err
	}

	if res.TypeConflict {
		return store.Item{}, storeerr.Wrap("upsert_file", in.UUID, storeerr.ErrConflict)
	}

	if res.Found {
		existingRank, err := tx.GetFavoriteRank(ctx, res.Item.ID)
		if err != nil {
			return store.Item{}, err
		}
		rank := mergeFavoriteRank(existingRank, in.FavoriteRank)
		merged := mergeLocalData(res.Item.LocalData, in.LocalData)
		recent := mergeIsRecent(res.Item.IsRecent, in.IsRecent)

		if err := tx.UpdateItemIdentity(ctx, res.Item.ID, in.UUID, in.Parent, recent, merged, in.ParentPath); err != nil {
			return store.Item{}, err
		}

		if err := tx.UpdateFileRow(ctx, res.Item.ID, in.Size, in.ChunkCount, rank, in.StorageRegion, in.StorageBucket); err != nil {
			return store.Item{}, err
		}

		if err := applyFileMetadataTransition(ctx, tx, res.Item.ID, trans, in); err != nil {
			return store.Item{}, err
		}

		res.Item.UUID, res.Item.Parent = in.UUID, in.Parent
		return res.Item, nil
	}

	id, err := tx.InsertItemRow(ctx, in.UUID, in.Parent, store.TypeFile, in.IsRecent, in.LocalData, in.ParentPath)
	if err != nil {
		return store.Item{}, err
	}

	if err := tx.InsertFileRow(ctx, id, in.Size, in.ChunkCount, in.FavoriteRank, in.StorageRegion, in.StorageBucket, trans.State, trans.RawMetadata); err != nil {
		return store.Item{}, err
	}

	if trans.Decoded {
		if err := tx.UpsertFileMeta(ctx, id, in.Name, in.Mime, in.FileKey, in.KeyVer, in.Created, in.Modified, in.Hash); err != nil {
			return store.Item{}, err
		}
	}

	return store.Item{ID: id, UUID: in.UUID, Parent: in.Parent, Type: store.TypeFile}, nil
}

func applyFileMetadataTransition(ctx context.Context, tx *store.Tx, itemID int64, trans metadataTransition, in FileUpsert) error {
	if trans.Decoded {
		if err := tx.ClearFileRawMetadata(ctx, itemID); err != nil {
			return err
		}
		return tx.UpsertFileMeta(ctx, itemID, in.Name, in.Mime, in.FileKey, in.KeyVer, in.Created, in.Modified, in.Hash)
	}

	return tx.UpdateFileRawMetadata(ctx, itemID, trans.State, trans.RawMetadata)
}

// DirUpsert carries every field upsert_dir may write.
type DirUpsert struct {
	ItemUpsert
	FavoriteRank int
	Color        string

	MetadataState store.MetadataState
	RawMetadata   []byte
	Created       int64
}

// UpsertDir is the write path for a single directory, mirroring UpsertFile.
func (e *Engine) UpsertDir(ctx context.Context, tx *store.Tx, in DirUpsert) (store.Item, error) {
	if cyc, err := rejectsCycle(ctx, tx, in.UUID, in.Parent); err != nil {
		return store.Item{}, err
	} else if cyc {
		return store.Item{}, storeerr.Wrap("upsert_dir", in.UUID, storeerr.ErrConflict)
	}

	trans := classifyMetadata(in.MetadataState, in.RawMetadata)

	res, err := identity.Resolve(ctx, tx, in.UUID, in.Parent, in.Name, store.TypeDirectory)
	if err != nil {
		return store.Item{}, err
	}

	if res.TypeConflict {
		return store.Item{}, storeerr.Wrap("upsert_dir", in.UUID, storeerr.ErrConflict)
	}

	if res.Found {
		existingRank, err := tx.GetFavoriteRank(ctx, res.Item.ID)
		if err != nil {
			return store.Item{}, err
		}
		rank := mergeFavoriteRank(existingRank, in.FavoriteRank)
		merged := mergeLocalData(res.Item.LocalData, in.LocalData)
		recent := mergeIsRecent(res.Item.IsRecent, in.IsRecent)

		if err := tx.UpdateItemIdentity(ctx, res.Item.ID, in.UUID, in.Parent, recent, merged, in.ParentPath); err != nil {
			return store.Item{}, err
		}

		if err := tx.UpdateDirRow(ctx, res.Item.ID, rank, in.Color); err != nil {
			return store.Item{}, err
		}

		if err := applyDirMetadataTransition(ctx, tx, res.Item.ID, trans, in); err != nil {
			return store.Item{}, err
		}

		res.Item.UUID, res.Item.Parent = in.UUID, in.Parent
		return res.Item, nil
	}

	id, err := tx.InsertItemRow(ctx, in.UUID, in.Parent, store.TypeDirectory, in.IsRecent, in.LocalData, in.ParentPath)
	if err != nil {
		return store.Item{}, err
	}

	if err := tx.InsertDirRow(ctx, id, in.FavoriteRank, in.Color, trans.State, trans.RawMetadata); err != nil {
		return store.Item{}, err
	}

	if trans.Decoded {
		if err := tx.UpsertDirMeta(ctx, id, in.Name, in.Created); err != nil {
			return store.Item{}, err
		}
	}

	return store.Item{ID: id, UUID: in.UUID, Parent: in.Parent, Type: store.TypeDirectory}, nil
}

func applyDirMetadataTransition(ctx context.Context, tx *store.Tx, itemID int64, trans metadataTransition, in DirUpsert) error {
	if trans.Decoded {
		if err := tx.ClearDirRawMetadata(ctx, itemID); err != nil {
			return err
		}
		return tx.UpsertDirMeta(ctx, itemID, in.Name, in.Created)
	}

	return tx.UpdateDirRawMetadata(ctx, itemID, trans.State, trans.RawMetadata)
}
