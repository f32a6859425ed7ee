// Package ingest folds search results and recents markers into the store.
// Both paths may introduce items whose ancestor chain is not (yet) cached;
// those rows carry parent_path so the cascade triggers leave them alone and
// the path resolver can still synthesize an absolute path for them.
package ingest

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/filen/filen-cache-core/internal/remote"
	"github.com/filen/filen-cache-core/internal/store"
	"github.com/filen/filen-cache-core/internal/storeerr"
	"github.com/filen/filen-cache-core/internal/upsert"
)

// Ingester folds remote search/recents results into the store, one
// transaction per batch so a partial failure leaves no half-ingested rows.
type Ingester struct {
	store   *store.Store
	engine  *upsert.Engine
	decoder remote.MetadataDecoder
	logger  *slog.Logger
}

// New builds an Ingester bound to the given store, write engine, and
// metadata decoder.
func New(s *store.Store, engine *upsert.Engine, decoder remote.MetadataDecoder, logger *slog.Logger) *Ingester {
	return &Ingester{store: s, engine: engine, decoder: decoder, logger: logger}
}

// IngestSearch upserts every match from a search response, tagging each row
// with its encrypted parent path so the row survives cascade deletion and
// the path resolver can fall back to the side-channel path. The whole batch
// commits or rolls back together.
func (g *Ingester) IngestSearch(ctx context.Context, matches []remote.RemoteMatch) error {
	if len(matches) == 0 {
		return nil
	}

	tx, err := g.store.BeginTx(ctx)
	if err != nil {
		return storeerr.Wrap("ingest_search", "", fmt.Errorf("%w: %v", storeerr.ErrStoreIO, err))
	}
	defer tx.Rollback()

	for _, match := range matches {
		if err := ctx.Err(); err != nil {
			return storeerr.Wrap("ingest_search", "", storeerr.ErrCancelled)
		}
		if err := g.upsertOrphaned(ctx, tx, match); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return storeerr.Wrap("ingest_search", "", fmt.Errorf("%w: %v", storeerr.ErrStoreIO, err))
	}

	return nil
}

func (g *Ingester) upsertOrphaned(ctx context.Context, tx *store.Tx, match remote.RemoteMatch) error {
	child := match.Child

	decoded, ok, err := g.decodeIfPossible(ctx, child)
	if err != nil {
		return err
	}

	base := upsert.ItemUpsert{
		UUID:       child.UUID,
		Parent:     child.ParentUUID,
		ParentPath: match.EncryptedParentPath,
	}
	if ok {
		base.Name = decoded.Name
	}

	switch child.Type {
	case remote.TypeDirectory:
		in := upsert.DirUpsert{ItemUpsert: base, FavoriteRank: child.ServerFavorite, Color: child.Color}
		if ok {
			in.MetadataState = store.MetadataDecoded
			in.Name = decoded.Name
			in.Created = decoded.Created
		} else {
			in.MetadataState = store.MetadataState(child.State)
			in.RawMetadata = child.RawMetadata
		}
		_, err := g.engine.UpsertDir(ctx, tx, in)
		return err

	default: // remote.TypeFile
		in := upsert.FileUpsert{
			ItemUpsert:    base,
			Size:          child.Size,
			ChunkCount:    child.ChunkCount,
			FavoriteRank:  child.ServerFavorite,
			StorageRegion: child.StorageRegion,
			StorageBucket: child.StorageBucket,
		}
		if ok {
			in.MetadataState = store.MetadataDecoded
			in.Name = decoded.Name
			in.Mime = decoded.Mime
			in.Created = decoded.Created
			in.Modified = decoded.Modified
			in.Hash = decoded.Hash
		} else {
			in.MetadataState = store.MetadataState(child.State)
			in.RawMetadata = child.RawMetadata
		}
		_, err := g.engine.UpsertFile(ctx, tx, in)
		return err
	}
}

func (g *Ingester) decodeIfPossible(ctx context.Context, child remote.RemoteChild) (remote.DecodedMetadata, bool, error) {
	if child.DecodedName != "" {
		return remote.DecodedMetadata{Name: child.DecodedName, Mime: child.DecodedMime}, true, nil
	}
	if len(child.RawMetadata) == 0 {
		return remote.DecodedMetadata{}, false, nil
	}

	decoded, ok, err := g.decoder.Decode(ctx, child.RawMetadata, child.KeyVersion)
	if err != nil {
		return remote.DecodedMetadata{}, false, fmt.Errorf("ingest: decode metadata for %s: %w", child.UUID, err)
	}

	return decoded, ok, nil
}

// MarkRecent sets is_recent=TRUE for every uuid in uuids. The flag is
// sticky: setting it is a no-op UPDATE against a uuid the store hasn't seen
// yet rather than an error, since a recents listing may race an ordinary
// directory refresh that hasn't caught up.
func (g *Ingester) MarkRecent(ctx context.Context, uuids []string) error {
	if len(uuids) == 0 {
		return nil
	}

	tx, err := g.store.BeginTx(ctx)
	if err != nil {
		return storeerr.Wrap("mark_recent", "", fmt.Errorf("%w: %v", storeerr.ErrStoreIO, err))
	}
	defer tx.Rollback()

	for _, uuid := range uuids {
		if err := ctx.Err(); err != nil {
			return storeerr.Wrap("mark_recent", "", storeerr.ErrCancelled)
		}
		if err := tx.SetRecent(ctx, uuid); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return storeerr.Wrap("mark_recent", "", fmt.Errorf("%w: %v", storeerr.ErrStoreIO, err))
	}

	return nil
}

// ClearOrphanedSearch removes every parent_path-tagged row whose parent
// never became visible in the store, protecting rows whose ancestor chain
// has since been connected by an ordinary directory refresh.
func (g *Ingester) ClearOrphanedSearch(ctx context.Context) error {
	tx, err := g.store.BeginTx(ctx)
	if err != nil {
		return storeerr.Wrap("clear_search", "", fmt.Errorf("%w: %v", storeerr.ErrStoreIO, err))
	}
	defer tx.Rollback()

	if err := tx.DeleteOrphanedSearch(ctx); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return storeerr.Wrap("clear_search", "", fmt.Errorf("%w: %v", storeerr.ErrStoreIO, err))
	}

	return nil
}
