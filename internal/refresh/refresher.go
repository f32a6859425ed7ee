// Package refresh orchestrates the mark-stale/list/upsert-children/sweep
// cycle that reconciles one directory with the remote collaborator, with
// at-most-one refresh in flight per directory UUID.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sethvargo/go-retry"
	"golang.org/x/sync/singleflight"

	"github.com/filen/filen-cache-core/internal/remote"
	"github.com/filen/filen-cache-core/internal/store"
	"github.com/filen/filen-cache-core/internal/storeerr"
	"github.com/filen/filen-cache-core/internal/upsert"
)

// Refresher runs the directory-refresh cycle. The per-directory guard is a
// singleflight.Group: concurrent callers for the same uuid block on, and
// share the result of, one in-flight call, never starting a second
// round-trip — singleflight's own documented contract is the spec's
// "at most one refresh in flight" guarantee verbatim.
type Refresher struct {
	store   *store.Store
	engine  *upsert.Engine
	query   remote.Query
	decoder remote.MetadataDecoder
	logger  *slog.Logger

	guard singleflight.Group
}

// New builds a Refresher bound to the given store and collaborators.
func New(s *store.Store, engine *upsert.Engine, query remote.Query, decoder remote.MetadataDecoder, logger *slog.Logger) *Refresher {
	return &Refresher{store: s, engine: engine, query: query, decoder: decoder, logger: logger}
}

// RefreshDir runs one refresh cycle for dirUUID. A caller that arrives
// while a refresh for the same uuid is already in flight awaits and shares
// that call's result rather than issuing a second listing.
func (r *Refresher) RefreshDir(ctx context.Context, dirUUID string) error {
	_, err, _ := r.guard.Do(dirUUID, func() (any, error) {
		return nil, r.refreshOnce(ctx, dirUUID)
	})
	return err
}

func (r *Refresher) refreshOnce(ctx context.Context, dirUUID string) error {
	if err := ctx.Err(); err != nil {
		return storeerr.Wrap("refresh_dir", dirUUID, storeerr.ErrCancelled)
	}

	// The refresher retries StoreIO once on transient busy, then propagates,
	// mirroring the teacher's classify-then-decide-retryable shape.
	backoff := retry.WithMaxRetries(1, retry.NewConstant(10*time.Millisecond))

	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := r.applyRefresh(ctx, dirUUID)
		if err != nil && errors.Is(err, storeerr.ErrStoreIO) {
			return retry.RetryableError(err)
		}
		return err
	})
}

func (r *Refresher) applyRefresh(ctx context.Context, dirUUID string) error {
	tx, err := r.store.BeginTx(ctx)
	if err != nil {
		return storeerr.Wrap("refresh_dir", dirUUID, fmt.Errorf("%w: %v", storeerr.ErrStoreIO, err))
	}
	defer tx.Rollback() // no-op after Commit; restores is_stale on any early return

	dir, err := tx.GetItemByUUID(ctx, dirUUID)
	if err != nil {
		return storeerr.Wrap("refresh_dir", dirUUID, err)
	}

	if err := tx.MarkChildrenStale(ctx, dirUUID); err != nil {
		return err
	}

	if err := ctx.Err(); err != nil {
		return storeerr.Wrap("refresh_dir", dirUUID, storeerr.ErrCancelled)
	}

	children, err := r.query.ListDir(ctx, dirUUID)
	if err != nil {
		return storeerr.Wrap("refresh_dir", dirUUID, fmt.Errorf("%w: %v", storeerr.ErrRefreshFailed, err))
	}

	if err := ctx.Err(); err != nil {
		return storeerr.Wrap("refresh_dir", dirUUID, storeerr.ErrCancelled)
	}

	for _, child := range children {
		if err := r.upsertChild(ctx, tx, dirUUID, child); err != nil {
			return err
		}
	}

	if err := tx.SweepStale(ctx, dirUUID); err != nil {
		return err
	}

	if err := tx.TouchLastListed(ctx, dir.ID, time.Now().Unix()); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return storeerr.Wrap("refresh_dir", dirUUID, fmt.Errorf("%w: %v", storeerr.ErrStoreIO, err))
	}

	return nil
}

func (r *Refresher) upsertChild(ctx context.Context, tx *store.Tx, parent string, child remote.RemoteChild) error {
	decoded, ok, err := r.decodeIfPossible(ctx, child)
	if err != nil {
		return err
	}

	base := upsert.ItemUpsert{
		UUID:   child.UUID,
		Parent: parent,
	}
	if ok {
		base.Name = decoded.Name
	}

	switch child.Type {
	case remote.TypeDirectory:
		in := upsert.DirUpsert{
			ItemUpsert:   base,
			FavoriteRank: child.ServerFavorite,
			Color:        child.Color,
		}
		if ok {
			in.MetadataState = store.MetadataDecoded
			in.Name = decoded.Name
			in.Created = decoded.Created
		} else {
			in.MetadataState = store.MetadataState(child.State)
			in.RawMetadata = child.RawMetadata
		}
		_, err := r.engine.UpsertDir(ctx, tx, in)
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
		_, err := r.engine.UpsertFile(ctx, tx, in)
		return err
	}
}

func (r *Refresher) decodeIfPossible(ctx context.Context, child remote.RemoteChild) (remote.DecodedMetadata, bool, error) {
	if child.DecodedName != "" {
		return remote.DecodedMetadata{Name: child.DecodedName, Mime: child.DecodedMime}, true, nil
	}
	if len(child.RawMetadata) == 0 {
		return remote.DecodedMetadata{}, false, nil
	}

	decoded, ok, err := r.decoder.Decode(ctx, child.RawMetadata, child.KeyVersion)
	if err != nil {
		return remote.DecodedMetadata{}, false, fmt.Errorf("refresh: decode metadata for %s: %w", child.UUID, err)
	}

	return decoded, ok, nil
}
