// Package query is the read-only projection surface over the store: every
// method returns a concrete struct, never a raw *sql.Rows, matching the
// teacher's scanItem/scanItemRows convention of fully materializing rows
// before they leave the storage package.
package query

import (
	"context"

	"github.com/filen/filen-cache-core/internal/pathresolve"
	"github.com/filen/filen-cache-core/internal/store"
)

// Surface is the query-side API consumers (CLI, push handlers) call
// against. It wraps a store and a path resolver; no write methods live here.
type Surface struct {
	store    *store.Store
	resolver *pathresolve.Resolver
}

// New builds a Surface over s.
func New(s *store.Store) *Surface {
	return &Surface{store: s, resolver: pathresolve.New(s)}
}

// Object is the projection of a single cached item, with its resolved path
// attached when resolvable.
type Object struct {
	store.Item
	Path string // empty if unresolvable
}

func (s *Surface) project(ctx context.Context, it store.Item) Object {
	path, err := s.resolver.Resolve(ctx, it.UUID)
	if err != nil {
		return Object{Item: it}
	}
	return Object{Item: it, Path: path}
}

func (s *Surface) projectAll(ctx context.Context, items []store.Item) []Object {
	out := make([]Object, 0, len(items))
	for _, it := range items {
		out = append(out, s.project(ctx, it))
	}
	return out
}

// GetObject returns the projection of uuid.
func (s *Surface) GetObject(ctx context.Context, uuid string) (Object, error) {
	it, err := s.store.GetObject(ctx, uuid)
	if err != nil {
		return Object{}, err
	}
	return s.project(ctx, it), nil
}

// ListDirChildren returns the projection of every non-stale child of parent.
func (s *Surface) ListDirChildren(ctx context.Context, parent string) ([]Object, error) {
	items, err := s.store.ListDirChildren(ctx, parent)
	if err != nil {
		return nil, err
	}
	return s.projectAll(ctx, items), nil
}

// FindChild resolves name under parent, real-name matches preferred over a
// uuid-fallback match.
func (s *Surface) FindChild(ctx context.Context, parent, name string) (Object, error) {
	it, err := s.store.FindChild(ctx, parent, name)
	if err != nil {
		return Object{}, err
	}
	return s.project(ctx, it), nil
}

// ListRecents returns the projection of every is_recent=TRUE item.
func (s *Surface) ListRecents(ctx context.Context) ([]Object, error) {
	items, err := s.store.ListRecents(ctx)
	if err != nil {
		return nil, err
	}
	return s.projectAll(ctx, items), nil
}

// RootInfo is the projection of the singleton root row.
type RootInfo struct {
	UUID        string
	StorageUsed int64
	MaxStorage  int64
	LastUpdated int64
}

// GetRoot returns the root's accounting fields.
func (s *Surface) GetRoot(ctx context.Context) (RootInfo, error) {
	it, err := s.store.GetRoot(ctx)
	if err != nil {
		return RootInfo{}, err
	}
	return RootInfo{UUID: it.UUID, StorageUsed: it.StorageUsed, MaxStorage: it.MaxStorage, LastUpdated: it.LastUpdated}, nil
}

// SearchFilter mirrors store.SearchFilter, re-exported so callers of
// package query never need to import internal/store directly.
type SearchFilter = store.SearchFilter

// SearchMatch is one projected search result, carrying the synthesized
// search_path column (spec §4.7) alongside the matched item.
type SearchMatch struct {
	Object
}

// Search filters the joined view per f and attaches a resolved (or
// synthesized, for orphan-rooted matches) path to every hit.
func (s *Surface) Search(ctx context.Context, f SearchFilter) ([]SearchMatch, error) {
	items, err := s.store.Search(ctx, f)
	if err != nil {
		return nil, err
	}

	out := make([]SearchMatch, 0, len(items))
	for _, it := range items {
		out = append(out, SearchMatch{Object: s.project(ctx, it)})
	}
	return out, nil
}
