// Package pathresolve computes the absolute path of a cached item by
// walking its parent chain, falling back to the encrypted parent_path
// side-channel for search-orphaned items whose ancestor chain isn't cached.
package pathresolve

import (
	"context"
	"errors"
	"strings"

	"github.com/filen/filen-cache-core/internal/store"
	"github.com/filen/filen-cache-core/internal/storeerr"
)

// maxWalk bounds the parent-chain walk the same way the upsert engine's
// cycle check bounds its ancestor walk: a cached tree is never this deep,
// so hitting the bound means a cycle slipped past upsert-time rejection.
const maxWalk = 10000

// Resolver resolves absolute paths over a store.
type Resolver struct {
	store *store.Store
}

// New builds a Resolver bound to s.
func New(s *store.Store) *Resolver {
	return &Resolver{store: s}
}

// Resolve returns the absolute path "/a/b/c" of uuid. If uuid's ancestor
// chain is fully cached, the path is built root-first by walking parent
// links. If the walk hits a missing ancestor, the item's parent_path side
// channel (set by the search ingester) is used instead: parent_path + "/" +
// effective name. If neither resolves, Resolve fails with
// ErrPathUnresolvable.
func (r *Resolver) Resolve(ctx context.Context, uuid string) (string, error) {
	segments, orphan, err := r.walkParentChain(ctx, uuid)
	if err != nil {
		return "", err
	}

	if !orphan {
		reverse(segments)
		return "/" + strings.Join(segments, "/"), nil
	}

	item, err := r.store.GetObject(ctx, uuid)
	if err != nil {
		return "", storeerr.Wrap("resolve_path", uuid, storeerr.ErrPathUnresolvable)
	}

	if item.ParentPath == "" {
		return "", storeerr.Wrap("resolve_path", uuid, storeerr.ErrPathUnresolvable)
	}

	return item.ParentPath + "/" + item.EffectiveName(), nil
}

// walkParentChain collects name segments from uuid up to the root, leaf
// first. orphan reports whether the walk hit a missing ancestor before
// reaching the root, mirroring the teacher's nil-segments-means-orphan
// convention but as an explicit bool rather than a nil-slice sentinel.
func (r *Resolver) walkParentChain(ctx context.Context, uuid string) (segments []string, orphan bool, err error) {
	current := uuid

	for i := 0; i < maxWalk; i++ {
		if err := ctx.Err(); err != nil {
			return nil, false, storeerr.Wrap("resolve_path", uuid, storeerr.ErrCancelled)
		}

		item, err := r.store.GetObject(ctx, current)
		if err != nil {
			if errors.Is(err, storeerr.ErrNotFound) {
				return nil, true, nil
			}
			return nil, false, err
		}

		if item.Type == store.TypeRoot {
			return segments, false, nil
		}

		segments = append(segments, item.EffectiveName())

		if item.Parent == "" {
			return segments, false, nil
		}

		current = item.Parent
	}

	return nil, false, storeerr.Wrap("resolve_path", uuid, storeerr.ErrPathUnresolvable)
}

func reverse(s []string) {
	for i, j := 0, len(s)-1; i < j; i, j = i+1, j-1 {
		s[i], s[j] = s[j], s[i]
	}
}
