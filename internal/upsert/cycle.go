package upsert

import (
	"context"
	"fmt"

	"github.com/filen/filen-cache-core/internal/store"
	"github.com/filen/filen-cache-core/internal/storeerr"
)

// maxAncestorWalk bounds the cycle-detection walk so a corrupt store (a
// dangling parent cycle that should be structurally impossible) cannot
// hang an upsert.
const maxAncestorWalk = 10000

// rejectsCycle walks up newParent's ancestor chain looking for candidateUUID.
// If found, inserting candidateUUID under newParent would make it its own
// ancestor, and the upsert must be rejected before any row is written.
func rejectsCycle(ctx context.Context, tx *store.Tx, candidateUUID, newParent string) (bool, error) {
	current := newParent

	for i := 0; i < maxAncestorWalk; i++ {
		if current == "" {
			return false, nil
		}
		if current == candidateUUID {
			return true, nil
		}

		item, err := tx.GetItemByUUID(ctx, current)
		if err != nil {
			// Ancestor not yet materialized (search/recents orphan) or a
			// genuine not-found: either way, no cycle can be proven.
			return false, nil
		}

		current = item.Parent
	}

	return false, storeerr.Wrap("cycle_check", candidateUUID, fmt.Errorf("%w: ancestor walk exceeded %d hops", storeerr.ErrStoreIO, maxAncestorWalk))
}
