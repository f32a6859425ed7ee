// Package identity implements the ordered identity-match rules every
// upsert uses to find the existing row a remote item corresponds to.
package identity

import (
	"context"
	"errors"
	"fmt"

	"github.com/filen/filen-cache-core/internal/store"
	"github.com/filen/filen-cache-core/internal/storeerr"
)

// Resolution is the outcome of resolving a candidate item. Found reports
// whether an existing row matched; Item is the zero value otherwise.
// TypeConflict reports a name collision with a row of a different item
// type, which is never a valid identity match and must surface as a
// conflict rather than merge two incompatible rows.
type Resolution struct {
	Found        bool
	Item         store.Item
	TypeConflict bool
}

// Resolve applies the ordered rules from spec §4.2:
//  1. a row with uuid = candidate uuid is the identity match (move/rename).
//  2. otherwise, if name is non-empty, a non-stale row at (parent, effective
//     name) is the identity match (server-side uuid change, or resurrection)
//     — provided it shares the candidate's item type; a name collision with
//     a row of a different type is a conflict, not a match.
//  3. otherwise, no match.
//
// When a rule-2 row exists under a *different* uuid than the candidate and
// rule 1 also matched a different row, the rule-2 row is deleted in the
// same transaction to avoid violating the uniqueness constraint before the
// caller inserts or updates the rule-1 row.
//
// The trash sentinel is exempt from rule 2 entirely (data-model invariant
// 2): trash allows homonyms, so a name match under parent == TrashUUID must
// never merge two distinct items into one row, nor delete one to make room
// for the other.
func Resolve(ctx context.Context, tx *store.Tx, uuid, parent, name string, typ store.ItemType) (Resolution, error) {
	byUUID, err := tx.GetItemByUUID(ctx, uuid)
	switch {
	case err == nil:
		if name != "" && parent != store.TrashUUID {
			if delErr := tx.DeleteConflictingName(ctx, parent, name, uuid); delErr != nil {
				return Resolution{}, delErr
			}
		}
		return Resolution{Found: true, Item: byUUID}, nil
	case errors.Is(err, storeerr.ErrNotFound):
		// fall through to rule 2
	default:
		return Resolution{}, fmt.Errorf("identity: resolve by uuid: %w", err)
	}

	if name == "" || parent == store.TrashUUID {
		return Resolution{}, nil
	}

	byName, err := tx.GetItemByParentName(ctx, parent, name)
	switch {
	case err == nil:
		if byName.Type != typ {
			return Resolution{TypeConflict: true, Item: byName}, nil
		}
		return Resolution{Found: true, Item: byName}, nil
	case errors.Is(err, storeerr.ErrNotFound):
		return Resolution{}, nil
	default:
		return Resolution{}, fmt.Errorf("identity: resolve by name: %w", err)
	}
}
