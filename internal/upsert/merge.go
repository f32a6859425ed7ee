// Package upsert implements the write path for files, directories, and the
// root: identity resolution, merge rules, and metadata-state transitions,
// each inside a single transaction.
package upsert

import "github.com/filen/filen-cache-core/internal/store"

// mergeFavoriteRank implements spec §4.3's favorite-rank merge rule: a
// locally-set favorite (rank>0) survives a refresh that reports rank=0
// unless the existing rank was already 0. Once set, the rank sticks until
// an incoming rank of 0 explicitly clears it.
func mergeFavoriteRank(existingRank, incomingRank int) int {
	if existingRank == 0 || incomingRank == 0 {
		return incomingRank
	}
	return existingRank
}

// mergeLocalData carries forward the opaque local payload pointer: the
// caller-supplied value wins when non-nil, otherwise the prior stored
// value is kept. Never silently cleared.
func mergeLocalData(existing string, incoming *string) *string {
	if incoming != nil {
		return incoming
	}
	if existing == "" {
		return nil
	}
	return &existing
}

// mergeIsRecent implements the sticky OR-merge: once set, a subsequent
// upsert never clears it.
func mergeIsRecent(existing, incoming bool) bool {
	return existing || incoming
}

// metadataTransition decides the write shape for an incoming metadata
// payload: raw (still-encrypted) metadata sets metadata_state and stores
// ciphertext; decoded metadata clears raw_metadata and writes the meta row.
type metadataTransition struct {
	State       store.MetadataState
	RawMetadata []byte
	Decoded     bool
}

func classifyMetadata(state store.MetadataState, raw []byte) metadataTransition {
	if state == store.MetadataDecoded {
		return metadataTransition{State: state, Decoded: true}
	}
	return metadataTransition{State: state, RawMetadata: raw, Decoded: false}
}
