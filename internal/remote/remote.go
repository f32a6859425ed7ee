// Package remote declares the narrow, consumer-side capabilities the cache
// core requires from the collaborators that sit outside its boundary: the
// remote HTTPS/JSON API client and the metadata decryption stack. Neither
// collaborator is implemented here; the core only depends on these
// interfaces, the same way the upstream client depends on a graph.Client
// through small per-capability interfaces rather than a concrete transport.
package remote

import "context"

// ItemType mirrors the store's item type enumeration so collaborator
// payloads can be classified without importing the store package.
type ItemType int

const (
	TypeRoot ItemType = iota
	TypeDirectory
	TypeFile
)

// MetadataState mirrors the store's metadata_state enumeration.
type MetadataState int

const (
	MetadataDecoded MetadataState = iota
	MetadataDecryptedRaw
	MetadataEncrypted
	MetadataRSAEncrypted
)

// RemoteChild is one entry returned by a directory listing or a single-item
// fetch. Fields not applicable to Type are left zero.
type RemoteChild struct {
	UUID       string
	ParentUUID string
	Type       ItemType

	// DecodedName/DecodedMime are set when the collaborator already holds
	// plaintext metadata (rare; normally decoding is deferred to the
	// MetadataDecoder). RawMetadata/KeyVersion are set otherwise.
	DecodedName string
	DecodedMime string
	RawMetadata []byte
	KeyVersion  int
	State       MetadataState

	Size           int64
	ChunkCount     int
	StorageRegion  string
	StorageBucket  string
	ServerFavorite int

	Color string // directories only
}

// SearchQuery carries the filters a UI-initiated search applies.
type SearchQuery struct {
	NameSubstring string
	MimeGlobs     []string
	MinSize       int64
	MinModified   int64
	Type          *ItemType // nil matches any type
}

// RemoteMatch is one search hit. EncryptedParentPath is the collaborator's
// opaque absolute-path prefix used when the match's ancestor chain is not
// locally cached (spec §4.5).
type RemoteMatch struct {
	Child               RemoteChild
	EncryptedParentPath string
}

// Query is the remote listing/search capability. Implementations perform
// network I/O; the core only calls through this interface.
type Query interface {
	ListDir(ctx context.Context, uuid string) ([]RemoteChild, error)
	GetItem(ctx context.Context, uuid string) (RemoteChild, error)
	Search(ctx context.Context, q SearchQuery) ([]RemoteMatch, error)
}

// DecodedMetadata is the plaintext result of a successful decode.
type DecodedMetadata struct {
	Name     string
	Mime     string
	Created  int64
	Modified int64
	Hash     string
}

// MetadataDecoder is the cryptographic decode capability. The bool return
// reports whether decoding completed; false means the ciphertext remains
// encrypted (e.g. an RSA-wrapped key awaiting a user action) and the core
// must leave metadata_state untouched rather than treat it as an error.
type MetadataDecoder interface {
	Decode(ctx context.Context, ciphertext []byte, keyVersion int) (DecodedMetadata, bool, error)
}
