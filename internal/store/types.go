// Package store implements the persistent, transactional item graph that
// backs the cache core: items, their type-specific extension rows, decoded
// metadata, and root accounting, on an embedded SQLite database.
package store

// ItemType enumerates the three kinds of row the items table holds.
type ItemType int

const (
	TypeRoot ItemType = iota
	TypeDirectory
	TypeFile
)

// MetadataState enumerates how far an item's metadata has progressed
// through decryption.
type MetadataState int

const (
	MetadataDecoded MetadataState = iota
	MetadataDecryptedRaw
	MetadataEncrypted
	MetadataRSAEncrypted
)

// TrashUUID is the fixed sentinel directory uuid bootstrapped at open.
const TrashUUID = "trash"

// Item is one row of the items table plus the type-specific and decoded
// fields joined in from its extension tables. Fields not applicable to
// Type are left zero.
type Item struct {
	ID         int64
	UUID       string
	Parent     string // empty for root/trash
	Type       ItemType
	IsStale    bool
	IsRecent   bool
	LocalData  string // empty means unset
	ParentPath string // empty means not orphan-rooted

	// File/directory shared extension fields.
	FavoriteRank  int
	MetadataState MetadataState
	RawMetadata   []byte

	// File-only.
	Size          int64
	ChunkCount    int
	StorageRegion string
	StorageBucket string

	// Directory-only.
	Color      string
	LastListed int64

	// Decoded metadata (file_meta/dir_meta), valid only when
	// MetadataState == MetadataDecoded.
	Name     string
	Mime     string
	FileKey  string
	KeyVer   int
	Created  int64
	Modified int64
	Hash     string

	// Root-only.
	StorageUsed int64
	MaxStorage  int64
	LastUpdated int64
}

// EffectiveName returns the decoded name if available, otherwise the item's
// uuid, matching COALESCE(file_meta.name, dir_meta.name, uuid).
func (it Item) EffectiveName() string {
	if it.MetadataState == MetadataDecoded && it.Name != "" {
		return it.Name
	}
	return it.UUID
}

// NewFile describes the arguments to upsert a file item.
type NewFile struct {
	UUID          string
	Parent        string
	LocalData     *string // nil means "leave unchanged"
	IsRecent      bool
	ParentPath    string
	Size          int64
	ChunkCount    int
	FavoriteRank  int
	StorageRegion string
	StorageBucket string

	// Exactly one of (Name set, MetadataState==Decoded) or
	// (RawMetadata set, MetadataState!=Decoded) is expected.
	MetadataState MetadataState
	RawMetadata   []byte
	Name          string
	Mime          string
	FileKey       string
	KeyVer        int
	Created       int64
	Modified      int64
	Hash          string
}

// NewDirectory describes the arguments to upsert a directory item.
type NewDirectory struct {
	UUID         string
	Parent       string
	LocalData    *string
	IsRecent     bool
	ParentPath   string
	FavoriteRank int
	Color        string

	MetadataState MetadataState
	RawMetadata   []byte
	Name          string
	Created       int64
}

// RootAccounting is the writable subset of the root row.
type RootAccounting struct {
	StorageUsed int64
	MaxStorage  int64
	LastUpdated int64
}
