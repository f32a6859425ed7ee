package remote

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
)

// Fake is an in-memory Query and MetadataDecoder used by every package's
// tests in place of the real remote/crypto stack.
type Fake struct {
	mu sync.Mutex

	children map[string][]RemoteChild // parent uuid -> children
	items    map[string]RemoteChild   // uuid -> item
	matches  []RemoteMatch

	// ListErr, when set, is returned by ListDir for the given uuid.
	ListErr map[string]error

	// decodable maps ciphertext (as string) to its decoded result. Entries
	// absent from this map decode as "stays encrypted".
	decodable map[string]DecodedMetadata

	listDirCalls map[string]int
}

// NewFake builds an empty fake collaborator.
func NewFake() *Fake {
	return &Fake{
		children:     make(map[string][]RemoteChild),
		items:        make(map[string]RemoteChild),
		ListErr:      make(map[string]error),
		decodable:    make(map[string]DecodedMetadata),
		listDirCalls: make(map[string]int),
	}
}

// SetChildren replaces the listing the fake returns for parent.
func (f *Fake) SetChildren(parent string, children []RemoteChild) {
	f.mu.Lock()
	defer f.mu.Unlock()

	cp := make([]RemoteChild, len(children))
	copy(cp, children)
	f.children[parent] = cp

	for _, c := range cp {
		f.items[c.UUID] = c
	}
}

// SetItem registers a single item fetchable by GetItem.
func (f *Fake) SetItem(item RemoteChild) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items[item.UUID] = item
}

// SetSearchMatches replaces the result Search returns.
func (f *Fake) SetSearchMatches(matches []RemoteMatch) {
	f.mu.Lock()
	defer f.mu.Unlock()

	cp := make([]RemoteMatch, len(matches))
	copy(cp, matches)
	f.matches = cp
}

// SetDecodable marks ciphertext as decodable to result. Ciphertext absent
// from this registration decodes as "stays encrypted" (ok=false).
func (f *Fake) SetDecodable(ciphertext []byte, result DecodedMetadata) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.decodable[string(ciphertext)] = result
}

// ListDirCalls reports how many times ListDir was called for uuid, for
// tests asserting singleflight/dedup behavior.
func (f *Fake) ListDirCalls(uuid string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listDirCalls[uuid]
}

func (f *Fake) ListDir(ctx context.Context, uuid string) ([]RemoteChild, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.listDirCalls[uuid]++

	if err, ok := f.ListErr[uuid]; ok && err != nil {
		return nil, err
	}

	out := make([]RemoteChild, len(f.children[uuid]))
	copy(out, f.children[uuid])

	sort.Slice(out, func(i, j int) bool { return out[i].UUID < out[j].UUID })

	return out, nil
}

func (f *Fake) GetItem(ctx context.Context, uuid string) (RemoteChild, error) {
	if err := ctx.Err(); err != nil {
		return RemoteChild{}, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	item, ok := f.items[uuid]
	if !ok {
		return RemoteChild{}, fmt.Errorf("remote: fake item %s not found", uuid)
	}

	return item, nil
}

func (f *Fake) Search(ctx context.Context, q SearchQuery) ([]RemoteMatch, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	var out []RemoteMatch
	for _, m := range f.matches {
		if q.NameSubstring != "" && !strings.Contains(strings.ToLower(m.Child.DecodedName), strings.ToLower(q.NameSubstring)) {
			continue
		}
		if q.Type != nil && m.Child.Type != *q.Type {
			continue
		}
		if m.Child.Size < q.MinSize {
			continue
		}
		out = append(out, m)
	}

	return out, nil
}

func (f *Fake) Decode(ctx context.Context, ciphertext []byte, keyVersion int) (DecodedMetadata, bool, error) {
	if err := ctx.Err(); err != nil {
		return DecodedMetadata{}, false, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	result, ok := f.decodable[string(ciphertext)]
	if !ok {
		return DecodedMetadata{}, false, nil
	}

	return result, true, nil
}

var (
	_ Query           = (*Fake)(nil)
	_ MetadataDecoder = (*Fake)(nil)
)
