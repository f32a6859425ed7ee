package pathresolve

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/filen/filen-cache-core/internal/ingest"
	"github.com/filen/filen-cache-core/internal/remote"
	"github.com/filen/filen-cache-core/internal/store"
	"github.com/filen/filen-cache-core/internal/storeerr"
	"github.com/filen/filen-cache-core/internal/upsert"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func openTestStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.Open(context.Background(), ":memory:", discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestResolveWalksCachedAncestry(t *testing.T) {
	s := openTestStore(t)
	e := upsert.New(s)
	ctx := context.Background()

	tx, err := s.BeginTx(ctx)
	require.NoError(t, err)
	_, err = e.UpsertDir(ctx, tx, upsert.DirUpsert{ItemUpsert: upsert.ItemUpsert{UUID: "a", Parent: "", Name: "a"}})
	require.NoError(t, err)
	_, err = e.UpsertDir(ctx, tx, upsert.DirUpsert{ItemUpsert: upsert.ItemUpsert{UUID: "b", Parent: "a", Name: "b"}})
	require.NoError(t, err)
	_, err = e.UpsertFile(ctx, tx, upsert.FileUpsert{ItemUpsert: upsert.ItemUpsert{UUID: "c", Parent: "b", Name: "c.txt"}})
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	r := New(s)
	path, err := r.Resolve(ctx, "c")
	require.NoError(t, err)
	require.Equal(t, "/a/b/c.txt", path)
}

func TestResolveFallsBackToParentPathForOrphan(t *testing.T) {
	s := openTestStore(t)
	engine := upsert.New(s)
	fake := remote.NewFake()
	g := ingest.New(s, engine, fake, discardLogger())
	ctx := context.Background()

	require.NoError(t, g.IngestSearch(ctx, []remote.RemoteMatch{
		{
			Child:               remote.RemoteChild{UUID: "Q", ParentUUID: "never-cached", Type: remote.TypeFile, DecodedName: "y.txt"},
			EncryptedParentPath: "enc://x/y",
		},
	}))

	r := New(s)
	path, err := r.Resolve(ctx, "Q")
	require.NoError(t, err)
	require.Equal(t, "enc://x/y/y.txt", path)
}

func TestResolveFailsWhenNoParentPathAndAncestryMissing(t *testing.T) {
	s := openTestStore(t)
	e := upsert.New(s)
	ctx := context.Background()

	tx, err := s.BeginTx(ctx)
	require.NoError(t, err)
	_, err = e.UpsertItemOnly(ctx, tx, store.TypeFile, upsert.ItemUpsert{UUID: "lone", Parent: "totally-unknown"})
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	r := New(s)
	_, err = r.Resolve(ctx, "lone")
	require.ErrorIs(t, err, storeerr.ErrPathUnresolvable)
}

func TestResolveRootReturnsSlash(t *testing.T) {
	s := openTestStore(t)
	e := upsert.New(s)
	ctx := context.Background()

	tx, err := s.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, e.UpsertRoot(ctx, tx, "root-uuid", store.RootAccounting{}))
	require.NoError(t, tx.Commit())

	r := New(s)
	path, err := r.Resolve(ctx, "root-uuid")
	require.NoError(t, err)
	require.Equal(t, "/", path)
}
