package query

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/filen/filen-cache-core/internal/ingest"
	"github.com/filen/filen-cache-core/internal/remote"
	"github.com/filen/filen-cache-core/internal/store"
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

func TestGetObjectAttachesResolvedPath(t *testing.T) {
	s := openTestStore(t)
	e := upsert.New(s)
	ctx := context.Background()

	tx, err := s.BeginTx(ctx)
	require.NoError(t, err)
	_, err = e.UpsertDir(ctx, tx, upsert.DirUpsert{ItemUpsert: upsert.ItemUpsert{UUID: "a", Parent: "", Name: "a"}})
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	q := New(s)
	obj, err := q.GetObject(ctx, "a")
	require.NoError(t, err)
	require.Equal(t, "/a", obj.Path)
}

func TestSearchAttachesSynthesizedPathForOrphan(t *testing.T) {
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

	q := New(s)
	matches, err := q.Search(ctx, SearchFilter{NameSubstring: "y"})
	require.NoError(t, err)
	require.Len(t, matches, 1)
	require.Equal(t, "enc://x/y/y.txt", matches[0].Path)
}

func TestListDirChildrenProjection(t *testing.T) {
	s := openTestStore(t)
	e := upsert.New(s)
	ctx := context.Background()

	tx, err := s.BeginTx(ctx)
	require.NoError(t, err)
	_, err = e.UpsertFile(ctx, tx, upsert.FileUpsert{ItemUpsert: upsert.ItemUpsert{UUID: "f", Parent: "trash", Name: "f.txt"}})
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	q := New(s)
	children, err := q.ListDirChildren(ctx, "trash")
	require.NoError(t, err)
	require.Len(t, children, 1)
	require.Equal(t, "/Trash/f.txt", children[0].Path)
}

func TestRootInfoProjection(t *testing.T) {
	s := openTestStore(t)
	e := upsert.New(s)
	ctx := context.Background()

	tx, err := s.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, e.UpsertRoot(ctx, tx, "root-uuid", store.RootAccounting{StorageUsed: 42}))
	require.NoError(t, tx.Commit())

	q := New(s)
	info, err := q.GetRoot(ctx)
	require.NoError(t, err)
	require.Equal(t, "root-uuid", info.UUID)
	require.Equal(t, int64(42), info.StorageUsed)
}
