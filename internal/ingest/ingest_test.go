package ingest

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/filen/filen-cache-core/internal/remote"
	"github.com/filen/filen-cache-core/internal/store"
	"github.com/filen/filen-cache-core/internal/upsert"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestIngester(t *testing.T) (*Ingester, *store.Store, *remote.Fake) {
	t.Helper()

	s, err := store.Open(context.Background(), ":memory:", discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	fake := remote.NewFake()
	engine := upsert.New(s)

	return New(s, engine, fake, discardLogger()), s, fake
}

func TestIngestSearchTagsParentPath(t *testing.T) {
	g, s, _ := newTestIngester(t)
	ctx := context.Background()

	err := g.IngestSearch(ctx, []remote.RemoteMatch{
		{
			Child: remote.RemoteChild{
				UUID:       "Q",
				ParentUUID: "unknown-parent",
				Type:        remote.TypeFile,
				DecodedName: "y.txt",
			},
			EncryptedParentPath: "enc://x/y",
		},
	})
	require.NoError(t, err)

	obj, err := s.GetObject(ctx, "Q")
	require.NoError(t, err)
	require.Equal(t, "enc://x/y", obj.ParentPath)
	require.Equal(t, "y.txt", obj.EffectiveName())
}

func TestIngestSearchSurvivesParentMissing(t *testing.T) {
	g, s, _ := newTestIngester(t)
	ctx := context.Background()

	tx, err := s.BeginTx(ctx)
	require.NoError(t, err)
	_, err = upsert.New(s).UpsertDir(ctx, tx, upsert.DirUpsert{ItemUpsert: upsert.ItemUpsert{UUID: "P", Parent: "trash", Name: "P"}})
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	require.NoError(t, g.IngestSearch(ctx, []remote.RemoteMatch{
		{
			Child:               remote.RemoteChild{UUID: "Q", ParentUUID: "P", Type: remote.TypeFile, DecodedName: "y.txt"},
			EncryptedParentPath: "enc://x/y",
		},
	}))

	// Deleting Q's parent must not remove Q: parent_path is set, so the
	// cascade trigger exempts it and Q outlives its now-missing parent.
	tx2, err := s.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, tx2.DeleteItem(ctx, "P"))
	require.NoError(t, tx2.Commit())

	_, err = s.GetObject(ctx, "Q")
	require.NoError(t, err)
}

func TestClearOrphanedSearchRemovesUnconnected(t *testing.T) {
	g, s, _ := newTestIngester(t)
	ctx := context.Background()

	require.NoError(t, g.IngestSearch(ctx, []remote.RemoteMatch{
		{
			Child:               remote.RemoteChild{UUID: "Q", ParentUUID: "still-unknown", Type: remote.TypeFile, DecodedName: "y.txt"},
			EncryptedParentPath: "enc://x/y",
		},
	}))

	tx, err := s.BeginTx(ctx)
	require.NoError(t, err)
	require.NoError(t, tx.DeleteOrphanedSearch(ctx))
	require.NoError(t, tx.Commit())

	_, err = s.GetObject(ctx, "Q")
	require.Error(t, err)
}

func TestMarkRecentIsStickyAcrossUpsert(t *testing.T) {
	g, s, _ := newTestIngester(t)
	ctx := context.Background()

	tx, err := s.BeginTx(ctx)
	require.NoError(t, err)
	_, err = upsert.New(s).UpsertFile(ctx, tx, upsert.FileUpsert{ItemUpsert: upsert.ItemUpsert{UUID: "f", Parent: "trash", Name: "f.txt"}})
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	require.NoError(t, g.MarkRecent(ctx, []string{"f"}))

	obj, err := s.GetObject(ctx, "f")
	require.NoError(t, err)
	require.True(t, obj.IsRecent)

	// A later upsert that doesn't ask for is_recent must not clear it.
	tx2, err := s.BeginTx(ctx)
	require.NoError(t, err)
	_, err = upsert.New(s).UpsertFile(ctx, tx2, upsert.FileUpsert{ItemUpsert: upsert.ItemUpsert{UUID: "f", Parent: "trash", Name: "f.txt"}})
	require.NoError(t, err)
	require.NoError(t, tx2.Commit())

	obj2, err := s.GetObject(ctx, "f")
	require.NoError(t, err)
	require.True(t, obj2.IsRecent)
}

func TestMarkRecentUnknownUUIDIsNoop(t *testing.T) {
	g, _, _ := newTestIngester(t)
	require.NoError(t, g.MarkRecent(context.Background(), []string{"never-seen"}))
}
