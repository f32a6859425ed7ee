package refresh

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/filen/filen-cache-core/internal/remote"
	"github.com/filen/filen-cache-core/internal/store"
	"github.com/filen/filen-cache-core/internal/upsert"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRefresher(t *testing.T) (*Refresher, *store.Store, *remote.Fake) {
	t.Helper()

	s, err := store.Open(context.Background(), ":memory:", discardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })

	fake := remote.NewFake()
	engine := upsert.New(s)

	return New(s, engine, fake, fake, discardLogger()), s, fake
}

func TestStaleSweepEndToEnd(t *testing.T) {
	r, s, fake := newTestRefresher(t)
	ctx := context.Background()

	// Pre-populate D with children {X,Y,Z}.
	tx, err := s.BeginTx(ctx)
	require.NoError(t, err)
	_, err = upsert.New(s).UpsertDir(ctx, tx, upsert.DirUpsert{ItemUpsert: upsert.ItemUpsert{UUID: "D", Parent: "trash", Name: "D"}})
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	for _, name := range []string{"X", "Y", "Z"} {
		tx, err := s.BeginTx(ctx)
		require.NoError(t, err)
		_, err = upsert.New(s).UpsertFile(ctx, tx, upsert.FileUpsert{ItemUpsert: upsert.ItemUpsert{UUID: name, Parent: "D", Name: name}})
		require.NoError(t, err)
		require.NoError(t, tx.Commit())
	}

	// Server returns only {X,Y}.
	fake.SetChildren("D", []remote.RemoteChild{
		{UUID: "X", ParentUUID: "D", Type: remote.TypeFile, DecodedName: "X"},
		{UUID: "Y", ParentUUID: "D", Type: remote.TypeFile, DecodedName: "Y"},
	})

	require.NoError(t, r.RefreshDir(ctx, "D"))

	children, err := s.ListDirChildren(ctx, "D")
	require.NoError(t, err)
	require.Len(t, children, 2)
	for _, c := range children {
		require.False(t, c.IsStale)
		require.NotEqual(t, "Z", c.UUID)
	}
}

func TestRefreshDeduplicatesConcurrentCallers(t *testing.T) {
	r, s, fake := newTestRefresher(t)
	ctx := context.Background()

	tx, err := s.BeginTx(ctx)
	require.NoError(t, err)
	_, err = upsert.New(s).UpsertDir(ctx, tx, upsert.DirUpsert{ItemUpsert: upsert.ItemUpsert{UUID: "D", Parent: "trash", Name: "D"}})
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	fake.SetChildren("D", nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = r.RefreshDir(ctx, "D")
		}()
	}
	wg.Wait()

	// singleflight coalesces concurrent callers into far fewer calls than
	// callers; we only assert it's not one-per-caller.
	require.Less(t, fake.ListDirCalls("D"), 10)
}

func TestRefreshPropagatesListFailure(t *testing.T) {
	r, s, fake := newTestRefresher(t)
	ctx := context.Background()

	tx, err := s.BeginTx(ctx)
	require.NoError(t, err)
	_, err = upsert.New(s).UpsertDir(ctx, tx, upsert.DirUpsert{ItemUpsert: upsert.ItemUpsert{UUID: "D", Parent: "trash", Name: "D"}})
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	tx2, err := s.BeginTx(ctx)
	require.NoError(t, err)
	_, err = upsert.New(s).UpsertFile(ctx, tx2, upsert.FileUpsert{ItemUpsert: upsert.ItemUpsert{UUID: "child", Parent: "D", Name: "child"}})
	require.NoError(t, err)
	require.NoError(t, tx2.Commit())

	fake.ListErr["D"] = errBoom

	require.Error(t, r.RefreshDir(ctx, "D"))

	// Failure must not have left the child stale-marked or removed.
	children, err := s.ListDirChildren(ctx, "D")
	require.NoError(t, err)
	require.Len(t, children, 1)
	require.False(t, children[0].IsStale)
}

func TestPushTriggeredRefreshDedupesWithInFlight(t *testing.T) {
	r, s, fake := newTestRefresher(t)
	ctx := context.Background()

	tx, err := s.BeginTx(ctx)
	require.NoError(t, err)
	_, err = upsert.New(s).UpsertDir(ctx, tx, upsert.DirUpsert{ItemUpsert: upsert.ItemUpsert{UUID: "D", Parent: "trash", Name: "D"}})
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	fake.SetChildren("D", nil)

	pool := NewPool(r, 4, discardLogger())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = r.RefreshDir(ctx, "D")
	}()

	pool.ScheduleOne(ctx, "D")
	wg.Wait()
	time.Sleep(20 * time.Millisecond)

	require.LessOrEqual(t, fake.ListDirCalls("D"), 2)
}

var errBoom = &boomError{}

type boomError struct{}

func (*boomError) Error() string { return "refresh: boom" }
