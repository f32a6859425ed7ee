package notify

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/filen/filen-cache-core/internal/store"
	"github.com/filen/filen-cache-core/internal/storeerr"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeScheduler struct {
	scheduled chan string
}

func (f *fakeScheduler) ScheduleOne(ctx context.Context, uuid string) {
	f.scheduled <- uuid
}

type fakeCache struct {
	known map[string]bool
}

func (f *fakeCache) GetObject(ctx context.Context, uuid string) (store.Item, error) {
	if f.known[uuid] {
		return store.Item{UUID: uuid}, nil
	}
	return store.Item{}, storeerr.Wrap("get_object", uuid, storeerr.ErrNotFound)
}

func TestListenerSchedulesRefreshForCachedUUID(t *testing.T) {
	srv := NewFakeServer()
	defer srv.Close()

	sched := &fakeScheduler{scheduled: make(chan string, 1)}
	cache := &fakeCache{known: map[string]bool{"D": true}}

	l := New(srv.URL(), sched, cache, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() { _ = l.Run(ctx) }()

	require.NoError(t, srv.Push(ctx, Frame{UUID: "D", ChangedAt: 1}))

	select {
	case uuid := <-sched.scheduled:
		require.Equal(t, "D", uuid)
	case <-time.After(2 * time.Second):
		t.Fatal("refresh was not scheduled")
	}
}

func TestListenerIgnoresUncachedUUID(t *testing.T) {
	srv := NewFakeServer()
	defer srv.Close()

	sched := &fakeScheduler{scheduled: make(chan string, 1)}
	cache := &fakeCache{known: map[string]bool{}}

	l := New(srv.URL(), sched, cache, discardLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() { _ = l.Run(ctx) }()

	require.NoError(t, srv.Push(ctx, Frame{UUID: "unknown", ChangedAt: 1}))

	select {
	case <-sched.scheduled:
		t.Fatal("should not schedule a refresh for an uncached uuid")
	case <-time.After(200 * time.Millisecond):
	}
}
