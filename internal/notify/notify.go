// Package notify implements an optional real-time push-invalidation
// listener. A long-lived websocket connection to a remote push endpoint
// delivers {uuid, changed_at} frames; the listener schedules a refresh for
// any uuid already cached, instead of relying solely on polling. The core
// works with nothing wired to this package at all (poll-only); this is the
// one piece of networking inside the core boundary, and it is deliberately
// optional.
package notify

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/coder/websocket"

	"github.com/filen/filen-cache-core/internal/store"
)

// Frame is one push-invalidation event.
type Frame struct {
	UUID      string `json:"uuid"`
	ChangedAt int64  `json:"changed_at"`
}

// Scheduler is the narrow refresh capability a Listener needs. Satisfied by
// *internal/refresh.Pool.
type Scheduler interface {
	ScheduleOne(ctx context.Context, uuid string)
}

// Cache is the narrow store capability a Listener needs to decide whether a
// pushed uuid is worth a refresh: only react to items already cached.
// Satisfied by *internal/store.Store.
type Cache interface {
	GetObject(ctx context.Context, uuid string) (store.Item, error)
}

// Listener holds a long-lived websocket connection open against a push
// endpoint and schedules a refresh for every pushed uuid already cached.
type Listener struct {
	url       string
	scheduler Scheduler
	cache     Cache
	logger    *slog.Logger
}

// New builds a Listener bound to url and the given collaborators.
func New(url string, scheduler Scheduler, cache Cache, logger *slog.Logger) *Listener {
	return &Listener{url: url, scheduler: scheduler, cache: cache, logger: logger}
}

// Run dials url and processes frames until ctx is cancelled or the
// connection drops. Returns nil on a clean ctx cancellation, non-nil on any
// dial or protocol error.
func (l *Listener) Run(ctx context.Context) error {
	conn, _, err := websocket.Dial(ctx, l.url, nil)
	if err != nil {
		return err
	}
	defer conn.CloseNow()

	for {
		_, data, err := conn.Read(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}

		var frame Frame
		if err := json.Unmarshal(data, &frame); err != nil {
			l.logger.Warn("malformed push frame", slog.String("error", err.Error()))
			continue
		}

		if _, err := l.cache.GetObject(ctx, frame.UUID); err != nil {
			continue
		}

		l.scheduler.ScheduleOne(ctx, frame.UUID)
	}
}
