package refresh

import (
	"context"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// Pool bounds the number of directory refreshes the background worker pool
// may have in flight process-wide, the same shape as a bounded errgroup
// dispatch: a fixed concurrency limit, fail-fast cancellation of the
// group's context, one error per queued directory.
type Pool struct {
	refresher *Refresher
	limit     int
	logger    *slog.Logger

	// sem bounds ScheduleOne's fire-and-forget goroutines to the same
	// process-wide limit RefreshMany enforces via errgroup.SetLimit.
	sem chan struct{}
}

// NewPool builds a Pool that runs up to limit refreshes concurrently.
func NewPool(r *Refresher, limit int, logger *slog.Logger) *Pool {
	if limit <= 0 {
		limit = 1
	}
	return &Pool{refresher: r, limit: limit, logger: logger, sem: make(chan struct{}, limit)}
}

// RefreshMany schedules a refresh for every directory uuid in dirUUIDs,
// bounded to the pool's concurrency limit, and returns the first error
// encountered (if any) after all scheduled work completes or the context
// is cancelled.
func (p *Pool) RefreshMany(ctx context.Context, dirUUIDs []string) error {
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.limit)

	for _, uuid := range dirUUIDs {
		uuid := uuid
		g.Go(func() error {
			if err := p.refresher.RefreshDir(gctx, uuid); err != nil {
				p.logger.Warn("refresh failed", slog.String("uuid", uuid), slog.Any("error", err))
				return err
			}
			return nil
		})
	}

	return g.Wait()
}

// ScheduleOne fires a refresh for uuid without blocking the caller,
// respecting the pool's concurrency limit. Used by internal/notify to
// react to a push-invalidation frame. Blocks only long enough to acquire a
// pool slot; the refresh itself runs on a background goroutine.
func (p *Pool) ScheduleOne(ctx context.Context, uuid string) {
	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return
	}

	go func() {
		defer func() { <-p.sem }()

		if err := p.refresher.RefreshDir(ctx, uuid); err != nil {
			p.logger.Warn("push-triggered refresh failed", slog.String("uuid", uuid), slog.Any("error", err))
		}
	}()
}
