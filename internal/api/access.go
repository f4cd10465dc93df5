package api

import (
	"context"
	"time"

	"github.com/layermap/backend/internal/mapkit"
	"github.com/layermap/backend/internal/models"
)

const defaultCallTimeout = 5 * time.Second

// mapAccess runs handler work as tasks on the root's loop. mapkit entities
// are not safe for use from request goroutines.
type mapAccess struct {
	root    *mapkit.Root
	timeout time.Duration
	hub     *Hub
}

func newMapAccess(root *mapkit.Root, timeout time.Duration, hub *Hub) *mapAccess {
	if timeout <= 0 {
		timeout = defaultCallTimeout
	}
	return &mapAccess{root: root, timeout: timeout, hub: hub}
}

type outcome[T any] struct {
	val T
	err error
}

// query runs fn on the loop and returns its result. If the loop does not
// pick the task up before the deadline, the context error is returned and
// fn still runs later.
func query[T any](ctx context.Context, a *mapAccess, fn func(r *mapkit.Root) (T, error)) (T, error) {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	result := make(chan outcome[T], 1)
	if err := a.root.Loop().Call(ctx, func() {
		v, err := fn(a.root)
		result <- outcome[T]{v, err}
	}); err != nil {
		var zero T
		return zero, err
	}
	out := <-result
	return out.val, out.err
}

func (a *mapAccess) do(ctx context.Context, fn func(r *mapkit.Root) error) error {
	_, err := query(ctx, a, func(r *mapkit.Root) (struct{}, error) {
		return struct{}{}, fn(r)
	})
	return err
}

// mutate is do followed by a state broadcast when fn succeeds.
func (a *mapAccess) mutate(ctx context.Context, fn func(r *mapkit.Root) error) error {
	if err := a.do(ctx, fn); err != nil {
		return err
	}
	a.publish(ctx)
	return nil
}

func (a *mapAccess) snapshot(ctx context.Context) (models.MapState, error) {
	return query(ctx, a, func(r *mapkit.Root) (models.MapState, error) {
		return r.Snapshot(), nil
	})
}

func (a *mapAccess) publish(ctx context.Context) {
	if a.hub == nil || a.hub.Len() == 0 {
		return
	}
	st, err := a.snapshot(ctx)
	if err != nil {
		return
	}
	a.hub.Broadcast(st)
}
