package usecase

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shandysiswandi/goscaff/internal/pkg/pkgerror"
	"golang.org/x/sync/errgroup"
)

// Dependency wires the demo use case.
type Dependency struct {
	WorkDelay time.Duration
}

// Usecase holds the demo business logic. Every step logs with the caller's
// context, so all of its lines carry the request's correlation ID.
type Usecase struct {
	delay time.Duration
}

func New(dep Dependency) *Usecase {
	return &Usecase{delay: dep.WorkDelay}
}

// Resolve is the explicit per-request dependency of the root endpoint.
func (u *Usecase) Resolve(ctx context.Context) string {
	slog.InfoContext(ctx, "dep start")
	return "foo"
}

// Work runs the blocking part of the root endpoint on another goroutine and
// waits for it.
func (u *Usecase) Work(ctx context.Context) error {
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.InfoContext(gctx, "in test func")
		return sleep(gctx, u.delay)
	})

	if err := g.Wait(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return pkgerror.NewTimeout(err)
		}
		return pkgerror.NewUnavailable(err)
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
