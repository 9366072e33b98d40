// Package task runs the daemon's independent logical flows side by side.
package task

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// Task is one long-running flow. Run returns nil when ctx is cancelled.
type Task interface {
	Name() string
	Run(ctx context.Context) error
}

// Run starts every task on its own goroutine and waits for all of them.
// The first task to fail cancels the others; its error is returned.
func Run(ctx context.Context, logger *slog.Logger, tasks ...Task) error {
	if logger == nil {
		logger = slog.Default()
	}

	g, ctx := errgroup.WithContext(ctx)
	for _, t := range tasks {
		g.Go(func() error {
			log := logger.With(slog.String("task", t.Name()))
			log.Debug("task started")
			if err := t.Run(ctx); err != nil {
				log.Error("task failed", slog.Any("err", err))
				return fmt.Errorf("%s: %w", t.Name(), err)
			}
			log.Debug("task stopped")
			return nil
		})
	}
	return g.Wait()
}
