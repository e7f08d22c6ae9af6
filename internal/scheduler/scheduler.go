package scheduler

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/acme/call-task-dispatcher/internal/app"
)

// Scheduler periodically runs dispatch cycles over due call tasks. It is
// the in-process stand-in for an external cron hitting the trigger
// endpoint; deployments use one or the other.
type Scheduler struct {
	container *app.Container
}

// New constructs a scheduler.
func New(container *app.Container) *Scheduler {
	return &Scheduler{container: container}
}

// Run executes the dispatch loop until cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	interval := s.container.Config.Dispatcher.TickInterval
	if interval <= 0 {
		interval = time.Minute
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		if err := s.tick(ctx); err != nil && ctx.Err() == nil {
			s.container.Logger.Error("scheduler: tick failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *Scheduler) tick(ctx context.Context) error {
	tracer := otel.Tracer("dispatch.scheduler")
	sctx, span := tracer.Start(ctx, "scheduler.tick")
	defer span.End()

	result, err := s.container.Services().Dispatch.RunCycle(sctx)
	if err != nil {
		span.RecordError(err)
		return err
	}

	span.SetAttributes(
		attribute.Int("cycle.processed", result.Processed),
		attribute.Int("cycle.completed", result.Completed),
		attribute.Int("cycle.failed", result.Failed),
		attribute.Int("cycle.skipped", result.Skipped),
	)
	return nil
}
