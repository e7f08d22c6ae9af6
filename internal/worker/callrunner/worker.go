package callrunner

import (
	"context"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/acme/call-task-dispatcher/internal/app"
)

// Worker consumes the delayed job queue: each popped job is one call task
// whose scheduled time has arrived. It is the event-driven twin of the
// periodic scan; both funnel into the same dispatch pipeline.
type Worker struct {
	container *app.Container
}

// New creates a queue worker instance.
func New(container *app.Container) *Worker {
	return &Worker{container: container}
}

// Run polls for due jobs until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	cfg := w.container.Config
	queue := w.container.Queues().Delayed
	dispatcher := w.container.Services().Dispatch
	logger := w.container.Logger

	ticker := time.NewTicker(cfg.Queue.PollInterval)
	defer ticker.Stop()

	tracer := otel.Tracer("dispatch.callrunner")

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}

		ids, err := queue.PopDue(ctx, time.Now().UTC(), cfg.Queue.PopBatch)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Error("callrunner: pop due jobs", zap.Error(err))
			continue
		}

		for _, id := range ids {
			sctx, span := tracer.Start(ctx, "callrunner.job", trace.WithAttributes(
				attribute.String("task.id", id.String()),
			))
			outcome := dispatcher.ProcessByID(sctx, id)
			span.SetAttributes(attribute.Int("job.outcome", int(outcome)))
			span.End()
			logger.Debug("callrunner: job processed", zap.String("task_id", id.String()), zap.Int("outcome", int(outcome)))
		}
	}
}
