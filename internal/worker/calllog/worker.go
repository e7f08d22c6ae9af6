package calllog

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/acme/call-task-dispatcher/internal/app"
	"github.com/acme/call-task-dispatcher/internal/domain"
	"github.com/acme/call-task-dispatcher/internal/queue"
)

// Worker consumes dispatch outcome events and persists them as call logs.
// Commit happens only after a successful append, so delivery into the log
// store is at-least-once.
type Worker struct {
	container *app.Container
}

// New creates a new call-log worker.
func New(container *app.Container) *Worker {
	return &Worker{container: container}
}

// Run processes outcome events until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	cfg := w.container.Config
	groupID := cfg.Kafka.ConsumerGroupID + "-calllog"
	reader := w.container.Kafka.NewReader(cfg.Kafka.OutcomeTopic, groupID)
	defer reader.Close()

	store := w.container.Repositories().CallLogs
	logger := w.container.Logger
	tracer := otel.Tracer("dispatch.calllogworker")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			logger.Error("calllog worker: fetch", zap.Error(err))
			continue
		}

		var outcome queue.TaskOutcomeMessage
		if err := json.Unmarshal(msg.Value, &outcome); err != nil {
			logger.Error("calllog worker: unmarshal", zap.Error(err))
			_ = reader.CommitMessages(ctx, msg)
			continue
		}

		sctx, span := tracer.Start(ctx, "calllog.append", trace.WithAttributes(
			attribute.String("task.id", outcome.TaskID.String()),
			attribute.Int("attempt", outcome.Attempt),
		))

		record := domain.CallLog{
			ID:          uuid.New(),
			TaskID:      outcome.TaskID,
			ContactID:   outcome.ContactID,
			Destination: outcome.Destination,
			CallerID:    outcome.CallerID,
			GatewayCall: outcome.GatewayCall,
			Status:      domain.TaskStatus(outcome.Status),
			Attempt:     outcome.Attempt,
			Error:       outcome.Error,
			Duration:    time.Duration(outcome.DurationMs) * time.Millisecond,
			CreatedAt:   outcome.OccurredAt,
		}

		if err := store.Append(sctx, record); err != nil {
			span.RecordError(err)
			span.End()
			logger.Error("calllog worker: append", zap.Error(err))
			// Leave uncommitted; the message redelivers.
			continue
		}

		if err := reader.CommitMessages(sctx, msg); err != nil {
			span.RecordError(err)
			logger.Error("calllog worker: commit", zap.Error(err))
		}
		span.End()
	}
}
