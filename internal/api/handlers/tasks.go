package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/acme/call-task-dispatcher/internal/domain"
)

// executeCalls runs one dispatch cycle over due tasks. The external
// scheduler hits this endpoint; it answers 200 even when individual
// tasks failed, and 500 only when the task store itself is unreachable.
func (h *HandlerSet) executeCalls(ctx *fiber.Ctx) error {
	result, err := h.dispatch.RunCycle(ctx.Context())
	if err != nil {
		return fiber.NewError(http.StatusInternalServerError, "failed to fetch call tasks")
	}

	return ctx.Status(http.StatusOK).JSON(fiber.Map{
		"message":   "Processed scheduled calls",
		"processed": result.Processed,
		"completed": result.Completed,
		"failed":    result.Failed,
		"skipped":   result.Skipped,
	})
}

// enqueueTask registers a task on the delayed job queue so its call fires
// at the scheduled time instead of waiting for the next scan.
func (h *HandlerSet) enqueueTask(ctx *fiber.Ctx) error {
	id, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid task id")
	}

	task, err := h.container.Repositories().Tasks.Get(ctx.Context(), id)
	if err != nil {
		return translateError(err)
	}
	if task.Status != domain.TaskStatusScheduled {
		return fiber.NewError(http.StatusConflict, "task is not in Scheduled state")
	}

	if err := h.container.Queues().Delayed.Enqueue(ctx.Context(), task.ID, task.ScheduledAt); err != nil {
		return err
	}

	return ctx.Status(http.StatusAccepted).JSON(fiber.Map{
		"message":      "Task enqueued",
		"task_id":      task.ID,
		"scheduled_at": task.ScheduledAt,
	})
}
