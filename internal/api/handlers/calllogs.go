package handlers

import (
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/acme/call-task-dispatcher/internal/domain"
	"github.com/acme/call-task-dispatcher/internal/service/common"
)

type callLogResponse struct {
	ID          uuid.UUID `json:"id"`
	TaskID      uuid.UUID `json:"task_id"`
	Destination string    `json:"destination"`
	CallerID    string    `json:"caller_id"`
	GatewayCall string    `json:"gateway_call,omitempty"`
	Status      string    `json:"status"`
	Attempt     int       `json:"attempt"`
	Error       string    `json:"error,omitempty"`
	DurationMs  int64     `json:"duration_ms"`
	CreatedAt   time.Time `json:"created_at"`
}

// listCallLogs returns the paginated dispatch history for a contact.
func (h *HandlerSet) listCallLogs(ctx *fiber.Ctx) error {
	contactID, err := uuid.Parse(ctx.Params("id"))
	if err != nil {
		return fiber.NewError(http.StatusBadRequest, "invalid contact id")
	}

	limit := ctx.QueryInt("limit", 50)
	var pagingState []byte
	if token := ctx.Query("page_token"); token != "" {
		pagingState, err = common.DecodeBase64(token)
		if err != nil {
			return fiber.NewError(http.StatusBadRequest, "invalid page token")
		}
	}

	logs, next, err := h.container.Repositories().CallLogs.ListByContact(ctx.Context(), contactID, limit, pagingState)
	if err != nil {
		return translateError(err)
	}

	items := make([]callLogResponse, 0, len(logs))
	for _, log := range logs {
		items = append(items, toCallLogResponse(log))
	}

	resp := fiber.Map{"call_logs": items}
	if len(next) > 0 {
		resp["next_page_token"] = common.EncodeBase64(next)
	}
	return ctx.Status(http.StatusOK).JSON(resp)
}

func toCallLogResponse(log domain.CallLog) callLogResponse {
	return callLogResponse{
		ID:          log.ID,
		TaskID:      log.TaskID,
		Destination: log.Destination,
		CallerID:    log.CallerID,
		GatewayCall: log.GatewayCall,
		Status:      string(log.Status),
		Attempt:     log.Attempt,
		Error:       log.Error,
		DurationMs:  log.Duration.Milliseconds(),
		CreatedAt:   log.CreatedAt,
	}
}
