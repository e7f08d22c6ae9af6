package queue

import (
	"time"

	"github.com/google/uuid"
)

// TaskOutcomeMessage records the result of one dispatch attempt. The
// outcome topic feeds the call-log worker; downstream consumers (billing,
// analytics) can attach their own groups.
type TaskOutcomeMessage struct {
	TaskID      uuid.UUID  `json:"task_id"`
	ContactID   uuid.UUID  `json:"contact_id"`
	CampaignID  *uuid.UUID `json:"campaign_id,omitempty"`
	Status      string     `json:"status"`
	Attempt     int        `json:"attempt"`
	Destination string     `json:"destination"`
	CallerID    string     `json:"caller_id"`
	GatewayCall string     `json:"gateway_call,omitempty"`
	Error       string     `json:"error,omitempty"`
	DurationMs  int64      `json:"duration_ms"`
	OccurredAt  time.Time  `json:"occurred_at"`
}
