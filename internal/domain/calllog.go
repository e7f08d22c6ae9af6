package domain

import (
	"time"

	"github.com/google/uuid"
)

// CallLog is an append-only record of one dispatch attempt.
type CallLog struct {
	ID          uuid.UUID
	TaskID      uuid.UUID
	ContactID   uuid.UUID
	Destination string
	CallerID    string
	GatewayCall string
	Status      TaskStatus
	Attempt     int
	Error       string
	Duration    time.Duration
	CreatedAt   time.Time
}
