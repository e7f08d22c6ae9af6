package domain

import (
	"time"

	"github.com/google/uuid"
)

// TaskStatus enumerates lifecycle states of a call task.
type TaskStatus string

const (
	// TaskStatusScheduled marks a task awaiting dispatch.
	TaskStatusScheduled TaskStatus = "Scheduled"
	// TaskStatusProcessing marks a task claimed by a dispatcher. The claim
	// is the lease that keeps the scan path and the queue worker from
	// double-dialing the same task.
	TaskStatusProcessing TaskStatus = "Processing"
	// TaskStatusCompleted marks a task whose call was placed.
	TaskStatusCompleted TaskStatus = "Completed"
	// TaskStatusFailed marks a task that exhausted its attempts or hit a
	// terminal gateway error.
	TaskStatusFailed TaskStatus = "Failed"
	// TaskStatusPaused and TaskStatusAborted are operator-set holds. The
	// dispatcher never writes them and never acts on tasks carrying them.
	TaskStatusPaused  TaskStatus = "Paused"
	TaskStatusAborted TaskStatus = "Aborted"
)

// CallTask is one scheduled outbound call to be placed on behalf of the
// user who owns the referenced contact.
type CallTask struct {
	ID           uuid.UUID
	ContactID    uuid.UUID
	CampaignID   *uuid.UUID
	CallSubject  string
	FirstMessage string
	Priority     int
	Status       TaskStatus
	AttemptCount int
	LastError    *string
	ScheduledAt  time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Due reports whether the task is eligible for dispatch at the given time.
func (t *CallTask) Due(now time.Time) bool {
	return t.Status == TaskStatusScheduled && !t.ScheduledAt.After(now)
}
