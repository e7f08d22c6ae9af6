package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/acme/call-task-dispatcher/internal/domain"
	apperrors "github.com/acme/call-task-dispatcher/pkg/errors"
)

var (
	// ErrNotFound indicates the entity was not located.
	ErrNotFound = apperrors.ErrNotFound
	// ErrConflict indicates a state transition lost to a concurrent writer.
	ErrConflict = apperrors.ErrConflict
)

// TaskRepository manages call task persistence and status transitions.
// Every transition is conditional on the prior status so a racing
// scan-path and queue-path consumer cannot both act on one task.
type TaskRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.CallTask, error)
	// ListDue returns tasks with status Scheduled and scheduled_at <= now,
	// oldest-eligible first within priority. No staleness upper bound.
	ListDue(ctx context.Context, now time.Time, limit int) ([]*domain.CallTask, error)
	// Claim moves Scheduled -> Processing. Returns false when the task was
	// not in Scheduled (already claimed, held or terminal).
	Claim(ctx context.Context, id uuid.UUID) (bool, error)
	// Release moves Processing -> Scheduled without consuming an attempt.
	// Used when resolution fails on data the operator must fix.
	Release(ctx context.Context, id uuid.UUID) error
	// ScheduleRetry moves Processing -> Scheduled recording a consumed
	// attempt and the gateway error.
	ScheduleRetry(ctx context.Context, id uuid.UUID, attemptCount int, lastError string) error
	// Complete moves Processing -> Completed.
	Complete(ctx context.Context, id uuid.UUID) error
	// Fail moves Processing -> Failed recording the final error.
	Fail(ctx context.Context, id uuid.UUID, attemptCount int, lastError string) error
}

// ContactRepository reads contacts. The dispatcher never writes them.
type ContactRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.Contact, error)
}

// CredentialRepository reads per-user credential bundles.
type CredentialRepository interface {
	// Latest returns the most recent bundle for the user, ErrNotFound when
	// the user has none.
	Latest(ctx context.Context, userID uuid.UUID) (*domain.CredentialBundle, error)
}

// AgentSettingsRepository reads per-user agent configuration.
type AgentSettingsRepository interface {
	// Latest returns the most recent settings row, ErrNotFound when the
	// user has none. Callers fall back to zero-value defaults.
	Latest(ctx context.Context, userID uuid.UUID) (*domain.AgentSettings, error)
}

// CampaignRepository reads campaign-level dispatch overrides.
type CampaignRepository interface {
	Get(ctx context.Context, id uuid.UUID) (*domain.Campaign, error)
}

// CallLogStore persists dispatch attempt records.
type CallLogStore interface {
	Append(ctx context.Context, log domain.CallLog) error
	ListByContact(ctx context.Context, contactID uuid.UUID, limit int, pagingState []byte) ([]domain.CallLog, []byte, error)
}
