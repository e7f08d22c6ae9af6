package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/acme/call-task-dispatcher/internal/domain"
	"github.com/acme/call-task-dispatcher/internal/repository"
)

// TaskRepository implements repository.TaskRepository using PostgreSQL.
type TaskRepository struct {
	db *sqlx.DB
}

// NewTaskRepository constructs the repository.
func NewTaskRepository(db *sqlx.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Get retrieves a task by id.
func (r *TaskRepository) Get(ctx context.Context, id uuid.UUID) (*domain.CallTask, error) {
	var rec taskRecord
	err := r.db.GetContext(ctx, &rec, `SELECT id, contact_id, campaign_id, call_subject, first_message, priority,
		status, attempt_count, last_error, scheduled_at, created_at, updated_at
		FROM call_tasks WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("call tasks: get: %w", err)
	}
	return rec.toModel(), nil
}

// ListDue fetches dispatchable tasks: Scheduled with scheduled_at in the
// past. Overdue tasks stay eligible indefinitely.
func (r *TaskRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]*domain.CallTask, error) {
	if limit <= 0 {
		limit = 100
	}

	rows, err := r.db.QueryxContext(ctx, `SELECT id, contact_id, campaign_id, call_subject, first_message, priority,
		status, attempt_count, last_error, scheduled_at, created_at, updated_at
		FROM call_tasks
		WHERE status = $1 AND scheduled_at <= $2
		ORDER BY priority DESC, scheduled_at ASC
		LIMIT $3`, domain.TaskStatusScheduled, now, limit)
	if err != nil {
		return nil, fmt.Errorf("call tasks: list due: %w", err)
	}
	defer rows.Close()

	var results []*domain.CallTask
	for rows.Next() {
		var rec taskRecord
		if err := rows.StructScan(&rec); err != nil {
			return nil, fmt.Errorf("call tasks: scan: %w", err)
		}
		results = append(results, rec.toModel())
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("call tasks: rows err: %w", err)
	}
	return results, nil
}

// Claim leases a Scheduled task for dispatch. The WHERE clause on status
// is what keeps the scan path and the queue worker from double-dialing.
func (r *TaskRepository) Claim(ctx context.Context, id uuid.UUID) (bool, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE call_tasks SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4`,
		domain.TaskStatusProcessing, time.Now().UTC(), id, domain.TaskStatusScheduled)
	if err != nil {
		return false, fmt.Errorf("call tasks: claim: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("call tasks: claim rows affected: %w", err)
	}
	return n == 1, nil
}

// Release returns a claimed task to Scheduled without consuming an attempt.
func (r *TaskRepository) Release(ctx context.Context, id uuid.UUID) error {
	return r.transition(ctx, id, domain.TaskStatusProcessing, `UPDATE call_tasks SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4`, domain.TaskStatusScheduled)
}

// ScheduleRetry returns a claimed task to Scheduled recording the consumed
// attempt and the gateway error.
func (r *TaskRepository) ScheduleRetry(ctx context.Context, id uuid.UUID, attemptCount int, lastError string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE call_tasks SET status = $1, attempt_count = $2, last_error = $3, updated_at = $4
		WHERE id = $5 AND status = $6`,
		domain.TaskStatusScheduled, attemptCount, lastError, time.Now().UTC(), id, domain.TaskStatusProcessing)
	if err != nil {
		return fmt.Errorf("call tasks: schedule retry: %w", err)
	}
	return checkTransition(res)
}

// Complete marks a claimed task Completed.
func (r *TaskRepository) Complete(ctx context.Context, id uuid.UUID) error {
	return r.transition(ctx, id, domain.TaskStatusProcessing, `UPDATE call_tasks SET status = $1, updated_at = $2
		WHERE id = $3 AND status = $4`, domain.TaskStatusCompleted)
}

// Fail marks a claimed task Failed with the final error.
func (r *TaskRepository) Fail(ctx context.Context, id uuid.UUID, attemptCount int, lastError string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE call_tasks SET status = $1, attempt_count = $2, last_error = $3, updated_at = $4
		WHERE id = $5 AND status = $6`,
		domain.TaskStatusFailed, attemptCount, lastError, time.Now().UTC(), id, domain.TaskStatusProcessing)
	if err != nil {
		return fmt.Errorf("call tasks: fail: %w", err)
	}
	return checkTransition(res)
}

func (r *TaskRepository) transition(ctx context.Context, id uuid.UUID, from domain.TaskStatus, query string, to domain.TaskStatus) error {
	res, err := r.db.ExecContext(ctx, query, to, time.Now().UTC(), id, from)
	if err != nil {
		return fmt.Errorf("call tasks: transition to %s: %w", to, err)
	}
	return checkTransition(res)
}

func checkTransition(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("call tasks: rows affected: %w", err)
	}
	if n == 0 {
		return repository.ErrConflict
	}
	return nil
}

type taskRecord struct {
	ID           uuid.UUID      `db:"id"`
	ContactID    uuid.UUID      `db:"contact_id"`
	CampaignID   *uuid.UUID     `db:"campaign_id"`
	CallSubject  string         `db:"call_subject"`
	FirstMessage sql.NullString `db:"first_message"`
	Priority     int            `db:"priority"`
	Status       string         `db:"status"`
	AttemptCount int            `db:"attempt_count"`
	LastError    sql.NullString `db:"last_error"`
	ScheduledAt  time.Time      `db:"scheduled_at"`
	CreatedAt    time.Time      `db:"created_at"`
	UpdatedAt    time.Time      `db:"updated_at"`
}

func (r taskRecord) toModel() *domain.CallTask {
	task := &domain.CallTask{
		ID:           r.ID,
		ContactID:    r.ContactID,
		CampaignID:   r.CampaignID,
		CallSubject:  r.CallSubject,
		Priority:     r.Priority,
		Status:       domain.TaskStatus(r.Status),
		AttemptCount: r.AttemptCount,
		ScheduledAt:  r.ScheduledAt,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	if r.FirstMessage.Valid {
		task.FirstMessage = r.FirstMessage.String
	}
	if r.LastError.Valid {
		s := r.LastError.String
		task.LastError = &s
	}
	return task
}
