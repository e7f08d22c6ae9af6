package scylla

import (
	"context"
	"fmt"
	"time"

	"github.com/gocql/gocql"
	"github.com/google/uuid"

	"github.com/acme/call-task-dispatcher/internal/domain"
)

// CallLogStore persists dispatch attempt records in Scylla.
type CallLogStore struct {
	session *gocql.Session
}

// NewCallLogStore creates a new call log store.
func NewCallLogStore(session *gocql.Session) *CallLogStore {
	return &CallLogStore{session: session}
}

// Append writes one attempt record to both query tables.
func (s *CallLogStore) Append(ctx context.Context, log domain.CallLog) error {
	bucket := bucketDate(log.CreatedAt)
	durationMs := int64(log.Duration / time.Millisecond)

	if err := s.session.Query(`INSERT INTO call_logs_by_contact (contact_id, bucket, log_id, task_id, destination, caller_id, gateway_call, status, attempt, error, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		log.ContactID.String(), bucket, log.ID.String(), log.TaskID.String(), log.Destination, log.CallerID,
		log.GatewayCall, string(log.Status), log.Attempt, log.Error, durationMs, log.CreatedAt,
	).WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("call logs: insert call_logs_by_contact: %w", err)
	}

	if err := s.session.Query(`INSERT INTO call_logs_by_task (task_id, attempt, log_id, destination, status, error, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		log.TaskID.String(), log.Attempt, log.ID.String(), log.Destination, string(log.Status), log.Error, durationMs, log.CreatedAt,
	).WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("call logs: insert call_logs_by_task: %w", err)
	}

	return nil
}

// ListByContact lists attempt records for a contact with pagination.
func (s *CallLogStore) ListByContact(ctx context.Context, contactID uuid.UUID, limit int, pagingState []byte) ([]domain.CallLog, []byte, error) {
	if limit <= 0 {
		limit = 100
	}

	query := s.session.Query(`SELECT bucket, log_id, task_id, destination, caller_id, gateway_call, status, attempt, error, duration_ms, created_at
		FROM call_logs_by_contact WHERE contact_id = ?`, contactID.String()).WithContext(ctx)
	query = query.PageSize(limit)
	if len(pagingState) > 0 {
		query = query.PageState(pagingState)
	}

	iter := query.Iter()
	logs := make([]domain.CallLog, 0, limit)

	var (
		bucket      time.Time
		logIDStr    string
		taskIDStr   string
		destination string
		callerID    string
		gatewayCall string
		status      string
		attempt     int
		errText     string
		durationMs  int64
		created     time.Time
	)

	for iter.Scan(&bucket, &logIDStr, &taskIDStr, &destination, &callerID, &gatewayCall, &status, &attempt, &errText, &durationMs, &created) {
		logID, err := uuid.Parse(logIDStr)
		if err != nil {
			continue
		}
		taskID, err := uuid.Parse(taskIDStr)
		if err != nil {
			continue
		}

		logs = append(logs, domain.CallLog{
			ID:          logID,
			TaskID:      taskID,
			ContactID:   contactID,
			Destination: destination,
			CallerID:    callerID,
			GatewayCall: gatewayCall,
			Status:      domain.TaskStatus(status),
			Attempt:     attempt,
			Error:       errText,
			Duration:    time.Duration(durationMs) * time.Millisecond,
			CreatedAt:   created,
		})
	}

	if err := iter.Close(); err != nil {
		return nil, nil, fmt.Errorf("call logs: iter close: %w", err)
	}

	return logs, iter.PageState(), nil
}

func bucketDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
