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

// CredentialRepository implements repository.CredentialRepository using PostgreSQL.
type CredentialRepository struct {
	db *sqlx.DB
}

// NewCredentialRepository constructs the repository.
func NewCredentialRepository(db *sqlx.DB) *CredentialRepository {
	return &CredentialRepository{db: db}
}

// Latest returns the user's most recent credential bundle. Duplicate rows
// can exist (the keys UI upserts naively); most-recent wins.
func (r *CredentialRepository) Latest(ctx context.Context, userID uuid.UUID) (*domain.CredentialBundle, error) {
	var rec credentialRecord
	err := r.db.GetContext(ctx, &rec, `SELECT user_id, telephony_sid, telephony_auth_token, voice_api_key, created_at
		FROM api_keys WHERE user_id = $1
		ORDER BY created_at DESC LIMIT 1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("api keys: latest: %w", err)
	}

	return &domain.CredentialBundle{
		UserID:             rec.UserID,
		TelephonySID:       rec.TelephonySID.String,
		TelephonyAuthToken: rec.TelephonyAuthToken.String,
		VoiceAPIKey:        rec.VoiceAPIKey.String,
		CreatedAt:          rec.CreatedAt,
	}, nil
}

type credentialRecord struct {
	UserID             uuid.UUID      `db:"user_id"`
	TelephonySID       sql.NullString `db:"telephony_sid"`
	TelephonyAuthToken sql.NullString `db:"telephony_auth_token"`
	VoiceAPIKey        sql.NullString `db:"voice_api_key"`
	CreatedAt          time.Time      `db:"created_at"`
}
