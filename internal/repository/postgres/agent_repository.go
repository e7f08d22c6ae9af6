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

// AgentSettingsRepository implements repository.AgentSettingsRepository using PostgreSQL.
type AgentSettingsRepository struct {
	db *sqlx.DB
}

// NewAgentSettingsRepository constructs the repository.
func NewAgentSettingsRepository(db *sqlx.DB) *AgentSettingsRepository {
	return &AgentSettingsRepository{db: db}
}

// Latest returns the user's most recent agent settings row.
func (r *AgentSettingsRepository) Latest(ctx context.Context, userID uuid.UUID) (*domain.AgentSettings, error) {
	var rec agentRecord
	err := r.db.GetContext(ctx, &rec, `SELECT user_id, agent_name, role, company_name, prompt, voice_id, created_at
		FROM agents WHERE user_id = $1
		ORDER BY created_at DESC LIMIT 1`, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("agents: latest: %w", err)
	}

	return &domain.AgentSettings{
		UserID:      rec.UserID,
		AgentName:   rec.AgentName.String,
		Role:        rec.Role.String,
		CompanyName: rec.CompanyName.String,
		Prompt:      rec.Prompt.String,
		VoiceID:     rec.VoiceID.String,
		CreatedAt:   rec.CreatedAt,
	}, nil
}

type agentRecord struct {
	UserID      uuid.UUID      `db:"user_id"`
	AgentName   sql.NullString `db:"agent_name"`
	Role        sql.NullString `db:"role"`
	CompanyName sql.NullString `db:"company_name"`
	Prompt      sql.NullString `db:"prompt"`
	VoiceID     sql.NullString `db:"voice_id"`
	CreatedAt   time.Time      `db:"created_at"`
}
