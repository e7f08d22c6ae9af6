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

// CampaignRepository implements repository.CampaignRepository using PostgreSQL.
type CampaignRepository struct {
	db *sqlx.DB
}

// NewCampaignRepository constructs the repository.
func NewCampaignRepository(db *sqlx.DB) *CampaignRepository {
	return &CampaignRepository{db: db}
}

// Get retrieves a campaign's dispatch overrides.
func (r *CampaignRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Campaign, error) {
	var rec campaignRecord
	err := r.db.GetContext(ctx, &rec, `SELECT id, user_id, name, country_code, prompt, created_at
		FROM campaigns WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("campaigns: get: %w", err)
	}

	return &domain.Campaign{
		ID:          rec.ID,
		UserID:      rec.UserID,
		Name:        rec.Name,
		CountryCode: rec.CountryCode.String,
		Prompt:      rec.Prompt.String,
		CreatedAt:   rec.CreatedAt,
	}, nil
}

type campaignRecord struct {
	ID          uuid.UUID      `db:"id"`
	UserID      uuid.UUID      `db:"user_id"`
	Name        string         `db:"name"`
	CountryCode sql.NullString `db:"country_code"`
	Prompt      sql.NullString `db:"prompt"`
	CreatedAt   time.Time      `db:"created_at"`
}
