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

// ContactRepository implements repository.ContactRepository using PostgreSQL.
type ContactRepository struct {
	db *sqlx.DB
}

// NewContactRepository constructs the repository.
func NewContactRepository(db *sqlx.DB) *ContactRepository {
	return &ContactRepository{db: db}
}

// Get retrieves a contact by id.
func (r *ContactRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Contact, error) {
	var rec contactRecord
	err := r.db.GetContext(ctx, &rec, `SELECT id, user_id, first_name, last_name, phone, lead_status, source, language, opted_in, created_at
		FROM contacts WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("contacts: get: %w", err)
	}
	return rec.toModel(), nil
}

type contactRecord struct {
	ID         uuid.UUID      `db:"id"`
	UserID     uuid.UUID      `db:"user_id"`
	FirstName  string         `db:"first_name"`
	LastName   sql.NullString `db:"last_name"`
	Phone      sql.NullString `db:"phone"`
	LeadStatus sql.NullString `db:"lead_status"`
	Source     sql.NullString `db:"source"`
	Language   sql.NullString `db:"language"`
	OptedIn    bool           `db:"opted_in"`
	CreatedAt  time.Time      `db:"created_at"`
}

func (r contactRecord) toModel() *domain.Contact {
	return &domain.Contact{
		ID:         r.ID,
		UserID:     r.UserID,
		FirstName:  r.FirstName,
		LastName:   r.LastName.String,
		Phone:      r.Phone.String,
		LeadStatus: r.LeadStatus.String,
		Source:     r.Source.String,
		Language:   r.Language.String,
		OptedIn:    r.OptedIn,
		CreatedAt:  r.CreatedAt,
	}
}
