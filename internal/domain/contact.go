package domain

import (
	"time"

	"github.com/google/uuid"
)

// Contact is a callable party owned by a user account.
type Contact struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	FirstName  string
	LastName   string
	Phone      string
	LeadStatus string
	Source     string
	Language   string
	OptedIn    bool
	CreatedAt  time.Time
}

// CredentialBundle holds the per-user secrets needed to act against the
// telephony and voice APIs on that user's behalf.
type CredentialBundle struct {
	UserID             uuid.UUID
	TelephonySID       string
	TelephonyAuthToken string
	VoiceAPIKey        string
	CreatedAt          time.Time
}

// Complete reports whether the bundle carries everything a dispatch needs.
func (c CredentialBundle) Complete() bool {
	return c.TelephonySID != "" && c.TelephonyAuthToken != "" && c.VoiceAPIKey != ""
}

// AgentSettings describes how a user's AI voice agent should behave.
// The zero value is the documented fallback when a user has none.
type AgentSettings struct {
	UserID      uuid.UUID
	AgentName   string
	Role        string
	CompanyName string
	Prompt      string
	VoiceID     string
	CreatedAt   time.Time
}

// Campaign carries the per-campaign dispatch overrides.
type Campaign struct {
	ID          uuid.UUID
	UserID      uuid.UUID
	Name        string
	CountryCode string
	Prompt      string
	CreatedAt   time.Time
}

// OutboundNumber is a phone number owned by the user's telephony account,
// eligible as caller id for outbound calls.
type OutboundNumber struct {
	SID         string
	PhoneNumber string
}
