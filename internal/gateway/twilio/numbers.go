package twilio

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/acme/call-task-dispatcher/internal/config"
	"github.com/acme/call-task-dispatcher/internal/domain"
	apperrors "github.com/acme/call-task-dispatcher/pkg/errors"
)

// NumberClient lists the phone numbers owned by a telephony account.
// Inventory is fetched fresh per dispatch; the account's numbers can
// change between cycles.
type NumberClient struct {
	baseURL    string
	pageSize   int
	httpClient *http.Client
}

// NewNumberClient constructs the inventory client.
func NewNumberClient(cfg config.TelephonyConfig) *NumberClient {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "https://api.twilio.com"
	}
	return &NumberClient{
		baseURL:    baseURL,
		pageSize:   cfg.PageSize,
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
	}
}

// ListNumbers returns the account's incoming phone numbers.
func (c *NumberClient) ListNumbers(ctx context.Context, creds domain.CredentialBundle) ([]domain.OutboundNumber, error) {
	url := fmt.Sprintf("%s/2010-04-01/Accounts/%s/IncomingPhoneNumbers.json?PageSize=%d",
		c.baseURL, creds.TelephonySID, c.pageSize)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("twilio: build request: %w", err)
	}
	req.SetBasicAuth(creds.TelephonySID, creds.TelephonyAuthToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("twilio: list numbers: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, fmt.Errorf("twilio: list numbers: %w", apperrors.ErrValidation)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("twilio: list numbers: unexpected status %d: %w", resp.StatusCode, apperrors.ErrUnavailable)
	}

	var body struct {
		IncomingPhoneNumbers []struct {
			SID         string `json:"sid"`
			PhoneNumber string `json:"phone_number"`
		} `json:"incoming_phone_numbers"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("twilio: decode response: %w", err)
	}

	numbers := make([]domain.OutboundNumber, 0, len(body.IncomingPhoneNumbers))
	for _, n := range body.IncomingPhoneNumbers {
		numbers = append(numbers, domain.OutboundNumber{SID: n.SID, PhoneNumber: n.PhoneNumber})
	}
	return numbers, nil
}
