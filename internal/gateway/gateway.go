package gateway

import (
	"context"
	"errors"
	"fmt"

	"github.com/acme/call-task-dispatcher/internal/domain"
)

// CallRequest is the assembled payload for one outbound call.
type CallRequest struct {
	DestinationNumber string
	CallerIDNumber    string
	ContactName       string
	FirstMessage      string
	SystemPrompt      string
	VoiceID           string
}

// CallResult is the gateway's acknowledgement of a placed call.
type CallResult struct {
	CallID string
}

// ErrorCode classifies gateway failures.
type ErrorCode string

const (
	CodeAuth               ErrorCode = "auth"
	CodeInvalidDestination ErrorCode = "invalid_destination"
	CodeRateLimited        ErrorCode = "rate_limited"
	CodeUnavailable        ErrorCode = "unavailable"
	CodeNetwork            ErrorCode = "network"
)

// CallError is a typed gateway failure. Retryable errors leave the task
// eligible for another attempt; terminal ones fail it permanently.
type CallError struct {
	Code       ErrorCode
	HTTPStatus int
	Retryable  bool
	Err        error
}

func (e *CallError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("gateway %s: %v", e.Code, e.Err)
	}
	return fmt.Sprintf("gateway %s (http %d)", e.Code, e.HTTPStatus)
}

func (e *CallError) Unwrap() error {
	return e.Err
}

// IsRetryable reports whether err is a gateway error worth another attempt.
// Unknown errors (network failures surfaced by the HTTP client) count as
// retryable.
func IsRetryable(err error) bool {
	var ce *CallError
	if errors.As(err, &ce) {
		return ce.Retryable
	}
	return true
}

// ClassifyStatus maps an HTTP status from the voice API to a CallError.
func ClassifyStatus(status int) *CallError {
	switch {
	case status == 401 || status == 403:
		return &CallError{Code: CodeAuth, HTTPStatus: status}
	case status == 400 || status == 404 || status == 422:
		return &CallError{Code: CodeInvalidDestination, HTTPStatus: status}
	case status == 408 || status == 429:
		return &CallError{Code: CodeRateLimited, HTTPStatus: status, Retryable: true}
	default:
		return &CallError{Code: CodeUnavailable, HTTPStatus: status, Retryable: true}
	}
}

// Voice abstracts the voice-call API that places outbound calls. The
// credential bundle travels with each call because every dispatch acts on
// behalf of a different user.
type Voice interface {
	PlaceCall(ctx context.Context, creds domain.CredentialBundle, req CallRequest) (CallResult, error)
}

// NumberLister abstracts the telephony inventory of caller-id numbers.
type NumberLister interface {
	ListNumbers(ctx context.Context, creds domain.CredentialBundle) ([]domain.OutboundNumber, error)
}

// FirstNumber applies the caller-id selection policy: first available.
func FirstNumber(numbers []domain.OutboundNumber) *domain.OutboundNumber {
	if len(numbers) == 0 {
		return nil
	}
	return &numbers[0]
}
