package gateway

import (
	"errors"
	"fmt"
	"testing"

	"github.com/acme/call-task-dispatcher/internal/domain"
)

func TestClassifyStatus(t *testing.T) {
	cases := []struct {
		status    int
		code      ErrorCode
		retryable bool
	}{
		{401, CodeAuth, false},
		{403, CodeAuth, false},
		{400, CodeInvalidDestination, false},
		{404, CodeInvalidDestination, false},
		{422, CodeInvalidDestination, false},
		{408, CodeRateLimited, true},
		{429, CodeRateLimited, true},
		{500, CodeUnavailable, true},
		{502, CodeUnavailable, true},
		{503, CodeUnavailable, true},
	}

	for _, tc := range cases {
		ce := ClassifyStatus(tc.status)
		if ce.Code != tc.code {
			t.Errorf("ClassifyStatus(%d).Code = %s, want %s", tc.status, ce.Code, tc.code)
		}
		if ce.Retryable != tc.retryable {
			t.Errorf("ClassifyStatus(%d).Retryable = %v, want %v", tc.status, ce.Retryable, tc.retryable)
		}
	}
}

func TestIsRetryable(t *testing.T) {
	if IsRetryable(&CallError{Code: CodeAuth}) {
		t.Errorf("auth errors must not be retryable")
	}
	if !IsRetryable(&CallError{Code: CodeUnavailable, Retryable: true}) {
		t.Errorf("unavailable errors must be retryable")
	}

	wrapped := fmt.Errorf("placing call: %w", &CallError{Code: CodeInvalidDestination})
	if IsRetryable(wrapped) {
		t.Errorf("wrapped terminal error must not be retryable")
	}

	if !IsRetryable(errors.New("connection reset")) {
		t.Errorf("unclassified errors default to retryable")
	}
}

func TestCallErrorUnwrap(t *testing.T) {
	cause := errors.New("boom")
	ce := &CallError{Code: CodeNetwork, Err: cause}
	if !errors.Is(ce, cause) {
		t.Fatalf("CallError must unwrap to its cause")
	}
}

func TestFirstNumber(t *testing.T) {
	if got := FirstNumber(nil); got != nil {
		t.Fatalf("FirstNumber(nil) = %v, want nil", got)
	}

	numbers := []domain.OutboundNumber{
		{SID: "PN1", PhoneNumber: "+15550001111"},
		{SID: "PN2", PhoneNumber: "+15550002222"},
	}
	got := FirstNumber(numbers)
	if got == nil || got.SID != "PN1" {
		t.Fatalf("FirstNumber = %v, want the first entry", got)
	}
}
