package vapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/acme/call-task-dispatcher/internal/config"
	"github.com/acme/call-task-dispatcher/internal/domain"
	"github.com/acme/call-task-dispatcher/internal/gateway"
)

func testCreds() domain.CredentialBundle {
	return domain.CredentialBundle{
		TelephonySID:       "AC123",
		TelephonyAuthToken: "token",
		VoiceAPIKey:        "vk-abc",
	}
}

func testRequest() gateway.CallRequest {
	return gateway.CallRequest{
		DestinationNumber: "+15551234567",
		CallerIDNumber:    "+15550001111",
		ContactName:       "Dana",
		FirstMessage:      "Calling Dana regarding a follow-up",
		SystemPrompt:      "You are an assistant.",
		VoiceID:           "voice-1",
	}
}

func TestPlaceCallSendsExpectedPayload(t *testing.T) {
	var captured map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/call/phone" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer vk-abc" {
			t.Errorf("authorization = %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]string{"id": "call-7"})
	}))
	defer server.Close()

	client := NewClient(config.GatewayConfig{BaseURL: server.URL, AssistantID: "asst-1", RequestTimeout: 5 * time.Second})
	result, err := client.PlaceCall(context.Background(), testCreds(), testRequest())
	if err != nil {
		t.Fatalf("PlaceCall: %v", err)
	}
	if result.CallID != "call-7" {
		t.Errorf("call id = %q, want call-7", result.CallID)
	}

	customer, _ := captured["customer"].(map[string]any)
	if customer["number"] != "+15551234567" || customer["name"] != "Dana" {
		t.Errorf("customer leg = %v", customer)
	}

	phone, _ := captured["phoneNumber"].(map[string]any)
	if phone["twilioPhoneNumber"] != "+15550001111" {
		t.Errorf("caller id = %v", phone["twilioPhoneNumber"])
	}
	if phone["twilioAccountSid"] != "AC123" || phone["twilioAuthToken"] != "token" {
		t.Errorf("telephony credentials not embedded: %v", phone)
	}

	if captured["assistantId"] != "asst-1" {
		t.Errorf("assistant id = %v", captured["assistantId"])
	}
	overrides, _ := captured["assistantOverrides"].(map[string]any)
	if overrides["firstMessage"] != "Calling Dana regarding a follow-up" {
		t.Errorf("first message = %v", overrides["firstMessage"])
	}
	voice, _ := overrides["voice"].(map[string]any)
	if voice["voiceId"] != "voice-1" || voice["provider"] != "11labs" {
		t.Errorf("voice overrides = %v", voice)
	}
}

func TestPlaceCallClassifiesHTTPErrors(t *testing.T) {
	cases := []struct {
		status    int
		retryable bool
	}{
		{http.StatusUnauthorized, false},
		{http.StatusBadRequest, false},
		{http.StatusTooManyRequests, true},
		{http.StatusServiceUnavailable, true},
	}

	for _, tc := range cases {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
			json.NewEncoder(w).Encode(map[string]string{"message": "nope"})
		}))

		client := NewClient(config.GatewayConfig{BaseURL: server.URL, RequestTimeout: 5 * time.Second})
		_, err := client.PlaceCall(context.Background(), testCreds(), testRequest())
		server.Close()

		if err == nil {
			t.Fatalf("status %d: expected an error", tc.status)
		}
		var ce *gateway.CallError
		if !errors.As(err, &ce) {
			t.Fatalf("status %d: error %T is not a CallError", tc.status, err)
		}
		if ce.Retryable != tc.retryable {
			t.Errorf("status %d: retryable = %v, want %v", tc.status, ce.Retryable, tc.retryable)
		}
	}
}

func TestPlaceCallNetworkErrorIsRetryable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	server.Close()

	client := NewClient(config.GatewayConfig{BaseURL: server.URL, RequestTimeout: time.Second})
	_, err := client.PlaceCall(context.Background(), testCreds(), testRequest())
	if err == nil {
		t.Fatalf("expected a network error")
	}
	if !gateway.IsRetryable(err) {
		t.Errorf("network errors must be retryable")
	}
}
