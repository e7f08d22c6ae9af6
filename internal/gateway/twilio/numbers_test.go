package twilio

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
	apperrors "github.com/acme/call-task-dispatcher/pkg/errors"
)

func TestListNumbers(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/2010-04-01/Accounts/AC123/IncomingPhoneNumbers.json" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "AC123" || pass != "token" {
			t.Errorf("basic auth = %q/%q", user, pass)
		}
		if got := r.URL.Query().Get("PageSize"); got != "20" {
			t.Errorf("PageSize = %q, want 20", got)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"incoming_phone_numbers": []map[string]string{
				{"sid": "PN1", "phone_number": "+15550001111"},
				{"sid": "PN2", "phone_number": "+15550002222"},
			},
		})
	}))
	defer server.Close()

	client := NewNumberClient(config.TelephonyConfig{BaseURL: server.URL, PageSize: 20, RequestTimeout: 5 * time.Second})
	creds := domain.CredentialBundle{TelephonySID: "AC123", TelephonyAuthToken: "token"}

	numbers, err := client.ListNumbers(context.Background(), creds)
	if err != nil {
		t.Fatalf("ListNumbers: %v", err)
	}
	if len(numbers) != 2 {
		t.Fatalf("got %d numbers, want 2", len(numbers))
	}
	if numbers[0].SID != "PN1" || numbers[0].PhoneNumber != "+15550001111" {
		t.Errorf("first number = %+v", numbers[0])
	}
}

func TestListNumbersRejectedCredentials(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	client := NewNumberClient(config.TelephonyConfig{BaseURL: server.URL, PageSize: 20, RequestTimeout: 5 * time.Second})
	_, err := client.ListNumbers(context.Background(), domain.CredentialBundle{TelephonySID: "AC123", TelephonyAuthToken: "bad"})
	if !errors.Is(err, apperrors.ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
}

func TestListNumbersServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	client := NewNumberClient(config.TelephonyConfig{BaseURL: server.URL, PageSize: 20, RequestTimeout: 5 * time.Second})
	_, err := client.ListNumbers(context.Background(), domain.CredentialBundle{TelephonySID: "AC123", TelephonyAuthToken: "token"})
	if !errors.Is(err, apperrors.ErrUnavailable) {
		t.Fatalf("err = %v, want ErrUnavailable", err)
	}
}
