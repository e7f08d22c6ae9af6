package vapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/acme/call-task-dispatcher/internal/config"
	"github.com/acme/call-task-dispatcher/internal/domain"
	"github.com/acme/call-task-dispatcher/internal/gateway"
)

// Client places calls through the hosted AI-voice API. The client itself
// is stateless; per-user credentials arrive with each request.
type Client struct {
	baseURL     string
	assistantID string
	httpClient  *http.Client
}

// NewClient constructs a voice gateway client.
func NewClient(cfg config.GatewayConfig) *Client {
	return &Client{
		baseURL:     cfg.BaseURL,
		assistantID: cfg.AssistantID,
		httpClient:  &http.Client{Timeout: cfg.RequestTimeout},
	}
}

// PlaceCall submits an outbound call request.
func (c *Client) PlaceCall(ctx context.Context, creds domain.CredentialBundle, req gateway.CallRequest) (gateway.CallResult, error) {
	payload := c.buildPayload(creds, req)

	body, err := json.Marshal(payload)
	if err != nil {
		return gateway.CallResult{}, fmt.Errorf("vapi: marshal payload: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/call/phone", bytes.NewReader(body))
	if err != nil {
		return gateway.CallResult{}, fmt.Errorf("vapi: build request: %w", err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+creds.VoiceAPIKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return gateway.CallResult{}, &gateway.CallError{Code: gateway.CodeNetwork, Retryable: true, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		ce := gateway.ClassifyStatus(resp.StatusCode)
		if msg := readErrorMessage(resp.Body); msg != "" {
			ce.Err = fmt.Errorf("%s", msg)
		}
		return gateway.CallResult{}, ce
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return gateway.CallResult{}, fmt.Errorf("vapi: decode response: %w", err)
	}

	return gateway.CallResult{CallID: out.ID}, nil
}

// buildPayload assembles the call creation body: the customer leg, the
// caller-id leg bridged through the user's own telephony account, and the
// assistant overrides for this one conversation.
func (c *Client) buildPayload(creds domain.CredentialBundle, req gateway.CallRequest) map[string]any {
	return map[string]any{
		"customer": map[string]any{
			"number": req.DestinationNumber,
			"name":   req.ContactName,
		},
		"phoneNumber": map[string]any{
			"twilioPhoneNumber": req.CallerIDNumber,
			"twilioAccountSid":  creds.TelephonySID,
			"twilioAuthToken":   creds.TelephonyAuthToken,
			"fallbackDestination": map[string]any{
				"type":   "number",
				"number": req.DestinationNumber,
			},
		},
		"assistantId": c.assistantID,
		"assistantOverrides": map[string]any{
			"firstMessage": req.FirstMessage,
			"voice": map[string]any{
				"voiceId":         req.VoiceID,
				"provider":        "11labs",
				"stability":       0.30,
				"similarityBoost": 0.75,
				"style":           0.1,
			},
			"model": map[string]any{
				"provider": "openai",
				"model":    "gpt-4o-mini",
				"messages": []map[string]any{
					{"role": "system", "content": req.SystemPrompt},
				},
			},
		},
	}
}

func readErrorMessage(r io.Reader) string {
	data, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil {
		return ""
	}
	var body struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(data, &body); err != nil || body.Message == "" {
		return string(data)
	}
	return body.Message
}
