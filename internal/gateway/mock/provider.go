package mock

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"github.com/acme/call-task-dispatcher/internal/domain"
	"github.com/acme/call-task-dispatcher/internal/gateway"
)

// Provider simulates the voice gateway and the number inventory for local
// runs without live accounts. Selected via gateway.provider = "mock".
type Provider struct {
	successRate float64
}

// NewProvider constructs a mock provider.
func NewProvider() *Provider {
	return &Provider{successRate: 0.8}
}

// PlaceCall simulates a call attempt.
func (p *Provider) PlaceCall(ctx context.Context, creds domain.CredentialBundle, req gateway.CallRequest) (gateway.CallResult, error) {
	delay := time.Duration(100+rand.Intn(400)) * time.Millisecond

	select {
	case <-ctx.Done():
		return gateway.CallResult{}, &gateway.CallError{Code: gateway.CodeNetwork, Retryable: true, Err: ctx.Err()}
	case <-time.After(delay):
	}

	if rand.Float64() <= p.successRate {
		return gateway.CallResult{CallID: uuid.NewString()}, nil
	}

	if rand.Float64() < 0.7 {
		return gateway.CallResult{}, &gateway.CallError{Code: gateway.CodeUnavailable, HTTPStatus: 503, Retryable: true, Err: fmt.Errorf("simulated outage")}
	}
	return gateway.CallResult{}, &gateway.CallError{Code: gateway.CodeInvalidDestination, HTTPStatus: 400, Err: fmt.Errorf("simulated rejection")}
}

// ListNumbers returns a single synthetic caller id.
func (p *Provider) ListNumbers(ctx context.Context, creds domain.CredentialBundle) ([]domain.OutboundNumber, error) {
	return []domain.OutboundNumber{{SID: "PNmock", PhoneNumber: "+15005550006"}}, nil
}
