package payment

import (
	"context"
	"sync"

	"fitplan/internal/domain/ports/adapter"
)

var _ adapter.PaymentGateway = (*NoopPaymentGateway)(nil)

// NoopPaymentGateway is used when no provider credentials are configured and in tests.
// Unknown payments report ok=false, so the redirect parameters are trusted as-is.
type NoopPaymentGateway struct {
	mu       sync.Mutex
	payments map[string]adapter.ProviderPayment
}

func NewNoopPaymentGateway() *NoopPaymentGateway {
	return &NoopPaymentGateway{payments: make(map[string]adapter.ProviderPayment)}
}

func (g *NoopPaymentGateway) Name() string { return "noop" }

// Seed registers a provider-side payment for later lookups.
func (g *NoopPaymentGateway) Seed(p adapter.ProviderPayment) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.payments[p.ID] = p
}

func (g *NoopPaymentGateway) Lookup(ctx context.Context, paymentID string) (adapter.ProviderPayment, bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	p, ok := g.payments[paymentID]
	return p, ok, nil
}
