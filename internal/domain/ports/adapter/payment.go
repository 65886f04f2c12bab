package adapter

import (
	"context"
	"time"
)

// ProviderPayment is the provider's own view of a payment, used to cross-check redirects.
type ProviderPayment struct {
	ID                string
	Status            string // provider raw status e.g. approved / pending / rejected
	ExternalReference string
	Amount            float64
	Currency          string
	ApprovedAt        *time.Time
}

// PaymentGateway is the hex port for payment providers.
type PaymentGateway interface {
	Name() string
	// Lookup fetches a payment by provider id. Gateways that cannot verify return ok=false.
	Lookup(ctx context.Context, paymentID string) (p ProviderPayment, ok bool, err error)
}
