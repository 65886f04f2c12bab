package repository

import (
	"context"
	"time"

	"fitplan/internal/domain/model"
)

// -----------------------------
// Payments
// -----------------------------

type PaymentRepository interface {
	// Upsert inserts or refreshes the payment keyed by (provider, provider_payment_id).
	// The stored row is returned so callers can see the first-approval timestamp.
	Upsert(ctx context.Context, tx Tx, p *model.Payment) (*model.Payment, error)
	FindByProviderID(ctx context.Context, tx Tx, provider, providerPaymentID string) (*model.Payment, error)
	// ListApprovedWithoutPlan returns approved payments older than olderThan whose user has no plan yet.
	ListApprovedWithoutPlan(ctx context.Context, tx Tx, olderThan time.Time, limit int) ([]*model.Payment, error)
}
