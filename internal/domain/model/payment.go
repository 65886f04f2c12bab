package model

import (
	"strings"
	"time"

	"fitplan/internal/domain"
)

// PaymentStatus is the provider-reported collection status carried on the redirect.
type PaymentStatus string

const (
	PaymentStatusApproved PaymentStatus = "approved"
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusOther    PaymentStatus = "other" // rejected, cancelled, null, anything unrecognized
)

// ParsePaymentStatus maps a raw provider status onto the three statuses the flow branches on.
// Matching is exact: "APPROVED" or "in_process" are other.
func ParsePaymentStatus(raw string) PaymentStatus {
	switch PaymentStatus(raw) {
	case PaymentStatusApproved:
		return PaymentStatusApproved
	case PaymentStatusPending:
		return PaymentStatusPending
	default:
		return PaymentStatusOther
	}
}

// RedirectParams are the query values the payment provider appends when returning the user.
// They are parsed once on entry and never mutated.
type RedirectParams struct {
	Status            PaymentStatus
	RawStatus         string
	PaymentID         string
	ExternalReference string
}

func (p RedirectParams) Approved() bool { return p.Status == PaymentStatusApproved }

// RedirectQuery is the minimal read surface of url.Values used for parsing.
type RedirectQuery interface {
	Get(key string) string
}

// ParseRedirectParams reads the provider redirect. Both collection_status/status and
// collection_id/payment_id spellings are accepted; the first non-empty one wins.
func ParseRedirectParams(q RedirectQuery) (RedirectParams, error) {
	raw := firstNonEmpty(q, "collection_status", "status")
	paymentID := firstNonEmpty(q, "collection_id", "payment_id")
	extRef := strings.TrimSpace(q.Get("external_reference"))

	if raw == "" || paymentID == "" || extRef == "" {
		return RedirectParams{}, domain.ErrMissingPaymentInfo
	}
	return RedirectParams{
		Status:            ParsePaymentStatus(raw),
		RawStatus:         raw,
		PaymentID:         paymentID,
		ExternalReference: extRef,
	}, nil
}

func firstNonEmpty(q RedirectQuery, keys ...string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(q.Get(k)); v != "" {
			return v
		}
	}
	return ""
}

// Payment is the server-side record of a provider payment.
type Payment struct {
	ID                string // UUID
	UserID            string // UUID of the account owner
	Provider          string // e.g. "mercadopago"
	ProviderPaymentID string // collection_id / payment_id
	ExternalReference string // our reference passed to the checkout
	Status            PaymentStatus
	RawStatus         string
	CreatedAt         time.Time
	UpdatedAt         time.Time
	ApprovedAt        *time.Time // set the first time the payment is seen approved
}

// NewPayment validates and constructs a payment record from redirect params.
func NewPayment(id, userID, provider string, p RedirectParams) (*Payment, error) {
	if id == "" || userID == "" || p.PaymentID == "" || p.ExternalReference == "" {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	pay := &Payment{
		ID:                id,
		UserID:            userID,
		Provider:          provider,
		ProviderPaymentID: p.PaymentID,
		ExternalReference: p.ExternalReference,
		Status:            p.Status,
		RawStatus:         p.RawStatus,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if p.Approved() {
		pay.ApprovedAt = &now
	}
	return pay, nil
}
