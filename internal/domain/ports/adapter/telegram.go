package adapter

import "context"

// SupportAlert describes a payment flow that ended in a state the support team must follow up.
type SupportAlert struct {
	SessionID         string
	UserID            string
	PaymentID         string
	ExternalReference string
	Phase             string
	Reason            string
}

// SupportNotifier delivers alerts to the support channel.
type SupportNotifier interface {
	NotifySupport(ctx context.Context, alert SupportAlert) error
}
