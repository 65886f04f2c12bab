package usecase

import "context"

// PlanGenerator produces and stores the purchased plans for a user. Background workers depend on it.
type PlanGenerator interface {
	GenerateForUser(ctx context.Context, userID, paymentID string) error
}
