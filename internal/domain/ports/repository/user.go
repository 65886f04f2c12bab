package repository

import (
	"context"
	"time"

	"fitplan/internal/domain/model"
)

// -----------------------------
// Profiles
// -----------------------------

type ProfileRepository interface {
	Save(ctx context.Context, tx Tx, p *model.Profile) error
	FindByID(ctx context.Context, tx Tx, id string) (*model.Profile, error)
	// HasPaidPlan reports whether the account holds an active paid plan.
	HasPaidPlan(ctx context.Context, tx Tx, id string) (bool, error)
	MarkPaid(ctx context.Context, tx Tx, id string, at time.Time) error
}
