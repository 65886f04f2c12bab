package model

import (
	"time"

	"fitplan/internal/domain"
)

// Profile is the account row owned by the hosted auth user.
type Profile struct {
	ID          string // same as the auth user id
	Email       string
	HasPaidPlan bool
	PaidAt      *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func NewProfile(id, email string) (*Profile, error) {
	if id == "" {
		return nil, domain.ErrInvalidArgument
	}
	now := time.Now()
	return &Profile{ID: id, Email: email, CreatedAt: now, UpdatedAt: now}, nil
}

func (p *Profile) IsZero() bool { return p == nil || p.ID == "" }

// MarkPaid flags the account as holding an active paid plan.
func (p *Profile) MarkPaid(at time.Time) {
	p.HasPaidPlan = true
	p.PaidAt = &at
	p.UpdatedAt = at
}
