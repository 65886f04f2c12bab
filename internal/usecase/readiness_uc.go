package usecase

import (
	"context"
	"errors"

	"fitplan/internal/domain"
	"fitplan/internal/domain/ports/repository"
)

// Compile-time check
var _ ReadinessUseCase = (*readinessUC)(nil)

type ReadinessUseCase interface {
	// Ready reports whether the user holds a paid plan and at least one generated plan exists.
	Ready(ctx context.Context, userID string) (bool, error)
}

type readinessUC struct {
	profiles repository.ProfileRepository
	plans    repository.NutritionalPlanRepository
}

func NewReadinessUseCase(profiles repository.ProfileRepository, plans repository.NutritionalPlanRepository) *readinessUC {
	return &readinessUC{profiles: profiles, plans: plans}
}

func (u *readinessUC) Ready(ctx context.Context, userID string) (bool, error) {
	if userID == "" {
		return false, domain.ErrUnauthenticated
	}
	paid, err := u.profiles.HasPaidPlan(ctx, repository.NoTX, userID)
	if err != nil {
		return false, err
	}
	if !paid {
		return false, nil
	}
	plan, err := u.plans.Latest(ctx, repository.NoTX, userID)
	if errors.Is(err, domain.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return !plan.IsZero(), nil
}
