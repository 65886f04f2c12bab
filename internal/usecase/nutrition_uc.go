package usecase

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"fitplan/internal/domain"
	"fitplan/internal/domain/model"
	"fitplan/internal/domain/ports/repository"
)

// Compile-time check
var _ NutritionUseCase = (*nutritionUC)(nil)

type NutritionUseCase interface {
	// SaveTarget computes the caloric target for metrics and stores it as the user's nutrition profile.
	SaveTarget(ctx context.Context, userID string, metrics model.BodyMetrics, pref model.TrainingPreference) (*model.NutritionProfile, error)
	Profile(ctx context.Context, userID string) (*model.NutritionProfile, error)
}

type nutritionUC struct {
	profiles repository.NutritionProfileRepository
	log      *zerolog.Logger
}

func NewNutritionUseCase(profiles repository.NutritionProfileRepository, logger *zerolog.Logger) *nutritionUC {
	return &nutritionUC{profiles: profiles, log: logger}
}

func (u *nutritionUC) SaveTarget(ctx context.Context, userID string, metrics model.BodyMetrics, pref model.TrainingPreference) (*model.NutritionProfile, error) {
	if userID == "" {
		return nil, domain.ErrUnauthenticated
	}
	if pref == "" {
		pref = model.TrainingGym
	}
	if pref != model.TrainingGym && pref != model.TrainingHome {
		return nil, domain.ErrInvalidArgument
	}
	target, err := model.CaloricTarget(metrics)
	if err != nil {
		return nil, err
	}
	n := &model.NutritionProfile{
		UserID:        userID,
		Metrics:       metrics,
		Preference:    pref,
		CaloricTarget: target,
		UpdatedAt:     time.Now(),
	}
	if err := u.profiles.Upsert(ctx, repository.NoTX, n); err != nil {
		u.log.Error().Err(err).Str("user_id", userID).Msg("save nutrition profile")
		return nil, err
	}
	return n, nil
}

func (u *nutritionUC) Profile(ctx context.Context, userID string) (*model.NutritionProfile, error) {
	if userID == "" {
		return nil, domain.ErrUnauthenticated
	}
	return u.profiles.FindByUserID(ctx, repository.NoTX, userID)
}
