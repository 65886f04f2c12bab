package repository

import (
	"context"

	"fitplan/internal/domain/model"
)

type NutritionalPlanRepository interface {
	Save(ctx context.Context, tx Tx, p *model.NutritionalPlan) error
	// Latest returns the most recent plan for the user or domain.ErrNotFound.
	Latest(ctx context.Context, tx Tx, userID string) (*model.NutritionalPlan, error)
}

type NutritionProfileRepository interface {
	// Upsert writes the user_nutrition row, conflicting on user_id.
	Upsert(ctx context.Context, tx Tx, n *model.NutritionProfile) error
	FindByUserID(ctx context.Context, tx Tx, userID string) (*model.NutritionProfile, error)
}

type TrainingPlanRepository interface {
	// Save persists the plan row and its workout days.
	Save(ctx context.Context, tx Tx, p *model.TrainingPlan) error
	Latest(ctx context.Context, tx Tx, userID string) (*model.TrainingPlan, error)
}
