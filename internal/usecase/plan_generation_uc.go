package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"fitplan/internal/domain"
	"fitplan/internal/domain/model"
	"fitplan/internal/domain/ports/adapter"
	"fitplan/internal/domain/ports/repository"
	ucport "fitplan/internal/domain/ports/usecase"
	"fitplan/internal/infra/metrics"
)

// Compile-time check
var _ ucport.PlanGenerator = (*planGenerationUC)(nil)

const nutritionSystemPrompt = `You are a registered dietitian. Build a one-day meal plan for the user described in the JSON input.
Hit caloric_target within 3% and keep the given macros. Prefer common Brazilian foods.
Reply with a JSON object only: {"caloric_target":0,"goal":"","macros":{"protein_g":0,"carbs_g":0,"fat_g":0},"meals":[{"name":"","kcal":0,"share_percent":0,"examples":[""]}]}`

type planGenerationUC struct {
	nutrition repository.NutritionProfileRepository
	nutPlans  repository.NutritionalPlanRepository
	training  *trainingUC
	trainRepo repository.TrainingPlanRepository
	gen       *jsonGenerator
	tm        repository.TransactionManager
	log       *zerolog.Logger
}

func NewPlanGenerationUseCase(
	nutrition repository.NutritionProfileRepository,
	nutPlans repository.NutritionalPlanRepository,
	trainRepo repository.TrainingPlanRepository,
	ai adapter.AIServiceAdapter,
	cfg GeneratorConfig,
	tm repository.TransactionManager,
	logger *zerolog.Logger,
) *planGenerationUC {
	return &planGenerationUC{
		nutrition: nutrition,
		nutPlans:  nutPlans,
		training:  NewTrainingUseCase(trainRepo, ai, cfg, logger),
		trainRepo: trainRepo,
		gen:       &jsonGenerator{ai: ai, cfg: cfg, log: logger},
		tm:        tm,
		log:       logger,
	}
}

// GenerateForUser builds the nutritional and training plans from the stored profile and saves
// both in one transaction. The nutritional plan row is what readiness checks look for.
func (u *planGenerationUC) GenerateForUser(ctx context.Context, userID, paymentID string) error {
	profile, err := u.nutrition.FindByUserID(ctx, repository.NoTX, userID)
	if err != nil {
		return fmt.Errorf("load nutrition profile: %w", err)
	}

	doc := u.nutritionDocument(ctx, profile)
	content, err := json.Marshal(doc)
	if err != nil {
		return err
	}

	pref := profile.Preference
	if pref == "" {
		pref = model.TrainingGym
	}
	training, err := u.training.build(ctx, model.TrainingProfile{Metrics: profile.Metrics, Preference: pref})
	if err != nil {
		return fmt.Errorf("build training plan: %w", err)
	}
	training.ID = uuid.NewString()
	training.UserID = userID

	now := time.Now()
	plan := &model.NutritionalPlan{
		ID:            uuid.NewString(),
		UserID:        userID,
		CaloricTarget: profile.CaloricTarget,
		Content:       content,
		CreatedAt:     now,
	}
	if paymentID != "" {
		plan.PaymentID = &paymentID
	}

	return u.tm.WithTx(ctx, pgx.TxOptions{}, func(ctx context.Context, tx repository.Tx) error {
		if err := u.trainRepo.Save(ctx, tx, training); err != nil {
			return fmt.Errorf("save training plan: %w", err)
		}
		if err := u.nutPlans.Save(ctx, tx, plan); err != nil {
			return fmt.Errorf("save nutritional plan: %w", err)
		}
		u.log.Info().Str("user_id", userID).Str("nutrition_source", doc.Source).Str("training_source", training.Source).Msg("plans generated")
		return nil
	})
}

func (u *planGenerationUC) nutritionDocument(ctx context.Context, profile *model.NutritionProfile) model.NutritionDocument {
	tpl := model.TemplateNutrition(profile.CaloricTarget, profile.Metrics.Goal)
	in := struct {
		Metrics       model.BodyMetrics `json:"metrics"`
		CaloricTarget int               `json:"caloric_target"`
		Macros        model.Macros      `json:"macros"`
	}{profile.Metrics, profile.CaloricTarget, tpl.Macros}

	var doc model.NutritionDocument
	err := u.gen.generate(ctx, nutritionSystemPrompt, in, &doc)
	if err == nil && (len(doc.Meals) == 0 || !withinPercent(doc.CaloricTarget, profile.CaloricTarget, 5)) {
		err = fmt.Errorf("%w: meal plan misses the caloric target", domain.ErrInvalidAIReply)
	}
	if err != nil {
		metrics.IncTemplateFallback(fallbackReason(err))
		u.log.Warn().Err(err).Str("user_id", profile.UserID).Msg("nutritional plan falls back to template")
		return tpl
	}
	doc.Goal = profile.Metrics.Goal
	doc.Source = u.gen.ai.Name()
	return doc
}

func withinPercent(got, want, pct int) bool {
	if want == 0 {
		return got == 0
	}
	diff := got - want
	if diff < 0 {
		diff = -diff
	}
	return diff*100 <= want*pct
}
