package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"fitplan/internal/domain"
	"fitplan/internal/domain/model"
	"fitplan/internal/domain/ports/adapter"
	"fitplan/internal/domain/ports/repository"
	"fitplan/internal/infra/metrics"
)

// Compile-time check
var _ TrainingUseCase = (*trainingUC)(nil)

type TrainingUseCase interface {
	// Template returns the deterministic plan for profile without persisting it.
	Template(profile model.TrainingProfile) (*model.TrainingPlan, error)
	// Generate asks the AI generator for a plan, falls back to the template, and stores the result.
	Generate(ctx context.Context, userID string, profile model.TrainingProfile) (*model.TrainingPlan, error)
	Latest(ctx context.Context, userID string) (*model.TrainingPlan, error)
}

const trainingSystemPrompt = `You are a certified strength coach. Build a weekly workout plan for the user described in the JSON input.
Respect training_preference: "home" means bodyweight or household equipment only.
Use exactly days_per_week workout days and keep the given intensity (sets, reps, rest).
Avoid exercises that conflict with the listed restrictions.
Reply with a JSON object only: {"workout_days":[{"day":"Day 1 - ...","warmup":[{"name":"","duration":""}],"exercises":[{"name":"","sets":"","reps":"","rest":"","notes":[]}],"cooldown":[{"name":"","duration":""}]}]}`

type trainingUC struct {
	plans repository.TrainingPlanRepository
	gen   *jsonGenerator
	log   *zerolog.Logger
}

func NewTrainingUseCase(plans repository.TrainingPlanRepository, ai adapter.AIServiceAdapter, cfg GeneratorConfig, logger *zerolog.Logger) *trainingUC {
	return &trainingUC{
		plans: plans,
		gen:   &jsonGenerator{ai: ai, cfg: cfg, log: logger},
		log:   logger,
	}
}

func (u *trainingUC) Template(profile model.TrainingProfile) (*model.TrainingPlan, error) {
	return model.TemplatePlan(profile)
}

func (u *trainingUC) Generate(ctx context.Context, userID string, profile model.TrainingProfile) (*model.TrainingPlan, error) {
	if userID == "" {
		return nil, domain.ErrUnauthenticated
	}
	plan, err := u.build(ctx, profile)
	if err != nil {
		return nil, err
	}
	plan.ID = uuid.NewString()
	plan.UserID = userID
	if err := u.plans.Save(ctx, repository.NoTX, plan); err != nil {
		return nil, err
	}
	return plan, nil
}

func (u *trainingUC) Latest(ctx context.Context, userID string) (*model.TrainingPlan, error) {
	if userID == "" {
		return nil, domain.ErrUnauthenticated
	}
	return u.plans.Latest(ctx, repository.NoTX, userID)
}

type trainingPrompt struct {
	Metrics      model.BodyMetrics        `json:"metrics"`
	Preference   model.TrainingPreference `json:"training_preference"`
	Restrictions []string                 `json:"restrictions,omitempty"`
	DaysPerWeek  int                      `json:"days_per_week"`
	Intensity    model.Intensity          `json:"intensity"`
}

type trainingReply struct {
	Days []model.WorkoutDay `json:"workout_days"`
}

// build returns an AI plan when one is available and valid, else the template plan.
func (u *trainingUC) build(ctx context.Context, profile model.TrainingProfile) (*model.TrainingPlan, error) {
	tpl, err := model.TemplatePlan(profile)
	if err != nil {
		return nil, err
	}

	var reply trainingReply
	in := trainingPrompt{
		Metrics:      profile.Metrics,
		Preference:   profile.Preference,
		Restrictions: profile.Restrictions,
		DaysPerWeek:  tpl.FrequencyWeek,
		Intensity:    tpl.Intensity,
	}
	err = u.gen.generate(ctx, trainingSystemPrompt, in, &reply)
	if err == nil {
		err = validateWorkoutDays(reply.Days, tpl.FrequencyWeek)
	}
	if err != nil {
		metrics.IncTemplateFallback(fallbackReason(err))
		u.log.Warn().Err(err).Str("preference", string(profile.Preference)).Msg("training plan falls back to template")
		return tpl, nil
	}

	for i := range reply.Days {
		d := &reply.Days[i]
		if len(d.Warmup) == 0 {
			d.Warmup = tpl.Days[0].Warmup
		}
		if len(d.Cooldown) == 0 {
			d.Cooldown = tpl.Days[0].Cooldown
		}
	}
	return &model.TrainingPlan{
		ActivityLevel: profile.Metrics.Activity,
		Preference:    profile.Preference,
		FrequencyWeek: len(reply.Days),
		Intensity:     tpl.Intensity,
		Days:          reply.Days,
		Source:        u.gen.ai.Name(),
		CreatedAt:     time.Now(),
	}, nil
}

func validateWorkoutDays(days []model.WorkoutDay, want int) error {
	if len(days) != want {
		return fmt.Errorf("%w: expected %d workout days, got %d", domain.ErrInvalidAIReply, want, len(days))
	}
	for i, d := range days {
		if strings.TrimSpace(d.Day) == "" || len(d.Exercises) == 0 {
			return fmt.Errorf("%w: workout day %d incomplete", domain.ErrInvalidAIReply, i+1)
		}
		for _, e := range d.Exercises {
			if strings.TrimSpace(e.Name) == "" {
				return fmt.Errorf("%w: unnamed exercise on day %d", domain.ErrInvalidAIReply, i+1)
			}
		}
	}
	return nil
}
