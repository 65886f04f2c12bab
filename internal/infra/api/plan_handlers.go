package api

import (
	"net/http"
	"time"

	"github.com/oapi-codegen/runtime"

	"fitplan/internal/domain/model"
	"fitplan/internal/infra/logging"
)

type readinessResponse struct {
	Ready bool `json:"ready"`
}

func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	ready, err := s.readiness.Ready(r.Context(), UserID(r.Context()))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, readinessResponse{Ready: ready})
}

type nutritionTargetRequest struct {
	model.BodyMetrics
	Preference model.TrainingPreference `json:"training_preference"`
}

type nutritionTargetResponse struct {
	CaloricTarget int                      `json:"caloric_target"`
	Preference    model.TrainingPreference `json:"training_preference"`
	UpdatedAt     time.Time                `json:"updated_at"`
}

func (s *Server) handleNutritionTarget(w http.ResponseWriter, r *http.Request) {
	var req nutritionTargetRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}
	p, err := s.nutrition.SaveTarget(r.Context(), UserID(r.Context()), req.BodyMetrics, req.Preference)
	if err != nil {
		l := logging.With(r.Context(), s.log)
		l.Debug().Err(err).Msg("save caloric target")
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, nutritionTargetResponse{
		CaloricTarget: p.CaloricTarget,
		Preference:    p.Preference,
		UpdatedAt:     p.UpdatedAt,
	})
}

func (s *Server) handleTrainingPlan(w http.ResponseWriter, r *http.Request) {
	var profile model.TrainingProfile
	if err := decodeJSON(r, &profile); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "invalid request body"})
		return
	}
	if profile.Preference == "" {
		profile.Preference = model.TrainingGym
	}
	plan, err := s.training.Generate(r.Context(), UserID(r.Context()), profile)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, plan)
}

// GET /api/v1/training/plan/template?weight=&height=&age=&gender=&activity_level=&goal=[&training_preference=]
func (s *Server) handleTrainingTemplate(w http.ResponseWriter, r *http.Request) {
	profile, err := bindTrainingProfile(r)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
		return
	}
	plan, err := s.training.Template(profile)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, plan)
}

func bindTrainingProfile(r *http.Request) (model.TrainingProfile, error) {
	q := r.URL.Query()
	var (
		weight, height         float64
		age                    int
		gender, activity, goal string
		pref                   *string // optional params bind through a pointer
	)
	required := []struct {
		name string
		dst  any
	}{
		{"weight", &weight},
		{"height", &height},
		{"age", &age},
		{"gender", &gender},
		{"activity_level", &activity},
		{"goal", &goal},
	}
	for _, p := range required {
		if err := runtime.BindQueryParameter("form", true, true, p.name, q, p.dst); err != nil {
			return model.TrainingProfile{}, err
		}
	}
	if err := runtime.BindQueryParameter("form", true, false, "training_preference", q, &pref); err != nil {
		return model.TrainingProfile{}, err
	}
	preference := model.TrainingGym
	if pref != nil && *pref != "" {
		preference = model.TrainingPreference(*pref)
	}
	return model.TrainingProfile{
		Metrics: model.BodyMetrics{
			WeightKg: weight,
			HeightCm: height,
			Age:      age,
			Gender:   model.Gender(gender),
			Activity: model.ActivityLevel(activity),
			Goal:     model.Goal(goal),
		},
		Preference: preference,
	}, nil
}
