//go:build !integration

package api_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"fitplan/internal/domain"
	"fitplan/internal/domain/model"
	"fitplan/internal/infra/api"
)

type sessionBody struct {
	ID          string          `json:"id"`
	Phase       model.PollPhase `json:"phase"`
	Active      bool            `json:"active"`
	Toasts      []model.Toast   `json:"toasts"`
	NavigateTo  string          `json:"navigate_to"`
	Replace     bool            `json:"replace"`
	CheckErrors int             `json:"check_errors"`
	Action      *api.Action     `json:"action"`
}

func decodeSession(t *testing.T, rec *httptest.ResponseRecorder) sessionBody {
	t.Helper()
	var b sessionBody
	if err := json.NewDecoder(rec.Body).Decode(&b); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return b
}

func finished(phase model.PollPhase, status string, result model.PollResult) *model.PollSession {
	return &model.PollSession{
		ID:        "01SESSION",
		UserID:    "user-1",
		PaymentID: "123",
		State: model.PollState{
			Phase:       phase,
			Status:      status,
			MaxAttempts: 10,
			Result:      result,
			UpdatedAt:   time.Now(),
		},
	}
}

func TestServer_Public(t *testing.T) {
	ts := newTestServer(t)

	t.Run("should serve health without a token", func(t *testing.T) {
		rec := ts.do(t, http.MethodGet, "/health", "", map[string]string{"Authorization": ""})
		if rec.Code != http.StatusOK || rec.Body.String() != "OK" {
			t.Fatalf("got %d %q", rec.Code, rec.Body.String())
		}
	})

	t.Run("should serve metrics without a token", func(t *testing.T) {
		rec := ts.do(t, http.MethodGet, "/metrics", "", map[string]string{"Authorization": ""})
		if rec.Code != http.StatusOK {
			t.Fatalf("got %d", rec.Code)
		}
	})

	t.Run("should echo the request id", func(t *testing.T) {
		rec := ts.do(t, http.MethodGet, "/health", "", map[string]string{"X-Request-ID": "req-42"})
		if got := rec.Header().Get("X-Request-ID"); got != "req-42" {
			t.Fatalf("X-Request-ID = %q", got)
		}
	})
}

func TestServer_Auth(t *testing.T) {
	ts := newTestServer(t)
	ts.readiness.ReadyFunc = func(ctx context.Context, userID string) (bool, error) {
		if userID != "user-1" {
			t.Errorf("user id = %q", userID)
		}
		return true, nil
	}

	t.Run("should reject a missing token", func(t *testing.T) {
		rec := ts.do(t, http.MethodGet, "/api/v1/plan/readiness", "", map[string]string{"Authorization": ""})
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("want 401, got %d", rec.Code)
		}
	})

	t.Run("should reject a token signed with another secret", func(t *testing.T) {
		other := api.NewAuthManager("another-secret-another-secret-xx", "", "", 0)
		tok, _ := other.Mint("user-1")
		rec := ts.do(t, http.MethodGet, "/api/v1/plan/readiness", "", map[string]string{"Authorization": "Bearer " + tok})
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("want 401, got %d", rec.Code)
		}
	})

	t.Run("should accept the session cookie", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/api/v1/plan/readiness", nil)
		req.AddCookie(&http.Cookie{Name: "access_token", Value: ts.token(t, "user-1")})
		rec := httptest.NewRecorder()
		ts.router.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("want 200, got %d", rec.Code)
		}
	})
}

func TestServer_PaymentSessions(t *testing.T) {
	t.Run("should start a session from the redirect query", func(t *testing.T) {
		ts := newTestServer(t)
		var gotQuery url.Values
		ts.status.StartFunc = func(ctx context.Context, userID string, q url.Values) (*model.PollSession, error) {
			if userID != "user-1" {
				t.Errorf("user id = %q", userID)
			}
			gotQuery = q
			s := finished(model.PhaseConfirming, "approved", model.PollResultPending)
			s.State.Active = true
			return s, nil
		}

		rec := ts.do(t, http.MethodPost, "/api/v1/payment/sessions?collection_status=approved&collection_id=123&external_reference=ref-1", "", nil)
		if rec.Code != http.StatusCreated {
			t.Fatalf("want 201, got %d body=%s", rec.Code, rec.Body.String())
		}
		if loc := rec.Header().Get("Location"); loc != "/api/v1/payment/sessions/01SESSION" {
			t.Errorf("Location = %q", loc)
		}
		if gotQuery.Get("collection_id") != "123" || gotQuery.Get("external_reference") != "ref-1" {
			t.Errorf("query not forwarded: %v", gotQuery)
		}
		b := decodeSession(t, rec)
		if b.Phase != model.PhaseConfirming || !b.Active || b.Action != nil || b.Toasts == nil {
			t.Errorf("unexpected body %+v", b)
		}
	})

	t.Run("should map rate limiting to 429", func(t *testing.T) {
		ts := newTestServer(t)
		ts.status.StartFunc = func(ctx context.Context, userID string, q url.Values) (*model.PollSession, error) {
			return nil, domain.ErrRateLimited
		}
		rec := ts.do(t, http.MethodPost, "/api/v1/payment/sessions", "", nil)
		if rec.Code != http.StatusTooManyRequests {
			t.Fatalf("want 429, got %d", rec.Code)
		}
	})

	t.Run("should hide internal errors", func(t *testing.T) {
		ts := newTestServer(t)
		ts.status.StartFunc = func(ctx context.Context, userID string, q url.Values) (*model.PollSession, error) {
			return nil, errors.New("redis: connection refused")
		}
		rec := ts.do(t, http.MethodPost, "/api/v1/payment/sessions", "", nil)
		if rec.Code != http.StatusInternalServerError || strings.Contains(rec.Body.String(), "redis") {
			t.Fatalf("got %d %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("should render navigation for a found plan", func(t *testing.T) {
		ts := newTestServer(t)
		ts.status.GetFunc = func(ctx context.Context, userID, id string) (*model.PollSession, error) {
			s := finished(model.PhaseDone, "approved", model.PollResultFound)
			s.Toasts = []model.Toast{{Kind: model.ToastSuccess, Message: "ready"}}
			s.Navigation = &model.Navigation{To: model.RoutePlan, Replace: true}
			return s, nil
		}
		rec := ts.do(t, http.MethodGet, "/api/v1/payment/sessions/01SESSION", "", nil)
		b := decodeSession(t, rec)
		if b.NavigateTo != "/plan" || !b.Replace || len(b.Toasts) != 1 {
			t.Errorf("unexpected body %+v", b)
		}
		if b.Action == nil || b.Action.Href != "/plan" {
			t.Errorf("unexpected action %+v", b.Action)
		}
	})

	t.Run("should offer the right action for non-approved payments", func(t *testing.T) {
		cases := []struct {
			status string
			href   string
		}{
			{"pending", "/"},
			{"other", "/plans"},
		}
		for _, tc := range cases {
			ts := newTestServer(t)
			ts.status.GetFunc = func(ctx context.Context, userID, id string) (*model.PollSession, error) {
				return finished(model.PhaseDone, tc.status, model.PollResultPending), nil
			}
			b := decodeSession(t, ts.do(t, http.MethodGet, "/api/v1/payment/sessions/01SESSION", "", nil))
			if b.Action == nil || b.Action.Href != tc.href || b.NavigateTo != "" {
				t.Errorf("%s: unexpected body %+v", tc.status, b)
			}
		}
	})

	t.Run("should return 404 for unknown sessions", func(t *testing.T) {
		ts := newTestServer(t)
		rec := ts.do(t, http.MethodGet, "/api/v1/payment/sessions/nope", "", nil)
		if rec.Code != http.StatusNotFound {
			t.Fatalf("want 404, got %d", rec.Code)
		}
	})

	t.Run("should cancel a session", func(t *testing.T) {
		ts := newTestServer(t)
		var cancelled string
		ts.status.CancelFunc = func(ctx context.Context, userID, id string) error {
			cancelled = id
			return nil
		}
		rec := ts.do(t, http.MethodDelete, "/api/v1/payment/sessions/01SESSION", "", nil)
		if rec.Code != http.StatusNoContent || cancelled != "01SESSION" {
			t.Fatalf("got %d cancelled=%q", rec.Code, cancelled)
		}
	})
}

func TestServer_PlanEndpoints(t *testing.T) {
	t.Run("should report readiness", func(t *testing.T) {
		ts := newTestServer(t)
		ts.readiness.ReadyFunc = func(ctx context.Context, userID string) (bool, error) { return true, nil }
		rec := ts.do(t, http.MethodGet, "/api/v1/plan/readiness", "", nil)
		if rec.Code != http.StatusOK || strings.TrimSpace(rec.Body.String()) != `{"ready":true}` {
			t.Fatalf("got %d %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("should save the caloric target", func(t *testing.T) {
		ts := newTestServer(t)
		ts.nutrition.SaveTargetFunc = func(ctx context.Context, userID string, m model.BodyMetrics, pref model.TrainingPreference) (*model.NutritionProfile, error) {
			if m.WeightKg != 80 || m.Activity != model.ActivityModeratelyActive || pref != model.TrainingHome {
				t.Errorf("unexpected input %+v %s", m, pref)
			}
			target, err := model.CaloricTarget(m)
			if err != nil {
				return nil, err
			}
			return &model.NutritionProfile{UserID: userID, Metrics: m, Preference: pref, CaloricTarget: target}, nil
		}
		body := `{"weight":80,"height":180,"age":30,"gender":"male","activity_level":"moderately_active","goal":"maintain_weight","training_preference":"home"}`
		rec := ts.do(t, http.MethodPost, "/api/v1/nutrition/target", body, nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("got %d %s", rec.Code, rec.Body.String())
		}
		var out struct {
			CaloricTarget int `json:"caloric_target"`
		}
		_ = json.NewDecoder(rec.Body).Decode(&out)
		if out.CaloricTarget != 2759 {
			t.Errorf("caloric target = %d", out.CaloricTarget)
		}
	})

	t.Run("should reject malformed bodies with 400", func(t *testing.T) {
		ts := newTestServer(t)
		rec := ts.do(t, http.MethodPost, "/api/v1/nutrition/target", `{"weight":`, nil)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("want 400, got %d", rec.Code)
		}
	})

	t.Run("should map invalid metrics to 422", func(t *testing.T) {
		ts := newTestServer(t)
		ts.nutrition.SaveTargetFunc = func(ctx context.Context, userID string, m model.BodyMetrics, pref model.TrainingPreference) (*model.NutritionProfile, error) {
			return nil, domain.ErrInvalidArgument
		}
		rec := ts.do(t, http.MethodPost, "/api/v1/nutrition/target", `{"weight":0}`, nil)
		if rec.Code != http.StatusUnprocessableEntity {
			t.Fatalf("want 422, got %d", rec.Code)
		}
	})

	t.Run("should generate a training plan defaulting to gym", func(t *testing.T) {
		ts := newTestServer(t)
		ts.training.GenerateFunc = func(ctx context.Context, userID string, p model.TrainingProfile) (*model.TrainingPlan, error) {
			if p.Preference != model.TrainingGym {
				t.Errorf("preference = %q", p.Preference)
			}
			return model.TemplatePlan(p)
		}
		body := `{"metrics":{"weight":70,"height":170,"age":25,"gender":"female","activity_level":"very_active","goal":"lose_weight"}}`
		rec := ts.do(t, http.MethodPost, "/api/v1/training/plan", body, nil)
		if rec.Code != http.StatusCreated {
			t.Fatalf("got %d %s", rec.Code, rec.Body.String())
		}
		var plan model.TrainingPlan
		_ = json.NewDecoder(rec.Body).Decode(&plan)
		if plan.FrequencyWeek != 4 || len(plan.Days) != 4 {
			t.Errorf("unexpected plan %+v", plan)
		}
	})

	t.Run("should build the template from query parameters", func(t *testing.T) {
		ts := newTestServer(t)
		rec := ts.do(t, http.MethodGet, "/api/v1/training/plan/template?weight=70&height=170&age=25&gender=male&activity_level=extra_active&goal=gain_weight&training_preference=home", "", nil)
		if rec.Code != http.StatusOK {
			t.Fatalf("got %d %s", rec.Code, rec.Body.String())
		}
		var plan model.TrainingPlan
		_ = json.NewDecoder(rec.Body).Decode(&plan)
		if plan.Preference != model.TrainingHome || plan.FrequencyWeek != 4 {
			t.Errorf("unexpected plan %+v", plan)
		}
	})

	t.Run("should reject a template request without weight", func(t *testing.T) {
		ts := newTestServer(t)
		rec := ts.do(t, http.MethodGet, "/api/v1/training/plan/template?height=170&age=25&gender=male&activity_level=sedentary&goal=gain_weight", "", nil)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("want 400, got %d", rec.Code)
		}
	})

	t.Run("should reject a template request with a bad number", func(t *testing.T) {
		ts := newTestServer(t)
		rec := ts.do(t, http.MethodGet, "/api/v1/training/plan/template?weight=heavy&height=170&age=25&gender=male&activity_level=sedentary&goal=gain_weight", "", nil)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("want 400, got %d", rec.Code)
		}
	})
}
