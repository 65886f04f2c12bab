//go:build !integration

package api_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"fitplan/internal/domain"
	"fitplan/internal/domain/model"
	"fitplan/internal/infra/api"
	"fitplan/internal/infra/i18n"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type MockPaymentStatusUC struct {
	StartFunc  func(ctx context.Context, userID string, query url.Values) (*model.PollSession, error)
	GetFunc    func(ctx context.Context, userID, sessionID string) (*model.PollSession, error)
	CancelFunc func(ctx context.Context, userID, sessionID string) error
}

func (m *MockPaymentStatusUC) Start(ctx context.Context, userID string, query url.Values) (*model.PollSession, error) {
	if m.StartFunc != nil {
		return m.StartFunc(ctx, userID, query)
	}
	return nil, domain.ErrOperationFailed
}

func (m *MockPaymentStatusUC) Get(ctx context.Context, userID, sessionID string) (*model.PollSession, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, userID, sessionID)
	}
	return nil, domain.ErrNotFound
}

func (m *MockPaymentStatusUC) Cancel(ctx context.Context, userID, sessionID string) error {
	if m.CancelFunc != nil {
		return m.CancelFunc(ctx, userID, sessionID)
	}
	return nil
}

type MockReadinessUC struct {
	ReadyFunc func(ctx context.Context, userID string) (bool, error)
}

func (m *MockReadinessUC) Ready(ctx context.Context, userID string) (bool, error) {
	if m.ReadyFunc != nil {
		return m.ReadyFunc(ctx, userID)
	}
	return false, nil
}

type MockNutritionUC struct {
	SaveTargetFunc func(ctx context.Context, userID string, metrics model.BodyMetrics, pref model.TrainingPreference) (*model.NutritionProfile, error)
}

func (m *MockNutritionUC) SaveTarget(ctx context.Context, userID string, metrics model.BodyMetrics, pref model.TrainingPreference) (*model.NutritionProfile, error) {
	if m.SaveTargetFunc != nil {
		return m.SaveTargetFunc(ctx, userID, metrics, pref)
	}
	return nil, domain.ErrOperationFailed
}

func (m *MockNutritionUC) Profile(ctx context.Context, userID string) (*model.NutritionProfile, error) {
	return nil, domain.ErrNotFound
}

type MockTrainingUC struct {
	GenerateFunc func(ctx context.Context, userID string, profile model.TrainingProfile) (*model.TrainingPlan, error)
}

func (m *MockTrainingUC) Template(profile model.TrainingProfile) (*model.TrainingPlan, error) {
	return model.TemplatePlan(profile)
}

func (m *MockTrainingUC) Generate(ctx context.Context, userID string, profile model.TrainingProfile) (*model.TrainingPlan, error) {
	if m.GenerateFunc != nil {
		return m.GenerateFunc(ctx, userID, profile)
	}
	return nil, domain.ErrOperationFailed
}

func (m *MockTrainingUC) Latest(ctx context.Context, userID string) (*model.TrainingPlan, error) {
	return nil, domain.ErrNotFound
}

type testServer struct {
	status    *MockPaymentStatusUC
	readiness *MockReadinessUC
	nutrition *MockNutritionUC
	training  *MockTrainingUC
	auth      *api.AuthManager
	router    http.Handler
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	catalog, err := i18n.NewCatalog(i18n.LocalesFS, i18n.DefaultLocale, "pt-BR", "en")
	if err != nil {
		t.Fatalf("catalog: %v", err)
	}
	ts := &testServer{
		status:    &MockPaymentStatusUC{},
		readiness: &MockReadinessUC{},
		nutrition: &MockNutritionUC{},
		training:  &MockTrainingUC{},
		auth:      api.NewAuthManager(testSecret, "", "access_token", 0),
	}
	ts.router = api.NewServer(api.Deps{
		Status:    ts.status,
		Readiness: ts.readiness,
		Nutrition: ts.nutrition,
		Training:  ts.training,
		Auth:      ts.auth,
		Catalog:   catalog,
	}, api.Options{}, newTestLogger()).Routes()
	return ts
}

func (ts *testServer) token(t *testing.T, userID string) string {
	t.Helper()
	tok, err := ts.auth.Mint(userID)
	if err != nil {
		t.Fatalf("mint: %v", err)
	}
	return tok
}

// do sends an authenticated request as user-1 unless hdr overrides Authorization.
func (ts *testServer) do(t *testing.T, method, target, body string, hdr map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	req.Header.Set("Authorization", "Bearer "+ts.token(t, "user-1"))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range hdr {
		if v == "" {
			req.Header.Del(k)
			continue
		}
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	ts.router.ServeHTTP(rec, req)
	return rec
}

func newTestLogger() *zerolog.Logger {
	l := zerolog.New(io.Discard)
	return &l
}
