//go:build !integration

package usecase_test

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v4"
	"github.com/rs/zerolog"

	"fitplan/internal/domain"
	"fitplan/internal/domain/model"
	"fitplan/internal/domain/ports/adapter"
	"fitplan/internal/domain/ports/repository"
	"fitplan/internal/infra/worker"
	"fitplan/internal/poller"
)

// =============================
// Repositories
// =============================

type MockPaymentRepo struct {
	UpsertFunc                  func(ctx context.Context, tx repository.Tx, p *model.Payment) (*model.Payment, error)
	FindByProviderIDFunc        func(ctx context.Context, tx repository.Tx, provider, id string) (*model.Payment, error)
	ListApprovedWithoutPlanFunc func(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.Payment, error)
}

var _ repository.PaymentRepository = (*MockPaymentRepo)(nil)

func (m *MockPaymentRepo) Upsert(ctx context.Context, tx repository.Tx, p *model.Payment) (*model.Payment, error) {
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, tx, p)
	}
	cp := *p
	return &cp, nil
}

func (m *MockPaymentRepo) FindByProviderID(ctx context.Context, tx repository.Tx, provider, id string) (*model.Payment, error) {
	if m.FindByProviderIDFunc != nil {
		return m.FindByProviderIDFunc(ctx, tx, provider, id)
	}
	return nil, domain.ErrNotFound
}

func (m *MockPaymentRepo) ListApprovedWithoutPlan(ctx context.Context, tx repository.Tx, olderThan time.Time, limit int) ([]*model.Payment, error) {
	if m.ListApprovedWithoutPlanFunc != nil {
		return m.ListApprovedWithoutPlanFunc(ctx, tx, olderThan, limit)
	}
	return nil, nil
}

type MockProfileRepo struct {
	SaveFunc        func(ctx context.Context, tx repository.Tx, p *model.Profile) error
	FindByIDFunc    func(ctx context.Context, tx repository.Tx, id string) (*model.Profile, error)
	HasPaidPlanFunc func(ctx context.Context, tx repository.Tx, id string) (bool, error)
	MarkPaidFunc    func(ctx context.Context, tx repository.Tx, id string, at time.Time) error

	mu     sync.Mutex
	Marked []string
}

var _ repository.ProfileRepository = (*MockProfileRepo)(nil)

func (m *MockProfileRepo) Save(ctx context.Context, tx repository.Tx, p *model.Profile) error {
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, p)
	}
	return nil
}

func (m *MockProfileRepo) FindByID(ctx context.Context, tx repository.Tx, id string) (*model.Profile, error) {
	if m.FindByIDFunc != nil {
		return m.FindByIDFunc(ctx, tx, id)
	}
	return nil, domain.ErrNotFound
}

func (m *MockProfileRepo) HasPaidPlan(ctx context.Context, tx repository.Tx, id string) (bool, error) {
	if m.HasPaidPlanFunc != nil {
		return m.HasPaidPlanFunc(ctx, tx, id)
	}
	return false, nil
}

func (m *MockProfileRepo) MarkPaid(ctx context.Context, tx repository.Tx, id string, at time.Time) error {
	m.mu.Lock()
	m.Marked = append(m.Marked, id)
	m.mu.Unlock()
	if m.MarkPaidFunc != nil {
		return m.MarkPaidFunc(ctx, tx, id, at)
	}
	return nil
}

type MockPlanJobRepo struct {
	SaveFunc                   func(ctx context.Context, tx repository.Tx, job *model.PlanJob) error
	FetchAndMarkProcessingFunc func(ctx context.Context) (*model.PlanJob, error)
	ExistsForPaymentFunc       func(ctx context.Context, tx repository.Tx, paymentID string) (bool, error)
	ResetStaleFunc             func(ctx context.Context, olderThan time.Time) (int64, error)

	mu    sync.Mutex
	Saved []model.PlanJob
}

var _ repository.PlanJobRepository = (*MockPlanJobRepo)(nil)

func (m *MockPlanJobRepo) Save(ctx context.Context, tx repository.Tx, job *model.PlanJob) error {
	m.mu.Lock()
	m.Saved = append(m.Saved, *job)
	m.mu.Unlock()
	if m.SaveFunc != nil {
		return m.SaveFunc(ctx, tx, job)
	}
	return nil
}

func (m *MockPlanJobRepo) FetchAndMarkProcessing(ctx context.Context) (*model.PlanJob, error) {
	if m.FetchAndMarkProcessingFunc != nil {
		return m.FetchAndMarkProcessingFunc(ctx)
	}
	return nil, domain.ErrNotFound
}

func (m *MockPlanJobRepo) ExistsForPayment(ctx context.Context, tx repository.Tx, paymentID string) (bool, error) {
	if m.ExistsForPaymentFunc != nil {
		return m.ExistsForPaymentFunc(ctx, tx, paymentID)
	}
	return false, nil
}

func (m *MockPlanJobRepo) ResetStale(ctx context.Context, olderThan time.Time) (int64, error) {
	if m.ResetStaleFunc != nil {
		return m.ResetStaleFunc(ctx, olderThan)
	}
	return 0, nil
}

type MockNutritionalPlanRepo struct {
	SaveFunc   func(ctx context.Context, tx repository.Tx, p *model.NutritionalPlan) error
	LatestFunc func(ctx context.Context, tx repository.Tx, userID string) (*model.NutritionalPlan, error)

	mu    sync.Mutex
	Saved []model.NutritionalPlan
}

var _ repository.NutritionalPlanRepository = (*MockNutritionalPlanRepo)(nil)

func (m *MockNutritionalPlanRepo) Save(ctx context.Context, tx repository.Tx, p *model.NutritionalPlan) error {
	if m.SaveFunc != nil {
		if err := m.SaveFunc(ctx, tx, p); err != nil {
			return err
		}
	}
	m.mu.Lock()
	m.Saved = append(m.Saved, *p)
	m.mu.Unlock()
	return nil
}

func (m *MockNutritionalPlanRepo) Latest(ctx context.Context, tx repository.Tx, userID string) (*model.NutritionalPlan, error) {
	if m.LatestFunc != nil {
		return m.LatestFunc(ctx, tx, userID)
	}
	return nil, domain.ErrNotFound
}

type MockNutritionProfileRepo struct {
	UpsertFunc       func(ctx context.Context, tx repository.Tx, n *model.NutritionProfile) error
	FindByUserIDFunc func(ctx context.Context, tx repository.Tx, userID string) (*model.NutritionProfile, error)

	Upserted []model.NutritionProfile
}

var _ repository.NutritionProfileRepository = (*MockNutritionProfileRepo)(nil)

func (m *MockNutritionProfileRepo) Upsert(ctx context.Context, tx repository.Tx, n *model.NutritionProfile) error {
	m.Upserted = append(m.Upserted, *n)
	if m.UpsertFunc != nil {
		return m.UpsertFunc(ctx, tx, n)
	}
	return nil
}

func (m *MockNutritionProfileRepo) FindByUserID(ctx context.Context, tx repository.Tx, userID string) (*model.NutritionProfile, error) {
	if m.FindByUserIDFunc != nil {
		return m.FindByUserIDFunc(ctx, tx, userID)
	}
	return nil, domain.ErrNotFound
}

type MockTrainingPlanRepo struct {
	SaveFunc   func(ctx context.Context, tx repository.Tx, p *model.TrainingPlan) error
	LatestFunc func(ctx context.Context, tx repository.Tx, userID string) (*model.TrainingPlan, error)

	Saved []model.TrainingPlan
}

var _ repository.TrainingPlanRepository = (*MockTrainingPlanRepo)(nil)

func (m *MockTrainingPlanRepo) Save(ctx context.Context, tx repository.Tx, p *model.TrainingPlan) error {
	if m.SaveFunc != nil {
		if err := m.SaveFunc(ctx, tx, p); err != nil {
			return err
		}
	}
	m.Saved = append(m.Saved, *p)
	return nil
}

func (m *MockTrainingPlanRepo) Latest(ctx context.Context, tx repository.Tx, userID string) (*model.TrainingPlan, error) {
	if m.LatestFunc != nil {
		return m.LatestFunc(ctx, tx, userID)
	}
	return nil, domain.ErrNotFound
}

// MockStore is an in-memory PollSessionStore.
type MockStore struct {
	mu       sync.Mutex
	sessions map[string]model.PollSession
	PutErr   error
}

var _ repository.PollSessionStore = (*MockStore)(nil)

func NewMockStore() *MockStore { return &MockStore{sessions: map[string]model.PollSession{}} }

func (m *MockStore) Put(ctx context.Context, s *model.PollSession) error {
	if m.PutErr != nil {
		return m.PutErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[s.ID] = *s
	return nil
}

func (m *MockStore) Get(ctx context.Context, id string) (*model.PollSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &s, nil
}

func (m *MockStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
	return nil
}

// ---- Mock TxManager ----

type MockTxManager struct {
	WithTxFunc func(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error
}

var _ repository.TransactionManager = (*MockTxManager)(nil)

// WithTx runs fn immediately with NoTX unless WithTxFunc is set.
func (m *MockTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if m.WithTxFunc != nil {
		return m.WithTxFunc(ctx, txOpt, fn)
	}
	return fn(ctx, repository.NoTX)
}

// =============================
// Adapters
// =============================

type MockGateway struct {
	LookupFunc func(ctx context.Context, paymentID string) (adapter.ProviderPayment, bool, error)
}

var _ adapter.PaymentGateway = (*MockGateway)(nil)

func (m *MockGateway) Name() string { return "mercadopago" }

func (m *MockGateway) Lookup(ctx context.Context, paymentID string) (adapter.ProviderPayment, bool, error) {
	if m.LookupFunc != nil {
		return m.LookupFunc(ctx, paymentID)
	}
	return adapter.ProviderPayment{}, false, nil
}

type MockAI struct {
	CountTokensFunc  func(ctx context.Context, model string, msgs []adapter.Message) (int, error)
	GenerateJSONFunc func(ctx context.Context, model string, msgs []adapter.Message) (string, adapter.Usage, error)

	mu    sync.Mutex
	Calls int
}

var _ adapter.AIServiceAdapter = (*MockAI)(nil)

func (m *MockAI) Name() string         { return "mock-ai" }
func (m *MockAI) DefaultModel() string { return "mock-model" }

func (m *MockAI) CountTokens(ctx context.Context, model string, msgs []adapter.Message) (int, error) {
	if m.CountTokensFunc != nil {
		return m.CountTokensFunc(ctx, model, msgs)
	}
	return 10, nil
}

func (m *MockAI) GenerateJSON(ctx context.Context, model string, msgs []adapter.Message) (string, adapter.Usage, error) {
	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()
	if m.GenerateJSONFunc != nil {
		return m.GenerateJSONFunc(ctx, model, msgs)
	}
	return "", adapter.Usage{}, domain.ErrAIUnavailable
}

type MockNotifier struct {
	mu     sync.Mutex
	Alerts []adapter.SupportAlert
	Err    error
}

var _ adapter.SupportNotifier = (*MockNotifier)(nil)

func (m *MockNotifier) NotifySupport(ctx context.Context, a adapter.SupportAlert) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Alerts = append(m.Alerts, a)
	return m.Err
}

func (m *MockNotifier) Count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Alerts)
}

// =============================
// Session infrastructure
// =============================

// MockLocker is an in-memory lease table.
type MockLocker struct {
	mu    sync.Mutex
	held  map[string]string
	Tries int
}

func NewMockLocker() *MockLocker { return &MockLocker{held: map[string]string{}} }

func (l *MockLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Tries++
	if _, ok := l.held[key]; ok {
		return "", domain.ErrPaymentLocked
	}
	tok := uuid.NewString()
	l.held[key] = tok
	return tok, nil
}

func (l *MockLocker) Unlock(ctx context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] == token {
		delete(l.held, key)
	}
	return nil
}

func (l *MockLocker) Held() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.held)
}

type MockLimiter struct {
	AllowFunc func(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

func (m *MockLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if m.AllowFunc != nil {
		return m.AllowFunc(ctx, key, limit, window)
	}
	return true, nil
}

// goRunner runs every task on its own goroutine.
type goRunner struct{ err error }

func (r goRunner) Submit(task worker.Task) error {
	if r.err != nil {
		return r.err
	}
	go func() { _ = task(context.Background()) }()
	return nil
}

type MockPaymentUC struct {
	ConfirmFunc func(ctx context.Context, userID, ext, pid, status string) (*model.Payment, error)
}

func (m *MockPaymentUC) Confirm(ctx context.Context, userID, ext, pid, status string) (*model.Payment, error) {
	if m.ConfirmFunc != nil {
		return m.ConfirmFunc(ctx, userID, ext, pid, status)
	}
	return &model.Payment{UserID: userID, ProviderPaymentID: pid, Status: model.ParsePaymentStatus(status)}, nil
}

type MockReadinessUC struct {
	ReadyFunc func(ctx context.Context, userID string) (bool, error)

	mu    sync.Mutex
	Calls int
}

func (m *MockReadinessUC) Ready(ctx context.Context, userID string) (bool, error) {
	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()
	if m.ReadyFunc != nil {
		return m.ReadyFunc(ctx, userID)
	}
	return false, nil
}

func (m *MockReadinessUC) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Calls
}

// newTestLogger creates a silent zerolog.Logger for use in tests.
func newTestLogger() *zerolog.Logger {
	logger := zerolog.New(io.Discard)
	return &logger
}

// =============================
// Clock
// =============================

// manualClock fires timers only when the test advances it.
type manualClock struct {
	mu      sync.Mutex
	now     time.Time
	timers  []*manualTimer
	created chan struct{}
}

func newManualClock() *manualClock {
	return &manualClock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC), created: make(chan struct{}, 64)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *manualClock) NewTimer(d time.Duration) poller.Timer {
	c.mu.Lock()
	t := &manualTimer{ch: make(chan time.Time, 1), deadline: c.now.Add(d)}
	c.timers = append(c.timers, t)
	c.mu.Unlock()
	c.created <- struct{}{}
	return t
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	for _, t := range c.timers {
		t.fireIfDue(c.now)
	}
}

// waitTimers blocks until n more timers have been created.
func (c *manualClock) waitTimers(t *testing.T, n int) {
	t.Helper()
	for i := 0; i < n; i++ {
		select {
		case <-c.created:
		case <-time.After(2 * time.Second):
			t.Fatalf("timer %d of %d never created", i+1, n)
		}
	}
}

type manualTimer struct {
	mu       sync.Mutex
	ch       chan time.Time
	deadline time.Time
	done     bool
}

func (t *manualTimer) C() <-chan time.Time { return t.ch }

func (t *manualTimer) Stop() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	wasActive := !t.done
	t.done = true
	return wasActive
}

func (t *manualTimer) fireIfDue(now time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.done || now.Before(t.deadline) {
		return
	}
	t.done = true
	t.ch <- now
}
