package usecase

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/oklog/ulid/v2"
	"github.com/rs/zerolog"

	"fitplan/internal/domain"
	"fitplan/internal/domain/model"
	"fitplan/internal/domain/ports/adapter"
	"fitplan/internal/domain/ports/repository"
	"fitplan/internal/infra/logging"
	"fitplan/internal/infra/metrics"
	red "fitplan/internal/infra/redis"
	"fitplan/internal/infra/worker"
	"fitplan/internal/poller"
)

// Compile-time check
var _ PaymentStatusUseCase = (*paymentStatusUC)(nil)

// PaymentStatusUseCase owns the live result-screen sessions of this instance.
type PaymentStatusUseCase interface {
	// Start creates a session for the redirect in query and runs its poller in the background.
	Start(ctx context.Context, userID string, query url.Values) (*model.PollSession, error)
	// Get returns the latest snapshot of a session owned by userID.
	Get(ctx context.Context, userID, sessionID string) (*model.PollSession, error)
	// Cancel tears the session down. Cancelling a finished session is a no-op.
	Cancel(ctx context.Context, userID, sessionID string) error
}

// Locker is a single-owner lease keyed by payment.
type Locker interface {
	TryLock(ctx context.Context, key string, ttl time.Duration) (string, error)
	Unlock(ctx context.Context, key, token string) error
}

type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}

// TaskSubmitter runs long-lived poller tasks; *worker.Pool satisfies it.
type TaskSubmitter interface {
	Submit(task worker.Task) error
}

type PaymentStatusConfig struct {
	Provider     string
	MaxAttempts  int
	RetryDelay   time.Duration
	RegistrySize int
	SessionTTL   time.Duration
	// IdleTimeout tears a polling session down once nobody has read it for this long.
	// Zero keeps sessions running until they settle.
	IdleTimeout time.Duration
	LockTTL     time.Duration
	RateLimit   int
	RateWindow  time.Duration
}

type PaymentStatusDeps struct {
	Payments   PaymentUseCase
	Readiness  ReadinessUseCase
	Store      repository.PollSessionStore
	Locker     Locker
	Limiter    RateLimiter
	Runner     TaskSubmitter
	Notifier   adapter.SupportNotifier
	Translator poller.Translator
	Clock      poller.Clock
}

type paymentStatusUC struct {
	cfg  PaymentStatusConfig
	deps PaymentStatusDeps
	log  *zerolog.Logger

	registry *expirable.LRU[string, *liveSession]
	admitMu  sync.Mutex

	mu        sync.Mutex
	byPayment map[string]string // provider payment id -> session id
}

func NewPaymentStatusUseCase(cfg PaymentStatusConfig, deps PaymentStatusDeps, logger *zerolog.Logger) *paymentStatusUC {
	if cfg.RegistrySize <= 0 {
		cfg.RegistrySize = 1024
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 30 * time.Minute
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 2 * time.Minute
	}
	l := logger.With().Str("component", "PaymentStatusUseCase").Logger()
	uc := &paymentStatusUC{cfg: cfg, deps: deps, log: &l, byPayment: make(map[string]string)}
	uc.registry = expirable.NewLRU[string, *liveSession](cfg.RegistrySize, func(_ string, s *liveSession) {
		metrics.IncSessionRegistryDrop()
		s.poller.Stop()
	}, cfg.SessionTTL)
	return uc
}

func (u *paymentStatusUC) Start(ctx context.Context, userID string, query url.Values) (*model.PollSession, error) {
	if userID == "" {
		return nil, domain.ErrUnauthenticated
	}
	if err := u.allow(ctx, userID); err != nil {
		return nil, err
	}

	paymentID := ""
	var lockKey, lockToken string
	if params, err := model.ParseRedirectParams(query); err == nil {
		paymentID = params.PaymentID
		lockKey = red.PaymentLockKey(u.cfg.Provider, paymentID)
		lockToken, err = u.deps.Locker.TryLock(ctx, lockKey, u.cfg.LockTTL)
		if errors.Is(err, domain.ErrPaymentLocked) {
			if s, ok := u.liveForPayment(userID, paymentID); ok {
				return s, nil
			}
			return nil, err
		}
		if err != nil {
			return nil, err
		}
	}

	now := u.now()
	id := ulid.Make().String()
	lctx := logging.WithSessID(logging.WithUserID(ctx, userID), id)
	if paymentID != "" {
		lctx = logging.WithPaymentID(lctx, paymentID)
	}
	sessLog := logging.With(lctx, u.log)
	live := &liveSession{
		session:  model.PollSession{ID: id, UserID: userID, PaymentID: paymentID, CreatedAt: now},
		dirty:    make(chan struct{}, 1),
		lockKey:  lockKey,
		token:    lockToken,
		lastSeen: now,
	}
	live.poller = poller.New(query, poller.Config{MaxAttempts: u.cfg.MaxAttempts, RetryDelay: u.cfg.RetryDelay}, poller.Deps{
		Confirmer:  userConfirmer{uc: u.deps.Payments, userID: userID},
		Readiness:  userReadiness{uc: u.deps.Readiness, userID: userID},
		Presenter:  live,
		Translator: u.deps.Translator,
		Clock:      u.deps.Clock,
		Logger:     sessLog,
	})
	live.session.State = live.poller.State()

	u.admitMu.Lock()
	if !u.makeRoom() {
		u.admitMu.Unlock()
		sessLog.Warn().Int("registry_size", u.cfg.RegistrySize).Msg("every registered session is still polling")
		u.release(live)
		return nil, worker.ErrQueueFull
	}
	u.registry.Add(id, live)
	u.admitMu.Unlock()
	if paymentID != "" {
		u.mu.Lock()
		u.byPayment[paymentID] = id
		u.mu.Unlock()
	}
	u.persist(live)

	metrics.SessionStarted()
	if err := u.deps.Runner.Submit(u.runTask(live, sessLog)); err != nil {
		sessLog.Error().Err(err).Msg("could not schedule poller")
		metrics.SessionFinished()
		live.poller.Stop()
		u.release(live)
		u.registry.Remove(id)
		return nil, err
	}
	snap := live.snapshot()
	return &snap, nil
}

func (u *paymentStatusUC) runTask(live *liveSession, log *zerolog.Logger) worker.Task {
	return func(ctx context.Context) error {
		defer metrics.SessionFinished()
		runErr := make(chan error, 1)
		go func() { runErr <- live.poller.Run(ctx) }()

		var idle <-chan time.Time
		var idleTimer poller.Timer
		arm := func(d time.Duration) {
			idleTimer = u.clock().NewTimer(d)
			idle = idleTimer.C()
		}
		if u.cfg.IdleTimeout > 0 {
			arm(u.cfg.IdleTimeout)
		}
		defer func() {
			if idleTimer != nil {
				idleTimer.Stop()
			}
		}()

		for {
			select {
			case <-live.dirty:
				u.persist(live)
			case <-idle:
				unseen := u.clock().Now().Sub(live.seen())
				if unseen < u.cfg.IdleTimeout {
					arm(u.cfg.IdleTimeout - unseen)
					continue
				}
				idle = nil
				log.Info().Dur("unseen", unseen).Msg("result page left; tearing down")
				live.poller.Stop()
			case err := <-runErr:
				live.sync()
				u.persist(live)
				u.release(live)
				u.alert(live, err, log)
				if errors.Is(err, domain.ErrPollTimedOut) || errors.Is(err, domain.ErrConfirmationFailed) {
					// terminal outcomes already surfaced to the user
					return nil
				}
				return err
			}
		}
	}
}

func (u *paymentStatusUC) Get(ctx context.Context, userID, sessionID string) (*model.PollSession, error) {
	if userID == "" {
		return nil, domain.ErrUnauthenticated
	}
	live, ok := u.registry.Get(sessionID)
	metrics.ObserveSessionLookup("registry", ok)
	if ok {
		snap := live.snapshot()
		if snap.UserID != userID {
			return nil, domain.ErrNotFound
		}
		live.touch(u.now())
		return &snap, nil
	}
	s, err := u.deps.Store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if s.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return s, nil
}

func (u *paymentStatusUC) Cancel(ctx context.Context, userID, sessionID string) error {
	if userID == "" {
		return domain.ErrUnauthenticated
	}
	if live, ok := u.registry.Get(sessionID); ok {
		if live.snapshot().UserID != userID {
			return domain.ErrNotFound
		}
		live.poller.Stop()
		live.sync()
		return nil
	}
	s, err := u.deps.Store.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if s.UserID != userID {
		return domain.ErrNotFound
	}
	if s.State.Active {
		u.log.Debug().Str("session_id", sessionID).Msg("cancel for a session owned by another instance")
	}
	return nil
}

func (u *paymentStatusUC) allow(ctx context.Context, userID string) error {
	if u.deps.Limiter == nil || u.cfg.RateLimit <= 0 {
		return nil
	}
	ok, err := u.deps.Limiter.Allow(ctx, red.UserActionKey(userID, "payment_status"), u.cfg.RateLimit, u.cfg.RateWindow)
	if err != nil {
		u.log.Warn().Err(err).Str("user_id", userID).Msg("rate limiter unavailable; allowing")
		return nil
	}
	if !ok {
		return domain.ErrRateLimited
	}
	return nil
}

func (u *paymentStatusUC) liveForPayment(userID, paymentID string) (*model.PollSession, bool) {
	u.mu.Lock()
	id, ok := u.byPayment[paymentID]
	u.mu.Unlock()
	if !ok {
		return nil, false
	}
	live, ok := u.registry.Get(id)
	if !ok {
		return nil, false
	}
	snap := live.snapshot()
	if snap.UserID != userID {
		return nil, false
	}
	live.touch(u.now())
	return &snap, true
}

// makeRoom drops the oldest settled session when the registry is full. It reports
// false when every registered session is still polling. Caller holds admitMu.
func (u *paymentStatusUC) makeRoom() bool {
	if u.registry.Len() < u.cfg.RegistrySize {
		return true
	}
	for _, id := range u.registry.Keys() {
		if live, ok := u.registry.Peek(id); ok && !live.poller.State().Active {
			u.registry.Remove(id)
			return true
		}
	}
	return false
}

func (u *paymentStatusUC) clock() poller.Clock {
	if u.deps.Clock == nil {
		return poller.RealClock{}
	}
	return u.deps.Clock
}

func (u *paymentStatusUC) now() time.Time { return u.clock().Now() }

func (u *paymentStatusUC) persist(live *liveSession) {
	snap := live.snapshot()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := u.deps.Store.Put(ctx, &snap); err != nil {
		u.log.Warn().Err(err).Str("session_id", snap.ID).Msg("mirror poll session")
	}
}

// release frees the payment lock and index entry once the poller has stopped.
func (u *paymentStatusUC) release(live *liveSession) {
	if live.session.PaymentID != "" {
		u.mu.Lock()
		if u.byPayment[live.session.PaymentID] == live.session.ID {
			delete(u.byPayment, live.session.PaymentID)
		}
		u.mu.Unlock()
	}
	if live.lockKey == "" {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := u.deps.Locker.Unlock(ctx, live.lockKey, live.token); err != nil {
		u.log.Warn().Err(err).Str("lock", live.lockKey).Msg("release payment lock")
	}
}

func (u *paymentStatusUC) alert(live *liveSession, runErr error, log *zerolog.Logger) {
	snap := live.snapshot()
	if snap.State.Phase != model.PhaseTimedOut && snap.State.Phase != model.PhaseError {
		return
	}
	if u.deps.Notifier == nil {
		return
	}
	reason := string(snap.State.Phase)
	if runErr != nil {
		reason = runErr.Error()
	}
	alert := adapter.SupportAlert{
		SessionID: snap.ID,
		UserID:    snap.UserID,
		PaymentID: snap.PaymentID,
		Phase:     string(snap.State.Phase),
		Reason:    reason,
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := u.deps.Notifier.NotifySupport(ctx, alert); err != nil {
		log.Warn().Err(err).Msg("support alert not delivered")
	}
}

// liveSession mirrors poller side effects into the session snapshot.
type liveSession struct {
	poller  *poller.Poller
	lockKey string
	token   string
	dirty   chan struct{}

	mu       sync.Mutex
	session  model.PollSession
	lastSeen time.Time
}

var _ poller.Presenter = (*liveSession)(nil)

func (s *liveSession) Update(state model.PollState) {
	s.mu.Lock()
	s.session.State = state
	s.mu.Unlock()
	s.markDirty()
}

func (s *liveSession) Toast(t model.Toast) {
	s.mu.Lock()
	s.session.Toasts = append(s.session.Toasts, t)
	s.mu.Unlock()
	s.markDirty()
}

func (s *liveSession) Navigate(nav model.Navigation) {
	s.mu.Lock()
	s.session.Navigation = &nav
	s.mu.Unlock()
	s.markDirty()
}

// sync copies the poller state, which teardown changes without notifying the presenter.
func (s *liveSession) sync() {
	st := s.poller.State()
	s.mu.Lock()
	s.session.State = st
	s.mu.Unlock()
}

// touch records that the session was just viewed.
func (s *liveSession) touch(at time.Time) {
	s.mu.Lock()
	if at.After(s.lastSeen) {
		s.lastSeen = at
	}
	s.mu.Unlock()
}

func (s *liveSession) seen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

func (s *liveSession) markDirty() {
	select {
	case s.dirty <- struct{}{}:
	default:
	}
}

func (s *liveSession) snapshot() model.PollSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := s.session
	out.Toasts = append([]model.Toast(nil), s.session.Toasts...)
	if s.session.Navigation != nil {
		nav := *s.session.Navigation
		out.Navigation = &nav
	}
	return out
}

// userConfirmer binds the poller's Confirmer to the authenticated user.
type userConfirmer struct {
	uc     PaymentUseCase
	userID string
}

func (c userConfirmer) Confirm(ctx context.Context, externalReference, paymentID, status string) error {
	_, err := c.uc.Confirm(ctx, c.userID, externalReference, paymentID, status)
	return err
}

type userReadiness struct {
	uc     ReadinessUseCase
	userID string
}

func (r userReadiness) Ready(ctx context.Context) (bool, error) {
	return r.uc.Ready(ctx, r.userID)
}
