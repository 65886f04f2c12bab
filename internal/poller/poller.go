// Package poller implements the payment confirmation flow that runs once per visit
// to the payment result screen: parse the provider redirect, record the payment,
// and for approved payments poll plan readiness on a fixed cadence.
package poller

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"fitplan/internal/domain"
	"fitplan/internal/domain/model"
	"fitplan/internal/infra/metrics"
)

// Confirmer records the payment server-side. Called exactly once per poller.
type Confirmer interface {
	Confirm(ctx context.Context, externalReference, paymentID, status string) error
}

// ReadinessChecker answers "has the purchased plan been generated yet".
type ReadinessChecker interface {
	Ready(ctx context.Context) (bool, error)
}

// Presenter receives the user-visible side effects. Calls happen while the poller
// holds its lock, so implementations must not call back into the Poller.
type Presenter interface {
	Update(state model.PollState)
	Toast(t model.Toast)
	Navigate(nav model.Navigation)
}

// Translator resolves user-facing message keys.
type Translator interface {
	T(key string, args ...interface{}) string
}

// Message keys used by the flow.
const (
	MsgPlanReady       = "payment.toast.plan_ready"
	MsgTimeoutToast    = "payment.toast.timeout"
	MsgTimeoutError    = "payment.error.timeout"
	MsgProcessingError = "payment.error.processing"
	MsgProcessingToast = "payment.toast.processing_error"
)

type Config struct {
	MaxAttempts int
	RetryDelay  time.Duration
}

func (c Config) withDefaults() Config {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = model.DefaultMaxAttempts
	}
	if c.RetryDelay <= 0 {
		c.RetryDelay = model.DefaultRetryDelay
	}
	return c
}

type Deps struct {
	Confirmer  Confirmer
	Readiness  ReadinessChecker
	Presenter  Presenter
	Translator Translator
	Clock      Clock
	Logger     *zerolog.Logger
}

// Poller owns the state of one result-screen instance. Run may be called once;
// Stop tears it down from any goroutine.
type Poller struct {
	query model.RedirectQuery
	cfg   Config
	deps  Deps
	log   *zerolog.Logger

	mu      sync.Mutex
	state   model.PollState
	started bool
	cancel  context.CancelFunc
	timer   Timer
	done    chan struct{}
}

func New(query model.RedirectQuery, cfg Config, deps Deps) *Poller {
	cfg = cfg.withDefaults()
	if deps.Clock == nil {
		deps.Clock = RealClock{}
	}
	if deps.Presenter == nil {
		deps.Presenter = nopPresenter{}
	}
	if deps.Translator == nil {
		deps.Translator = keyTranslator{}
	}
	logger := deps.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	l := logger.With().Str("component", "Poller").Logger()

	return &Poller{
		query: query,
		cfg:   cfg,
		deps:  deps,
		log:   &l,
		state: model.PollState{
			Phase:       model.PhaseInitializing,
			MaxAttempts: cfg.MaxAttempts,
			Active:      true,
			Result:      model.PollResultPending,
			UpdatedAt:   deps.Clock.Now(),
		},
		done: make(chan struct{}),
	}
}

// State returns a snapshot of the current poll state.
func (p *Poller) State() model.PollState {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

// Done is closed when Run returns.
func (p *Poller) Done() <-chan struct{} { return p.done }

// Stop tears the poller down: no readiness check, state change, toast or
// navigation happens after it returns. It is idempotent.
func (p *Poller) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.teardownLocked()
}

func (p *Poller) teardownLocked() {
	if p.state.Active {
		p.state.Active = false
		if !p.state.Phase.Terminal() {
			p.state.Phase = model.PhaseCancelled
			metrics.IncPollOutcome(string(model.PhaseCancelled))
		}
		p.state.UpdatedAt = p.deps.Clock.Now()
	}
	if p.timer != nil {
		p.timer.Stop()
		p.timer = nil
	}
	if p.cancel != nil {
		p.cancel()
	}
}

// enter locks p.mu and reports whether the poller may still act.
// A cancelled ctx counts as teardown. The caller must unlock.
func (p *Poller) enter(ctx context.Context) bool {
	p.mu.Lock()
	if p.state.Active && ctx.Err() != nil {
		p.teardownLocked()
	}
	return p.state.Active
}

// Run drives the state machine to a terminal phase. It returns nil on success,
// on non-approved payments and on teardown; otherwise one of
// domain.ErrMissingPaymentInfo, domain.ErrConfirmationFailed, domain.ErrPollTimedOut.
func (p *Poller) Run(ctx context.Context) error {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		return domain.ErrAlreadyStarted
	}
	p.started = true
	ctx, cancel := context.WithCancel(ctx)
	p.cancel = cancel
	defer cancel()
	defer close(p.done)
	if !p.state.Active {
		// torn down before it started
		p.mu.Unlock()
		return nil
	}
	p.mu.Unlock()

	params, err := model.ParseRedirectParams(p.query)
	if err != nil {
		p.log.Error().Err(err).Msg("redirect parameters incomplete")
		if p.enter(ctx) {
			p.failLocked(err)
		}
		p.mu.Unlock()
		return err
	}

	if !p.enter(ctx) {
		p.mu.Unlock()
		return nil
	}
	p.state.Status = string(params.Status)
	p.setPhaseLocked(model.PhaseConfirming)
	p.mu.Unlock()

	log := p.log.With().Str("payment_id", params.PaymentID).Str("external_reference", params.ExternalReference).Logger()

	cerr := p.deps.Confirmer.Confirm(ctx, params.ExternalReference, params.PaymentID, params.RawStatus)
	if !p.enter(ctx) {
		p.mu.Unlock()
		log.Debug().Msg("torn down during confirmation")
		return nil
	}
	if cerr != nil {
		log.Error().Err(cerr).Msg("payment confirmation failed")
		metrics.IncConfirmation("error")
		if !errors.Is(cerr, domain.ErrConfirmationFailed) {
			cerr = fmt.Errorf("%w: %v", domain.ErrConfirmationFailed, cerr)
		}
		p.failLocked(cerr)
		p.mu.Unlock()
		return cerr
	}
	metrics.IncConfirmation(string(params.Status))

	if !params.Approved() {
		p.state.Active = false
		p.setPhaseLocked(model.PhaseDone)
		metrics.IncPollOutcome("not_approved")
		p.mu.Unlock()
		log.Info().Str("status", params.RawStatus).Msg("payment not approved; nothing to poll")
		return nil
	}

	p.setPhaseLocked(model.PhasePolling)
	p.mu.Unlock()
	return p.poll(ctx, &log)
}

func (p *Poller) poll(ctx context.Context, log *zerolog.Logger) error {
	for {
		if !p.enter(ctx) {
			p.mu.Unlock()
			return nil
		}
		attempt := p.state.Attempt
		p.mu.Unlock()

		ready, err := p.deps.Readiness.Ready(ctx)

		if !p.enter(ctx) {
			p.mu.Unlock()
			log.Debug().Int("attempt", attempt+1).Msg("torn down during readiness check")
			return nil
		}
		if err != nil {
			p.state.CheckErrors++
			metrics.ObserveReadinessCheck("error")
			log.Warn().Err(fmt.Errorf("%w: %v", domain.ErrReadinessCheckFailed, err)).
				Int("attempt", attempt+1).Msg("readiness check failed; counting as not ready")
			ready = false
		} else if ready {
			metrics.ObserveReadinessCheck("ready")
		} else {
			metrics.ObserveReadinessCheck("not_ready")
		}

		if ready {
			p.state.Active = false
			p.state.Result = model.PollResultFound
			p.setPhaseLocked(model.PhaseDone)
			p.deps.Presenter.Toast(model.Toast{Kind: model.ToastSuccess, Message: p.deps.Translator.T(MsgPlanReady)})
			p.deps.Presenter.Navigate(model.Navigation{To: model.RoutePlan, Replace: true})
			metrics.IncPollOutcome("found")
			p.mu.Unlock()
			log.Info().Int("attempts", attempt+1).Msg("plan ready")
			return nil
		}

		if attempt+1 >= p.cfg.MaxAttempts {
			p.state.Active = false
			p.state.Result = model.PollResultTimedOut
			p.state.Error = p.deps.Translator.T(MsgTimeoutError)
			p.setPhaseLocked(model.PhaseTimedOut)
			p.deps.Presenter.Toast(model.Toast{Kind: model.ToastError, Message: p.deps.Translator.T(MsgTimeoutToast)})
			metrics.IncPollOutcome(string(model.PhaseTimedOut))
			checkErrors := p.state.CheckErrors
			p.mu.Unlock()
			log.Error().Int("attempts", attempt+1).Int("check_errors", checkErrors).Msg("plan not ready within attempt budget")
			return domain.ErrPollTimedOut
		}

		p.state.Attempt++
		p.state.UpdatedAt = p.deps.Clock.Now()
		p.deps.Presenter.Update(p.state)
		timer := p.deps.Clock.NewTimer(p.cfg.RetryDelay)
		p.timer = timer
		p.mu.Unlock()

		select {
		case <-ctx.Done():
			p.Stop()
			return nil
		case <-timer.C():
		}
	}
}

// failLocked moves to the terminal error phase. Caller holds p.mu and has checked Active.
func (p *Poller) failLocked(err error) {
	p.state.Active = false
	p.state.Result = model.PollResultError
	p.state.Error = p.deps.Translator.T(MsgProcessingError)
	p.setPhaseLocked(model.PhaseError)
	p.deps.Presenter.Toast(model.Toast{Kind: model.ToastError, Message: p.deps.Translator.T(MsgProcessingToast)})
	metrics.IncPollOutcome(string(model.PhaseError))
	p.log.Debug().Err(err).Msg("poller failed")
}

func (p *Poller) setPhaseLocked(ph model.PollPhase) {
	p.state.Phase = ph
	p.state.UpdatedAt = p.deps.Clock.Now()
	p.deps.Presenter.Update(p.state)
}

type nopPresenter struct{}

func (nopPresenter) Update(model.PollState)    {}
func (nopPresenter) Toast(model.Toast)         {}
func (nopPresenter) Navigate(model.Navigation) {}

type keyTranslator struct{}

func (keyTranslator) T(key string, _ ...interface{}) string { return key }
