package model

import "time"

// Polling defaults: 10 readiness checks, 3s apart.
const (
	DefaultMaxAttempts = 10
	DefaultRetryDelay  = 3000 * time.Millisecond
)

// PollPhase is the step of the confirmation state machine.
type PollPhase string

const (
	PhaseInitializing PollPhase = "initializing"
	PhaseConfirming   PollPhase = "confirming"
	PhasePolling      PollPhase = "polling"
	PhaseDone         PollPhase = "done"
	PhaseTimedOut     PollPhase = "timed_out"
	PhaseError        PollPhase = "error"
	PhaseCancelled    PollPhase = "cancelled"
)

// Terminal reports whether no further transition can happen from p.
func (p PollPhase) Terminal() bool {
	switch p {
	case PhaseDone, PhaseTimedOut, PhaseError, PhaseCancelled:
		return true
	}
	return false
}

// PollResult is the outcome of the readiness polling.
type PollResult string

const (
	PollResultPending  PollResult = "pending"
	PollResultFound    PollResult = "found"
	PollResultTimedOut PollResult = "timed_out"
	PollResultError    PollResult = "error"
)

// ToastKind is the flavour of a transient user notification.
type ToastKind string

const (
	ToastSuccess ToastKind = "success"
	ToastError   ToastKind = "error"
)

type Toast struct {
	Kind    ToastKind `json:"kind"`
	Message string    `json:"message"`
}

// Navigation is a client-side redirect emitted by the flow.
type Navigation struct {
	To      string `json:"to"`
	Replace bool   `json:"replace"`
}

// Routes used by the result screen.
const (
	RoutePlan  = "/plan"
	RouteHome  = "/"
	RoutePlans = "/plans"
)

// PollState is owned by a single poller instance. Active goes true -> false once.
type PollState struct {
	Phase       PollPhase  `json:"phase"`
	Status      string     `json:"status,omitempty"` // payment status from the redirect
	Attempt     int        `json:"attempt"`
	MaxAttempts int        `json:"max_attempts"`
	CheckErrors int        `json:"check_errors"` // attempts whose readiness could not be determined
	Active      bool       `json:"active"`
	Result      PollResult `json:"result"`
	Error       string     `json:"error,omitempty"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// PollSession is the persisted view of one result-screen visit.
type PollSession struct {
	ID         string      `json:"id"`
	UserID     string      `json:"user_id"`
	PaymentID  string      `json:"payment_id,omitempty"`
	State      PollState   `json:"state"`
	Toasts     []Toast     `json:"toasts,omitempty"`
	Navigation *Navigation `json:"navigation,omitempty"`
	CreatedAt  time.Time   `json:"created_at"`
}
