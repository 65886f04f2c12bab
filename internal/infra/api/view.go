package api

import (
	"time"

	"fitplan/internal/domain/model"
)

// Action is the follow-up offered on the result screen once polling is over.
type Action struct {
	Key  string `json:"label_key"`
	Href string `json:"href"`
}

type sessionView struct {
	ID          string           `json:"id"`
	PaymentID   string           `json:"payment_id,omitempty"`
	Phase       model.PollPhase  `json:"phase"`
	Status      string           `json:"status,omitempty"`
	Attempt     int              `json:"attempt"`
	MaxAttempts int              `json:"max_attempts"`
	CheckErrors int              `json:"check_errors"`
	Active      bool             `json:"active"`
	Result      model.PollResult `json:"result"`
	Error       string           `json:"error,omitempty"`
	Toasts      []model.Toast    `json:"toasts"`
	NavigateTo  string           `json:"navigate_to,omitempty"`
	Replace     bool             `json:"replace,omitempty"`
	Action      *Action          `json:"action,omitempty"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

func toSessionView(s *model.PollSession) sessionView {
	v := sessionView{
		ID:          s.ID,
		PaymentID:   s.PaymentID,
		Phase:       s.State.Phase,
		Status:      s.State.Status,
		Attempt:     s.State.Attempt,
		MaxAttempts: s.State.MaxAttempts,
		CheckErrors: s.State.CheckErrors,
		Active:      s.State.Active,
		Result:      s.State.Result,
		Error:       s.State.Error,
		Toasts:      s.Toasts,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.State.UpdatedAt,
	}
	if v.Toasts == nil {
		v.Toasts = []model.Toast{}
	}
	if s.Navigation != nil {
		v.NavigateTo = s.Navigation.To
		v.Replace = s.Navigation.Replace
	}
	if a, ok := actionFor(s.State); ok {
		v.Action = &a
	}
	return v
}

// actionFor picks the button shown after the flow settled.
// Pending payments send the user home; anything else not approved offers a retry.
func actionFor(st model.PollState) (Action, bool) {
	if st.Active {
		return Action{}, false
	}
	switch st.Phase {
	case model.PhaseDone:
		if st.Result == model.PollResultFound {
			return Action{Key: "payment.action.view_plan", Href: model.RoutePlan}, true
		}
		if model.ParsePaymentStatus(st.Status) == model.PaymentStatusPending {
			return Action{Key: "payment.action.home", Href: model.RouteHome}, true
		}
		return Action{Key: "payment.action.retry", Href: model.RoutePlans}, true
	case model.PhaseTimedOut:
		return Action{Key: "payment.action.view_plan", Href: model.RoutePlan}, true
	case model.PhaseError:
		return Action{Key: "payment.action.retry", Href: model.RoutePlans}, true
	case model.PhaseCancelled:
		return Action{Key: "payment.action.home", Href: model.RouteHome}, true
	}
	return Action{}, false
}
