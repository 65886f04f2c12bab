package api

import (
	"embed"
	"fmt"
	"html/template"
	"math"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"fitplan/internal/domain/model"
	"fitplan/internal/infra/i18n"
	"fitplan/internal/infra/logging"
)

//go:embed templates/status.html
var templatesFS embed.FS

var statusPage = template.Must(template.ParseFS(templatesFS, "templates/status.html"))

type pageData struct {
	Lang        string
	Title       string
	Phase       model.PollPhase
	Tone        string // ok | fail | wait
	Heading     string
	Body        string
	Toasts      []model.Toast
	Attempt     string
	Reference   string
	Support     string
	ActionLabel string
	ActionHref  string
	Refresh     string
}

// handleStatusEntry is where the payment provider sends the user back. It starts a
// session for the redirect and hands over to the session page so reloads do not re-confirm.
func (s *Server) handleStatusEntry(w http.ResponseWriter, r *http.Request) {
	tr := s.catalog.Match(r.Header.Get("Accept-Language"))
	sess, err := s.status.Start(r.Context(), UserID(r.Context()), r.URL.Query())
	if err != nil {
		l := logging.With(r.Context(), s.log)
		l.Warn().Err(err).Msg("start payment status session")
		s.renderFailure(w, tr, statusFor(err))
		return
	}
	http.Redirect(w, r, "/payment/status/"+sess.ID, http.StatusSeeOther)
}

func (s *Server) handleStatusPage(w http.ResponseWriter, r *http.Request) {
	tr := s.catalog.Match(r.Header.Get("Accept-Language"))
	sess, err := s.status.Get(r.Context(), UserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.renderFailure(w, tr, statusFor(err))
		return
	}
	s.renderPage(w, http.StatusOK, s.buildPage(tr, sess))
}

func (s *Server) buildPage(tr *i18n.Translator, sess *model.PollSession) pageData {
	st := sess.State
	d := pageData{
		Lang:   tr.Lang(),
		Title:  tr.T("payment.page.title"),
		Phase:  st.Phase,
		Toasts: sess.Toasts,
	}
	if sess.PaymentID != "" {
		d.Reference = tr.T("payment.page.reference", sess.PaymentID)
	}

	status := model.ParsePaymentStatus(st.Status)
	switch {
	case st.Active:
		d.Tone = "wait"
		d.Heading, d.Body = statusCopy(tr, status)
		if st.Phase == model.PhasePolling {
			d.Attempt = tr.T("payment.page.attempt", st.Attempt+1, st.MaxAttempts)
		}
		d.Refresh = fmt.Sprint(refreshSeconds(s.refresh))
	case st.Phase == model.PhaseDone && st.Result == model.PollResultFound:
		d.Tone = "ok"
		d.Heading = tr.T("payment.page.done.title")
	case st.Phase == model.PhaseDone:
		d.Tone = "fail"
		if status == model.PaymentStatusPending {
			d.Tone = "wait"
		}
		d.Heading, d.Body = statusCopy(tr, status)
	case st.Phase == model.PhaseTimedOut || st.Phase == model.PhaseError:
		d.Tone = "fail"
		d.Heading = tr.T("payment.page.error.title")
		d.Body = st.Error
		d.Support = tr.T("payment.action.support")
	case st.Phase == model.PhaseCancelled:
		d.Tone = "wait"
		d.Heading = tr.T("payment.page.cancelled.title")
	}

	if a, ok := actionFor(st); ok {
		d.ActionLabel, d.ActionHref = tr.T(a.Key), a.Href
	}
	if sess.Navigation != nil {
		// give the toast a moment before leaving
		d.Refresh = "2;url=" + sess.Navigation.To
	}
	return d
}

func statusCopy(tr *i18n.Translator, status model.PaymentStatus) (string, string) {
	switch status {
	case model.PaymentStatusApproved:
		return tr.T("payment.page.approved.title"), tr.T("payment.page.approved.body")
	case model.PaymentStatusPending:
		return tr.T("payment.page.pending.title"), tr.T("payment.page.pending.body")
	default:
		return tr.T("payment.page.other.title"), tr.T("payment.page.other.body")
	}
}

func (s *Server) renderFailure(w http.ResponseWriter, tr *i18n.Translator, code int) {
	s.renderPage(w, code, pageData{
		Lang:        tr.Lang(),
		Title:       tr.T("payment.page.title"),
		Phase:       model.PhaseError,
		Tone:        "fail",
		Heading:     tr.T("payment.page.error.title"),
		Body:        tr.T("payment.error.processing"),
		ActionLabel: tr.T("payment.action.retry"),
		ActionHref:  model.RoutePlans,
	})
}

func (s *Server) renderPage(w http.ResponseWriter, code int, d pageData) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(code)
	if err := statusPage.Execute(w, d); err != nil {
		s.log.Error().Err(err).Msg("render status page")
	}
}

func refreshSeconds(d time.Duration) int {
	secs := int(math.Ceil(d.Seconds()))
	if secs < 1 {
		return 1
	}
	return secs
}
