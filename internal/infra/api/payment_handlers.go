package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"fitplan/internal/infra/logging"
)

// POST /api/v1/payment/sessions?collection_status=...&collection_id=...&external_reference=...
func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.status.Start(r.Context(), UserID(r.Context()), r.URL.Query())
	if err != nil {
		l := logging.With(r.Context(), s.log)
		l.Warn().Err(err).Msg("start payment status session")
		writeError(w, err)
		return
	}
	w.Header().Set("Location", "/api/v1/payment/sessions/"+sess.ID)
	writeJSON(w, http.StatusCreated, toSessionView(sess))
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.status.Get(r.Context(), UserID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toSessionView(sess))
}

func (s *Server) handleCancelSession(w http.ResponseWriter, r *http.Request) {
	if err := s.status.Cancel(r.Context(), UserID(r.Context()), chi.URLParam(r, "id")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
