package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"fitplan/internal/infra/i18n"
	"fitplan/internal/usecase"
)

// Server exposes the payment result flow and the plan endpoints over HTTP.
type Server struct {
	status    usecase.PaymentStatusUseCase
	readiness usecase.ReadinessUseCase
	nutrition usecase.NutritionUseCase
	training  usecase.TrainingUseCase
	auth      *AuthManager
	catalog   *i18n.Catalog
	metrics   http.Handler
	timeout   time.Duration
	refresh   time.Duration
	log       *zerolog.Logger
}

type Deps struct {
	Status    usecase.PaymentStatusUseCase
	Readiness usecase.ReadinessUseCase
	Nutrition usecase.NutritionUseCase
	Training  usecase.TrainingUseCase
	Auth      *AuthManager
	Catalog   *i18n.Catalog
	// Metrics serves /metrics; promhttp.Handler() when nil.
	Metrics http.Handler
}

type Options struct {
	RequestTimeout time.Duration
	// RefreshEvery is how often the status page reloads while polling.
	RefreshEvery time.Duration
}

func NewServer(deps Deps, opts Options, logger *zerolog.Logger) *Server {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = 15 * time.Second
	}
	if opts.RefreshEvery <= 0 {
		opts.RefreshEvery = 3 * time.Second
	}
	if deps.Metrics == nil {
		deps.Metrics = promhttp.Handler()
	}
	l := logger.With().Str("component", "HTTPServer").Logger()
	return &Server{
		status:    deps.Status,
		readiness: deps.Readiness,
		nutrition: deps.Nutrition,
		training:  deps.Training,
		auth:      deps.Auth,
		catalog:   deps.Catalog,
		metrics:   deps.Metrics,
		timeout:   opts.RequestTimeout,
		refresh:   opts.RefreshEvery,
		log:       &l,
	}
}

// Routes builds the router. Everything except /health and /metrics requires a user token.
func (s *Server) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(TraceID(), RequestLog(s.log), Recover(s.log))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Handle("/metrics", s.metrics)

	r.Group(func(r chi.Router) {
		r.Use(Timeout(s.timeout), s.auth.Authenticate())

		r.Get("/payment/status", s.handleStatusEntry)
		r.Get("/payment/status/{id}", s.handleStatusPage)

		r.Route("/api/v1", func(r chi.Router) {
			r.Post("/payment/sessions", s.handleStartSession)
			r.Get("/payment/sessions/{id}", s.handleGetSession)
			r.Delete("/payment/sessions/{id}", s.handleCancelSession)

			r.Get("/plan/readiness", s.handleReadiness)
			r.Post("/nutrition/target", s.handleNutritionTarget)
			r.Post("/training/plan", s.handleTrainingPlan)
			r.Get("/training/plan/template", s.handleTrainingTemplate)
		})
	})
	return r
}
