package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"fitplan/internal/config"
	"fitplan/internal/domain/ports/adapter"
	aiAdapters "fitplan/internal/infra/adapters/ai"
	payAdapters "fitplan/internal/infra/adapters/payment"
	tele "fitplan/internal/infra/adapters/telegram"
	"fitplan/internal/infra/api"
	pg "fitplan/internal/infra/db/postgres"
	"fitplan/internal/infra/i18n"
	"fitplan/internal/infra/logging"
	"fitplan/internal/infra/metrics"
	red "fitplan/internal/infra/redis"
	"fitplan/internal/infra/sched"
	"fitplan/internal/infra/worker"
	"fitplan/internal/poller"
	"fitplan/internal/usecase"
)

// set with -ldflags "-X main.version=... -X main.commit=..."
var (
	version = "dev"
	commit  = "none"
)

func main() {
	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, noop gateways)")
	mintFor := flag.String("mint", "", "print an access token for the given user id and exit")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	auth := api.NewAuthManager(cfg.Auth.JWTSecret, cfg.Auth.Issuer, cfg.Auth.CookieName, 24*time.Hour)

	if *mintFor != "" {
		tok, err := auth.Mint(*mintFor)
		if err != nil {
			logger.Fatal().Err(err).Msg("mint token")
		}
		fmt.Println(tok)
		return
	}
	if cfg.Runtime.Dev {
		logger.Warn().Msg("developer mode enabled")
	}

	metrics.MustRegister()
	metrics.SetBuildInfo(version, commit)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, cfg.Database.MaxConns)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres")
	}
	defer pool.Close()
	go pg.ReportPoolStats(ctx, pool, 15*time.Second, logger)

	tm := pg.NewTxManager(pool)
	paymentRepo := pg.NewPaymentRepo(pool)
	profileRepo := pg.NewProfileRepo(pool)
	nutritionRepo := pg.NewNutritionProfileRepo(pool)
	nutritionPlanRepo := pg.NewNutritionalPlanRepo(pool)
	trainingRepo := pg.NewTrainingPlanRepo(pool, tm)
	jobRepo := pg.NewPlanJobRepo(pool, tm)

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis")
	}
	defer redisClient.Close()

	// ---- Adapters ----
	ai := buildAI(ctx, cfg, logger)
	gateway := buildGateway(cfg, logger)
	notifier := buildNotifier(cfg, logger)

	catalog, err := i18n.NewCatalog(i18n.LocalesFS, cfg.HTTP.DefaultLocale, "pt-BR", "en")
	if err != nil {
		logger.Fatal().Err(err).Msg("i18n")
	}

	// ---- Use cases ----
	genCfg := usecase.GeneratorConfig{MaxPromptTokens: cfg.AI.MaxPromptTokens}
	paymentUC := usecase.NewPaymentUseCase(paymentRepo, profileRepo, jobRepo, gateway, tm, logger)
	readinessUC := usecase.NewReadinessUseCase(profileRepo, nutritionPlanRepo)
	nutritionUC := usecase.NewNutritionUseCase(nutritionRepo, logger)
	trainingUC := usecase.NewTrainingUseCase(trainingRepo, ai, genCfg, logger)
	planGenUC := usecase.NewPlanGenerationUseCase(nutritionRepo, nutritionPlanRepo, trainingRepo, ai, genCfg, tm, logger)

	// ---- Workers ----
	// pollers are long lived, so the session pool has no backlog beyond its workers
	sessionPool := worker.NewPool("poll_sessions", cfg.Sessions.Workers, cfg.Sessions.Workers, logger)
	sessionPool.Start(ctx)
	jobPool := worker.NewPool("plan_jobs", cfg.Jobs.Workers, cfg.Jobs.QueueSize, logger)
	jobPool.Start(ctx)

	statusUC := usecase.NewPaymentStatusUseCase(usecase.PaymentStatusConfig{
		Provider:     gateway.Name(),
		MaxAttempts:  cfg.Poller.MaxAttempts,
		RetryDelay:   cfg.Poller.RetryDelay,
		RegistrySize: cfg.Sessions.RegistrySize,
		SessionTTL:   cfg.Sessions.TTL,
		IdleTimeout:  cfg.Sessions.IdleTimeout,
		LockTTL:      cfg.Sessions.LockTTL,
		RateLimit:    cfg.Sessions.RateLimit,
		RateWindow:   cfg.Sessions.RateWindow,
	}, usecase.PaymentStatusDeps{
		Payments:   paymentUC,
		Readiness:  readinessUC,
		Store:      red.NewPollSessionStore(redisClient, cfg.Sessions.TTL),
		Locker:     red.NewLocker(redisClient),
		Limiter:    red.NewRateLimiter(redisClient),
		Runner:     sessionPool,
		Notifier:   notifier,
		Translator: catalog.Match(cfg.HTTP.DefaultLocale),
		Clock:      poller.RealClock{},
	}, logger)

	processor := worker.NewPlanJobProcessor(jobRepo, planGenUC, cfg.Jobs.PollInterval, cfg.Jobs.MaxRetries, logger)
	go processor.Start(ctx, jobPool)
	reconciler := sched.NewPlanReconciler(paymentRepo, jobRepo, cfg.Jobs.ReconcileInterval, cfg.Jobs.StaleAfter, logger)
	go reconciler.Start(ctx)

	// ---- HTTP ----
	srv := api.NewServer(api.Deps{
		Status:    statusUC,
		Readiness: readinessUC,
		Nutrition: nutritionUC,
		Training:  trainingUC,
		Auth:      auth,
		Catalog:   catalog,
	}, api.Options{
		RequestTimeout: cfg.HTTP.RequestTimeout,
		RefreshEvery:   cfg.Poller.RetryDelay,
	}, logger)

	server := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
	}
	go func() {
		logger.Info().Str("addr", server.Addr).Str("version", version).Msg("http server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server error")
			stop()
		}
	}()

	// ---- Graceful shutdown ----
	<-ctx.Done()
	logger.Info().Msg("shutdown requested")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
	sessionPool.Stop()
	jobPool.Stop()
	logger.Info().Msg("bye")
}

// buildAI returns the configured providers behind a concurrency limit, or the noop
// adapter so plans fall back to templates.
func buildAI(ctx context.Context, cfg *config.Config, logger *zerolog.Logger) adapter.AIServiceAdapter {
	providers := map[string]adapter.AIServiceAdapter{}
	if cfg.AI.OpenAIKey != "" {
		a, err := aiAdapters.NewOpenAIAdapter(cfg.AI.OpenAIKey, cfg.AI.DefaultModel, cfg.AI.OpenAIBaseURL)
		if err != nil {
			logger.Error().Err(err).Msg("openai adapter")
		} else {
			providers["openai"] = a
		}
	}
	if cfg.AI.GeminiKey != "" {
		a, err := aiAdapters.NewGeminiAdapter(ctx, cfg.AI.GeminiKey, cfg.AI.GeminiURL, cfg.AI.GeminiModel, cfg.AI.MaxOutputTokens)
		if err != nil {
			logger.Error().Err(err).Msg("gemini adapter")
		} else {
			providers["gemini"] = a
		}
	}
	if len(providers) == 0 {
		logger.Warn().Msg("no AI provider configured; plans will use templates")
		return aiAdapters.NewNoopAIAdapter()
	}
	multi := aiAdapters.NewMultiAIAdapter(cfg.AI.DefaultProvider, providers)
	logger.Info().Str("provider", multi.Name()).Str("model", multi.DefaultModel()).Msg("AI adapter ready")
	return aiAdapters.NewLimitedAI(multi, cfg.AI.ConcurrentLimit)
}

func buildGateway(cfg *config.Config, logger *zerolog.Logger) adapter.PaymentGateway {
	mp := cfg.Payment.MercadoPago
	if mp.AccessToken == "" {
		logger.Warn().Msg("mercadopago access token not set; payments are not cross-checked")
		return payAdapters.NewNoopPaymentGateway()
	}
	g, err := payAdapters.NewMercadoPagoGateway(mp.AccessToken, mp.BaseURL, mp.Timeout)
	if err != nil {
		logger.Fatal().Err(err).Msg("mercadopago gateway")
	}
	logger.Info().Str("token", logging.Redact(mp.AccessToken, cfg.Runtime.Dev)).Msg("mercadopago gateway ready")
	return g
}

func buildNotifier(cfg *config.Config, logger *zerolog.Logger) adapter.SupportNotifier {
	tg := cfg.Support.Telegram
	if tg.Token == "" || tg.ChatID == 0 {
		return tele.NewNoopNotifier(logger)
	}
	n, err := tele.NewSupportNotifier(tg.Token, tg.ChatID, logger)
	if err != nil {
		logger.Error().Err(err).Msg("telegram support notifier; alerts will only be logged")
		return tele.NewNoopNotifier(logger)
	}
	return n
}
