package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	validator "github.com/go-playground/validator/v10"
	"github.com/hibiken/asynq"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/extra/redisotel/v9"
	redis "github.com/redis/go-redis/v9"

	"github.com/wallaby-factory/ec-site-sub001/internal/auth"
	"github.com/wallaby-factory/ec-site-sub001/internal/checkout"
	"github.com/wallaby-factory/ec-site-sub001/internal/common"
	"github.com/wallaby-factory/ec-site-sub001/internal/config"
	"github.com/wallaby-factory/ec-site-sub001/internal/events"
	"github.com/wallaby-factory/ec-site-sub001/internal/gallery"
	"github.com/wallaby-factory/ec-site-sub001/internal/health"
	"github.com/wallaby-factory/ec-site-sub001/internal/jobs"
	"github.com/wallaby-factory/ec-site-sub001/internal/material"
	"github.com/wallaby-factory/ec-site-sub001/internal/obs"
	"github.com/wallaby-factory/ec-site-sub001/internal/order"
	"github.com/wallaby-factory/ec-site-sub001/internal/points"
	"github.com/wallaby-factory/ec-site-sub001/internal/pricing"
	"github.com/wallaby-factory/ec-site-sub001/internal/ratelimit"
	"github.com/wallaby-factory/ec-site-sub001/internal/security"
	"github.com/wallaby-factory/ec-site-sub001/internal/user"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := obs.NewLogger(cfg.LogFormat, cfg.LogLevel).With().Str("env", cfg.AppEnv).Logger()

	obs.MustRegisterDomainMetrics(cfg.MetricsNamespace, nil)

	tracerShutdown, err := obs.InitTracer(context.Background(), obs.TracingConfig{
		ServiceName:   "ec-site-api",
		Endpoint:      cfg.TracingEndpoint,
		Exporter:      cfg.TracingExporter,
		SamplingRatio: cfg.TracingSampling,
		Environment:   cfg.AppEnv,
	})
	if err != nil {
		logger.Error().Err(err).Msg("initialise tracing")
	} else {
		defer func() {
			if err := tracerShutdown(context.Background()); err != nil {
				logger.Error().Err(err).Msg("shutdown tracer")
			}
		}()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	poolConfig, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse database config")
	}
	poolConfig.ConnConfig.Tracer = obs.PGXTracer{}
	if poolConfig.ConnConfig.RuntimeParams == nil {
		poolConfig.ConnConfig.RuntimeParams = map[string]string{}
	}
	poolConfig.ConnConfig.RuntimeParams["application_name"] = "ec-site-api"

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()
	if err := pool.Ping(ctx); err != nil {
		logger.Fatal().Err(err).Msg("ping database")
	}

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("parse redis url")
	}
	redisClient := redis.NewClient(redisOpts)
	if err := redisotel.InstrumentTracing(redisClient); err != nil {
		logger.Error().Err(err).Msg("instrument redis tracing")
	}
	if err := redisotel.InstrumentMetrics(redisClient); err != nil {
		logger.Error().Err(err).Msg("instrument redis metrics")
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close redis")
		}
	}()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		logger.Fatal().Err(err).Msg("ping redis")
	}

	taskClient := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     redisOpts.Addr,
		Username: redisOpts.Username,
		Password: redisOpts.Password,
		DB:       redisOpts.DB,
	})
	defer func() {
		if err := taskClient.Close(); err != nil {
			logger.Error().Err(err).Msg("close task client")
		}
	}()

	userRepo := &user.Repo{Pool: pool}
	authService, err := auth.NewService(auth.Config{
		Users:          userRepo,
		Secret:         cfg.JWTSecret,
		AccessTokenTTL: cfg.AccessTokenTTL,
	})
	if err != nil {
		logger.Fatal().Err(err).Msg("initialise auth service")
	}
	authHandler := &auth.Handler{Service: authService}
	authMiddleware := auth.Middleware{Service: authService}

	idem := common.Idem{R: redisClient, TTL: cfg.IdempotencyTTL}

	bus := &events.Bus{
		Store:     &events.PGStore{Pool: pool},
		Notifiers: []events.Notifier{events.LogNotifier{Logger: logger}},
	}

	orderRepo := &order.Repo{Pool: pool}
	ledger := &points.Ledger{Pool: pool}

	checkoutSvc := &checkout.Service{
		Pool:   pool,
		Orders: orderRepo,
		Ledger: ledger,
		Events: bus,
	}
	checkoutHandler := &checkout.Handler{Svc: checkoutSvc, Ledger: ledger}

	orderHandler := &order.Handler{Repo: orderRepo}
	orderAdmin := &order.AdminHandler{Repo: orderRepo, Events: bus}
	pointsHandler := &points.Handler{Ledger: ledger}
	pricingHandler := pricing.Handler{}

	galleryRepo := &gallery.Repo{Pool: pool}
	gallerySvc := &gallery.Service{
		Store:  galleryRepo,
		Users:  userRepo,
		Cache:  gallery.NewCache(redisClient, cfg.GalleryCacheTTL),
		Events: bus,
	}
	galleryHandler := &gallery.Handler{Svc: gallerySvc}

	materialHandler := &material.Handler{
		Store:    &material.Repo{Pool: pool},
		Validate: validator.New(validator.WithRequiredStructEnabled()),
	}
	userAdmin := &user.AdminHandler{Repo: userRepo}
	jobsAdmin := &jobs.AdminHandler{Client: taskClient}

	httpMetrics := obs.NewHTTPMetrics(cfg.MetricsNamespace, obs.ParseBucketsCSV(cfg.MetricsBucketsMS), nil)

	loginLimiter := ratelimit.Handler{
		Limiter: ratelimit.Limiter{Client: redisClient, Prefix: "rl:auth:"},
		Config: ratelimit.Config{
			Key:    func(r *http.Request) string { return r.RemoteAddr },
			Window: time.Minute,
			Max:    20,
		},
		OnError: func(err error) { logger.Error().Err(err).Msg("rate limiter") },
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(security.Headers{Enable: true}.Middleware)
	r.Use(security.BodyLimit{Max: 1 << 20}.Middleware)
	r.Use(obs.RoutePatternMiddleware)
	r.Use(obs.TracingMiddleware)
	r.Use(obs.HTTPObs{Metrics: httpMetrics}.Middleware)
	r.Use(obs.RequestLogger{Logger: logger}.Middleware)
	r.Use(authMiddleware.Authenticate)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins(cfg),
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Idempotency-Key"},
		ExposedHeaders:   []string{"X-Total-Count"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Handle("/metrics", promhttp.Handler())

	healthHandler := health.Handler{
		Checker: readinessChecker{db: pool, redis: redisClient},
	}
	r.Get("/health/live", healthHandler.Live)
	r.Get("/health/ready", healthHandler.Ready)

	r.Route("/api/v1", func(v chi.Router) {
		v.Post("/pricing/quote", pricingHandler.QuoteHandler)
		v.Post("/checkout/quote", checkoutHandler.QuoteHandler)
		v.Get("/materials", materialHandler.List)
		v.Get("/gallery", galleryHandler.List)

		v.Route("/auth", func(a chi.Router) {
			a.With(loginLimiter.Middleware).Post("/register", authHandler.Register)
			a.With(loginLimiter.Middleware).Post("/login", authHandler.Login)
			a.With(authMiddleware.RequireAuth).Get("/me", authHandler.Me)
		})

		v.With(idem.Middleware, authMiddleware.RequireAuth).Post("/checkout", checkoutHandler.Checkout)

		v.Group(func(protected chi.Router) {
			protected.Use(authMiddleware.RequireAuth)
			protected.Get("/orders", orderHandler.List)
			protected.Get("/orders/{id}", orderHandler.Get)
			protected.Get("/users/me", authHandler.Me)
			protected.Get("/users/me/points", pointsHandler.Me)
			protected.Post("/gallery", galleryHandler.Publish)
		})

		v.Route("/admin", func(admin chi.Router) {
			admin.Use(authMiddleware.RequireAuth)
			admin.Use(auth.RequireRole(user.RoleAdmin))
			admin.Get("/orders", orderAdmin.List)
			admin.Patch("/orders/{id}/status", orderAdmin.PatchStatus)
			admin.Get("/materials/{id}", materialHandler.Get)
			admin.Post("/materials", materialHandler.Create)
			admin.Put("/materials/{id}", materialHandler.Update)
			admin.Delete("/materials/{id}", materialHandler.Delete)
			admin.Get("/customers", userAdmin.List)
			admin.Put("/customers/{id}/roles", userAdmin.UpdateRoles)
			admin.Post("/points/sweep", jobsAdmin.TriggerSweep)
		})
	})

	srv := &http.Server{
		Addr:    cfg.HTTPAddr(),
		Handler: r,
	}

	go func() {
		logger.Info().Str("addr", srv.Addr).Msg("server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("server exited unexpectedly")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	health.SetReady(false)
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}
	logger.Info().Msg("server stopped")
}

func allowedOrigins(cfg *config.Config) []string {
	if len(cfg.CORSAllowedOrigins) == 0 {
		return []string{"*"}
	}
	return cfg.CORSAllowedOrigins
}

type readinessChecker struct {
	db    *pgxpool.Pool
	redis *redis.Client
}

func (c readinessChecker) PingDB(ctx context.Context, timeout time.Duration) error {
	if c.db == nil {
		return errors.New("db not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.db.Ping(ctx)
}

func (c readinessChecker) PingRedis(ctx context.Context, timeout time.Duration) error {
	if c.redis == nil {
		return errors.New("redis not configured")
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	return c.redis.Ping(ctx).Err()
}
