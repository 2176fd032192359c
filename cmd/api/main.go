// AngelaMos | 2026
// main.go

package main

import (
	"context"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/carterperez-dev/dentflow/internal/appointment"
	"github.com/carterperez-dev/dentflow/internal/assistant"
	"github.com/carterperez-dev/dentflow/internal/auth"
	"github.com/carterperez-dev/dentflow/internal/billing"
	"github.com/carterperez-dev/dentflow/internal/config"
	"github.com/carterperez-dev/dentflow/internal/core"
	"github.com/carterperez-dev/dentflow/internal/health"
	"github.com/carterperez-dev/dentflow/internal/laboratory"
	"github.com/carterperez-dev/dentflow/internal/mail"
	"github.com/carterperez-dev/dentflow/internal/member"
	"github.com/carterperez-dev/dentflow/internal/middleware"
	"github.com/carterperez-dev/dentflow/internal/notification"
	"github.com/carterperez-dev/dentflow/internal/organization"
	"github.com/carterperez-dev/dentflow/internal/patient"
	"github.com/carterperez-dev/dentflow/internal/prosthetic"
	"github.com/carterperez-dev/dentflow/internal/server"
	"github.com/carterperez-dev/dentflow/internal/storage"
	"github.com/carterperez-dev/dentflow/internal/user"
)

const (
	drainDelay         = 5 * time.Second
	tokenSweepInterval = time.Hour
)

func main() {
	configPath := flag.String("config", "", "path to config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		slog.Error("application error", "error", err)
		os.Exit(1)
	}
}

//nolint:funlen // bootstrap code is inherently verbose
func run(configPath string) error {
	ctx, stop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer stop()

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger := setupLogger(cfg.Log)
	slog.SetDefault(logger)

	logger.Info("starting application",
		"name", cfg.App.Name,
		"version", cfg.App.Version,
		"environment", cfg.App.Environment,
	)

	var telemetry *core.Telemetry
	if cfg.Otel.Enabled {
		tel, telErr := core.NewTelemetry(ctx, cfg.Otel, cfg.App)
		if telErr != nil {
			logger.Warn("failed to initialize telemetry", "error", telErr)
		} else {
			telemetry = tel
			logger.Info("OpenTelemetry tracer initialized",
				"endpoint", cfg.Otel.Endpoint,
			)
		}
	}

	db, err := core.NewDatabase(ctx, cfg.Database)
	if err != nil {
		return err
	}
	logger.Info("database connected",
		"max_open_conns", cfg.Database.MaxOpenConns,
		"max_idle_conns", cfg.Database.MaxIdleConns,
	)

	if cfg.Database.AutoMigrate {
		if err := core.RunMigrations(ctx, db); err != nil {
			return err
		}
		logger.Info("database migrations applied")
	}

	redis, err := core.NewRedis(ctx, cfg.Redis)
	if err != nil {
		return err
	}
	logger.Info("redis connected",
		"pool_size", cfg.Redis.PoolSize,
	)

	if err := core.RegisterPoolMetrics(prometheus.DefaultRegisterer, db.Stats, redis.PoolStats); err != nil {
		logger.Warn("pool metrics not registered", "error", err)
	}

	planCache, err := core.NewCache[[]billing.Plan](cfg.Cache.MaxCostBytes)
	if err != nil {
		return err
	}
	defer planCache.Close()

	if !cfg.IsProduction() {
		created, keyErr := auth.EnsureKeyPair(cfg.JWT.PrivateKeyPath, cfg.JWT.PublicKeyPath)
		if keyErr != nil {
			return keyErr
		}
		if created {
			logger.Warn("generated development signing keys",
				"private_key_path", cfg.JWT.PrivateKeyPath,
			)
		}
	}

	jwtManager, err := auth.NewJWTManager(cfg.JWT)
	if err != nil {
		return err
	}
	logger.Info("JWT manager initialized",
		"algorithm", "ES256",
		"key_id", jwtManager.KeyID(),
	)

	hub := notification.NewHub(logger)
	var (
		publisher notification.Publisher = hub
		broker    *notification.Broker
		natsConn  *core.NATS
	)
	if cfg.NATS.URL != "" {
		natsConn, err = core.NewNATS(cfg.NATS, cfg.App.Name, logger)
		if err != nil {
			return err
		}
		broker = notification.NewBroker(natsConn.Conn, cfg.NATS.SubjectPrefix, hub, logger)
		if err := broker.Start(); err != nil {
			return err
		}
		publisher = broker
		logger.Info("nats connected", "subject_prefix", cfg.NATS.SubjectPrefix)
	}

	objectStore := storage.New(cfg.Storage)
	if cfg.Storage.Enabled {
		logger.Info("object storage enabled", "bucket", cfg.Storage.Bucket)
	}

	userRepo := user.NewRepository(db.DB)
	userSvc := user.NewService(userRepo)
	userHandler := user.NewHandler(userSvc)

	billingSvc := billing.NewService(
		billing.NewRepository(db.DB),
		planCache,
		cfg.Cache.PlanTTL,
		logger,
	)
	billingHandler := billing.NewHandler(billingSvc)

	orgSvc := organization.NewService(
		db,
		organization.NewRepository(db.DB),
		organization.DefaultStores(),
		cfg.Billing.TrialDays,
		logger,
	)
	orgHandler := organization.NewHandler(orgSvc)

	authSvc := auth.NewService(
		auth.NewRepository(db.DB),
		jwtManager,
		userSvc,
		orgSvc,
		auth.NewRedisTokenStore(redis.Client),
		mail.New(cfg.Mail, logger),
		auth.ServiceConfig{
			InviteTTL:       cfg.Invite.TTL,
			InviteAcceptURL: cfg.Invite.AcceptURL,
			Hasher: core.NewPasswordHasher(core.Argon2Params{
				MemoryKiB: cfg.Password.MemoryKiB,
				Time:      cfg.Password.Time,
				Threads:   cfg.Password.Threads,
			}),
		},
		logger,
	)
	authHandler := auth.NewHandler(authSvc, cfg.IsProduction())

	memberSvc := member.NewService(member.NewRepository(db.DB), authSvc, billingSvc, logger)
	memberHandler := member.NewHandler(memberSvc)

	patientSvc := patient.NewService(patient.NewRepository(db.DB), logger)
	patientHandler := patient.NewHandler(patientSvc)

	appointmentRepo := appointment.NewRepository(db.DB)
	appointmentSvc := appointment.NewService(appointmentRepo, patientSvc, memberSvc, logger)
	appointmentHandler := appointment.NewHandler(appointmentSvc)

	labSvc := laboratory.NewService(laboratory.NewRepository(db.DB), logger)
	labHandler := laboratory.NewHandler(labSvc)

	notificationSvc := notification.NewService(notification.NewRepository(db.DB), publisher, logger)
	notificationHandler := notification.NewHandler(notificationSvc, hub, cfg.CORS.AllowedOrigins, logger)

	prostheticSvc := prosthetic.NewService(prosthetic.Deps{
		Tx:       db,
		Repo:     prosthetic.NewRepository(db.DB),
		Patients: patientSvc,
		Members:  memberSvc,
		Labs:     labSvc,
		Notifier: notificationSvc,
		Store:    objectStore,
		Logger:   logger,
	})
	prostheticHandler := prosthetic.NewHandler(prostheticSvc, cfg.Storage.MaxUploadBytes)

	var completer assistant.Completer
	if cfg.AI.Enabled() {
		completer = assistant.NewClient(cfg.AI.BaseURL, cfg.AI.APIKey, cfg.AI.Model, cfg.AI.Timeout)
	}
	assistantHandler := assistant.NewHandler(
		assistant.NewService(appointmentRepo, patientSvc, completer, logger),
	)

	healthChecks := []health.Check{
		{Name: "database", Checker: db},
		{Name: "redis", Checker: redis},
	}
	if natsConn != nil {
		healthChecks = append(healthChecks, health.Check{Name: "nats", Checker: natsConn})
	}
	if cfg.Storage.Enabled {
		healthChecks = append(healthChecks, health.Check{
			Name:     "storage",
			Checker:  objectStore,
			Optional: true,
		})
	}
	healthHandler := health.NewHandler(cfg.App.Version, healthChecks...)

	srv := server.New(server.Config{
		ServerConfig:  cfg.Server,
		Metrics:       cfg.Metrics,
		ServiceName:   cfg.App.Name,
		HealthHandler: healthHandler,
		Logger:        logger,
	})

	router := srv.Router()

	router.Use(middleware.RequestID)
	router.Use(middleware.Logger(logger))
	router.Use(middleware.Metrics)
	probes := map[string]bool{"/healthz": true, "/livez": true, "/readyz": true}
	router.Use(
		middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
			Name: "global",
			Limit: middleware.Every(
				cfg.RateLimit.Requests,
				cfg.RateLimit.Window,
				cfg.RateLimit.Burst,
			),
			FailOpen: true,
			Skip: func(r *http.Request) bool {
				return probes[r.URL.Path]
			},
		}).Handler,
	)
	credentialLimit := middleware.NewRateLimiter(redis.Client, middleware.RateLimitConfig{
		Name:    "auth",
		Limit:   middleware.Every(cfg.RateLimit.AuthRequests, cfg.RateLimit.Window, 0),
		KeyFunc: middleware.KeyByIPAndRoute,
	}).Handler
	router.Use(middleware.SecurityHeaders(cfg.IsProduction()))
	router.Use(middleware.CORS(cfg.CORS))

	healthHandler.RegisterRoutes(router)

	router.Get("/.well-known/jwks.json", jwtManager.GetJWKSHandler())

	authenticator := middleware.Authenticator(authSvc)
	sessionGate := middleware.RequireSession(memberSvc)
	feature := func(key string) func(http.Handler) http.Handler {
		return middleware.RequireFeature(billingSvc, key)
	}

	router.Route("/v1", func(r chi.Router) {
		billingHandler.RegisterPublicRoutes(r)
		authHandler.RegisterRoutes(r, authenticator, sessionGate, credentialLimit)
		userHandler.RegisterRoutes(r, authenticator)

		r.Group(func(r chi.Router) {
			r.Use(authenticator)
			r.Use(sessionGate)

			orgHandler.RegisterRoutes(r)
			memberHandler.RegisterRoutes(r)
			billingHandler.RegisterRoutes(r)
			patientHandler.RegisterRoutes(r)
			appointmentHandler.RegisterRoutes(r)
			labHandler.RegisterRoutes(r)
			notificationHandler.RegisterRoutes(r)
			prostheticHandler.RegisterRoutes(r, feature(billing.FeatureProsthetics))
			assistantHandler.RegisterRoutes(r, feature(billing.FeatureAIDashboard))
		})
	})

	go authSvc.SweepExpired(ctx, tokenSweepInterval)

	errChan := make(chan error, 1)
	go func() {
		errChan <- srv.Start()
	}()

	select {
	case err := <-errChan:
		return err
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		cfg.Server.ShutdownTimeout+drainDelay+5*time.Second,
	)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx, drainDelay); err != nil {
		logger.Error("server shutdown error", "error", err)
	}

	if broker != nil {
		broker.Stop()
	}
	if natsConn != nil {
		if err := natsConn.Close(); err != nil {
			logger.Error("nats close error", "error", err)
		}
	}

	if err := redis.Close(); err != nil {
		logger.Error("redis close error", "error", err)
	}

	if err := db.Close(); err != nil {
		logger.Error("database close error", "error", err)
	}

	if telemetry != nil {
		if err := telemetry.Shutdown(shutdownCtx); err != nil {
			logger.Error("telemetry shutdown error", "error", err)
		}
	}

	logger.Info("application stopped")
	return nil
}

func setupLogger(cfg config.LogConfig) *slog.Logger {
	var handler slog.Handler

	level := slog.LevelInfo
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}

	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
