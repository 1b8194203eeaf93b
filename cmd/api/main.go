package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	httptransport "github.com/spec-kit/pantry-service/internal/api/http"
	"github.com/spec-kit/pantry-service/internal/api/http/handlers"
	"github.com/spec-kit/pantry-service/internal/audit"
	"github.com/spec-kit/pantry-service/internal/auth"
	"github.com/spec-kit/pantry-service/internal/authz"
	"github.com/spec-kit/pantry-service/internal/config"
	"github.com/spec-kit/pantry-service/internal/observability"
	"github.com/spec-kit/pantry-service/internal/persistence"
	"github.com/spec-kit/pantry-service/internal/privacy"
	"github.com/spec-kit/pantry-service/internal/ratelimit"
	"github.com/spec-kit/pantry-service/internal/repository"
	"github.com/spec-kit/pantry-service/internal/secrets"
	"github.com/spec-kit/pantry-service/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	production := cfg.App.IsProduction()

	sec, err := secrets.Load(cfg, logger)
	if err != nil {
		logger.Fatal("failed to load secrets", zap.Error(err))
	}

	codec, err := privacy.NewCodec(sec.EmailPrivacy)
	if err != nil {
		logger.Fatal("failed to build email codec", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.NewPostgres(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to connect postgres", zap.Error(err))
	}
	defer pg.Close()

	if cfg.Postgres.RunMigrations {
		if err := persistence.RunMigrations(ctx, pg.PoolHandle(), logger); err != nil {
			logger.Fatal("failed to run migrations", zap.Error(err))
		}
	}

	var limiterClient redis.UniversalClient
	var rd *persistence.Redis
	if cfg.Redis.Addr != "" {
		rd, err = persistence.NewRedis(cfg.Redis, production, logger)
		if err != nil {
			logger.Fatal("failed to connect redis", zap.Error(err))
		}
		defer rd.Close()
		limiterClient = rd.Client
	} else if production {
		logger.Fatal("REDIS_ADDR is required in production; the rate limiter must not fall back to a single-instance store")
	} else {
		logger.Warn("REDIS_ADDR not set; using in-memory rate limiter fallback")
	}

	pool := pg.PoolHandle()
	userRepo := repository.NewUserRepository(pool)
	teamRepo := repository.NewTeamRepository(pool)
	itemRepo := repository.NewItemRepository(pool)

	cookieSettings := auth.CookieSettingsFor(production, time.Duration(cfg.Auth.SessionMaxAgeSeconds)*time.Second)
	sessionService := auth.NewSessionService(sec.Session, cookieSettings, userRepo)
	csrfService := auth.NewCSRFService(sec.CSRF)
	authMiddleware := auth.NewMiddleware(sessionService, csrfService)

	recorder := audit.NewRecorder(audit.NewZapSink(logger), 256)
	defer recorder.Close()

	authService := service.NewAuthService(service.AuthDependencies{
		Users:    userRepo,
		Codec:    codec,
		Sessions: sessionService,
		Recorder: recorder,
	}, sec.Session, time.Duration(cfg.Auth.PasswordResetTTLMin)*time.Minute, cfg.Auth.BcryptCost, cookieSettings.MaxAge)

	guard := authz.NewGuard(teamRepo)
	teamService := service.NewTeamService(teamRepo, guard)
	itemService := service.NewItemService(itemRepo, guard)

	policies := ratelimit.PoliciesFor(production)
	ceiling := cfg.RateLimit.MemoryIdentifierCeiling
	limitFor := func(policy ratelimit.Policy) fiber.Handler {
		return ratelimit.Middleware(ratelimit.ForPolicy(limiterClient, policy, ceiling), production, logger)
	}

	metrics := observability.NewMetrics()

	app := fiber.New(fiber.Config{DisableStartupMessage: production})
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Health:         handlers.NewHealthHandler(cfg.App.Name, cfg.App.Version, pg, rd),
		Auth:           handlers.NewAuthHandler(authService, sessionService, csrfService, production),
		Teams:          handlers.NewTeamsHandler(teamService, itemService),
		AuthMiddleware: authMiddleware,
		LoginLimit:     limitFor(policies.Login),
		RegisterLimit:  limitFor(policies.Register),
		ResetLimit:     limitFor(policies.PasswordReset),
		ItemLimit:      limitFor(policies.ItemCreate),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
