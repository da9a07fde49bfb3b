package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/odyssey-erp/odyssey-pos/cmd/odyssey/cli"
	"github.com/odyssey-erp/odyssey-pos/internal/app"
	"github.com/odyssey-erp/odyssey-pos/internal/auth"
	"github.com/odyssey-erp/odyssey-pos/internal/locale"
	"github.com/odyssey-erp/odyssey-pos/internal/observability"
	"github.com/odyssey-erp/odyssey-pos/internal/platform/cache"
	"github.com/odyssey-erp/odyssey-pos/internal/platform/db"
	"github.com/odyssey-erp/odyssey-pos/internal/pos"
	"github.com/odyssey-erp/odyssey-pos/internal/rbac"
	"github.com/odyssey-erp/odyssey-pos/internal/shared"
	"github.com/odyssey-erp/odyssey-pos/internal/users"
)

// dsnMigrations adapts the embedded goose migrations to the CLI runner.
type dsnMigrations struct {
	dsn string
}

func (m dsnMigrations) Up(ctx context.Context) error   { return db.Migrate(ctx, m.dsn, false) }
func (m dsnMigrations) Down(ctx context.Context) error { return db.Migrate(ctx, m.dsn, true) }
func (m dsnMigrations) Version(ctx context.Context) (int64, error) {
	return db.MigrationVersion(ctx, m.dsn)
}

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig(".env")
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	if len(os.Args) > 1 && os.Args[1] == "migrate" {
		fs := flag.NewFlagSet("migrate", flag.ExitOnError)
		jsonOut := fs.Bool("json", false, "print the result as JSON")
		_ = fs.Parse(os.Args[2:])
		os.Exit(cli.NewMigrateCLI(dsnMigrations{dsn: cfg.PGDSN}).Command(ctx, cli.MigrateOptions{
			Action:     fs.Arg(0),
			JSONOutput: *jsonOut,
		}))
	}

	logger := app.NewLogger(cfg)

	if cfg.MigrateOnStart {
		if err := db.Migrate(ctx, cfg.PGDSN, false); err != nil {
			logger.Error("migrate on start", slog.Any("error", err))
			os.Exit(1)
		}
	}

	dbpool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("connect postgres", slog.Any("error", err))
		os.Exit(1)
	}
	defer dbpool.Close()

	redisClient, err := cache.New(ctx, cfg.RedisAddr)
	if err != nil {
		logger.Error("connect redis", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logger.Warn("redis close", slog.Any("error", err))
		}
	}()

	metrics := observability.NewMetrics()

	layered, err := cache.NewLayered(redisClient, cfg.CacheTTL, cfg.CacheMaxCost, metrics)
	if err != nil {
		logger.Error("build cache", slog.Any("error", err))
		os.Exit(1)
	}
	defer layered.Close()

	sessionManager := shared.NewSessionManager(redisClient, "odyssey_session", cfg.SessionSecret, cfg.SessionTTL, cfg.IsProduction())
	csrfManager := shared.NewCSRFManager(cfg.CSRFSecret)
	auditLogger := shared.NewAuditLogger(dbpool)

	usersRepo := users.NewRepository(dbpool)
	usersService := users.NewService(usersRepo)

	rbacService := rbac.NewService(dbpool)
	rbacMiddleware := rbac.Middleware{Service: rbacService, Logger: logger}

	resolver, err := locale.NewResolver(cfg.DefaultLocale, cfg.SupportedLocales)
	if err != nil {
		logger.Error("build locale resolver", slog.Any("error", err))
		os.Exit(1)
	}
	localeHandler := locale.NewHandler(logger, locale.NewService(usersService, resolver, logger))

	authHandler := auth.NewHandler(logger, auth.NewService(usersRepo, usersService, csrfManager), sessionManager)

	posRepo := pos.NewRepository(dbpool)
	posService := pos.NewService(
		posRepo,
		pos.NewGate(posRepo, rbacService),
		usersService,
		logger,
		pos.WithCache(layered),
		pos.WithAudit(auditLogger),
	)
	posHandler := pos.NewHandler(logger, posService, rbacMiddleware)

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		SessionManager: sessionManager,
		CSRFManager:    csrfManager,
		AuthHandler:    authHandler,
		LocaleHandler:  localeHandler,
		POSHandler:     posHandler,
		Metrics:        metrics,
		Health: map[string]app.HealthChecker{
			"postgres": dbpool.Ping,
			"redis": func(ctx context.Context) error {
				return redisClient.Ping(ctx).Err()
			},
		},
	})

	server := &http.Server{
		Addr:              cfg.AppAddr,
		Handler:           router,
		ReadTimeout:       cfg.AppReadTimeout,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server", slog.String("addr", cfg.AppAddr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
