package main

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	_ "github.com/jackc/pgx/v5/stdlib"

	secconfig "feedstream/internal/config"
	pgRepo "feedstream/internal/infra/adapter/persistence/postgres"
	"feedstream/internal/infra/db"
	"feedstream/pkg/config"
	"feedstream/pkg/ratelimit"
	"feedstream/pkg/security/csp"

	hhttp "feedstream/internal/handler/http"
	"feedstream/internal/handler/http/greader"
	greaderauth "feedstream/internal/handler/http/greader/auth"
	"feedstream/internal/handler/http/middleware"
	"feedstream/internal/handler/http/requestid"
	"feedstream/internal/observability/tracing"
	authsvc "feedstream/internal/service/auth"
	"feedstream/internal/usecase/streamengine"
)

// @title           Feedstream Sync API
// @version         1.0
// @description     GReader-compatible aggregation and sync API (spec.md §4.8/§6).

// @license.name  MIT
// @license.url   https://opensource.org/licenses/MIT

// @host      localhost:8080
// @BasePath  /

func main() {
	logger := initLogger()

	shutdownTracing := tracing.InitTracer("feedstream-api")
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			logger.Error("failed to shut down tracer provider", slog.Any("error", err))
		}
	}()

	database := initDatabase(logger)
	defer func() {
		if err := database.Close(); err != nil {
			logger.Error("failed to close database", slog.Any("error", err))
		}
	}()

	version := getVersion()
	components := setupServer(logger, database, version)

	runServer(logger, components, version)
}

func initLogger() *slog.Logger {
	logLevel := slog.LevelInfo
	if os.Getenv("LOG_LEVEL") == "debug" {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)
	return logger
}

// initDatabase opens the database connection and runs migrations.
func initDatabase(logger *slog.Logger) *sql.DB {
	database := db.Open()
	if err := db.MigrateUp(database); err != nil {
		logger.Error("failed to migrate database", slog.Any("error", err))
		os.Exit(1)
	}
	return database
}

// loadCredentialRequirements loads the password policy enforced by the Auth
// Service's PasswordProvider (C9) from CREDENTIAL_POLICY_PATH, if set,
// falling back to a built-in policy when no file is configured. A malformed
// file at a configured path is fatal, since it signals an operator mistake
// rather than an absent optional feature.
func loadCredentialRequirements(logger *slog.Logger) authsvc.CredentialRequirements {
	defaults := authsvc.CredentialRequirements{
		MinPasswordLength: 12,
		WeakPasswords:     []string{"password", "123456", "admin", "test", "secret"},
	}

	path := os.Getenv("CREDENTIAL_POLICY_PATH")
	if path == "" {
		return defaults
	}

	policy, err := secconfig.LoadCredentialPolicy(path)
	if err != nil {
		logger.Error("failed to load credential policy", slog.String("path", path), slog.Any("error", err))
		os.Exit(1)
	}

	logger.Info("credential policy loaded from file",
		slog.String("path", path),
		slog.Int("min_password_length", policy.GetMinPasswordLength()))

	return authsvc.CredentialRequirements{
		MinPasswordLength: policy.GetMinPasswordLength(),
		WeakPasswords:     policy.GetWeakPasswords(),
	}
}

func getVersion() string {
	version := os.Getenv("VERSION")
	if version == "" {
		version = "dev"
	}
	return version
}

// ServerComponents holds components needed for server operation and cleanup.
type ServerComponents struct {
	Handler  http.Handler
	IPStore  *ratelimit.InMemoryRateLimitStore
	IPWindow time.Duration
}

// setupServer configures and returns the HTTP handler with all routes and middleware.
func setupServer(logger *slog.Logger, database *sql.DB, version string) *ServerComponents {
	feeds := pgRepo.NewFeedRepo(database)
	groups := pgRepo.NewFeedGroupRepo(database)
	articles := pgRepo.NewArticleRepo(database)
	users := pgRepo.NewUserRepo(database)
	tokens := pgRepo.NewAuthTokenRepo(database)

	engine := streamengine.New(feeds, groups, articles)

	passwordProvider := authsvc.NewPasswordProvider(users, loadCredentialRequirements(logger))
	tokenIssuer := authsvc.NewTokenIssuer(tokens, users)
	authService := authsvc.NewAuthService(passwordProvider, tokenIssuer, greaderauth.PublicPaths)

	// Load rate limiting configuration (spec.md's ambient stack — GReader
	// itself has no rate-limit contract, but every inbound request still
	// goes through the teacher's IP-based limiter).
	rateLimitConfig, err := config.LoadRateLimitConfig()
	if err != nil {
		logger.Error("failed to load rate limit configuration", slog.Any("error", err))
		os.Exit(1)
	}

	proxyConfig, err := middleware.LoadTrustedProxyConfig()
	if err != nil {
		logger.Error("failed to load trusted proxy configuration", slog.Any("error", err))
		os.Exit(1)
	}

	var ipExtractor middleware.IPExtractor
	if proxyConfig.Enabled {
		ipExtractor = middleware.NewTrustedProxyExtractor(*proxyConfig)
		logger.Info("rate limiting: trusted proxy mode enabled",
			slog.Int("trusted_proxies_count", len(proxyConfig.AllowedCIDRs)))
	} else {
		ipExtractor = &middleware.RemoteAddrExtractor{}
		logger.Info("rate limiting: using RemoteAddr (secure mode, proxy headers ignored)")
	}

	var ipRateLimiter *middleware.IPRateLimiter
	var ipStore *ratelimit.InMemoryRateLimitStore

	if rateLimitConfig.Enabled {
		ipStore = ratelimit.NewInMemoryRateLimitStore(ratelimit.InMemoryStoreConfig{
			MaxKeys: rateLimitConfig.MaxActiveKeys,
		})

		algorithm := ratelimit.NewSlidingWindowAlgorithm(&ratelimit.SystemClock{})
		metrics := ratelimit.NewPrometheusMetrics()

		ipCircuitBreaker := ratelimit.NewCircuitBreaker(ratelimit.CircuitBreakerConfig{
			FailureThreshold: rateLimitConfig.CircuitBreakerFailureThreshold,
			RecoveryTimeout:  rateLimitConfig.CircuitBreakerResetTimeout,
		})

		ipRateLimiter = middleware.NewIPRateLimiter(
			middleware.IPRateLimiterConfig{
				Limit:   rateLimitConfig.DefaultIPLimit,
				Window:  rateLimitConfig.DefaultIPWindow,
				Enabled: true,
			},
			ipExtractor,
			ipStore,
			algorithm,
			metrics,
			ipCircuitBreaker,
		)

		logger.Info("rate limiting initialized",
			slog.Bool("enabled", true),
			slog.Int("ip_limit", rateLimitConfig.DefaultIPLimit),
			slog.Duration("ip_window", rateLimitConfig.DefaultIPWindow),
			slog.Int("max_keys", rateLimitConfig.MaxActiveKeys),
		)
	} else {
		logger.Warn("rate limiting is DISABLED - not recommended for production")
	}

	router := setupRoutes(database, version, engine, authService)
	handler := applyMiddleware(logger, router, ipRateLimiter)

	return &ServerComponents{
		Handler:  handler,
		IPStore:  ipStore,
		IPWindow: rateLimitConfig.DefaultIPWindow,
	}
}

// setupRoutes registers the public health/metrics surface and the
// GReader-compatible sync API (spec.md §4.8/§6) behind greader.Register's
// own per-route auth.
func setupRoutes(database *sql.DB, version string, engine *streamengine.Engine, authService *authsvc.AuthService) chi.Router {
	r := chi.NewRouter()

	r.Handle("/health", &hhttp.HealthHandler{DB: database, Version: version})
	r.Handle("/ready", &hhttp.ReadyHandler{DB: database})
	r.Handle("/live", &hhttp.LiveHandler{})
	r.Handle("/metrics", hhttp.MetricsHandler())

	greader.Register(r, engine, authService)

	return r
}

// applyMiddleware wraps the handler with middleware chain.
// Middleware order: Tracing → CORS → Request ID → IP Rate Limit → Recovery → Logging → Body Limit → CSP → Metrics
func applyMiddleware(logger *slog.Logger, handler http.Handler, ipRateLimiter *middleware.IPRateLimiter) http.Handler {
	corsConfig, err := middleware.LoadCORSConfig()
	if err != nil {
		logger.Error("failed to load CORS configuration", slog.Any("error", err))
		os.Exit(1)
	}
	corsConfig.Logger = &middleware.SlogAdapter{Logger: logger}

	logger.Info("CORS enabled",
		slog.Int("allowed_origins_count", len(corsConfig.Validator.GetAllowedOrigins())),
		slog.Any("allowed_methods", corsConfig.AllowedMethods),
		slog.Any("allowed_headers", corsConfig.AllowedHeaders),
		slog.Int("max_age", corsConfig.MaxAge))

	cspConfig, err := config.LoadCSPConfig()
	if err != nil {
		logger.Error("failed to load CSP configuration", slog.Any("error", err))
		os.Exit(1)
	}

	var cspMiddleware func(http.Handler) http.Handler
	if cspConfig.Enabled {
		cspMW := middleware.NewCSPMiddleware(middleware.CSPMiddlewareConfig{
			Enabled:       true,
			DefaultPolicy: csp.StrictPolicy(),
			ReportOnly:    cspConfig.ReportOnly,
		})
		cspMiddleware = cspMW.Middleware()
		logger.Info("CSP enabled", slog.Bool("report_only", cspConfig.ReportOnly))
	} else {
		cspMiddleware = func(next http.Handler) http.Handler { return next }
		logger.Warn("CSP is disabled")
	}

	middlewareChain := handler
	middlewareChain = hhttp.MetricsMiddleware(middlewareChain)
	middlewareChain = cspMiddleware(middlewareChain)
	middlewareChain = hhttp.LimitRequestBody(1 << 20)(middlewareChain) // 1MB limit
	middlewareChain = hhttp.Logging(logger)(middlewareChain)
	middlewareChain = hhttp.Recover(logger)(middlewareChain)

	if ipRateLimiter != nil {
		middlewareChain = ipRateLimiter.Middleware()(middlewareChain)
	}

	middlewareChain = requestid.Middleware(middlewareChain)
	middlewareChain = middleware.CORS(*corsConfig)(middlewareChain)
	middlewareChain = tracing.Middleware(middlewareChain)

	return middlewareChain
}

// runServer starts the HTTP server and handles graceful shutdown.
func runServer(logger *slog.Logger, components *ServerComponents, version string) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cleanupCfg := hhttp.LoadCleanupConfigFromEnv()

	if components.IPStore != nil {
		go hhttp.StartRateLimitCleanup(ctx, components.IPStore, cleanupCfg.Interval, components.IPWindow, "ip")
		logger.Info("IP rate limit cleanup started",
			slog.Duration("interval", cleanupCfg.Interval),
			slog.Duration("window", components.IPWindow))
	}

	srv := &http.Server{
		Addr:              ":8080",
		Handler:           components.Handler,
		ReadHeaderTimeout: 10 * time.Second, // Prevent Slowloris attacks
		BaseContext: func(_ net.Listener) context.Context {
			return ctx
		},
	}

	go func() {
		logger.Info("server starting",
			slog.String("addr", ":8080"),
			slog.String("version", version))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", slog.Any("error", err))
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("shutting down server...")

	cancel()
	logger.Debug("background cleanup goroutines cancelled")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", slog.Any("error", err))
	}
	logger.Info("server stopped")
}
