package main

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ekaya-inc/studysphere/pkg/audit"
	"github.com/ekaya-inc/studysphere/pkg/auth"
	"github.com/ekaya-inc/studysphere/pkg/config"
	"github.com/ekaya-inc/studysphere/pkg/database"
	"github.com/ekaya-inc/studysphere/pkg/handlers"
	"github.com/ekaya-inc/studysphere/pkg/llm"
	"github.com/ekaya-inc/studysphere/pkg/logging"
	"github.com/ekaya-inc/studysphere/pkg/mcp"
	mcpauth "github.com/ekaya-inc/studysphere/pkg/mcp/auth"
	"github.com/ekaya-inc/studysphere/pkg/mcp/tools"
	"github.com/ekaya-inc/studysphere/pkg/metrics"
	"github.com/ekaya-inc/studysphere/pkg/middleware"
	"github.com/ekaya-inc/studysphere/pkg/repositories"
	"github.com/ekaya-inc/studysphere/pkg/retry"
	"github.com/ekaya-inc/studysphere/pkg/services"
)

// Version is set at build time via ldflags
var Version = "dev"

const (
	appName         = "studysphere"
	shutdownTimeout = 15 * time.Second

	// localDevSecret signs tokens in the local environment when JWT_SECRET is unset.
	localDevSecret = "studysphere-local-development-secret"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

type globalFlags struct {
	configPath     string
	logLevel       string
	migrationsPath string
}

func rootCmd() *cobra.Command {
	flags := &globalFlags{}

	cmd := &cobra.Command{
		Use:   appName,
		Short: "Study planner API with AI-generated study plans",
		Long: `StudySphere serves the study planner API: tasks, notes, courses with
uploaded materials, a calendar feed and AI features (study plan generation,
summaries and streaming tutor chat). The same services are exposed to AI
agents as MCP tools.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), flags)
		},
	}

	cmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", config.DefaultPath, "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Log level (debug, info, warn, error); defaults by environment")
	cmd.PersistentFlags().StringVar(&flags.migrationsPath, "migrations", "./migrations", "Directory containing SQL migrations")

	cmd.AddCommand(
		&cobra.Command{
			Use:   "serve",
			Short: "Run the HTTP API server (default)",
			RunE: func(cmd *cobra.Command, args []string) error {
				return runServe(cmd.Context(), flags)
			},
		},
		migrateCmd(flags),
		&cobra.Command{
			Use:   "config",
			Short: "Print the effective configuration as YAML (secrets omitted)",
			RunE: func(cmd *cobra.Command, args []string) error {
				cfg, err := config.LoadFile(flags.configPath, Version)
				if err != nil {
					return fmt.Errorf("load config: %w", err)
				}
				out, err := cfg.Dump()
				if err != nil {
					return err
				}
				_, err = cmd.OutOrStdout().Write(out)
				return err
			},
		},
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Printf("%s version %s\n", appName, Version)
			},
		},
	)

	return cmd
}

// newLogger builds a production logger, or a development logger in the
// local environment. An explicit level overrides the environment default.
func newLogger(cfg *config.Config, level string) (*zap.Logger, error) {
	zapCfg := zap.NewProductionConfig()
	if cfg.IsLocal() {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	if level != "" {
		lvl, err := zap.ParseAtomicLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
		zapCfg.Level = lvl
	}
	return zapCfg.Build()
}

// bootstrap loads config, builds the logger and connects to Postgres.
func bootstrap(ctx context.Context, flags *globalFlags) (*config.Config, *zap.Logger, *database.DB, error) {
	cfg, err := config.LoadFile(flags.configPath, Version)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := newLogger(cfg, flags.logLevel)
	if err != nil {
		return nil, nil, nil, err
	}

	dbCfg := database.ConfigFrom(&cfg.Database)
	logger.Info("Connecting to database",
		zap.String("url", logging.SanitizeConnectionString(dbCfg.URL)))

	retryCfg := retry.DefaultConfig()
	retryCfg.OnRetry = func(attempt int, err error, delay time.Duration) {
		logger.Warn("Database not ready, retrying",
			zap.Int("attempt", attempt),
			zap.Duration("delay", delay),
			zap.String("error", logging.SanitizeError(err)))
	}
	db, err := retry.DoWithResult(ctx, retryCfg, func() (*database.DB, error) {
		return database.NewConnection(ctx, dbCfg)
	})
	if err != nil {
		_ = logger.Sync()
		return nil, nil, nil, fmt.Errorf("connect to database: %w", err)
	}

	return cfg, logger, db, nil
}

func migrateCmd(flags *globalFlags) *cobra.Command {
	var statusOnly bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations and exit",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMigrate(cmd.Context(), flags, statusOnly)
		},
	}
	cmd.Flags().BoolVar(&statusOnly, "status", false, "Print the current schema version without migrating")
	return cmd
}

func runMigrate(ctx context.Context, flags *globalFlags, statusOnly bool) error {
	if ctx == nil {
		ctx = context.Background()
	}
	_, logger, db, err := bootstrap(ctx, flags)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	defer db.Close()

	stdDB := db.StdDB()
	defer stdDB.Close()

	if !statusOnly {
		return database.RunMigrations(stdDB, flags.migrationsPath, logger)
	}

	status, err := database.GetMigrationStatus(stdDB, flags.migrationsPath, logger)
	if err != nil {
		return err
	}
	switch {
	case status.Pristine:
		fmt.Println("no migrations applied")
	case status.Dirty:
		fmt.Printf("version %d (dirty: a migration failed part-way)\n", status.Version)
	default:
		fmt.Printf("version %d\n", status.Version)
	}
	return nil
}

func runServe(ctx context.Context, flags *globalFlags) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, logger, db, err := bootstrap(ctx, flags)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()
	defer db.Close()

	logger.Info("Configuration loaded",
		zap.String("env", cfg.Env),
		zap.String("base_url", cfg.BaseURL),
		zap.Bool("auth_verification", cfg.Auth.EnableVerification),
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.String("llm_model", cfg.LLM.Model),
		zap.Bool("mcp_enabled", cfg.MCP.Enabled))

	stdDB := db.StdDB()
	if err := database.RunMigrations(stdDB, flags.migrationsPath, logger); err != nil {
		_ = stdDB.Close()
		return err
	}
	_ = stdDB.Close()

	redisClient, err := database.NewRedisClient(ctx, &cfg.Redis)
	if err != nil {
		// The cache is optional; materials are read from Postgres without it.
		logger.Warn("Redis unavailable, material cache disabled", zap.Error(err))
		redisClient = nil
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	m := metrics.New()

	llmClient, err := llm.NewClientFromConfig(&cfg.LLM, m, logger)
	if err != nil {
		return fmt.Errorf("create llm client: %w", err)
	}

	// Repositories
	userRepo := repositories.NewUserRepository()
	taskRepo := repositories.NewTaskRepository()
	noteRepo := repositories.NewNoteRepository()
	courseRepo := repositories.NewCourseRepository()
	materialRepo := repositories.NewMaterialRepository()

	// Services
	aggregator := services.NewMaterialAggregator(materialRepo, redisClient,
		cfg.Study.MaterialCharBudget, cfg.Study.MaterialCacheTTL, logger)
	userService := services.NewUserService(userRepo, logger)
	taskService := services.NewTaskService(taskRepo, logger)
	noteService := services.NewNoteService(noteRepo, logger)
	courseService := services.NewCourseService(courseRepo, materialRepo, aggregator, logger)
	planService := services.NewPlanService(aggregator, taskRepo, llmClient, services.PlanOptions{
		MaxTokens:   cfg.Study.PlanMaxTokens,
		Temperature: cfg.Study.PlanTemperature,
	}, m, logger)
	summarizeService := services.NewSummarizeService(llmClient, cfg.Study.SummaryMinChars, logger)
	chatService := services.NewChatService(llmClient, cfg.Study.ChatTemperature, logger)

	// Authentication
	issuer, sessions, authService, err := setupAuth(ctx, cfg, logger)
	if err != nil {
		return err
	}
	authMiddleware := auth.NewMiddleware(authService, logger)
	scopeMiddleware := handlers.ScopeMiddleware(database.WithScopeContext(db, logger))

	mux := http.NewServeMux()

	dependencies := map[string]handlers.Pinger{"database": db}
	if redisClient != nil {
		dependencies["redis"] = database.RedisPinger{Client: redisClient}
	}
	handlers.NewHealthHandler(cfg, dependencies, logger).RegisterRoutes(mux)
	handlers.NewMetricsHandler(m.Handler()).RegisterRoutes(mux)

	handlers.NewAuthHandler(userService, issuer, sessions, audit.NewSecurityAuditor(logger), logger).RegisterRoutes(mux, authMiddleware, scopeMiddleware)
	handlers.NewTaskHandler(taskService, logger).RegisterRoutes(mux, authMiddleware, scopeMiddleware)
	handlers.NewNoteHandler(noteService, logger).RegisterRoutes(mux, authMiddleware, scopeMiddleware)
	handlers.NewCourseHandler(courseService, planService, logger).RegisterRoutes(mux, authMiddleware, scopeMiddleware)
	handlers.NewAIHandler(summarizeService, chatService, logger).RegisterRoutes(mux, authMiddleware)

	if cfg.MCP.Enabled {
		auditLogger := mcp.NewAuditLogger(m, logger)
		mcpServer := mcp.NewServer(mcp.ServerName, cfg.Version, auditLogger.Hooks(), logger)
		tools.RegisterHealthTool(mcpServer.MCP(), cfg.Version)
		tools.RegisterStudyTools(mcpServer.MCP(), &tools.ToolDeps{
			Scopes:           database.NewScopeProvider(db),
			TaskService:      taskService,
			NoteService:      noteService,
			CourseService:    courseService,
			PlanService:      planService,
			SummarizeService: summarizeService,
			Logger:           logger,
		})
		handlers.NewMCPHandler(mcpServer, logger).RegisterRoutes(mux, mcpauth.NewMiddleware(authService, logger))
	}

	handler := middleware.RequestLogger(logger)(middleware.HTTPMetrics(m)(mux))

	return serve(ctx, cfg, handler, logger)
}

// setupAuth builds the local token issuer, the cookie session store and the
// request validator that accepts local and external tokens.
func setupAuth(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*auth.TokenIssuer, *auth.SessionStore, auth.AuthService, error) {
	secret := cfg.Auth.JWTSecret
	if secret == "" && cfg.IsLocal() {
		logger.Warn("JWT_SECRET not set, using the local development secret")
		secret = localDevSecret
	}

	issuer, err := auth.NewTokenIssuer(secret, cfg.Auth.Issuer, cfg.Auth.TokenTTL)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create token issuer: %w", err)
	}

	sessionSecret := cfg.Auth.SessionSecret
	if sessionSecret == "" {
		sessionSecret = secret
	}
	sessions := auth.NewSessionStore(sessionSecret, cfg.Auth.CookieName, cfg.Auth.TokenTTL,
		auth.DeriveCookieSettings(cfg.BaseURL))

	jwksClient, err := auth.NewJWKSClient(ctx, &auth.JWKSConfig{
		EnableVerification: cfg.Auth.EnableVerification,
		JWKSEndpoints:      cfg.Auth.JWKSEndpoints,
		Local:              issuer,
	})
	if err != nil {
		return nil, nil, nil, fmt.Errorf("create JWKS client: %w", err)
	}
	if !cfg.Auth.EnableVerification {
		logger.Warn("JWT signature verification is disabled")
	}

	return issuer, sessions, auth.NewAuthService(jwksClient, sessions, logger), nil
}

// serve runs the HTTP server until ctx is cancelled, then drains in-flight
// requests.
func serve(ctx context.Context, cfg *config.Config, handler http.Handler, logger *zap.Logger) error {
	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.BindAddr, cfg.Port),
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       120 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	useTLS := cfg.TLSCertPath != "" && cfg.TLSKeyPath != ""
	if useTLS {
		srv.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Starting studysphere",
			zap.String("addr", srv.Addr),
			zap.Bool("tls", useTLS),
			zap.String("version", cfg.Version))

		var err error
		if useTLS {
			err = srv.ListenAndServeTLS(cfg.TLSCertPath, cfg.TLSKeyPath)
		} else {
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	return nil
}
