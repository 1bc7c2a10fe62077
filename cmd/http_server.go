package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"

	"github.com/frahmantamala/portal-admin/api"
	"github.com/frahmantamala/portal-admin/internal"
	"github.com/frahmantamala/portal-admin/internal/auth"
	authPostgres "github.com/frahmantamala/portal-admin/internal/auth/postgres"
	"github.com/frahmantamala/portal-admin/internal/authz"
	"github.com/frahmantamala/portal-admin/internal/category"
	categoryPostgres "github.com/frahmantamala/portal-admin/internal/category/postgres"
	"github.com/frahmantamala/portal-admin/internal/core/events"
	"github.com/frahmantamala/portal-admin/internal/document"
	documentPostgres "github.com/frahmantamala/portal-admin/internal/document/postgres"
	"github.com/frahmantamala/portal-admin/internal/module"
	"github.com/frahmantamala/portal-admin/internal/permission"
	permissionPostgres "github.com/frahmantamala/portal-admin/internal/permission/postgres"
	"github.com/frahmantamala/portal-admin/internal/transport"
	"github.com/frahmantamala/portal-admin/internal/transport/middleware"
	"github.com/frahmantamala/portal-admin/internal/transport/rest"
	"github.com/frahmantamala/portal-admin/internal/user"
	userPostgres "github.com/frahmantamala/portal-admin/internal/user/postgres"
	"github.com/frahmantamala/portal-admin/pkg/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config   *internal.Config
	DB       *sqlx.DB
	Gorm     *gorm.DB
	Router   *chi.Mux
	Logger   *slog.Logger
	Services *Services
}

// Services is the object graph shared by the server and the maintenance
// commands.
type Services struct {
	Bus         *events.EventBus
	Registry    *module.Registry
	Categories  *category.Service
	Permissions *permission.Service
	Evaluator   *authz.Evaluator
	Users       *user.Service
	Documents   *document.Service
	Auth        *auth.Service
	Tokens      *auth.JWTTokenGenerator
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	if err := setupRoutes(deps); err != nil {
		deps.Logger.Error("failed to set up routes", "error", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("Starting HTTP server", "address", addr, "environment", deps.Config.Environment)

	server := &http.Server{
		Addr:              addr,
		Handler:           http.TimeoutHandler(deps.Router, deps.Config.Server.RequestTimeout, `{"error":{"type":"UNAVAILABLE","code":"TIMEOUT","message":"request timed out"}}`),
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("Server shutdown error", "error", err)
		}
		if err := deps.Services.Bus.Drain(ctx); err != nil {
			deps.Logger.Error("Event handlers did not finish", "error", err)
		}
		if err := deps.DB.Close(); err != nil {
			deps.Logger.Error("Database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("Server stopped")
}

func setupRoutes(deps *Dependencies) error {
	svc := buildServices(deps.Gorm, deps.Config, deps.Logger)
	deps.Services = svc

	validator, err := middleware.NewRequestValidator(api.OpenAPISpec, deps.Logger)
	if err != nil {
		return err
	}

	base := transport.NewBaseHandler(deps.Logger)
	handlers := rest.Handlers{
		Auth:       auth.NewHandler(base, svc.Auth),
		User:       user.NewHandler(base, svc.Users),
		Module:     module.NewHandler(base, svc.Registry),
		Permission: permission.NewHandler(base, svc.Permissions),
		Category:   category.NewHandler(base, svc.Categories),
		Document:   document.NewHandler(base, svc.Documents),
		Health:     rest.NewHealthHandler(deps.DB, svc.Registry),
	}

	rest.RegisterAllRoutes(deps.Router, handlers,
		middleware.NewAuthorization(svc.Evaluator, deps.Logger),
		validator,
		rest.RouterOptions{
			Production:        deps.Config.Environment == "production",
			AdminRequestLimit: deps.Config.Admin.RequestsPerMinute,
		},
		deps.Logger,
	)
	return nil
}

func buildServices(db *gorm.DB, cfg *internal.Config, lg *slog.Logger) *Services {
	bus := events.NewEventBus(lg)
	events.RegisterAuditLog(bus, lg)

	userRepo := userPostgres.NewUserRepository(db)

	categories := category.NewService(categoryPostgres.NewCategoryRepository(db), bus, lg)
	registry := module.NewRegistry(categories, lg)
	permissions := permission.NewService(permissionPostgres.NewPermissionRepository(db), registry, userRepo, bus, lg)
	evaluator := authz.NewEvaluator(registry, permissions, lg)
	tokens := auth.NewJWTTokenGenerator(cfg.Security.JWTSecret, cfg.Security.AccessTokenDuration)

	return &Services{
		Bus:         bus,
		Registry:    registry,
		Categories:  categories,
		Permissions: permissions,
		Evaluator:   evaluator,
		Users:       user.NewService(userRepo, permissions, bus, cfg.Security.BCryptCost, lg),
		Documents:   document.NewService(documentPostgres.NewDocumentRepository(db), categories, evaluator, lg),
		Auth:        auth.NewService(tokens, authPostgres.NewRepository(db), lg),
		Tokens:      tokens,
	}
}

func initializeDependencies() (*Dependencies, error) {
	config := mustLoadConfig()
	lg := logger.LoggerWrapper()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	gdb, err := initGorm(db, config.Environment)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	return &Dependencies{
		Config: config,
		Logger: lg,
		DB:     db,
		Gorm:   gdb,
		Router: chi.NewRouter(),
	}, nil
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := dbConn.Ping(); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return dbConn, nil
}

// initGorm shares the sqlx pool with gorm so both see one set of connections.
func initGorm(db *sqlx.DB, env string) (*gorm.DB, error) {
	level := gormLogger.Warn
	if env != "production" {
		level = gormLogger.Info
	}

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db.DB}), &gorm.Config{
		Logger: gormLogger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open gorm: %w", err)
	}
	return gdb, nil
}
