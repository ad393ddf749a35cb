package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpapi "github.com/estatehq/backoffice/internal/backoffice/http"
	"github.com/estatehq/backoffice/internal/backoffice/media"
	"github.com/estatehq/backoffice/internal/backoffice/notify"
	"github.com/estatehq/backoffice/internal/backoffice/service"
	"github.com/estatehq/backoffice/internal/backoffice/store"
	"github.com/estatehq/backoffice/internal/backoffice/store/drivers/sqlite"
	"github.com/estatehq/backoffice/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags. Later problem
	BuildVersion = "v0.1.0"
)

// Application encapsulates the back-office service with all its dependencies
type Application struct {
	cfg    Config
	logger *slog.Logger

	// Core dependencies
	db       store.Store
	mailer   *notify.Mailer
	uploader *media.Uploader

	// Services
	clientService       *service.ClientService
	adminService        *service.AdminService
	agencyService       *service.AgencyService
	otpService          *service.OTPService
	housekeepingService *service.HousekeepingService

	// HTTP server
	server *http.Server
	router *httpapi.Router
}

// New creates a new Application instance with all dependencies initialized
func New(cfg Config) (*Application, error) {
	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "backoffice",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
	}

	if err := app.initDatabase(); err != nil {
		return nil, err
	}

	app.initCollaborators()
	app.initServices()
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested
func (app *Application) Run() error {
	// Start housekeeping service
	app.housekeepingService.Start()

	app.logger.Info("backoffice service starting", "port", app.cfg.Port, "version", BuildVersion)

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	// Setup signal handling for graceful shutdown
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Block until we receive a shutdown signal or server error
	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		// Perform graceful shutdown
		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down backoffice service...")

	// Give outstanding requests a deadline for completion
	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	// Shutdown the HTTP server
	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	// Stop the housekeeping service
	app.housekeepingService.Stop()

	// Close database connection
	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("backoffice service stopped")
	return nil
}

// initDatabase initializes the database and applies migrations
func (app *Application) initDatabase() error {
	host := fmt.Sprintf("file:%s?_busy_timeout=5000&_journal_mode=WAL", app.cfg.DatabaseFile)
	db, err := sqlite.NewStore(host)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	app.db = db

	if err := db.ApplyMigrations(); err != nil {
		_ = db.Close()
		return fmt.Errorf("failed to apply database migrations: %w", err)
	}

	app.logger.Info("database migrations applied successfully")
	return nil
}

// initCollaborators initializes the outbound mail and media clients
func (app *Application) initCollaborators() {
	app.mailer = notify.NewMailer(app.cfg.MailAPIBaseURL, app.cfg.MailAPIKey, app.cfg.MailFrom)
	app.uploader = media.NewUploader(app.cfg.MediaBaseURL, app.cfg.MediaPreset)

	if app.cfg.MailAPIBaseURL == "" {
		app.logger.Warn("mail API base URL not configured, code dispatch will fail")
	}
	if app.cfg.MediaBaseURL == "" {
		app.logger.Warn("media host base URL not configured, uploads will fail")
	}
}

// initServices initializes all business logic services
func (app *Application) initServices() {
	app.clientService = &service.ClientService{Store: app.db}
	app.adminService = &service.AdminService{Store: app.db}
	app.agencyService = &service.AgencyService{Store: app.db}

	app.otpService = &service.OTPService{
		Store:  app.db,
		Mailer: app.mailer,
		TTL:    app.cfg.OTPSessionTTL,
	}

	app.housekeepingService = service.NewHousekeepingService(
		app.db,
		app.logger,
		app.cfg.HousekeepingInterval,
	)
}

// initHTTP initializes the HTTP router and server
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(BuildVersion, app.db, app.logger)

	// Wire services to router
	router.ClientService = app.clientService
	router.AdminService = app.adminService
	router.AgencyService = app.agencyService
	router.OTPService = app.otpService
	router.Uploader = app.uploader
	router.RequireVerification = app.cfg.RequireVerification
	router.MailerConfigured = app.cfg.MailAPIBaseURL != ""
	router.ApplyRoutes()

	app.router = router

	// Initialize HTTP server
	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}
