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

	"github.com/foliocms/folio/internal/auth/audit"
	httpapi "github.com/foliocms/folio/internal/auth/http"
	"github.com/foliocms/folio/internal/auth/revocation"
	"github.com/foliocms/folio/internal/auth/service"
	"github.com/foliocms/folio/internal/auth/store"
	"github.com/foliocms/folio/internal/auth/store/drivers/sqlite"
	"github.com/foliocms/folio/pkg/cryptox"
	"github.com/foliocms/folio/pkg/jwtx"
	"github.com/foliocms/folio/pkg/slogx"
)

const (
	// BuildVersion should be set at build time via ldflags.
	BuildVersion = "v0.1.0"

	auditRingCapacity = 256
)

// Application encapsulates the auth service with all its dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger

	db          store.Store
	revocations revocation.Store
	auditRing   *audit.Ring

	loginService *service.LoginService
	tokenService *service.TokenService
	mfaService   *service.MFAService

	server *http.Server
	router *httpapi.Router

	stopHousekeeping chan struct{}
}

// New creates an Application with all dependencies initialized. It fails,
// rather than starting degraded, when the signing secrets are missing or
// the database or revocation backend is unreachable.
func New(cfg Config) (*Application, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	app := &Application{
		cfg: cfg,
		logger: slogx.New(slogx.Config{
			Service: "folio-auth",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
		}),
		stopHousekeeping: make(chan struct{}),
	}

	// Set pepper path for password hashing
	cryptox.SetPepperPath(app.cfg.PepperFile)

	if err := app.initDatabase(); err != nil {
		return nil, err
	}
	if err := app.initRevocations(); err != nil {
		_ = app.db.Close()
		return nil, err
	}
	if err := app.initServices(); err != nil {
		_ = app.db.Close()
		return nil, err
	}
	app.initHTTP()

	return app, nil
}

// Run starts the application and blocks until shutdown is requested.
func (app *Application) Run() error {
	go app.housekeepingLoop()

	app.logger.Info("auth service starting", "port", app.cfg.Port, "version", BuildVersion)

	serverErrors := make(chan error, 1)
	go func() {
		serverErrors <- app.server.ListenAndServe()
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server failed: %w", err)
		}
	case sig := <-shutdown:
		app.logger.Info("shutdown signal received", "signal", sig)

		if err := app.Shutdown(); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (app *Application) Shutdown() error {
	app.logger.Info("shutting down auth service...")

	ctx, cancel := context.WithTimeout(context.Background(), app.cfg.ShutdownGracePeriod)
	defer cancel()

	if err := app.server.Shutdown(ctx); err != nil {
		app.logger.Error("graceful server shutdown failed", "error", err)
		if err := app.server.Close(); err != nil {
			app.logger.Error("error closing server", "error", err)
		}
	}

	close(app.stopHousekeeping)

	if closer, ok := app.revocations.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			app.logger.Error("error closing revocation store", "error", err)
		}
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error("error closing database", "error", err)
		return err
	}

	app.logger.Info("auth service stopped")
	return nil
}

// initDatabase initializes the database and applies migrations.
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

// initRevocations selects the revocation backend. Memory is the default;
// Redis shares revocations across replicas and survives restarts.
func (app *Application) initRevocations() error {
	switch app.cfg.RevocationBackend {
	case "redis":
		rev, err := revocation.Dial(context.Background(), app.cfg.RedisAddr)
		if err != nil {
			return fmt.Errorf("failed to connect revocation store: %w", err)
		}
		app.revocations = rev
		app.logger.Info("revocation store connected", "backend", "redis", "addr", app.cfg.RedisAddr)
	default:
		app.revocations = revocation.NewMemory()
		app.logger.Info("revocation store initialized", "backend", "memory")
	}
	return nil
}

// initServices initializes all business logic services.
func (app *Application) initServices() error {
	accessKey, err := jwtx.NewHS256Key([]byte(app.cfg.AccessSecret), app.cfg.Issuer, app.cfg.Audience)
	if err != nil {
		return fmt.Errorf("invalid access token key: %w", err)
	}
	refreshKey, err := jwtx.NewHS256Key([]byte(app.cfg.RefreshSecret), app.cfg.Issuer, app.cfg.Audience)
	if err != nil {
		return fmt.Errorf("invalid refresh token key: %w", err)
	}

	app.auditRing = audit.NewRing(auditRingCapacity)
	events := audit.Multi{
		&audit.SlogSink{Logger: app.logger},
		app.auditRing,
	}

	app.tokenService = &service.TokenService{
		Store:       app.db,
		Revocations: app.revocations,
		Events:      events,
		AccessKey:   accessKey,
		RefreshKey:  refreshKey,
		Issuer:      app.cfg.Issuer,
		Audience:    app.cfg.Audience,
	}
	app.mfaService = &service.MFAService{
		Store:       app.db,
		Events:      events,
		EnrollKey:   accessKey,
		Issuer:      app.cfg.MFAIssuer,
		TokenIssuer: app.cfg.Issuer,
		Audience:    app.cfg.Audience,
	}
	app.loginService = &service.LoginService{
		Store:  app.db,
		Tokens: app.tokenService,
		MFA:    app.mfaService,
		Events: events,
	}

	return nil
}

// initHTTP initializes the HTTP router and server.
func (app *Application) initHTTP() {
	router := httpapi.NewRouter(
		BuildVersion,
		app.db,
		app.revocations,
		app.logger,
	)

	router.LoginService = app.loginService
	router.TokenService = app.tokenService
	router.MFAService = app.mfaService
	router.ApplyRoutes()

	app.router = router

	app.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", app.cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 3 * time.Second,
	}
}

// housekeepingLoop periodically sweeps expired entries out of the in-memory
// revocation store. Redis expires its own keys, so there is nothing to do
// for that backend.
func (app *Application) housekeepingLoop() {
	mem, ok := app.revocations.(*revocation.Memory)
	if !ok {
		return
	}

	ticker := time.NewTicker(app.cfg.HousekeepingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if n := mem.Sweep(); n > 0 {
				app.logger.Debug("revocation sweep", "removed", n, "remaining", mem.Len())
			}
		case <-app.stopHousekeeping:
			return
		}
	}
}
