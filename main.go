package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"norwegianopen/internal/alert"
	"norwegianopen/internal/api"
	"norwegianopen/internal/config"
	"norwegianopen/internal/database"
	"norwegianopen/internal/logger"
	"norwegianopen/internal/mailer"
	"norwegianopen/internal/middleware"
	"norwegianopen/internal/monitoring"
	"norwegianopen/internal/notification"
	"norwegianopen/internal/openfga"
	"norwegianopen/internal/pricing"
	"norwegianopen/internal/repository"
	"norwegianopen/internal/service"
	"norwegianopen/internal/sheets"
	"norwegianopen/internal/storage"
	"norwegianopen/internal/telemetry"
	"norwegianopen/internal/validator"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/gofiber/storage/postgres/v3"
	"github.com/redis/go-redis/v9"
)

func main() {
	if err := run(context.Background()); err != nil {
		slog.Error("Server stopped", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.New(*cfg).Logger

	tel, err := monitoring.NewOpenTelemetry(cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := tel.Shutdown(shutdownCtx); err != nil {
			log.Error("Failed to shut down telemetry", "error", err)
		}
	}()

	// Database
	db := database.NewDatabase()
	if err := db.Connect(ctx, cfg.Database.DSN(), cfg.Database.MaxOpenConns); err != nil {
		return err
	}
	defer db.Close()

	applied, err := database.Migrate(cfg.Database.DSN(), "migrations")
	if err != nil {
		return err
	}
	log.Info("Database migrations checked", "applied", applied)

	repo := repository.NewPostgresRepository(&db)

	table, err := pricing.NewTable(cfg.Event)
	if err != nil {
		return fmt.Errorf("invalid event configuration: %w", err)
	}

	renderer, err := notification.NewRenderer(notification.Settings{
		EventName: cfg.Event.Name,
		BaseURL:   cfg.Server.BaseURL,
		Organiser: cfg.Mail.Organiser,
		Location:  table.Location,
	})
	if err != nil {
		return err
	}

	mail, err := mailer.New(cfg.Mail, log)
	if err != nil {
		return err
	}

	var alerts alert.Notifier = alert.Nop{}
	if cfg.Telegram.Enabled() {
		bot, err := alert.NewTelegram(cfg.Telegram.BotToken, cfg.Telegram.ChatID)
		if err != nil {
			return err
		}
		alerts = bot
	}

	// Admin relation lives in OpenFGA when enabled, in the admin_users table otherwise.
	var authorizer service.AdminAuthorizer
	if cfg.OpenFGA.Enabled {
		client, err := openfga.NewClient(ctx, cfg.OpenFGA, log)
		if err != nil {
			return err
		}
		authorizer = openfga.NewAdminAuthorizer(client, cfg.OpenFGA.Object)
	}

	var loginLimiter service.LoginLimiter = service.NewMemoryRateLimiter(cfg.Security.MaxLoginAttempts, cfg.Security.LoginWindow)
	if cfg.Redis.Addr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			return fmt.Errorf("failed to connect to redis: %w", err)
		}
		loginLimiter = service.NewRateLimiter(rdb, cfg.Security.MaxLoginAttempts, cfg.Security.LoginWindow)
	}

	fileStore, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return err
	}

	var sheetWriter service.SheetWriter
	if cfg.Sheets.Enabled() {
		client, err := sheets.New(ctx, cfg.Sheets.ServiceAccountJSON, cfg.Sheets.SpreadsheetID)
		if err != nil {
			return err
		}
		sheetWriter = client
	}

	deps := service.Deps{
		Repo:      repo,
		Table:     table,
		Validator: validator.New(),
		Renderer:  renderer,
		Mailer:    mail,
		Alerts:    alerts,
		Metrics:   tel,
		Logger:    log,
	}
	registrations := service.NewRegistrationService(deps)
	services := api.Services{
		Registrations: registrations,
		Hotels:        service.NewHotelService(deps),
		Mail: service.NewMailService(deps, service.MailSettings{
			Organiser:      cfg.Mail.Organiser,
			TestRecipients: cfg.Mail.TestRecipients,
			BatchSize:      cfg.Mail.BatchSize,
		}),
		Auth:      service.NewAuthService(repo, authorizer, loginLimiter, deps.Validator, log),
		Dashboard: service.NewDashboardService(registrations),
		Exports:   service.NewExportService(deps, fileStore, sheetWriter, cfg.Storage.URLExpiry),
	}

	// Sessions are kept in postgres next to the data
	sessionStorage := postgres.New(postgres.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		Database: cfg.Database.Name,
		Username: cfg.Database.User,
		Password: cfg.Database.Password,
		Table:    cfg.Database.SessionTable,
		Reset:    false,
	})
	defer sessionStorage.Close()

	store := session.New(session.Config{
		Storage:        sessionStorage,
		KeyLookup:      "cookie:session_id",
		CookiePath:     "/",
		CookieSecure:   cfg.Security.CookieSecure,
		CookieHTTPOnly: true,
		CookieSameSite: "Lax",
		Expiration:     cfg.Security.SessionExpiration,
	})

	security := middleware.NewSecurityMiddleware(middleware.SecurityConfig{
		FormRateLimit:  cfg.Security.FormRateLimit,
		FormRateWindow: cfg.Security.FormRateWindow,
	}, log)

	var csrfHandler fiber.Handler
	if cfg.Security.CSRFEnabled {
		csrfHandler = api.CSRF(cfg.Security.CookieSecure)
	}

	app := api.NewApp(api.AppConfig{
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		Middleware:   []fiber.Handler{telemetry.FiberMiddleware(cfg.Telemetry.ServiceName)},
	}, log)
	api.NewHandler(store, repo, services, log, cfg.Telemetry.ServiceVersion).RegisterRoutes(app, security, csrfHandler)

	errCh := make(chan error, 1)
	go func() {
		addr := cfg.Server.Host + ":" + cfg.Server.Port
		log.Info("Starting server", "addr", addr, "environment", cfg.Server.Environment)
		errCh <- app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
