package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"teamreports/bot"
	"teamreports/config"
	controller "teamreports/controllers"
	"teamreports/identity"
	"teamreports/middleware"
	"teamreports/reports"
	"teamreports/routes"
	"teamreports/sheets"
	"teamreports/store"
	"teamreports/templates"
	"teamreports/utils"
)

func main() {
	// Load configuration
	if err := config.LoadConfig(); err != nil {
		logrus.Fatalf("Failed to load configuration: %v", err)
	}
	cfg := config.AppConfig

	utils.SetupLogging(cfg.LogLevel, cfg.Environment)
	if err := utils.SetupSentry(cfg.SentryDSN, cfg.Environment); err != nil {
		logrus.WithError(err).Warn("Sentry disabled")
	}
	defer sentry.Flush(2 * time.Second)

	// Initialize database connection
	db, err := config.ConnectDB()
	if err != nil {
		logrus.Fatalf("Failed to connect to database: %v", err)
	}
	st := store.New(db)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	registry, err := templates.NewRegistry(st, templates.DefaultCatalog())
	if err != nil {
		logrus.Fatalf("Invalid template catalog: %v", err)
	}
	if err := registry.EnsureSynced(ctx); err != nil {
		// Retried on the first templated submission.
		utils.LogError("template_sync_failed", err, nil)
	}

	feed := controller.NewReportFeed()
	reportService := reports.NewService(st, registry).WithPublisher(feed)
	var syncer *sheets.Syncer
	if cfg.SheetsEnabled() {
		client, err := sheets.NewGoogleClient(ctx, cfg.Sheets.SpreadsheetID, cfg.Sheets.CredentialsFile)
		if err != nil {
			logrus.Fatalf("Failed to initialize Google Sheets: %v", err)
		}
		syncer = sheets.NewSyncer(client, st, cfg.Sheets.SpreadsheetID)
		reportService.WithSyncer(syncer, cfg.Sheets.Timeout)
		logrus.WithField("spreadsheet_id", cfg.Sheets.SpreadsheetID).Info("Google Sheets sync enabled")
	} else {
		logrus.Info("Google Sheets sync disabled")
	}

	resolver := identity.NewResolver(st, cfg.Telegram.AdminIDs)

	var messenger bot.Messenger = bot.DisabledMessenger{}
	if cfg.Telegram.BotToken != "" {
		tm, err := bot.NewTelegramMessenger(cfg.Telegram.BotToken, cfg.Telegram.Timeout)
		if err != nil {
			logrus.Fatalf("Failed to initialize Telegram bot: %v", err)
		}
		messenger = tm
	} else {
		logrus.Info("Telegram bot disabled")
	}
	botHandler := bot.NewHandler(messenger, resolver, st, cfg.AppURL)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "teamreports",
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
	})
	app.Use(middleware.CORS(middleware.CORSForOrigins(cfg.CORSOrigins)))

	routes.SetupRoutes(app, routes.Dependencies{
		Store:     st,
		Templates: registry,
		Reports:   reportService,
		Resolver:  resolver,
		Bot:       botHandler,
		Feed:      feed,
		Sheets:    syncer,
	}, routes.Options{
		AuthRequired: cfg.AuthRequired,
		Auth: controller.AuthConfig{
			BotToken:       cfg.Telegram.BotToken,
			JWTSecret:      cfg.JWTSecret,
			JWTTTL:         cfg.JWTTTL,
			InitDataMaxAge: cfg.Telegram.InitDataMaxAge,
		},
		SpreadsheetID:    cfg.Sheets.SpreadsheetID,
		RateLimitReports: cfg.RateLimitReports,
		RateLimitStorage: middleware.NewRateLimitStorage(cfg.Redis),
		AccessLog:        true,
	})

	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
		<-quit
		logrus.Info("Shutting down server")
		if err := app.ShutdownWithTimeout(10 * time.Second); err != nil {
			logrus.WithError(err).Error("Graceful shutdown failed")
		}
	}()

	// Start server
	logrus.Infof("🚀 Server starting on port %s", cfg.ServerPort)
	if err := app.Listen(":" + cfg.ServerPort); err != nil {
		logrus.Fatalf("Failed to start server: %v", err)
	}
}
