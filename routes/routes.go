package routes

import (
	"teamreports/bot"
	controller "teamreports/controllers"
	"teamreports/identity"
	"teamreports/middleware"
	"teamreports/reports"
	"teamreports/sheets"
	"teamreports/store"
	"teamreports/templates"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/websocket/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

// Options carries the settings the HTTP surface needs from configuration.
type Options struct {
	AuthRequired     bool
	Auth             controller.AuthConfig
	SpreadsheetID    string
	RateLimitReports int
	RateLimitStorage fiber.Storage
	AccessLog        bool
}

// Dependencies are the long-lived services the handlers call into.
type Dependencies struct {
	Store     *store.Store
	Templates *templates.Registry
	Reports   *reports.Service
	Resolver  *identity.Resolver
	Bot       *bot.Handler
	Feed      *controller.ReportFeed
	// Sheets is nil when Google Sheets is not configured.
	Sheets    *sheets.Syncer
}

var accessLogFormat = "[${time}] ${status} - ${latency} ${method} ${path}\n"

func SetupAPIRoutes(app *fiber.App, deps Dependencies, opts Options) {
	reportController := controller.NewReportController(deps.Store, deps.Reports, logrus.WithField("component", "reports"))
	teamController := controller.NewTeamController(deps.Store, deps.Templates, logrus.WithField("component", "teams"))
	userController := controller.NewUserController(deps.Store, logrus.WithField("component", "users"))
	templateController := controller.NewTemplateController(deps.Store, deps.Templates)
	sheetsController := controller.NewSheetsController(opts.SpreadsheetID, deps.Sheets, deps.Store, deps.Templates, logrus.WithField("component", "sheets"))
	authController := controller.NewAuthController(deps.Store, deps.Resolver, opts.Auth, logrus.WithField("component", "auth"))

	handlers := []fiber.Handler{}
	if opts.AccessLog {
		handlers = append(handlers, logger.New(logger.Config{Format: accessLogFormat}))
	}
	api := app.Group("/api", handlers...)

	// Public auth endpoints
	auth := api.Group("/auth")
	auth.Post("/telegram", authController.TelegramLogin)

	api.Get("/me", middleware.Protected(opts.Auth.JWTSecret), authController.GetCurrentUser)

	session := middleware.Session(opts.Auth.JWTSecret, opts.AuthRequired)
	adminOnly := middleware.AdminOnly(opts.AuthRequired)

	// Report routes with rate limiting on submission
	reportRoutes := api.Group("/reports", session)
	reportRoutes.Get("/", reportController.GetReports)
	reportRoutes.Post("/", middleware.RateLimiter("reports", opts.RateLimitReports, opts.RateLimitStorage), reportController.CreateReport)
	reportRoutes.Patch("/", reportController.UpdateReport)

	// Team routes
	teams := api.Group("/teams", session)
	teams.Get("/", teamController.GetTeams)
	teams.Get("/stats", teamController.GetTeamStats)
	teams.Post("/", adminOnly, teamController.CreateTeam)
	teams.Patch("/", adminOnly, teamController.UpdateTeam)
	teams.Delete("/", adminOnly, teamController.DeleteTeam)

	// User routes
	users := api.Group("/users", session)
	users.Get("/", userController.GetUsers)
	users.Post("/", adminOnly, userController.CreateUser)
	users.Patch("/", adminOnly, userController.UpdateUser)

	// Template routes
	tpl := api.Group("/templates", session)
	tpl.Get("/", templateController.GetTemplates)
	tpl.Patch("/", adminOnly, templateController.AssignTemplate)

	// Spreadsheet routes
	sheetRoutes := api.Group("/sheets", session)
	sheetRoutes.Get("/", sheetsController.GetSheetURL)
	sheetRoutes.Get("/tabs", sheetsController.GetSheetTabs)
	sheetRoutes.Post("/", adminOnly, sheetsController.AppendSheetRow)

	// WebSocket route for the live report feed
	api.Get("/ws/reports", session, func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}, websocket.New(deps.Feed.HandleReportFeedWS))

	logrus.Info("API routes initialized successfully")
}

func SetupRoutes(app *fiber.App, deps Dependencies, opts Options) {
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	webhookController := controller.NewWebhookController(deps.Bot)
	app.Post("/webhook", middleware.RateLimiter("webhook", opts.RateLimitReports*10, opts.RateLimitStorage), webhookController.HandleTelegramWebhook)

	SetupAPIRoutes(app, deps, opts)

	// Setup 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"error":   "Not Found",
			"details": "The requested resource was not found",
		})
	})
}
