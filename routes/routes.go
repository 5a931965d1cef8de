package routes

import (
	"log"
	"os"

	controller "mailsift/controllers"
	"mailsift/middleware"
	"mailsift/sanitizer"
	"mailsift/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/websocket/v2"
	"gorm.io/gorm"
)

func SetupAPIRoutes(app *fiber.App, db *gorm.DB, s *sanitizer.Sanitizer, mailer *utils.Mailer) {
	// Initialize controllers with their respective loggers
	sanitizerController := controller.NewSanitizerController(db, s, log.New(os.Stdout, "SANITIZER: ", log.LstdFlags))
	listController := controller.NewListController(db, s, log.New(os.Stdout, "LIST: ", log.LstdFlags))
	templateController := controller.NewTemplateController(db, log.New(os.Stdout, "TEMPLATE: ", log.LstdFlags))
	campaignController := controller.NewCampaignController(db, mailer, log.New(os.Stdout, "CAMPAIGN: ", log.LstdFlags))
	trackingController := controller.NewTrackingController(db, log.New(os.Stdout, "TRACKING: ", log.LstdFlags))
	dashboardController := controller.NewDashboardController(db, log.New(os.Stdout, "DASHBOARD: ", log.LstdFlags))
	suppressionController := controller.NewSuppressionController(db, log.New(os.Stdout, "SUPPRESSION: ", log.LstdFlags))
	settingsController := controller.NewSettingsController(db, mailer, log.New(os.Stdout, "SETTINGS: ", log.LstdFlags))

	// API group with request logging
	api := app.Group("/api/v1", logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))

	// Sanitizer routes with rate limiting on the expensive endpoints
	san := api.Group("/sanitizer")
	san.Post("/sanitize", middleware.SanitizerRateLimiter(), sanitizerController.Sanitize)
	san.Post("/check", middleware.SanitizerRateLimiter(), sanitizerController.CheckEmail)
	san.Post("/jobs", middleware.SanitizerRateLimiter(), sanitizerController.CreateJob)
	san.Get("/jobs", sanitizerController.ListJobs)
	san.Get("/jobs/:id", sanitizerController.GetJob)
	san.Get("/jobs/:id/entries", sanitizerController.GetJobEntries)
	san.Get("/jobs/:id/export.csv", sanitizerController.ExportValidCSV)
	san.Get("/domains/:domain", sanitizerController.InspectDomain)

	// WebSocket route for job progress
	app.Get("/api/v1/sanitizer/jobs/:id/ws", websocket.New(func(c *websocket.Conn) {
		controller.HandleJobProgressWS(c)
	}))

	// Recipient list routes
	list := api.Group("/lists")
	list.Post("/", listController.CreateList)
	list.Get("/", listController.GetLists)
	list.Get("/:id", listController.GetList)
	list.Put("/:id", listController.UpdateList)
	list.Delete("/:id", listController.DeleteList)
	list.Post("/:id/import", listController.ImportRecipients)
	list.Post("/:id/clean", sanitizerController.CleanList)
	list.Get("/:id/recipients", listController.GetRecipients)
	list.Delete("/:id/recipients/:recipientId", listController.DeleteRecipient)

	// Template routes
	template := api.Group("/templates")
	template.Post("/", templateController.CreateTemplate)
	template.Get("/", templateController.GetTemplates)
	template.Get("/:id", templateController.GetTemplate)
	template.Put("/:id", templateController.UpdateTemplate)
	template.Delete("/:id", templateController.DeleteTemplate)

	// Campaign routes
	campaign := api.Group("/campaigns")
	campaign.Post("/", campaignController.CreateCampaign)
	campaign.Get("/", campaignController.GetCampaigns)
	campaign.Get("/:id", campaignController.GetCampaign)
	campaign.Put("/:id", campaignController.UpdateCampaign)
	campaign.Delete("/:id", campaignController.DeleteCampaign)
	campaign.Post("/:id/send", campaignController.SendCampaign)
	campaign.Post("/:id/cancel", campaignController.CancelCampaign)
	campaign.Get("/:id/stats", campaignController.GetCampaignStats)

	// Public tracking endpoints, outside /api/v1
	app.Get("/track/open/:campaignID/:token", trackingController.TrackOpen)
	app.Get("/track/click/:campaignID/:token", trackingController.TrackClick)

	// Dashboard
	api.Get("/dashboard", dashboardController.GetDashboard)

	// Suppression and bounce routes
	suppression := api.Group("/suppressions")
	suppression.Get("/", suppressionController.GetSuppressions)
	suppression.Post("/", suppressionController.AddSuppression)
	suppression.Delete("/:id", suppressionController.DeleteSuppression)
	api.Get("/bounces", suppressionController.GetBounces)

	// Settings
	settings := api.Group("/settings")
	settings.Get("/", settingsController.GetSettings)
	settings.Put("/", settingsController.UpdateSettings)
	settings.Post("/test-email", settingsController.SendTestEmail)

	// Log initialization
	log.Println("API routes initialized successfully")
}

func SetupRoutes(app *fiber.App, db *gorm.DB, s *sanitizer.Sanitizer, mailer *utils.Mailer) {
	// Setup health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// Setup API routes
	SetupAPIRoutes(app, db, s, mailer)

	// Setup 404 handler
	app.Use(func(c *fiber.Ctx) error {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error":   "Not Found",
			"message": "The requested resource was not found",
		})
	})
}
