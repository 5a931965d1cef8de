package main

import (
	"context"
	"log"
	"net"
	"os"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"

	"mailsift/config"
	"mailsift/middleware"
	"mailsift/routes"
	"mailsift/sanitizer"
	"mailsift/utils"
	"mailsift/worker"
)

func main() {
	// Initialize logger
	logger := log.New(os.Stdout, "SERVER: ", log.Ldate|log.Ltime|log.Lshortfile)

	// Load configuration
	if err := config.LoadConfig(); err != nil {
		logger.Fatalf("Failed to load configuration: %v", err)
	}

	// Initialize Sentry when a DSN is configured
	if dsn := config.AppConfig.SentryDSN; dsn != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:         dsn,
			Environment: config.AppConfig.Environment,
		}); err != nil {
			logger.Printf("Sentry initialization failed: %v", err)
		} else {
			defer sentry.Flush(2 * time.Second)
		}
	}

	// Initialize database connection
	if err := config.ConnectDB(); err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}

	// Create Fiber app
	app := fiber.New()

	// Add CORS middleware
	app.Use(middleware.CORS())

	// Build the sanitization pipeline
	sanitizerLog := logrus.New()
	sanitizerLog.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	pipeline := sanitizer.New(sanitizer.Config{
		MaxWorkers: config.AppConfig.Sanitizer.MaxWorkers,
		MXTimeout:  config.AppConfig.Sanitizer.MXTimeout,
		MXRetries:  config.AppConfig.Sanitizer.MXRetries,
		MXBackoff:  config.AppConfig.Sanitizer.MXBackoff,
		MXCacheTTL: config.AppConfig.Sanitizer.MXCacheTTL,
	}, nil, net.DefaultResolver, sanitizerLog)

	// Outbound mailer over the SES SMTP interface
	mailer := utils.NewMailer(&config.AppConfig)

	// Start the bounce mailbox worker
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	bounceWorker := worker.NewBounceWorker(config.DB, config.AppConfig.Bounce,
		log.New(os.Stdout, "BOUNCE: ", log.LstdFlags))
	go bounceWorker.Start(ctx)

	// Setup routes
	routes.SetupRoutes(app, config.DB, pipeline, mailer)

	// Health check endpoint
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "running",
			"version": "1.0.0",
		})
	})

	// Start server
	logger.Printf("🚀 Server starting on port %s", config.AppConfig.ServerPort)
	if err := app.Listen(":" + config.AppConfig.ServerPort); err != nil {
		logger.Fatalf("Failed to start server: %v", err)
	}
}
