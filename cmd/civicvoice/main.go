package main

import (
	"fmt"
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/civicvoice/CivicVoice/app/controllers"
	"github.com/civicvoice/CivicVoice/app/repository"
	"github.com/civicvoice/CivicVoice/internal/pkg/cache"
	"github.com/civicvoice/CivicVoice/internal/pkg/database"
	"github.com/civicvoice/CivicVoice/internal/pkg/env"
	"github.com/civicvoice/CivicVoice/internal/pkg/imagehost"
	"github.com/civicvoice/CivicVoice/internal/pkg/router"
	"github.com/civicvoice/CivicVoice/internal/pkg/social"
	"github.com/civicvoice/CivicVoice/internal/pkg/submission"
)

func main() {
	app := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "5000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()
	repository.InitializeFactory(database.GetDB())

	uploadDir := env.GetEnv("UPLOAD_DIR", "./uploads")
	if err := os.MkdirAll(uploadDir, 0755); err != nil {
		log.Fatalf("Failed to create upload directory %s: %v", uploadDir, err)
	}

	// Optional collaborators fail fast when enabled but misconfigured
	var relocator submission.Relocator
	var storagePinger controllers.StoragePinger

	hostCfg, err := imagehost.LoadConfig()
	if err != nil {
		log.Fatalf("Invalid image hosting configuration: %v", err)
	}
	if hostCfg.IsEnabled() {
		client, err := imagehost.NewClient(hostCfg)
		if err != nil {
			log.Fatalf("Failed to initialize image hosting: %v", err)
		}
		relocator = imagehost.NewRelocatorFromClient(client, hostCfg)
		storagePinger = client
	}

	var publisher submission.Publisher
	var socialTester controllers.SocialTester
	if env.GetEnv("SOCIAL_POSTING_ENABLED", "false") == "true" {
		client, err := social.NewClientFromEnv()
		if err != nil {
			log.Fatalf("Failed to initialize social posting: %v", err)
		}
		publisher = client
		socialTester = client
	}

	issueRepo := repository.GetGlobalFactory().GetIssueRepository()
	svc := submission.NewService(issueRepo, relocator, publisher, uploadDir)

	issueController := controllers.NewIssueController(svc, issueRepo, os.TempDir())
	healthController := controllers.NewHealthController(storagePinger, socialTester)

	// init fiber app
	app := fiber.New(fiber.Config{
		BodyLimit: 10 * 1024 * 1024, // 10 MiB, photos only
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// locally stored issue photos (only used when image hosting is disabled)
	app.Static("/uploads", uploadDir, fiber.Static{
		CacheDuration: 10 * time.Second,
		Compress:      false,
		MaxAge:        604800, // 7 days
	})

	app.Get("/", func(c *fiber.Ctx) error {
		return c.SendString("CivicVoice API is running")
	})

	// ROUTER
	router.InstallRouter(app, router.NewApiRouter(issueController, healthController))

	return app
}
