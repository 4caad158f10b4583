package router

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	redisstorage "github.com/gofiber/storage/redis"

	"github.com/civicvoice/CivicVoice/app/controllers"
	"github.com/civicvoice/CivicVoice/internal/pkg/env"
)

type ApiRouter struct {
	issues *controllers.IssueController
	health *controllers.HealthController
}

func NewApiRouter(issues *controllers.IssueController, health *controllers.HealthController) *ApiRouter {
	return &ApiRouter{
		issues: issues,
		health: health,
	}
}

func (h *ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group("/api", limiter.New(limiter.Config{
		Storage: newLimiterStorage(),
	}))
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "CivicVoice API is running",
		})
	})

	api.Post("/issues", h.issues.HandleSubmitIssue)
	api.Get("/issues", h.issues.HandleListIssues)
	api.Get("/issues/resolved", h.issues.HandleListResolvedIssues)
	api.Get("/issues/unresolved", h.issues.HandleListUnresolvedIssues)
	api.Patch("/issues/:id/resolve", h.issues.HandleResolveIssue)

	api.Get("/health/storage", h.health.HandleStorageHealth)
	api.Get("/health/twitter", h.health.HandleTwitterHealth)
}

// newLimiterStorage backs the rate limiter with Redis so limits hold across
// instances
func newLimiterStorage() *redisstorage.Storage {
	port, err := strconv.Atoi(env.GetEnv("CACHE_PORT", "6379"))
	if err != nil {
		port = 6379
	}
	return redisstorage.New(redisstorage.Config{
		Host: env.GetEnv("CACHE_HOST", "localhost"),
		Port: port,
	})
}
