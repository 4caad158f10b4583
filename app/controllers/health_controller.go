package controllers

import (
	"context"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
)

// StoragePinger checks durable image storage connectivity
type StoragePinger interface {
	Ping() error
}

// SocialTester checks social API connectivity and returns the authenticated
// account name
type SocialTester interface {
	TestConnection(ctx context.Context) (string, error)
}

// HealthController exposes connectivity self-tests for the external
// providers. Collaborators are nil when the matching feature is disabled.
type HealthController struct {
	storage StoragePinger
	social  SocialTester
}

// NewHealthController creates a health controller; either collaborator may
// be nil.
func NewHealthController(storage StoragePinger, social SocialTester) *HealthController {
	return &HealthController{storage: storage, social: social}
}

// HandleStorageHealth tests the image storage connection
// GET /api/health/storage
func (hc *HealthController) HandleStorageHealth(c *fiber.Ctx) error {
	if hc.storage == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"success": false,
			"message": "image hosting is disabled",
		})
	}

	if err := hc.storage.Ping(); err != nil {
		fiberlog.Errorf("[Health] Storage connection test failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "storage connection failed",
			"error":   err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "storage connection successful",
	})
}

// HandleTwitterHealth tests the social API connection
// GET /api/health/twitter
func (hc *HealthController) HandleTwitterHealth(c *fiber.Ctx) error {
	if hc.social == nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
			"success": false,
			"message": "social posting is disabled",
		})
	}

	username, err := hc.social.TestConnection(c.Context())
	if err != nil {
		fiberlog.Errorf("[Health] Twitter connection test failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Twitter connection failed",
			"error":   err.Error(),
		})
	}

	return c.JSON(fiber.Map{
		"success":  true,
		"message":  "Twitter connection successful",
		"username": username,
	})
}
