package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/civicvoice/CivicVoice/app/models"
	"github.com/civicvoice/CivicVoice/app/repository"
	"github.com/civicvoice/CivicVoice/internal/pkg/cache"
	"github.com/civicvoice/CivicVoice/internal/pkg/submission"
	"github.com/civicvoice/CivicVoice/internal/pkg/upload"
)

const (
	cacheKeyAll        = "issues:list:all"
	cacheKeyResolved   = "issues:list:resolved"
	cacheKeyUnresolved = "issues:list:unresolved"
	listCacheTTL       = 30 * time.Second
)

// Submitter runs the submission pipeline for one issue
type Submitter interface {
	Submit(req submission.Request) (*models.Issue, error)
}

// IssueController handles the public issue API
type IssueController struct {
	svc     Submitter
	repo    repository.IssueRepository
	tempDir string
}

// NewIssueController creates an issue controller with injected collaborators
func NewIssueController(svc Submitter, repo repository.IssueRepository, tempDir string) *IssueController {
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	return &IssueController{svc: svc, repo: repo, tempDir: tempDir}
}

// HandleSubmitIssue accepts a multipart issue submission
// POST /api/issues
func (ic *IssueController) HandleSubmitIssue(c *fiber.Ctx) error {
	req := submission.Request{
		Title:       c.FormValue("title"),
		Description: c.FormValue("description"),
		Location:    c.FormValue("location"),
	}
	req.ReporterIPv4, req.ReporterIPv6 = GetClientIP(c)

	if fileHeader, err := c.FormFile("image"); err == nil && fileHeader != nil {
		file, err := fileHeader.Open()
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "uploaded image could not be read",
			})
		}
		// ReadFull so the sniff sees the whole 512-byte window even when the
		// multipart reader hands out short reads
		head := make([]byte, 512)
		n, err := io.ReadFull(file, head)
		file.Close()
		if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "uploaded image could not be read",
			})
		}

		if _, err := upload.ValidateImageBySniff(fileHeader.Filename, head[:n]); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": err.Error(),
			})
		}

		tempPath := filepath.Join(ic.tempDir, fmt.Sprintf("%s%s", uuid.New().String(), filepath.Ext(fileHeader.Filename)))
		if err := c.SaveFile(fileHeader, tempPath); err != nil {
			fiberlog.Errorf("[IssueController] Failed to save upload: %v", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "failed to store uploaded image",
			})
		}
		req.ImagePath = tempPath
		req.OriginalFilename = fileHeader.Filename
	}

	issue, err := ic.svc.Submit(req)
	if err != nil {
		if errors.Is(err, submission.ErrValidation) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"success": false,
				"message": "title, description and location are required",
			})
		}
		fiberlog.Errorf("[IssueController] Failed to submit issue: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to submit issue",
		})
	}

	ic.invalidateListCache()

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Issue submitted successfully",
		"issue":   issue,
	})
}

// HandleListIssues lists every issue, newest first
// GET /api/issues
func (ic *IssueController) HandleListIssues(c *fiber.Ctx) error {
	return ic.listIssues(c, nil, cacheKeyAll)
}

// HandleListResolvedIssues lists resolved issues only
// GET /api/issues/resolved
func (ic *IssueController) HandleListResolvedIssues(c *fiber.Ctx) error {
	resolved := true
	return ic.listIssues(c, &resolved, cacheKeyResolved)
}

// HandleListUnresolvedIssues lists unresolved issues only
// GET /api/issues/unresolved
func (ic *IssueController) HandleListUnresolvedIssues(c *fiber.Ctx) error {
	resolved := false
	return ic.listIssues(c, &resolved, cacheKeyUnresolved)
}

func (ic *IssueController) listIssues(c *fiber.Ctx, resolved *bool, cacheKey string) error {
	if cached, err := cache.Get(cacheKey); err == nil && cached != "" {
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.SendString(cached)
	}

	issues, err := ic.repo.List(resolved)
	if err != nil {
		fiberlog.Errorf("[IssueController] Failed to list issues: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to fetch issues",
		})
	}
	if issues == nil {
		issues = []models.Issue{}
	}

	if body, err := json.Marshal(issues); err == nil {
		if err := cache.Set(cacheKey, string(body), listCacheTTL); err != nil {
			fiberlog.Debugf("[IssueController] List cache write failed: %v", err)
		}
	}

	return c.JSON(issues)
}

// HandleResolveIssue marks an issue resolved
// PATCH /api/issues/:id/resolve
func (ic *IssueController) HandleResolveIssue(c *fiber.Ctx) error {
	// Unknown and malformed ids are both "not found" to the client
	id, err := strconv.ParseUint(c.Params("id"), 10, 64)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"success": false,
			"message": "Issue not found",
		})
	}

	issue, err := ic.repo.Resolve(uint(id))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"success": false,
				"message": "Issue not found",
			})
		}
		fiberlog.Errorf("[IssueController] Failed to resolve issue %d: %v", id, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"success": false,
			"message": "Failed to update issue",
		})
	}

	ic.invalidateListCache()

	return c.JSON(fiber.Map{
		"success":      true,
		"message":      "Issue marked as resolved",
		"updatedIssue": issue,
	})
}

func (ic *IssueController) invalidateListCache() {
	if err := cache.Delete(cacheKeyAll, cacheKeyResolved, cacheKeyUnresolved); err != nil {
		fiberlog.Debugf("[IssueController] List cache invalidation failed: %v", err)
	}
}
