package submission

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"

	"github.com/civicvoice/CivicVoice/app/models"
	"github.com/civicvoice/CivicVoice/app/repository"
	"github.com/civicvoice/CivicVoice/internal/pkg/imagehost"
	"github.com/civicvoice/CivicVoice/internal/pkg/imageprocessor"
	"github.com/civicvoice/CivicVoice/internal/pkg/social"
)

// ErrValidation marks client-fixable input errors (missing required fields).
var ErrValidation = errors.New("validation failed")

// publishTimeout bounds the best-effort social post so a slow third party
// can't hold resources indefinitely.
const publishTimeout = 30 * time.Second

// Relocator moves an uploaded photo to durable storage
type Relocator interface {
	Relocate(localFilePath string) imagehost.RelocateResult
}

// Publisher posts a newly created issue to a social network
type Publisher interface {
	Publish(ctx context.Context, issue *models.Issue, imagePath string) social.PublishResult
}

// Request carries one validated-or-not issue submission through the pipeline
type Request struct {
	Title       string
	Description string
	Location    string

	// ImagePath is the local temp path of an uploaded photo, empty when the
	// submission carries no image. OriginalFilename keeps the client's name
	// for extension handling.
	ImagePath        string
	OriginalFilename string

	ReporterIPv4 string
	ReporterIPv6 string
}

// Service orchestrates issue submissions: optional image relocation
// (soft-fail), the persistent write, and the fire-and-forget social post.
// Relocator and Publisher are nil when the respective feature is disabled.
type Service struct {
	repo      repository.IssueRepository
	relocator Relocator
	publisher Publisher
	uploadDir string

	// notified signals completed publish attempts; tests hook it, production
	// leaves it nil
	notified chan social.PublishResult
}

// NewService wires the submission pipeline from its injected collaborators
func NewService(repo repository.IssueRepository, relocator Relocator, publisher Publisher, uploadDir string) *Service {
	return &Service{
		repo:      repo,
		relocator: relocator,
		publisher: publisher,
		uploadDir: uploadDir,
	}
}

// Submit runs the pipeline for one issue. Image relocation and social posting
// are best-effort: their failures are logged and the submission still
// succeeds as long as validation and the store write do.
func (s *Service) Submit(req Request) (*models.Issue, error) {
	issue := &models.Issue{
		UUID:         uuid.New().String(),
		Title:        req.Title,
		Description:  req.Description,
		Location:     req.Location,
		ReporterIPv4: req.ReporterIPv4,
		ReporterIPv6: req.ReporterIPv6,
	}
	issue.Normalize()
	if err := issue.Validate(); err != nil {
		// The upload was already spooled to disk; consume it here too
		if req.ImagePath != "" {
			if rmErr := os.Remove(req.ImagePath); rmErr != nil {
				log.Errorf("[Submission] Failed to remove rejected upload %s: %v", req.ImagePath, rmErr)
			}
		}
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}

	// Path the publisher can still attach; empty once the temp file is gone
	publishImagePath := ""

	if req.ImagePath != "" {
		if lat, lng := imageprocessor.ExtractGPS(req.ImagePath); lat != nil {
			issue.Latitude = lat
			issue.Longitude = lng
		}

		switch {
		case s.relocator != nil:
			result := s.relocator.Relocate(req.ImagePath)
			if result.Success {
				url := result.URL
				issue.Image = &url
				issue.ImageObjectKey = result.ObjectKey
			} else {
				// Continue without image if relocation fails
				log.Errorf("[Submission] Image relocation failed: %s", result.Message)
			}
		default:
			localURL, storedPath, err := s.storeLocally(req.ImagePath, req.OriginalFilename)
			if err != nil {
				log.Errorf("[Submission] Storing image locally failed: %v", err)
			} else {
				issue.Image = &localURL
				publishImagePath = storedPath
			}
		}
	}

	if err := s.repo.Create(issue); err != nil {
		return nil, fmt.Errorf("failed to persist issue: %w", err)
	}

	if s.publisher != nil {
		go s.notify(issue, publishImagePath)
	}

	return issue, nil
}

// notify runs the social post off the request path; its outcome never
// affects the submission result.
func (s *Service) notify(issue *models.Issue, imagePath string) {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	result := s.publisher.Publish(ctx, issue, imagePath)
	if result.Success {
		log.Infof("[Submission] Issue %s posted: %s", issue.UUID, result.PostURL)
	} else {
		log.Errorf("[Submission] Social post for issue %s failed: %s", issue.UUID, result.Message)
	}

	if s.notified != nil {
		s.notified <- result
	}
}

// storeLocally moves the temp upload into the served uploads directory and
// returns its public path plus the on-disk location. Used when image hosting
// is disabled; the temp file is consumed either way.
func (s *Service) storeLocally(tempPath, originalFilename string) (string, string, error) {
	ext := strings.ToLower(filepath.Ext(originalFilename))
	if ext == "" {
		ext = filepath.Ext(tempPath)
	}
	filename := uuid.New().String() + ext
	destPath := filepath.Join(s.uploadDir, filename)

	if err := os.MkdirAll(s.uploadDir, 0755); err != nil {
		os.Remove(tempPath)
		return "", "", fmt.Errorf("failed to create upload dir: %w", err)
	}
	if err := moveFile(tempPath, destPath); err != nil {
		os.Remove(tempPath)
		return "", "", err
	}

	return "/uploads/" + filename, destPath, nil
}

// moveFile renames src to dst, falling back to copy+remove across
// filesystems.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return fmt.Errorf("failed to open %s: %w", src, err)
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, in); err != nil {
		return fmt.Errorf("failed to copy upload: %w", err)
	}

	in.Close()
	return os.Remove(src)
}
