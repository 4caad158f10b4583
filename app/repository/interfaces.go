package repository

import (
	"github.com/civicvoice/CivicVoice/app/models"
)

// IssueRepository defines the interface for issue-related database operations
type IssueRepository interface {
	Create(issue *models.Issue) error
	GetByID(id uint) (*models.Issue, error)
	// List returns issues newest-first. A nil filter returns everything,
	// otherwise only issues whose resolved flag matches.
	List(resolved *bool) ([]models.Issue, error)
	// Resolve marks an issue resolved and returns the updated record.
	// Resolving an already-resolved issue succeeds without touching the
	// record (updated_at is not bumped).
	Resolve(id uint) (*models.Issue, error)
	Count() (int64, error)
}
