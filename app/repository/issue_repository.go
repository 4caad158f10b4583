package repository

import (
	"github.com/civicvoice/CivicVoice/app/models"
	"gorm.io/gorm"
)

// issueRepository implements the IssueRepository interface
type issueRepository struct {
	db *gorm.DB
}

// NewIssueRepository creates a new issue repository instance
func NewIssueRepository(db *gorm.DB) IssueRepository {
	return &issueRepository{db: db}
}

// Create creates a new issue in the database
func (r *issueRepository) Create(issue *models.Issue) error {
	return r.db.Create(issue).Error
}

// GetByID retrieves an issue by its ID
func (r *issueRepository) GetByID(id uint) (*models.Issue, error) {
	var issue models.Issue
	if err := r.db.First(&issue, id).Error; err != nil {
		return nil, err
	}
	return &issue, nil
}

// List retrieves issues newest-first, optionally filtered by resolved state
func (r *issueRepository) List(resolved *bool) ([]models.Issue, error) {
	var issues []models.Issue
	query := r.db.Order("created_at DESC, id DESC")
	if resolved != nil {
		query = query.Where("resolved = ?", *resolved)
	}
	err := query.Find(&issues).Error
	return issues, err
}

// Resolve flips the resolved flag exactly once. Repeat calls return the
// record unchanged so the operation stays idempotent for callers.
func (r *issueRepository) Resolve(id uint) (*models.Issue, error) {
	var issue models.Issue
	if err := r.db.First(&issue, id).Error; err != nil {
		return nil, err
	}
	if issue.Resolved {
		return &issue, nil
	}

	issue.Resolved = true
	if err := r.db.Save(&issue).Error; err != nil {
		return nil, err
	}
	return &issue, nil
}

// Count returns the total number of issues
func (r *issueRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Issue{}).Count(&count).Error
	return count, err
}
