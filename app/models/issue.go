package models

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// Issue is a single citizen-submitted civic problem report. Records are only
// ever created and resolved; there is no delete path.
type Issue struct {
	ID             uint      `gorm:"primaryKey" json:"id"`
	UUID           string    `gorm:"type:varchar(36);uniqueIndex" json:"uuid"`
	Title          string    `gorm:"type:varchar(200);not null" json:"title" validate:"required,max=200"`
	Description    string    `gorm:"type:text;not null" json:"description" validate:"required"`
	Location       string    `gorm:"type:varchar(255);not null" json:"location" validate:"required,max=255"`
	Image          *string   `gorm:"type:varchar(500);default:null" json:"image"`
	ImageObjectKey string    `gorm:"type:varchar(255);default:null" json:"-"`
	Latitude       *float64  `gorm:"type:double;default:null" json:"latitude,omitempty"`
	Longitude      *float64  `gorm:"type:double;default:null" json:"longitude,omitempty"`
	Resolved       bool      `gorm:"default:false;index" json:"resolved"`
	ReporterIPv4   string    `gorm:"type:varchar(15);default:null" json:"-"`
	ReporterIPv6   string    `gorm:"type:varchar(45);default:null" json:"-"`
	CreatedAt      time.Time `gorm:"autoCreateTime;index" json:"created_at"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Normalize trims the user-supplied text fields in place. Must run before
// Validate so that whitespace-only input fails the required check.
func (i *Issue) Normalize() {
	i.Title = strings.TrimSpace(i.Title)
	i.Description = strings.TrimSpace(i.Description)
	i.Location = strings.TrimSpace(i.Location)
}

func (i *Issue) Validate() error {
	v := validator.New()

	return v.Struct(i)
}
