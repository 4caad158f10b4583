package imagehost

import (
	"errors"
	"fmt"
	"strings"

	"github.com/civicvoice/CivicVoice/internal/pkg/env"
)

// Config holds the durable image storage configuration
type Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
	BucketName      string
	EndpointURL     string // Optional for S3-compatible services
	PublicBaseURL   string // Base URL under which uploaded objects are publicly reachable
	Enabled         bool
}

// LoadConfig loads the image storage configuration from environment variables.
// When image hosting is enabled, incomplete credentials are a hard error so
// the service fails at startup instead of degrading silently per request.
func LoadConfig() (*Config, error) {
	config := &Config{
		AccessKeyID:     env.GetEnv("S3_ACCESS_KEY_ID", ""),
		SecretAccessKey: env.GetEnv("S3_SECRET_ACCESS_KEY", ""),
		Region:          env.GetEnv("S3_REGION", "us-east-1"),
		BucketName:      env.GetEnv("S3_BUCKET_NAME", ""),
		EndpointURL:     env.GetEnv("S3_ENDPOINT_URL", ""),
		PublicBaseURL:   env.GetEnv("S3_PUBLIC_BASE_URL", ""),
		Enabled:         env.GetEnv("IMAGE_HOSTING_ENABLED", "false") == "true",
	}

	if config.Enabled {
		if config.AccessKeyID == "" {
			return nil, errors.New("S3_ACCESS_KEY_ID is required when image hosting is enabled")
		}
		if config.SecretAccessKey == "" {
			return nil, errors.New("S3_SECRET_ACCESS_KEY is required when image hosting is enabled")
		}
		if config.BucketName == "" {
			return nil, errors.New("S3_BUCKET_NAME is required when image hosting is enabled")
		}
		if config.PublicBaseURL == "" {
			return nil, errors.New("S3_PUBLIC_BASE_URL is required when image hosting is enabled")
		}
	}

	return config, nil
}

// IsEnabled returns true if image hosting is enabled
func (c *Config) IsEnabled() bool {
	return c.Enabled
}

// GetObjectKey generates a standardized object key for an issue photo
func (c *Config) GetObjectKey(photoUUID, fileExtension string, year, month int) string {
	// Format: issues/YYYY/MM/UUID.ext
	return fmt.Sprintf("issues/%04d/%02d/%s%s", year, month, photoUUID, fileExtension)
}

// PublicURL returns the publicly fetchable URL for an object key
func (c *Config) PublicURL(objectKey string) string {
	return strings.TrimRight(c.PublicBaseURL, "/") + "/" + objectKey
}

// GetAppEnv returns the current application environment
func GetAppEnv() string {
	return env.GetEnv("APP_ENV", "dev")
}
