package imagehost

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"

	"github.com/civicvoice/CivicVoice/internal/pkg/imageprocessor"
)

// RelocateResult is the tagged outcome of moving an uploaded photo to durable
// storage. Failures are reported here instead of as errors: the submission
// flow continues without an image when relocation fails.
type RelocateResult struct {
	Success   bool
	URL       string
	ObjectKey string
	Message   string
}

// objectStore is the subset of the storage client the relocator needs
type objectStore interface {
	UploadFile(localFilePath, objectKey string) (*UploadResult, error)
	DeleteFile(objectKey string) error
}

// Relocator moves uploaded photos from transient local storage to the
// configured durable object store, normalizing them on the way.
type Relocator struct {
	store objectStore
	cfg   *Config

	// normalize is swappable so tests don't need the WebP encoder
	normalize func(srcPath, dstDir, baseName string) (string, error)
}

// NewRelocator creates a relocator backed by a verified storage client
func NewRelocator(cfg *Config) (*Relocator, error) {
	client, err := NewClient(cfg)
	if err != nil {
		return nil, err
	}
	return NewRelocatorFromClient(client, cfg), nil
}

// NewRelocatorFromClient creates a relocator around an existing client,
// avoiding a second connection test when the caller already holds one
func NewRelocatorFromClient(client *Client, cfg *Config) *Relocator {
	return &Relocator{
		store:     client,
		cfg:       cfg,
		normalize: imageprocessor.Normalize,
	}
}

// Relocate normalizes and uploads the file at localFilePath, returning the
// public URL and object key on success. The local temporary file is removed
// on every path, success or failure, so temp files never accumulate.
func (r *Relocator) Relocate(localFilePath string) RelocateResult {
	defer func() {
		if err := os.Remove(localFilePath); err != nil && !os.IsNotExist(err) {
			log.Warnf("[ImageHost] Failed to remove temp file %s: %v", localFilePath, err)
		}
	}()

	photoUUID := uuid.New().String()

	uploadPath := localFilePath
	processed, err := r.normalize(localFilePath, filepath.Dir(localFilePath), photoUUID)
	if err != nil {
		// Upload the original as-is rather than dropping the photo
		log.Warnf("[ImageHost] Normalization failed for %s, uploading original: %v", localFilePath, err)
	} else {
		uploadPath = processed
		defer os.Remove(processed)
	}

	now := time.Now()
	objectKey := r.cfg.GetObjectKey(photoUUID, filepath.Ext(uploadPath), now.Year(), int(now.Month()))

	if _, err := r.store.UploadFile(uploadPath, objectKey); err != nil {
		return RelocateResult{
			Success: false,
			Message: fmt.Sprintf("upload to durable storage failed: %v", err),
		}
	}

	return RelocateResult{
		Success:   true,
		URL:       r.cfg.PublicURL(objectKey),
		ObjectKey: objectKey,
		Message:   "image uploaded to durable storage",
	}
}

// Delete removes a previously relocated object. Best-effort; nothing in the
// submission flow depends on it.
func (r *Relocator) Delete(objectKey string) error {
	return r.store.DeleteFile(objectKey)
}
