package submission

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/civicvoice/CivicVoice/app/models"
	"github.com/civicvoice/CivicVoice/internal/pkg/imagehost"
	"github.com/civicvoice/CivicVoice/internal/pkg/social"
)

type fakeRepo struct {
	created    []*models.Issue
	failCreate bool
}

func (f *fakeRepo) Create(issue *models.Issue) error {
	if f.failCreate {
		return errors.New("database unavailable")
	}
	issue.ID = uint(len(f.created) + 1)
	issue.CreatedAt = time.Now()
	issue.UpdatedAt = issue.CreatedAt
	f.created = append(f.created, issue)
	return nil
}

func (f *fakeRepo) GetByID(id uint) (*models.Issue, error) {
	for _, issue := range f.created {
		if issue.ID == id {
			return issue, nil
		}
	}
	return nil, errors.New("not found")
}

func (f *fakeRepo) List(resolved *bool) ([]models.Issue, error) {
	var out []models.Issue
	for i := len(f.created) - 1; i >= 0; i-- {
		issue := f.created[i]
		if resolved == nil || issue.Resolved == *resolved {
			out = append(out, *issue)
		}
	}
	return out, nil
}

func (f *fakeRepo) Resolve(id uint) (*models.Issue, error) {
	issue, err := f.GetByID(id)
	if err != nil {
		return nil, err
	}
	issue.Resolved = true
	return issue, nil
}

func (f *fakeRepo) Count() (int64, error) {
	return int64(len(f.created)), nil
}

type fakeRelocator struct {
	result imagehost.RelocateResult
	calls  int
}

func (f *fakeRelocator) Relocate(localFilePath string) imagehost.RelocateResult {
	f.calls++
	os.Remove(localFilePath)
	return f.result
}

type fakePublisher struct {
	result social.PublishResult
	got    *models.Issue
}

func (f *fakePublisher) Publish(ctx context.Context, issue *models.Issue, imagePath string) social.PublishResult {
	f.got = issue
	return f.result
}

func validRequest() Request {
	return Request{
		Title:       "Broken streetlight",
		Description: "The streetlight has been out for a week.",
		Location:    "Ranchi, Jharkhand",
	}
}

func writeTempUpload(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "upload.jpg")
	require.NoError(t, os.WriteFile(path, []byte("fake image bytes"), 0644))
	return path
}

func TestSubmit_WithoutImage(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{}
	svc := NewService(repo, nil, nil, t.TempDir())

	issue, err := svc.Submit(validRequest())

	require.NoError(t, err)
	assert.NotEmpty(t, issue.UUID)
	assert.Nil(t, issue.Image)
	assert.False(t, issue.Resolved)
	assert.Len(t, repo.created, 1)
}

func TestSubmit_ValidationFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Request)
	}{
		{"empty title", func(r *Request) { r.Title = "" }},
		{"whitespace title", func(r *Request) { r.Title = "   " }},
		{"empty description", func(r *Request) { r.Description = "" }},
		{"whitespace location", func(r *Request) { r.Location = "\t\n" }},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			repo := &fakeRepo{}
			svc := NewService(repo, nil, nil, t.TempDir())

			req := validRequest()
			tc.mutate(&req)

			_, err := svc.Submit(req)
			assert.ErrorIs(t, err, ErrValidation)
			assert.Empty(t, repo.created, "nothing may be persisted on validation failure")
		})
	}
}

func TestSubmit_ValidationFailureRemovesTempFile(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{}
	svc := NewService(repo, nil, nil, t.TempDir())

	req := validRequest()
	req.Title = "   "
	req.ImagePath = writeTempUpload(t)
	req.OriginalFilename = "upload.jpg"

	_, err := svc.Submit(req)
	require.ErrorIs(t, err, ErrValidation)

	_, statErr := os.Stat(req.ImagePath)
	assert.True(t, os.IsNotExist(statErr), "rejected upload must not linger on disk")
}

func TestSubmit_RelocationSuccess(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{}
	relocator := &fakeRelocator{result: imagehost.RelocateResult{
		Success:   true,
		URL:       "https://img.example.com/issues/2026/08/abc.webp",
		ObjectKey: "issues/2026/08/abc.webp",
	}}
	svc := NewService(repo, relocator, nil, t.TempDir())

	req := validRequest()
	req.ImagePath = writeTempUpload(t)
	req.OriginalFilename = "pothole.jpg"

	issue, err := svc.Submit(req)

	require.NoError(t, err)
	require.NotNil(t, issue.Image)
	assert.Equal(t, relocator.result.URL, *issue.Image)
	assert.Equal(t, relocator.result.ObjectKey, issue.ImageObjectKey)
	assert.Equal(t, 1, relocator.calls)
}

func TestSubmit_RelocationFailureContinuesWithoutImage(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{}
	relocator := &fakeRelocator{result: imagehost.RelocateResult{
		Success: false,
		Message: "upload to durable storage failed",
	}}
	svc := NewService(repo, relocator, nil, t.TempDir())

	req := validRequest()
	req.ImagePath = writeTempUpload(t)
	req.OriginalFilename = "pothole.jpg"

	issue, err := svc.Submit(req)

	require.NoError(t, err, "submission must succeed even when relocation fails")
	assert.Nil(t, issue.Image)
	assert.Len(t, repo.created, 1)
}

func TestSubmit_LocalStorageMode(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{}
	uploadDir := t.TempDir()
	svc := NewService(repo, nil, nil, uploadDir)

	req := validRequest()
	req.ImagePath = writeTempUpload(t)
	req.OriginalFilename = "pothole.jpg"

	issue, err := svc.Submit(req)

	require.NoError(t, err)
	require.NotNil(t, issue.Image)
	assert.True(t, strings.HasPrefix(*issue.Image, "/uploads/"), "got %s", *issue.Image)
	assert.True(t, strings.HasSuffix(*issue.Image, ".jpg"))

	stored := filepath.Join(uploadDir, strings.TrimPrefix(*issue.Image, "/uploads/"))
	_, statErr := os.Stat(stored)
	assert.NoError(t, statErr, "upload must be moved into the served directory")

	_, statErr = os.Stat(req.ImagePath)
	assert.True(t, os.IsNotExist(statErr), "temp file must be consumed")
}

func TestSubmit_PublisherFailureIsNonFatal(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{}
	publisher := &fakePublisher{result: social.PublishResult{
		Success: false,
		Message: "rate limited",
	}}
	svc := NewService(repo, nil, publisher, t.TempDir())
	svc.notified = make(chan social.PublishResult, 1)

	issue, err := svc.Submit(validRequest())

	require.NoError(t, err)
	assert.Len(t, repo.created, 1)

	select {
	case result := <-svc.notified:
		assert.False(t, result.Success)
		assert.Equal(t, issue.UUID, publisher.got.UUID)
	case <-time.After(2 * time.Second):
		t.Fatal("publisher was never invoked")
	}
}

func TestSubmit_StorageFailure(t *testing.T) {
	t.Parallel()

	repo := &fakeRepo{failCreate: true}
	svc := NewService(repo, nil, nil, t.TempDir())

	_, err := svc.Submit(validRequest())

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrValidation)
}
