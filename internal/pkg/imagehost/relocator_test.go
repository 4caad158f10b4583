package imagehost

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	uploadedPath string
	uploadedKey  string
	failUpload   bool
	deletedKeys  []string
}

func (f *fakeStore) UploadFile(localFilePath, objectKey string) (*UploadResult, error) {
	f.uploadedPath = localFilePath
	f.uploadedKey = objectKey
	if f.failUpload {
		return nil, errors.New("bucket unreachable")
	}
	return &UploadResult{ObjectKey: objectKey}, nil
}

func (f *fakeStore) DeleteFile(objectKey string) error {
	f.deletedKeys = append(f.deletedKeys, objectKey)
	return nil
}

func newTestRelocator(store objectStore) *Relocator {
	return &Relocator{
		store: store,
		cfg: &Config{
			BucketName:    "civicvoice-test",
			PublicBaseURL: "https://img.example.com",
			Enabled:       true,
		},
		// stand-in for the real encoder: copy the file under the new name
		normalize: func(srcPath, dstDir, baseName string) (string, error) {
			data, err := os.ReadFile(srcPath)
			if err != nil {
				return "", err
			}
			out := filepath.Join(dstDir, baseName+".webp")
			return out, os.WriteFile(out, data, 0644)
		},
	}
}

func writeTempImage(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "upload.jpg")
	require.NoError(t, os.WriteFile(path, []byte("fake image bytes"), 0644))
	return path
}

func TestRelocate_Success(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	r := newTestRelocator(store)
	tempPath := writeTempImage(t)

	result := r.Relocate(tempPath)

	assert.True(t, result.Success)
	assert.True(t, strings.HasPrefix(result.URL, "https://img.example.com/issues/"), "got %s", result.URL)
	assert.Equal(t, result.ObjectKey, store.uploadedKey)
	assert.True(t, strings.HasSuffix(store.uploadedPath, ".webp"))

	_, err := os.Stat(tempPath)
	assert.True(t, os.IsNotExist(err), "temp file must be removed on success")
}

func TestRelocate_UploadFailure(t *testing.T) {
	t.Parallel()

	store := &fakeStore{failUpload: true}
	r := newTestRelocator(store)
	tempPath := writeTempImage(t)

	result := r.Relocate(tempPath)

	assert.False(t, result.Success)
	assert.NotEmpty(t, result.Message)
	assert.Empty(t, result.URL)

	_, err := os.Stat(tempPath)
	assert.True(t, os.IsNotExist(err), "temp file must be removed on failure")
}

func TestRelocate_NormalizeFailureUploadsOriginal(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	r := newTestRelocator(store)
	r.normalize = func(srcPath, dstDir, baseName string) (string, error) {
		return "", errors.New("unsupported format")
	}
	tempPath := writeTempImage(t)

	result := r.Relocate(tempPath)

	assert.True(t, result.Success)
	assert.Equal(t, tempPath, store.uploadedPath, "original file is uploaded when normalization fails")

	_, err := os.Stat(tempPath)
	assert.True(t, os.IsNotExist(err))
}

func TestRelocatorDelete(t *testing.T) {
	t.Parallel()

	store := &fakeStore{}
	r := newTestRelocator(store)

	assert.NoError(t, r.Delete("issues/2026/08/some-key.webp"))
	assert.Equal(t, []string{"issues/2026/08/some-key.webp"}, store.deletedKeys)
}

func TestConfigObjectKeyAndPublicURL(t *testing.T) {
	t.Parallel()

	cfg := &Config{PublicBaseURL: "https://img.example.com/"}

	key := cfg.GetObjectKey("abc-123", ".webp", 2026, 8)
	assert.Equal(t, "issues/2026/08/abc-123.webp", key)
	assert.Equal(t, "https://img.example.com/issues/2026/08/abc-123.webp", cfg.PublicURL(key))
}

func TestLoadConfig_FailsFastWhenEnabledButIncomplete(t *testing.T) {
	t.Setenv("IMAGE_HOSTING_ENABLED", "true")
	t.Setenv("S3_ACCESS_KEY_ID", "key")
	t.Setenv("S3_SECRET_ACCESS_KEY", "secret")
	t.Setenv("S3_BUCKET_NAME", "")
	t.Setenv("S3_PUBLIC_BASE_URL", "https://img.example.com")

	_, err := LoadConfig()
	assert.Error(t, err)

	t.Setenv("S3_BUCKET_NAME", "civicvoice")
	cfg, err := LoadConfig()
	assert.NoError(t, err)
	assert.True(t, cfg.IsEnabled())
}
