package social

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dghubble/oauth1"
	"github.com/gofiber/fiber/v2/log"

	"github.com/civicvoice/CivicVoice/app/models"
	"github.com/civicvoice/CivicVoice/internal/pkg/env"
)

const (
	defaultMediaUploadURL = "https://upload.twitter.com/1.1/media/upload.json"
	defaultTweetURL       = "https://api.twitter.com/2/tweets"
	defaultVerifyURL      = "https://api.twitter.com/2/users/me"
)

// Client posts civic issue alerts to Twitter. It is constructed once at
// startup and injected into the submission flow; construction fails when
// credentials are missing instead of degrading into a null client.
type Client struct {
	MediaUploadURL string
	TweetURL       string
	VerifyURL      string

	HTTPClient *http.Client
}

// PublishResult is the tagged outcome of a post attempt. Publish never lets
// an error escape; callers log the result and move on.
type PublishResult struct {
	Success bool
	PostID  string
	PostURL string
	Message string
}

// NewClientFromEnv builds a client from TWITTER_* environment variables.
// All four OAuth 1.0a credentials are required.
func NewClientFromEnv() (*Client, error) {
	apiKey := strings.TrimSpace(env.GetEnv("TWITTER_API_KEY", ""))
	apiSecret := strings.TrimSpace(env.GetEnv("TWITTER_API_SECRET", ""))
	accessToken := strings.TrimSpace(env.GetEnv("TWITTER_ACCESS_TOKEN", ""))
	accessSecret := strings.TrimSpace(env.GetEnv("TWITTER_ACCESS_TOKEN_SECRET", ""))

	if apiKey == "" || apiSecret == "" || accessToken == "" || accessSecret == "" {
		return nil, errors.New("TWITTER_API_KEY, TWITTER_API_SECRET, TWITTER_ACCESS_TOKEN and TWITTER_ACCESS_TOKEN_SECRET are required when social posting is enabled")
	}

	config := oauth1.NewConfig(apiKey, apiSecret)
	token := oauth1.NewToken(accessToken, accessSecret)
	httpClient := config.Client(oauth1.NoContext, token)
	httpClient.Timeout = 15 * time.Second

	return &Client{
		MediaUploadURL: strings.TrimSpace(env.GetEnv("TWITTER_MEDIA_UPLOAD_URL", defaultMediaUploadURL)),
		TweetURL:       strings.TrimSpace(env.GetEnv("TWITTER_TWEET_URL", defaultTweetURL)),
		VerifyURL:      strings.TrimSpace(env.GetEnv("TWITTER_VERIFY_URL", defaultVerifyURL)),
		HTTPClient:     httpClient,
	}, nil
}

// UploadMedia uploads a local image as a post attachment and returns the
// media id.
func (c *Client) UploadMedia(ctx context.Context, imagePath string) (string, error) {
	file, err := os.Open(imagePath)
	if err != nil {
		return "", fmt.Errorf("failed to open image %s: %w", imagePath, err)
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("media", filepath.Base(imagePath))
	if err != nil {
		return "", fmt.Errorf("failed to build multipart body: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", fmt.Errorf("failed to read image: %w", err)
	}
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.MediaUploadURL, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("media upload request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("media upload failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var parsed struct {
		MediaIDString string `json:"media_id_string"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode media upload response: %w", err)
	}
	if parsed.MediaIDString == "" {
		return "", errors.New("media upload response contained no media id")
	}

	return parsed.MediaIDString, nil
}

// Publish formats the issue into an alert post and submits it, optionally
// with the photo at imagePath attached. Image failures are soft: the post
// goes out text-only.
func (c *Client) Publish(ctx context.Context, issue *models.Issue, imagePath string) PublishResult {
	text := BuildMessage(issue)

	payload := map[string]interface{}{
		"text": text,
	}

	if imagePath != "" {
		if _, err := os.Stat(imagePath); err != nil {
			log.Warnf("[Social] Image file not found, posting without image: %s", imagePath)
		} else if mediaID, err := c.UploadMedia(ctx, imagePath); err != nil {
			log.Warnf("[Social] Image upload failed, posting without image: %v", err)
		} else {
			payload["media"] = map[string]interface{}{
				"media_ids": []string{mediaID},
			}
		}
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return PublishResult{Success: false, Message: fmt.Sprintf("failed to encode post payload: %v", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.TweetURL, bytes.NewReader(body))
	if err != nil {
		return PublishResult{Success: false, Message: fmt.Sprintf("failed to build post request: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return PublishResult{Success: false, Message: fmt.Sprintf("post request failed: %v", err)}
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return PublishResult{
			Success: false,
			Message: fmt.Sprintf("post rejected with status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody))),
		}
	}

	var parsed struct {
		Data struct {
			ID string `json:"id"`
		} `json:"data"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil || parsed.Data.ID == "" {
		return PublishResult{Success: false, Message: "post response contained no id"}
	}

	return PublishResult{
		Success: true,
		PostID:  parsed.Data.ID,
		PostURL: fmt.Sprintf("https://twitter.com/user/status/%s", parsed.Data.ID),
		Message: "issue posted successfully",
	}
}

// TestConnection verifies the configured credentials and returns the
// authenticated account's username. Used by the health endpoint only.
func (c *Client) TestConnection(ctx context.Context) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.VerifyURL, nil)
	if err != nil {
		return "", err
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("verify request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return "", fmt.Errorf("verify failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var parsed struct {
		Data struct {
			Username string `json:"username"`
		} `json:"data"`
	}
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return "", fmt.Errorf("failed to decode verify response: %w", err)
	}

	return parsed.Data.Username, nil
}
