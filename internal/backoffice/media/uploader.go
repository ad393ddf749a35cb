// Package media holds the image-hosting collaborator: files are forwarded
// to the host with an unsigned upload preset and the host returns a stable
// URL. The service never stores image bytes itself.
package media

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/go-resty/resty/v2"
)

// ErrUpload reports a failed or timed-out upload. Retryable; nothing is
// persisted on failure.
var ErrUpload = errors.New("media: upload failed")

const defaultTimeout = 10 * time.Second

type uploadResult struct {
	SecureURL string `json:"secure_url"`
	URL       string `json:"url"`
}

// Uploader forwards images to the configured media host.
type Uploader struct {
	client *resty.Client
	preset string
}

// NewUploader builds an Uploader for the media host's upload endpoint.
// preset is the host-side unsigned upload preset name.
func NewUploader(baseURL, preset string) *Uploader {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(defaultTimeout)

	return &Uploader{
		client: client,
		preset: preset,
	}
}

// Upload streams one file to the media host and returns its hosted URL.
func (u *Uploader) Upload(ctx context.Context, filename string, file io.Reader) (string, error) {
	var result uploadResult

	resp, err := u.client.R().
		SetContext(ctx).
		SetFileReader("file", filename, file).
		SetFormData(map[string]string{"upload_preset": u.preset}).
		SetResult(&result).
		Post("/image/upload")
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUpload, err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("%w: media host responded %d", ErrUpload, resp.StatusCode())
	}

	url := result.SecureURL
	if url == "" {
		url = result.URL
	}
	if url == "" {
		return "", fmt.Errorf("%w: media host returned no url", ErrUpload)
	}

	return url, nil
}
