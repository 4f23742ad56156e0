// internal/app/system/imagecdn/imagecdn.go
package imagecdn

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Uploader pushes images to an image CDN with an unsigned upload preset and
// returns the hosted HTTPS URL, which callers store verbatim on the owning
// entity. Nothing else about the upload is persisted.
type Uploader struct {
	uploadURL string
	preset    string
	client    *http.Client
	log       *zap.Logger
}

// maxImageBytes caps accepted uploads at 10 MB.
const maxImageBytes = 10 << 20

// New builds an Uploader for the given cloud. Missing settings error
// immediately with a descriptive message so the misconfiguration is visible
// at startup, not on the first upload.
func New(baseURL, cloudName, preset string, logger *zap.Logger) (*Uploader, error) {
	if cloudName == "" {
		return nil, errors.New("imagecdn: cloud name is not configured")
	}
	if preset == "" {
		return nil, errors.New("imagecdn: unsigned upload preset is not configured")
	}
	return &Uploader{
		uploadURL: fmt.Sprintf("%s/%s/image/upload", baseURL, cloudName),
		preset:    preset,
		client:    &http.Client{Timeout: 30 * time.Second},
		log:       logger,
	}, nil
}

type uploadResponse struct {
	SecureURL string `json:"secure_url"`
	PublicID  string `json:"public_id"`
}

// Upload posts the image as multipart form data and returns the secure URL.
func (u *Uploader) Upload(ctx context.Context, filename string, img io.Reader) (string, error) {
	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	go func() {
		var err error
		defer func() { pw.CloseWithError(err) }()
		if err = mw.WriteField("upload_preset", u.preset); err != nil {
			return
		}
		if err = mw.WriteField("public_id", uuid.NewString()); err != nil {
			return
		}
		var part io.Writer
		if part, err = mw.CreateFormFile("file", filename); err != nil {
			return
		}
		if _, err = io.Copy(part, io.LimitReader(img, maxImageBytes)); err != nil {
			return
		}
		err = mw.Close()
	}()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.uploadURL, pr)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := u.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("imagecdn: upload %s: %w", filename, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("imagecdn: upload rejected with %s: %s", resp.Status, body)
	}

	var out uploadResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("imagecdn: decode response: %w", err)
	}
	if out.SecureURL == "" {
		return "", errors.New("imagecdn: response missing secure_url")
	}

	u.log.Info("image uploaded",
		zap.String("public_id", out.PublicID),
		zap.String("url", out.SecureURL))
	return out.SecureURL, nil
}
