// internal/app/system/mailer/mailer.go
package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// Mailer sends templated messages through a transactional-email HTTP API.
// Delivery is fire-and-forget: a non-2xx response is an error for the caller
// to surface, but nothing about the attempt is persisted.
type Mailer struct {
	endpoint   string
	serviceID  string
	templateID string
	apiKey     string
	from       string
	fromName   string
	client     *http.Client
	log        *zap.Logger
}

// Config holds the settings for the email API.
type Config struct {
	Endpoint   string
	ServiceID  string
	TemplateID string
	APIKey     string
	From       string
	FromName   string
}

// New builds a Mailer. It fails fast on missing settings so a misconfigured
// deployment errors at startup with a descriptive message rather than on the
// first send.
func New(cfg Config, logger *zap.Logger) (*Mailer, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("mailer: endpoint is not configured")
	}
	if cfg.ServiceID == "" || cfg.APIKey == "" {
		return nil, errors.New("mailer: service id and api key are required")
	}
	return &Mailer{
		endpoint:   cfg.Endpoint,
		serviceID:  cfg.ServiceID,
		templateID: cfg.TemplateID,
		apiKey:     cfg.APIKey,
		from:       cfg.From,
		fromName:   cfg.FromName,
		client:     &http.Client{Timeout: 15 * time.Second},
		log:        logger,
	}, nil
}

// Email is a single message to deliver.
type Email struct {
	To       string
	ToName   string
	Subject  string
	TextBody string
	HTMLBody string

	// Params are extra template fields (role, project name, invite link)
	// passed through to the provider's template.
	Params map[string]string
}

type sendRequest struct {
	ServiceID  string            `json:"service_id"`
	TemplateID string            `json:"template_id"`
	UserID     string            `json:"user_id"`
	Params     map[string]string `json:"template_params"`
}

// Send posts the message to the email API. The context bounds the whole
// attempt; there is no retry.
func (m *Mailer) Send(ctx context.Context, e Email) error {
	params := map[string]string{
		"to_email":   e.To,
		"to_name":    e.ToName,
		"from_email": m.from,
		"from_name":  m.fromName,
		"subject":    e.Subject,
		"message":    e.TextBody,
		"html":       e.HTMLBody,
	}
	for k, v := range e.Params {
		params[k] = v
	}

	body, err := json.Marshal(sendRequest{
		ServiceID:  m.serviceID,
		TemplateID: m.templateID,
		UserID:     m.apiKey,
		Params:     params,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.endpoint, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("mailer: send to %s: %w", e.To, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("mailer: email API returned %s", resp.Status)
	}

	m.log.Info("email sent",
		zap.String("to", e.To),
		zap.String("subject", e.Subject))
	return nil
}
