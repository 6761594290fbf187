package mailer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/shoaibhasann/zahra/config"
	"github.com/shoaibhasann/zahra/pkg/logger"
)

// Mailer delivers an email.
type Mailer interface {
	Send(ctx context.Context, to, subject, body string) error
}

type httpMailer struct {
	cfg    *config.EmailConfig
	client *http.Client
}

// NewMailer returns a Mailer backed by the Resend HTTP API. Without an API
// key it degrades to a logger-only mailer for local development.
func NewMailer(cfg *config.EmailConfig) Mailer {
	if cfg.APIKey == "" {
		logger.Warn("Email API not configured, emails will only be logged", nil)
		return &devMailer{}
	}
	return &httpMailer{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

type sendRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	Text    string   `json:"text"`
}

func (m *httpMailer) Send(ctx context.Context, to, subject, body string) error {
	payload, err := json.Marshal(sendRequest{
		From:    m.cfg.From,
		To:      []string{to},
		Subject: subject,
		Text:    body,
	})
	if err != nil {
		return fmt.Errorf("failed to encode email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.cfg.BaseURL+"/emails", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to build email request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+m.cfg.APIKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return fmt.Errorf("email request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("email API returned status %d: %s", resp.StatusCode, string(raw))
	}

	logger.Debug("Email dispatched", map[string]interface{}{
		"to":      to,
		"subject": subject,
	})
	return nil
}

type devMailer struct{}

func (d *devMailer) Send(_ context.Context, to, subject, body string) error {
	logger.Info("Email (dev mode)", map[string]interface{}{
		"to":      to,
		"subject": subject,
		"body":    body,
	})
	return nil
}
