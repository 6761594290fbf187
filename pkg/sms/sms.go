package sms

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shoaibhasann/zahra/config"
	"github.com/shoaibhasann/zahra/pkg/logger"
)

// Sender delivers a text message to a phone number.
type Sender interface {
	Send(ctx context.Context, phone, message string) error
}

type twilioSender struct {
	cfg    *config.SMSConfig
	client *http.Client
}

// NewSender returns a Sender backed by the Twilio Messages API. Without
// credentials it degrades to a logger-only sender for local development.
func NewSender(cfg *config.SMSConfig) Sender {
	if cfg.AccountSID == "" || cfg.AuthToken == "" {
		logger.Warn("SMS gateway not configured, messages will only be logged", nil)
		return &devSender{}
	}
	return &twilioSender{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *twilioSender) Send(ctx context.Context, phone, message string) error {
	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", s.cfg.BaseURL, s.cfg.AccountSID)

	form := url.Values{}
	form.Set("To", phone)
	form.Set("From", s.cfg.From)
	form.Set("Body", message)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("failed to build sms request: %w", err)
	}
	req.SetBasicAuth(s.cfg.AccountSID, s.cfg.AuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.client.Do(req)
	if err != nil {
		return fmt.Errorf("sms gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("sms gateway returned status %d: %s", resp.StatusCode, string(body))
	}

	logger.Debug("SMS dispatched", map[string]interface{}{
		"phone": phone,
	})
	return nil
}

type devSender struct{}

func (d *devSender) Send(_ context.Context, phone, message string) error {
	logger.Info("SMS (dev mode)", map[string]interface{}{
		"phone":   phone,
		"message": message,
	})
	return nil
}
