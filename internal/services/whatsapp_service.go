package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// ErrRelayDisabled is returned when no messaging credentials are configured.
var ErrRelayDisabled = errors.New("whatsapp relay is disabled")

// MessageRelay delivers a text message to a phone number in international format.
type MessageRelay interface {
	SendWhatsApp(ctx context.Context, to, body string) error
}

// WhatsAppConfig holds Twilio-compatible relay credentials.
type WhatsAppConfig struct {
	APIURL     string
	AccountSID string
	AuthToken  string
	From       string
}

func (c WhatsAppConfig) enabled() bool {
	return c.AccountSID != "" && c.AuthToken != "" && c.From != ""
}

// WhatsAppService sends messages through the Twilio Messages API.
type WhatsAppService struct {
	cfg        WhatsAppConfig
	httpClient *http.Client
}

func NewWhatsAppService(cfg WhatsAppConfig) *WhatsAppService {
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	return &WhatsAppService{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

func (s *WhatsAppService) SendWhatsApp(ctx context.Context, to, body string) error {
	if !s.cfg.enabled() {
		return ErrRelayDisabled
	}

	form := url.Values{}
	form.Set("From", withChannel(s.cfg.From))
	form.Set("To", withChannel(to))
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/Accounts/%s/Messages.json", s.cfg.APIURL, url.PathEscape(s.cfg.AccountSID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("whatsapp request build: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.SetBasicAuth(s.cfg.AccountSID, s.cfg.AuthToken)

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("whatsapp request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("whatsapp send failed: status %d, body: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

func withChannel(number string) string {
	if strings.HasPrefix(number, "whatsapp:") {
		return number
	}
	return "whatsapp:" + number
}
