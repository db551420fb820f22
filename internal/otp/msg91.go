package otp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/hydroman/server/internal/apperr"
)

const countryCode = "91"

// Msg91Config configures the MSG91 widget adapter.
type Msg91Config struct {
	AuthKey  string
	WidgetID string
	BaseURL  string
	Timeout  time.Duration
}

// Msg91Widget calls the MSG91 Widget API (sendOtp/retryOtp/verifyOtp). It is
// an injectable instance, not a package-level singleton, so tests can point it
// at a fake server or replace it behind the Provider interface.
type Msg91Widget struct {
	authKey  string
	widgetID string
	baseURL  string
	client   *http.Client
}

// NewMsg91Widget creates a new adapter. The HTTP client carries an explicit
// timeout so a hung provider call cannot block a request indefinitely.
func NewMsg91Widget(cfg Msg91Config) *Msg91Widget {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Msg91Widget{
		authKey:  cfg.AuthKey,
		widgetID: cfg.WidgetID,
		baseURL:  strings.TrimSuffix(cfg.BaseURL, "/"),
		client:   &http.Client{Timeout: timeout},
	}
}

// msg91Response is the widget API response envelope. Success is signalled by
// type == "success"; on sendOtp the request handle is carried in message.
type msg91Response struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// FormatPhone normalizes a phone number to MSG91's international format:
// strip non-digits, then prefix the country code for bare 10-digit numbers or
// any number not already carrying it.
func FormatPhone(phone string) string {
	var digits strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			digits.WriteRune(r)
		}
	}
	clean := digits.String()
	if len(clean) == 10 || !strings.HasPrefix(clean, countryCode) {
		clean = countryCode + clean
	}
	return clean
}

// SendOTP issues a challenge via the widget API and returns the reqId handle.
func (w *Msg91Widget) SendOTP(ctx context.Context, phone string) (string, error) {
	if err := w.checkConfigured(); err != nil {
		return "", err
	}

	identifier := FormatPhone(phone)
	resp, err := w.post(ctx, "/sendOtp", map[string]any{
		"widgetId":   w.widgetID,
		"identifier": identifier,
	})
	if err != nil {
		return "", err
	}
	if resp.Type != "success" {
		log.Error().Str("identifier", identifier).Str("message", resp.Message).Msg("msg91 send failed")
		return "", fmt.Errorf("send otp: %s: %w", resp.Message, apperr.ErrProvider)
	}
	// Widget API returns the request handle in the message field.
	return resp.Message, nil
}

// VerifyOTP checks the code against the challenge identified by reqID.
func (w *Msg91Widget) VerifyOTP(ctx context.Context, reqID, code string) (bool, string, error) {
	if reqID == "" || code == "" {
		return false, "", fmt.Errorf("reqID and code are required: %w", apperr.ErrValidation)
	}
	if err := w.checkConfigured(); err != nil {
		return false, "", err
	}

	resp, err := w.post(ctx, "/verifyOtp", map[string]any{
		"widgetId": w.widgetID,
		"reqId":    reqID,
		"otp":      code,
	})
	if err != nil {
		return false, "", err
	}
	if resp.Type != "success" {
		return false, resp.Message, nil
	}
	return true, resp.Message, nil
}

// RetryOTP re-delivers the challenge, optionally via an alternate channel.
func (w *Msg91Widget) RetryOTP(ctx context.Context, reqID, channel string) error {
	if reqID == "" {
		return fmt.Errorf("reqID is required: %w", apperr.ErrValidation)
	}
	if err := w.checkConfigured(); err != nil {
		return err
	}

	payload := map[string]any{
		"widgetId": w.widgetID,
		"reqId":    reqID,
	}
	if channel != "" {
		payload["retryChannel"] = channel
	}

	resp, err := w.post(ctx, "/retryOtp", payload)
	if err != nil {
		return err
	}
	if resp.Type != "success" {
		return fmt.Errorf("retry otp: %s: %w", resp.Message, apperr.ErrProvider)
	}
	return nil
}

// checkConfigured short-circuits before any network call when provider
// credentials are absent.
func (w *Msg91Widget) checkConfigured() error {
	if w.widgetID == "" {
		return fmt.Errorf("MSG91 widget ID not configured: %w", apperr.ErrProvider)
	}
	if w.authKey == "" {
		return fmt.Errorf("MSG91 auth key not configured: %w", apperr.ErrProvider)
	}
	return nil
}

func (w *Msg91Widget) post(ctx context.Context, path string, payload map[string]any) (msg91Response, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return msg91Response{}, fmt.Errorf("marshal msg91 payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return msg91Response{}, fmt.Errorf("build msg91 request: %w", err)
	}
	req.Header.Set("authkey", w.authKey)
	req.Header.Set("Content-Type", "application/json")

	httpResp, err := w.client.Do(req)
	if err != nil {
		return msg91Response{}, fmt.Errorf("msg91 %s: %v: %w", path, err, apperr.ErrProvider)
	}
	defer httpResp.Body.Close()

	var resp msg91Response
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return msg91Response{}, fmt.Errorf("decode msg91 response: %v: %w", err, apperr.ErrProvider)
	}

	log.Debug().Str("path", path).Int("status", httpResp.StatusCode).Str("type", resp.Type).Msg("msg91 response")
	return resp, nil
}
