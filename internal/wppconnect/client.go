// Package wppconnect is a thin HTTP client for a WPPConnect provider server.
// All calls are single-shot, there is no retry loop here. Callers decide how
// to react to provider failures.
package wppconnect

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/dialogix/dialogix/pkg/common"
	"github.com/go-resty/resty/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"
)

// ErrNotConfigured is returned when the provider base URL or token is missing.
// Every exported call checks configuration first so callers get a stable
// sentinel instead of a connection error.
var ErrNotConfigured = errors.New("wppconnect: provider is not configured")

// Config provider connection settings.
type Config struct {
	BaseURL    string
	Token      string
	TokenFile  string
	WebhookURL string
}

// Client talks to one WPPConnect server. Safe for concurrent use.
type Client struct {
	cfg  Config
	rest *resty.Client

	tokenOnce sync.Once
	token     string
}

// NewClient creates a provider client. Retries are disabled on purpose,
// the session heartbeat sweep is the retry mechanism.
func NewClient(cfg Config) *Client {
	rc := resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetRetryCount(0).
		SetHeader("Content-Type", "application/json")
	return &Client{cfg: cfg, rest: rc}
}

// Configured reports whether base URL and token are both available.
func (c *Client) Configured() bool {
	return c.cfg.BaseURL != "" && c.resolveToken() != ""
}

func (c *Client) resolveToken() string {
	c.tokenOnce.Do(func() {
		c.token = c.cfg.Token
		if c.token == "" && c.cfg.TokenFile != "" {
			c.token = common.ReadSecretFile(c.cfg.TokenFile)
			if c.token == "" {
				zap.L().Warn("wppconnect token file empty or unreadable",
					zap.String("namespace", "wppconnect"),
					zap.String("path", c.cfg.TokenFile))
			}
		}
	})
	return c.token
}

func (c *Client) checkConfigured() error {
	if !c.Configured() {
		return ErrNotConfigured
	}
	return nil
}

// Payload is a raw provider response body. Field names vary between
// provider versions, use the probe helpers to read it.
type Payload map[string]interface{}

type callError struct {
	Op     string
	Status int
	Body   string
}

func (e *callError) Error() string {
	return fmt.Sprintf("wppconnect %s: provider returned status %d: %s", e.Op, e.Status, e.Body)
}

// IsProviderError reports whether err came from a non-2xx provider response.
func IsProviderError(err error) bool {
	var ce *callError
	return errors.As(err, &ce)
}

func (c *Client) do(ctx context.Context, op, method, path string, body interface{}) (Payload, error) {
	if err := c.checkConfigured(); err != nil {
		return nil, err
	}
	var out Payload
	req := c.rest.R().
		SetContext(ctx).
		SetAuthToken(c.resolveToken()).
		SetResult(&out)
	if body != nil {
		req.SetBody(body)
	}
	resp, err := req.Execute(method, path)
	if err != nil {
		return nil, errors.Wrapf(err, "wppconnect %s", op)
	}
	if resp.IsError() {
		return nil, &callError{Op: op, Status: resp.StatusCode(), Body: strings.TrimSpace(resp.String())}
	}
	if out == nil {
		out = Payload{}
	}
	return out, nil
}

// StartSession creates or resumes the provider session. The provider is told
// where to deliver webhook events and asked to include the QR code in the
// response when pairing is needed.
func (c *Client) StartSession(ctx context.Context, sessionID string) (Payload, error) {
	body := map[string]interface{}{
		"webhook":    c.cfg.WebhookURL,
		"waitQrCode": true,
	}
	return c.do(ctx, "start-session", resty.MethodPost,
		fmt.Sprintf("/api/%s/start-session", sessionID), body)
}

// LogoutSession terminates the provider session. Callers treat failures as
// best effort, a session the provider never knew about still logs out clean
// on our side.
func (c *Client) LogoutSession(ctx context.Context, sessionID string) (Payload, error) {
	return c.do(ctx, "logout-session", resty.MethodPost,
		fmt.Sprintf("/api/%s/logout-session", sessionID), nil)
}

// CheckConnection returns the provider's view of the session state.
func (c *Client) CheckConnection(ctx context.Context, sessionID string) (Payload, error) {
	return c.do(ctx, "check-connection-session", resty.MethodGet,
		fmt.Sprintf("/api/%s/check-connection-session", sessionID), nil)
}

// QRCode fetches the current pairing QR code, if any.
func (c *Client) QRCode(ctx context.Context, sessionID string) (Payload, error) {
	return c.do(ctx, "qrcode-session", resty.MethodGet,
		fmt.Sprintf("/api/%s/qrcode-session", sessionID), nil)
}

// HostDevice returns the paired device info (phone number, push name).
func (c *Client) HostDevice(ctx context.Context, sessionID string) (Payload, error) {
	return c.do(ctx, "host-device", resty.MethodGet,
		fmt.Sprintf("/api/%s/host-device", sessionID), nil)
}
