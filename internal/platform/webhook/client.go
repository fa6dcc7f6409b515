// Package webhook delivers signed event payloads to subscriber URLs over HTTP.
package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

// Headers sent with every delivery.
const (
	HeaderEvent     = "X-Folio-Event"
	HeaderDelivery  = "X-Folio-Delivery"
	HeaderSignature = "X-Folio-Signature"
)

// ErrDeliveryRejected is returned when the subscriber answers with a non-2xx status.
var ErrDeliveryRejected = errors.New("webhook delivery rejected")

// Config tunes the HTTP client.
type Config struct {
	Timeout    time.Duration
	MaxRetries int
	// RetryWait is the initial backoff between attempts; resty doubles it up to RetryMaxWait.
	RetryWait    time.Duration
	RetryMaxWait time.Duration
	UserAgent    string
}

// Delivery is one POST to a subscriber.
type Delivery struct {
	URL        string
	Secret     string
	EventType  string
	DeliveryID string
	Body       []byte
}

// Client posts deliveries with resty, retrying network errors, 429 and 5xx responses.
type Client struct {
	http *resty.Client
}

// NewClient builds a Client. Zero durations in cfg fall back to a 10s
// timeout and 500ms/5s backoff bounds. MaxRetries 0 sends a single attempt;
// a negative value is treated as 0.
func NewClient(cfg Config) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxRetries < 0 {
		cfg.MaxRetries = 0
	}
	if cfg.RetryWait <= 0 {
		cfg.RetryWait = 500 * time.Millisecond
	}
	if cfg.RetryMaxWait <= 0 {
		cfg.RetryMaxWait = 5 * time.Second
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = "folio-webhooks/1.0"
	}

	cli := resty.New().
		SetTimeout(cfg.Timeout).
		SetRetryCount(cfg.MaxRetries).
		SetRetryWaitTime(cfg.RetryWait).
		SetRetryMaxWaitTime(cfg.RetryMaxWait).
		SetHeader("User-Agent", cfg.UserAgent).
		AddRetryCondition(func(resp *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			code := resp.StatusCode()
			return code == http.StatusTooManyRequests || code >= http.StatusInternalServerError
		})

	return &Client{http: cli}
}

// Sign returns "sha256=<hex>" for body keyed by secret.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

// Verify reports whether signature matches body under secret.
func Verify(secret string, body []byte, signature string) bool {
	return hmac.Equal([]byte(Sign(secret, body)), []byte(strings.TrimSpace(signature)))
}

// Deliver posts d.Body as JSON. Deliveries without a secret are sent unsigned.
func (c *Client) Deliver(ctx context.Context, d Delivery) error {
	req := c.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader(HeaderEvent, d.EventType).
		SetHeader(HeaderDelivery, d.DeliveryID).
		SetBody(d.Body)
	if d.Secret != "" {
		req.SetHeader(HeaderSignature, Sign(d.Secret, d.Body))
	}

	resp, err := req.Post(d.URL)
	if err != nil {
		return fmt.Errorf("webhook request: %w", err)
	}
	if resp.StatusCode() < http.StatusOK || resp.StatusCode() >= http.StatusMultipleChoices {
		return fmt.Errorf("%w: http %d", ErrDeliveryRejected, resp.StatusCode())
	}
	return nil
}
