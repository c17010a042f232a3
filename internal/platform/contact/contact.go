// Package contact relays contact-form messages to an external form
// endpoint that answers {"success": bool}.
package contact

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/diagnosis/heritage-portal/internal/domain"
)

type Message struct {
	Name    string `json:"name" validate:"required,max=120"`
	Email   string `json:"email" validate:"required,email,max=254"`
	Subject string `json:"subject" validate:"required,max=200"`
	Message string `json:"message" validate:"required,max=5000"`
}

type Relay interface {
	Send(ctx context.Context, msg Message) error
}

type Client struct {
	url  string
	http *http.Client
}

func NewClient(url string, timeout time.Duration) *Client {
	return &Client{url: url, http: &http.Client{Timeout: timeout}}
}

type relayResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// Send posts msg to the relay. Transport failures, non-2xx answers and
// {"success": false} are all reported as domain.ErrUpstream.
func (c *Client) Send(ctx context.Context, msg Message) error {
	if c.url == "" {
		return fmt.Errorf("contact relay not configured: %w", domain.ErrUpstream)
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode contact message: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build relay request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("relay contact message: %w: %w", domain.ErrUpstream, err)
	}
	defer res.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(res.Body, 64<<10))
	if res.StatusCode < 200 || res.StatusCode >= 300 {
		return fmt.Errorf("relay answered status %d: %w", res.StatusCode, domain.ErrUpstream)
	}

	var out relayResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return fmt.Errorf("decode relay response: %w: %w", domain.ErrUpstream, err)
	}
	if !out.Success {
		return fmt.Errorf("relay rejected message %q: %w", out.Message, domain.ErrUpstream)
	}
	return nil
}
