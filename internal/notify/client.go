package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// AbsenceAlert is the payload the WhatsApp webhook expects. Field names are
// part of the webhook contract.
type AbsenceAlert struct {
	StudentName string `json:"studentName"`
	PeriodName  string `json:"periodName"`
	ParentPhone string `json:"parentPhone"`
}

// Client posts absence alerts to the messaging webhook. The webhook itself
// (and the WhatsApp provider behind it) is an external collaborator; we only
// speak JSON-over-HTTPS to it and expect a 2xx back.
type Client struct {
	WebhookURL string
	Token      string
	HTTP       *http.Client
	Skip       bool
}

// New creates a client. With skip set, sends succeed without any network
// call; useful for dev and tests.
func New(webhookURL, token string, skip bool) *Client {
	return &Client{
		WebhookURL: webhookURL,
		Token:      token,
		Skip:       skip,
		HTTP: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// SendAbsenceAlert delivers one alert. Non-2xx responses are errors so the
// caller can decide whether to retry; the caller never surfaces them to the
// marking flow.
func (c *Client) SendAbsenceAlert(ctx context.Context, alert AbsenceAlert) error {
	if c.Skip {
		return nil
	}
	body, err := json.Marshal(alert)
	if err != nil {
		return fmt.Errorf("marshal alert: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.WebhookURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return fmt.Errorf("send alert: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("webhook returned %d: %s", resp.StatusCode, snippet)
	}
	return nil
}
