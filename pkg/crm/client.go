package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"time"

	"capital-research-be/internal/pkg/logger"
)

// Client forwards usage events to the CRM webhook. Delivery is best-effort:
// a rejected or failed POST is logged and reported as false, never as an
// error to the caller.
type Client struct {
	WebhookURL string
	HTTPClient *http.Client
	log        logger.ILogger
}

func NewClient(webhookURL string, log logger.ILogger) *Client {
	return &Client{
		WebhookURL: webhookURL,
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		log: log,
	}
}

// Configured reports whether a webhook destination is set.
func (c *Client) Configured() bool {
	return c.WebhookURL != ""
}

// Emit posts one event to the webhook. Returns true iff the downstream
// answered with a 2xx status.
func (c *Client) Emit(ctx context.Context, eventType string, payload map[string]interface{}) bool {
	if !c.Configured() {
		return false
	}

	body := map[string]interface{}{
		"eventType": eventType,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	for key, value := range payload {
		body[key] = value
	}

	raw, err := json.Marshal(body)
	if err != nil {
		c.log.Error("crm", "event marshal failed", map[string]interface{}{"error": err.Error()})
		return false
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.WebhookURL, bytes.NewBuffer(raw))
	if err != nil {
		c.log.Error("crm", "webhook request build failed", map[string]interface{}{"error": err.Error()})
		return false
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		c.log.Warn("crm", "webhook delivery failed", map[string]interface{}{
			"event_type": eventType,
			"error":      err.Error(),
		})
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.log.Warn("crm", "webhook rejected event", map[string]interface{}{
			"event_type": eventType,
			"status":     resp.StatusCode,
		})
		return false
	}
	return true
}
