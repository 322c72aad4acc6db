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

// SlackWebhook posts a short new-lead alert to an incoming webhook.
type SlackWebhook struct {
	httpClient *http.Client
	url        string
}

func NewSlackWebhook(url string) *SlackWebhook {
	return &SlackWebhook{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		url:        url,
	}
}

func (w *SlackWebhook) Configured() bool { return w.url != "" }

// Post sends the alert text as a plain webhook message.
func (w *SlackWebhook) Post(ctx context.Context, text string) error {
	if !w.Configured() {
		return fmt.Errorf("webhook not configured")
	}

	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return fmt.Errorf("failed to marshal webhook payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, w.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to post webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("webhook returned status %d: %s", resp.StatusCode, string(payload))
	}
	return nil
}
