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

const defaultSendGridBaseURL = "https://api.sendgrid.com"

// SendGridClient sends the courtesy lead email through the v3 mail
// send endpoint.
type SendGridClient struct {
	httpClient *http.Client
	baseURL    string
	apiKey     string
	sender     string
}

func NewSendGridClient(apiKey, sender string) *SendGridClient {
	return &SendGridClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    defaultSendGridBaseURL,
		apiKey:     apiKey,
		sender:     sender,
	}
}

// SetBaseURL points the client at a different API host. Used in tests.
func (c *SendGridClient) SetBaseURL(u string) { c.baseURL = u }

func (c *SendGridClient) Configured() bool {
	return c.apiKey != "" && c.sender != ""
}

// Send delivers a plain-text email to a single recipient.
func (c *SendGridClient) Send(ctx context.Context, to, subject, body string) error {
	if !c.Configured() {
		return fmt.Errorf("sendgrid client not configured")
	}

	payload, err := json.Marshal(map[string]any{
		"personalizations": []map[string]any{
			{"to": []map[string]string{{"email": to}}},
		},
		"from":    map[string]string{"email": c.sender},
		"subject": subject,
		"content": []map[string]string{
			{"type": "text/plain", "value": body},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to marshal email payload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v3/mail/send", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create email request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("sendgrid returned status %d: %s", resp.StatusCode, string(detail))
	}
	return nil
}
