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

const defaultSheetsBaseURL = "https://sheets.googleapis.com"

// SheetsClient appends lead rows to a Google Sheets spreadsheet
// through the values.append REST endpoint.
type SheetsClient struct {
	httpClient    *http.Client
	baseURL       string
	spreadsheetID string
	token         string
	sheetRange    string
}

func NewSheetsClient(spreadsheetID, token string) *SheetsClient {
	return &SheetsClient{
		httpClient:    &http.Client{Timeout: 30 * time.Second},
		baseURL:       defaultSheetsBaseURL,
		spreadsheetID: spreadsheetID,
		token:         token,
		sheetRange:    "Leads!A:L",
	}
}

// SetBaseURL points the client at a different API host. Used in tests.
func (c *SheetsClient) SetBaseURL(u string) { c.baseURL = u }

func (c *SheetsClient) Configured() bool {
	return c.spreadsheetID != "" && c.token != ""
}

// AppendRow appends one row of cell values to the leads range.
func (c *SheetsClient) AppendRow(ctx context.Context, row []string) error {
	if !c.Configured() {
		return fmt.Errorf("sheets client not configured")
	}

	cells := make([]any, len(row))
	for i, v := range row {
		cells[i] = v
	}
	body, err := json.Marshal(map[string]any{"values": [][]any{cells}})
	if err != nil {
		return fmt.Errorf("failed to marshal sheets row: %w", err)
	}

	url := fmt.Sprintf("%s/v4/spreadsheets/%s/values/%s:append?valueInputOption=USER_ENTERED",
		c.baseURL, c.spreadsheetID, c.sheetRange)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create sheets request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to append sheets row: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		payload, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("sheets append returned status %d: %s", resp.StatusCode, string(payload))
	}
	return nil
}
