package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// SheetsGateway talks to the spreadsheet web app: one POST endpoint taking
// {action, sheet, payload}. The text/plain content type is deliberate; it
// keeps the upstream from demanding a CORS preflight it cannot answer.
type SheetsGateway struct {
	URL    string
	Client *http.Client
}

func NewSheetsGateway(url string) *SheetsGateway {
	return &SheetsGateway{
		URL:    url,
		Client: &http.Client{Timeout: 30 * time.Second},
	}
}

type sheetsRequest struct {
	Action  Action `json:"action"`
	Sheet   string `json:"sheet"`
	Payload any    `json:"payload"`
}

func (g *SheetsGateway) Invoke(ctx context.Context, action Action, collection string, payload any) (*Result, error) {
	if payload == nil {
		payload = map[string]any{}
	}
	body, err := json.Marshal(sheetsRequest{Action: action, Sheet: collection, Payload: payload})
	if err != nil {
		return nil, fmt.Errorf("encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.URL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "text/plain;charset=utf-8")

	resp, err := g.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("store returned HTTP %d", resp.StatusCode)
	}
	var res Result
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &res, nil
}
