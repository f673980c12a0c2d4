package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"dashboard-sync/internal/domain"
)

// UpdateResult is the body of POST /api/update.
type UpdateResult struct {
	Success    bool    `json:"success"`
	Message    string  `json:"message"`
	LastUpdate *string `json:"lastUpdate"`
}

// Client reads prices from a running dashboard-sync server.
type Client struct {
	client  *http.Client
	baseURL string
}

func New(baseURL string) *Client {
	return &Client{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// FetchPrices returns the server's current snapshot.
func (c *Client) FetchPrices(ctx context.Context) (domain.Snapshot, error) {
	var snap domain.Snapshot
	if err := c.do(ctx, http.MethodGet, "/api/prices", &snap); err != nil {
		return domain.Snapshot{}, fmt.Errorf("fetch prices: %w", err)
	}
	return snap, nil
}

// TriggerUpdate asks the server to refresh from Airtable and waits for the result.
func (c *Client) TriggerUpdate(ctx context.Context) (*UpdateResult, error) {
	var res UpdateResult
	if err := c.do(ctx, http.MethodPost, "/api/update", &res); err != nil {
		return nil, fmt.Errorf("trigger update: %w", err)
	}
	return &res, nil
}

func (c *Client) do(ctx context.Context, method, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return fmt.Errorf("server error %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
