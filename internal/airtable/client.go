package airtable

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const defaultBaseURL = "https://api.airtable.com/v0"

// ErrMissingRecords is returned when a list response has no "records" array.
var ErrMissingRecords = errors.New("airtable response has no records array")

// APIError is a non-2xx answer from Airtable.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("airtable API error %d: %s", e.StatusCode, e.Body)
}

// Response is an Airtable reply passed through untouched.
type Response struct {
	StatusCode int
	Body       []byte
}

// Client talks to the tables of one Airtable base.
type Client struct {
	client  *http.Client
	baseURL string
	baseID  string
	token   string
	tracer  trace.Tracer
	limiter *RateLimiter
}

// NewClient creates a client limited to Airtable's 5 requests per second per base.
func NewClient(tracer trace.Tracer, baseID, token string) *Client {
	return &Client{
		client:  &http.Client{Timeout: 30 * time.Second},
		baseURL: defaultBaseURL,
		baseID:  baseID,
		token:   token,
		tracer:  tracer,
		limiter: NewRateLimiter(5, 200*time.Millisecond),
	}
}

// ListRecords returns every record of a table, following pagination offsets.
func (c *Client) ListRecords(ctx context.Context, tableID string) ([]gjson.Result, error) {
	ctx, span := c.tracer.Start(ctx, "airtable.list-records")
	defer span.End()
	span.SetAttributes(attribute.String("airtable.table", tableID))

	var records []gjson.Result
	offset := ""
	for page := 1; ; page++ {
		query := url.Values{}
		if offset != "" {
			query.Set("offset", offset)
		}

		resp, err := c.Do(ctx, http.MethodGet, tableID, query.Encode(), nil)
		if err != nil {
			return nil, fmt.Errorf("list records page %d: %w", page, err)
		}
		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return nil, &APIError{StatusCode: resp.StatusCode, Body: string(resp.Body)}
		}
		if !gjson.ValidBytes(resp.Body) {
			return nil, fmt.Errorf("list records page %d: invalid JSON body", page)
		}

		parsed := gjson.ParseBytes(resp.Body)
		pageRecords := parsed.Get("records")
		if !pageRecords.IsArray() {
			return nil, ErrMissingRecords
		}
		records = append(records, pageRecords.Array()...)

		next := parsed.Get("offset").String()
		if next == "" || next == offset {
			break
		}
		offset = next
	}

	span.SetAttributes(attribute.Int("airtable.records", len(records)))
	return records, nil
}

// Do sends a single request to a table and returns the reply as received.
// rawQuery is appended verbatim so callers control array encoding.
func (c *Client) Do(ctx context.Context, method, tableID, rawQuery string, body []byte) (*Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	target := fmt.Sprintf("%s/%s/%s", c.baseURL, url.PathEscape(c.baseID), url.PathEscape(tableID))
	if rawQuery != "" {
		target += "?" + rawQuery
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, target, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read airtable response: %w", err)
	}
	return &Response{StatusCode: resp.StatusCode, Body: data}, nil
}
