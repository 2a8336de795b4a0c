package market

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	DefaultBaseURL    = "https://api.data.gov.in/resource/"
	DefaultResourceID = "9ef84268-d588-465a-a308-a864a43d0070"
	DefaultLimit      = 10
)

// ErrMissingAPIKey is returned before any request when no key is configured.
var ErrMissingAPIKey = errors.New("the data.gov.in API key is not configured")

// Client calls the daily commodity price resource.
type Client struct {
	BaseURL    string
	ResourceID string
	APIKey     string
	Limit      int
	HTTPClient *http.Client
}

func NewClient(apiKey string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{
		BaseURL:    DefaultBaseURL,
		ResourceID: DefaultResourceID,
		APIKey:     apiKey,
		Limit:      DefaultLimit,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// URL builds the request URL for q.
func (c *Client) URL(q Query) (string, error) {
	base := c.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	resource := c.ResourceID
	if resource == "" {
		resource = DefaultResourceID
	}
	u, err := url.Parse(strings.TrimSuffix(base, "/") + "/" + resource)
	if err != nil {
		return "", fmt.Errorf("invalid market API base URL: %w", err)
	}

	limit := q.Limit
	if limit <= 0 {
		limit = c.Limit
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	params := url.Values{}
	params.Set("api-key", c.APIKey)
	params.Set("format", "json")
	params.Set("offset", "0")
	params.Set("limit", strconv.Itoa(limit))
	if d := strings.TrimSpace(q.District); d != "" {
		params.Set("filters[district]", d)
	}
	if cm := strings.TrimSpace(q.Commodity); cm != "" {
		params.Set("filters[commodity]", cm)
	}
	u.RawQuery = params.Encode()
	return u.String(), nil
}

// Fetch performs one request. There is no retry.
func (c *Client) Fetch(ctx context.Context, q Query) (*Response, error) {
	if c.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	endpoint, err := c.URL(q)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build market request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	httpClient := c.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch market data: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("failed to fetch market data: %d %s: %s",
			resp.StatusCode, http.StatusText(resp.StatusCode), strings.TrimSpace(string(body)))
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("failed to decode market data: %w", err)
	}
	if out.Records == nil {
		out.Records = []Record{}
	}
	return &out, nil
}
