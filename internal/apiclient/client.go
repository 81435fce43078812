// Package apiclient reads samples back from a running ingest service.
package apiclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/tinytelemetry/hostmon/internal/model"
)

const errorSnippetLimit = 512

// Client queries the service's read endpoints over HTTP.
type Client struct {
	base   *url.URL
	client *http.Client
}

// New returns a client for the service rooted at baseURL
// (for example http://127.0.0.1:8000).
func New(baseURL string, timeout time.Duration) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("apiclient: parse base url: %w", err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, fmt.Errorf("apiclient: invalid base url %q", baseURL)
	}
	if timeout <= 0 {
		timeout = model.DefaultSendTimeout
	}
	return &Client{base: u, client: &http.Client{Timeout: timeout}}, nil
}

// BaseURL returns the service root the client talks to.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// Latest fetches up to limit samples newest-first, optionally for one host.
func (c *Client) Latest(ctx context.Context, limit int, host string) ([]model.MetricSample, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	if host != "" {
		q.Set("host", host)
	}

	var samples []model.MetricSample
	if err := c.get(ctx, "/latest", q, &samples); err != nil {
		return nil, err
	}
	return samples, nil
}

// Health returns nil when the service answers /health with status ok.
func (c *Client) Health(ctx context.Context) error {
	var body struct {
		Status string `json:"status"`
	}
	if err := c.get(ctx, "/health", nil, &body); err != nil {
		return err
	}
	if body.Status != "ok" {
		return fmt.Errorf("apiclient: health status %q", body.Status)
	}
	return nil
}

func (c *Client) get(ctx context.Context, path string, q url.Values, dest any) error {
	u := *c.base
	u.Path = c.base.Path + path
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return fmt.Errorf("apiclient: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("apiclient: GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, errorSnippetLimit))
		return fmt.Errorf("apiclient: GET %s: status %d: %s", path, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("apiclient: decode %s: %w", path, err)
	}
	return nil
}
