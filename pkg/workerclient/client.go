// Package workerclient is a small client for the tabtriage worker API.
package workerclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/thebtf/tabtriage/pkg/models"
)

const (
	// HealthCheckTimeout bounds IsRunning health checks.
	HealthCheckTimeout = 1 * time.Second

	// RequestTimeout bounds regular API calls.
	RequestTimeout = 10 * time.Second
)

// Health is the worker's /api/health response.
type Health struct {
	Maintenance map[string]any `json:"maintenance,omitempty"`
	Status      string         `json:"status"`
	Version     string         `json:"version"`
	Uptime      string         `json:"uptime"`
	Backend     string         `json:"backend"`
	Clients     int            `json:"clients"`
}

// Client calls a worker over HTTP.
type Client struct {
	http    *http.Client
	baseURL string
	token   string
}

// New returns a client for the worker on localhost:port.
func New(port int, token string) *Client {
	return NewWithBaseURL(fmt.Sprintf("http://127.0.0.1:%d", port), token)
}

// NewWithBaseURL returns a client for the worker at baseURL.
func NewWithBaseURL(baseURL, token string) *Client {
	return &Client{
		http:    &http.Client{Timeout: RequestTimeout},
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
	}
}

// IsRunning reports whether the worker answers its health check.
func (c *Client) IsRunning(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, HealthCheckTimeout)
	defer cancel()
	_, err := c.Health(ctx)
	return err == nil
}

// Health fetches the worker health report.
func (c *Client) Health(ctx context.Context) (Health, error) {
	var h Health
	err := c.do(ctx, http.MethodGet, "/api/health", nil, &h)
	return h, err
}

type tabsRequest struct {
	States models.TabStates      `json:"states,omitempty"`
	Tabs   []models.TabRecord    `json:"tabs"`
	Groups []models.TabGroupInfo `json:"groups,omitempty"`
}

// Enrich scores and classifies tabs on the worker. states and groups may be nil.
func (c *Client) Enrich(ctx context.Context, tabs []models.TabRecord, states models.TabStates, groups []models.TabGroupInfo) ([]models.ScoredTab, error) {
	var resp struct {
		Tabs []models.ScoredTab `json:"tabs"`
	}
	if err := c.do(ctx, http.MethodPost, "/api/tabs/enrich", tabsRequest{Tabs: tabs, States: states, Groups: groups}, &resp); err != nil {
		return nil, err
	}
	return resp.Tabs, nil
}

// Suggestions returns the worker's suggestion buckets for tabs.
func (c *Client) Suggestions(ctx context.Context, tabs []models.TabRecord, states models.TabStates, groups []models.TabGroupInfo) (models.SuggestionBuckets, error) {
	var b models.SuggestionBuckets
	err := c.do(ctx, http.MethodPost, "/api/tabs/suggestions", tabsRequest{Tabs: tabs, States: states, Groups: groups}, &b)
	return b, err
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	Message string
	Code    int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("worker returned %d: %s", e.Code, e.Message)
}

func (c *Client) do(ctx context.Context, method, path string, body, dst any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return err
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("X-Auth-Token", c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return &StatusError{Code: resp.StatusCode, Message: strings.TrimSpace(string(msg))}
	}
	if dst == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(dst)
}

// VersionsCompatible reports whether two build versions share a base version.
// "dev" is compatible with anything.
func VersionsCompatible(v1, v2 string) bool {
	if v1 == "dev" || v2 == "dev" {
		return true
	}
	return baseVersion(v1) == baseVersion(v2)
}

// baseVersion strips the leading v and any suffix, e.g. "v0.3.5-2-gca711a8-dirty" -> "0.3.5".
func baseVersion(version string) string {
	v := strings.TrimPrefix(version, "v")
	if idx := strings.Index(v, "-"); idx > 0 {
		v = v[:idx]
	}
	return v
}
