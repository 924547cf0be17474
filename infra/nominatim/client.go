// Package nominatim implements address.Resolver with the OpenStreetMap
// Nominatim search API.
package nominatim

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

	"github.com/kilianp07/roadsim/auth"
	"github.com/kilianp07/roadsim/core/address"
	"github.com/kilianp07/roadsim/infra/logger"
)

const (
	DefaultBaseURL   = "https://nominatim.openstreetmap.org"
	DefaultUserAgent = "roadsim/1.0"
)

// Config holds the client settings. Zero values select the defaults.
type Config struct {
	BaseURL   string        `json:"base_url"`
	UserAgent string        `json:"user_agent"`
	Timeout   time.Duration `json:"timeout"`
	// Auth enables OAuth2 client credentials for protected deployments.
	Auth *auth.Conf `json:"auth"`
}

// StatusError is a non-2xx HTTP response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("nominatim: unexpected status %d: %s", e.StatusCode, e.Body)
}

// Client queries the search endpoint.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	log        logger.Logger
}

var _ address.Resolver = (*Client)(nil)

// New creates a client.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		userAgent:  cfg.UserAgent,
		httpClient: auth.NewHTTPClient(&http.Client{Timeout: cfg.Timeout}, cfg.Auth),
		log:        logger.New("nominatim"),
	}
}

// Search returns up to limit candidates for query, best first. It fails with
// address.ErrLocationNotFound when nothing matches.
func (c *Client) Search(ctx context.Context, query string, limit int) ([]address.Location, error) {
	if limit < 1 {
		limit = 1
	}
	params := url.Values{}
	params.Set("q", query)
	params.Set("limit", strconv.Itoa(limit))
	params.Set("format", "json")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("nominatim: create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("nominatim: send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	var locs []address.Location
	if err := json.NewDecoder(resp.Body).Decode(&locs); err != nil {
		return nil, fmt.Errorf("nominatim: decode response: %w", err)
	}
	if len(locs) == 0 {
		return nil, fmt.Errorf("%w: %q", address.ErrLocationNotFound, query)
	}
	c.log.Debugf("%q resolved to %d location(s)", query, len(locs))
	return locs, nil
}
