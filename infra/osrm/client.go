// Package osrm implements route.Router on top of the OSRM HTTP API.
package osrm

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

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/twpayne/go-polyline"

	"github.com/kilianp07/roadsim/auth"
	"github.com/kilianp07/roadsim/core/route"
	"github.com/kilianp07/roadsim/infra/logger"
)

// DefaultBaseURL is the public OSRM demo server.
const DefaultBaseURL = "https://router.project-osrm.org"

// Config holds the client settings. Zero values select the defaults.
type Config struct {
	BaseURL    string        `json:"base_url"`
	Profile    string        `json:"profile"`    // driving, bike, foot
	Geometries string        `json:"geometries"` // polyline, polyline6, geojson
	Timeout    time.Duration `json:"timeout"`
	// Auth enables OAuth2 client credentials for protected deployments.
	Auth *auth.Conf `json:"auth"`
}

// Error is a response whose code is not "Ok".
type Error struct {
	Code    string
	Message string
}

func (e *Error) Error() string { return fmt.Sprintf("osrm %s: %s", e.Code, e.Message) }

// StatusError is a non-2xx HTTP response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("osrm: unexpected status %d: %s", e.StatusCode, e.Body)
}

// Client queries the route service.
type Client struct {
	baseURL    string
	profile    string
	geometries string
	httpClient *http.Client
	log        logger.Logger
}

var _ route.Router = (*Client)(nil)

// New creates a client.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Profile == "" {
		cfg.Profile = "driving"
	}
	if cfg.Geometries == "" {
		cfg.Geometries = "polyline"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		profile:    cfg.Profile,
		geometries: cfg.Geometries,
		httpClient: auth.NewHTTPClient(&http.Client{Timeout: cfg.Timeout}, cfg.Auth),
		log:        logger.New("osrm"),
	}
}

type response struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Routes  []struct {
		Geometry json.RawMessage `json:"geometry"`
		Distance float64         `json:"distance"`
		Duration float64         `json:"duration"`
	} `json:"routes"`
}

// Routes implements route.Router. A NoRoute answer yields an empty list.
func (c *Client) Routes(ctx context.Context, waypoints ...orb.Point) ([]route.Candidate, error) {
	if len(waypoints) < 2 {
		return nil, fmt.Errorf("osrm: at least two waypoints are required, got %d", len(waypoints))
	}
	coords := make([]string, len(waypoints))
	for i, p := range waypoints {
		coords[i] = strconv.FormatFloat(p.Lon(), 'f', -1, 64) + "," + strconv.FormatFloat(p.Lat(), 'f', -1, 64)
	}
	params := url.Values{}
	params.Set("overview", "full")
	params.Set("geometries", c.geometries)
	params.Set("steps", "false")
	u := fmt.Sprintf("%s/route/v1/%s/%s?%s", c.baseURL, c.profile, strings.Join(coords, ";"), params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("osrm: create request: %w", err)
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("osrm: send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("osrm: read response: %w", err)
	}
	var payload response
	jsonErr := json.Unmarshal(body, &payload)
	// OSRM answers NoRoute with a 400 and a JSON body
	if jsonErr == nil && payload.Code == "NoRoute" {
		c.log.Debugf("no route for %s", strings.Join(coords, ";"))
		return nil, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if jsonErr != nil {
		return nil, fmt.Errorf("osrm: decode response: %w", jsonErr)
	}
	if payload.Code != "Ok" {
		return nil, &Error{Code: payload.Code, Message: payload.Message}
	}

	out := make([]route.Candidate, 0, len(payload.Routes))
	for i, r := range payload.Routes {
		ls, err := c.decodeGeometry(r.Geometry)
		if err != nil {
			return nil, fmt.Errorf("osrm: route %d geometry: %w", i, err)
		}
		out = append(out, route.Candidate{Geometry: ls, Distance: r.Distance, Duration: r.Duration})
	}
	return out, nil
}

func (c *Client) decodeGeometry(raw json.RawMessage) (orb.LineString, error) {
	switch c.geometries {
	case "geojson":
		var g geojson.Geometry
		if err := json.Unmarshal(raw, &g); err != nil {
			return nil, err
		}
		ls, ok := g.Geometry().(orb.LineString)
		if !ok {
			return nil, fmt.Errorf("unexpected geometry type %s", g.Type)
		}
		return ls, nil
	case "polyline", "polyline6":
		var enc string
		if err := json.Unmarshal(raw, &enc); err != nil {
			return nil, err
		}
		return DecodePolyline(enc, c.geometries == "polyline6")
	default:
		return nil, fmt.Errorf("unsupported geometries %q", c.geometries)
	}
}

// DecodePolyline decodes an encoded polyline into lon/lat points. precision6
// selects the 1e6 scale used by the polyline6 format.
func DecodePolyline(enc string, precision6 bool) (orb.LineString, error) {
	codec := polyline.Codec{Dim: 2, Scale: 1e5}
	if precision6 {
		codec.Scale = 1e6
	}
	coords, rest, err := codec.DecodeCoords([]byte(enc))
	if err != nil {
		return nil, err
	}
	if len(rest) != 0 {
		return nil, fmt.Errorf("%d trailing bytes in polyline", len(rest))
	}
	ls := make(orb.LineString, len(coords))
	for i, c := range coords {
		ls[i] = orb.Point{c[1], c[0]}
	}
	return ls, nil
}
