// Package client is an HTTP client for the fit API.
package client

import (
	"bytes"
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

	"github.com/atinyakov/fit/internal/models"
)

const defaultTimeout = 10 * time.Second

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server error: %s", http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("server error: %s", e.Message)
}

// IsNotFound reports whether err is a 404 from the server.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// Client talks to the fit API at a base URL.
type Client struct {
	baseURL string
	http    *http.Client
}

// New returns a client for baseURL. A nil httpClient gets a default one
// with a 10 second timeout.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// ConnectResult is the server's answer to Connect.
type ConnectResult struct {
	TrackerType models.TrackerType `json:"tracker_type"`
	Active      bool               `json:"active"`
}

// List returns the configured trackers.
func (c *Client) List(ctx context.Context) ([]models.TrackerInfo, error) {
	var infos []models.TrackerInfo
	if err := c.do(ctx, http.MethodGet, "/api/trackers", nil, &infos); err != nil {
		return nil, err
	}
	return infos, nil
}

// Types returns the tracker types the server supports.
func (c *Client) Types(ctx context.Context) ([]models.TrackerType, error) {
	var types []models.TrackerType
	if err := c.do(ctx, http.MethodGet, "/api/trackers/types", nil, &types); err != nil {
		return nil, err
	}
	return types, nil
}

// Connect stores credentials for a tracker on the server.
func (c *Client) Connect(ctx context.Context, trackerType models.TrackerType, username, password string, setActive bool) (*ConnectResult, error) {
	req := map[string]any{
		"tracker_type": trackerType,
		"username":     username,
		"password":     password,
		"set_active":   setActive,
	}
	var res ConnectResult
	if err := c.do(ctx, http.MethodPost, "/api/trackers", req, &res); err != nil {
		return nil, err
	}
	return &res, nil
}

// SetActive selects the active tracker.
func (c *Client) SetActive(ctx context.Context, trackerType models.TrackerType) error {
	req := map[string]any{"tracker_type": trackerType}
	return c.do(ctx, http.MethodPut, "/api/trackers/active", req, nil)
}

// Active returns the active tracker; ok is false when none is selected.
func (c *Client) Active(ctx context.Context) (models.TrackerType, bool, error) {
	var cfg models.ActiveTrackerConfig
	err := c.do(ctx, http.MethodGet, "/api/trackers/active", nil, &cfg)
	if IsNotFound(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	t, ok := cfg.Active()
	return t, ok, nil
}

// Remove deletes the credentials of a tracker.
func (c *Client) Remove(ctx context.Context, trackerType models.TrackerType) error {
	return c.do(ctx, http.MethodDelete, "/api/trackers/"+url.PathEscape(string(trackerType)), nil, nil)
}

// Metrics fetches the current metrics of the active tracker.
func (c *Client) Metrics(ctx context.Context) (*models.Reading, error) {
	var r models.Reading
	if err := c.do(ctx, http.MethodGet, "/api/metrics", nil, &r); err != nil {
		return nil, err
	}
	return &r, nil
}

// History returns up to limit recorded readings; 0 uses the server default.
func (c *Client) History(ctx context.Context, limit int) ([]models.Reading, error) {
	path := "/api/metrics/history"
	if limit > 0 {
		path += "?limit=" + strconv.Itoa(limit)
	}
	var readings []models.Reading
	if err := c.do(ctx, http.MethodGet, path, nil, &readings); err != nil {
		return nil, err
	}
	return readings, nil
}

// AddMeasurement records a body measurement (height in inches, weight in
// pounds).
func (c *Client) AddMeasurement(ctx context.Context, height, weight float64) (*models.Measurement, error) {
	req := map[string]float64{"height": height, "weight": weight}
	var m models.Measurement
	if err := c.do(ctx, http.MethodPost, "/api/measurements", req, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Measurements returns every measurement, oldest first.
func (c *Client) Measurements(ctx context.Context) ([]models.Measurement, error) {
	var ms []models.Measurement
	if err := c.do(ctx, http.MethodGet, "/api/measurements", nil, &ms); err != nil {
		return nil, err
	}
	return ms, nil
}

// Progress returns the weight progress summary.
func (c *Client) Progress(ctx context.Context) (*models.Progress, error) {
	var p models.Progress
	if err := c.do(ctx, http.MethodGet, "/api/measurements/progress", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// ImportMeasurement records the body measurement reported by the active
// tracker.
func (c *Client) ImportMeasurement(ctx context.Context) (*models.Measurement, error) {
	var m models.Measurement
	if err := c.do(ctx, http.MethodPost, "/api/measurements/import", nil, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{StatusCode: resp.StatusCode, Message: strings.TrimSpace(string(msg))}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("invalid response: %w", err)
	}
	return nil
}
