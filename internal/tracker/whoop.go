package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"golang.org/x/oauth2"

	"github.com/atinyakov/fit/internal/models"
)

const (
	// WhoopAuthURL is the host serving the WHOOP password-grant token endpoint.
	WhoopAuthURL = "https://api-7.whoop.com"
	// WhoopAPIURL is the base URL of the WHOOP developer API.
	WhoopAPIURL = "https://api.prod.whoop.com/developer"

	defaultTimeout = 10 * time.Second
	// maxErrorBody bounds how much of an error response is kept in HTTPError.
	maxErrorBody = 512
)

// Cycle is a WHOOP physiological cycle.
type Cycle struct {
	ID         json.Number `json:"id"`
	UserID     json.Number `json:"user_id"`
	Start      time.Time   `json:"start"`
	End        *time.Time  `json:"end"`
	ScoreState string      `json:"score_state"`
	Score      *CycleScore `json:"score"`
}

// CycleScore holds the scored values of a cycle.
type CycleScore struct {
	Strain           float64 `json:"strain"`
	Kilojoule        float64 `json:"kilojoule"`
	AverageHeartRate float64 `json:"average_heart_rate"`
	MaxHeartRate     float64 `json:"max_heart_rate"`
}

type cycleCollection struct {
	Records   []Cycle `json:"records"`
	NextToken string  `json:"next_token"`
}

// Recovery is the recovery record attached to a cycle.
type Recovery struct {
	CycleID    json.Number    `json:"cycle_id"`
	UserID     json.Number    `json:"user_id"`
	ScoreState string         `json:"score_state"`
	Score      *RecoveryScore `json:"score"`
}

// RecoveryScore holds the scored values of a recovery.
type RecoveryScore struct {
	UserCalibrating  bool    `json:"user_calibrating"`
	RecoveryScore    float64 `json:"recovery_score"`
	RestingHeartRate float64 `json:"resting_heart_rate"`
	HrvRmssdMilli    float64 `json:"hrv_rmssd_milli"`
	Spo2Percentage   float64 `json:"spo2_percentage"`
	SkinTempCelsius  float64 `json:"skin_temp_celsius"`
}

// BodyMeasurement is the user's body measurement record.
type BodyMeasurement struct {
	HeightMeter    float64 `json:"height_meter"`
	WeightKilogram float64 `json:"weight_kilogram"`
	MaxHeartRate   float64 `json:"max_heart_rate"`
}

var (
	_ Tracker      = (*Whoop)(nil)
	_ BodyMeasurer = (*Whoop)(nil)
	_ Account      = (*Whoop)(nil)
)

// Whoop is a WHOOP API client holding an OAuth2 session obtained with
// the account's username and password.
type Whoop struct {
	username string
	password string
	authURL  string
	apiURL   string
	base     *http.Client

	mu     sync.Mutex
	userID string
	client *http.Client
}

// WhoopOption configures a Whoop client.
type WhoopOption func(*Whoop)

// WithWhoopURLs overrides the authentication host and API base URL.
func WithWhoopURLs(authURL, apiURL string) WhoopOption {
	return func(w *Whoop) {
		w.authURL = authURL
		w.apiURL = apiURL
	}
}

// WithHTTPClient sets the client used for the token exchange and as the
// transport under the bearer-authenticated client.
func WithHTTPClient(c *http.Client) WhoopOption {
	return func(w *Whoop) {
		w.base = c
	}
}

// WithUserID presets the user id; the token response will not replace it.
func WithUserID(id string) WhoopOption {
	return func(w *Whoop) {
		w.userID = id
	}
}

// NewWhoop creates a client and authenticates it. On failure it returns
// an *AuthenticationError and no client.
func NewWhoop(ctx context.Context, username, password string, opts ...WhoopOption) (*Whoop, error) {
	w := &Whoop{
		username: username,
		password: password,
		authURL:  WhoopAuthURL,
		apiURL:   WhoopAPIURL,
		base:     &http.Client{Timeout: defaultTimeout},
	}
	for _, opt := range opts {
		opt(w)
	}

	if err := w.Authenticate(ctx); err != nil {
		return nil, err
	}
	return w, nil
}

// UserID returns the WHOOP user id resolved from the token response.
func (w *Whoop) UserID() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.userID
}

// Authenticate fetches a token with the password grant. The user id is
// taken from the token response when it is not already known.
func (w *Whoop) Authenticate(ctx context.Context) error {
	tokenURL := w.authURL + "/oauth/token"
	cfg := &oauth2.Config{
		Endpoint: oauth2.Endpoint{
			TokenURL:  tokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}

	transport := w.base.Transport
	if transport == nil {
		transport = http.DefaultTransport
	}
	hc := &http.Client{
		Timeout:   w.base.Timeout,
		Transport: &jsonTokenTransport{base: transport, tokenURL: tokenURL},
	}
	ctx = context.WithValue(ctx, oauth2.HTTPClient, hc)

	token, err := cfg.PasswordCredentialsToken(ctx, w.username, w.password)
	if err != nil {
		return &AuthenticationError{Tracker: models.Whoop, Err: err}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.userID == "" {
		w.userID = userIDFromToken(token)
	}
	w.client = cfg.Client(context.WithoutCancel(ctx), token)
	w.client.Timeout = w.base.Timeout
	return nil
}

// RestingHeartRate returns the resting heart rate of the recovery for the
// most recent cycle.
func (w *Whoop) RestingHeartRate(ctx context.Context) (float64, error) {
	cycle, err := w.CurrentCycle(ctx)
	if err != nil {
		return 0, err
	}
	recovery, err := w.Recovery(ctx, cycle.ID.String())
	if err != nil {
		return 0, err
	}
	if recovery.Score == nil {
		return 0, fmt.Errorf("recovery for cycle %s (%s): %w", cycle.ID, recovery.ScoreState, ErrNoData)
	}
	return recovery.Score.RestingHeartRate, nil
}

// CaloriesBurned returns the energy of the most recent cycle in kilocalories.
func (w *Whoop) CaloriesBurned(ctx context.Context) (float64, error) {
	cycle, err := w.CurrentCycle(ctx)
	if err != nil {
		return 0, err
	}
	if cycle.Score == nil {
		return 0, fmt.Errorf("cycle %s (%s): %w", cycle.ID, cycle.ScoreState, ErrNoData)
	}
	return KJToKcal(cycle.Score.Kilojoule), nil
}

// CurrentCycle returns the most recent cycle.
func (w *Whoop) CurrentCycle(ctx context.Context) (*Cycle, error) {
	var cycles cycleCollection
	params := url.Values{"limit": {"1"}}
	if err := w.get(ctx, "v1/cycle", params, &cycles); err != nil {
		return nil, err
	}
	if len(cycles.Records) == 0 {
		return nil, fmt.Errorf("current cycle: %w", ErrNoData)
	}
	return &cycles.Records[0], nil
}

// Recovery returns the recovery record for a cycle.
func (w *Whoop) Recovery(ctx context.Context, cycleID string) (*Recovery, error) {
	var recovery Recovery
	if err := w.get(ctx, "v1/cycle/"+url.PathEscape(cycleID)+"/recovery", nil, &recovery); err != nil {
		return nil, err
	}
	return &recovery, nil
}

// BodyMeasurement returns the user's height, weight and max heart rate.
func (w *Whoop) BodyMeasurement(ctx context.Context) (*BodyMeasurement, error) {
	var m BodyMeasurement
	if err := w.get(ctx, "v1/user/measurement/body", nil, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

func (w *Whoop) get(ctx context.Context, slug string, params url.Values, out any) error {
	w.mu.Lock()
	client := w.client
	w.mu.Unlock()
	if client == nil {
		return ErrNotAuthenticated
	}

	u := w.apiURL + "/" + slug
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("request %s: %w", slug, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &HTTPError{
			Method:     req.Method,
			URL:        u,
			StatusCode: resp.StatusCode,
			Body:       string(bytes.TrimSpace(body)),
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", slug, err)
	}
	return nil
}

// userIDFromToken reads user.id from the raw token response.
func userIDFromToken(token *oauth2.Token) string {
	user, ok := token.Extra("user").(map[string]any)
	if !ok {
		return ""
	}
	switch id := user["id"].(type) {
	case string:
		return id
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	case json.Number:
		return id.String()
	default:
		return ""
	}
}

// jsonTokenTransport rewrites the form-encoded token request into a JSON
// object with the same keys and values; the WHOOP token endpoint only
// accepts JSON. Other requests pass through untouched.
type jsonTokenTransport struct {
	base     http.RoundTripper
	tokenURL string
}

func (t *jsonTokenTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodPost || req.Body == nil || stripQuery(req.URL) != t.tokenURL {
		return t.base.RoundTrip(req)
	}

	form, err := io.ReadAll(req.Body)
	req.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("read token request body: %w", err)
	}
	body, err := formBodyToJSON(form)
	if err != nil {
		return nil, err
	}

	out := req.Clone(req.Context())
	out.Body = io.NopCloser(bytes.NewReader(body))
	out.GetBody = func() (io.ReadCloser, error) {
		return io.NopCloser(bytes.NewReader(body)), nil
	}
	out.ContentLength = int64(len(body))
	out.Header.Set("Content-Type", "application/json")
	return t.base.RoundTrip(out)
}

// formBodyToJSON decodes an application/x-www-form-urlencoded body and
// encodes its pairs as a flat JSON object. For repeated keys the last
// value wins.
func formBodyToJSON(form []byte) ([]byte, error) {
	values, err := url.ParseQuery(string(form))
	if err != nil {
		return nil, fmt.Errorf("parse token request body: %w", err)
	}
	flat := make(map[string]string, len(values))
	for k, v := range values {
		if len(v) > 0 {
			flat[k] = v[len(v)-1]
		}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(flat); err != nil {
		return nil, fmt.Errorf("encode token request body: %w", err)
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func stripQuery(u *url.URL) string {
	c := *u
	c.RawQuery = ""
	c.Fragment = ""
	return c.String()
}
