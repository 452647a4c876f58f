package client

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atinyakov/fit/internal/models"
)

type roundTripperFunc func(req *http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func newTestClient(fn roundTripperFunc) *Client {
	return New("http://example.com/", &http.Client{Transport: fn, Timeout: time.Second})
}

func TestClient_List(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/api/trackers", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[{"tracker_type":"whoop","username":"u","active":true}]`))
	}))
	defer srv.Close()

	infos, err := New(srv.URL, nil).List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []models.TrackerInfo{{Type: models.Whoop, Username: "u", Active: true}}, infos)
}

func TestClient_Connect(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]any
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]any{
			"tracker_type": "whoop",
			"username":     "u",
			"password":     "p",
			"set_active":   true,
		}, body)

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"tracker_type":"whoop","active":true}`))
	}))
	defer srv.Close()

	res, err := New(srv.URL, nil).Connect(context.Background(), models.Whoop, "u", "p", true)
	require.NoError(t, err)
	assert.True(t, res.Active)
	assert.Equal(t, models.Whoop, res.TrackerType)
}

func TestClient_Active(t *testing.T) {
	c := newTestClient(func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusOK,
			Body:       io.NopCloser(strings.NewReader(`{"active_tracker":"whoop"}`)),
		}, nil
	})
	active, ok, err := c.Active(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, models.Whoop, active)

	c = newTestClient(func(req *http.Request) (*http.Response, error) {
		return &http.Response{
			StatusCode: http.StatusNotFound,
			Body:       io.NopCloser(strings.NewReader("no active tracker\n")),
		}, nil
	})
	_, ok, err = c.Active(context.Background())
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestClient_RemoveAndSetActive(t *testing.T) {
	var got []string
	c := newTestClient(func(req *http.Request) (*http.Response, error) {
		got = append(got, req.Method+" "+req.URL.Path)
		status := http.StatusNoContent
		body := ""
		if req.Method == http.MethodPut {
			status = http.StatusOK
			body = `{"active_tracker":"whoop"}`
		}
		return &http.Response{StatusCode: status, Body: io.NopCloser(strings.NewReader(body))}, nil
	})

	require.NoError(t, c.Remove(context.Background(), models.Whoop))
	require.NoError(t, c.SetActive(context.Background(), models.Whoop))
	assert.Equal(t, []string{"DELETE /api/trackers/whoop", "PUT /api/trackers/active"}, got)
}

func TestClient_MetricsAndHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/metrics":
			_, _ = w.Write([]byte(`{"id":"r1","tracker_type":"whoop","resting_heart_rate":52,"calories_burned":478.01,"recorded_at":"2026-10-19T07:30:00Z"}`))
		case "/api/metrics/history":
			assert.Equal(t, "5", r.URL.Query().Get("limit"))
			_, _ = w.Write([]byte(`[{"id":"r1"},{"id":"r0"}]`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	c := New(srv.URL, nil)

	r, err := c.Metrics(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 52.0, r.RestingHeartRate)
	assert.Equal(t, 478.01, r.CaloriesBurned)
	assert.Equal(t, time.Date(2026, 10, 19, 7, 30, 0, 0, time.UTC), r.RecordedAt)

	readings, err := c.History(context.Background(), 5)
	require.NoError(t, err)
	assert.Len(t, readings, 2)
}

func TestClient_Measurements(t *testing.T) {
	var calls []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, r.Method+" "+r.URL.Path)
		switch {
		case r.URL.Path == "/api/trackers/types":
			_, _ = w.Write([]byte(`["whoop"]`))
		case r.Method == http.MethodPost && r.URL.Path == "/api/measurements":
			var body map[string]float64
			assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, map[string]float64{"height": 70, "weight": 180.5}, body)
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id":"m1","height":70,"weight":180.5,"source":"manual"}`))
		case r.URL.Path == "/api/measurements":
			_, _ = w.Write([]byte(`[{"id":"m1"}]`))
		case r.URL.Path == "/api/measurements/progress":
			_, _ = w.Write([]byte(`{"count":1,"current_weight":180.5,"total_change":null,"measurements":[]}`))
		case r.URL.Path == "/api/measurements/import":
			w.WriteHeader(http.StatusCreated)
			_, _ = w.Write([]byte(`{"id":"m2","source":"whoop"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()
	c := New(srv.URL, nil)
	ctx := context.Background()

	types, err := c.Types(ctx)
	require.NoError(t, err)
	assert.Equal(t, []models.TrackerType{models.Whoop}, types)

	m, err := c.AddMeasurement(ctx, 70, 180.5)
	require.NoError(t, err)
	assert.Equal(t, "m1", m.ID)

	ms, err := c.Measurements(ctx)
	require.NoError(t, err)
	assert.Len(t, ms, 1)

	p, err := c.Progress(ctx)
	require.NoError(t, err)
	require.NotNil(t, p.CurrentWeight)
	assert.Equal(t, 180.5, *p.CurrentWeight)
	assert.Nil(t, p.TotalChange)

	m, err = c.ImportMeasurement(ctx)
	require.NoError(t, err)
	assert.Equal(t, "whoop", m.Source)

	assert.Equal(t, []string{
		"GET /api/trackers/types",
		"POST /api/measurements",
		"GET /api/measurements",
		"GET /api/measurements/progress",
		"POST /api/measurements/import",
	}, calls)
}

func TestClient_Errors(t *testing.T) {
	tests := []struct {
		name    string
		fn      roundTripperFunc
		wantErr string
		check   func(t *testing.T, err error)
	}{
		{
			name: "network error",
			fn: func(req *http.Request) (*http.Response, error) {
				return nil, errors.New("network down")
			},
			wantErr: "request failed",
		},
		{
			name: "server error",
			fn: func(req *http.Request) (*http.Response, error) {
				return &http.Response{
					StatusCode: http.StatusBadGateway,
					Body:       io.NopCloser(strings.NewReader("GET x: status 500\n")),
				}, nil
			},
			wantErr: "server error: GET x: status 500",
			check: func(t *testing.T, err error) {
				var apiErr *APIError
				require.True(t, errors.As(err, &apiErr))
				assert.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
				assert.False(t, IsNotFound(err))
			},
		},
		{
			name: "invalid JSON",
			fn: func(req *http.Request) (*http.Response, error) {
				return &http.Response{
					StatusCode: http.StatusOK,
					Body:       io.NopCloser(strings.NewReader("not-json")),
				}, nil
			},
			wantErr: "invalid response",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newTestClient(tt.fn).Metrics(context.Background())
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
			if tt.check != nil {
				tt.check(t, err)
			}
		})
	}
}

func TestPrompter(t *testing.T) {
	var out strings.Builder
	p := NewPrompter(strings.NewReader("  whoop \r\n p@ss word \nlast"), &out)

	line, err := p.Line("Tracker: ")
	require.NoError(t, err)
	assert.Equal(t, "whoop", line)

	pass, err := p.Password("Password: ")
	require.NoError(t, err)
	assert.Equal(t, " p@ss word ", pass)

	last, err := p.Line("> ")
	require.NoError(t, err)
	assert.Equal(t, "last", last)

	_, err = p.Line("> ")
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, "Tracker: Password: > > ", out.String())
}
