package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itohio/godatalog/pkg/collector"
	"github.com/itohio/godatalog/pkg/display"
	"github.com/itohio/godatalog/pkg/health"
	"github.com/itohio/godatalog/pkg/keypad"
	"github.com/itohio/godatalog/pkg/scheduler"
)

type fixedStatus struct {
	st scheduler.Status
}

func (f fixedStatus) Status() scheduler.Status { return f.st }

var now = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestServer(st scheduler.Status, keys *keypad.Queue) (*Server, *display.Screen) {
	screen := display.NewScreen()
	s := New(fixedStatus{st: st}, screen, keys, nil)
	s.now = func() time.Time { return now }
	return s, screen
}

func serve(s *Server, method, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	Router(s, health.New(), nil).ServeHTTP(rec, httptest.NewRequest(method, path, nil))
	return rec
}

func TestGetStatus_Collecting(t *testing.T) {
	s, _ := newTestServer(scheduler.Status{
		Status:      collector.Status{Occupied: 0, Available: collector.Capacity, Collecting: true},
		State:       "idle",
		Temperature: 2345,
		Celsius:     23.45,
		SampledAt:   now.Add(-3 * time.Second),
	}, nil)

	rec := serve(s, "GET", "/api/status")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, float64(0), body["occupied"])
	assert.Equal(t, float64(collector.Capacity), body["available"])
	assert.Equal(t, true, body["collecting"])
	assert.Equal(t, "idle", body["state"])
	assert.Equal(t, float64(2345), body["temperature"])
	assert.Equal(t, float64(collector.Capacity), body["capacity"])
	assert.Equal(t, "0 B of 2.0 kB", body["memory"])
	assert.Equal(t, "3 seconds ago", body["last_sample"])
	assert.Equal(t, "34 minutes from now", body["full_in"])
}

func TestGetStatus_Idle(t *testing.T) {
	s, _ := newTestServer(scheduler.Status{
		Status: collector.Status{Occupied: 500, Available: collector.Capacity - 500},
	}, nil)

	rec := serve(s, "GET", "/api/status")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.NotContains(t, body, "full_in")
	assert.NotContains(t, body, "last_sample")
	assert.Equal(t, "1.0 kB of 2.0 kB", body["memory"])
}

func TestGetScreen(t *testing.T) {
	s, screen := newTestServer(scheduler.Status{Temperature: 1999}, nil)
	display.Show(screen, "Stored:    12", "Available: 1011")

	rec := serve(s, "GET", "/api/screen")
	require.Equal(t, http.StatusOK, rec.Code)

	var body screenResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	assert.Equal(t, [display.Height]string{"Stored:    12", "Available: 1011"}, body.Lines)
	assert.Equal(t, "19.99", body.Readout)
}

func TestPressKey(t *testing.T) {
	q := keypad.NewQueue(8)
	s, _ := newTestServer(scheduler.Status{}, q)

	tests := []struct {
		path string
		code int
	}{
		{"/api/keys/5", http.StatusNoContent},
		{"/api/keys/%23", http.StatusNoContent},
		{"/api/keys/confirm", http.StatusNoContent},
		{"/api/keys/cancel", http.StatusNoContent},
		{"/api/keys/x", http.StatusBadRequest},
		{"/api/keys/55", http.StatusBadRequest},
	}
	for _, tt := range tests {
		rec := serve(s, "POST", tt.path)
		assert.Equal(t, tt.code, rec.Code, tt.path)
	}

	var got []keypad.Key
	for {
		k, ok := q.Next()
		if !ok {
			break
		}
		got = append(got, k)
	}
	assert.Equal(t, []keypad.Key{'5', keypad.Confirm, keypad.Confirm, keypad.Cancel}, got)
}

func TestPressKey_QueueFull(t *testing.T) {
	q := keypad.NewQueue(1)
	s, _ := newTestServer(scheduler.Status{}, q)

	assert.Equal(t, http.StatusNoContent, serve(s, "POST", "/api/keys/1").Code)
	assert.Equal(t, http.StatusTooManyRequests, serve(s, "POST", "/api/keys/2").Code)
}

func TestPressKey_Disabled(t *testing.T) {
	s, _ := newTestServer(scheduler.Status{}, nil)
	assert.Equal(t, http.StatusNotFound, serve(s, "POST", "/api/keys/1").Code)
}

func TestRouter_HealthAndMetrics(t *testing.T) {
	s, _ := newTestServer(scheduler.Status{}, nil)

	assert.Equal(t, http.StatusOK, serve(s, "GET", "/healthz").Code)
	assert.Equal(t, http.StatusOK, serve(s, "GET", "/readyz").Code)
	assert.Equal(t, http.StatusOK, serve(s, "GET", "/metrics").Code)
	assert.Equal(t, http.StatusMethodNotAllowed, serve(s, "POST", "/api/status").Code)
}

func TestRouter_MethodMismatch(t *testing.T) {
	s, _ := newTestServer(scheduler.Status{}, keypad.NewQueue(1))

	tests := []struct {
		method, path string
	}{
		{"POST", "/api/status"},
		{"DELETE", "/api/screen"},
		{"GET", "/api/keys/1"},
		{"POST", "/healthz"},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			assert.Equal(t, http.StatusMethodNotAllowed, serve(s, tt.method, tt.path).Code)
		})
	}
	assert.Equal(t, http.StatusNotFound, serve(s, "GET", "/api/nothing").Code)
}
