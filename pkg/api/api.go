// Package api serves the logger's HTTP surface: the live status, the
// operator screen, remote key presses, health probes and Prometheus
// metrics.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/itohio/godatalog/pkg/collector"
	"github.com/itohio/godatalog/pkg/display"
	"github.com/itohio/godatalog/pkg/eeprom"
	"github.com/itohio/godatalog/pkg/health"
	"github.com/itohio/godatalog/pkg/keypad"
	"github.com/itohio/godatalog/pkg/observe"
	"github.com/itohio/godatalog/pkg/scheduler"
)

// StatusSource publishes loop snapshots.
type StatusSource interface {
	Status() scheduler.Status
}

// ScreenSource exposes the operator text display.
type ScreenSource interface {
	Lines() [display.Height]string
}

// Server holds the API handlers.
type Server struct {
	status StatusSource
	screen ScreenSource
	keys   *keypad.Queue
	logger *slog.Logger
	now    func() time.Time
}

// New creates a Server. keys may be nil to disable remote key presses.
func New(status StatusSource, screen ScreenSource, keys *keypad.Queue, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		status: status,
		screen: screen,
		keys:   keys,
		logger: logger,
		now:    time.Now,
	}
}

type statusResponse struct {
	scheduler.Status
	Capacity   int    `json:"capacity"`
	Memory     string `json:"memory"`
	LastSample string `json:"last_sample,omitempty"`
	FullIn     string `json:"full_in,omitempty"`
}

type screenResponse struct {
	Lines   [display.Height]string `json:"lines"`
	Readout string                 `json:"readout"`
}

// LoadAPI registers the /api routes on r itself so that a method mismatch
// answers 405 rather than 404.
func (s *Server) LoadAPI(r *mux.Router) {
	r.HandleFunc("/api/status", s.getStatus).Methods("GET")
	r.HandleFunc("/api/screen", s.getScreen).Methods("GET")
	r.HandleFunc("/api/keys/{key}", s.pressKey).Methods("POST")
}

// Router builds the complete HTTP handler.
func Router(s *Server, h *health.Handler, m *observe.Metrics) *mux.Router {
	r := mux.NewRouter()
	s.LoadAPI(r)
	h.Register(r)
	r.Handle("/metrics", promhttp.Handler()).Methods("GET")
	if m != nil {
		r.Use(observe.Middleware(m, s.logger))
	}
	return r
}

func (s *Server) getStatus(w http.ResponseWriter, _ *http.Request) {
	st := s.status.Status()
	now := s.now()

	resp := statusResponse{
		Status:   st,
		Capacity: collector.Capacity,
		Memory: humanize.Bytes(uint64(st.Occupied*eeprom.SlotSize)) + " of " +
			humanize.Bytes(uint64(collector.Capacity*eeprom.SlotSize)),
	}
	if !st.SampledAt.IsZero() {
		resp.LastSample = humanize.RelTime(st.SampledAt, now, "ago", "from now")
	}
	if st.Collecting {
		full := now.Add(time.Duration(st.Available) * scheduler.SamplePeriod)
		resp.FullIn = humanize.RelTime(full, now, "ago", "from now")
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) getScreen(w http.ResponseWriter, _ *http.Request) {
	st := s.status.Status()
	writeJSON(w, http.StatusOK, screenResponse{
		Lines:   s.screen.Lines(),
		Readout: st.Temperature.String(),
	})
}

func (s *Server) pressKey(w http.ResponseWriter, r *http.Request) {
	if s.keys == nil {
		http.Error(w, "remote keys disabled", http.StatusNotFound)
		return
	}

	k, ok := parseKey(mux.Vars(r)["key"])
	if !ok {
		http.Error(w, "key must be one of 0-9, * or #", http.StatusBadRequest)
		return
	}
	if !s.keys.Push(k) {
		http.Error(w, "key queue full", http.StatusTooManyRequests)
		return
	}

	s.logger.Debug("remote key", "key", k.String(), "remote", r.RemoteAddr)
	w.WriteHeader(http.StatusNoContent)
}

// parseKey accepts a single keypad character or the names confirm and
// cancel, which avoid escaping '#' in URLs.
func parseKey(raw string) (keypad.Key, bool) {
	switch raw {
	case "confirm":
		return keypad.Confirm, true
	case "cancel":
		return keypad.Cancel, true
	}
	if len(raw) != 1 {
		return keypad.None, false
	}
	return keypad.Parse(raw[0])
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
