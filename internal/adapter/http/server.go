package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/couchcryptid/lyon-flood-lab/internal/domain"
	"github.com/couchcryptid/lyon-flood-lab/internal/lab"
	"github.com/couchcryptid/lyon-flood-lab/internal/presets"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Server exposes the scenario API plus health, readiness, and metrics endpoints.
type Server struct {
	httpServer *http.Server
	lab        *lab.Lab
	presets    *presets.Set
	logger     *slog.Logger
}

// NewServer creates the HTTP server. The lab doubles as the readiness checker.
func NewServer(addr string, l *lab.Lab, set *presets.Set, logger *slog.Logger) *Server {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      r,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		lab:     l,
		presets: set,
		logger:  logger,
	}

	r.Get("/healthz", sharedobs.LivenessHandler())
	r.Get("/readyz", sharedobs.ReadinessHandler(l))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/scenario", s.handleScenario)
		r.Get("/buildings", s.handleBuildings)
		r.Get("/roi", s.handleROI)
		r.Get("/presets", s.handlePresets)
		r.Get("/presets/{name}", s.handlePreset)
		r.Get("/playback", s.handlePlayback)
	})

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}

func (s *Server) handleScenario(w http.ResponseWriter, r *http.Request) {
	state, ok := s.decode(w, r)
	if !ok {
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, s.lab.Evaluate(state, lab.OriginHTTP))
}

type buildingView struct {
	domain.Building
	domain.Impact
}

func (s *Server) handleBuildings(w http.ResponseWriter, r *http.Request) {
	state, ok := s.decode(w, r)
	if !ok {
		return
	}
	buildings, impacts := s.lab.Impacts(state)
	views := make([]buildingView, len(buildings))
	for i := range buildings {
		views[i] = buildingView{Building: buildings[i], Impact: impacts[i]}
	}
	sharedobs.WriteJSON(w, http.StatusOK, map[string]any{
		"query":     state.Clamped().Query(),
		"buildings": views,
	})
}

func (s *Server) handleROI(w http.ResponseWriter, r *http.Request) {
	state, ok := s.decode(w, r)
	if !ok {
		return
	}
	est := s.lab.EstimateROI(r.Context(), state, lab.OriginHTTP)
	sharedobs.WriteJSON(w, http.StatusOK, map[string]any{
		"query": state.Clamped().Query(),
		"roi":   est,
	})
}

type presetView struct {
	presets.Preset
	Query string `json:"query"`
}

func (s *Server) handlePresets(w http.ResponseWriter, _ *http.Request) {
	seed := s.lab.DefaultState().Seed
	views := make([]presetView, len(s.presets.Presets))
	for i, p := range s.presets.Presets {
		views[i] = presetView{Preset: p, Query: p.State(seed).Query()}
	}
	sharedobs.WriteJSON(w, http.StatusOK, views)
}

func (s *Server) handlePreset(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	p, ok := s.presets.Find(name)
	if !ok {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown preset %q", name))
		return
	}
	sharedobs.WriteJSON(w, http.StatusOK, s.lab.Evaluate(p.State(s.lab.DefaultState().Seed), lab.OriginHTTP))
}

// handlePlayback streams autoplay frames as server-sent events. The sweep
// stops after frames events, at most one full cycle of the lab's sweep, or
// when the client disconnects.
func (s *Server) handlePlayback(w http.ResponseWriter, r *http.Request) {
	state, ok := s.decode(w, r)
	if !ok {
		return
	}
	maxFrames := s.lab.SweepFrames()
	frames := maxFrames
	if v := r.URL.Query().Get("frames"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > maxFrames {
			writeError(w, http.StatusBadRequest, fmt.Sprintf("frames must be 1-%d", maxFrames))
			return
		}
		frames = n
	}

	rc := http.NewResponseController(w)
	// Streams outlive the server's write timeout.
	if err := rc.SetWriteDeadline(time.Time{}); err != nil {
		s.logger.Debug("clear write deadline", "error", err)
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	_ = rc.Flush()

	sent := 0
	task := s.lab.Autoplay(r.Context(), state, func(res lab.Result) bool {
		data, err := json.Marshal(res)
		if err != nil {
			s.logger.Error("encode playback frame", "error", err)
			return false
		}
		if _, err := fmt.Fprintf(w, "event: frame\ndata: %s\n\n", data); err != nil {
			return false
		}
		if err := rc.Flush(); err != nil {
			return false
		}
		sent++
		return sent < frames
	})
	<-task.Done()

	if r.Context().Err() == nil {
		fmt.Fprint(w, "event: end\ndata: {}\n\n") //nolint:errcheck // client may be gone
		_ = rc.Flush()
	}
	s.logger.Debug("playback stream finished", "frames", sent, "query", state.Query())
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request) (domain.ScenarioState, bool) {
	state, err := s.lab.Decode(r.URL.RawQuery)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return domain.ScenarioState{}, false
	}
	return state, true
}

func writeError(w http.ResponseWriter, status int, msg string) {
	sharedobs.WriteJSON(w, status, map[string]string{"error": msg})
}
