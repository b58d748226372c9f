// Package api serves the arena over HTTP: the hypothesis catalog, run
// starts, the run archive, and a live websocket watch. The JSON envelopes
// returned here are the contract the web front end replays runs from.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/swarmforge/arena/internal/engine"
	"github.com/swarmforge/arena/internal/hypothesis"
	"github.com/swarmforge/arena/internal/persistence"
	"github.com/swarmforge/arena/internal/x402"
)

// Server serves the arena HTTP API.
type Server struct {
	Runner *engine.Runner
	DB     *persistence.DB
	Port   int

	// MockDefault controls settlement mode when a request does not specify
	// mockTx. SettleURL is the live settlement endpoint, used when a run
	// asks for real settlement.
	MockDefault bool
	SettleURL   string
}

// Handler builds the route table. Exposed separately from ListenAndServe so
// tests can drive the API through httptest.
func (s *Server) Handler() http.Handler {
	startLimiter := NewRateLimiter(60, time.Hour)

	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.HandleFunc("/api/hypotheses", s.handleHypotheses)
	mux.HandleFunc("/api/arena/start", startLimiter.Middleware(s.handleStart))
	mux.HandleFunc("/api/arena/custom", startLimiter.Middleware(s.handleCustom))
	mux.HandleFunc("/api/arena/watch", s.handleWatch)
	mux.HandleFunc("/api/run/", s.handleRun)

	return corsMiddleware(mux)
}

// ListenAndServe blocks until ctx is canceled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.Port),
		Handler: s.Handler(),
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("arena API listening", "addr", srv.Addr, "mock_tx", s.MockDefault)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

// corsMiddleware allows the front end's origins. Localhost dev servers are
// always allowed; extend with CORS_ORIGINS (comma-separated).
func corsMiddleware(next http.Handler) http.Handler {
	allowedOrigins := map[string]bool{
		"http://localhost:5173": true,
		"http://localhost:4173": true,
		"http://localhost:3000": true,
	}
	if env := os.Getenv("CORS_ORIGINS"); env != "" {
		for _, origin := range strings.Split(env, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				allowedOrigins[origin] = true
			}
		}
	}

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{"ok": true, "track": "x402", "mock": s.MockDefault})
}

func (s *Server) handleHypotheses(w http.ResponseWriter, r *http.Request) {
	items := s.Runner.Catalog.Items()
	writeJSON(w, map[string]any{"count": len(items), "items": items})
}

type startRequest struct {
	HypID  int    `json:"hypId"`
	Seed   *int64 `json:"seed"`
	Rounds int    `json:"rounds"`
	MockTx *bool  `json:"mockTx"`
}

// runResponse embeds the run envelope so its fields flatten into the
// response body, matching what the front end has always parsed.
type runResponse struct {
	OK bool `json:"ok"`
	*engine.Result
	RunURL string `json:"runUrl,omitempty"`
}

func (s *Server) handleStart(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	req := startRequest{HypID: 1}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.execute(w, r, engine.Input{
		HypothesisID: req.HypID,
		Seed:         req.Seed,
		Rounds:       req.Rounds,
		Settler:      s.settlerFor(req.MockTx),
	})
}

type customRequest struct {
	Config json.RawMessage `json:"config"`
	Seed   *int64          `json:"seed"`
	Rounds int             `json:"rounds"`
	MockTx *bool           `json:"mockTx"`
}

func (s *Server) handleCustom(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req customRequest
	if err := decodeBody(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(req.Config) == 0 {
		writeError(w, http.StatusBadRequest, "Missing config")
		return
	}

	h, err := hypothesis.ParseCustom(req.Config)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	s.execute(w, r, engine.Input{
		Custom:  &h,
		Seed:    req.Seed,
		Rounds:  req.Rounds,
		Settler: s.settlerFor(req.MockTx),
	})
}

// execute runs a simulation, archives it, and writes the envelope.
func (s *Server) execute(w http.ResponseWriter, r *http.Request, in engine.Input) {
	res, err := s.Runner.Run(r.Context(), in)
	if err != nil {
		status := http.StatusBadRequest
		slog.Error("run failed", "error", err)
		writeError(w, status, err.Error())
		return
	}

	if err := s.DB.SaveRun(res); err != nil {
		// The run itself succeeded; archiving is best-effort.
		slog.Error("failed to archive run", "run_id", res.RunID, "error", err)
	}

	writeJSON(w, runResponse{OK: true, Result: res, RunURL: "/api/run/" + res.RunID})
}

func (s *Server) handleRun(w http.ResponseWriter, r *http.Request) {
	runID := strings.TrimPrefix(r.URL.Path, "/api/run/")
	if runID == "" || strings.Contains(runID, "/") {
		writeError(w, http.StatusNotFound, "Run not found")
		return
	}

	res, err := s.DB.LoadRun(runID)
	if errors.Is(err, persistence.ErrNotFound) {
		writeError(w, http.StatusNotFound, "Run not found")
		return
	}
	if err != nil {
		slog.Error("failed to load run", "run_id", runID, "error", err)
		writeError(w, http.StatusInternalServerError, "archive error")
		return
	}
	writeJSON(w, runResponse{OK: true, Result: res})
}

// settlerFor resolves the settlement mode for one request: explicit mockTx
// wins, otherwise the server default applies.
func (s *Server) settlerFor(mockTx *bool) x402.Settler {
	useMock := s.MockDefault
	if mockTx != nil {
		useMock = *mockTx
	}
	return x402.ForMode(useMock, s.SettleURL)
}

func decodeBody(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("bad request body: %w", err)
	}
	return nil
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.Encode(data)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]any{"ok": false, "error": msg})
}

// queryInt parses an integer query parameter, returning def when absent.
func queryInt(r *http.Request, key string, def int) (int, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("bad %s: %q", key, raw)
	}
	return n, nil
}
