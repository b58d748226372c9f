package api

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/websocket"

	"github.com/swarmforge/arena/internal/engine"
	"github.com/swarmforge/arena/internal/ledger"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// Origin is enforced by the CORS allowlist on the page that opens the
	// socket; the watch stream itself is read-only observation.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// watchMessage is one frame on the watch stream: each ledger entry as the
// engine emits it, then the final envelope.
type watchMessage struct {
	Type   string         `json:"type"` // "entry" | "result" | "error"
	Entry  *ledger.Entry  `json:"entry,omitempty"`
	Result *engine.Result `json:"result,omitempty"`
	Error  string         `json:"error,omitempty"`
}

// handleWatch runs a simulation and streams its ledger live over a
// websocket. Query params: hypId, seed, rounds, mockTx. The engine stays
// strictly sequential; the socket just observes each append.
func (s *Server) handleWatch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	hypID, err := queryInt(r, "hypId", 1)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	rounds, err := queryInt(r, "rounds", 0)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var seed *int64
	if raw := q.Get("seed"); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad seed: "+raw)
			return
		}
		seed = &n
	}

	var mockTx *bool
	if raw := q.Get("mockTx"); raw != "" {
		b, err := strconv.ParseBool(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad mockTx: "+raw)
			return
		}
		mockTx = &b
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("watch upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	in := engine.Input{
		HypothesisID: hypID,
		Seed:         seed,
		Rounds:       rounds,
		Settler:      s.settlerFor(mockTx),
		Observe: func(e ledger.Entry) {
			entry := e
			if err := conn.WriteJSON(watchMessage{Type: "entry", Entry: &entry}); err != nil {
				slog.Debug("watch write failed", "error", err)
			}
		},
	}

	res, err := s.Runner.Run(r.Context(), in)
	if err != nil {
		conn.WriteJSON(watchMessage{Type: "error", Error: err.Error()})
		return
	}

	if err := s.DB.SaveRun(res); err != nil {
		slog.Error("failed to archive watched run", "run_id", res.RunID, "error", err)
	}
	conn.WriteJSON(watchMessage{Type: "result", Result: res})
}
