package rest

import (
	"encoding/json"
	"strings"

	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"golang.org/x/net/websocket"

	"yqhp/automation-engine/pkg/types"
)

// streamMessage is one frame on the run event stream.
type streamMessage struct {
	Type  string          `json:"type"`
	RunID string          `json:"run_id,omitempty"`
	Event *types.RunEvent `json:"event,omitempty"`
	Error string          `json:"error,omitempty"`
}

func (s *Server) setupWebSocketRoutes() {
	s.app.Get("/api/v1/runs/:id/events/stream", adaptor.HTTPHandler(
		websocket.Handler(s.handleEventStream),
	))
}

// handleEventStream forwards a run's events to the client until the run
// reaches a terminal state or the client goes away. Connecting to a finished
// or unknown run yields a single error frame.
func (s *Server) handleEventStream(ws *websocket.Conn) {
	defer ws.Close()

	runID := extractRunID(ws.Request().URL.Path)
	if runID == "" {
		sendFrame(ws, streamMessage{Type: "error", Error: "run id is required"})
		return
	}

	if _, err := s.engine.Status(ws.Request().Context(), runID); err != nil {
		sendFrame(ws, streamMessage{Type: "error", RunID: runID, Error: "no such run"})
		return
	}

	events, cancel := s.engine.Events().Subscribe(runID)
	defer cancel()

	if !sendFrame(ws, streamMessage{Type: "subscribed", RunID: runID}) {
		return
	}
	for event := range events {
		ev := event
		if !sendFrame(ws, streamMessage{Type: "event", RunID: runID, Event: &ev}) {
			return
		}
	}
	sendFrame(ws, streamMessage{Type: "closed", RunID: runID})
}

func sendFrame(ws *websocket.Conn, msg streamMessage) bool {
	data, err := json.Marshal(msg)
	if err != nil {
		return false
	}
	return websocket.Message.Send(ws, string(data)) == nil
}

// extractRunID pulls the run id out of /api/v1/runs/:id/events/stream.
func extractRunID(path string) string {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	for i, part := range parts {
		if part == "runs" && i+1 < len(parts) {
			return parts[i+1]
		}
	}
	return ""
}
