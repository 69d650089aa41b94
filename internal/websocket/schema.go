package websocket

import (
	"encoding/json"

	"github.com/stemsi/lingua-backend/internal/scoring"
)

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionAutosave Action = "autosave"
	ActionSubmit   Action = "submit"
	ActionPing     Action = "ping"
)

// RequestPayload is every client message; fields irrelevant to the action are empty.
type RequestPayload struct {
	Action Action          `json:"action"`
	QID    string          `json:"q_id,omitempty"`
	Answer json.RawMessage `json:"ans,omitempty"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError   Event = "error"
	EventSuccess Event = "success"
	EventGraded  Event = "graded"
	EventPong    Event = "pong"
)

type AutosaveResponse struct {
	Event  Event  `json:"event"`
	Status string `json:"status"`
	QID    string `json:"q_id"`
}

type GradedResponse struct {
	Event   Event           `json:"event"`
	Status  string          `json:"status"`
	Summary scoring.Summary `json:"summary"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
