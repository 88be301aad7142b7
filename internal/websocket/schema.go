package websocket

import "github.com/stemsi/assessment-pipeline/internal/model"

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionPing Action = "ping"
)

// RequestEnvelope is the only client message shape on the review stream.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventReady  Event = "ready"
	EventReview Event = "review"
	EventError  Event = "error"
	EventPong   Event = "pong"
)

// ReadyResponse is sent once the subscription is live.
type ReadyResponse struct {
	Event Event `json:"event"`
}

// ReviewResponse forwards one moderation change.
type ReviewResponse struct {
	Event Event             `json:"event"`
	Data  model.ReviewEvent `json:"data"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
