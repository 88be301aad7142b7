package handler

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/stemsi/assessment-pipeline/internal/model"
	"github.com/stemsi/assessment-pipeline/internal/service"
	ws "github.com/stemsi/assessment-pipeline/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams moderation events to reviewers.
type WSHandler struct {
	events   *service.ReviewEvents
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(events *service.ReviewEvents, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		events:   events,
		log:      log.With().Str("component", "ws_handler").Logger(),
		upgrader: buildUpgrader(allowedOrigins),
	}
}

// ReviewStream godoc
// WS /ws/v1/admin/review/stream
// Forwards every review event published on Redis until the client leaves.
func (h *WSHandler) ReviewStream(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	ctx := c.Request.Context()
	sub := h.events.Subscribe(ctx)
	defer sub.Close()

	stream := ws.NewStream(conn)
	if _, err := sub.Receive(ctx); err != nil {
		h.log.Error().Err(err).Msg("review subscription failed")
		_ = stream.Fail("subscription failed")
		return
	}
	_ = stream.Ready()

	h.log.Info().Str("remote", c.ClientIP()).Msg("Reviewer connected")

	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			req, err := stream.Next()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
					h.log.Warn().Err(err).Msg("Unexpected close")
				}
				return
			}
			_ = stream.Answer(req)
		}
	}()

	ch := sub.Channel()
	for {
		select {
		case <-done:
			h.log.Debug().Msg("Reviewer disconnected")
			return
		case m, ok := <-ch:
			if !ok {
				return
			}
			var ev model.ReviewEvent
			if err := json.Unmarshal([]byte(m.Payload), &ev); err != nil {
				h.log.Warn().Err(err).Msg("dropping malformed review event")
				continue
			}
			if err := stream.Review(ev); err != nil {
				return
			}
		}
	}
}
