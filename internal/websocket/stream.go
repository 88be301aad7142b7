package websocket

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/stemsi/assessment-pipeline/internal/model"
)

const (
	writeWait = 10 * time.Second
	readWait  = 5 * time.Minute
)

// Stream is one reviewer connection. Sends are serialized because gorilla
// allows a single concurrent writer; reads belong to one goroutine.
type Stream struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func NewStream(conn *websocket.Conn) *Stream {
	return &Stream{conn: conn}
}

// Ready tells the client the subscription is live.
func (s *Stream) Ready() error {
	return s.send(ReadyResponse{Event: EventReady})
}

// Review forwards one moderation change.
func (s *Stream) Review(ev model.ReviewEvent) error {
	return s.send(ReviewResponse{Event: EventReview, Data: ev})
}

// Fail sends an error event without closing the connection.
func (s *Stream) Fail(msg string) error {
	return s.send(ErrorResponse{Event: EventError, Error: msg})
}

// Next blocks for the next client request. An idle client times out after readWait.
func (s *Stream) Next() (RequestEnvelope, error) {
	var req RequestEnvelope
	if err := s.conn.SetReadDeadline(time.Now().Add(readWait)); err != nil {
		return req, err
	}
	err := s.conn.ReadJSON(&req)
	return req, err
}

// Answer replies to a client request.
func (s *Stream) Answer(req RequestEnvelope) error {
	if req.Action == ActionPing {
		return s.send(PongResponse{Event: EventPong})
	}
	return s.Fail("unknown action: " + string(req.Action))
}

func (s *Stream) send(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return s.conn.WriteJSON(v)
}
