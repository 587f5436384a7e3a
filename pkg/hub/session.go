package hub

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sandlotlabs/dugout/pkg/baseball"
	"github.com/sandlotlabs/dugout/pkg/log"
)

const (
	// Time allowed to write a message to the peer.
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer.
	pongWait = 60 * time.Second

	// Send pings to peer with this period. Must be less than pongWait.
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer.
	maxMessageSize = 8 * 1024

	// Outbound buffer per session. A session that falls this far behind
	// starts losing frames rather than blocking the room.
	sendBufferSize = 64
)

// Session is one connected participant. It lives exactly as long as its
// websocket connection; the hub goroutine owns the team and participant
// fields after registration.
type Session struct {
	ID string

	hub  *Hub
	conn *websocket.Conn

	// Buffered channel of outbound frames.
	send chan []byte

	participantID string
	team          baseball.Side
}

func newSession(h *Hub, conn *websocket.Conn) *Session {
	return &Session{
		ID:   uuid.NewString(),
		hub:  h,
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}
}

// trySend marshals v and queues it for delivery without ever blocking
// the caller. Frames to a stalled session are dropped.
func (s *Session) trySend(v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error("Failed to marshal outbound message for session %s: %v", s.ID, err)
		return
	}
	select {
	case s.send <- b:
	default:
		log.Warn("Session %s send buffer full, dropping frame", s.ID)
	}
}

// readPump pumps frames from the websocket connection to the hub.
func (s *Session) readPump() {
	defer func() {
		s.hub.detach(s)
		s.conn.Close()
	}()
	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		s.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Error("Error reading from session %s: %v", s.ID, err)
			}
			log.Trace("Connection closed for session %s", s.ID)
			return
		}
		if !s.hub.forward(inboundFrame{session: s, data: data}) {
			return
		}
	}
}

// writePump pumps queued frames from the hub to the websocket
// connection. One writer per connection.
func (s *Session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()
	for {
		select {
		case b, ok := <-s.send:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// The hub closed the channel.
				s.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, b); err != nil {
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
