package messages

import (
	"encoding/json"
	"fmt"

	"github.com/sandlotlabs/dugout/pkg/baseball"
)

// Message types. Every frame on the wire is a single JSON object with a
// "type" field and the payload fields inlined beside it.
const (
	// Client to server
	TypeJoinTeam = "joinTeam"
	TypePitch    = "pitch"
	TypeSwing    = "swing"
	TypeChat     = "chat"
	TypeSync     = "sync"

	// Server to client
	TypeInit         = "init"
	TypeGameUpdate   = "gameUpdate"
	TypePlayerJoined = "playerJoined"
	TypePlayerLeft   = "playerLeft"
	TypeError        = "error"
)

// Error codes reported alongside rejected input.
const (
	ErrorCodeInvalid      = "invalidAction"
	ErrorCodeUnauthorized = "unauthorized"
	ErrorCodeConflict     = "versionConflict"
	ErrorCodeGameOver     = "gameOver"
)

// Envelope peeks at the type of an inbound frame before the full payload
// is decoded.
type Envelope struct {
	Type string `json:"type"`
}

// DecodeType extracts the message type from a raw frame.
func DecodeType(b []byte) (string, error) {
	envelope := &Envelope{}
	if err := json.Unmarshal(b, envelope); err != nil {
		return "", fmt.Errorf("failed to decode message envelope: %v", err)
	}
	if envelope.Type == "" {
		return "", fmt.Errorf("message has no type")
	}
	return envelope.Type, nil
}

// JoinTeam associates the sending session with a team.
type JoinTeam struct {
	Type          string `json:"type"`
	Team          string `json:"team"`
	ParticipantID string `json:"participantId,omitempty"`
}

// Pitch requests a pitch by the fielding team.
type Pitch struct {
	Type      string `json:"type"`
	PitchType string `json:"pitchType,omitempty"`
}

// Swing requests a swing by the batting team.
type Swing struct {
	Type  string  `json:"type"`
	Power float64 `json:"power,omitempty"`
}

// Chat relays a chat line to every session in the room.
type Chat struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

// Sync requests the full authoritative room snapshot, sender only.
type Sync struct {
	Type string `json:"type"`
}

// RoomSnapshot is the authoritative view of a room: the state plus the
// version counter a client needs to detect that it is behind.
type RoomSnapshot struct {
	RoomID  string              `json:"roomId"`
	State   *baseball.GameState `json:"state"`
	Version uint64              `json:"version"`
}

// Init is sent once when a session connects.
type Init struct {
	Type         string              `json:"type"`
	SessionID    string              `json:"sessionId"`
	State        *baseball.GameState `json:"state"`
	Version      uint64              `json:"version"`
	Participants int                 `json:"participants"`
}

// GameUpdate is broadcast to the whole room after every accepted action.
type GameUpdate struct {
	Type       string              `json:"type"`
	State      *baseball.GameState `json:"state"`
	Version    uint64              `json:"version"`
	Action     baseball.Action     `json:"action"`
	Events     []string            `json:"events"`
	ScoreDelta int                 `json:"scoreDelta"`
}

// Presence is broadcast whenever the participant count changes.
type Presence struct {
	Type         string `json:"type"`
	Participants int    `json:"participants"`
}

// SyncResponse answers a Sync request, sender only.
type SyncResponse struct {
	Type string        `json:"type"`
	Room *RoomSnapshot `json:"room"`
}

// Error reports malformed input or a rejected action to the sender.
type Error struct {
	Type    string `json:"type"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

func NewError(code, format string, args ...interface{}) *Error {
	return &Error{
		Type:    TypeError,
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

func NewPresence(msgType string, participants int) *Presence {
	return &Presence{
		Type:         msgType,
		Participants: participants,
	}
}
