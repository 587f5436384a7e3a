package hub

import (
	"context"
	"encoding/json"
	"time"

	"github.com/sandlotlabs/dugout/pkg/baseball"
	"github.com/sandlotlabs/dugout/pkg/log"
	"github.com/sandlotlabs/dugout/pkg/messages"
	"github.com/sandlotlabs/dugout/pkg/queue"
	"github.com/sandlotlabs/dugout/pkg/repositories"
	"github.com/sandlotlabs/dugout/pkg/rng"
)

const (
	inboundBufferSize = 64
	idleReapInterval  = 5 * time.Minute
)

type inboundFrame struct {
	session *Session
	data    []byte
}

// Hub owns the set of connected sessions for one room and routes every
// inbound action through authority check, state machine, and
// compare-and-swap persistence before fanning the accepted delta out to
// the room. One hub goroutine serializes all of a room's transitions;
// the version-checked write additionally protects against any writer
// outside this hub (an API reset, another node).
type Hub struct {
	roomID       string
	repository   repositories.Repository
	resultsQueue queue.Queue
	manager      *RoomManager

	sessions   map[*Session]bool
	register   chan *Session
	unregister chan *Session
	inbound    chan inboundFrame
	snapshots  chan *repositories.RoomRecord

	// done is closed when run exits, so senders racing a reaped hub
	// unblock instead of leaking.
	done chan struct{}
}

func newHub(roomID string, repository repositories.Repository, resultsQueue queue.Queue, manager *RoomManager) *Hub {
	return &Hub{
		roomID:       roomID,
		repository:   repository,
		resultsQueue: resultsQueue,
		manager:      manager,
		sessions:     make(map[*Session]bool),
		register:     make(chan *Session),
		unregister:   make(chan *Session),
		inbound:      make(chan inboundFrame, inboundBufferSize),
		snapshots:    make(chan *repositories.RoomRecord, 1),
		done:         make(chan struct{}),
	}
}

// attach hands a session to the hub goroutine. It reports false when
// the hub has already stopped, in which case the caller must look the
// room up again.
func (h *Hub) attach(session *Session) bool {
	select {
	case h.register <- session:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) detach(session *Session) {
	select {
	case h.unregister <- session:
	case <-h.done:
	}
}

// forward queues an inbound frame for the hub goroutine, reporting
// false once the hub has stopped.
func (h *Hub) forward(frame inboundFrame) bool {
	select {
	case h.inbound <- frame:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) run(ctx context.Context) {
	defer close(h.done)

	idleTicker := time.NewTicker(idleReapInterval)
	defer idleTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			for session := range h.sessions {
				delete(h.sessions, session)
				close(session.send)
			}
			return
		case session := <-h.register:
			h.handleRegister(ctx, session)
		case session := <-h.unregister:
			h.handleUnregister(session)
		case frame := <-h.inbound:
			if !h.sessions[frame.session] {
				continue
			}
			h.handleFrame(ctx, frame.session, frame.data)
		case record := <-h.snapshots:
			// An external writer (room reset) replaced the state out
			// from under us; push the authoritative snapshot to everyone.
			h.broadcast(&messages.SyncResponse{
				Type: messages.TypeSync,
				Room: snapshotFromRecord(record),
			}, nil)
		case <-idleTicker.C:
			if len(h.sessions) == 0 {
				h.manager.removeHub(h.roomID)
				return
			}
		}
	}
}

func (h *Hub) handleRegister(ctx context.Context, session *Session) {
	h.sessions[session] = true

	init := &messages.Init{
		Type:         messages.TypeInit,
		SessionID:    session.ID,
		Participants: len(h.sessions),
	}
	record, err := h.repository.GetRoom(ctx, h.roomID)
	if err != nil {
		log.Error("Failed to load room %s for init: %v", h.roomID, err)
	} else {
		init.State = record.State
		init.Version = record.Version
	}
	session.trySend(init)

	h.broadcast(messages.NewPresence(messages.TypePlayerJoined, len(h.sessions)), session)
	log.Debug("Session %s joined room %s", session.ID, h.roomID)
}

// handleUnregister tears the session down. It never touches game state:
// a network drop is not a forfeit, and abandonment is a policy decision
// made elsewhere off the room's lastActionAt.
func (h *Hub) handleUnregister(session *Session) {
	if _, ok := h.sessions[session]; !ok {
		return
	}
	delete(h.sessions, session)
	close(session.send)

	h.broadcast(messages.NewPresence(messages.TypePlayerLeft, len(h.sessions)), nil)
	log.Debug("Session %s left room %s", session.ID, h.roomID)
}

func (h *Hub) handleFrame(ctx context.Context, session *Session, data []byte) {
	msgType, err := messages.DecodeType(data)
	if err != nil {
		session.trySend(messages.NewError(messages.ErrorCodeInvalid, "malformed message: %v", err))
		return
	}

	switch msgType {
	case messages.TypeJoinTeam:
		h.handleJoinTeam(session, data)
	case messages.TypePitch:
		pitch := &messages.Pitch{}
		if err := json.Unmarshal(data, pitch); err != nil {
			session.trySend(messages.NewError(messages.ErrorCodeInvalid, "malformed pitch: %v", err))
			return
		}
		h.handleAction(ctx, session, baseball.Action{
			Type:      baseball.ActionPitch,
			PitchType: pitch.PitchType,
		})
	case messages.TypeSwing:
		swing := &messages.Swing{}
		if err := json.Unmarshal(data, swing); err != nil {
			session.trySend(messages.NewError(messages.ErrorCodeInvalid, "malformed swing: %v", err))
			return
		}
		h.handleAction(ctx, session, baseball.Action{
			Type:  baseball.ActionSwing,
			Power: swing.Power,
		})
	case messages.TypeChat:
		h.handleChat(session, data)
	case messages.TypeSync:
		h.handleSync(ctx, session)
	default:
		session.trySend(messages.NewError(messages.ErrorCodeInvalid, "unknown message type %q", msgType))
	}
}

func (h *Hub) handleJoinTeam(session *Session, data []byte) {
	join := &messages.JoinTeam{}
	if err := json.Unmarshal(data, join); err != nil {
		session.trySend(messages.NewError(messages.ErrorCodeInvalid, "malformed joinTeam: %v", err))
		return
	}

	team := baseball.Side(join.Team)
	if team != baseball.SideHome && team != baseball.SideAway {
		session.trySend(messages.NewError(messages.ErrorCodeInvalid, "unknown team %q", join.Team))
		return
	}

	session.team = team
	session.participantID = join.ParticipantID
	log.Debug("Session %s claimed team %s in room %s", session.ID, team, h.roomID)
}

// handleAction runs the full pipeline for one action: authority check,
// pure state transition, version-checked commit, broadcast. The room
// seed plus the record version key the outcome stream, so evaluating is
// free of side effects and a lost commit race discards the draw cleanly.
func (h *Hub) handleAction(ctx context.Context, session *Session, action baseball.Action) {
	if session.team == "" {
		session.trySend(messages.NewError(messages.ErrorCodeUnauthorized, "join a team before acting"))
		return
	}

	record, err := h.repository.GetRoom(ctx, h.roomID)
	if err != nil {
		log.Error("Failed to load room %s: %v", h.roomID, err)
		session.trySend(messages.NewError(messages.ErrorCodeInvalid, "room unavailable"))
		return
	}

	if !baseball.Authorized(record.State, action, session.team) {
		rejection := &baseball.UnauthorizedActionError{Action: action.Type, Team: session.team}
		session.trySend(messages.NewError(messages.ErrorCodeUnauthorized, "%v", rejection))
		return
	}

	src := rng.NewHMACSource(record.Seed, record.Version)
	result, err := baseball.Apply(record.State, action, src)
	if err != nil {
		switch {
		case baseball.IsGameOver(err):
			session.trySend(messages.NewError(messages.ErrorCodeGameOver, "%v", err))
		case baseball.IsInvalidAction(err):
			session.trySend(messages.NewError(messages.ErrorCodeInvalid, "%v", err))
		default:
			log.Error("Failed to apply action in room %s: %v", h.roomID, err)
			session.trySend(messages.NewError(messages.ErrorCodeInvalid, "internal error"))
		}
		return
	}

	now := time.Now().UnixMilli()
	if record.State.Status == baseball.StatusPending {
		result.State.StartedAt = now
	}
	result.State.LastActionAt = now

	newVersion, err := h.repository.PutRoomIfVersion(ctx, h.roomID, record.Version, result.State)
	if err != nil {
		if repositories.IsVersionConflict(err) {
			session.trySend(messages.NewError(messages.ErrorCodeConflict, "state changed underneath you, send sync to recover"))
			return
		}
		log.Error("Failed to commit state for room %s: %v", h.roomID, err)
		session.trySend(messages.NewError(messages.ErrorCodeInvalid, "failed to commit action"))
		return
	}

	h.broadcast(&messages.GameUpdate{
		Type:       messages.TypeGameUpdate,
		State:      result.State,
		Version:    newVersion,
		Action:     action,
		Events:     result.Events,
		ScoreDelta: result.ScoreDelta,
	}, nil)

	if result.State.Status == baseball.StatusComplete {
		h.handleGameComplete(result.State, now)
	}
}

// handleGameComplete hands the terminal record off to the results queue.
// The hub has no further obligation for the game once it is enqueued.
func (h *Hub) handleGameComplete(state *baseball.GameState, completedAt int64) {
	result := repositories.ResultFromState(h.roomID, state, completedAt)
	if err := h.resultsQueue.Enqueue(result); err != nil {
		log.Error("Failed to enqueue game result for room %s: %v", h.roomID, err)
		return
	}
	log.Info("Room %s complete: %s %d, %s %d", h.roomID,
		result.HomeName, result.HomeScore, result.AwayName, result.AwayScore)
}

// handleChat relays the line verbatim to every session, sender included.
func (h *Hub) handleChat(session *Session, data []byte) {
	chat := &messages.Chat{}
	if err := json.Unmarshal(data, chat); err != nil {
		session.trySend(messages.NewError(messages.ErrorCodeInvalid, "malformed chat: %v", err))
		return
	}
	h.broadcast(&messages.Chat{
		Type:    messages.TypeChat,
		Message: chat.Message,
	}, nil)
}

// handleSync returns the full authoritative record to the sender only,
// so a reconnecting client can discard partial local state and rebuild.
func (h *Hub) handleSync(ctx context.Context, session *Session) {
	record, err := h.repository.GetRoom(ctx, h.roomID)
	if err != nil {
		log.Error("Failed to load room %s for sync: %v", h.roomID, err)
		session.trySend(messages.NewError(messages.ErrorCodeInvalid, "room unavailable"))
		return
	}
	session.trySend(&messages.SyncResponse{
		Type: messages.TypeSync,
		Room: snapshotFromRecord(record),
	})
}

// broadcast sends v to every session except skip.
func (h *Hub) broadcast(v interface{}, skip *Session) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error("Failed to marshal broadcast for room %s: %v", h.roomID, err)
		return
	}
	for session := range h.sessions {
		if session == skip {
			continue
		}
		select {
		case session.send <- b:
		default:
			log.Warn("Session %s send buffer full, dropping broadcast", session.ID)
		}
	}
}

func snapshotFromRecord(record *repositories.RoomRecord) *messages.RoomSnapshot {
	return &messages.RoomSnapshot{
		RoomID:  record.RoomID,
		State:   record.State,
		Version: record.Version,
	}
}
