package hub

import (
	"context"
	"fmt"
	"net/http"
	"sync"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/sandlotlabs/dugout/pkg/baseball"
	"github.com/sandlotlabs/dugout/pkg/baseball/rosters"
	"github.com/sandlotlabs/dugout/pkg/log"
	"github.com/sandlotlabs/dugout/pkg/queue"
	"github.com/sandlotlabs/dugout/pkg/repositories"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// RoomManager creates and tracks one hub per room. Rooms are fully
// independent: hubs never share state beyond the repository.
type RoomManager struct {
	lock  sync.Mutex
	rooms map[string]*Hub

	repository     repositories.Repository
	resultsQueue   queue.Queue
	rosterProvider rosters.Provider
	defaultRules   baseball.Rules
	ctx            context.Context
}

type NewRoomManagerOptions struct {
	Repository     repositories.Repository
	ResultsQueue   queue.Queue
	RosterProvider rosters.Provider
	DefaultRules   baseball.Rules
}

func NewRoomManager(ctx context.Context, opts NewRoomManagerOptions) *RoomManager {
	return &RoomManager{
		rooms:          make(map[string]*Hub),
		repository:     opts.Repository,
		resultsQueue:   opts.ResultsQueue,
		rosterProvider: opts.RosterProvider,
		defaultRules:   opts.DefaultRules,
		ctx:            ctx,
	}
}

// GetHub returns the hub for a room, creating the room record and
// starting the hub goroutine if the room has not been addressed before.
func (m *RoomManager) GetHub(ctx context.Context, roomID string) (*Hub, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	if h, ok := m.rooms[roomID]; ok {
		return h, nil
	}

	if _, err := m.repository.GetRoom(ctx, roomID); err != nil {
		if !repositories.IsNotFound(err) {
			return nil, fmt.Errorf("failed to load room: %v", err)
		}
		if _, err := m.createRoom(ctx, roomID, "", m.defaultRules); err != nil && !repositories.IsRoomExists(err) {
			return nil, fmt.Errorf("failed to create room: %v", err)
		}
	}

	h := newHub(roomID, m.repository, m.resultsQueue, m)
	m.rooms[roomID] = h
	go h.run(m.ctx)

	return h, nil
}

func (m *RoomManager) removeHub(roomID string) {
	m.lock.Lock()
	defer m.lock.Unlock()
	delete(m.rooms, roomID)
	log.Debug("Reaped idle hub for room %s", roomID)
}

// CreateRoom creates a room record explicitly with the given rules,
// owned by the participant identified by createdBy.
func (m *RoomManager) CreateRoom(ctx context.Context, roomID, createdBy string, rules baseball.Rules) (*repositories.RoomRecord, error) {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.createRoom(ctx, roomID, createdBy, rules)
}

func (m *RoomManager) createRoom(ctx context.Context, roomID, createdBy string, rules baseball.Rules) (*repositories.RoomRecord, error) {
	home, err := m.rosterProvider.Lineup("home")
	if err != nil {
		return nil, fmt.Errorf("failed to load home lineup: %v", err)
	}
	away, err := m.rosterProvider.Lineup("away")
	if err != nil {
		return nil, fmt.Errorf("failed to load away lineup: %v", err)
	}

	state := baseball.NewGameState(rules, home, away, "Home", "Away")
	return m.repository.CreateRoom(ctx, roomID, uuid.NewString(), createdBy, state)
}

// ResetRoom replaces a room's state with a fresh pending game. This is
// the only path that destroys a game state. Connected sessions get the
// new snapshot pushed so nobody keeps playing against the old game.
func (m *RoomManager) ResetRoom(ctx context.Context, roomID string) (*repositories.RoomRecord, error) {
	home, err := m.rosterProvider.Lineup("home")
	if err != nil {
		return nil, fmt.Errorf("failed to load home lineup: %v", err)
	}
	away, err := m.rosterProvider.Lineup("away")
	if err != nil {
		return nil, fmt.Errorf("failed to load away lineup: %v", err)
	}

	state := baseball.NewGameState(m.defaultRules, home, away, "Home", "Away")
	if _, err := m.repository.ResetRoom(ctx, roomID, state); err != nil {
		return nil, err
	}

	record, err := m.repository.GetRoom(ctx, roomID)
	if err != nil {
		return nil, err
	}

	m.lock.Lock()
	h, ok := m.rooms[roomID]
	m.lock.Unlock()
	if ok {
		select {
		case h.snapshots <- record:
		default:
			log.Warn("Snapshot channel full for room %s, skipping push", roomID)
		}
	}

	return record, nil
}

// ServeWS upgrades an HTTP request to a websocket session and attaches
// it to the room hub. Route variable: roomID.
func (m *RoomManager) ServeWS(w http.ResponseWriter, r *http.Request) {
	roomID := mux.Vars(r)["roomID"]
	if roomID == "" {
		http.Error(w, "missing room ID", http.StatusBadRequest)
		return
	}

	h, err := m.GetHub(r.Context(), roomID)
	if err != nil {
		log.Error("Failed to get hub for room %s: %v", roomID, err)
		http.Error(w, "failed to open room", http.StatusInternalServerError)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Error("Failed to upgrade to WebSocket: %v", err)
		return
	}

	session := newSession(h, conn)
	if !h.attach(session) {
		// The idle reaper stopped this hub between lookup and attach.
		// The manager no longer tracks it, so a second lookup starts a
		// fresh one.
		h, err = m.GetHub(r.Context(), roomID)
		if err != nil {
			log.Error("Failed to get hub for room %s: %v", roomID, err)
			conn.Close()
			return
		}
		session = newSession(h, conn)
		if !h.attach(session) {
			log.Error("Room %s hub stopped twice during attach", roomID)
			conn.Close()
			return
		}
	}

	go session.writePump()
	go session.readPump()
}
