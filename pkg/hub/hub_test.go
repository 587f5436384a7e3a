package hub

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/sandlotlabs/dugout/pkg/baseball"
	"github.com/sandlotlabs/dugout/pkg/baseball/rosters"
	"github.com/sandlotlabs/dugout/pkg/messages"
	"github.com/sandlotlabs/dugout/pkg/queue"
	"github.com/sandlotlabs/dugout/pkg/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRoomState(t *testing.T) *baseball.GameState {
	provider := rosters.NewStaticProvider()
	home, err := provider.Lineup("home")
	require.NoError(t, err)
	away, err := provider.Lineup("away")
	require.NoError(t, err)
	return baseball.NewGameState(baseball.DefaultRules(), home, away, "Home", "Away")
}

func newTestHub(t *testing.T) (*Hub, *repositories.InMemoryRepository, *queue.InMemoryQueue) {
	repo := repositories.NewInMemoryRepository()
	_, err := repo.CreateRoom(context.Background(), "test-room", "test-seed", "", newRoomState(t))
	require.NoError(t, err)

	resultsQueue := queue.NewInMemoryQueue(10)
	return newHub("test-room", repo, resultsQueue, nil), repo, resultsQueue
}

// addSession registers a connectionless session and drains its init
// frame plus the presence frames delivered to earlier sessions.
func addSession(t *testing.T, h *Hub, team baseball.Side) *Session {
	session := newSession(h, nil)
	session.team = team
	h.handleRegister(context.Background(), session)
	drainFrames(h)
	return session
}

func drainFrames(h *Hub) {
	for session := range h.sessions {
		for len(session.send) > 0 {
			<-session.send
		}
	}
}

// recvFrame pops the next queued frame for a session, failing the test
// if none is pending. Hub handlers deliver synchronously in tests.
func recvFrame(t *testing.T, session *Session) []byte {
	t.Helper()
	select {
	case b := <-session.send:
		return b
	default:
		t.Fatal("no frame pending")
		return nil
	}
}

func recvNothing(t *testing.T, session *Session) {
	t.Helper()
	select {
	case b := <-session.send:
		t.Fatalf("unexpected frame: %s", b)
	default:
	}
}

func frameType(t *testing.T, b []byte) string {
	t.Helper()
	msgType, err := messages.DecodeType(b)
	require.NoError(t, err)
	return msgType
}

func TestHubRegisterSendsInit(t *testing.T) {
	h, _, _ := newTestHub(t)

	first := newSession(h, nil)
	h.handleRegister(context.Background(), first)

	init := &messages.Init{}
	require.NoError(t, json.Unmarshal(recvFrame(t, first), init))
	assert.Equal(t, messages.TypeInit, init.Type)
	assert.Equal(t, first.ID, init.SessionID)
	assert.Equal(t, uint64(0), init.Version)
	assert.Equal(t, 1, init.Participants)
	require.NotNil(t, init.State)
	assert.Equal(t, baseball.StatusPending, init.State.Status)

	// A second join notifies the first session but not the joiner.
	second := newSession(h, nil)
	h.handleRegister(context.Background(), second)

	presence := &messages.Presence{}
	require.NoError(t, json.Unmarshal(recvFrame(t, first), presence))
	assert.Equal(t, messages.TypePlayerJoined, presence.Type)
	assert.Equal(t, 2, presence.Participants)

	assert.Equal(t, messages.TypeInit, frameType(t, recvFrame(t, second)))
	recvNothing(t, second)
}

func TestHubJoinTeam(t *testing.T) {
	h, _, _ := newTestHub(t)
	session := addSession(t, h, "")

	h.handleFrame(context.Background(), session, []byte(`{"type":"joinTeam","team":"home","participantId":"p-1"}`))
	recvNothing(t, session)
	assert.Equal(t, baseball.SideHome, session.team)
	assert.Equal(t, "p-1", session.participantID)

	h.handleFrame(context.Background(), session, []byte(`{"type":"joinTeam","team":"umpires"}`))
	errMsg := &messages.Error{}
	require.NoError(t, json.Unmarshal(recvFrame(t, session), errMsg))
	assert.Equal(t, messages.ErrorCodeInvalid, errMsg.Code)
	assert.Equal(t, baseball.SideHome, session.team)
}

func TestHubActionPipeline(t *testing.T) {
	h, repo, _ := newTestHub(t)
	pitcher := addSession(t, h, baseball.SideHome)
	batter := addSession(t, h, baseball.SideAway)

	h.handleFrame(context.Background(), pitcher, []byte(`{"type":"pitch","pitchType":"fastball"}`))

	// The accepted action reaches every session, sender included.
	for _, session := range []*Session{pitcher, batter} {
		update := &messages.GameUpdate{}
		require.NoError(t, json.Unmarshal(recvFrame(t, session), update))
		assert.Equal(t, messages.TypeGameUpdate, update.Type)
		assert.Equal(t, uint64(1), update.Version)
		assert.Equal(t, baseball.ActionPitch, update.Action.Type)
		assert.NotEmpty(t, update.Events)
		require.NotNil(t, update.State)
		assert.Equal(t, baseball.StatusInProgress, update.State.Status)
		assert.Greater(t, update.State.LastActionAt, int64(0))
		assert.Greater(t, update.State.StartedAt, int64(0))
	}

	record, err := repo.GetRoom(context.Background(), "test-room")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), record.Version)
	assert.Equal(t, baseball.StatusInProgress, record.State.Status)
	assert.Equal(t, 1, record.State.Home.PitchCount)
}

func TestHubRejectsUnauthorizedAction(t *testing.T) {
	h, repo, _ := newTestHub(t)
	pitcher := addSession(t, h, baseball.SideHome)
	batter := addSession(t, h, baseball.SideAway)

	// The home team bats in the bottom half; swinging in the top is not
	// its turn.
	h.handleFrame(context.Background(), pitcher, []byte(`{"type":"swing","power":0.5}`))

	errMsg := &messages.Error{}
	require.NoError(t, json.Unmarshal(recvFrame(t, pitcher), errMsg))
	assert.Equal(t, messages.ErrorCodeUnauthorized, errMsg.Code)
	recvNothing(t, batter)

	record, err := repo.GetRoom(context.Background(), "test-room")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), record.Version)
	assert.Equal(t, baseball.StatusPending, record.State.Status)
}

func TestHubRejectsActionWithoutTeam(t *testing.T) {
	h, _, _ := newTestHub(t)
	session := addSession(t, h, "")

	h.handleFrame(context.Background(), session, []byte(`{"type":"pitch"}`))

	errMsg := &messages.Error{}
	require.NoError(t, json.Unmarshal(recvFrame(t, session), errMsg))
	assert.Equal(t, messages.ErrorCodeUnauthorized, errMsg.Code)
}

func TestHubRejectsActionOnCompletedGame(t *testing.T) {
	h, repo, _ := newTestHub(t)

	record, err := repo.GetRoom(context.Background(), "test-room")
	require.NoError(t, err)
	done := record.State.Clone()
	done.Status = baseball.StatusComplete
	_, err = repo.PutRoomIfVersion(context.Background(), "test-room", 0, done)
	require.NoError(t, err)

	pitcher := addSession(t, h, baseball.SideHome)
	h.handleFrame(context.Background(), pitcher, []byte(`{"type":"pitch"}`))

	errMsg := &messages.Error{}
	require.NoError(t, json.Unmarshal(recvFrame(t, pitcher), errMsg))
	assert.Equal(t, messages.ErrorCodeGameOver, errMsg.Code)
}

func TestHubMalformedFrames(t *testing.T) {
	h, _, _ := newTestHub(t)
	session := addSession(t, h, baseball.SideHome)

	tests := []struct {
		name  string
		frame string
	}{
		{name: "not json", frame: `pitch please`},
		{name: "no type", frame: `{"power":0.5}`},
		{name: "unknown type", frame: `{"type":"steal"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h.handleFrame(context.Background(), session, []byte(tt.frame))
			errMsg := &messages.Error{}
			require.NoError(t, json.Unmarshal(recvFrame(t, session), errMsg))
			assert.Equal(t, messages.ErrorCodeInvalid, errMsg.Code)
		})
	}
}

func TestHubChatRelaysToEveryone(t *testing.T) {
	h, _, _ := newTestHub(t)
	first := addSession(t, h, baseball.SideHome)
	second := addSession(t, h, baseball.SideAway)

	h.handleFrame(context.Background(), first, []byte(`{"type":"chat","message":"you're killing me"}`))

	for _, session := range []*Session{first, second} {
		chat := &messages.Chat{}
		require.NoError(t, json.Unmarshal(recvFrame(t, session), chat))
		assert.Equal(t, messages.TypeChat, chat.Type)
		assert.Equal(t, "you're killing me", chat.Message)
	}
}

func TestHubSyncGoesToSenderOnly(t *testing.T) {
	h, _, _ := newTestHub(t)
	first := addSession(t, h, baseball.SideHome)
	second := addSession(t, h, baseball.SideAway)

	h.handleFrame(context.Background(), first, []byte(`{"type":"sync"}`))

	syncResp := &messages.SyncResponse{}
	require.NoError(t, json.Unmarshal(recvFrame(t, first), syncResp))
	assert.Equal(t, messages.TypeSync, syncResp.Type)
	require.NotNil(t, syncResp.Room)
	assert.Equal(t, "test-room", syncResp.Room.RoomID)
	assert.Equal(t, uint64(0), syncResp.Room.Version)

	recvNothing(t, second)
}

func TestHubUnregisterLeavesStateAlone(t *testing.T) {
	h, repo, _ := newTestHub(t)
	leaver := addSession(t, h, baseball.SideHome)
	stayer := addSession(t, h, baseball.SideAway)

	h.handleUnregister(leaver)

	assert.NotContains(t, h.sessions, leaver)
	_, open := <-leaver.send
	assert.False(t, open)

	presence := &messages.Presence{}
	require.NoError(t, json.Unmarshal(recvFrame(t, stayer), presence))
	assert.Equal(t, messages.TypePlayerLeft, presence.Type)
	assert.Equal(t, 1, presence.Participants)

	record, err := repo.GetRoom(context.Background(), "test-room")
	require.NoError(t, err)
	assert.Equal(t, uint64(0), record.Version)

	// A double unregister is a no-op.
	h.handleUnregister(leaver)
	recvNothing(t, stayer)
}

func TestHubGameCompleteEnqueuesResult(t *testing.T) {
	h, _, resultsQueue := newTestHub(t)

	state := newRoomState(t)
	state.Status = baseball.StatusComplete
	state.Inning = 9
	state.Half = baseball.HalfBottom
	state.Home.Score = 6
	state.Away.Score = 2

	h.handleGameComplete(state, 9999)

	items, err := resultsQueue.ReadAllMessages()
	require.NoError(t, err)
	require.Len(t, items, 1)
	result, ok := items[0].(*repositories.GameResult)
	require.True(t, ok)
	assert.Equal(t, "test-room", result.RoomID)
	assert.Equal(t, 6, result.HomeScore)
	assert.Equal(t, 2, result.AwayScore)
	assert.Equal(t, 9, result.Innings)
	assert.Equal(t, int64(9999), result.CompletedAt)
}

// staleRepository serves reads at a frozen version and rejects every
// commit, standing in for a writer that lost a race with a room reset.
type staleRepository struct {
	*repositories.InMemoryRepository
}

func (r *staleRepository) PutRoomIfVersion(ctx context.Context, roomID string, expectedVersion uint64, state *baseball.GameState) (uint64, error) {
	return 0, &repositories.ErrVersionConflict{Expected: expectedVersion, Actual: expectedVersion + 1}
}

func TestHubCommitConflictTellsSenderToSync(t *testing.T) {
	repo := &staleRepository{InMemoryRepository: repositories.NewInMemoryRepository()}
	_, err := repo.CreateRoom(context.Background(), "test-room", "test-seed", "", newRoomState(t))
	require.NoError(t, err)
	h := newHub("test-room", repo, queue.NewInMemoryQueue(10), nil)

	pitcher := addSession(t, h, baseball.SideHome)
	batter := addSession(t, h, baseball.SideAway)

	h.handleFrame(context.Background(), pitcher, []byte(`{"type":"pitch"}`))

	errMsg := &messages.Error{}
	require.NoError(t, json.Unmarshal(recvFrame(t, pitcher), errMsg))
	assert.Equal(t, messages.ErrorCodeConflict, errMsg.Code)
	recvNothing(t, batter)
}
