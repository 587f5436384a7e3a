package repositories

import (
	"context"

	"github.com/sandlotlabs/dugout/pkg/baseball"
)

// RoomRecord is the durable unit of storage: one room's canonical game
// state plus the version counter that makes compare-and-swap writes
// possible.
type RoomRecord struct {
	RoomID string `json:"roomId"`
	// Seed keys the room's deterministic outcome stream. It never
	// leaves the server.
	Seed string `json:"-"`
	// CreatedBy is the verified UID of the participant who created the
	// room, empty for rooms created lazily on first connect.
	CreatedBy string              `json:"createdBy,omitempty"`
	State     *baseball.GameState `json:"state"`
	Version   uint64              `json:"version"`
	CreatedAt int64               `json:"createdAt"`
	UpdatedAt int64               `json:"updatedAt"`
}

// GameResult is the terminal record handed off to downstream consumers
// when a game completes.
type GameResult struct {
	RoomID      string `json:"roomId"`
	HomeName    string `json:"homeName"`
	AwayName    string `json:"awayName"`
	HomeScore   int    `json:"homeScore"`
	AwayScore   int    `json:"awayScore"`
	HomeHits    int    `json:"homeHits"`
	AwayHits    int    `json:"awayHits"`
	HomeErrors  int    `json:"homeErrors"`
	AwayErrors  int    `json:"awayErrors"`
	Innings     int    `json:"innings"`
	CompletedAt int64  `json:"completedAt"`
}

// ResultFromState builds the terminal record for a completed game.
func ResultFromState(roomID string, state *baseball.GameState, completedAt int64) *GameResult {
	return &GameResult{
		RoomID:      roomID,
		HomeName:    state.Home.Name,
		AwayName:    state.Away.Name,
		HomeScore:   state.Home.Score,
		AwayScore:   state.Away.Score,
		HomeHits:    state.Home.Hits,
		AwayHits:    state.Away.Hits,
		HomeErrors:  state.Home.Errors,
		AwayErrors:  state.Away.Errors,
		Innings:     state.Inning,
		CompletedAt: completedAt,
	}
}

// Repository is the persistent store for room records and game results.
// PutRoomIfVersion is the linearization point for the whole pipeline:
// writers read the current version, compute a transition, and commit with
// that version as the expectation. Exactly one of any set of concurrent
// writers against the same version succeeds.
type Repository interface {
	Close(ctx context.Context) error
	// CreateRoom stores a new room record at version 0.
	CreateRoom(ctx context.Context, roomID, seed, createdBy string, state *baseball.GameState) (*RoomRecord, error)
	// GetRoom returns the current record, or ErrNotFound.
	GetRoom(ctx context.Context, roomID string) (*RoomRecord, error)
	// PutRoomIfVersion commits state iff the stored version still equals
	// expectedVersion, returning the new version. A lost race returns
	// ErrVersionConflict and leaves the record untouched.
	PutRoomIfVersion(ctx context.Context, roomID string, expectedVersion uint64, state *baseball.GameState) (uint64, error)
	// ResetRoom replaces a room's state unconditionally and bumps the
	// version so any in-flight commit against the old state loses.
	ResetRoom(ctx context.Context, roomID string, state *baseball.GameState) (uint64, error)
	ListRooms(ctx context.Context) ([]*RoomRecord, error)
	SaveResult(ctx context.Context, result *GameResult) error
	ListResults(ctx context.Context) ([]*GameResult, error)
}
