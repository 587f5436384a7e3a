package repositories

import (
	"context"
	"sync"
	"testing"

	"github.com/sandlotlabs/dugout/pkg/baseball"
	"github.com/sandlotlabs/dugout/pkg/baseball/rosters"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testState(t *testing.T) *baseball.GameState {
	provider := rosters.NewStaticProvider()
	home, err := provider.Lineup("home")
	require.NoError(t, err)
	away, err := provider.Lineup("away")
	require.NoError(t, err)
	return baseball.NewGameState(baseball.DefaultRules(), home, away, "Home", "Away")
}

func TestInMemoryRepository_CreateRoom(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepository()

	record, err := repo.CreateRoom(ctx, "room-1", "seed-1", "benny-uid", testState(t))
	require.NoError(t, err)
	assert.Equal(t, "room-1", record.RoomID)
	assert.Equal(t, "seed-1", record.Seed)
	assert.Equal(t, "benny-uid", record.CreatedBy)
	assert.Equal(t, uint64(0), record.Version)
	assert.Equal(t, baseball.StatusPending, record.State.Status)

	_, err = repo.CreateRoom(ctx, "room-1", "seed-2", "benny-uid", testState(t))
	require.Error(t, err)
	assert.True(t, IsRoomExists(err))
}

func TestInMemoryRepository_GetRoom(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepository()

	_, err := repo.GetRoom(ctx, "missing")
	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	_, err = repo.CreateRoom(ctx, "room-1", "seed-1", "benny-uid", testState(t))
	require.NoError(t, err)

	record, err := repo.GetRoom(ctx, "room-1")
	require.NoError(t, err)

	// Mutating the returned record must not leak into the store.
	record.State.Home.Score = 100
	fresh, err := repo.GetRoom(ctx, "room-1")
	require.NoError(t, err)
	assert.Equal(t, 0, fresh.State.Home.Score)
}

func TestInMemoryRepository_PutRoomIfVersion(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepository()

	_, err := repo.PutRoomIfVersion(ctx, "missing", 0, testState(t))
	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	_, err = repo.CreateRoom(ctx, "room-1", "seed-1", "benny-uid", testState(t))
	require.NoError(t, err)

	next := testState(t)
	next.Status = baseball.StatusInProgress
	version, err := repo.PutRoomIfVersion(ctx, "room-1", 0, next)
	require.NoError(t, err)
	assert.Equal(t, uint64(1), version)

	// A commit against the old version loses and leaves the record alone.
	stale := testState(t)
	stale.Home.Score = 99
	_, err = repo.PutRoomIfVersion(ctx, "room-1", 0, stale)
	require.Error(t, err)
	assert.True(t, IsVersionConflict(err))
	conflict := err.(*ErrVersionConflict)
	assert.Equal(t, uint64(0), conflict.Expected)
	assert.Equal(t, uint64(1), conflict.Actual)

	record, err := repo.GetRoom(ctx, "room-1")
	require.NoError(t, err)
	assert.Equal(t, uint64(1), record.Version)
	assert.Equal(t, 0, record.State.Home.Score)
	assert.Equal(t, baseball.StatusInProgress, record.State.Status)
}

// TestInMemoryRepository_ConcurrentCommits races many writers at the
// same expected version and checks that exactly one wins each round.
func TestInMemoryRepository_ConcurrentCommits(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepository()
	_, err := repo.CreateRoom(ctx, "room-1", "seed-1", "benny-uid", testState(t))
	require.NoError(t, err)

	const writers = 8
	const rounds = 20

	for round := 0; round < rounds; round++ {
		record, err := repo.GetRoom(ctx, "room-1")
		require.NoError(t, err)

		var wg sync.WaitGroup
		wins := make(chan uint64, writers)
		for w := 0; w < writers; w++ {
			wg.Add(1)
			go func(score int) {
				defer wg.Done()
				next := record.State.Clone()
				next.Home.Score = score
				version, err := repo.PutRoomIfVersion(ctx, "room-1", record.Version, next)
				if err != nil {
					assert.True(t, IsVersionConflict(err))
					return
				}
				wins <- version
			}(w)
		}
		wg.Wait()
		close(wins)

		var winners []uint64
		for v := range wins {
			winners = append(winners, v)
		}
		require.Len(t, winners, 1, "round %d", round)
		assert.Equal(t, record.Version+1, winners[0])
	}

	record, err := repo.GetRoom(ctx, "room-1")
	require.NoError(t, err)
	assert.Equal(t, uint64(rounds), record.Version)
}

func TestInMemoryRepository_ResetRoom(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepository()

	_, err := repo.ResetRoom(ctx, "missing", testState(t))
	require.Error(t, err)
	assert.True(t, IsNotFound(err))

	_, err = repo.CreateRoom(ctx, "room-1", "seed-1", "benny-uid", testState(t))
	require.NoError(t, err)

	played := testState(t)
	played.Home.Score = 4
	_, err = repo.PutRoomIfVersion(ctx, "room-1", 0, played)
	require.NoError(t, err)

	version, err := repo.ResetRoom(ctx, "room-1", testState(t))
	require.NoError(t, err)
	assert.Equal(t, uint64(2), version)

	// The reset bumped the version, so the pre-reset commit path loses.
	_, err = repo.PutRoomIfVersion(ctx, "room-1", 1, played)
	require.Error(t, err)
	assert.True(t, IsVersionConflict(err))

	record, err := repo.GetRoom(ctx, "room-1")
	require.NoError(t, err)
	assert.Equal(t, 0, record.State.Home.Score)
	assert.Equal(t, baseball.StatusPending, record.State.Status)
}

func TestInMemoryRepository_ListRooms(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepository()

	rooms, err := repo.ListRooms(ctx)
	require.NoError(t, err)
	assert.Empty(t, rooms)

	for _, roomID := range []string{"a", "b", "c"} {
		_, err := repo.CreateRoom(ctx, roomID, "seed-"+roomID, "", testState(t))
		require.NoError(t, err)
	}

	rooms, err = repo.ListRooms(ctx)
	require.NoError(t, err)
	assert.Len(t, rooms, 3)
}

func TestInMemoryRepository_Results(t *testing.T) {
	ctx := context.Background()
	repo := NewInMemoryRepository()

	state := testState(t)
	state.Home.Score = 5
	state.Away.Score = 3
	state.Inning = 9

	result := ResultFromState("room-1", state, 1234)
	require.NoError(t, repo.SaveResult(ctx, result))

	results, err := repo.ListResults(ctx)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "room-1", results[0].RoomID)
	assert.Equal(t, 5, results[0].HomeScore)
	assert.Equal(t, 3, results[0].AwayScore)
	assert.Equal(t, 9, results[0].Innings)
	assert.Equal(t, int64(1234), results[0].CompletedAt)
}
