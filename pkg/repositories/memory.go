package repositories

import (
	"context"
	"sync"
	"time"

	"github.com/sandlotlabs/dugout/pkg/baseball"
)

// InMemoryRepository keeps room records in process memory. It backs
// tests and single-node local play; the compare-and-swap contract is
// identical to the SQL stores.
type InMemoryRepository struct {
	lock    sync.RWMutex
	rooms   map[string]*RoomRecord
	results []*GameResult
}

func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		rooms: make(map[string]*RoomRecord),
	}
}

func (r *InMemoryRepository) Close(ctx context.Context) error {
	return nil
}

func (r *InMemoryRepository) CreateRoom(ctx context.Context, roomID, seed, createdBy string, state *baseball.GameState) (*RoomRecord, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	if _, ok := r.rooms[roomID]; ok {
		return nil, &ErrRoomExists{RoomID: roomID}
	}

	now := time.Now().UnixMilli()
	record := &RoomRecord{
		RoomID:    roomID,
		Seed:      seed,
		CreatedBy: createdBy,
		State:     state.Clone(),
		Version:   0,
		CreatedAt: now,
		UpdatedAt: now,
	}
	r.rooms[roomID] = record

	return copyRecord(record), nil
}

func (r *InMemoryRepository) GetRoom(ctx context.Context, roomID string) (*RoomRecord, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	record, ok := r.rooms[roomID]
	if !ok {
		return nil, &ErrNotFound{}
	}
	return copyRecord(record), nil
}

func (r *InMemoryRepository) PutRoomIfVersion(ctx context.Context, roomID string, expectedVersion uint64, state *baseball.GameState) (uint64, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	record, ok := r.rooms[roomID]
	if !ok {
		return 0, &ErrNotFound{}
	}
	if record.Version != expectedVersion {
		return 0, &ErrVersionConflict{Expected: expectedVersion, Actual: record.Version}
	}

	record.State = state.Clone()
	record.Version++
	record.UpdatedAt = time.Now().UnixMilli()

	return record.Version, nil
}

func (r *InMemoryRepository) ResetRoom(ctx context.Context, roomID string, state *baseball.GameState) (uint64, error) {
	r.lock.Lock()
	defer r.lock.Unlock()

	record, ok := r.rooms[roomID]
	if !ok {
		return 0, &ErrNotFound{}
	}

	record.State = state.Clone()
	record.Version++
	record.UpdatedAt = time.Now().UnixMilli()

	return record.Version, nil
}

func (r *InMemoryRepository) ListRooms(ctx context.Context) ([]*RoomRecord, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	records := make([]*RoomRecord, 0, len(r.rooms))
	for _, record := range r.rooms {
		records = append(records, copyRecord(record))
	}
	return records, nil
}

func (r *InMemoryRepository) SaveResult(ctx context.Context, result *GameResult) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.results = append(r.results, result)
	return nil
}

func (r *InMemoryRepository) ListResults(ctx context.Context) ([]*GameResult, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	results := make([]*GameResult, len(r.results))
	copy(results, r.results)
	return results, nil
}

func copyRecord(record *RoomRecord) *RoomRecord {
	out := *record
	out.State = record.State.Clone()
	return &out
}
