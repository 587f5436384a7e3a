package repositories

import "fmt"

type ErrNotFound struct {
}

func (e *ErrNotFound) Error() string {
	return "not found"
}

func IsNotFound(err error) bool {
	_, ok := err.(*ErrNotFound)
	return ok
}

// ErrVersionConflict means a compare-and-swap write lost its race:
// another writer committed first and the caller must re-read.
type ErrVersionConflict struct {
	Expected uint64
	Actual   uint64
}

func (e *ErrVersionConflict) Error() string {
	return fmt.Sprintf("version conflict: expected %d, have %d", e.Expected, e.Actual)
}

func IsVersionConflict(err error) bool {
	_, ok := err.(*ErrVersionConflict)
	return ok
}

type ErrRoomExists struct {
	RoomID string
}

func (e *ErrRoomExists) Error() string {
	return fmt.Sprintf("room %s already exists", e.RoomID)
}

func IsRoomExists(err error) bool {
	_, ok := err.(*ErrRoomExists)
	return ok
}
