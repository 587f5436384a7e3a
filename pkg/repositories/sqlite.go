package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sandlotlabs/dugout/pkg/baseball"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(ctx context.Context, path string) (*SQLiteRepository, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %v", err)
	}

	q := `
	CREATE TABLE IF NOT EXISTS rooms (
		room_id TEXT PRIMARY KEY,
		seed TEXT NOT NULL,
		created_by TEXT NOT NULL DEFAULT '',
		state BLOB NOT NULL,
		version INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		room_id TEXT NOT NULL,
		home_name TEXT NOT NULL,
		away_name TEXT NOT NULL,
		home_score INTEGER NOT NULL,
		away_score INTEGER NOT NULL,
		home_hits INTEGER NOT NULL,
		away_hits INTEGER NOT NULL,
		home_errors INTEGER NOT NULL,
		away_errors INTEGER NOT NULL,
		innings INTEGER NOT NULL,
		completed_at INTEGER NOT NULL
	);
	`
	if _, err := db.ExecContext(ctx, q); err != nil {
		return nil, fmt.Errorf("failed to execute migration: %v", err)
	}

	return &SQLiteRepository{
		db: db,
	}, nil
}

func (r *SQLiteRepository) Close(ctx context.Context) error {
	return r.db.Close()
}

func (r *SQLiteRepository) CreateRoom(ctx context.Context, roomID, seed, createdBy string, state *baseball.GameState) (*RoomRecord, error) {
	blob, err := encodeState(state)
	if err != nil {
		return nil, err
	}

	now := time.Now().UnixMilli()
	q := `
	INSERT OR IGNORE INTO rooms (room_id, seed, created_by, state, version, created_at, updated_at)
	VALUES (?, ?, ?, ?, 0, ?, ?);
	`
	res, err := r.db.ExecContext(ctx, q, roomID, seed, createdBy, blob, now, now)
	if err != nil {
		return nil, fmt.Errorf("failed to insert room: %v", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return nil, fmt.Errorf("failed to check insert: %v", err)
	}
	if affected == 0 {
		return nil, &ErrRoomExists{RoomID: roomID}
	}

	return &RoomRecord{
		RoomID:    roomID,
		Seed:      seed,
		CreatedBy: createdBy,
		State:     state.Clone(),
		Version:   0,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (r *SQLiteRepository) GetRoom(ctx context.Context, roomID string) (*RoomRecord, error) {
	q := `
	SELECT seed, created_by, state, version, created_at, updated_at FROM rooms WHERE room_id = ?;
	`
	record := &RoomRecord{RoomID: roomID}
	var blob []byte
	err := r.db.QueryRowContext(ctx, q, roomID).Scan(&record.Seed, &record.CreatedBy, &blob, &record.Version, &record.CreatedAt, &record.UpdatedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, &ErrNotFound{}
		}
		return nil, fmt.Errorf("failed to scan room: %v", err)
	}

	state, err := decodeState(blob)
	if err != nil {
		return nil, err
	}
	record.State = state

	return record, nil
}

func (r *SQLiteRepository) PutRoomIfVersion(ctx context.Context, roomID string, expectedVersion uint64, state *baseball.GameState) (uint64, error) {
	blob, err := encodeState(state)
	if err != nil {
		return 0, err
	}

	q := `
	UPDATE rooms SET state = ?, version = version + 1, updated_at = ?
	WHERE room_id = ? AND version = ?;
	`
	res, err := r.db.ExecContext(ctx, q, blob, time.Now().UnixMilli(), roomID, expectedVersion)
	if err != nil {
		return 0, fmt.Errorf("failed to update room: %v", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check update: %v", err)
	}
	if affected > 0 {
		return expectedVersion + 1, nil
	}

	var actual uint64
	err = r.db.QueryRowContext(ctx, `SELECT version FROM rooms WHERE room_id = ?`, roomID).Scan(&actual)
	if err != nil {
		if err == sql.ErrNoRows {
			return 0, &ErrNotFound{}
		}
		return 0, fmt.Errorf("failed to scan room version: %v", err)
	}

	return 0, &ErrVersionConflict{Expected: expectedVersion, Actual: actual}
}

func (r *SQLiteRepository) ResetRoom(ctx context.Context, roomID string, state *baseball.GameState) (uint64, error) {
	blob, err := encodeState(state)
	if err != nil {
		return 0, err
	}

	q := `
	UPDATE rooms SET state = ?, version = version + 1, updated_at = ?
	WHERE room_id = ?;
	`
	res, err := r.db.ExecContext(ctx, q, blob, time.Now().UnixMilli(), roomID)
	if err != nil {
		return 0, fmt.Errorf("failed to reset room: %v", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to check reset: %v", err)
	}
	if affected == 0 {
		return 0, &ErrNotFound{}
	}

	var newVersion uint64
	if err := r.db.QueryRowContext(ctx, `SELECT version FROM rooms WHERE room_id = ?`, roomID).Scan(&newVersion); err != nil {
		return 0, fmt.Errorf("failed to scan room version: %v", err)
	}

	return newVersion, nil
}

func (r *SQLiteRepository) ListRooms(ctx context.Context) ([]*RoomRecord, error) {
	q := `
	SELECT room_id, seed, created_by, state, version, created_at, updated_at FROM rooms ORDER BY created_at;
	`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to query rooms: %v", err)
	}
	defer rows.Close()

	var records []*RoomRecord
	for rows.Next() {
		record := &RoomRecord{}
		var blob []byte
		if err := rows.Scan(&record.RoomID, &record.Seed, &record.CreatedBy, &blob, &record.Version, &record.CreatedAt, &record.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan room: %v", err)
		}
		state, err := decodeState(blob)
		if err != nil {
			return nil, err
		}
		record.State = state
		records = append(records, record)
	}

	return records, rows.Err()
}

func (r *SQLiteRepository) SaveResult(ctx context.Context, result *GameResult) error {
	q := `
	INSERT INTO results (room_id, home_name, away_name, home_score, away_score,
		home_hits, away_hits, home_errors, away_errors, innings, completed_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);
	`
	_, err := r.db.ExecContext(ctx, q, result.RoomID, result.HomeName, result.AwayName,
		result.HomeScore, result.AwayScore, result.HomeHits, result.AwayHits,
		result.HomeErrors, result.AwayErrors, result.Innings, result.CompletedAt)
	if err != nil {
		return fmt.Errorf("failed to insert result: %v", err)
	}

	return nil
}

func (r *SQLiteRepository) ListResults(ctx context.Context) ([]*GameResult, error) {
	q := `
	SELECT room_id, home_name, away_name, home_score, away_score,
		home_hits, away_hits, home_errors, away_errors, innings, completed_at
	FROM results ORDER BY completed_at;
	`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("failed to query results: %v", err)
	}
	defer rows.Close()

	var results []*GameResult
	for rows.Next() {
		result := &GameResult{}
		if err := rows.Scan(&result.RoomID, &result.HomeName, &result.AwayName,
			&result.HomeScore, &result.AwayScore, &result.HomeHits, &result.AwayHits,
			&result.HomeErrors, &result.AwayErrors, &result.Innings, &result.CompletedAt); err != nil {
			return nil, fmt.Errorf("failed to scan result: %v", err)
		}
		results = append(results, result)
	}

	return results, rows.Err()
}
