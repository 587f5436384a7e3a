package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/sandlotlabs/dugout/pkg/baseball"
)

// PostgresRepository is backed by a pgxpool.Pool: every room hub
// goroutine and HTTP handler issues queries concurrently.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgresRepository.
// It panics if it is unable to connect to the database.
// The caller is responsible for calling Close() on the repository.
func NewPostgresRepository(ctx context.Context, connStr string) *PostgresRepository {
	pool, err := pgxpool.New(ctx, connStr)
	if err != nil {
		panic(fmt.Sprintf("unable to connect to database: %v", err))
	}

	r := &PostgresRepository{pool: pool}
	if err := r.migrate(ctx); err != nil {
		panic(fmt.Sprintf("unable to migrate database: %v", err))
	}

	return r
}

func (r *PostgresRepository) migrate(ctx context.Context) error {
	q := `
	CREATE TABLE IF NOT EXISTS rooms (
		room_id TEXT PRIMARY KEY,
		seed TEXT NOT NULL,
		created_by TEXT NOT NULL DEFAULT '',
		state BYTEA NOT NULL,
		version BIGINT NOT NULL DEFAULT 0,
		created_at BIGINT NOT NULL,
		updated_at BIGINT NOT NULL
	);
	CREATE TABLE IF NOT EXISTS results (
		id BIGSERIAL PRIMARY KEY,
		room_id TEXT NOT NULL,
		home_name TEXT NOT NULL,
		away_name TEXT NOT NULL,
		home_score INT NOT NULL,
		away_score INT NOT NULL,
		home_hits INT NOT NULL,
		away_hits INT NOT NULL,
		home_errors INT NOT NULL,
		away_errors INT NOT NULL,
		innings INT NOT NULL,
		completed_at BIGINT NOT NULL
	);
	`
	_, err := r.pool.Exec(ctx, q)
	return err
}

func (r *PostgresRepository) Close(ctx context.Context) error {
	r.pool.Close()
	return nil
}

func (r *PostgresRepository) CreateRoom(ctx context.Context, roomID, seed, createdBy string, state *baseball.GameState) (*RoomRecord, error) {
	blob, err := encodeState(state)
	if err != nil {
		return nil, err
	}

	now := time.Now().UnixMilli()
	q := `
	INSERT INTO rooms (room_id, seed, created_by, state, version, created_at, updated_at)
	VALUES ($1, $2, $3, $4, 0, $5, $5)
	ON CONFLICT (room_id) DO NOTHING;
	`
	tag, err := r.pool.Exec(ctx, q, roomID, seed, createdBy, blob, now)
	if err != nil {
		return nil, fmt.Errorf("failed to insert room: %v", err)
	}
	if tag.RowsAffected() == 0 {
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

func (r *PostgresRepository) GetRoom(ctx context.Context, roomID string) (*RoomRecord, error) {
	q := `
	SELECT seed, created_by, state, version, created_at, updated_at FROM rooms WHERE room_id = $1;
	`
	record := &RoomRecord{RoomID: roomID}
	var blob []byte
	err := r.pool.QueryRow(ctx, q, roomID).Scan(&record.Seed, &record.CreatedBy, &blob, &record.Version, &record.CreatedAt, &record.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
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

func (r *PostgresRepository) PutRoomIfVersion(ctx context.Context, roomID string, expectedVersion uint64, state *baseball.GameState) (uint64, error) {
	blob, err := encodeState(state)
	if err != nil {
		return 0, err
	}

	// The WHERE clause on version is the compare-and-swap: a stale
	// writer matches zero rows and never touches the record.
	q := `
	UPDATE rooms SET state = $1, version = version + 1, updated_at = $2
	WHERE room_id = $3 AND version = $4
	RETURNING version;
	`
	var newVersion uint64
	err = r.pool.QueryRow(ctx, q, blob, time.Now().UnixMilli(), roomID, expectedVersion).Scan(&newVersion)
	if err == nil {
		return newVersion, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("failed to update room: %v", err)
	}

	var actual uint64
	err = r.pool.QueryRow(ctx, `SELECT version FROM rooms WHERE room_id = $1`, roomID).Scan(&actual)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, &ErrNotFound{}
		}
		return 0, fmt.Errorf("failed to scan room version: %v", err)
	}

	return 0, &ErrVersionConflict{Expected: expectedVersion, Actual: actual}
}

func (r *PostgresRepository) ResetRoom(ctx context.Context, roomID string, state *baseball.GameState) (uint64, error) {
	blob, err := encodeState(state)
	if err != nil {
		return 0, err
	}

	q := `
	UPDATE rooms SET state = $1, version = version + 1, updated_at = $2
	WHERE room_id = $3
	RETURNING version;
	`
	var newVersion uint64
	err = r.pool.QueryRow(ctx, q, blob, time.Now().UnixMilli(), roomID).Scan(&newVersion)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, &ErrNotFound{}
		}
		return 0, fmt.Errorf("failed to reset room: %v", err)
	}

	return newVersion, nil
}

func (r *PostgresRepository) ListRooms(ctx context.Context) ([]*RoomRecord, error) {
	q := `
	SELECT room_id, seed, created_by, state, version, created_at, updated_at FROM rooms ORDER BY created_at;
	`
	rows, err := r.pool.Query(ctx, q)
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

func (r *PostgresRepository) SaveResult(ctx context.Context, result *GameResult) error {
	q := `
	INSERT INTO results (room_id, home_name, away_name, home_score, away_score,
		home_hits, away_hits, home_errors, away_errors, innings, completed_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11);
	`
	_, err := r.pool.Exec(ctx, q, result.RoomID, result.HomeName, result.AwayName,
		result.HomeScore, result.AwayScore, result.HomeHits, result.AwayHits,
		result.HomeErrors, result.AwayErrors, result.Innings, result.CompletedAt)
	if err != nil {
		return fmt.Errorf("failed to insert result: %v", err)
	}

	return nil
}

func (r *PostgresRepository) ListResults(ctx context.Context) ([]*GameResult, error) {
	q := `
	SELECT room_id, home_name, away_name, home_score, away_score,
		home_hits, away_hits, home_errors, away_errors, innings, completed_at
	FROM results ORDER BY completed_at;
	`
	rows, err := r.pool.Query(ctx, q)
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
