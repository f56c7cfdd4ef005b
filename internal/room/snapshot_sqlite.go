package room

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// SQLiteSnapshotStore backs the snapshot cache with the room_snapshots
// table for single-node deployments that run without redis. Rows live only
// as long as the room does; the directory deletes them at teardown, so this
// is recovery state, not a room archive.
type SQLiteSnapshotStore struct {
	db *sql.DB
}

func NewSQLiteSnapshotStore(db *sql.DB) *SQLiteSnapshotStore {
	return &SQLiteSnapshotStore{db: db}
}

func (s *SQLiteSnapshotStore) Save(ctx context.Context, state *State) error {
	blob, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO room_snapshots (code, state, updated_at)
		VALUES (?, ?, strftime('%Y-%m-%dT%H:%M:%fZ', 'now'))
		ON CONFLICT(code) DO UPDATE SET
			state = excluded.state,
			updated_at = excluded.updated_at
	`, state.RoomCode, string(blob))
	if err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	return nil
}

func (s *SQLiteSnapshotStore) Load(ctx context.Context, code string) (*State, error) {
	var blob string
	err := s.db.QueryRowContext(ctx,
		"SELECT state FROM room_snapshots WHERE code = ?", code,
	).Scan(&blob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoSnapshot
	}
	if err != nil {
		return nil, fmt.Errorf("reading snapshot: %w", err)
	}
	var state State
	if err := json.Unmarshal([]byte(blob), &state); err != nil {
		return nil, fmt.Errorf("unmarshaling snapshot: %w", err)
	}
	return &state, nil
}

func (s *SQLiteSnapshotStore) Delete(ctx context.Context, code string) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM room_snapshots WHERE code = ?", code); err != nil {
		return fmt.Errorf("deleting snapshot: %w", err)
	}
	return nil
}
