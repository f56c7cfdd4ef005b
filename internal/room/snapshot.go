package room

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
)

// ErrNoSnapshot is returned by Load when no snapshot exists for the code.
var ErrNoSnapshot = errors.New("no snapshot for room")

// SnapshotStore is the write-through cache of room state, keyed by room
// code and refreshed after every committed mutation. It is best effort, not
// a durability guarantee: a crash between mutation and write loses at most
// one mutation.
type SnapshotStore interface {
	Save(ctx context.Context, state *State) error
	Load(ctx context.Context, code string) (*State, error)
	Delete(ctx context.Context, code string) error
}

// MemorySnapshotStore keeps snapshots in process memory. Used by tests and
// as the fallback when no backing store is configured.
type MemorySnapshotStore struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

func NewMemorySnapshotStore() *MemorySnapshotStore {
	return &MemorySnapshotStore{blobs: make(map[string][]byte)}
}

func (s *MemorySnapshotStore) Save(_ context.Context, state *State) error {
	blob, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("marshaling snapshot: %w", err)
	}
	s.mu.Lock()
	s.blobs[state.RoomCode] = blob
	s.mu.Unlock()
	return nil
}

func (s *MemorySnapshotStore) Load(_ context.Context, code string) (*State, error) {
	s.mu.RLock()
	blob, ok := s.blobs[code]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNoSnapshot
	}
	var state State
	if err := json.Unmarshal(blob, &state); err != nil {
		return nil, fmt.Errorf("unmarshaling snapshot: %w", err)
	}
	return &state, nil
}

func (s *MemorySnapshotStore) Delete(_ context.Context, code string) error {
	s.mu.Lock()
	delete(s.blobs, code)
	s.mu.Unlock()
	return nil
}
