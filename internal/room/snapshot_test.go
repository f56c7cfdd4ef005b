package room

import (
	"context"
	"testing"
	"time"

	"github.com/neuroplay/arena/internal/database"
	"github.com/neuroplay/arena/internal/migrations"
)

func testState() *State {
	return &State{
		RoomCode:   "BRKN-4521",
		RoomName:   "Focus Duel",
		HostID:     "host-1",
		GameID:     "memory-matrix",
		MaxPlayers: 2,
		Status:     StatusPlaying,
		Players: map[string]*Player{
			"host-1": {ID: "host-1", Name: "Ada", IsReady: true, Score: 40},
			"p2":     {ID: "p2", Name: "Grace", IsReady: true, Score: 120, Accuracy: 90},
		},
		StartTime: time.Now().UTC().Truncate(time.Millisecond),
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}
}

func TestSQLiteSnapshotStore(t *testing.T) {
	ctx := context.Background()

	db, err := database.Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("opening database: %v", err)
	}
	defer db.Close()
	if err := migrations.Run(db); err != nil {
		t.Fatalf("running migrations: %v", err)
	}

	store := NewSQLiteSnapshotStore(db)
	state := testState()

	if err := store.Save(ctx, state); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := store.Load(ctx, state.RoomCode)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.Status != StatusPlaying || len(got.Players) != 2 {
		t.Errorf("loaded state = status %q, %d players", got.Status, len(got.Players))
	}
	if got.Players["p2"].Score != 120 {
		t.Errorf("p2 score = %d, want 120", got.Players["p2"].Score)
	}

	// Save is an upsert: a second write replaces the row.
	state.Players["p2"].Score = 200
	if err := store.Save(ctx, state); err != nil {
		t.Fatalf("second save: %v", err)
	}
	got, err = store.Load(ctx, state.RoomCode)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if got.Players["p2"].Score != 200 {
		t.Errorf("p2 score after upsert = %d, want 200", got.Players["p2"].Score)
	}

	if err := store.Delete(ctx, state.RoomCode); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Load(ctx, state.RoomCode); err != ErrNoSnapshot {
		t.Errorf("load after delete = %v, want ErrNoSnapshot", err)
	}
}

func TestMemorySnapshotStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemorySnapshotStore()
	state := testState()

	if _, err := store.Load(ctx, state.RoomCode); err != ErrNoSnapshot {
		t.Fatalf("load on empty store = %v, want ErrNoSnapshot", err)
	}

	if err := store.Save(ctx, state); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := store.Load(ctx, state.RoomCode)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(got.Players) != 2 {
		t.Errorf("loaded roster size = %d, want 2", len(got.Players))
	}

	// The store holds a serialized copy, not the live state.
	state.Players["p2"].Score = 999
	got, _ = store.Load(ctx, state.RoomCode)
	if got.Players["p2"].Score == 999 {
		t.Error("store leaked a reference to the live state")
	}

	if err := store.Delete(ctx, state.RoomCode); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Load(ctx, state.RoomCode); err != ErrNoSnapshot {
		t.Errorf("load after delete = %v, want ErrNoSnapshot", err)
	}
}
