package room

import (
	"context"
	"testing"
	"time"
)

func newTestDirectory(t *testing.T, store SnapshotStore) *Directory {
	t.Helper()
	d := NewDirectory(testLogger(), DirectoryOptions{
		Snapshots:     store,
		IdleTTL:       time.Hour,
		CountdownTick: testTick,
	})
	t.Cleanup(d.Close)
	return d
}

func TestDirectoryCreateAndGet(t *testing.T) {
	d := newTestDirectory(t, NewMemorySnapshotStore())

	co, err := d.Create(testConfig(2))
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := d.Get(context.Background(), "BRKN-4521")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got != co {
		t.Error("get returned a different coordinator than create")
	}
}

func TestDirectoryCreateDuplicate(t *testing.T) {
	d := newTestDirectory(t, NewMemorySnapshotStore())

	if _, err := d.Create(testConfig(2)); err != nil {
		t.Fatalf("create: %v", err)
	}
	_, err := d.Create(testConfig(2))
	if !IsReason(err, ReasonAlreadyExists) {
		t.Fatalf("duplicate create error = %v, want AlreadyExists", err)
	}
}

func TestDirectoryCreateValidation(t *testing.T) {
	d := newTestDirectory(t, NewMemorySnapshotStore())

	cfg := testConfig(2)
	cfg.RoomCode = "nope"
	if _, err := d.Create(cfg); err == nil {
		t.Error("malformed room code should fail validation")
	}

	cfg = testConfig(9)
	if _, err := d.Create(cfg); err == nil {
		t.Error("maxPlayers above the bound should fail validation")
	}

	cfg = testConfig(1)
	if _, err := d.Create(cfg); err == nil {
		t.Error("maxPlayers below the bound should fail validation")
	}
}

func TestDirectoryGetNotFound(t *testing.T) {
	d := newTestDirectory(t, NewMemorySnapshotStore())

	_, err := d.Get(context.Background(), "QQQQ-0001")
	if !IsReason(err, ReasonRoomNotFound) {
		t.Fatalf("error = %v, want RoomNotFound", err)
	}

	_, err = d.Get(context.Background(), "not-a-code")
	if !IsReason(err, ReasonRoomNotFound) {
		t.Fatalf("malformed code error = %v, want RoomNotFound", err)
	}
}

func TestDirectoryRehydratesFromSnapshot(t *testing.T) {
	store := NewMemorySnapshotStore()

	first := newTestDirectory(t, store)
	co, err := first.Create(testConfig(2))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := co.Join("p2", "Grace"); err != nil {
		t.Fatalf("join: %v", err)
	}
	first.Close()

	// A fresh directory over the same store stands in for a restarted
	// process.
	second := newTestDirectory(t, store)
	got, err := second.Get(context.Background(), "BRKN-4521")
	if err != nil {
		t.Fatalf("get after restart: %v", err)
	}

	state := got.Snapshot()
	if len(state.Players) != 2 {
		t.Errorf("rehydrated roster size = %d, want 2", len(state.Players))
	}
	if state.Status != StatusWaiting {
		t.Errorf("rehydrated status = %q, want waiting", state.Status)
	}
}

func TestDirectorySweepEvictsEmptyRooms(t *testing.T) {
	store := NewMemorySnapshotStore()
	d := newTestDirectory(t, store)

	co, err := d.Create(testConfig(2))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	co.Leave("host-1")

	d.sweep(context.Background(), time.Now())

	if _, err := store.Load(context.Background(), "BRKN-4521"); err != ErrNoSnapshot {
		t.Errorf("snapshot should be deleted at eviction, got err = %v", err)
	}
	// The room is gone from the live map and no snapshot remains, so Get
	// must now miss.
	if _, err := d.Get(context.Background(), "BRKN-4521"); !IsReason(err, ReasonRoomNotFound) {
		t.Errorf("get after eviction = %v, want RoomNotFound", err)
	}
}

func TestDirectorySweepSparesActiveRooms(t *testing.T) {
	d := newTestDirectory(t, NewMemorySnapshotStore())

	co, err := d.Create(testConfig(2))
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	ch := co.Subscribe("host-1")
	defer co.Unsubscribe(ch)

	d.sweep(context.Background(), time.Now().Add(48*time.Hour))

	if _, err := d.Get(context.Background(), "BRKN-4521"); err != nil {
		t.Errorf("room with a live connection must not be evicted: %v", err)
	}
}

func TestDirectorySweepEvictsIdleRooms(t *testing.T) {
	d := newTestDirectory(t, NewMemorySnapshotStore())

	if _, err := d.Create(testConfig(2)); err != nil {
		t.Fatalf("create: %v", err)
	}

	// No connections, roster non-empty, far past the idle TTL.
	d.sweep(context.Background(), time.Now().Add(48*time.Hour))

	if _, err := d.Get(context.Background(), "BRKN-4521"); !IsReason(err, ReasonRoomNotFound) {
		t.Errorf("idle room should be evicted, got %v", err)
	}
}
