package room

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"
)

const sweepInterval = time.Minute

// Directory owns the mapping from room code to live coordinator. It is the
// one place where "room does not exist" is decided: a code is live if it is
// in the map, rehydratable if the snapshot store still has it, and not found
// otherwise.
type Directory struct {
	logger    *slog.Logger
	snapshots SnapshotStore
	idleTTL   time.Duration
	tick      time.Duration

	mu    sync.RWMutex
	rooms map[string]*Coordinator
}

// DirectoryOptions tune directory behaviour; zero values get defaults.
type DirectoryOptions struct {
	// Snapshots is the write-through store for room state. Nil disables
	// persistence and rehydration.
	Snapshots SnapshotStore
	// IdleTTL is how long an inactive room without connections survives
	// before the sweeper tears it down. Defaults to one hour.
	IdleTTL time.Duration
	// CountdownTick overrides the one-second countdown interval; tests
	// shorten it.
	CountdownTick time.Duration
}

func NewDirectory(logger *slog.Logger, opts DirectoryOptions) *Directory {
	if opts.IdleTTL <= 0 {
		opts.IdleTTL = time.Hour
	}
	return &Directory{
		logger:    logger,
		snapshots: opts.Snapshots,
		idleTTL:   opts.IdleTTL,
		tick:      opts.CountdownTick,
		rooms:     make(map[string]*Coordinator),
	}
}

// Create validates cfg and spins up a coordinator for it. Fails with
// AlreadyExists when a live room already holds the code.
func (d *Directory) Create(cfg Config) (*Coordinator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if _, ok := d.rooms[cfg.RoomCode]; ok {
		return nil, newError(ReasonAlreadyExists, "room code already in use")
	}

	co := NewCoordinator(cfg, d.snapshots, d.tick, d.logger)
	d.rooms[cfg.RoomCode] = co
	d.logger.Info("room created", "room", cfg.RoomCode, "game", cfg.GameID, "max_players", cfg.MaxPlayers)
	return co, nil
}

// Get returns the live coordinator for code. On a miss it consults the
// snapshot store and rebuilds the coordinator from the most recent
// point-in-time snapshot; a room mid-countdown at snapshot time resumes the
// countdown from the top, since the original timer died with the process.
func (d *Directory) Get(ctx context.Context, code string) (*Coordinator, error) {
	if !ValidCode(code) {
		return nil, newError(ReasonRoomNotFound, "malformed room code")
	}

	d.mu.RLock()
	co, ok := d.rooms[code]
	d.mu.RUnlock()
	if ok {
		return co, nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	// Double-check after acquiring the write lock.
	if co, ok := d.rooms[code]; ok {
		return co, nil
	}

	co, err := d.rehydrate(ctx, code)
	if err != nil {
		return nil, err
	}
	d.rooms[code] = co
	return co, nil
}

func (d *Directory) rehydrate(ctx context.Context, code string) (*Coordinator, error) {
	if d.snapshots == nil {
		return nil, newError(ReasonRoomNotFound, "room not found")
	}
	state, err := d.snapshots.Load(ctx, code)
	if errors.Is(err, ErrNoSnapshot) {
		return nil, newError(ReasonRoomNotFound, "room not found")
	}
	if err != nil {
		return nil, err
	}

	co := newCoordinator(state, d.snapshots, d.tick, d.logger)
	d.logger.Info("room rehydrated from snapshot", "room", code, "status", state.Status)

	if state.Status == StatusCountdown {
		co.mu.Lock()
		co.broadcastLocked(CountdownEvent{Seconds: countdownStart})
		co.scheduleTickLocked(countdownStart - 1)
		co.mu.Unlock()
	}
	return co, nil
}

// Run sweeps evictable rooms until ctx is done: no live connections and an
// empty roster, a finished game, or idleTTL of inactivity. Evicted rooms
// drop their persisted snapshot.
func (d *Directory) Run(ctx context.Context) error {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case now := <-ticker.C:
			d.sweep(ctx, now)
		}
	}
}

func (d *Directory) sweep(ctx context.Context, now time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for code, co := range d.rooms {
		if !co.evictable(now, d.idleTTL) {
			continue
		}
		co.Close()
		delete(d.rooms, code)
		if d.snapshots != nil {
			if err := d.snapshots.Delete(ctx, code); err != nil {
				d.logger.Warn("deleting snapshot", "room", code, "error", err)
			}
		}
		d.logger.Info("room evicted", "room", code)
	}
}

// Close tears down every live coordinator.
func (d *Directory) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for code, co := range d.rooms {
		co.Close()
		delete(d.rooms, code)
	}
}
