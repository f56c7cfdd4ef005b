package room

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	countdownStart = 3
	subBuffer      = 32
	persistTimeout = 2 * time.Second
)

// Coordinator is the single writer of one room's state. Every intent takes
// the coordinator mutex, mutates, derives the broadcast events, and commits
// before the next intent is applied; no intent interleaves with another
// mid-mutation. The countdown does not block this path: each tick is a
// scheduled callback that re-enters the same mutex, so leave stays
// serviceable while the countdown is mid-flight.
type Coordinator struct {
	logger    *slog.Logger
	snapshots SnapshotStore
	tick      time.Duration

	mu           sync.Mutex
	state        *State
	subs         map[chan []byte]string
	countdown    *time.Timer
	closed       bool
	lastActivity time.Time
	finishedAt   time.Time
}

func newCoordinator(state *State, snapshots SnapshotStore, tick time.Duration, logger *slog.Logger) *Coordinator {
	if tick <= 0 {
		tick = time.Second
	}
	return &Coordinator{
		logger:       logger.With("room", state.RoomCode),
		snapshots:    snapshots,
		tick:         tick,
		state:        state,
		subs:         make(map[chan []byte]string),
		lastActivity: time.Now(),
	}
}

// NewCoordinator seeds a room from cfg: status waiting, roster holding only
// the host, who is pre-marked ready (the host is implicitly always ready).
func NewCoordinator(cfg Config, snapshots SnapshotStore, tick time.Duration, logger *slog.Logger) *Coordinator {
	state := &State{
		RoomCode:   cfg.RoomCode,
		RoomName:   cfg.RoomName,
		HostID:     cfg.HostID,
		GameID:     cfg.GameID,
		GameName:   cfg.GameName,
		Difficulty: cfg.Difficulty,
		MaxPlayers: cfg.MaxPlayers,
		Status:     StatusWaiting,
		Players: map[string]*Player{
			cfg.HostID: {ID: cfg.HostID, Name: cfg.HostName, IsReady: true},
		},
		CreatedAt: time.Now(),
	}
	c := newCoordinator(state, snapshots, tick, logger)
	c.mu.Lock()
	c.persistLocked()
	c.mu.Unlock()
	return c
}

// Snapshot returns a deep copy of the current room state.
func (c *Coordinator) Snapshot() *State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

// Subscribe registers an outbound event channel for one connection and
// queues a full room-state snapshot as its first message, so the subscriber
// never observes an incremental event without the baseline it patches.
// The returned channel is never closed by the coordinator; events that
// cannot be queued are dropped (the client resyncs via room-state on
// reconnect).
func (c *Coordinator) Subscribe(playerID string) chan []byte {
	ch := make(chan []byte, subBuffer)

	c.mu.Lock()
	defer c.mu.Unlock()

	if frame, err := EncodeEvent(RoomStateEvent{State: c.state.Clone()}); err == nil {
		ch <- frame
	}
	c.subs[ch] = playerID
	return ch
}

// Unsubscribe drops a connection's event channel.
func (c *Coordinator) Unsubscribe(ch chan []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.subs, ch)
}

// Join adds a new player to the roster. A player already on the roster
// rejoins with no state change regardless of status: that is the reconnect
// path, and the roster it rejoins is unchanged by definition.
func (c *Coordinator) Join(playerID, name string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastActivity = time.Now()

	if _, ok := c.state.Players[playerID]; ok {
		return nil
	}
	if c.state.Status != StatusWaiting {
		return newError(ReasonInvalidState, "game already started")
	}
	if len(c.state.Players) >= c.state.MaxPlayers {
		return newError(ReasonRoomFull, "room is full")
	}

	p := &Player{ID: playerID, Name: name}
	c.state.Players[playerID] = p
	c.logger.Info("player joined", "player", playerID, "name", name, "roster", len(c.state.Players))
	c.broadcastLocked(PlayerJoinedEvent{Player: *p})
	c.persistLocked()
	return nil
}

// Ready marks the caller ready. Dropped silently when the caller is not a
// roster member (the connection arrived after a leave or teardown) or when
// the room has left the waiting phase. Idempotent.
func (c *Coordinator) Ready(playerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastActivity = time.Now()

	p, ok := c.state.Players[playerID]
	if !ok || c.state.Status != StatusWaiting {
		return
	}
	p.IsReady = true
	c.broadcastLocked(PlayerReadyEvent{PlayerID: playerID})
	c.persistLocked()
}

// Start begins the countdown. Only the host may start, at least two players
// must be present, and every non-host player must be ready. On success the
// room moves to countdown, broadcasts the first tick immediately, and
// schedules the rest; after three ticks the room is playing.
func (c *Coordinator) Start(playerID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastActivity = time.Now()

	if playerID != c.state.HostID {
		return newError(ReasonForbidden, "only the host can start the game")
	}
	if c.state.Status != StatusWaiting {
		return newError(ReasonInvalidState, "game already started")
	}
	if len(c.state.Players) < MinPlayers {
		return newError(ReasonInsufficientPlayers, "need at least 2 players to start")
	}
	for id, p := range c.state.Players {
		if id != c.state.HostID && !p.IsReady {
			return newError(ReasonNotAllReady, "not all players are ready")
		}
	}

	c.state.Status = StatusCountdown
	c.logger.Info("countdown started", "host", playerID)
	c.broadcastLocked(CountdownEvent{Seconds: countdownStart})
	c.scheduleTickLocked(countdownStart - 1)
	c.persistLocked()
	return nil
}

// scheduleTickLocked arms the next countdown callback. Caller holds c.mu.
func (c *Coordinator) scheduleTickLocked(seconds int) {
	c.countdown = time.AfterFunc(c.tick, func() {
		c.countdownTick(seconds)
	})
}

func (c *Coordinator) countdownTick(seconds int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// The room may have been torn down or emptied between ticks.
	if c.closed || c.state.Status != StatusCountdown || len(c.state.Players) == 0 {
		return
	}

	if seconds > 0 {
		c.broadcastLocked(CountdownEvent{Seconds: seconds})
		c.scheduleTickLocked(seconds - 1)
		return
	}

	c.state.Status = StatusPlaying
	c.state.StartTime = time.Now()
	c.logger.Info("game started", "roster", len(c.state.Players))
	c.broadcastLocked(GameStartEvent{})
	c.persistLocked()
}

// UpdateScore replaces the caller's score and accuracy. The broadcast is
// unconditional even when the values are unchanged; senders are expected to
// de-duplicate, the coordinator does not.
func (c *Coordinator) UpdateScore(playerID string, score int, accuracy float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastActivity = time.Now()

	if c.state.Status != StatusPlaying {
		return newError(ReasonInvalidState, "game is not in progress")
	}
	p, ok := c.state.Players[playerID]
	if !ok {
		return newError(ReasonInvalidState, "not a member of this room")
	}

	p.Score = score
	p.Accuracy = accuracy
	c.broadcastLocked(ScoreUpdateEvent{PlayerID: playerID, Score: score, Accuracy: accuracy})
	c.persistLocked()
	return nil
}

// FinishGame records the caller's completion: final score, accuracy, and
// elapsed time since game start. When the last roster member finishes, the
// room transitions to finished and broadcasts the ranking. This is the only
// path to the terminal state; a player who never finishes leaves the room
// playing indefinitely, which is a deliberate gap rather than an oversight.
func (c *Coordinator) FinishGame(playerID string, score int, accuracy float64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastActivity = time.Now()

	if c.state.Status != StatusPlaying {
		return newError(ReasonInvalidState, "game is not in progress")
	}
	p, ok := c.state.Players[playerID]
	if !ok {
		return newError(ReasonInvalidState, "not a member of this room")
	}
	if p.IsFinished {
		return nil
	}

	p.Score = score
	p.Accuracy = accuracy
	p.IsFinished = true
	p.FinishTime = time.Since(c.state.StartTime).Milliseconds()
	c.logger.Info("player finished", "player", playerID, "score", score, "time_ms", p.FinishTime)
	c.broadcastLocked(PlayerFinishedEvent{
		PlayerID: playerID,
		Score:    score,
		Accuracy: accuracy,
		Time:     p.FinishTime,
	})

	if c.allFinishedLocked() {
		c.state.Status = StatusFinished
		c.finishedAt = time.Now()
		rankings := Rankings(c.state.Players)
		c.logger.Info("game over", "players", len(rankings))
		c.broadcastLocked(GameOverEvent{Rankings: rankings})
	}
	c.persistLocked()
	return nil
}

func (c *Coordinator) allFinishedLocked() bool {
	for _, p := range c.state.Players {
		if !p.IsFinished {
			return false
		}
	}
	return len(c.state.Players) > 0
}

// Leave removes the caller unconditionally, in any status. When the host
// leaves and players remain, the host role moves to a remaining player
// within the same operation; leaving never pauses or aborts the session for
// the others.
func (c *Coordinator) Leave(playerID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastActivity = time.Now()

	if _, ok := c.state.Players[playerID]; !ok {
		return
	}
	delete(c.state.Players, playerID)
	c.logger.Info("player left", "player", playerID, "roster", len(c.state.Players))
	c.broadcastLocked(PlayerLeftEvent{PlayerID: playerID})

	if c.state.HostID == playerID {
		// First remaining player found becomes host; readiness is implicit
		// for the host role, so the flag is left as-is.
		for id := range c.state.Players {
			c.state.HostID = id
			c.logger.Info("host reassigned", "host", id)
			break
		}
	}
	c.persistLocked()
}

// Empty reports whether the roster has no players left. An empty room is
// eligible for teardown by the directory in any status.
func (c *Coordinator) Empty() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.state.Players) == 0
}

// evictable reports whether the directory may tear this room down: no live
// connections, and either an empty roster, a finished game, or no activity
// within ttl.
func (c *Coordinator) evictable(now time.Time, ttl time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.subs) > 0 {
		return false
	}
	if len(c.state.Players) == 0 {
		return true
	}
	if c.state.Status == StatusFinished {
		return true
	}
	return now.Sub(c.lastActivity) > ttl
}

// Close stops the countdown timer and marks the coordinator defunct.
// Subscriber channels are left open; their sessions unsubscribe on their
// own when the transport drops.
func (c *Coordinator) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.countdown != nil {
		c.countdown.Stop()
	}
}

// broadcastLocked fans an event out to every subscriber. Caller holds c.mu,
// which is what guarantees every broadcast reflects a committed mutation and
// that subscribers observe events in commit order. Slow subscribers lose
// events rather than stalling the room.
func (c *Coordinator) broadcastLocked(ev Event) {
	frame, err := EncodeEvent(ev)
	if err != nil {
		c.logger.Error("encoding event", "error", err)
		return
	}
	for ch := range c.subs {
		select {
		case ch <- frame:
		default:
		}
	}
}

// persistLocked writes the current snapshot through to the store. Best
// effort: a failed write costs at most one mutation of recoverability and
// never fails the mutation itself. Caller holds c.mu.
func (c *Coordinator) persistLocked() {
	if c.snapshots == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()
	if err := c.snapshots.Save(ctx, c.state); err != nil {
		c.logger.Warn("persisting snapshot", "error", err)
	}
}
