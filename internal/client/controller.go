// Package client implements the player-side session controller: it opens a
// room connection, folds the coordinator's event stream into a local
// read-model, and exposes the outbound intents. The read-model is never
// mutated optimistically; displayed state always lags the coordinator by
// one round trip.
package client

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"sync"

	"nhooyr.io/websocket"

	"github.com/neuroplay/arena/internal/room"
)

const eventBuffer = 32

// Controller is one player's view of one room.
type Controller struct {
	logger   *slog.Logger
	conn     *websocket.Conn
	playerID string

	mu       sync.RWMutex
	state    *room.State
	rankings []room.RankEntry
	lastErr  *room.ErrorEvent

	events chan room.Event
}

// Dial connects to a room's event stream. baseURL is the http(s) origin of
// the arena server; the room code is validated by shape before any network
// call.
func Dial(ctx context.Context, baseURL, code, playerID string, logger *slog.Logger) (*Controller, error) {
	if !room.ValidCode(code) {
		return nil, fmt.Errorf("invalid room code %q", code)
	}

	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parsing base url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = "/ws/rooms/" + code
	u.RawQuery = url.Values{"playerId": {playerID}}.Encode()

	conn, _, err := websocket.Dial(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dialing room %s: %w", code, err)
	}

	return &Controller{
		logger:   logger.With("room", code, "player", playerID),
		conn:     conn,
		playerID: playerID,
		events:   make(chan room.Event, eventBuffer),
	}, nil
}

// Run reads the event stream until the connection drops or ctx is done.
// After a disconnect the caller re-dials and re-issues Join; the room-state
// snapshot received on the new connection resyncs the read-model.
func (c *Controller) Run(ctx context.Context) error {
	for {
		_, frame, err := c.conn.Read(ctx)
		if err != nil {
			return fmt.Errorf("reading event stream: %w", err)
		}

		ev, err := room.DecodeEvent(frame)
		if err != nil {
			c.logger.Warn("dropping malformed event", "error", err)
			continue
		}

		c.fold(ev)

		select {
		case c.events <- ev:
		default:
			// A slow consumer loses notifications, not state; the
			// read-model above is already current.
		}
	}
}

// fold applies one event to the read-model. Events for players not known
// locally are no-ops; room-state replaces the model wholesale and is the
// authoritative resync point.
func (c *Controller) fold(ev room.Event) {
	c.mu.Lock()
	defer c.mu.Unlock()

	switch e := ev.(type) {
	case room.RoomStateEvent:
		c.state = e.State
	case room.PlayerJoinedEvent:
		if c.state == nil {
			return
		}
		p := e.Player
		c.state.Players[p.ID] = &p
	case room.PlayerLeftEvent:
		if c.state == nil {
			return
		}
		delete(c.state.Players, e.PlayerID)
	case room.PlayerReadyEvent:
		if p := c.player(e.PlayerID); p != nil {
			p.IsReady = true
		}
	case room.CountdownEvent:
		if c.state != nil {
			c.state.Status = room.StatusCountdown
		}
	case room.GameStartEvent:
		if c.state != nil {
			c.state.Status = room.StatusPlaying
		}
	case room.ScoreUpdateEvent:
		if p := c.player(e.PlayerID); p != nil {
			p.Score = e.Score
			p.Accuracy = e.Accuracy
		}
	case room.PlayerFinishedEvent:
		if p := c.player(e.PlayerID); p != nil {
			p.Score = e.Score
			p.Accuracy = e.Accuracy
			p.IsFinished = true
			p.FinishTime = e.Time
		}
	case room.GameOverEvent:
		if c.state != nil {
			c.state.Status = room.StatusFinished
		}
		c.rankings = e.Rankings
	case room.ErrorEvent:
		errEvt := e
		c.lastErr = &errEvt
	}
}

func (c *Controller) player(id string) *room.Player {
	if c.state == nil {
		return nil
	}
	return c.state.Players[id]
}

// State returns a copy of the current read-model, or nil before the first
// room-state event arrives.
func (c *Controller) State() *room.State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.state == nil {
		return nil
	}
	return c.state.Clone()
}

// Rankings returns the final ranking once game-over has been folded.
func (c *Controller) Rankings() []room.RankEntry {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.rankings
}

// LastError returns the most recent error event unicast to this player.
func (c *Controller) LastError() *room.ErrorEvent {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastErr
}

// Events delivers every folded event for UI consumption. Delivery is lossy
// under backpressure; State() is always complete.
func (c *Controller) Events() <-chan room.Event {
	return c.events
}

func (c *Controller) Join(ctx context.Context, name string) error {
	return c.sendIntent(ctx, room.JoinIntent{Name: name})
}

func (c *Controller) Ready(ctx context.Context) error {
	return c.sendIntent(ctx, room.ReadyIntent{})
}

func (c *Controller) Start(ctx context.Context) error {
	return c.sendIntent(ctx, room.StartIntent{})
}

func (c *Controller) UpdateScore(ctx context.Context, score int, accuracy float64) error {
	return c.sendIntent(ctx, room.ScoreUpdateIntent{Score: score, Accuracy: accuracy})
}

func (c *Controller) FinishGame(ctx context.Context, score int, accuracy float64) error {
	return c.sendIntent(ctx, room.GameCompleteIntent{Score: score, Accuracy: accuracy})
}

func (c *Controller) Leave(ctx context.Context) error {
	return c.sendIntent(ctx, room.LeaveIntent{})
}

func (c *Controller) sendIntent(ctx context.Context, in room.Intent) error {
	frame, err := room.EncodeIntent(in)
	if err != nil {
		return err
	}
	return c.conn.Write(ctx, websocket.MessageText, frame)
}

// Close tears down the connection.
func (c *Controller) Close() error {
	return c.conn.Close(websocket.StatusNormalClosure, "leaving")
}
