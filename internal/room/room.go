// Package room implements the realtime multiplayer room coordinator: the
// authoritative state of one room, the single-writer coordinator that mutates
// it, the directory that owns coordinator lifecycles, and the JSON wire
// messages exchanged with clients.
package room

import (
	"fmt"
	"time"
)

// Status is the lifecycle phase of a room. Transitions are monotonic:
// waiting -> countdown -> playing -> finished. A finished room never
// re-enters an earlier phase; "play again" means a new room.
type Status string

const (
	StatusWaiting   Status = "waiting"
	StatusCountdown Status = "countdown"
	StatusPlaying   Status = "playing"
	StatusFinished  Status = "finished"
)

// Player is one roster member. Score and accuracy hold the latest reported
// values; each update replaces them outright. FinishTime is elapsed
// milliseconds from the session start and is meaningful only once IsFinished
// is set.
type Player struct {
	ID         string  `json:"id"`
	Name       string  `json:"name"`
	Score      int     `json:"score"`
	Accuracy   float64 `json:"accuracy"`
	IsReady    bool    `json:"isReady"`
	IsFinished bool    `json:"isFinished"`
	FinishTime int64   `json:"finishTime"`
}

// State is the full serializable snapshot of one room. It is owned
// exclusively by the room's coordinator; everything outside the coordinator
// only ever sees deep copies.
type State struct {
	RoomCode   string             `json:"roomCode"`
	RoomName   string             `json:"roomName"`
	HostID     string             `json:"hostId"`
	GameID     string             `json:"gameId"`
	GameName   string             `json:"gameName"`
	Difficulty string             `json:"difficulty"`
	MaxPlayers int                `json:"maxPlayers"`
	Status     Status             `json:"status"`
	Players    map[string]*Player `json:"players"`
	StartTime  time.Time          `json:"startTime"`
	CreatedAt  time.Time          `json:"createdAt"`
}

// Clone returns a deep copy safe to hand outside the coordinator.
func (s *State) Clone() *State {
	cp := *s
	cp.Players = make(map[string]*Player, len(s.Players))
	for id, p := range s.Players {
		pc := *p
		cp.Players[id] = &pc
	}
	return &cp
}

// Config is the immutable session configuration chosen at room creation.
type Config struct {
	RoomCode   string `json:"roomCode"`
	RoomName   string `json:"roomName"`
	HostID     string `json:"hostId"`
	HostName   string `json:"hostName"`
	GameID     string `json:"gameId"`
	GameName   string `json:"gameName"`
	Difficulty string `json:"difficulty"`
	MaxPlayers int    `json:"maxPlayers"`
}

const (
	MinPlayers      = 2
	MaxPlayersLimit = 8
)

// Validate checks the config before any room is created. Room codes are
// checked by shape only; uniqueness is the directory's concern.
func (c Config) Validate() error {
	if !ValidCode(c.RoomCode) {
		return fmt.Errorf("invalid room code %q: want four uppercase letters (no I/O), hyphen, four digits", c.RoomCode)
	}
	if c.RoomName == "" {
		return fmt.Errorf("room name is required")
	}
	if c.HostID == "" || c.HostName == "" {
		return fmt.Errorf("host id and host name are required")
	}
	if c.GameID == "" {
		return fmt.Errorf("game id is required")
	}
	if c.MaxPlayers < MinPlayers || c.MaxPlayers > MaxPlayersLimit {
		return fmt.Errorf("maxPlayers must be between %d and %d, got %d", MinPlayers, MaxPlayersLimit, c.MaxPlayers)
	}
	return nil
}

// RankEntry is one row of the final ranking broadcast at game-over.
type RankEntry struct {
	PlayerID string  `json:"playerId"`
	Name     string  `json:"name"`
	Score    int     `json:"score"`
	Accuracy float64 `json:"accuracy"`
	Time     int64   `json:"time"`
}
