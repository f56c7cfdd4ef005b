package room

import (
	"encoding/json"
	"fmt"
)

// Wire messages are JSON envelopes tagged by a type field, with the typed
// payload nested under data:
//
//	{"type": "score-update", "data": {"score": 120, "accuracy": 90}}
//
// Each direction is a closed set: DecodeIntent and DecodeEvent switch
// exhaustively over the known tags, so adding a message type is a
// compile-visible change here, not a stringly-typed convention scattered
// across handlers.
type wireMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Intent type tags (client -> coordinator).
const (
	TypeJoin         = "join"
	TypeReady        = "ready"
	TypeStart        = "start"
	TypeScoreUpdate  = "score-update"
	TypeGameComplete = "game-complete"
	TypeLeave        = "leave"
)

// Event type tags (coordinator -> client).
const (
	TypeRoomState      = "room-state"
	TypePlayerJoined   = "player-joined"
	TypePlayerLeft     = "player-left"
	TypePlayerReady    = "player-ready"
	TypeCountdown      = "countdown"
	TypeGameStart      = "game-start"
	TypePlayerFinished = "player-finished"
	TypeGameOver       = "game-over"
	TypeError          = "error"
)

// Intent is one inbound client message, already decoded.
type Intent interface {
	intentType() string
}

type JoinIntent struct {
	Name string `json:"name"`
}

type ReadyIntent struct{}

type StartIntent struct{}

type ScoreUpdateIntent struct {
	Score    int     `json:"score"`
	Accuracy float64 `json:"accuracy"`
}

type GameCompleteIntent struct {
	Score    int     `json:"score"`
	Accuracy float64 `json:"accuracy"`
}

type LeaveIntent struct{}

func (JoinIntent) intentType() string         { return TypeJoin }
func (ReadyIntent) intentType() string        { return TypeReady }
func (StartIntent) intentType() string        { return TypeStart }
func (ScoreUpdateIntent) intentType() string  { return TypeScoreUpdate }
func (GameCompleteIntent) intentType() string { return TypeGameComplete }
func (LeaveIntent) intentType() string        { return TypeLeave }

// DecodeIntent parses one inbound frame. Unknown tags and malformed payloads
// return an error; callers drop such frames with a logged warning rather
// than surfacing them to the sender.
func DecodeIntent(frame []byte) (Intent, error) {
	var msg wireMessage
	if err := json.Unmarshal(frame, &msg); err != nil {
		return nil, fmt.Errorf("decoding intent envelope: %w", err)
	}

	switch msg.Type {
	case TypeJoin:
		var in JoinIntent
		if err := json.Unmarshal(msg.Data, &in); err != nil {
			return nil, fmt.Errorf("decoding %s payload: %w", msg.Type, err)
		}
		return in, nil
	case TypeReady:
		return ReadyIntent{}, nil
	case TypeStart:
		return StartIntent{}, nil
	case TypeScoreUpdate:
		var in ScoreUpdateIntent
		if err := json.Unmarshal(msg.Data, &in); err != nil {
			return nil, fmt.Errorf("decoding %s payload: %w", msg.Type, err)
		}
		return in, nil
	case TypeGameComplete:
		var in GameCompleteIntent
		if err := json.Unmarshal(msg.Data, &in); err != nil {
			return nil, fmt.Errorf("decoding %s payload: %w", msg.Type, err)
		}
		return in, nil
	case TypeLeave:
		return LeaveIntent{}, nil
	default:
		return nil, fmt.Errorf("unknown intent type %q", msg.Type)
	}
}

// EncodeIntent frames an intent for the wire.
func EncodeIntent(in Intent) ([]byte, error) {
	payload, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("encoding %s payload: %w", in.intentType(), err)
	}
	return json.Marshal(wireMessage{Type: in.intentType(), Data: payload})
}

// Event is one outbound coordinator message, broadcast to every subscriber
// unless noted otherwise on the concrete type.
type Event interface {
	eventType() string
}

// RoomStateEvent carries a full snapshot. Unicast: sent to a connection when
// it subscribes and again as the join acknowledgement, so a client always
// holds an authoritative baseline before any incremental event arrives.
type RoomStateEvent struct {
	State *State `json:"state"`
}

type PlayerJoinedEvent struct {
	Player Player `json:"player"`
}

type PlayerLeftEvent struct {
	PlayerID string `json:"playerId"`
}

type PlayerReadyEvent struct {
	PlayerID string `json:"playerId"`
}

type CountdownEvent struct {
	Seconds int `json:"seconds"`
}

type GameStartEvent struct{}

type ScoreUpdateEvent struct {
	PlayerID string  `json:"playerId"`
	Score    int     `json:"score"`
	Accuracy float64 `json:"accuracy"`
}

type PlayerFinishedEvent struct {
	PlayerID string  `json:"playerId"`
	Score    int     `json:"score"`
	Accuracy float64 `json:"accuracy"`
	Time     int64   `json:"time"`
}

type GameOverEvent struct {
	Rankings []RankEntry `json:"rankings"`
}

// ErrorEvent is unicast to the sender of a rejected intent.
type ErrorEvent struct {
	Reason  Reason `json:"reason"`
	Message string `json:"message"`
}

func (RoomStateEvent) eventType() string      { return TypeRoomState }
func (PlayerJoinedEvent) eventType() string   { return TypePlayerJoined }
func (PlayerLeftEvent) eventType() string     { return TypePlayerLeft }
func (PlayerReadyEvent) eventType() string    { return TypePlayerReady }
func (CountdownEvent) eventType() string      { return TypeCountdown }
func (GameStartEvent) eventType() string      { return TypeGameStart }
func (ScoreUpdateEvent) eventType() string    { return TypeScoreUpdate }
func (PlayerFinishedEvent) eventType() string { return TypePlayerFinished }
func (GameOverEvent) eventType() string       { return TypeGameOver }
func (ErrorEvent) eventType() string          { return TypeError }

// EncodeEvent frames an event for the wire.
func EncodeEvent(ev Event) ([]byte, error) {
	payload, err := json.Marshal(ev)
	if err != nil {
		return nil, fmt.Errorf("encoding %s payload: %w", ev.eventType(), err)
	}
	return json.Marshal(wireMessage{Type: ev.eventType(), Data: payload})
}

// DecodeEvent parses one outbound frame; the client session controller uses
// it to fold the event stream into its read-model.
func DecodeEvent(frame []byte) (Event, error) {
	var msg wireMessage
	if err := json.Unmarshal(frame, &msg); err != nil {
		return nil, fmt.Errorf("decoding event envelope: %w", err)
	}

	switch msg.Type {
	case TypeRoomState:
		var ev RoomStateEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			return nil, fmt.Errorf("decoding %s payload: %w", msg.Type, err)
		}
		return ev, nil
	case TypePlayerJoined:
		var ev PlayerJoinedEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			return nil, fmt.Errorf("decoding %s payload: %w", msg.Type, err)
		}
		return ev, nil
	case TypePlayerLeft:
		var ev PlayerLeftEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			return nil, fmt.Errorf("decoding %s payload: %w", msg.Type, err)
		}
		return ev, nil
	case TypePlayerReady:
		var ev PlayerReadyEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			return nil, fmt.Errorf("decoding %s payload: %w", msg.Type, err)
		}
		return ev, nil
	case TypeCountdown:
		var ev CountdownEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			return nil, fmt.Errorf("decoding %s payload: %w", msg.Type, err)
		}
		return ev, nil
	case TypeGameStart:
		return GameStartEvent{}, nil
	case TypeScoreUpdate:
		var ev ScoreUpdateEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			return nil, fmt.Errorf("decoding %s payload: %w", msg.Type, err)
		}
		return ev, nil
	case TypePlayerFinished:
		var ev PlayerFinishedEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			return nil, fmt.Errorf("decoding %s payload: %w", msg.Type, err)
		}
		return ev, nil
	case TypeGameOver:
		var ev GameOverEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			return nil, fmt.Errorf("decoding %s payload: %w", msg.Type, err)
		}
		return ev, nil
	case TypeError:
		var ev ErrorEvent
		if err := json.Unmarshal(msg.Data, &ev); err != nil {
			return nil, fmt.Errorf("decoding %s payload: %w", msg.Type, err)
		}
		return ev, nil
	default:
		return nil, fmt.Errorf("unknown event type %q", msg.Type)
	}
}
