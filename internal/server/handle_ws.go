package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"nhooyr.io/websocket"

	"github.com/neuroplay/arena/internal/room"
)

// handleRoomSocket is the connection session: a stateless adapter bound 1:1
// to one websocket. Inbound frames become coordinator intents, coordinator
// events flow back verbatim, and a dropped transport is an implicit leave.
func handleRoomSocket(logger *slog.Logger, rooms *room.Directory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")
		playerID := r.URL.Query().Get("playerId")
		if playerID == "" {
			writeError(w, http.StatusBadRequest, "playerId query parameter required")
			return
		}

		co, err := rooms.Get(r.Context(), code)
		if room.IsReason(err, room.ReasonRoomNotFound) {
			writeError(w, http.StatusNotFound, "room not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			logger.Error("websocket accept failed", "room", code, "error", err)
			return
		}
		defer conn.CloseNow()

		sess := &session{
			logger:   logger.With("room", code, "player", playerID),
			co:       co,
			playerID: playerID,
			outbound: co.Subscribe(playerID),
		}
		defer co.Unsubscribe(sess.outbound)
		defer co.Leave(playerID)

		ctx, cancel := context.WithCancel(r.Context())
		defer cancel()

		go sess.writePump(ctx, cancel, conn)
		sess.readPump(ctx, conn)
	}
}

// session bridges one websocket to one coordinator. The outbound channel is
// the only write path to the socket: broadcasts arrive from the
// coordinator, unicasts (join-ack snapshot, error events) are queued by the
// session itself, so a single goroutine owns all writes.
type session struct {
	logger   *slog.Logger
	co       *room.Coordinator
	playerID string
	outbound chan []byte
}

func (s *session) writePump(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn) {
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return
		case frame := <-s.outbound:
			if err := conn.Write(ctx, websocket.MessageText, frame); err != nil {
				s.logger.Debug("websocket write failed", "error", err)
				return
			}
		}
	}
}

func (s *session) readPump(ctx context.Context, conn *websocket.Conn) {
	for {
		_, frame, err := conn.Read(ctx)
		if err != nil {
			s.logger.Debug("websocket read ended", "error", err)
			return
		}

		intent, err := room.DecodeIntent(frame)
		if err != nil {
			// Malformed frames are dropped, not surfaced to the sender.
			s.logger.Warn("dropping malformed frame", "error", err)
			continue
		}
		s.dispatch(intent)
	}
}

func (s *session) dispatch(intent room.Intent) {
	switch in := intent.(type) {
	case room.JoinIntent:
		if err := s.co.Join(s.playerID, in.Name); err != nil {
			s.sendError(err)
			return
		}
		// Join-ack: a fresh snapshot on the caller's own stream closes the
		// race between the broadcastable join event and this connection's
		// subscription.
		s.send(room.RoomStateEvent{State: s.co.Snapshot()})
	case room.ReadyIntent:
		s.co.Ready(s.playerID)
	case room.StartIntent:
		if err := s.co.Start(s.playerID); err != nil {
			s.sendError(err)
		}
	case room.ScoreUpdateIntent:
		if err := s.co.UpdateScore(s.playerID, in.Score, in.Accuracy); err != nil {
			s.sendError(err)
		}
	case room.GameCompleteIntent:
		if err := s.co.FinishGame(s.playerID, in.Score, in.Accuracy); err != nil {
			s.sendError(err)
		}
	case room.LeaveIntent:
		s.co.Leave(s.playerID)
	}
}

// send queues a unicast event onto this session's stream.
func (s *session) send(ev room.Event) {
	frame, err := room.EncodeEvent(ev)
	if err != nil {
		s.logger.Error("encoding event", "error", err)
		return
	}
	select {
	case s.outbound <- frame:
	default:
		s.logger.Warn("outbound buffer full, dropping unicast")
	}
}

func (s *session) sendError(err error) {
	var re *room.Error
	if !errors.As(err, &re) {
		s.logger.Error("intent failed", "error", err)
		return
	}
	s.send(room.ErrorEvent{Reason: re.Reason, Message: re.Message})
}
