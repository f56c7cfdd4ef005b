package server

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/neuroplay/arena/internal/room"
)

// CreateRoomRequest is the privileged create call. The room code is chosen
// by the caller (the web layer generates and displays it) and must already
// have the canonical shape.
type CreateRoomRequest struct {
	RoomName   string `json:"roomName"`
	RoomCode   string `json:"roomCode"`
	HostID     string `json:"hostId"`
	HostName   string `json:"hostName"`
	GameID     string `json:"gameId"`
	GameName   string `json:"gameName"`
	Difficulty string `json:"difficulty"`
	MaxPlayers int    `json:"maxPlayers"`
}

func handleCreateRoom(rooms *room.Directory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateRoomRequest
		if err := readJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		cfg := room.Config{
			RoomCode:   strings.ToUpper(strings.TrimSpace(req.RoomCode)),
			RoomName:   strings.TrimSpace(req.RoomName),
			HostID:     req.HostID,
			HostName:   strings.TrimSpace(req.HostName),
			GameID:     req.GameID,
			GameName:   req.GameName,
			Difficulty: req.Difficulty,
			MaxPlayers: req.MaxPlayers,
		}

		co, err := rooms.Create(cfg)
		if room.IsReason(err, room.ReasonAlreadyExists) {
			writeError(w, http.StatusConflict, "room code already in use")
			return
		}
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}

		writeJSON(w, http.StatusCreated, co.Snapshot())
	}
}

func handleGetRoom(rooms *room.Directory) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := chi.URLParam(r, "code")

		co, err := rooms.Get(r.Context(), code)
		if room.IsReason(err, room.ReasonRoomNotFound) {
			writeError(w, http.StatusNotFound, "room not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}

		writeJSON(w, http.StatusOK, co.Snapshot())
	}
}
