package server

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/neuroplay/arena/internal/room"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestRouter(t *testing.T) *chi.Mux {
	t.Helper()
	rooms := room.NewDirectory(testLogger(), room.DirectoryOptions{
		Snapshots:     room.NewMemorySnapshotStore(),
		CountdownTick: 5 * time.Millisecond,
	})
	t.Cleanup(rooms.Close)

	r := chi.NewRouter()
	addRoutes(r, testLogger(), Deps{Rooms: rooms, Checks: map[string]Checker{}})
	return r
}

func createRoomReq(code string, maxPlayers int) CreateRoomRequest {
	return CreateRoomRequest{
		RoomName:   "Focus Duel",
		RoomCode:   code,
		HostID:     "host-1",
		HostName:   "Ada",
		GameID:     "memory-matrix",
		GameName:   "Memory Matrix",
		Difficulty: "hard",
		MaxPlayers: maxPlayers,
	}
}

func postRoom(t *testing.T, r http.Handler, req CreateRoomRequest) *httptest.ResponseRecorder {
	t.Helper()
	body, _ := json.Marshal(req)
	httpReq := httptest.NewRequest(http.MethodPost, "/api/rooms", bytes.NewReader(body))
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httpReq)
	return w
}

func TestCreateRoom(t *testing.T) {
	r := newTestRouter(t)

	w := postRoom(t, r, createRoomReq("BRKN-4521", 4))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}

	var state room.State
	json.NewDecoder(w.Body).Decode(&state)

	if state.RoomCode != "BRKN-4521" {
		t.Errorf("roomCode = %q", state.RoomCode)
	}
	if state.Status != room.StatusWaiting {
		t.Errorf("status = %q, want waiting", state.Status)
	}
	if host, ok := state.Players["host-1"]; !ok || !host.IsReady {
		t.Errorf("host should be seeded ready, got %+v", state.Players)
	}
}

func TestCreateRoomDuplicateCode(t *testing.T) {
	r := newTestRouter(t)

	if w := postRoom(t, r, createRoomReq("BRKN-4521", 2)); w.Code != http.StatusCreated {
		t.Fatalf("first create: %d", w.Code)
	}
	if w := postRoom(t, r, createRoomReq("BRKN-4521", 2)); w.Code != http.StatusConflict {
		t.Fatalf("duplicate create: expected 409, got %d", w.Code)
	}
}

func TestCreateRoomValidation(t *testing.T) {
	r := newTestRouter(t)

	if w := postRoom(t, r, createRoomReq("badcode", 2)); w.Code != http.StatusBadRequest {
		t.Errorf("bad code: expected 400, got %d", w.Code)
	}
	if w := postRoom(t, r, createRoomReq("BRKN-4521", 1)); w.Code != http.StatusBadRequest {
		t.Errorf("maxPlayers=1: expected 400, got %d", w.Code)
	}
	if w := postRoom(t, r, createRoomReq("BRKN-4521", 9)); w.Code != http.StatusBadRequest {
		t.Errorf("maxPlayers=9: expected 400, got %d", w.Code)
	}
}

func TestCreateRoomUppercasesCode(t *testing.T) {
	r := newTestRouter(t)

	w := postRoom(t, r, createRoomReq("brkn-4521", 2))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	var state room.State
	json.NewDecoder(w.Body).Decode(&state)
	if state.RoomCode != "BRKN-4521" {
		t.Errorf("roomCode = %q, want normalized BRKN-4521", state.RoomCode)
	}
}

func TestGetRoom(t *testing.T) {
	r := newTestRouter(t)
	postRoom(t, r, createRoomReq("BRKN-4521", 2))

	req := httptest.NewRequest(http.MethodGet, "/api/rooms/BRKN-4521", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
	var state room.State
	json.NewDecoder(w.Body).Decode(&state)
	if state.RoomName != "Focus Duel" {
		t.Errorf("roomName = %q", state.RoomName)
	}
}

func TestGetRoomNotFound(t *testing.T) {
	r := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/rooms/QQQQ-0001", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}
