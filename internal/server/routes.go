package server

import (
	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/swaggest/swgui/v5emb"

	"github.com/neuroplay/arena/internal/room"
)

// Deps carries everything the routes need. Health checkers are keyed by
// dependency name; deployments without redis simply omit the entry.
type Deps struct {
	Rooms  *room.Directory
	Checks map[string]Checker
}

func addRoutes(r chi.Router, logger *slog.Logger, deps Deps) {
	r.Get("/openapi.json", handleOpenAPI())
	r.Mount("/docs", v5emb.New("Arena API", "/openapi.json", "/docs"))
	r.Get("/healthz", handleHealth(logger, deps.Checks))

	r.Route("/api/rooms", func(r chi.Router) {
		r.Post("/", handleCreateRoom(deps.Rooms))
		r.Get("/{code}", handleGetRoom(deps.Rooms))
	})

	r.Get("/ws/rooms/{code}", handleRoomSocket(logger, deps.Rooms))
}
