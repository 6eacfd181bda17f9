package cutter

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/portedaporte/tractage-backend/internal/observability"
	"github.com/portedaporte/tractage-backend/internal/stream"
)

func SetupRoutes(editorHub *Hub, eventsHub *stream.Hub, collector *observability.Collector) http.Handler {
	hub = editorHub
	events = eventsHub
	metrics = collector

	r := chi.NewRouter()

	r.Get("/", StateHandler)
	r.Post("/enter", EnterHandler)
	r.Post("/markers", PlaceMarkerHandler)
	r.Patch("/markers/{index}", MoveMarkerHandler)
	r.Delete("/markers/{index}", RemoveMarkerHandler)
	r.Post("/save", SaveHandler)
	r.Patch("/pending/{index}", RenameHandler)
	r.Post("/commit", CommitHandler)
	r.Post("/cancel", CancelHandler)

	return r
}
