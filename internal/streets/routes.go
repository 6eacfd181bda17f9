package streets

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/portedaporte/tractage-backend/internal/stream"
)

func SetupRoutes(hub *stream.Hub) http.Handler {
	events = hub

	r := chi.NewRouter()

	r.Get("/", ListStreetsHandler)
	r.Post("/", CreateStreetHandler)
	r.Get("/{id}", GetStreetHandler)

	r.Post("/segments", CreateSegmentHandler)
	r.Patch("/segments/{id}", UpdateSegmentHandler)
	r.Delete("/segments/{id}", DeleteSegmentHandler)

	return r
}
