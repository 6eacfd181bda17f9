package selection

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/portedaporte/tractage-backend/internal/observability"
	"github.com/portedaporte/tractage-backend/internal/stream"
)

func SetupRoutes(hub *stream.Hub, collector *observability.Collector) http.Handler {
	events = hub
	metrics = collector

	r := chi.NewRouter()

	r.Get("/", CurrentHandler)
	r.Post("/toggle", ToggleHandler)
	r.Post("/all", SelectAllHandler)
	r.Post("/none", DeselectAllHandler)
	r.Post("/by-zone", SelectByZoneHandler)
	r.Post("/assign", AssignHandler)

	return r
}

// SharedController exposes the selection state to the map renderer.
func SharedController() *Controller {
	return controller
}
