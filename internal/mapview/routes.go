package mapview

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/portedaporte/tractage-backend/internal/cutter"
	"github.com/portedaporte/tractage-backend/internal/observability"
	"github.com/portedaporte/tractage-backend/internal/selection"
)

func SetupRoutes(v *View, cutHub *cutter.Hub, sel *selection.Controller, collector *observability.Collector) http.Handler {
	view = v
	editorHub = cutHub
	selected = sel
	metrics = collector

	r := chi.NewRouter()

	r.Get("/render", RenderHandler)
	r.Post("/click", ClickHandler)

	return r
}
