package zones

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/portedaporte/tractage-backend/internal/stream"
)

func SetupRoutes(hub *stream.Hub) http.Handler {
	events = hub

	r := chi.NewRouter()

	r.Get("/", ListZonesHandler)
	r.Post("/", CreateZoneHandler)
	r.Put("/{id}", UpdateZoneHandler)
	r.Delete("/{id}", DeleteZoneHandler)

	r.Get("/campaigns", ListCampaignsHandler)
	r.Post("/campaigns", CreateCampaignHandler)
	r.Patch("/campaigns/{id}/segments/{segmentID}/done", MarkSegmentDoneHandler)

	return r
}
