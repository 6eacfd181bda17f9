package mapview

import (
	"encoding/json"
	"net/http"

	"github.com/google/uuid"
	"github.com/portedaporte/tractage-backend/internal/cutter"
	"github.com/portedaporte/tractage-backend/internal/db"
	"github.com/portedaporte/tractage-backend/internal/geo"
	"github.com/portedaporte/tractage-backend/internal/observability"
	"github.com/portedaporte/tractage-backend/internal/selection"
	"github.com/portedaporte/tractage-backend/internal/streets"
	"github.com/portedaporte/tractage-backend/internal/utils"
	"github.com/portedaporte/tractage-backend/internal/zones"
)

var (
	view      *View
	editorHub *cutter.Hub
	selected  *selection.Controller
	metrics   *observability.Collector
)

func sessionID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := utils.GetSessionIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Missing session", http.StatusUnauthorized)
		return "", false
	}
	return id, true
}

// RenderHandler loads current state and computes a fresh render plan for the
// session: all streets with segments, the zone color table, and the
// session's selection.
func RenderHandler(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionID(w, r)
	if !ok {
		return
	}

	var allStreets []streets.Street
	if err := db.DB.WithContext(r.Context()).Preload("Segments").Find(&allStreets).Error; err != nil {
		http.Error(w, "Failed to fetch streets: "+err.Error(), http.StatusInternalServerError)
		return
	}

	zoneColors, err := zones.ColorLookup()
	if err != nil {
		http.Error(w, "Failed to fetch zones: "+err.Error(), http.StatusInternalServerError)
		return
	}

	selectedIDs := make(map[uuid.UUID]bool)
	for _, id := range selected.Current(session) {
		selectedIDs[id] = true
	}

	plan := view.Render(Input{
		Streets:    allStreets,
		ZoneColors: zoneColors,
		Selected:   selectedIDs,
	})
	metrics.IncRenders()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(plan)
}

type clickInput struct {
	StreetID  uuid.UUID  `json:"street_id"`
	SegmentID *uuid.UUID `json:"segment_id"`
	At        geo.LatLng `json:"at"`
}

// ClickHandler routes a map click to exactly one action. The edit-mode flag
// is read here, at click time, from the cut editor hub — never from state
// captured when the line was drawn.
func ClickHandler(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionID(w, r)
	if !ok {
		return
	}

	var input clickInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if input.StreetID == uuid.Nil {
		http.Error(w, "Missing street_id", http.StatusBadRequest)
		return
	}

	w.Header().Set("Content-Type", "application/json")

	if _, editing := editorHub.EditingStreet(session); editing {
		editor, err := editorHub.PlaceMarker(session, input.At)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"action": "marker_placed",
			"editor": editor,
		})
		return
	}

	json.NewEncoder(w).Encode(map[string]interface{}{
		"action":     "open_street",
		"street_id":  input.StreetID,
		"segment_id": input.SegmentID,
	})
}
