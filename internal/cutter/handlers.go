package cutter

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/portedaporte/tractage-backend/internal/geo"
	"github.com/portedaporte/tractage-backend/internal/observability"
	"github.com/portedaporte/tractage-backend/internal/stream"
	"github.com/portedaporte/tractage-backend/internal/utils"
	"gorm.io/gorm"
)

var (
	hub     *Hub
	events  *stream.Hub
	metrics *observability.Collector
)

func sessionID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := utils.GetSessionIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Missing session", http.StatusUnauthorized)
		return "", false
	}
	return id, true
}

func writeEditor(w http.ResponseWriter, e Editor) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(e)
}

// editorError maps editor failures onto the error taxonomy: state and input
// problems are validation errors, anything else is a persistence failure.
func editorError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotEditing),
		errors.Is(err, ErrNotReviewing),
		errors.Is(err, ErrNoMarkers),
		errors.Is(err, ErrEmptyLabel),
		errors.Is(err, ErrMarkerIndex),
		errors.Is(err, geo.ErrTooFewPoints):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, gorm.ErrRecordNotFound):
		http.Error(w, "Street not found", http.StatusNotFound)
	default:
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func StateHandler(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionID(w, r)
	if !ok {
		return
	}
	writeEditor(w, hub.Snapshot(session))
}

func EnterHandler(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionID(w, r)
	if !ok {
		return
	}

	var input struct {
		StreetID uuid.UUID `json:"street_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if input.StreetID == uuid.Nil {
		http.Error(w, "Missing street_id", http.StatusBadRequest)
		return
	}

	writeEditor(w, hub.Enter(session, input.StreetID))
}

func PlaceMarkerHandler(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionID(w, r)
	if !ok {
		return
	}

	var input struct {
		At geo.LatLng `json:"at"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	e, err := hub.PlaceMarker(session, input.At)
	if err != nil {
		editorError(w, err)
		return
	}
	writeEditor(w, e)
}

func markerIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		http.Error(w, "Invalid marker index", http.StatusBadRequest)
		return 0, false
	}
	return index, true
}

func MoveMarkerHandler(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionID(w, r)
	if !ok {
		return
	}
	index, ok := markerIndex(w, r)
	if !ok {
		return
	}

	var input struct {
		At geo.LatLng `json:"at"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	e, err := hub.MoveMarker(session, index, input.At)
	if err != nil {
		editorError(w, err)
		return
	}
	writeEditor(w, e)
}

func RemoveMarkerHandler(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionID(w, r)
	if !ok {
		return
	}
	index, ok := markerIndex(w, r)
	if !ok {
		return
	}

	e, err := hub.RemoveMarker(session, index)
	if err != nil {
		editorError(w, err)
		return
	}
	writeEditor(w, e)
}

func SaveHandler(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionID(w, r)
	if !ok {
		return
	}

	e, err := hub.Save(r.Context(), session)
	if err != nil {
		editorError(w, err)
		return
	}
	writeEditor(w, e)
}

func RenameHandler(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionID(w, r)
	if !ok {
		return
	}
	index, ok := markerIndex(w, r)
	if !ok {
		return
	}

	var input struct {
		Label string `json:"label"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	e, err := hub.Rename(session, index, input.Label)
	if err != nil {
		editorError(w, err)
		return
	}
	writeEditor(w, e)
}

func CommitHandler(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionID(w, r)
	if !ok {
		return
	}

	result, err := hub.Commit(r.Context(), session)
	metrics.AddCutsCommitted(len(result.Created))
	if err != nil {
		if len(result.Created) > 0 {
			// Partial commit: surface the error together with what was
			// already persisted; those rows stay.
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"error":   err.Error(),
				"created": result.Created,
			})
			return
		}
		editorError(w, err)
		return
	}

	if events != nil {
		events.Broadcast(stream.EventStreetsReload, nil)
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)
}

func CancelHandler(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionID(w, r)
	if !ok {
		return
	}
	writeEditor(w, hub.Cancel(session))
}
