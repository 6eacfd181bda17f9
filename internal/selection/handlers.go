package selection

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/portedaporte/tractage-backend/internal/observability"
	"github.com/portedaporte/tractage-backend/internal/stream"
	"github.com/portedaporte/tractage-backend/internal/utils"
)

var (
	controller = NewController()
	store      Store = GormStore{}
	events     *stream.Hub
	metrics    *observability.Collector
)

func sessionID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id, ok := utils.GetSessionIDFromContext(r.Context())
	if !ok {
		http.Error(w, "Missing session", http.StatusUnauthorized)
		return "", false
	}
	return id, true
}

func notifySelection() {
	if events != nil {
		events.Broadcast(stream.EventSelectionChanged, nil)
	}
}

func writeIDs(w http.ResponseWriter, ids []uuid.UUID) {
	if ids == nil {
		ids = []uuid.UUID{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"selected": ids})
}

// parseZoneChoice turns the wire value into a target zone: "none" clears,
// anything else must be a zone UUID. An empty value means the operator never
// picked a target, which is a validation error for assignment.
func parseZoneChoice(raw string) (*uuid.UUID, error) {
	if raw == "" {
		return nil, errors.New("no target zone chosen")
	}
	if raw == "none" {
		return nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid zone: %w", err)
	}
	return &id, nil
}

func CurrentHandler(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionID(w, r)
	if !ok {
		return
	}
	writeIDs(w, controller.Current(session))
}

func ToggleHandler(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionID(w, r)
	if !ok {
		return
	}

	var input struct {
		ID    uuid.UUID `json:"id"`
		Multi bool      `json:"multi"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if input.ID == uuid.Nil {
		http.Error(w, "Missing id", http.StatusBadRequest)
		return
	}

	ids := controller.Toggle(session, input.ID, input.Multi)
	notifySelection()
	writeIDs(w, ids)
}

// SelectAllHandler replaces the selection with the identifiers the client
// currently has visible (it owns the filter state).
func SelectAllHandler(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionID(w, r)
	if !ok {
		return
	}

	var input struct {
		IDs []uuid.UUID `json:"ids"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	ids := controller.Replace(session, input.IDs)
	notifySelection()
	writeIDs(w, ids)
}

func DeselectAllHandler(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionID(w, r)
	if !ok {
		return
	}

	controller.DeselectAll(session)
	notifySelection()
	writeIDs(w, nil)
}

// SelectByZoneHandler sets the selection to exactly the segments currently
// assigned to the given zone, or the unassigned ones for "none".
func SelectByZoneHandler(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionID(w, r)
	if !ok {
		return
	}

	var input struct {
		Zone string `json:"zone"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	zoneID, err := parseZoneChoice(input.Zone)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	segmentIDs, err := SegmentIDsByZone(r.Context(), zoneID)
	if err != nil {
		http.Error(w, "Failed to fetch segments: "+err.Error(), http.StatusInternalServerError)
		return
	}

	ids := controller.Replace(session, segmentIDs)
	notifySelection()
	writeIDs(w, ids)
}

// AssignHandler issues one zone write per selected segment. There is no
// multi-row transaction: a mid-loop failure leaves the earlier writes
// applied, and the response says which ones.
func AssignHandler(w http.ResponseWriter, r *http.Request) {
	session, ok := sessionID(w, r)
	if !ok {
		return
	}

	var input struct {
		Zone       string     `json:"zone"`
		CampaignID *uuid.UUID `json:"campaign_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	zoneID, err := parseZoneChoice(input.Zone)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	result, err := controller.Assign(r.Context(), session, store, zoneID, input.CampaignID)
	metrics.AddSegmentsAssigned(len(result.Assigned))
	if err != nil {
		if errors.Is(err, ErrEmptySelection) {
			http.Error(w, "Selection is empty", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"error":    err.Error(),
			"assigned": result.Assigned,
			"failed":   result.Failed,
		})
		return
	}

	// Successful bulk assign: selection is cleared and clients re-fetch.
	notifySelection()
	if events != nil {
		events.Broadcast(stream.EventStreetsReload, nil)
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"assigned": result.Assigned})
}
