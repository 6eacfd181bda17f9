package streets

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/portedaporte/tractage-backend/internal/db"
	"github.com/portedaporte/tractage-backend/internal/stream"
	"gorm.io/gorm"
)

var validate = validator.New()

// events is set by SetupRoutes so write handlers can invalidate map clients.
var events *stream.Hub

func broadcast(event string) {
	if events != nil {
		events.Broadcast(event, nil)
	}
}

// ListStreetsHandler returns all streets with their nested segments. The
// optional ?q= filter matches street names accent- and case-insensitively.
func ListStreetsHandler(w http.ResponseWriter, r *http.Request) {
	var allStreets []Street
	if err := db.DB.Preload("Segments").Order("name ASC").Find(&allStreets).Error; err != nil {
		http.Error(w, "Failed to fetch streets: "+err.Error(), http.StatusInternalServerError)
		return
	}

	query := r.URL.Query().Get("q")
	if query != "" {
		var filtered []Street
		for _, street := range allStreets {
			if MatchStreet(street, query) {
				filtered = append(filtered, street)
			}
		}
		allStreets = filtered
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(allStreets)
}

// GetStreetHandler returns one street with its segments.
func GetStreetHandler(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid street ID", http.StatusBadRequest)
		return
	}

	var street Street
	if err := db.DB.Preload("Segments").First(&street, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, "Street not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to fetch street: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(street)
}

type createStreetInput struct {
	Name       string   `json:"name" validate:"required"`
	AltNames   []string `json:"alt_names"`
	StreetType string   `json:"street_type" validate:"required"`
	Geometry   Geometry `json:"geometry"`
}

func CreateStreetHandler(w http.ResponseWriter, r *http.Request) {
	var input createStreetInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(input); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}
	if !ValidStreetType(input.StreetType) {
		http.Error(w, "Unknown street type: "+input.StreetType, http.StatusBadRequest)
		return
	}
	if !validLineGeometry(input.Geometry) {
		http.Error(w, "Geometry must be a line with at least 2 points", http.StatusBadRequest)
		return
	}

	street := Street{
		ID:         uuid.New(),
		Name:       input.Name,
		AltNames:   input.AltNames,
		StreetType: input.StreetType,
		Geometry:   input.Geometry,
	}
	if err := db.DB.Create(&street).Error; err != nil {
		http.Error(w, "Failed to create street: "+err.Error(), http.StatusInternalServerError)
		return
	}

	broadcast(stream.EventStreetsReload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(street)
}

type createSegmentInput struct {
	StreetID     uuid.UUID `json:"street_id" validate:"required"`
	NumberStart  *int      `json:"number_start"`
	NumberEnd    *int      `json:"number_end"`
	Label        string    `json:"label"`
	Side         string    `json:"side" validate:"required"`
	BuildingType string    `json:"building_type" validate:"required"`
}

func CreateSegmentHandler(w http.ResponseWriter, r *http.Request) {
	var input createSegmentInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(input); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}
	if !ValidSide(input.Side) {
		http.Error(w, "Unknown side: "+input.Side, http.StatusBadRequest)
		return
	}
	if !ValidBuildingType(input.BuildingType) {
		http.Error(w, "Unknown building type: "+input.BuildingType, http.StatusBadRequest)
		return
	}
	// A segment is addressed by a number range or by a label.
	if (input.NumberStart == nil || input.NumberEnd == nil) && input.Label == "" {
		http.Error(w, "Segment needs a number range or a label", http.StatusBadRequest)
		return
	}

	var street Street
	if err := db.DB.First(&street, "id = ?", input.StreetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, "Street not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to fetch street: "+err.Error(), http.StatusInternalServerError)
		return
	}

	segment := Segment{
		ID:           uuid.New(),
		StreetID:     input.StreetID,
		NumberStart:  input.NumberStart,
		NumberEnd:    input.NumberEnd,
		Label:        input.Label,
		Side:         input.Side,
		BuildingType: input.BuildingType,
	}
	if err := db.DB.Create(&segment).Error; err != nil {
		http.Error(w, "Failed to create segment: "+err.Error(), http.StatusInternalServerError)
		return
	}

	broadcast(stream.EventStreetsReload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(segment)
}

type updateSegmentInput struct {
	NumberStart  *int       `json:"number_start"`
	NumberEnd    *int       `json:"number_end"`
	Label        *string    `json:"label"`
	Side         *string    `json:"side"`
	BuildingType *string    `json:"building_type"`
	ZoneID       *uuid.UUID `json:"zone_id"`
	ClearZone    bool       `json:"clear_zone"`
}

// UpdateSegmentHandler patches segment fields. Only the fields present in
// the body are written; zone clearing is an explicit flag so a missing
// zone_id never silently unassigns.
func UpdateSegmentHandler(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid segment ID", http.StatusBadRequest)
		return
	}

	var input updateSegmentInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var segment Segment
	if err := db.DB.First(&segment, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, "Segment not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to fetch segment: "+err.Error(), http.StatusInternalServerError)
		return
	}

	updates := map[string]interface{}{}
	if input.NumberStart != nil {
		updates["number_start"] = *input.NumberStart
	}
	if input.NumberEnd != nil {
		updates["number_end"] = *input.NumberEnd
	}
	if input.Label != nil {
		updates["label"] = *input.Label
	}
	if input.Side != nil {
		if !ValidSide(*input.Side) {
			http.Error(w, "Unknown side: "+*input.Side, http.StatusBadRequest)
			return
		}
		updates["side"] = *input.Side
	}
	if input.BuildingType != nil {
		if !ValidBuildingType(*input.BuildingType) {
			http.Error(w, "Unknown building type: "+*input.BuildingType, http.StatusBadRequest)
			return
		}
		updates["building_type"] = *input.BuildingType
	}
	if input.ZoneID != nil {
		updates["zone_id"] = *input.ZoneID
	} else if input.ClearZone {
		updates["zone_id"] = nil
	}
	if len(updates) == 0 {
		http.Error(w, "No fields to update", http.StatusBadRequest)
		return
	}

	if err := db.DB.Model(&segment).Updates(updates).Error; err != nil {
		http.Error(w, "Failed to update segment: "+err.Error(), http.StatusInternalServerError)
		return
	}

	broadcast(stream.EventStreetsReload)
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(segment)
}

func DeleteSegmentHandler(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid segment ID", http.StatusBadRequest)
		return
	}

	result := db.DB.Delete(&Segment{}, "id = ?", id)
	if result.Error != nil {
		http.Error(w, "Failed to delete segment: "+result.Error.Error(), http.StatusInternalServerError)
		return
	}
	if result.RowsAffected == 0 {
		http.Error(w, "Segment not found", http.StatusNotFound)
		return
	}

	broadcast(stream.EventStreetsReload)
	w.WriteHeader(http.StatusNoContent)
}

func validLineGeometry(g Geometry) bool {
	switch geom := g.Geometry.(type) {
	case orb.LineString:
		return len(geom) >= 2
	case orb.MultiLineString:
		total := 0
		for _, way := range geom {
			if len(way) < 2 {
				return false
			}
			total += len(way)
		}
		return total >= 2
	}
	return false
}
