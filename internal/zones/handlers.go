package zones

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/portedaporte/tractage-backend/internal/db"
	"github.com/portedaporte/tractage-backend/internal/stream"
	"github.com/portedaporte/tractage-backend/internal/streets"
	"gorm.io/gorm"
)

var validate = validator.New()

var events *stream.Hub

func broadcast() {
	if events != nil {
		events.Broadcast(stream.EventZonesChanged, nil)
	}
}

func ListZonesHandler(w http.ResponseWriter, r *http.Request) {
	var allZones []Zone
	if err := db.DB.Order("name ASC").Find(&allZones).Error; err != nil {
		http.Error(w, "Failed to fetch zones: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(allZones)
}

type zoneInput struct {
	Name        string `json:"name" validate:"required"`
	Color       string `json:"color" validate:"required,hexcolor"`
	Description string `json:"description"`
}

func CreateZoneHandler(w http.ResponseWriter, r *http.Request) {
	var input zoneInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(input); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	zone := Zone{
		ID:          uuid.New(),
		Name:        input.Name,
		Color:       input.Color,
		Description: input.Description,
	}
	if err := db.DB.Create(&zone).Error; err != nil {
		http.Error(w, "Failed to create zone: "+err.Error(), http.StatusInternalServerError)
		return
	}

	broadcast()
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(zone)
}

func UpdateZoneHandler(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid zone ID", http.StatusBadRequest)
		return
	}

	var input zoneInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(input); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	var zone Zone
	if err := db.DB.First(&zone, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, "Zone not found", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to fetch zone: "+err.Error(), http.StatusInternalServerError)
		return
	}

	updates := map[string]interface{}{
		"name":        input.Name,
		"color":       input.Color,
		"description": input.Description,
	}
	if err := db.DB.Model(&zone).Updates(updates).Error; err != nil {
		http.Error(w, "Failed to update zone: "+err.Error(), http.StatusInternalServerError)
		return
	}

	broadcast()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(zone)
}

// DeleteZoneHandler refuses to delete a zone that still has segment members,
// directly or through campaign assignments.
func DeleteZoneHandler(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid zone ID", http.StatusBadRequest)
		return
	}

	var directCount int64
	if err := db.DB.Model(&streets.Segment{}).Where("zone_id = ?", id).Count(&directCount).Error; err != nil {
		http.Error(w, "Failed to count zone members: "+err.Error(), http.StatusInternalServerError)
		return
	}
	var campaignCount int64
	if err := db.DB.Model(&CampaignSegment{}).Where("zone_id = ?", id).Count(&campaignCount).Error; err != nil {
		http.Error(w, "Failed to count campaign members: "+err.Error(), http.StatusInternalServerError)
		return
	}
	if directCount+campaignCount > 0 {
		http.Error(w, "Zone still has assigned segments", http.StatusConflict)
		return
	}

	result := db.DB.Delete(&Zone{}, "id = ?", id)
	if result.Error != nil {
		http.Error(w, "Failed to delete zone: "+result.Error.Error(), http.StatusInternalServerError)
		return
	}
	if result.RowsAffected == 0 {
		http.Error(w, "Zone not found", http.StatusNotFound)
		return
	}

	broadcast()
	w.WriteHeader(http.StatusNoContent)
}

func ListCampaignsHandler(w http.ResponseWriter, r *http.Request) {
	var campaigns []Campaign
	if err := db.DB.Order("created_at DESC").Find(&campaigns).Error; err != nil {
		http.Error(w, "Failed to fetch campaigns: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(campaigns)
}

type campaignInput struct {
	Name     string     `json:"name" validate:"required"`
	StartsAt *time.Time `json:"starts_at"`
	EndsAt   *time.Time `json:"ends_at"`
}

func CreateCampaignHandler(w http.ResponseWriter, r *http.Request) {
	var input campaignInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if err := validate.Struct(input); err != nil {
		http.Error(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return
	}

	campaign := Campaign{
		ID:       uuid.New(),
		Name:     input.Name,
		StartsAt: input.StartsAt,
		EndsAt:   input.EndsAt,
	}
	if err := db.DB.Create(&campaign).Error; err != nil {
		http.Error(w, "Failed to create campaign: "+err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(campaign)
}

// MarkSegmentDoneHandler lets a volunteer mark an assigned campaign segment
// as covered.
func MarkSegmentDoneHandler(w http.ResponseWriter, r *http.Request) {
	campaignID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "Invalid campaign ID", http.StatusBadRequest)
		return
	}
	segmentID, err := uuid.Parse(chi.URLParam(r, "segmentID"))
	if err != nil {
		http.Error(w, "Invalid segment ID", http.StatusBadRequest)
		return
	}

	var input struct {
		Done bool `json:"done"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var row CampaignSegment
	if err := db.DB.First(&row, "campaign_id = ? AND segment_id = ?", campaignID, segmentID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.Error(w, "Segment is not assigned in this campaign", http.StatusNotFound)
			return
		}
		http.Error(w, "Failed to fetch assignment: "+err.Error(), http.StatusInternalServerError)
		return
	}

	updates := map[string]interface{}{"done": input.Done}
	if input.Done {
		now := time.Now()
		updates["done_at"] = &now
	} else {
		updates["done_at"] = nil
	}
	if err := db.DB.Model(&row).Updates(updates).Error; err != nil {
		http.Error(w, "Failed to update assignment: "+err.Error(), http.StatusInternalServerError)
		return
	}

	broadcast()
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(row)
}

// ColorLookup returns the zone ID → display color table the map renderer
// colors segments with.
func ColorLookup() (map[uuid.UUID]string, error) {
	var allZones []Zone
	if err := db.DB.Find(&allZones).Error; err != nil {
		return nil, err
	}
	colors := make(map[uuid.UUID]string, len(allZones))
	for _, zone := range allZones {
		colors[zone.ID] = zone.Color
	}
	return colors, nil
}
