package selection

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/portedaporte/tractage-backend/internal/db"
	"github.com/portedaporte/tractage-backend/internal/streets"
	"github.com/portedaporte/tractage-backend/internal/zones"
	"gorm.io/gorm/clause"
)

// GormStore writes assignments through the shared database handle.
type GormStore struct{}

func (GormStore) AssignZone(ctx context.Context, segmentID uuid.UUID, zoneID *uuid.UUID) error {
	result := db.DB.WithContext(ctx).
		Model(&streets.Segment{}).
		Where("id = ?", segmentID).
		Update("zone_id", zoneID)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("segment %s not found", segmentID)
	}
	return nil
}

func (GormStore) AssignCampaignZone(ctx context.Context, campaignID, segmentID uuid.UUID, zoneID *uuid.UUID) error {
	tx := db.DB.WithContext(ctx)

	// Clearing an assignment removes the join row entirely.
	if zoneID == nil {
		return tx.Delete(&zones.CampaignSegment{},
			"campaign_id = ? AND segment_id = ?", campaignID, segmentID).Error
	}

	row := zones.CampaignSegment{
		ID:         uuid.New(),
		CampaignID: campaignID,
		SegmentID:  segmentID,
		ZoneID:     *zoneID,
	}
	return tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "campaign_id"}, {Name: "segment_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"zone_id", "updated_at"}),
	}).Create(&row).Error
}

// SegmentIDsByZone returns the identifiers currently assigned to zoneID, or
// the unassigned ones when zoneID is nil.
func SegmentIDsByZone(ctx context.Context, zoneID *uuid.UUID) ([]uuid.UUID, error) {
	query := db.DB.WithContext(ctx).Model(&streets.Segment{})
	if zoneID == nil {
		query = query.Where("zone_id IS NULL")
	} else {
		query = query.Where("zone_id = ?", *zoneID)
	}

	var ids []uuid.UUID
	if err := query.Pluck("id", &ids).Error; err != nil {
		return nil, err
	}
	return ids, nil
}
