package cutter

import (
	"context"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/portedaporte/tractage-backend/internal/db"
	"github.com/portedaporte/tractage-backend/internal/streets"
)

// GormStore reads street geometry and inserts segments through the shared
// database handle.
type GormStore struct{}

func (GormStore) StreetGeometry(ctx context.Context, streetID uuid.UUID) (orb.Geometry, error) {
	var street streets.Street
	if err := db.DB.WithContext(ctx).First(&street, "id = ?", streetID).Error; err != nil {
		return nil, err
	}
	return street.Geometry.Geometry, nil
}

func (GormStore) CountSegments(ctx context.Context, streetID uuid.UUID) (int64, error) {
	var count int64
	err := db.DB.WithContext(ctx).
		Model(&streets.Segment{}).
		Where("street_id = ?", streetID).
		Count(&count).Error
	return count, err
}

func (GormStore) CreateSegment(ctx context.Context, segment *streets.Segment) error {
	return db.DB.WithContext(ctx).Create(segment).Error
}
