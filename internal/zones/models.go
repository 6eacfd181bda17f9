package zones

import (
	"time"

	"github.com/google/uuid"
)

// Zone is a named, colored district volunteers get assigned to.
type Zone struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `json:"name"`
	Color       string    `json:"color"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// Campaign is a time-boxed leafleting run.
type Campaign struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Name      string     `json:"name"`
	StartsAt  *time.Time `json:"starts_at"`
	EndsAt    *time.Time `json:"ends_at"`
	CreatedAt time.Time  `json:"created_at"`
}

// CampaignSegment assigns a segment to a zone for one campaign run, without
// touching the segment's direct zone reference. Done marks the volunteer's
// completion of that segment.
type CampaignSegment struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CampaignID uuid.UUID `gorm:"type:uuid;index:idx_campaign_segment,unique" json:"campaign_id"`
	SegmentID  uuid.UUID `gorm:"type:uuid;index:idx_campaign_segment,unique" json:"segment_id"`
	ZoneID     uuid.UUID `gorm:"type:uuid;index" json:"zone_id"`
	Done       bool      `gorm:"default:false" json:"done"`
	DoneAt     *time.Time `json:"done_at"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func (Zone) TableName() string {
	return "tractage.zones"
}

func (Campaign) TableName() string {
	return "tractage.campaigns"
}

func (CampaignSegment) TableName() string {
	return "tractage.campaign_segments"
}
