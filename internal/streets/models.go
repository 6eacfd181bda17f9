package streets

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

// Street types match the categories of the imported street registry.
const (
	TypeStreet    = "street"
	TypeAvenue    = "avenue"
	TypeImpasse   = "impasse"
	TypeBoulevard = "boulevard"
	TypePlace     = "place"
	TypeChemin    = "chemin"
	TypeRoute     = "route"
)

const (
	SideEven = "even"
	SideOdd  = "odd"
	SideBoth = "both"
)

const (
	BuildingHouses    = "houses"
	BuildingBuildings = "buildings"
	BuildingMixed     = "mixed"
)

type Street struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name       string    `json:"name"`
	// AltNames holds historical or colloquial spellings the search should
	// also match ("Rue du Gal de Gaulle").
	AltNames   pq.StringArray `gorm:"type:text[]" json:"alt_names"`
	StreetType string         `gorm:"default:street" json:"street_type"`
	Geometry   Geometry       `gorm:"type:jsonb" json:"geometry"`
	Segments   []Segment      `gorm:"foreignKey:StreetID" json:"segments"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
}

// Segment is the unit of assignment: a house-number range or a custom-cut
// span of a street, on one or both sides. Segments created by the cut editor
// carry a label and a two-point custom geometry instead of a number range.
type Segment struct {
	ID             uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	StreetID       uuid.UUID  `gorm:"type:uuid;index" json:"street_id"`
	NumberStart    *int       `json:"number_start"`
	NumberEnd      *int       `json:"number_end"`
	Label          string     `json:"label"`
	Side           string     `gorm:"default:both" json:"side"`
	BuildingType   string     `gorm:"default:mixed" json:"building_type"`
	CustomGeometry *Geometry  `gorm:"type:jsonb" json:"custom_geometry,omitempty"`
	ZoneID         *uuid.UUID `gorm:"type:uuid;index" json:"zone_id"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

func (Street) TableName() string {
	return "tractage.streets"
}

func (Segment) TableName() string {
	return "tractage.segments"
}

// ValidSide reports whether s is a known side-of-street value.
func ValidSide(s string) bool {
	return s == SideEven || s == SideOdd || s == SideBoth
}

// ValidBuildingType reports whether s is a known building-type value.
func ValidBuildingType(s string) bool {
	return s == BuildingHouses || s == BuildingBuildings || s == BuildingMixed
}

// ValidStreetType reports whether s is a known street-type value.
func ValidStreetType(s string) bool {
	switch s {
	case TypeStreet, TypeAvenue, TypeImpasse, TypeBoulevard, TypePlace, TypeChemin, TypeRoute:
		return true
	}
	return false
}
