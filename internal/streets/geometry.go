package streets

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Geometry stores line geometry as a GeoJSON jsonb column. Streets hold a
// LineString, or a MultiLineString when the imported way has gaps.
type Geometry struct {
	orb.Geometry
}

func NewGeometry(g orb.Geometry) Geometry {
	return Geometry{Geometry: g}
}

func (Geometry) GormDataType() string {
	return "jsonb"
}

func (g Geometry) Value() (driver.Value, error) {
	if g.Geometry == nil {
		return nil, nil
	}
	data, err := json.Marshal(geojson.NewGeometry(g.Geometry))
	if err != nil {
		return nil, fmt.Errorf("encode geometry: %w", err)
	}
	return data, nil
}

func (g *Geometry) Scan(value interface{}) error {
	var data []byte
	switch v := value.(type) {
	case nil:
		g.Geometry = nil
		return nil
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("unsupported geometry column type %T", value)
	}

	var gj geojson.Geometry
	if err := json.Unmarshal(data, &gj); err != nil {
		return fmt.Errorf("decode geometry: %w", err)
	}
	g.Geometry = gj.Geometry()
	return nil
}

func (g Geometry) MarshalJSON() ([]byte, error) {
	if g.Geometry == nil {
		return []byte("null"), nil
	}
	return json.Marshal(geojson.NewGeometry(g.Geometry))
}

func (g *Geometry) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		g.Geometry = nil
		return nil
	}
	var gj geojson.Geometry
	if err := json.Unmarshal(data, &gj); err != nil {
		return fmt.Errorf("decode geometry: %w", err)
	}
	g.Geometry = gj.Geometry()
	return nil
}
