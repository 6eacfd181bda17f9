package geo

import (
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb"
)

// LatLng is a coordinate in display order (latitude first), the order map
// clients send and expect. The projection routines in this package work in
// orb's order (longitude first); convert with ToProjectionFrame /
// ToDisplayFrame at the boundary.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// UnmarshalJSON accepts both encodings seen in client payloads and stored
// geometry: a [lat, lng] pair or a {"lat": .., "lng": ..} object.
func (c *LatLng) UnmarshalJSON(data []byte) error {
	var pair []float64
	if err := json.Unmarshal(data, &pair); err == nil {
		if len(pair) != 2 {
			return fmt.Errorf("coordinate pair must have 2 values, got %d", len(pair))
		}
		c.Lat, c.Lng = pair[0], pair[1]
		return nil
	}

	var obj struct {
		Lat *float64 `json:"lat"`
		Lng *float64 `json:"lng"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("coordinate must be a [lat, lng] pair or a lat/lng object: %w", err)
	}
	if obj.Lat == nil || obj.Lng == nil {
		return fmt.Errorf("coordinate object missing lat or lng")
	}
	c.Lat, c.Lng = *obj.Lat, *obj.Lng
	return nil
}

// ToProjectionFrame converts display-order coordinates into an orb.LineString
// in projection order. ToDisplayFrame inverts it exactly for all finite
// inputs; only the component order changes.
func ToProjectionFrame(coords []LatLng) orb.LineString {
	line := make(orb.LineString, len(coords))
	for i, c := range coords {
		line[i] = orb.Point{c.Lng, c.Lat}
	}
	return line
}

// ToDisplayFrame converts a projection-order line back to display order.
func ToDisplayFrame(line orb.LineString) []LatLng {
	coords := make([]LatLng, len(line))
	for i, p := range line {
		coords[i] = LatLng{Lat: p[1], Lng: p[0]}
	}
	return coords
}

// Point returns the coordinate in projection order.
func (c LatLng) Point() orb.Point {
	return orb.Point{c.Lng, c.Lat}
}
