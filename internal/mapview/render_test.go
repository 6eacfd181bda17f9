package mapview_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/portedaporte/tractage-backend/internal/config"
	"github.com/portedaporte/tractage-backend/internal/mapview"
	"github.com/portedaporte/tractage-backend/internal/streets"
)

var style = config.DefaultStyle()

func newEngine() *mapview.Engine {
	return mapview.NewEngine(style)
}

func intPtr(v int) *int { return &v }

func testStreet(geom orb.Geometry, segments ...streets.Segment) streets.Street {
	street := streets.Street{
		ID:         uuid.New(),
		Name:       "Rue de Test",
		StreetType: streets.TypeStreet,
		Geometry:   streets.NewGeometry(geom),
	}
	for i := range segments {
		segments[i].StreetID = street.ID
		if segments[i].ID == uuid.Nil {
			segments[i].ID = uuid.New()
		}
	}
	street.Segments = segments
	return street
}

func segment(side string, start, end int, zoneID *uuid.UUID) streets.Segment {
	return streets.Segment{
		ID:           uuid.New(),
		NumberStart:  intPtr(start),
		NumberEnd:    intPtr(end),
		Side:         side,
		BuildingType: streets.BuildingMixed,
		ZoneID:       zoneID,
	}
}

// line is a ~100m west-east street on the equator.
var testLine = orb.LineString{{0, 0}, {0.0005, 0}, {0.001, 0}}

// TestSideSeparationScenario: a street with 2 even segments (one assigned
// Red, one unassigned) and 2 odd segments (one assigned Blue, one
// unassigned) renders as two offset lines, each divided into 2 sub-lines,
// colored {Red, gray} and {Blue, gray}.
func TestSideSeparationScenario(t *testing.T) {
	red := uuid.New()
	blue := uuid.New()
	street := testStreet(testLine,
		segment(streets.SideEven, 2, 10, &red),
		segment(streets.SideEven, 12, 20, nil),
		segment(streets.SideOdd, 1, 9, &blue),
		segment(streets.SideOdd, 11, 19, nil),
	)

	plan := newEngine().Render(mapview.Input{
		Streets:    []streets.Street{street},
		ZoneColors: map[uuid.UUID]string{red: "#ff0000", blue: "#0000ff"},
	})

	if len(plan.Lines) != 4 {
		t.Fatalf("expected 4 lines (2 per side), got %d", len(plan.Lines))
	}
	colors := map[string]int{}
	for _, line := range plan.Lines {
		if line.Strategy != mapview.StrategySideSeparated {
			t.Errorf("expected side_separated strategy, got %s", line.Strategy)
		}
		if line.SegmentID == nil {
			t.Error("expected per-segment lines")
		}
		colors[line.Color]++
	}
	if colors["#ff0000"] != 1 || colors["#0000ff"] != 1 || colors[style.UnassignedColor] != 2 {
		t.Errorf("expected colors {red, blue, 2x gray}, got %v", colors)
	}

	// The two sides must not overlap: even-side latitudes differ from
	// odd-side latitudes.
	evenLat := plan.Lines[0].Coords[0].Lat
	oddLat := plan.Lines[2].Coords[0].Lat
	if evenLat == oddLat {
		t.Error("expected sides offset to opposite latitudes")
	}
}

// TestWholeStreetFallbackScenario: 3 segments all assigned the same zone,
// none selected, none with custom geometry, render as a single line in the
// zone's color.
func TestWholeStreetFallbackScenario(t *testing.T) {
	green := uuid.New()
	street := testStreet(testLine,
		segment(streets.SideBoth, 1, 10, &green),
		segment(streets.SideBoth, 11, 20, &green),
		segment(streets.SideBoth, 21, 30, &green),
	)

	plan := newEngine().Render(mapview.Input{
		Streets:    []streets.Street{street},
		ZoneColors: map[uuid.UUID]string{green: "#00ff00"},
	})

	if len(plan.Lines) != 1 {
		t.Fatalf("expected a single line, got %d", len(plan.Lines))
	}
	line := plan.Lines[0]
	if line.Strategy != mapview.StrategyWholeStreet {
		t.Errorf("expected whole_street strategy, got %s", line.Strategy)
	}
	if line.Color != "#00ff00" {
		t.Errorf("expected zone color, got %s", line.Color)
	}
	if len(line.Coords) != len(testLine) {
		t.Errorf("expected the full street geometry, got %d points", len(line.Coords))
	}
}

// TestSegmentDividedOnDisagreement: segments with different zones on a
// contiguous street draw individually, proportionally sliced.
func TestSegmentDividedOnDisagreement(t *testing.T) {
	red := uuid.New()
	street := testStreet(testLine,
		segment(streets.SideBoth, 1, 10, &red),
		segment(streets.SideBoth, 11, 20, nil),
	)

	plan := newEngine().Render(mapview.Input{
		Streets:    []streets.Street{street},
		ZoneColors: map[uuid.UUID]string{red: "#ff0000"},
	})

	if len(plan.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(plan.Lines))
	}
	for _, line := range plan.Lines {
		if line.Strategy != mapview.StrategySegmentDivided {
			t.Errorf("expected segment_divided strategy, got %s", line.Strategy)
		}
	}
	// Adjacent slices share the middle point.
	if plan.Lines[0].Coords[len(plan.Lines[0].Coords)-1] != plan.Lines[1].Coords[0] {
		t.Error("expected consecutive slices to share their boundary point")
	}
}

// TestSelectionOverridesColor: a selected segment forces segment division
// and gets the selected sentinel style.
func TestSelectionOverridesColor(t *testing.T) {
	green := uuid.New()
	street := testStreet(testLine,
		segment(streets.SideBoth, 1, 10, &green),
		segment(streets.SideBoth, 11, 20, &green),
	)
	selectedID := street.Segments[0].ID

	plan := newEngine().Render(mapview.Input{
		Streets:    []streets.Street{street},
		ZoneColors: map[uuid.UUID]string{green: "#00ff00"},
		Selected:   map[uuid.UUID]bool{selectedID: true},
	})

	if len(plan.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(plan.Lines))
	}
	var found bool
	for _, line := range plan.Lines {
		if line.SegmentID != nil && *line.SegmentID == selectedID {
			found = true
			if line.Color != style.SelectedColor {
				t.Errorf("expected selected color, got %s", line.Color)
			}
			if line.Weight != style.SelectedWeight {
				t.Errorf("expected selected weight, got %v", line.Weight)
			}
			if line.Opacity != style.SelectedOpacity {
				t.Errorf("expected full opacity, got %v", line.Opacity)
			}
		} else if line.Color == style.SelectedColor {
			t.Error("unselected segment got the selected color")
		}
	}
	if !found {
		t.Fatal("selected segment line not rendered")
	}
}

// TestCustomGeometryPrecedence: a segment's custom geometry overrides the
// proportional slice.
func TestCustomGeometryPrecedence(t *testing.T) {
	custom := orb.LineString{{0.0002, 0}, {0.0004, 0}}
	seg1 := segment(streets.SideBoth, 1, 10, nil)
	seg1.CustomGeometry = &streets.Geometry{Geometry: custom}
	seg2 := segment(streets.SideBoth, 11, 20, nil)
	street := testStreet(testLine, seg1, seg2)

	plan := newEngine().Render(mapview.Input{
		Streets: []streets.Street{street},
	})

	if len(plan.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(plan.Lines))
	}
	var customLine *mapview.Line
	for i := range plan.Lines {
		if plan.Lines[i].SegmentID != nil && *plan.Lines[i].SegmentID == seg1.ID {
			customLine = &plan.Lines[i]
		}
	}
	if customLine == nil {
		t.Fatal("custom-geometry segment not rendered")
	}
	if len(customLine.Coords) != 2 || customLine.Coords[0].Lng != 0.0002 {
		t.Errorf("expected custom geometry coords, got %+v", customLine.Coords)
	}
}

// TestMultiWayPassthrough: a street stored as disjoint ways draws each way
// independently, with the mixed sentinel when segments disagree.
func TestMultiWayPassthrough(t *testing.T) {
	red := uuid.New()
	geom := orb.MultiLineString{
		{{0, 0}, {0.0005, 0}},
		{{0.001, 0}, {0.0015, 0}},
	}
	street := testStreet(geom,
		segment(streets.SideBoth, 1, 10, &red),
		segment(streets.SideBoth, 11, 20, nil),
	)

	plan := newEngine().Render(mapview.Input{
		Streets:    []streets.Street{street},
		ZoneColors: map[uuid.UUID]string{red: "#ff0000"},
	})

	if len(plan.Lines) != 2 {
		t.Fatalf("expected one line per way, got %d", len(plan.Lines))
	}
	for _, line := range plan.Lines {
		if line.Strategy != mapview.StrategyWholeStreet {
			t.Errorf("expected whole_street per way, got %s", line.Strategy)
		}
		if line.Color != style.MixedColor {
			t.Errorf("expected mixed sentinel color, got %s", line.Color)
		}
	}
}

// TestDegenerateOffsetFallsBack: a street whose geometry cannot be offset
// falls back to a simpler strategy instead of failing the render.
func TestDegenerateOffsetFallsBack(t *testing.T) {
	red := uuid.New()
	// Coincident points defeat the offset tangent computation.
	degenerate := orb.LineString{{0, 0}, {0, 0}}
	street := testStreet(degenerate,
		segment(streets.SideEven, 2, 10, &red),
		segment(streets.SideOdd, 1, 9, nil),
	)

	plan := newEngine().Render(mapview.Input{
		Streets:    []streets.Street{street},
		ZoneColors: map[uuid.UUID]string{red: "#ff0000"},
	})

	if len(plan.Lines) == 0 {
		t.Fatal("expected a fallback render, got nothing")
	}
	for _, line := range plan.Lines {
		if line.Strategy == mapview.StrategySideSeparated {
			t.Errorf("expected fallback away from side separation")
		}
	}
}

func TestFitBounds(t *testing.T) {
	street := testStreet(testLine, segment(streets.SideBoth, 1, 10, nil))
	engine := newEngine()

	plan := engine.Render(mapview.Input{Streets: []streets.Street{street}})
	if plan.Fit == nil {
		t.Fatal("expected fit bounds for a non-empty render")
	}
	if plan.Fit.SouthWest.Lng != 0 || plan.Fit.NorthEast.Lng != 0.001 {
		t.Errorf("unexpected bounds: %+v", plan.Fit)
	}

	empty := engine.Render(mapview.Input{})
	if empty.Fit != nil {
		t.Error("expected no fit bounds for an empty render")
	}
}

// TestViewClearsBetweenRenders: each render replaces the layer registry.
func TestViewClearsBetweenRenders(t *testing.T) {
	streetA := testStreet(testLine, segment(streets.SideBoth, 1, 10, nil))
	streetB := testStreet(testLine, segment(streets.SideBoth, 1, 10, nil))
	view := mapview.NewView(newEngine())

	view.Render(mapview.Input{Streets: []streets.Street{streetA}})
	if lines := view.StreetLines(streetA.ID); len(lines) == 0 {
		t.Fatal("expected street A drawn")
	}

	view.Render(mapview.Input{Streets: []streets.Street{streetB}})
	if lines := view.StreetLines(streetA.ID); len(lines) != 0 {
		t.Error("expected street A cleared on re-render")
	}
	if lines := view.StreetLines(streetB.ID); len(lines) == 0 {
		t.Error("expected street B drawn")
	}

	view.Clear()
	if plan := view.Plan(); len(plan.Lines) != 0 || plan.Fit != nil {
		t.Error("expected empty view after clear")
	}
}
