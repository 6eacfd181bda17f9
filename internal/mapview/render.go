package mapview

import (
	"fmt"
	"log"
	"sort"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/portedaporte/tractage-backend/internal/config"
	"github.com/portedaporte/tractage-backend/internal/geo"
	"github.com/portedaporte/tractage-backend/internal/streets"
)

// Rendering strategies, in decision order. Multi-way streets draw each way
// independently with whichever of the others fits its segment set.
const (
	StrategySideSeparated  = "side_separated"
	StrategySegmentDivided = "segment_divided"
	StrategyWholeStreet    = "whole_street"
)

// Line is one drawable, clickable polyline of the render plan.
type Line struct {
	StreetID  uuid.UUID    `json:"street_id"`
	SegmentID *uuid.UUID   `json:"segment_id,omitempty"`
	Strategy  string       `json:"strategy"`
	Coords    []geo.LatLng `json:"coords"`
	Color     string       `json:"color"`
	Weight    float64      `json:"weight"`
	Opacity   float64      `json:"opacity"`
	Tooltip   string       `json:"tooltip"`
}

// Bounds is the viewport fit for a completed render.
type Bounds struct {
	SouthWest geo.LatLng `json:"south_west"`
	NorthEast geo.LatLng `json:"north_east"`
}

// Plan is everything a map client needs to redraw from scratch.
type Plan struct {
	Lines []Line  `json:"lines"`
	Fit   *Bounds `json:"fit,omitempty"`
}

// Input is the state a render is a pure function of.
type Input struct {
	Streets    []streets.Street
	ZoneColors map[uuid.UUID]string
	// Selected holds segment or street identifiers, depending on which
	// selection workflow is active.
	Selected map[uuid.UUID]bool
}

// Engine computes render plans. It holds no authority over segments: the
// plan is derived entirely from the input state and the style.
type Engine struct {
	style config.Style
}

func NewEngine(style config.Style) *Engine {
	return &Engine{style: style}
}

// Render computes the full plan for the given state.
func (e *Engine) Render(in Input) Plan {
	var plan Plan
	for _, street := range in.Streets {
		plan.Lines = append(plan.Lines, e.renderStreet(street, in)...)
	}
	plan.Fit = fitBounds(plan.Lines)
	return plan
}

func (e *Engine) renderStreet(street streets.Street, in Input) []Line {
	segments := append([]streets.Segment(nil), street.Segments...)
	sort.SliceStable(segments, func(i, j int) bool {
		return numberStart(segments[i]) < numberStart(segments[j])
	})

	switch geom := street.Geometry.Geometry.(type) {
	case orb.MultiLineString:
		// Disjoint ways render independently; segment division needs a
		// single contiguous line, so each way gets side separation or the
		// whole-way fallback.
		var lines []Line
		for _, way := range geom {
			lines = append(lines, e.renderLine(street, segments, orb.LineString(way), false, in)...)
		}
		return lines
	case orb.LineString:
		return e.renderLine(street, segments, geom, true, in)
	default:
		log.Printf("[mapview] street %s has unusable geometry (%T), skipping", street.ID, street.Geometry.Geometry)
		return nil
	}
}

// renderLine picks the strategy for one contiguous street line.
func (e *Engine) renderLine(street streets.Street, segments []streets.Segment, line orb.LineString, contiguous bool, in Input) []Line {
	if lines := e.renderSideSeparated(street, segments, line, in); lines != nil {
		return lines
	}
	if contiguous && len(segments) > 1 && e.needsSegmentDivision(street, segments, in) {
		return e.renderSegmentDivided(street, segments, line, in)
	}
	return []Line{e.renderWholeStreet(street, segments, line, in)}
}

// sideSplit partitions a street's segments into the even-side and odd-side
// lists; "both" segments appear in each.
func sideSplit(segments []streets.Segment) (even, odd []streets.Segment) {
	for _, s := range segments {
		if s.Side == streets.SideEven || s.Side == streets.SideBoth {
			even = append(even, s)
		}
		if s.Side == streets.SideOdd || s.Side == streets.SideBoth {
			odd = append(odd, s)
		}
	}
	return even, odd
}

// renderSideSeparated draws two parallel-offset lines, one per street side,
// when the street distinguishes sides and at least one side is assigned.
// Returns nil when the strategy does not apply or offsetting fails on both
// sides.
func (e *Engine) renderSideSeparated(street streets.Street, segments []streets.Segment, line orb.LineString, in Input) []Line {
	even, odd := sideSplit(segments)
	if len(even) == 0 || len(odd) == 0 {
		return nil
	}

	// A street whose segments are all "both" has nothing to separate.
	sided := false
	assigned := false
	for _, s := range segments {
		if s.Side != streets.SideBoth {
			sided = true
		}
		if s.ZoneID != nil {
			assigned = true
		}
	}
	if !sided || !assigned {
		return nil
	}

	evenLine, evenErr := geo.OffsetParallel(line, e.style.SideOffsetMeters)
	oddLine, oddErr := geo.OffsetParallel(line, -e.style.SideOffsetMeters)
	if evenErr != nil && oddErr != nil {
		log.Printf("[mapview] street %s: offset failed on both sides (%v, %v), falling back", street.ID, evenErr, oddErr)
		return nil
	}
	// One failed side renders un-offset rather than not at all.
	if evenErr != nil {
		evenLine = line
	}
	if oddErr != nil {
		oddLine = line
	}

	var lines []Line
	lines = append(lines, e.divideAmongSegments(street, even, evenLine, StrategySideSeparated, in)...)
	lines = append(lines, e.divideAmongSegments(street, odd, oddLine, StrategySideSeparated, in)...)
	return lines
}

// needsSegmentDivision reports whether segments must be drawn individually:
// they disagree on zone, one carries custom geometry, or one is selected.
func (e *Engine) needsSegmentDivision(street streets.Street, segments []streets.Segment, in Input) bool {
	if zonesDisagree(segments) {
		return true
	}
	for _, s := range segments {
		if s.CustomGeometry != nil && s.CustomGeometry.Geometry != nil {
			return true
		}
		if in.Selected[s.ID] {
			return true
		}
	}
	return false
}

func (e *Engine) renderSegmentDivided(street streets.Street, segments []streets.Segment, line orb.LineString, in Input) []Line {
	return e.divideAmongSegments(street, segments, line, StrategySegmentDivided, in)
}

// divideAmongSegments draws each segment as its own clickable sub-line:
// its custom geometry when present, else a proportional slice of baseLine at
// the segment's position among its siblings.
func (e *Engine) divideAmongSegments(street streets.Street, segments []streets.Segment, baseLine orb.LineString, strategy string, in Input) []Line {
	var lines []Line
	for k, segment := range segments {
		var coords orb.LineString
		if segment.CustomGeometry != nil && segment.CustomGeometry.Geometry != nil {
			custom, err := geo.NormalizeLine(segment.CustomGeometry.Geometry)
			if err != nil {
				log.Printf("[mapview] segment %s: bad custom geometry: %v", segment.ID, err)
			} else {
				coords = custom
			}
		}
		if coords == nil {
			slice, err := geo.ProportionalSlice(baseLine, k, len(segments))
			if err != nil {
				log.Printf("[mapview] segment %s: slice failed: %v", segment.ID, err)
				coords = baseLine
			} else {
				coords = slice
			}
		}

		segID := segment.ID
		color, weight, opacity := e.segmentStyle(street, segment, in)
		lines = append(lines, Line{
			StreetID:  street.ID,
			SegmentID: &segID,
			Strategy:  strategy,
			Coords:    geo.ToDisplayFrame(coords),
			Color:     color,
			Weight:    weight,
			Opacity:   opacity,
			Tooltip:   fmt.Sprintf("%s — %s", street.Name, segmentLabel(segment)),
		})
	}
	return lines
}

func (e *Engine) renderWholeStreet(street streets.Street, segments []streets.Segment, line orb.LineString, in Input) Line {
	color := e.aggregateColor(segments, in.ZoneColors)
	weight, opacity := e.style.StrokeWeight, e.style.Opacity
	if in.Selected[street.ID] {
		color = e.style.SelectedColor
		weight = e.style.SelectedWeight
		opacity = e.style.SelectedOpacity
	}
	return Line{
		StreetID: street.ID,
		Strategy: StrategyWholeStreet,
		Coords:   geo.ToDisplayFrame(line),
		Color:    color,
		Weight:   weight,
		Opacity:  opacity,
		Tooltip:  street.Name,
	}
}

// segmentStyle resolves one segment's color, weight, and opacity. Selection
// overrides everything with the selected sentinel, heavier stroke, and full
// opacity.
func (e *Engine) segmentStyle(street streets.Street, segment streets.Segment, in Input) (string, float64, float64) {
	if in.Selected[segment.ID] || in.Selected[street.ID] {
		return e.style.SelectedColor, e.style.SelectedWeight, e.style.SelectedOpacity
	}

	color := e.style.UnassignedColor
	if segment.ZoneID != nil {
		if zoneColor, ok := in.ZoneColors[*segment.ZoneID]; ok {
			color = zoneColor
		}
	}
	return color, e.style.StrokeWeight, e.style.Opacity
}

// aggregateColor resolves a whole street's color from its segments:
// neutral when nothing is assigned, the zone's color when they all agree,
// the mixed sentinel when they disagree.
func (e *Engine) aggregateColor(segments []streets.Segment, zoneColors map[uuid.UUID]string) string {
	if zonesDisagree(segments) {
		return e.style.MixedColor
	}
	for _, s := range segments {
		if s.ZoneID != nil {
			if color, ok := zoneColors[*s.ZoneID]; ok {
				return color
			}
			return e.style.UnassignedColor
		}
	}
	return e.style.UnassignedColor
}

// zonesDisagree reports whether segments span more than one assignment
// state: two different zones, or a mix of assigned and unassigned.
func zonesDisagree(segments []streets.Segment) bool {
	var zone *uuid.UUID
	seenAssigned := false
	seenUnassigned := false
	for _, s := range segments {
		if s.ZoneID == nil {
			seenUnassigned = true
			continue
		}
		if seenAssigned && *zone != *s.ZoneID {
			return true
		}
		seenAssigned = true
		zone = s.ZoneID
	}
	return seenAssigned && seenUnassigned
}

func numberStart(s streets.Segment) int {
	if s.NumberStart == nil {
		return 1 << 30
	}
	return *s.NumberStart
}

func segmentLabel(s streets.Segment) string {
	if s.Label != "" {
		return s.Label
	}
	if s.NumberStart != nil && s.NumberEnd != nil {
		return fmt.Sprintf("%d–%d (%s)", *s.NumberStart, *s.NumberEnd, s.Side)
	}
	return s.Side
}

func fitBounds(lines []Line) *Bounds {
	if len(lines) == 0 {
		return nil
	}
	bound := orb.Bound{Min: orb.Point{180, 90}, Max: orb.Point{-180, -90}}
	for _, line := range lines {
		for _, c := range line.Coords {
			bound = bound.Extend(c.Point())
		}
	}
	return &Bounds{
		SouthWest: geo.LatLng{Lat: bound.Min[1], Lng: bound.Min[0]},
		NorthEast: geo.LatLng{Lat: bound.Max[1], Lng: bound.Max[0]},
	}
}
