package geo

import (
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"
)

var (
	// ErrTooFewPoints is returned when a line has fewer than 2 points.
	ErrTooFewPoints = errors.New("line must have at least 2 points")
	// ErrDegenerateLine is returned when a line's tangent cannot be computed
	// (coincident points). Callers fall back to un-offset rendering.
	ErrDegenerateLine = errors.New("degenerate line geometry")
)

// metersPerDegree is the length of one degree of latitude. Longitude degrees
// shrink by cos(latitude); all planar math here works in a local frame scaled
// accordingly, which is accurate at street scale.
const metersPerDegree = 111320.0

// localScale returns the meters-per-degree factors for a line's mid latitude.
func localScale(line orb.LineString) (lngScale, latScale float64) {
	mid := line.Bound().Center()
	latScale = metersPerDegree
	lngScale = metersPerDegree * math.Cos(mid[1]*math.Pi/180)
	return lngScale, latScale
}

// OffsetParallel shifts line perpendicular to its local tangent by
// offsetMeters. The sign of offsetMeters picks the side. The result has the
// same point count and orientation as the input. Used to visually separate
// even-side and odd-side segment lines that would otherwise overlap exactly.
func OffsetParallel(line orb.LineString, offsetMeters float64) (orb.LineString, error) {
	if len(line) < 2 {
		return nil, ErrTooFewPoints
	}

	lngScale, latScale := localScale(line)
	if lngScale == 0 {
		return nil, ErrDegenerateLine
	}

	pts := make([]orb.Point, len(line))
	for i, p := range line {
		pts[i] = orb.Point{p[0] * lngScale, p[1] * latScale}
	}

	out := make(orb.LineString, len(line))
	for i := range pts {
		a, b := i-1, i+1
		if a < 0 {
			a = 0
		}
		if b > len(pts)-1 {
			b = len(pts) - 1
		}
		dx := pts[b][0] - pts[a][0]
		dy := pts[b][1] - pts[a][1]
		norm := math.Hypot(dx, dy)
		if norm == 0 {
			return nil, ErrDegenerateLine
		}
		nx, ny := -dy/norm, dx/norm
		out[i] = orb.Point{
			(pts[i][0] + nx*offsetMeters) / lngScale,
			(pts[i][1] + ny*offsetMeters) / latScale,
		}
	}
	return out, nil
}

// ProportionalSlice returns the points of line covering the index-th of total
// equal fractional intervals along the point list. Interior boundaries
// resolve to a single point index, so adjacent slices share exactly their
// boundary point and consecutive slices together cover every point.
func ProportionalSlice(line orb.LineString, index, total int) (orb.LineString, error) {
	if len(line) < 2 {
		return nil, ErrTooFewPoints
	}
	if total < 1 || index < 0 || index >= total {
		return nil, fmt.Errorf("slice index %d out of range for total %d", index, total)
	}

	last := len(line) - 1
	start := int(math.Floor(float64(last) * float64(index) / float64(total)))
	end := int(math.Floor(float64(last) * float64(index+1) / float64(total)))
	if index == total-1 {
		end = last
	}
	if end <= start {
		end = start + 1
	}

	out := make(orb.LineString, end-start+1)
	copy(out, line[start:end+1])
	return out, nil
}

// ProjectOntoLine returns the distance in meters along line of the point on
// line closest to pt. Marker click order is irrelevant downstream: this
// scalar alone orders cut markers along the street.
func ProjectOntoLine(line orb.LineString, pt orb.Point) (float64, error) {
	if len(line) < 2 {
		return 0, ErrTooFewPoints
	}

	lngScale, latScale := localScale(line)
	px := pt[0] * lngScale
	py := pt[1] * latScale

	bestDist := math.Inf(1)
	bestAlong := 0.0
	along := 0.0

	for i := 0; i < len(line)-1; i++ {
		ax := line[i][0] * lngScale
		ay := line[i][1] * latScale
		bx := line[i+1][0] * lngScale
		by := line[i+1][1] * latScale

		vx, vy := bx-ax, by-ay
		segLen := math.Hypot(vx, vy)

		t := 0.0
		if segLen > 0 {
			t = ((px-ax)*vx + (py-ay)*vy) / (segLen * segLen)
			t = math.Max(0, math.Min(1, t))
		}
		cx := ax + t*vx
		cy := ay + t*vy
		d := math.Hypot(px-cx, py-cy)
		if d < bestDist {
			bestDist = d
			bestAlong = along + t*segLen
		}
		along += segLen
	}
	return bestAlong, nil
}

// NormalizeLine flattens street geometry into one ordered coordinate list.
// Streets with gaps are stored as MultiLineString; their ways are
// concatenated in stored order.
func NormalizeLine(g orb.Geometry) (orb.LineString, error) {
	var line orb.LineString
	switch g := g.(type) {
	case orb.LineString:
		line = g
	case orb.MultiLineString:
		for _, way := range g {
			line = append(line, way...)
		}
	default:
		return nil, fmt.Errorf("unsupported geometry type %T", g)
	}
	if len(line) < 2 {
		return nil, ErrTooFewPoints
	}
	return line, nil
}
