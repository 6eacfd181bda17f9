package cutter

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/paulmach/orb"
	"github.com/portedaporte/tractage-backend/internal/geo"
	"github.com/portedaporte/tractage-backend/internal/streets"
)

// Editor states. The editor is bound to one street from Enter until Commit
// or Cancel; ReviewingCuts is the label-editing stop between Save and Commit.
const (
	StateIdle      = "idle"
	StateEditing   = "editing"
	StateReviewing = "reviewing"
)

var (
	ErrNotEditing   = errors.New("cut editor is not in edit mode")
	ErrNotReviewing = errors.New("cut editor has no pending cuts to review")
	ErrNoMarkers    = errors.New("no cut markers placed")
	ErrEmptyLabel   = errors.New("all segment labels must be non-empty")
	ErrMarkerIndex  = errors.New("marker index out of range")
)

// Store is the persistence surface the editor needs: street geometry on
// save, segment inserts on commit.
type Store interface {
	StreetGeometry(ctx context.Context, streetID uuid.UUID) (orb.Geometry, error)
	CountSegments(ctx context.Context, streetID uuid.UUID) (int64, error)
	CreateSegment(ctx context.Context, segment *streets.Segment) error
}

// PendingSegment is one span between consecutive cut points (or a street
// end), awaiting a label and commit.
type PendingSegment struct {
	Label string     `json:"label"`
	Start geo.LatLng `json:"start"`
	End   geo.LatLng `json:"end"`
}

// Editor holds one operator session's cut state. Markers and pending
// segments are ephemeral: they exist only while edit mode is active and are
// discarded on cancel.
type Editor struct {
	State    string           `json:"state"`
	StreetID uuid.UUID        `json:"street_id"`
	Markers  []geo.LatLng     `json:"markers"`
	Pending  []PendingSegment `json:"pending"`
}

// Hub keys editors by operator session, so two operators never share editor
// state.
type Hub struct {
	mu      sync.Mutex
	editors map[string]*Editor
	store   Store
}

func NewHub(store Store) *Hub {
	return &Hub{editors: make(map[string]*Editor), store: store}
}

func (h *Hub) editor(session string) *Editor {
	e, ok := h.editors[session]
	if !ok {
		e = &Editor{State: StateIdle}
		h.editors[session] = e
	}
	return e
}

// Snapshot returns a copy of the session's editor state.
func (h *Hub) Snapshot(session string) Editor {
	h.mu.Lock()
	defer h.mu.Unlock()
	e := h.editor(session)
	out := Editor{State: e.State, StreetID: e.StreetID}
	out.Markers = append(out.Markers, e.Markers...)
	out.Pending = append(out.Pending, e.Pending...)
	return out
}

// EditingStreet reports the street bound to the session's editor, if edit
// mode is active. The map click handler reads this at click time, never at
// line-draw time.
func (h *Hub) EditingStreet(session string) (uuid.UUID, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	e := h.editor(session)
	if e.State == StateIdle {
		return uuid.Nil, false
	}
	return e.StreetID, true
}

// Enter binds the editor to a street and clears any previous markers.
func (h *Hub) Enter(session string, streetID uuid.UUID) Editor {
	h.mu.Lock()
	defer h.mu.Unlock()
	e := h.editor(session)
	e.State = StateEditing
	e.StreetID = streetID
	e.Markers = nil
	e.Pending = nil
	return *e
}

// PlaceMarker appends a marker at the clicked coordinate.
func (h *Hub) PlaceMarker(session string, at geo.LatLng) (Editor, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	e := h.editor(session)
	if e.State != StateEditing {
		return *e, ErrNotEditing
	}
	e.Markers = append(e.Markers, at)
	return *e, nil
}

// MoveMarker updates a marker's stored coordinate after a drag.
func (h *Hub) MoveMarker(session string, index int, at geo.LatLng) (Editor, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	e := h.editor(session)
	if e.State != StateEditing {
		return *e, ErrNotEditing
	}
	if index < 0 || index >= len(e.Markers) {
		return *e, ErrMarkerIndex
	}
	e.Markers[index] = at
	return *e, nil
}

// RemoveMarker deletes one marker. No confirmation: the secondary-click
// gesture is the confirmation.
func (h *Hub) RemoveMarker(session string, index int) (Editor, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	e := h.editor(session)
	if e.State != StateEditing {
		return *e, ErrNotEditing
	}
	if index < 0 || index >= len(e.Markers) {
		return *e, ErrMarkerIndex
	}
	e.Markers = append(e.Markers[:index], e.Markers[index+1:]...)
	return *e, nil
}

// Save turns the placed markers into pending segments and moves the editor
// to the review state. Marker click order is irrelevant: markers are sorted
// by their projected position along the street.
func (h *Hub) Save(ctx context.Context, session string) (Editor, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	e := h.editor(session)
	if e.State != StateEditing {
		return *e, ErrNotEditing
	}
	if len(e.Markers) == 0 {
		return *e, ErrNoMarkers
	}

	geom, err := h.store.StreetGeometry(ctx, e.StreetID)
	if err != nil {
		return *e, fmt.Errorf("fetch street geometry: %w", err)
	}
	pending, err := BuildPendingSegments(geom, e.Markers)
	if err != nil {
		return *e, err
	}

	e.Pending = pending
	e.State = StateReviewing
	return *e, nil
}

// Rename sets a pending segment's label before commit.
func (h *Hub) Rename(session string, index int, label string) (Editor, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	e := h.editor(session)
	if e.State != StateReviewing {
		return *e, ErrNotReviewing
	}
	if index < 0 || index >= len(e.Pending) {
		return *e, ErrMarkerIndex
	}
	e.Pending[index].Label = label
	return *e, nil
}

// CommitResult reports what a commit wrote. ExistingSegments counts the
// street's pre-existing segments, which are left untouched: commits are
// additive, and overlapping coverage is the operator's to reconcile.
type CommitResult struct {
	Created          []streets.Segment `json:"created"`
	ExistingSegments int64             `json:"existing_segments"`
}

// Commit persists each pending segment as a new record on the target street.
// Writes are strictly sequential, so on failure everything before the
// failing index is committed and nothing after it; nothing is rolled back.
func (h *Hub) Commit(ctx context.Context, session string) (CommitResult, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	e := h.editor(session)
	if e.State != StateReviewing {
		return CommitResult{}, ErrNotReviewing
	}
	for _, p := range e.Pending {
		if p.Label == "" {
			return CommitResult{}, ErrEmptyLabel
		}
	}

	existing, err := h.store.CountSegments(ctx, e.StreetID)
	if err != nil {
		return CommitResult{}, fmt.Errorf("count existing segments: %w", err)
	}

	var result CommitResult
	result.ExistingSegments = existing
	for i, p := range e.Pending {
		segment := streets.Segment{
			ID:           uuid.New(),
			StreetID:     e.StreetID,
			Label:        p.Label,
			Side:         streets.SideBoth,
			BuildingType: streets.BuildingMixed,
			CustomGeometry: &streets.Geometry{
				Geometry: orb.LineString{p.Start.Point(), p.End.Point()},
			},
		}
		if err := h.store.CreateSegment(ctx, &segment); err != nil {
			return result, fmt.Errorf("create segment %d of %d: %w", i+1, len(e.Pending), err)
		}
		result.Created = append(result.Created, segment)
	}

	e.State = StateIdle
	e.StreetID = uuid.Nil
	e.Markers = nil
	e.Pending = nil
	return result, nil
}

// Cancel discards all markers and pending segments without persistence.
func (h *Hub) Cancel(session string) Editor {
	h.mu.Lock()
	defer h.mu.Unlock()
	e := h.editor(session)
	e.State = StateIdle
	e.StreetID = uuid.Nil
	e.Markers = nil
	e.Pending = nil
	return *e
}

// BuildPendingSegments derives the ordered cut spans for a street geometry
// and a set of markers: street-start to the first marker, marker to marker,
// last marker to street-end. Only the markers' projected positions along the
// street determine the order.
func BuildPendingSegments(geom orb.Geometry, markers []geo.LatLng) ([]PendingSegment, error) {
	if len(markers) == 0 {
		return nil, ErrNoMarkers
	}

	line, err := geo.NormalizeLine(geom)
	if err != nil {
		return nil, fmt.Errorf("street has no usable geometry: %w", err)
	}

	type projected struct {
		at    geo.LatLng
		along float64
	}
	cuts := make([]projected, len(markers))
	for i, m := range markers {
		along, err := geo.ProjectOntoLine(line, m.Point())
		if err != nil {
			return nil, fmt.Errorf("project marker %d: %w", i, err)
		}
		cuts[i] = projected{at: m, along: along}
	}
	sort.SliceStable(cuts, func(i, j int) bool {
		return cuts[i].along < cuts[j].along
	})

	start := geo.LatLng{Lat: line[0][1], Lng: line[0][0]}
	end := geo.LatLng{Lat: line[len(line)-1][1], Lng: line[len(line)-1][0]}

	points := make([]geo.LatLng, 0, len(cuts)+2)
	points = append(points, start)
	for _, c := range cuts {
		points = append(points, c.at)
	}
	points = append(points, end)

	pending := make([]PendingSegment, len(points)-1)
	for i := range pending {
		pending[i] = PendingSegment{
			Label: fmt.Sprintf("Segment %d", i+1),
			Start: points[i],
			End:   points[i+1],
		}
	}
	return pending, nil
}
