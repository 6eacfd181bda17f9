package mapview

import (
	"sync"

	"github.com/google/uuid"
)

// View owns the rendered-layer registry: street ID → drawn line handles.
// It is an explicit object handed to render and clear operations, not
// ambient package state; every render removes all previously drawn lines
// and redraws from scratch.
type View struct {
	mu     sync.Mutex
	engine *Engine
	layers map[uuid.UUID][]Line
	fit    *Bounds
}

func NewView(engine *Engine) *View {
	return &View{
		engine: engine,
		layers: make(map[uuid.UUID][]Line),
	}
}

// Render recomputes the plan from state, replacing the previous layers.
// The viewport fit is set whenever the render produced at least one line.
func (v *View) Render(in Input) Plan {
	plan := v.engine.Render(in)

	v.mu.Lock()
	defer v.mu.Unlock()
	v.layers = make(map[uuid.UUID][]Line, len(in.Streets))
	for _, line := range plan.Lines {
		v.layers[line.StreetID] = append(v.layers[line.StreetID], line)
	}
	v.fit = plan.Fit
	return plan
}

// Plan returns the currently drawn lines as a plan snapshot.
func (v *View) Plan() Plan {
	v.mu.Lock()
	defer v.mu.Unlock()

	var plan Plan
	for _, lines := range v.layers {
		plan.Lines = append(plan.Lines, lines...)
	}
	plan.Fit = v.fit
	return plan
}

// StreetLines returns the drawn lines for one street.
func (v *View) StreetLines(streetID uuid.UUID) []Line {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]Line(nil), v.layers[streetID]...)
}

// Clear removes every drawn line.
func (v *View) Clear() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.layers = make(map[uuid.UUID][]Line)
	v.fit = nil
}
