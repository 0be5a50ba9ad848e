// Package interaction turns raw pointer and wheel input into node position
// and view state updates. All transitions go through Reduce.
package interaction

import (
	"github.com/killuadb/schemamap/internal/geometry"
	"github.com/killuadb/schemamap/internal/models"
)

const (
	// WheelFactor converts wheel deltaY into a scale change.
	WheelFactor = 0.001
	// ZoomStep is the scale change of the zoom buttons.
	ZoomStep = 0.1
)

type Mode int

const (
	Idle Mode = iota
	Dragging
)

func (m Mode) String() string {
	if m == Dragging {
		return "dragging"
	}
	return "idle"
}

// Drag captures where a drag started, in screen space for the pointer and
// world space for the node.
type Drag struct {
	Table         string       `json:"table"`
	StartPointer  models.Point `json:"start_pointer"`
	StartPosition models.Point `json:"start_position"`
}

// State is the drag state machine. A nil Drag means Idle.
type State struct {
	Drag *Drag `json:"drag,omitempty"`
}

func (s State) Mode() Mode {
	if s.Drag != nil {
		return Dragging
	}
	return Idle
}

// ClampScale keeps a zoom factor inside [MinScale, MaxScale].
func ClampScale(scale float64) float64 {
	if scale < models.MinScale {
		return models.MinScale
	}
	if scale > models.MaxScale {
		return models.MaxScale
	}
	return scale
}

// Reduce applies one event. The layout is owned by the caller's controller and
// is the only value updated in place; state and view are returned.
func Reduce(s State, view models.ViewState, layout *geometry.Layout, ev Event) (State, models.ViewState) {
	switch ev.Kind {
	case PointerDown:
		return pointerDown(s, view, layout, ev), view
	case PointerMove:
		return pointerMove(s, view, layout, ev), view
	case PointerUp, PointerLeave:
		return State{}, view
	case Wheel:
		if ev.Modifier {
			view.Scale = ClampScale(view.Scale - ev.DeltaY*WheelFactor)
		}
	case ZoomIn:
		view.Scale = ClampScale(view.Scale + ZoomStep)
	case ZoomOut:
		view.Scale = ClampScale(view.Scale - ZoomStep)
	case ZoomReset:
		view.Scale = models.DefaultScale
	case Search:
		view.SearchTerm = ev.Term
	case Hover:
		if ev.Table != "" && (layout == nil || !layout.Has(ev.Table)) {
			break
		}
		view.HoveredTable = ev.Table
	}
	return s, view
}

func pointerDown(s State, view models.ViewState, layout *geometry.Layout, ev Event) State {
	if s.Drag != nil || layout == nil {
		return s
	}

	table := ev.Table
	if table == "" {
		hit, ok := layout.HitHeader(geometry.ScreenToWorld(ev.Pointer, view.Scale))
		if !ok {
			return s
		}
		table = hit
	}

	pos, ok := layout.Get(table)
	if !ok {
		return s
	}

	return State{Drag: &Drag{
		Table:         table,
		StartPointer:  ev.Pointer,
		StartPosition: pos,
	}}
}

func pointerMove(s State, view models.ViewState, layout *geometry.Layout, ev Event) State {
	if s.Drag == nil {
		return s
	}
	if layout == nil || !layout.Has(s.Drag.Table) {
		// The table went away under the pointer.
		return State{}
	}

	delta := geometry.ScreenToWorld(ev.Pointer.Sub(s.Drag.StartPointer), view.Scale)
	layout.Set(s.Drag.Table, s.Drag.StartPosition.Add(delta))
	return s
}
