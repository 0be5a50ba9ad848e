package interaction

import (
	"fmt"

	"github.com/killuadb/schemamap/internal/models"
)

type EventKind string

const (
	PointerDown  EventKind = "pointer_down"
	PointerMove  EventKind = "pointer_move"
	PointerUp    EventKind = "pointer_up"
	PointerLeave EventKind = "pointer_leave"
	Wheel        EventKind = "wheel"
	ZoomIn       EventKind = "zoom_in"
	ZoomOut      EventKind = "zoom_out"
	ZoomReset    EventKind = "zoom_reset"
	Search       EventKind = "search"
	Hover        EventKind = "hover"
)

// Event is one raw input from the canvas. Pointer is in screen space.
// Table is optional on pointer_down (hit testing is used when empty) and
// names the hovered table on hover ("" clears the hover).
type Event struct {
	Kind     EventKind    `json:"kind" binding:"required"`
	Table    string       `json:"table,omitempty"`
	Pointer  models.Point `json:"pointer"`
	DeltaY   float64      `json:"delta_y,omitempty"`
	Modifier bool         `json:"modifier,omitempty"`
	Term     string       `json:"term,omitempty"`
}

// Validate rejects unknown event kinds.
func (e Event) Validate() error {
	switch e.Kind {
	case PointerDown, PointerMove, PointerUp, PointerLeave,
		Wheel, ZoomIn, ZoomOut, ZoomReset, Search, Hover:
		return nil
	}
	return fmt.Errorf("unknown event kind %q", e.Kind)
}

