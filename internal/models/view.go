package models

// Point is a 2D coordinate. Node positions are stored in world space.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p Point) Add(o Point) Point {
	return Point{X: p.X + o.X, Y: p.Y + o.Y}
}

func (p Point) Sub(o Point) Point {
	return Point{X: p.X - o.X, Y: p.Y - o.Y}
}

func (p Point) Scale(f float64) Point {
	return Point{X: p.X * f, Y: p.Y * f}
}

const (
	MinScale     = 0.2
	MaxScale     = 2.0
	DefaultScale = 1.0
)

// ViewState is the transient zoom/search/hover state of one visualizer.
type ViewState struct {
	Scale        float64 `json:"scale"`
	SearchTerm   string  `json:"search_term"`
	HoveredTable string  `json:"hovered_table,omitempty"`
}

func NewViewState() ViewState {
	return ViewState{Scale: DefaultScale}
}

// Hovering reports whether a table is currently hovered.
func (v ViewState) Hovering() bool {
	return v.HoveredTable != ""
}
