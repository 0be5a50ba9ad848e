// Package geometry holds the pure placement and path math of the schema map.
// Nothing in here returns an error: missing data degrades to "don't draw".
package geometry

import (
	"fmt"

	"github.com/killuadb/schemamap/internal/models"
)

// Card metrics, in world units.
const (
	NodeWidth    = 280.0
	HeaderHeight = 40.0
	RowHeight    = 22.0
	NodePadding  = 8.0
)

// Grid layout parameters.
const (
	GridColumns = 4
	GapX        = 350.0
	GapY        = 400.0
	OriginX     = 100.0
	OriginY     = 100.0
)

// Rect is an axis aligned rectangle.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Contains reports whether p lies inside r, edges included.
func (r Rect) Contains(p models.Point) bool {
	return p.X >= r.X && p.X <= r.X+r.Width && p.Y >= r.Y && p.Y <= r.Y+r.Height
}

// GridSlot returns the position of the i-th slot of the grid layout.
func GridSlot(i int) models.Point {
	if i < 0 {
		i = 0
	}
	col := i % GridColumns
	row := i / GridColumns
	return models.Point{
		X: OriginX + float64(col)*GapX,
		Y: OriginY + float64(row)*GapY,
	}
}

// InitialLayout places tables on the grid in the given order.
func InitialLayout(names []string) *Layout {
	l := NewLayout()
	for i, name := range names {
		if l.Has(name) {
			continue
		}
		l.Set(name, GridSlot(i))
	}
	return l
}

// NodeBounds returns the card rectangle of a table with columnCount rows.
func NodeBounds(pos models.Point, columnCount int) Rect {
	if columnCount < 0 {
		columnCount = 0
	}
	return Rect{
		X:      pos.X,
		Y:      pos.Y,
		Width:  NodeWidth,
		Height: HeaderHeight + float64(columnCount)*RowHeight + 2*NodePadding,
	}
}

// HeaderBounds returns the drag handle of a card.
func HeaderBounds(pos models.Point) Rect {
	return Rect{X: pos.X, Y: pos.Y, Width: NodeWidth, Height: HeaderHeight}
}

// Path is a cubic Bezier from Start to End. The zero value is not drawable.
type Path struct {
	Start    models.Point
	Control1 models.Point
	Control2 models.Point
	End      models.Point
	valid    bool
}

// Valid reports whether the path should be drawn.
func (p Path) Valid() bool {
	return p.valid
}

// D returns the SVG path data, or "" for a path that should not be drawn.
func (p Path) D() string {
	if !p.valid {
		return ""
	}
	return fmt.Sprintf("M %s %s C %s %s, %s %s, %s %s",
		num(p.Start.X), num(p.Start.Y),
		num(p.Control1.X), num(p.Control1.Y),
		num(p.Control2.X), num(p.Control2.Y),
		num(p.End.X), num(p.End.Y))
}

// EdgePath computes the curve from the right edge of the source card to the
// left edge of the target card. A nil endpoint yields a path that is not drawn.
func EdgePath(from, to *models.Point, nodeWidth float64) Path {
	if from == nil || to == nil {
		return Path{}
	}

	start := models.Point{X: from.X + nodeWidth, Y: from.Y + HeaderHeight}
	end := models.Point{X: to.X, Y: to.Y + HeaderHeight}
	midX := (start.X + end.X) / 2

	return Path{
		Start:    start,
		Control1: models.Point{X: midX, Y: start.Y},
		Control2: models.Point{X: midX, Y: end.Y},
		End:      end,
		valid:    true,
	}
}

// ScreenToWorld undoes the zoom of the content layer. The zoom is anchored at
// the canvas origin so this is a plain division.
func ScreenToWorld(p models.Point, scale float64) models.Point {
	return p.Scale(1 / safeScale(scale))
}

// WorldToScreen applies the zoom of the content layer.
func WorldToScreen(p models.Point, scale float64) models.Point {
	return p.Scale(safeScale(scale))
}

func safeScale(scale float64) float64 {
	if scale <= 0 {
		return models.DefaultScale
	}
	return scale
}

// num formats a coordinate without trailing zeros.
func num(f float64) string {
	return fmt.Sprintf("%g", f)
}
