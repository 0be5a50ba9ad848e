package render

import (
	"github.com/killuadb/schemamap/internal/graph"
	"github.com/killuadb/schemamap/internal/models"
)

// Opacities and edge styles.
const (
	FullOpacity = 1.0
	DimOpacity  = 0.25

	EdgeWidth         = 2.0
	EmphasizedWidth   = 3.0
	EdgeColor         = "#2e2e2e"
	EmphasizedColor   = "#3ecf8e"
	HighlightColor    = "#facc15"
	ArrowheadColor    = "#525252"
	NodeBorderColor   = "#2e2e2e"
	ActiveBorderColor = "#71717a"
)

// Emphasis is the visual state of a node.
type Emphasis struct {
	Opacity     float64 `json:"opacity"`
	Highlighted bool    `json:"highlighted"`
	Active      bool    `json:"active"`
}

// EmphasisFor decides how a table is drawn. A search match gets a highlight
// ring. While a table is hovered, it and its neighbours stay at full opacity
// and everything else is dimmed.
func EmphasisFor(table string, model *graph.Model, view models.ViewState) Emphasis {
	e := Emphasis{
		Opacity:     FullOpacity,
		Highlighted: view.SearchTerm != "" && graph.Matches(table, view.SearchTerm),
	}
	if !view.Hovering() {
		return e
	}

	if table == view.HoveredTable || (model != nil && model.Connected(view.HoveredTable, table)) {
		e.Active = true
		return e
	}

	e.Opacity = DimOpacity
	return e
}

// EdgeEmphasis is the visual state of a relationship curve.
type EdgeEmphasis struct {
	Opacity     float64 `json:"opacity"`
	Emphasized  bool    `json:"emphasized"`
	StrokeWidth float64 `json:"stroke_width"`
	Color       string  `json:"color"`
}

// EdgeEmphasisFor emphasizes edges touching the hovered table and dims the rest.
func EdgeEmphasisFor(rel models.Relationship, view models.ViewState) EdgeEmphasis {
	e := EdgeEmphasis{Opacity: FullOpacity, StrokeWidth: EdgeWidth, Color: EdgeColor}
	if !view.Hovering() {
		return e
	}

	if rel.FromTable == view.HoveredTable || rel.ToTable == view.HoveredTable {
		e.Emphasized = true
		e.StrokeWidth = EmphasizedWidth
		e.Color = EmphasizedColor
		return e
	}

	e.Opacity = DimOpacity
	return e
}
