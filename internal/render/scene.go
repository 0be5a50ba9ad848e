// Package render turns the graph model, node positions and view state into a
// drawable scene, and draws scenes as SVG or Mermaid text.
package render

import (
	"io"

	"github.com/killuadb/schemamap/internal/geometry"
	"github.com/killuadb/schemamap/internal/graph"
	"github.com/killuadb/schemamap/internal/models"
)

// Row is one column line of a card.
type Row struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Primary bool   `json:"primary"`
	Icon    Icon   `json:"icon"`
}

// Node is one drawable table card.
type Node struct {
	Table  string        `json:"table"`
	Bounds geometry.Rect `json:"bounds"`
	Rows   []Row         `json:"rows"`
	Emphasis
}

// Edge is one drawable relationship curve.
type Edge struct {
	From string `json:"from"`
	To   string `json:"to"`
	D    string `json:"d"`
	EdgeEmphasis
}

// Scene is everything a renderer needs to draw one frame.
type Scene struct {
	Scale      float64       `json:"scale"`
	SearchTerm string        `json:"search_term,omitempty"`
	Hovered    string        `json:"hovered_table,omitempty"`
	Nodes      []Node        `json:"nodes"`
	Edges      []Edge        `json:"edges"`
	Matches    int           `json:"matches"`
	Legend     []LegendEntry `json:"legend"`
}

// Renderer draws a scene to some backend.
type Renderer interface {
	Render(w io.Writer, scene Scene) error
}

// Build computes the scene. It is a pure function of its inputs. Tables
// without a position are drawn at the origin; relationships whose path cannot
// be computed are skipped.
func Build(model *graph.Model, layout *geometry.Layout, view models.ViewState) Scene {
	scene := Scene{
		Scale:      view.Scale,
		SearchTerm: view.SearchTerm,
		Hovered:    view.HoveredTable,
		Nodes:      []Node{},
		Edges:      []Edge{},
		Legend:     Legend,
	}
	if scene.Scale <= 0 {
		scene.Scale = models.DefaultScale
	}
	if model == nil {
		return scene
	}
	if layout == nil {
		layout = geometry.NewLayout()
	}

	for _, rel := range model.Relationships() {
		var from, to *models.Point
		if model.Has(rel.FromTable) {
			from = layout.Ptr(rel.FromTable)
		}
		if model.Has(rel.ToTable) {
			to = layout.Ptr(rel.ToTable)
		}

		path := geometry.EdgePath(from, to, geometry.NodeWidth)
		if !path.Valid() {
			continue
		}
		scene.Edges = append(scene.Edges, Edge{
			From:         rel.FromTable,
			To:           rel.ToTable,
			D:            path.D(),
			EdgeEmphasis: EdgeEmphasisFor(rel, view),
		})
	}

	if view.SearchTerm != "" {
		scene.Matches = len(model.Filter(view.SearchTerm))
	}

	for _, t := range model.Tables() {
		pos, _ := layout.Get(t.Name)

		rows := make([]Row, len(t.Columns))
		for i, c := range t.Columns {
			rows[i] = Row{
				Name:    c.Name,
				Type:    c.Type,
				Primary: c.IsPrimary || c.Name == "id",
				Icon:    IconFor(c),
			}
		}

		node := Node{
			Table:    t.Name,
			Bounds:   geometry.NodeBounds(pos, len(t.Columns)),
			Rows:     rows,
			Emphasis: EmphasisFor(t.Name, model, view),
		}
		scene.Nodes = append(scene.Nodes, node)
	}

	return scene
}

// Extent returns the bottom-right corner of the drawing in world space.
func (s Scene) Extent() models.Point {
	var end models.Point
	for _, n := range s.Nodes {
		if x := n.Bounds.X + n.Bounds.Width; x > end.X {
			end.X = x
		}
		if y := n.Bounds.Y + n.Bounds.Height; y > end.Y {
			end.Y = y
		}
	}
	return end
}
