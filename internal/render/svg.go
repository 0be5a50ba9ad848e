package render

import (
	"bufio"
	"fmt"
	"html"
	"io"

	"github.com/killuadb/schemamap/internal/geometry"
)

const (
	// ElementID is the id of the root svg element, used for live patches.
	ElementID = "schema-map"

	canvasMargin     = 100.0
	backgroundColor  = "#0c0c0c"
	cardColor        = "#111111"
	headerColor      = "#1a1a1a"
	titleColor       = "#f4f4f5"
	columnColor      = "#a1a1aa"
	typeColor        = "#52525b"
	schemaLabel      = "public"
	fontFamily       = "ui-monospace, SFMono-Regular, Menlo, monospace"
	cardCornerRadius = 8
)

// SVGRenderer draws a scene as a standalone SVG document. The zoom of the
// scene is kept as a transform on the content group so the output matches
// what is on screen.
type SVGRenderer struct{}

func (SVGRenderer) Render(w io.Writer, scene Scene) error {
	bw := bufio.NewWriter(w)

	ext := scene.Extent()
	width := (ext.X + canvasMargin) * scene.Scale
	height := (ext.Y + canvasMargin) * scene.Scale

	fmt.Fprintf(bw, `<svg xmlns="http://www.w3.org/2000/svg" id="%s" width="%s" height="%s" font-family="%s">`,
		ElementID, num(width), num(height), fontFamily)
	bw.WriteString(`<defs><marker id="arrowhead" markerWidth="10" markerHeight="7" refX="9" refY="3.5" orient="auto">`)
	fmt.Fprintf(bw, `<polygon points="0 0, 10 3.5, 0 7" fill="%s"/></marker></defs>`, ArrowheadColor)
	fmt.Fprintf(bw, `<rect width="100%%" height="100%%" fill="%s"/>`, backgroundColor)
	fmt.Fprintf(bw, `<g transform="scale(%s)">`, num(scene.Scale))

	for _, e := range scene.Edges {
		fmt.Fprintf(bw, `<path d="%s" stroke="%s" stroke-width="%s" fill="none" opacity="%s" marker-end="url(#arrowhead)" data-from="%s" data-to="%s"/>`,
			e.D, e.Color, num(e.StrokeWidth), num(e.Opacity), esc(e.From), esc(e.To))
	}

	for _, n := range scene.Nodes {
		writeNode(bw, n)
	}

	bw.WriteString(`</g></svg>`)
	return bw.Flush()
}

func writeNode(bw *bufio.Writer, n Node) {
	b := n.Bounds
	border := NodeBorderColor
	if n.Active {
		border = ActiveBorderColor
	}

	fmt.Fprintf(bw, `<g class="node" data-table="%s" opacity="%s">`, esc(n.Table), num(n.Opacity))
	fmt.Fprintf(bw, `<rect x="%s" y="%s" width="%s" height="%s" rx="%d" fill="%s" stroke="%s"/>`,
		num(b.X), num(b.Y), num(b.Width), num(b.Height), cardCornerRadius, cardColor, border)
	if n.Highlighted {
		fmt.Fprintf(bw, `<rect x="%s" y="%s" width="%s" height="%s" rx="%d" fill="none" stroke="%s" stroke-width="2"/>`,
			num(b.X-3), num(b.Y-3), num(b.Width+6), num(b.Height+6), cardCornerRadius+3, HighlightColor)
	}

	fmt.Fprintf(bw, `<rect x="%s" y="%s" width="%s" height="%s" fill="%s"/>`,
		num(b.X), num(b.Y), num(b.Width), num(geometry.HeaderHeight), headerColor)
	fmt.Fprintf(bw, `<text x="%s" y="%s" font-size="12" font-weight="bold" fill="%s">%s</text>`,
		num(b.X+12), num(b.Y+25), titleColor, esc(n.Table))
	fmt.Fprintf(bw, `<text x="%s" y="%s" font-size="9" text-anchor="end" fill="%s">%s</text>`,
		num(b.X+b.Width-12), num(b.Y+25), typeColor, schemaLabel)

	for i, r := range n.Rows {
		y := b.Y + geometry.HeaderHeight + geometry.NodePadding + float64(i)*geometry.RowHeight + 15
		nameColor := columnColor
		weight := "normal"
		if r.Primary {
			nameColor = iconColor(IconKey)
			weight = "bold"
		}
		fmt.Fprintf(bw, `<text x="%s" y="%s" font-size="10" fill="%s" data-icon="%s">%s</text>`,
			num(b.X+12), num(y), iconColor(r.Icon), r.Icon, esc(iconGlyph(r.Icon)))
		fmt.Fprintf(bw, `<text x="%s" y="%s" font-size="11" font-weight="%s" fill="%s">%s</text>`,
			num(b.X+30), num(y), weight, nameColor, esc(r.Name))
		fmt.Fprintf(bw, `<text x="%s" y="%s" font-size="9" text-anchor="end" fill="%s">%s</text>`,
			num(b.X+b.Width-12), num(y), typeColor, esc(r.Type))
	}

	bw.WriteString(`</g>`)
}

func esc(s string) string {
	return html.EscapeString(s)
}

func num(f float64) string {
	return fmt.Sprintf("%g", f)
}
