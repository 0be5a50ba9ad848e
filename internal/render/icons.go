package render

import (
	"strings"

	"github.com/killuadb/schemamap/internal/models"
)

// Icon identifies the glyph drawn in front of a column name.
type Icon string

const (
	IconKey      Icon = "key"
	IconHash     Icon = "hash"
	IconToggle   Icon = "toggle"
	IconCalendar Icon = "calendar"
	IconDocument Icon = "document"
	IconText     Icon = "text"
)

// iconRules are checked in order; the first matching pattern wins.
var iconRules = []struct {
	patterns []string
	icon     Icon
}{
	{[]string{"uuid"}, IconKey},
	{[]string{"int", "num"}, IconHash},
	{[]string{"bool"}, IconToggle},
	{[]string{"time", "date"}, IconCalendar},
	{[]string{"json"}, IconDocument},
}

// IconFor picks the icon of a column. Primary keys always get the key.
func IconFor(col models.Column) Icon {
	if col.IsPrimary || col.Name == "id" {
		return IconKey
	}
	return IconForType(col.Type)
}

// IconForType maps a free-form type name to an icon.
func IconForType(typ string) Icon {
	t := strings.ToLower(typ)
	for _, rule := range iconRules {
		for _, p := range rule.patterns {
			if strings.Contains(t, p) {
				return rule.icon
			}
		}
	}
	return IconText
}

// LegendEntry is one line of the map legend.
type LegendEntry struct {
	Icon  Icon   `json:"icon"`
	Label string `json:"label"`
	Color string `json:"color"`
}

// Legend lists every icon with its meaning.
var Legend = []LegendEntry{
	{IconKey, "Primary Key", "#3ecf8e"},
	{IconHash, "Number", "#60a5fa"},
	{IconToggle, "Boolean", "#4ade80"},
	{IconCalendar, "Date", "#c084fc"},
	{IconDocument, "JSON", "#fb923c"},
	{IconText, "Text", "#a1a1aa"},
}

// iconColor returns the legend color of an icon.
func iconColor(i Icon) string {
	for _, e := range Legend {
		if e.Icon == i {
			return e.Color
		}
	}
	return "#a1a1aa"
}

// iconGlyph is the short marker drawn for an icon in the SVG output.
func iconGlyph(i Icon) string {
	switch i {
	case IconKey:
		return "⚷"
	case IconHash:
		return "#"
	case IconToggle:
		return "◐"
	case IconCalendar:
		return "▦"
	case IconDocument:
		return "{}"
	default:
		return "T"
	}
}
