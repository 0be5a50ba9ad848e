// Package graph is the in-memory model of one schema payload: tables, their
// columns and the foreign-key relationships between them.
package graph

import (
	"errors"
	"fmt"
	"strings"

	"github.com/killuadb/schemamap/internal/models"
)

// ErrMalformedSchema is returned by Load when the payload cannot be shown.
var ErrMalformedSchema = errors.New("malformed schema payload")

// Model is immutable once built. A refresh builds a new Model and replaces
// the old one wholesale.
type Model struct {
	tables        []models.Table
	index         map[string]int
	relationships []models.Relationship
	neighbors     map[string]map[string]struct{}
}

// Empty returns a model with no tables, used before the first load.
func Empty() *Model {
	return &Model{
		index:     make(map[string]int),
		neighbors: make(map[string]map[string]struct{}),
	}
}

// Load builds a model from a payload. Table names must be non-empty and
// unique. Relationships naming unknown tables are kept; see Dangling.
func Load(schema models.Schema) (*Model, error) {
	m := &Model{
		tables:        make([]models.Table, 0, len(schema.Tables)),
		index:         make(map[string]int, len(schema.Tables)),
		relationships: make([]models.Relationship, len(schema.Relationships)),
		neighbors:     make(map[string]map[string]struct{}),
	}

	for i, t := range schema.Tables {
		if strings.TrimSpace(t.Name) == "" {
			return nil, fmt.Errorf("%w: table %d has no name", ErrMalformedSchema, i)
		}
		if _, dup := m.index[t.Name]; dup {
			return nil, fmt.Errorf("%w: duplicate table %q", ErrMalformedSchema, t.Name)
		}

		cols := make([]models.Column, len(t.Columns))
		for j, c := range t.Columns {
			c.IsPrimary = c.IsPrimary || c.Name == "id"
			cols[j] = c
		}

		m.index[t.Name] = len(m.tables)
		m.tables = append(m.tables, models.Table{Name: t.Name, Columns: cols})
	}

	copy(m.relationships, schema.Relationships)
	for _, rel := range m.relationships {
		m.link(rel.FromTable, rel.ToTable)
		m.link(rel.ToTable, rel.FromTable)
	}

	return m, nil
}

func (m *Model) link(a, b string) {
	if a == b {
		return
	}
	set, ok := m.neighbors[a]
	if !ok {
		set = make(map[string]struct{})
		m.neighbors[a] = set
	}
	set[b] = struct{}{}
}

// Tables returns the tables in payload order.
func (m *Model) Tables() []models.Table {
	return m.tables
}

// Names returns the table names in payload order.
func (m *Model) Names() []string {
	names := make([]string, len(m.tables))
	for i, t := range m.tables {
		names[i] = t.Name
	}
	return names
}

func (m *Model) Len() int {
	return len(m.tables)
}

func (m *Model) Has(name string) bool {
	_, ok := m.index[name]
	return ok
}

func (m *Model) Table(name string) (models.Table, bool) {
	i, ok := m.index[name]
	if !ok {
		return models.Table{}, false
	}
	return m.tables[i], true
}

func (m *Model) Relationships() []models.Relationship {
	return m.relationships
}

// Connected reports whether a relationship links a and b in either direction.
func (m *Model) Connected(a, b string) bool {
	_, ok := m.neighbors[a][b]
	return ok
}

// Neighbors returns the names linked to name by a relationship, in payload order.
// Names that are not tables of the model are left out.
func (m *Model) Neighbors(name string) []string {
	var out []string
	for _, t := range m.tables {
		if m.Connected(name, t.Name) {
			out = append(out, t.Name)
		}
	}
	return out
}

// Filter returns the tables whose name contains term, ignoring case.
// An empty term matches every table. Matches is the per-name predicate it
// applies; the renderer uses Filter to count search hits.
func (m *Model) Filter(term string) []models.Table {
	if term == "" {
		out := make([]models.Table, len(m.tables))
		copy(out, m.tables)
		return out
	}

	var out []models.Table
	for _, t := range m.tables {
		if Matches(t.Name, term) {
			out = append(out, t)
		}
	}
	return out
}

// Matches is the search predicate used by Filter.
func Matches(name, term string) bool {
	return strings.Contains(strings.ToLower(name), strings.ToLower(term))
}

// Dangling returns relationships with at least one endpoint that is not a table.
func (m *Model) Dangling() []models.Relationship {
	var out []models.Relationship
	for _, rel := range m.relationships {
		if !m.Has(rel.FromTable) || !m.Has(rel.ToTable) {
			out = append(out, rel)
		}
	}
	return out
}
