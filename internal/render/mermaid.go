package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/killuadb/schemamap/internal/graph"
)

// manyToOne is the Mermaid cardinality used for every foreign key; the
// payload carries no cardinality metadata.
const manyToOne = "}o--||"

// MermaidRenderer writes the graph model as a Mermaid erDiagram. It ignores
// positions and view state; Mermaid lays the diagram out itself.
type MermaidRenderer struct{}

func (MermaidRenderer) RenderModel(w io.Writer, model *graph.Model) error {
	_, err := io.WriteString(w, GenerateMermaid(model))
	return err
}

// GenerateMermaid renders relationships first, then one entity per table.
// Relationships with an endpoint outside the model are left out.
func GenerateMermaid(model *graph.Model) string {
	var sb strings.Builder

	sb.WriteString("erDiagram\n")
	if model == nil {
		return sb.String()
	}

	entities := entityNames(model.Names())

	fkColumns := make(map[string]bool)
	wroteRel := false
	seen := make(map[string]bool)
	for _, rel := range model.Relationships() {
		if rel.FromColumn != "" {
			fkColumns[rel.FromTable+":"+rel.FromColumn] = true
		}
		if !model.Has(rel.FromTable) || !model.Has(rel.ToTable) {
			continue
		}

		key := fmt.Sprintf("%s:%s", rel.FromTable, rel.ToTable)
		if seen[key] {
			continue
		}
		seen[key] = true

		// Mermaid requires a label; an empty one hides it.
		sb.WriteString(fmt.Sprintf("    %s %s %s : \"\"\n",
			entities[rel.FromTable],
			manyToOne,
			entities[rel.ToTable]))
		wroteRel = true
	}
	if wroteRel {
		sb.WriteString("\n")
	}

	for _, table := range model.Tables() {
		sb.WriteString(fmt.Sprintf("    %s {\n", entities[table.Name]))

		for _, col := range table.Columns {
			annotations := ""
			if col.IsPrimary {
				annotations = " PK"
			}
			if fkColumns[table.Name+":"+col.Name] {
				annotations += " FK"
			}

			sb.WriteString(fmt.Sprintf("        %s %s%s\n",
				simplifyDataType(col.Type),
				attributeName(col.Name),
				annotations))
		}

		sb.WriteString("    }\n\n")
	}

	return sb.String()
}

// entityNames maps table names to Mermaid entity identifiers. Identifiers
// are upper case with every other character replaced by an underscore;
// tables that would share one get a numeric suffix.
func entityNames(tables []string) map[string]string {
	out := make(map[string]string, len(tables))
	used := make(map[string]bool, len(tables))
	for _, name := range tables {
		base := mermaidIdent(strings.ToUpper(name), "TABLE")
		id := base
		for n := 2; used[id]; n++ {
			id = fmt.Sprintf("%s_%d", base, n)
		}
		used[id] = true
		out[name] = id
	}
	return out
}

func attributeName(column string) string {
	return mermaidIdent(column, "column")
}

// mermaidIdent keeps letters, digits and underscores. Identifiers must not
// start with a digit.
func mermaidIdent(s, fallback string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	id := b.String()
	if id == "" {
		return fallback
	}
	if id[0] >= '0' && id[0] <= '9' {
		id = "_" + id
	}
	return id
}

// simplifyDataType shortens Postgres type names to single Mermaid tokens.
func simplifyDataType(dataType string) string {
	dt := strings.ToLower(strings.TrimSpace(dataType))

	switch {
	case dt == "":
		return "unknown"
	case dt == "integer":
		return "int"
	case strings.HasPrefix(dt, "character varying"):
		return "varchar"
	case strings.HasPrefix(dt, "character"):
		return "char"
	case strings.HasPrefix(dt, "timestamp without time zone"):
		return "timestamp"
	case strings.HasPrefix(dt, "timestamp with time zone"):
		return "timestamptz"
	case strings.HasPrefix(dt, "time without time zone"):
		return "time"
	case strings.HasPrefix(dt, "numeric"):
		return "numeric"
	case strings.HasPrefix(dt, "decimal"):
		return "decimal"
	case dt == "double precision":
		return "double"
	case strings.HasPrefix(dt, "array") || strings.HasSuffix(dt, "[]"):
		return "array"
	default:
		return mermaidIdent(dt, "unknown")
	}
}
