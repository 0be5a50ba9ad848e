package models

// Column is one column row of a table card. IsPrimary is filled in by the
// graph model when the payload omits it and the column is named "id".
type Column struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	IsPrimary bool   `json:"is_primary,omitempty"`
}

// Table is a node of the schema map. Name is the identity key.
type Table struct {
	Name    string   `json:"name"`
	Columns []Column `json:"columns"`
}

// Relationship is a directed foreign-key edge. The arrowhead points at ToTable.
type Relationship struct {
	FromTable  string `json:"from_table"`
	ToTable    string `json:"to_table"`
	FromColumn string `json:"from_col,omitempty"`
	ToColumn   string `json:"to_col,omitempty"`
}

// Schema is the payload returned by the schema introspection service.
type Schema struct {
	Tables        []Table        `json:"tables"`
	Relationships []Relationship `json:"relationships"`
}
