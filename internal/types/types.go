package types

type SchemaColumn struct {
	Name             string `json:"name"`
	Type             string `json:"type"`
	Nullable         bool   `json:"nullable"`
	Default          string `json:"default,omitempty"`
	IsPrimary        bool   `json:"is_primary"`
	IsUnique         bool   `json:"is_unique"`
	IsAutoIncrement  bool   `json:"is_auto_increment"`
	ForeignKeyTable  string `json:"foreign_key_table,omitempty"`
	ForeignKeyColumn string `json:"foreign_key_column,omitempty"`
}

// ColumnNames returns the names of cols in catalog order.
func ColumnNames(cols []SchemaColumn) []string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return names
}

// HasColumn reports whether cols contains a column called name.
func HasColumn(cols []SchemaColumn, name string) bool {
	for _, c := range cols {
		if c.Name == name {
			return true
		}
	}
	return false
}
