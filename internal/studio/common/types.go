package common

import "github.com/Rana718/injectdb/internal/types"

// Response is a standard API response
type Response struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// ColumnInfo represents column metadata
type ColumnInfo struct {
	Name             string `json:"name"`
	Type             string `json:"type"`
	Nullable         bool   `json:"nullable"`
	PrimaryKey       bool   `json:"primary_key"`
	Unique           bool   `json:"unique,omitempty"`
	Default          string `json:"default,omitempty"`
	AutoIncrement    bool   `json:"auto_increment,omitempty"`
	ForeignKeyTable  string `json:"foreign_key_table,omitempty"`
	ForeignKeyColumn string `json:"foreign_key_column,omitempty"`
}

func ColumnsFromSchema(columns []types.SchemaColumn) []ColumnInfo {
	out := make([]ColumnInfo, len(columns))
	for i, col := range columns {
		out[i] = ColumnInfo{
			Name:             col.Name,
			Type:             col.Type,
			Nullable:         col.Nullable,
			PrimaryKey:       col.IsPrimary,
			Unique:           col.IsUnique,
			Default:          col.Default,
			AutoIncrement:    col.IsAutoIncrement,
			ForeignKeyTable:  col.ForeignKeyTable,
			ForeignKeyColumn: col.ForeignKeyColumn,
		}
	}
	return out
}

// Preview is the first rows of an uploaded file.
type Preview struct {
	File    string   `json:"file"`
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
	Total   int      `json:"total"`
}
