package importer

import (
	"fmt"
	"strings"
)

// Mapping sends one source field into one destination column.
type Mapping struct {
	SourceField string `json:"source_field" yaml:"source_field"`
	DestTable   string `json:"dest_table" yaml:"dest_table"`
	DestColumn  string `json:"dest_column" yaml:"dest_column"`
}

func (m Mapping) Complete() bool {
	return strings.TrimSpace(m.SourceField) != "" &&
		strings.TrimSpace(m.DestTable) != "" &&
		strings.TrimSpace(m.DestColumn) != ""
}

func (m Mapping) String() string {
	return fmt.Sprintf("%s -> %s.%s", m.SourceField, m.DestTable, m.DestColumn)
}

// Relationship links a column of one table to a column of another.
//
// During a file import, when SourceTable is a mapped destination table whose
// row set carries SourceColumn, the values are copied into DestColumn.
// During a transfer, SourceColumn values are looked up in
// DestTable.DestColumn and replaced by the matching row's id.
type Relationship struct {
	SourceTable  string `json:"source_table" yaml:"source_table"`
	SourceColumn string `json:"source_column" yaml:"source_column"`
	DestTable    string `json:"dest_table" yaml:"dest_table"`
	DestColumn   string `json:"dest_column" yaml:"dest_column"`
}

func (r Relationship) Complete() bool {
	return strings.TrimSpace(r.SourceTable) != "" &&
		strings.TrimSpace(r.SourceColumn) != "" &&
		strings.TrimSpace(r.DestTable) != "" &&
		strings.TrimSpace(r.DestColumn) != ""
}

func (r Relationship) String() string {
	return fmt.Sprintf("%s (%s) -> %s (%s)", r.SourceTable, r.SourceColumn, r.DestTable, r.DestColumn)
}

// TableResult is the outcome of importing into one destination table.
type TableResult struct {
	Table        string   `json:"table"`
	Columns      []string `json:"columns"`
	Rows         int64    `json:"rows"`
	GeneratedIDs int      `json:"generated_ids"`
	Error        string   `json:"error,omitempty"`

	err error
}

func (r TableResult) Err() error {
	return r.err
}

func (r TableResult) OK() bool {
	return r.err == nil
}

// Failed counts the tables whose import did not complete.
func Failed(results []TableResult) int {
	n := 0
	for _, r := range results {
		if !r.OK() {
			n++
		}
	}
	return n
}

type TransferRequest struct {
	SourceTable   string         `json:"source_table" yaml:"source_table"`
	SourceColumns []string       `json:"source_columns" yaml:"source_columns"`
	DestTable     string         `json:"dest_table" yaml:"dest_table"`
	DestColumns   []string       `json:"dest_columns,omitempty" yaml:"dest_columns,omitempty"`
	Relationships []Relationship `json:"relationships,omitempty" yaml:"relationships,omitempty"`
}

type TransferResult struct {
	Table        string   `json:"table"`
	Columns      []string `json:"columns"`
	Rows         int64    `json:"rows"`
	GeneratedIDs int      `json:"generated_ids"`
	Unresolved   int      `json:"unresolved"`
}
