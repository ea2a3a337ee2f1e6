package frame

import (
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
)

// Frame is an ordered, in-memory table. Cells hold nil for NULL, strings for
// values read from files, and whatever the driver returned for database rows.
type Frame struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

func New(columns []string, rows [][]any) *Frame {
	return &Frame{Columns: columns, Rows: rows}
}

func (f *Frame) Len() int {
	return len(f.Rows)
}

// Index returns the position of the named column or -1.
func (f *Frame) Index(name string) int {
	for i, column := range f.Columns {
		if column == name {
			return i
		}
	}
	return -1
}

func (f *Frame) HasColumn(name string) bool {
	return f.Index(name) >= 0
}

// Head returns a frame sharing the first n rows.
func (f *Frame) Head(n int) *Frame {
	if n < 0 || n > len(f.Rows) {
		n = len(f.Rows)
	}
	return &Frame{Columns: f.Columns, Rows: f.Rows[:n]}
}

// Select copies the source columns into a new frame, renaming each to the
// target at the same position.
func (f *Frame) Select(sources, targets []string) (*Frame, error) {
	if len(sources) != len(targets) {
		return nil, fmt.Errorf("select needs one target per source column: %d sources, %d targets", len(sources), len(targets))
	}

	indexes := make([]int, len(sources))
	seen := make(map[string]bool, len(targets))
	for i, source := range sources {
		idx := f.Index(source)
		if idx < 0 {
			return nil, fmt.Errorf("column %q not found", source)
		}
		if seen[targets[i]] {
			return nil, fmt.Errorf("column %q is mapped more than once", targets[i])
		}
		seen[targets[i]] = true
		indexes[i] = idx
	}

	rows := make([][]any, len(f.Rows))
	for r, row := range f.Rows {
		out := make([]any, len(indexes))
		for i, idx := range indexes {
			out[i] = row[idx]
		}
		rows[r] = out
	}

	columns := make([]string, len(targets))
	copy(columns, targets)
	return &Frame{Columns: columns, Rows: rows}, nil
}

// Column returns a copy of the named column's values.
func (f *Frame) Column(name string) ([]any, bool) {
	idx := f.Index(name)
	if idx < 0 {
		return nil, false
	}
	values := make([]any, len(f.Rows))
	for r, row := range f.Rows {
		values[r] = row[idx]
	}
	return values, true
}

// SetColumn replaces the named column, appending it when absent.
func (f *Frame) SetColumn(name string, values []any) error {
	if len(values) != len(f.Rows) {
		return fmt.Errorf("column %q has %d values for %d rows", name, len(values), len(f.Rows))
	}

	idx := f.Index(name)
	if idx < 0 {
		f.Columns = append(f.Columns, name)
		for r := range f.Rows {
			f.Rows[r] = append(f.Rows[r], values[r])
		}
		return nil
	}
	for r := range f.Rows {
		f.Rows[r][idx] = values[r]
	}
	return nil
}

// FillMissingUUIDs gives every row without a value in column a fresh v4 UUID
// and reports how many cells were filled. The column is added if missing.
func (f *Frame) FillMissingUUIDs(column string) int {
	idx := f.Index(column)
	if idx < 0 {
		f.Columns = append(f.Columns, column)
		for r := range f.Rows {
			f.Rows[r] = append(f.Rows[r], uuid.NewString())
		}
		return len(f.Rows)
	}

	filled := 0
	for _, row := range f.Rows {
		if IsEmpty(row[idx]) {
			row[idx] = uuid.NewString()
			filled++
		}
	}
	return filled
}

// EncodeNested replaces object and array cells with their JSON text so they
// can be bound as plain parameters.
func (f *Frame) EncodeNested() error {
	for r, row := range f.Rows {
		for c, cell := range row {
			switch cell.(type) {
			case map[string]any, []any:
				encoded, err := json.Marshal(cell)
				if err != nil {
					return fmt.Errorf("failed to encode %s at row %d: %w", f.Columns[c], r+1, err)
				}
				row[c] = string(encoded)
			}
		}
	}
	return nil
}

// Distinct returns the non-empty values of column in first-seen order.
func (f *Frame) Distinct(column string) []any {
	idx := f.Index(column)
	if idx < 0 {
		return nil
	}

	seen := make(map[string]bool)
	var values []any
	for _, row := range f.Rows {
		cell := row[idx]
		if IsEmpty(cell) {
			continue
		}
		key := fmt.Sprint(cell)
		if seen[key] {
			continue
		}
		seen[key] = true
		values = append(values, cell)
	}
	return values
}

func IsEmpty(v any) bool {
	if v == nil {
		return true
	}
	s, ok := v.(string)
	return ok && s == ""
}
