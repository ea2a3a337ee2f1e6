package frame

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrEmptyFile         = errors.New("file contains no data")
)

var Formats = []string{"csv", "xlsx", "json", "ods"}

// FormatFromName maps a file name's extension to a loader format.
func FormatFromName(name string) string {
	switch strings.ToLower(strings.TrimPrefix(filepath.Ext(name), ".")) {
	case "csv", "txt":
		return "csv"
	case "xlsx", "xlsm":
		return "xlsx"
	case "json", "jsonl", "ndjson":
		return "json"
	case "ods":
		return "ods"
	}
	return ""
}

// Load reads r with the loader for format, or for name's extension when format
// is empty.
func Load(format, name string, r io.Reader) (*Frame, error) {
	if format == "" {
		format = FormatFromName(name)
	}

	switch strings.ToLower(format) {
	case "csv":
		return LoadCSV(r)
	case "xlsx":
		return LoadXLSX(r)
	case "json", "jsonl":
		return LoadJSON(r)
	case "ods":
		return LoadODS(r)
	}
	if format == "" {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, name)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
}

// fromRecords builds a frame from a header record followed by data records.
// Blank records are dropped, short records padded with NULL and long records
// widen the header.
func fromRecords(records [][]string) (*Frame, error) {
	if len(records) > 0 && len(records[0]) > 0 {
		records[0][0] = strings.TrimPrefix(records[0][0], "\ufeff")
	}

	var data [][]string
	var header []string
	for _, record := range records {
		if isBlank(record) {
			continue
		}
		if header == nil {
			header = record
			continue
		}
		data = append(data, record)
	}
	if header == nil {
		return nil, ErrEmptyFile
	}

	width := len(header)
	for _, record := range data {
		width = max(width, len(record))
	}
	for len(header) < width {
		header = append(header, "")
	}

	rows := make([][]any, len(data))
	for r, record := range data {
		row := make([]any, width)
		for c, cell := range record {
			if cell != "" {
				row[c] = cell
			}
		}
		rows[r] = row
	}
	return New(uniqueColumns(header), rows), nil
}

// uniqueColumns names blank headers by position and suffixes repeats _2, _3.
func uniqueColumns(header []string) []string {
	columns := make([]string, len(header))
	used := make(map[string]bool, len(header))
	for i, name := range header {
		name = strings.TrimSpace(name)
		if name == "" {
			name = fmt.Sprintf("column_%d", i+1)
		}
		candidate := name
		for n := 2; used[candidate]; n++ {
			candidate = fmt.Sprintf("%s_%d", name, n)
		}
		used[candidate] = true
		columns[i] = candidate
	}
	return columns
}

func isBlank(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
