package importer

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNoMappings        = errors.New("add at least one mapping")
	ErrIncompleteMapping = errors.New("complete all mappings before inserting")
	ErrNoFrame           = errors.New("no file has been uploaded")
	ErrNotConnected      = errors.New("database is not connected")
	ErrTableNotFound     = errors.New("table not found in destination")
)

// MissingColumnsError lists row set columns the destination table lacks.
type MissingColumnsError struct {
	Table   string
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return fmt.Sprintf("columns missing in destination table %s: %s", e.Table, strings.Join(e.Columns, ", "))
}
