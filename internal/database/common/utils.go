package common

import (
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const MaxBatchRows = 500

type QueryResult struct {
	Columns []string
	Rows    [][]any
}

// BatchRows returns how many rows of width columns fit in one INSERT without
// exceeding the provider's bind parameter limit.
func BatchRows(columns, maxParams int) int {
	if columns <= 0 {
		return MaxBatchRows
	}
	n := maxParams / columns
	if n < 1 {
		n = 1
	}
	return min(n, MaxBatchRows)
}

// ChunkKeys splits keys into slices of at most size elements, so that an IN
// list stays under the provider's bind parameter limit.
func ChunkKeys(keys []any, size int) [][]any {
	if size < 1 {
		size = 1
	}
	chunks := make([][]any, 0, (len(keys)+size-1)/size)
	for start := 0; start < len(keys); start += size {
		chunks = append(chunks, keys[start:min(start+size, len(keys))])
	}
	return chunks
}

// NormalizeValue turns driver specific scan results into plain Go values that can be
// re-inserted into another database.
func NormalizeValue(val any) any {
	switch v := val.(type) {
	case nil:
		return nil
	case []byte:
		return string(v)
	case [16]byte:
		return uuid.UUID(v).String()
	case string, bool, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return v
	case map[string]any, []any, time.Time:
		return v
	case fmt.Stringer:
		return v.String()
	case driver.Valuer:
		dv, err := v.Value()
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return NormalizeValue(dv)
	default:
		return v
	}
}

// LookupKey normalises a relationship key so that 7, int64(7) and "7" resolve alike.
func LookupKey(val any) string {
	return fmt.Sprintf("%v", NormalizeValue(val))
}
