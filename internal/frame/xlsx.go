package frame

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// LoadXLSX reads the first worksheet of a workbook. Cells keep their stored
// value rather than their displayed text; date-formatted serial numbers are
// turned into ISO dates.
func LoadXLSX(r io.Reader) (*Frame, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFile
	}
	sheet := sheets[0]

	records, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheet, err)
	}

	dates := newDateStyles(f)
	for r, record := range records {
		for c, value := range record {
			serial, err := strconv.ParseFloat(value, 64)
			if err != nil {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return nil, err
			}
			styleID, err := f.GetCellStyle(sheet, cell)
			if err != nil || !dates.isDate(styleID) {
				continue
			}
			if cellType, err := f.GetCellType(sheet, cell); err != nil ||
				cellType == excelize.CellTypeSharedString || cellType == excelize.CellTypeInlineString {
				continue
			}
			if t, err := excelize.ExcelDateToTime(serial, dates.date1904); err == nil {
				record[c] = formatExcelTime(t)
			}
		}
	}
	return fromRecords(records)
}

// dateStyles remembers which cell styles carry a date or time number format.
type dateStyles struct {
	book     *excelize.File
	date1904 bool
	known    map[int]bool
}

func newDateStyles(book *excelize.File) *dateStyles {
	d := &dateStyles{book: book, known: make(map[int]bool)}
	if props, err := book.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		d.date1904 = *props.Date1904
	}
	return d
}

func (d *dateStyles) isDate(styleID int) bool {
	if styleID == 0 {
		return false
	}
	if isDate, ok := d.known[styleID]; ok {
		return isDate
	}

	isDate := false
	if style, err := d.book.GetStyle(styleID); err == nil && style != nil {
		if style.CustomNumFmt != nil {
			isDate = isDateFormat(*style.CustomNumFmt)
		} else {
			isDate = isBuiltInDateFormat(style.NumFmt)
		}
	}
	d.known[styleID] = isDate
	return isDate
}

// isBuiltInDateFormat covers the built-in date and time formats, including
// the East Asian ones.
func isBuiltInDateFormat(id int) bool {
	switch {
	case id >= 14 && id <= 22, id >= 27 && id <= 36, id >= 45 && id <= 47, id >= 50 && id <= 58:
		return true
	}
	return false
}

// isDateFormat reports whether a custom number format renders a date or time.
// Quoted literals, escaped characters and bracketed sections such as colours
// are ignored.
func isDateFormat(format string) bool {
	format = strings.ToLower(format)
	inQuote, inBracket := false, false
	for i := 0; i < len(format); i++ {
		ch := format[i]
		switch {
		case inQuote:
			inQuote = ch != '"'
		case inBracket:
			inBracket = ch != ']'
		case ch == '"':
			inQuote = true
		case ch == '[':
			inBracket = true
		case ch == '\\' || ch == '_' || ch == '*':
			i++
		case ch == ';':
			return false
		case strings.IndexByte("ymdhs", ch) >= 0:
			return true
		}
	}
	return false
}

func formatExcelTime(t time.Time) string {
	if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 {
		return t.Format("2006-01-02")
	}
	return t.Format("2006-01-02T15:04:05")
}
