package frame

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

const (
	officeNS = "urn:oasis:names:tc:opendocument:xmlns:office:1.0"
	tableNS  = "urn:oasis:names:tc:opendocument:xmlns:table:1.0"
	textNS   = "urn:oasis:names:tc:opendocument:xmlns:text:1.0"
)

// LoadODS reads the first table of an OpenDocument spreadsheet.
func LoadODS(r io.Reader) (*Frame, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read spreadsheet: %w", err)
	}

	archive, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to open spreadsheet: %w", err)
	}

	content, err := archive.Open("content.xml")
	if err != nil {
		return nil, fmt.Errorf("failed to open spreadsheet content: %w", err)
	}
	defer content.Close()

	records, err := readODSTable(xml.NewDecoder(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse spreadsheet content: %w", err)
	}
	return fromRecords(records)
}

type odsCell struct {
	text       strings.Builder
	value      string
	typed      bool
	repeat     int
	paragraphs int
}

func (c *odsCell) String() string {
	if c.typed {
		return c.value
	}
	return c.text.String()
}

// readODSTable streams content.xml and returns the rows of the first table.
// Repeated empty cells and rows, which spreadsheet apps emit to pad the grid,
// are only materialised when followed by real content.
func readODSTable(dec *xml.Decoder) ([][]string, error) {
	var (
		records      [][]string
		row          []string
		rowRepeat    int
		pendingEmpty int
		cell         *odsCell
		tableDepth   int
		textDepth    int
		annotation   int
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return nil, err
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch {
			case t.Name.Space == tableNS && t.Name.Local == "table":
				tableDepth++
			case tableDepth == 0:
			case t.Name.Space == officeNS && t.Name.Local == "annotation":
				annotation++
			case annotation > 0:
			case t.Name.Space == tableNS && t.Name.Local == "table-row":
				row = nil
				pendingEmpty = 0
				rowRepeat = repeatAttr(t, "number-rows-repeated")
			case t.Name.Space == tableNS && (t.Name.Local == "table-cell" || t.Name.Local == "covered-table-cell"):
				cell = &odsCell{repeat: repeatAttr(t, "number-columns-repeated")}
				cell.value, cell.typed = typedValue(t)
			case cell != nil && t.Name.Space == textNS:
				switch t.Name.Local {
				case "p", "h":
					if cell.paragraphs > 0 {
						cell.text.WriteByte('\n')
					}
					cell.paragraphs++
					textDepth++
				case "s":
					cell.text.WriteString(strings.Repeat(" ", repeatAttr(t, "c")))
				case "tab":
					cell.text.WriteByte('\t')
				case "line-break":
					cell.text.WriteByte('\n')
				}
			}

		case xml.CharData:
			if cell != nil && textDepth > 0 && annotation == 0 {
				cell.text.Write(t)
			}

		case xml.EndElement:
			switch {
			case t.Name.Space == tableNS && t.Name.Local == "table":
				tableDepth--
				if tableDepth == 0 {
					return records, nil
				}
			case t.Name.Space == officeNS && t.Name.Local == "annotation":
				annotation--
			case annotation > 0:
			case cell != nil && t.Name.Space == textNS && (t.Name.Local == "p" || t.Name.Local == "h"):
				textDepth--
			case cell != nil && t.Name.Space == tableNS && (t.Name.Local == "table-cell" || t.Name.Local == "covered-table-cell"):
				value := cell.String()
				if value == "" {
					pendingEmpty += cell.repeat
				} else {
					for ; pendingEmpty > 0; pendingEmpty-- {
						row = append(row, "")
					}
					for i := 0; i < cell.repeat; i++ {
						row = append(row, value)
					}
				}
				cell = nil
			case t.Name.Space == tableNS && t.Name.Local == "table-row":
				if len(row) > 0 {
					for i := 0; i < rowRepeat; i++ {
						records = append(records, append([]string(nil), row...))
					}
				}
				row = nil
			}
		}
	}
}

func repeatAttr(el xml.StartElement, local string) int {
	for _, attr := range el.Attr {
		if attr.Name.Local == local {
			if n, err := strconv.Atoi(attr.Value); err == nil && n > 0 {
				return n
			}
		}
	}
	return 1
}

// typedValue returns the machine value of numeric, boolean and date cells,
// which the displayed text may have formatted away.
func typedValue(el xml.StartElement) (string, bool) {
	attrs := make(map[string]string)
	for _, attr := range el.Attr {
		if attr.Name.Space == officeNS {
			attrs[attr.Name.Local] = attr.Value
		}
	}

	switch attrs["value-type"] {
	case "float", "percentage", "currency":
		v, ok := attrs["value"]
		return v, ok
	case "boolean":
		v, ok := attrs["boolean-value"]
		return v, ok
	case "date":
		v, ok := attrs["date-value"]
		return v, ok
	case "time":
		v, ok := attrs["time-value"]
		return v, ok
	}
	return "", false
}
