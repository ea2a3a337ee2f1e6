package frame

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// LoadJSON reads JSON Lines, one object per record. A single top-level array
// of objects is accepted as well. Columns are the union of keys in first-seen
// order; numbers keep their literal text.
func LoadJSON(r io.Reader) (*Frame, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if errors.Is(err, io.EOF) {
		return nil, ErrEmptyFile
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read JSON: %w", err)
	}

	dec := json.NewDecoder(br)
	dec.UseNumber()

	var objects []jsonObject
	if first == '[' {
		if _, err := dec.Token(); err != nil {
			return nil, fmt.Errorf("failed to read JSON: %w", err)
		}
		for dec.More() {
			obj, err := readObject(dec, len(objects)+1)
			if err != nil {
				return nil, err
			}
			objects = append(objects, obj)
		}
		if _, err := dec.Token(); err != nil {
			return nil, fmt.Errorf("failed to read JSON: %w", err)
		}
	} else {
		for {
			obj, err := readObject(dec, len(objects)+1)
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return nil, err
			}
			objects = append(objects, obj)
		}
	}

	if len(objects) == 0 {
		return nil, ErrEmptyFile
	}
	return fromObjects(objects), nil
}

type jsonObject struct {
	keys   []string
	values map[string]any
}

func readObject(dec *json.Decoder, record int) (jsonObject, error) {
	tok, err := dec.Token()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return jsonObject{}, err
		}
		return jsonObject{}, fmt.Errorf("failed to read JSON record %d: %w", record, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return jsonObject{}, fmt.Errorf("JSON record %d is not an object", record)
	}

	obj := jsonObject{values: make(map[string]any)}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return jsonObject{}, fmt.Errorf("failed to read JSON record %d: %w", record, err)
		}
		key := keyTok.(string)

		var value any
		if err := dec.Decode(&value); err != nil {
			return jsonObject{}, fmt.Errorf("failed to read JSON record %d field %s: %w", record, key, err)
		}
		if _, dup := obj.values[key]; !dup {
			obj.keys = append(obj.keys, key)
		}
		obj.values[key] = value
	}
	if _, err := dec.Token(); err != nil {
		return jsonObject{}, fmt.Errorf("failed to read JSON record %d: %w", record, err)
	}
	return obj, nil
}

func fromObjects(objects []jsonObject) *Frame {
	var columns []string
	positions := make(map[string]int)
	for _, obj := range objects {
		for _, key := range obj.keys {
			if _, ok := positions[key]; !ok {
				positions[key] = len(columns)
				columns = append(columns, key)
			}
		}
	}

	rows := make([][]any, len(objects))
	for r, obj := range objects {
		row := make([]any, len(columns))
		for key, value := range obj.values {
			if n, ok := value.(json.Number); ok {
				value = n.String()
			}
			row[positions[key]] = value
		}
		rows[r] = row
	}
	return New(columns, rows)
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		switch b {
		case ' ', '\t', '\r', '\n':
			continue
		case 0xEF:
			// UTF-8 byte order mark
			if _, err := br.Discard(2); err != nil {
				return 0, err
			}
			continue
		}
		return b, br.UnreadByte()
	}
}
