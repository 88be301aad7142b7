package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// readRecords decodes either a JSON array of objects or newline-delimited
// JSON objects. Blank lines are ignored in the newline-delimited form.
func readRecords(r io.Reader) ([]map[string]any, error) {
	br := bufio.NewReader(r)
	first, err := peekNonSpace(br)
	if errors.Is(err, io.EOF) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	dec := json.NewDecoder(br)
	dec.UseNumber()

	if first == '[' {
		var records []map[string]any
		if err := dec.Decode(&records); err != nil {
			return nil, fmt.Errorf("decode array: %w", err)
		}
		return normalizeNumbers(records), nil
	}

	var records []map[string]any
	for i := 1; ; i++ {
		var rec map[string]any
		err := dec.Decode(&rec)
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("decode record %d: %w", i, err)
		}
		records = append(records, rec)
	}
	return normalizeNumbers(records), nil
}

func peekNonSpace(br *bufio.Reader) (byte, error) {
	for {
		b, err := br.ReadByte()
		if err != nil {
			return 0, err
		}
		if !bytes.ContainsRune([]byte(" \t\r\n"), rune(b)) {
			return b, br.UnreadByte()
		}
	}
}

// normalizeNumbers turns json.Number into float64 so records look the same
// as ones decoded from the HTTP import endpoint.
func normalizeNumbers(records []map[string]any) []map[string]any {
	for _, rec := range records {
		for k, v := range rec {
			rec[k] = convertNumber(v)
		}
	}
	return records
}

func convertNumber(v any) any {
	switch t := v.(type) {
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return t.String()
		}
		return f
	case map[string]any:
		for k, inner := range t {
			t[k] = convertNumber(inner)
		}
		return t
	case []any:
		for i, inner := range t {
			t[i] = convertNumber(inner)
		}
		return t
	}
	return v
}
