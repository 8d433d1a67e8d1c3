package table

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
)

// WriteCSV writes the table as comma-separated text with a header row. Nested
// cells are written as compact JSON and nulls as empty fields.
func WriteCSV(w io.Writer, t *Table) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(t.Names()); err != nil {
		return eris.Wrap(err, "csv: write header")
	}

	cols := t.Columns()
	record := make([]string, len(cols))
	for n, row := range t.Rows {
		for i, c := range cols {
			cell, err := formatCell(row[c.Name])
			if err != nil {
				return eris.Wrapf(err, "csv: row %d column %q", n, c.Name)
			}
			record[i] = cell
		}
		if err := cw.Write(record); err != nil {
			return eris.Wrapf(err, "csv: write row %d", n)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return eris.Wrap(err, "csv: flush")
	}
	return nil
}

// ReadCSV reads a table written by WriteCSV or any headed CSV file.
//
// Cells are typed by their text: empty is null, integers become int64, other
// numbers float64, true/false (either case of the first letter) bool. A cell
// starting with '{' or '[' is parsed as JSON and kept as a string if that
// fails. Nesting is guessed from that prefix alone, so the round trip is lossy
// for nested values whose JSON form starts with anything else.
func ReadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return New(), nil
	}
	if err != nil {
		return nil, eris.Wrap(err, "csv: read header")
	}

	t := New()
	for _, name := range header {
		t.Declare(name)
	}

	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, eris.Wrapf(err, "csv: read line %d", line)
		}
		row := make(Row, len(header))
		for i, name := range header {
			if i < len(record) {
				row[name] = parseCell(record[i])
			} else {
				row[name] = nil
			}
		}
		t.Append(row)
	}
	return t, nil
}

func formatCell(v interface{}) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		return x, nil
	case bool:
		return strconv.FormatBool(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case int:
		return strconv.Itoa(x), nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}
}

func parseCell(s string) interface{} {
	if s == "" {
		return nil
	}
	if strings.HasPrefix(s, "{") || strings.HasPrefix(s, "[") {
		var v interface{}
		if err := json.Unmarshal([]byte(s), &v); err == nil {
			return v
		}
		return s
	}
	if looksNumeric(s) {
		if i, err := strconv.ParseInt(s, 10, 64); err == nil {
			return i
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
			return f
		}
	}
	switch s {
	case "true", "True":
		return true
	case "false", "False":
		return false
	}
	return s
}

// looksNumeric keeps ParseFloat away from words like "Inf" or "NaN". Signed
// infinities get past it and are rejected by parseCell.
func looksNumeric(s string) bool {
	c := s[0]
	return (c >= '0' && c <= '9') || c == '-' || c == '+' || c == '.'
}

// DecodeValue turns one JSON value into a cell. Objects and arrays decode to
// their generic Go form; top-level numbers become int64 when integral.
func DecodeValue(raw json.RawMessage) (interface{}, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 {
		return nil, nil
	}
	if trimmed[0] == '{' || trimmed[0] == '[' {
		var v interface{}
		if err := json.Unmarshal(trimmed, &v); err != nil {
			return nil, eris.Wrap(err, "decode nested value")
		}
		return v, nil
	}
	dec := json.NewDecoder(bytes.NewReader(trimmed))
	dec.UseNumber()
	var v interface{}
	if err := dec.Decode(&v); err != nil {
		return nil, eris.Wrap(err, "decode scalar value")
	}
	return Normalize(v), nil
}
