package table

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/parquet-go/parquet-go"
	"github.com/rotisserie/eris"
)

// columnsMetadataKey holds the ordered column list with kinds. Readers take
// nesting from it instead of guessing, and it restores the original column
// order (the parquet group itself is sorted by name).
const columnsMetadataKey = "scoracle.columns"

const readBatch = 256

type columnMeta struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

// WriteParquet writes the table as a snappy-compressed parquet file. Every
// column is optional; nested columns use the JSON logical type.
func WriteParquet(w io.Writer, t *Table) error {
	cols := t.Columns()
	if len(cols) == 0 {
		return eris.New("parquet: table has no columns")
	}

	group := make(parquet.Group, len(cols))
	kinds := make(map[string]Kind, len(cols))
	meta := make([]columnMeta, len(cols))
	for i, c := range cols {
		group[c.Name] = parquet.Optional(leafNode(c.Kind))
		kinds[c.Name] = c.Kind
		meta[i] = columnMeta{Name: c.Name, Kind: c.Kind.String()}
	}
	schema := parquet.NewSchema("scoracle", group)

	metaJSON, err := json.Marshal(meta)
	if err != nil {
		return eris.Wrap(err, "parquet: encode column metadata")
	}

	pw := parquet.NewWriter(w,
		schema,
		parquet.Compression(&parquet.Snappy),
		parquet.KeyValueMetadata(columnsMetadataKey, string(metaJSON)),
	)

	paths := schema.Columns()
	rows := make([]parquet.Row, 0, len(t.Rows))
	for n, r := range t.Rows {
		row := make(parquet.Row, len(paths))
		for i, path := range paths {
			name := path[0]
			v, err := toValue(r[name], kinds[name])
			if err != nil {
				return eris.Wrapf(err, "parquet: row %d column %q", n, name)
			}
			if v.IsNull() {
				row[i] = v.Level(0, 0, i)
			} else {
				row[i] = v.Level(0, 1, i)
			}
		}
		rows = append(rows, row)
	}

	if _, err := pw.WriteRows(rows); err != nil {
		return eris.Wrap(err, "parquet: write rows")
	}
	if err := pw.Close(); err != nil {
		return eris.Wrap(err, "parquet: close writer")
	}
	return nil
}

// ReadParquet reads a parquet file. Files written by WriteParquet come back
// with their original column order and kinds; other files are typed from
// their physical schema.
func ReadParquet(r io.ReaderAt, size int64) (*Table, error) {
	f, err := parquet.OpenFile(r, size)
	if err != nil {
		return nil, eris.Wrap(err, "parquet: open file")
	}

	cols, err := fileColumns(f)
	if err != nil {
		return nil, err
	}
	kinds := make(map[string]Kind, len(cols))
	for _, c := range cols {
		kinds[c.Name] = c.Kind
	}

	t := New(cols...)
	paths := f.Schema().Columns()
	buf := make([]parquet.Row, readBatch)

	for _, rg := range f.RowGroups() {
		rows := rg.Rows()
		for {
			n, readErr := rows.ReadRows(buf)
			for _, pr := range buf[:n] {
				row := make(Row, len(paths))
				for _, v := range pr {
					name := paths[v.Column()][0]
					cell, err := fromValue(v, kinds[name])
					if err != nil {
						rows.Close()
						return nil, eris.Wrapf(err, "parquet: column %q", name)
					}
					row[name] = cell
				}
				t.Rows = append(t.Rows, row)
			}
			if readErr == io.EOF {
				break
			}
			if readErr != nil {
				rows.Close()
				return nil, eris.Wrap(readErr, "parquet: read rows")
			}
		}
		if err := rows.Close(); err != nil {
			return nil, eris.Wrap(err, "parquet: close rows")
		}
	}
	return t, nil
}

func leafNode(k Kind) parquet.Node {
	switch k {
	case KindInt:
		return parquet.Int(64)
	case KindFloat:
		return parquet.Leaf(parquet.DoubleType)
	case KindBool:
		return parquet.Leaf(parquet.BooleanType)
	case KindNested:
		return parquet.JSON()
	default:
		return parquet.String()
	}
}

func toValue(v interface{}, k Kind) (parquet.Value, error) {
	if v == nil {
		return parquet.NullValue(), nil
	}
	switch k {
	case KindString:
		s, ok := v.(string)
		if !ok {
			s = fmt.Sprint(v)
		}
		return parquet.ByteArrayValue([]byte(s)), nil
	case KindInt:
		switch n := v.(type) {
		case int64:
			return parquet.Int64Value(n), nil
		case int:
			return parquet.Int64Value(int64(n)), nil
		}
	case KindFloat:
		switch n := v.(type) {
		case float64:
			return parquet.DoubleValue(n), nil
		case int64:
			return parquet.DoubleValue(float64(n)), nil
		}
	case KindBool:
		if b, ok := v.(bool); ok {
			return parquet.BooleanValue(b), nil
		}
	case KindNested:
		b, err := encodeNested(v)
		if err != nil {
			return parquet.Value{}, eris.Wrap(err, "encode nested value")
		}
		return parquet.ByteArrayValue(b), nil
	}
	return parquet.Value{}, eris.Errorf("value %v (%T) does not fit a %s column", v, v, k)
}

func fromValue(v parquet.Value, k Kind) (interface{}, error) {
	if v.IsNull() {
		return nil, nil
	}
	switch k {
	case KindInt:
		if v.Kind() == parquet.Int32 {
			return int64(v.Int32()), nil
		}
		return v.Int64(), nil
	case KindFloat:
		if v.Kind() == parquet.Float {
			return float64(v.Float()), nil
		}
		return v.Double(), nil
	case KindBool:
		return v.Boolean(), nil
	case KindNested:
		return DecodeValue(v.ByteArray())
	default:
		return string(v.ByteArray()), nil
	}
}

// encodeNested writes a nested cell as JSON. A top-level float always carries
// a fraction or exponent so it decodes as a float again, never as an int.
func encodeNested(v interface{}) ([]byte, error) {
	f, ok := v.(float64)
	if !ok || math.IsInf(f, 0) || math.IsNaN(f) {
		return json.Marshal(v)
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return []byte(s), nil
}

// fileColumns prefers the explicit column metadata and falls back to the
// physical schema for foreign files.
func fileColumns(f *parquet.File) ([]Column, error) {
	if raw, ok := f.Lookup(columnsMetadataKey); ok {
		var meta []columnMeta
		if err := json.Unmarshal([]byte(raw), &meta); err != nil {
			return nil, eris.Wrap(err, "parquet: decode column metadata")
		}
		cols := make([]Column, len(meta))
		for i, m := range meta {
			k, err := ParseKind(m.Kind)
			if err != nil {
				return nil, err
			}
			cols[i] = Column{Name: m.Name, Kind: k}
		}
		return cols, nil
	}

	var cols []Column
	for _, field := range f.Schema().Fields() {
		if !field.Leaf() {
			return nil, eris.Errorf("parquet: group column %q is not supported", field.Name())
		}
		cols = append(cols, Column{Name: field.Name(), Kind: physicalKind(field)})
	}
	return cols, nil
}

func physicalKind(field parquet.Field) Kind {
	typ := field.Type()
	if lt := typ.LogicalType(); lt != nil && lt.Json != nil {
		return KindNested
	}
	switch typ.Kind() {
	case parquet.Boolean:
		return KindBool
	case parquet.Int32, parquet.Int64:
		return KindInt
	case parquet.Float, parquet.Double:
		return KindFloat
	default:
		return KindString
	}
}
