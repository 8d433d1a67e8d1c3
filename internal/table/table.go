// Package table is the flat, column-oriented representation shared by the
// collector and the loader, plus the CSV and Parquet codecs that persist it.
//
// A Table is an ordered list of typed columns and a list of rows keyed by
// column name. Scalar cells are string, int64, float64 or bool; nested cells
// are JSON-compatible values (map[string]interface{}, []interface{}). A nil
// cell is null.
package table

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/rotisserie/eris"
)

// Kind is the storage type of a column.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindBool
	KindNested
)

var kindNames = map[Kind]string{
	KindString: "string",
	KindInt:    "int",
	KindFloat:  "float",
	KindBool:   "bool",
	KindNested: "nested",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// ParseKind is the inverse of Kind.String.
func ParseKind(s string) (Kind, error) {
	for k, name := range kindNames {
		if name == s {
			return k, nil
		}
	}
	return KindString, eris.Errorf("table: unknown column kind %q", s)
}

// Column describes one column of a Table.
type Column struct {
	Name string
	Kind Kind
}

// Row maps column names to cell values. Missing keys are null.
type Row map[string]interface{}

// Table is an in-memory dataset.
type Table struct {
	Rows []Row

	cols  []Column
	pos   map[string]int
	typed map[string]bool
}

// New creates an empty table with the given columns. Declared kinds are
// treated as known and are only widened by later values.
func New(cols ...Column) *Table {
	t := &Table{}
	for _, c := range cols {
		t.AddColumn(c)
	}
	return t
}

// Columns returns the columns in order.
func (t *Table) Columns() []Column {
	out := make([]Column, len(t.cols))
	copy(out, t.cols)
	return out
}

// Names returns the column names in order.
func (t *Table) Names() []string {
	out := make([]string, len(t.cols))
	for i, c := range t.cols {
		out[i] = c.Name
	}
	return out
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Has reports whether the table has a column with the given name.
func (t *Table) Has(name string) bool {
	_, ok := t.pos[name]
	return ok
}

// Column returns the named column.
func (t *Table) Column(name string) (Column, bool) {
	i, ok := t.pos[name]
	if !ok {
		return Column{}, false
	}
	return t.cols[i], true
}

// AddColumn appends a column with a known kind. An existing column of the same
// name keeps its position and has its kind widened.
func (t *Table) AddColumn(c Column) {
	t.init()
	if i, ok := t.pos[c.Name]; ok {
		if t.typed[c.Name] {
			t.cols[i].Kind = widen(t.cols[i].Kind, c.Kind)
		} else {
			t.cols[i].Kind = c.Kind
		}
		t.typed[c.Name] = true
		return
	}
	t.pos[c.Name] = len(t.cols)
	t.cols = append(t.cols, c)
	t.typed[c.Name] = true
}

// Declare appends a column whose kind is decided by the first non-null value
// appended to it. Columns that never receive a value stay KindString.
func (t *Table) Declare(name string) {
	t.init()
	if _, ok := t.pos[name]; ok {
		return
	}
	t.pos[name] = len(t.cols)
	t.cols = append(t.cols, Column{Name: name, Kind: KindString})
}

// Append adds a row. Scalars are normalized (int -> int64, float32 -> float64,
// json.Number -> int64 or float64) and unknown keys become new columns, added
// in name order so the layout is deterministic.
func (t *Table) Append(r Row) {
	t.init()
	row := make(Row, len(r))
	var fresh []string
	for k, v := range r {
		row[k] = Normalize(v)
		if _, ok := t.pos[k]; !ok {
			fresh = append(fresh, k)
		}
	}
	sort.Strings(fresh)
	for _, k := range fresh {
		t.Declare(k)
	}
	for k, v := range row {
		t.observe(k, v)
	}
	t.Rows = append(t.Rows, row)
}

// Set stamps every row with the same value, creating or retyping the column.
func (t *Table) Set(name string, v interface{}) {
	t.init()
	v = Normalize(v)
	for _, row := range t.Rows {
		row[name] = v
	}
	if _, ok := t.pos[name]; !ok {
		t.Declare(name)
	}
	if k, ok := InferKind(v); ok {
		t.cols[t.pos[name]].Kind = k
		t.typed[name] = true
	}
}

// Rename renames a column. It is a no-op when from is absent. An existing
// column called to is replaced.
func (t *Table) Rename(from, to string) {
	if !t.Has(from) || from == to {
		return
	}
	if t.Has(to) {
		t.Drop(to)
	}
	i := t.pos[from]
	t.cols[i].Name = to
	delete(t.pos, from)
	t.pos[to] = i
	t.typed[to] = t.typed[from]
	delete(t.typed, from)
	for _, row := range t.Rows {
		if v, ok := row[from]; ok {
			row[to] = v
			delete(row, from)
		}
	}
}

// Drop removes a column and its cells.
func (t *Table) Drop(name string) {
	i, ok := t.pos[name]
	if !ok {
		return
	}
	t.cols = append(t.cols[:i], t.cols[i+1:]...)
	delete(t.typed, name)
	t.reindex()
	for _, row := range t.Rows {
		delete(row, name)
	}
}

// Select returns a new table with the same columns holding the rows for which
// keep returns true. Rows are shared, not copied.
func (t *Table) Select(keep func(Row) bool) *Table {
	out := t.emptyCopy()
	for _, row := range t.Rows {
		if keep(row) {
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}

// Concat stacks tables. Columns are the union in first-seen order; kinds are
// widened across inputs.
func Concat(tables ...*Table) *Table {
	out := New()
	for _, t := range tables {
		if t == nil {
			continue
		}
		for _, c := range t.cols {
			if t.typed[c.Name] {
				out.AddColumn(c)
			} else {
				out.Declare(c.Name)
			}
		}
		out.Rows = append(out.Rows, t.Rows...)
	}
	return out
}

// MarshalJSON encodes the table as a list of row objects.
func (t *Table) MarshalJSON() ([]byte, error) {
	rows := t.Rows
	if rows == nil {
		rows = []Row{}
	}
	return json.Marshal(rows)
}

func (t *Table) init() {
	if t.pos == nil {
		t.pos = make(map[string]int)
		t.typed = make(map[string]bool)
		t.reindex()
	}
}

func (t *Table) reindex() {
	t.pos = make(map[string]int, len(t.cols))
	for i, c := range t.cols {
		t.pos[c.Name] = i
	}
}

func (t *Table) emptyCopy() *Table {
	out := &Table{
		cols:  t.Columns(),
		pos:   make(map[string]int, len(t.cols)),
		typed: make(map[string]bool, len(t.typed)),
	}
	for k, v := range t.pos {
		out.pos[k] = v
	}
	for k, v := range t.typed {
		out.typed[k] = v
	}
	return out
}

func (t *Table) observe(name string, v interface{}) {
	k, ok := InferKind(v)
	if !ok {
		return
	}
	i := t.pos[name]
	if !t.typed[name] {
		t.cols[i].Kind = k
		t.typed[name] = true
		return
	}
	t.cols[i].Kind = widen(t.cols[i].Kind, k)
}

// --------------------------------------------------------------------------
// Values
// --------------------------------------------------------------------------

// InferKind returns the column kind a value belongs to; ok is false for nil.
func InferKind(v interface{}) (Kind, bool) {
	switch v.(type) {
	case nil:
		return KindString, false
	case string:
		return KindString, true
	case bool:
		return KindBool, true
	case int64:
		return KindInt, true
	case float64:
		return KindFloat, true
	default:
		return KindNested, true
	}
}

// Normalize converts Go scalars to the cell types a Table stores.
func Normalize(v interface{}) interface{} {
	switch n := v.(type) {
	case int:
		return int64(n)
	case int32:
		return int64(n)
	case float32:
		return float64(n)
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i
		}
		if f, err := n.Float64(); err == nil {
			return f
		}
		return n.String()
	default:
		return v
	}
}

// widen picks a kind able to hold values of both a and b. Mixed int/float
// becomes float; any other disagreement becomes nested, which stores each
// value as JSON and so keeps its own type.
func widen(a, b Kind) Kind {
	switch {
	case a == b:
		return a
	case (a == KindInt && b == KindFloat) || (a == KindFloat && b == KindInt):
		return KindFloat
	default:
		return KindNested
	}
}
