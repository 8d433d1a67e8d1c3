package loader

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/albapepper/scoracle-events/internal/provider"
	"github.com/albapepper/scoracle-events/internal/table"
)

// ErrDuplicateKey is returned when a join key occurs twice on one side.
var ErrDuplicateKey = eris.New("loader: duplicate join key")

// Coverage reports how many events found 360 data in a merge.
type Coverage struct {
	Events     int
	WithFrames int
}

// Percent is the share of events with 360 data, 0-100.
func (c Coverage) Percent() float64 {
	if c.Events == 0 {
		return 0
	}
	return 100 * float64(c.WithFrames) / float64(c.Events)
}

func (c Coverage) String() string {
	return fmt.Sprintf("%d events (%.1f%%) have 360 data", c.WithFrames, c.Percent())
}

// Merge left-joins right onto left by the key columns. Every left row appears
// once, in order; right fields are null where nothing matched. Non-key columns
// present on both sides are suffixed _x (left) and _y (right). Rows with a null
// key never match.
func Merge(left, right *table.Table, keys ...string) (*table.Table, error) {
	out, _, err := leftJoin(left, right, keys)
	return out, err
}

func leftJoin(left, right *table.Table, keys []string) (*table.Table, int, error) {
	if len(keys) == 0 {
		return nil, 0, eris.New("merge: no join keys")
	}
	for _, k := range keys {
		if !left.Has(k) || !right.Has(k) {
			return nil, 0, eris.Errorf("merge: key column %q missing", k)
		}
	}

	isKey := make(map[string]bool, len(keys))
	for _, k := range keys {
		isKey[k] = true
	}

	index := make(map[string]table.Row, right.Len())
	for i, row := range right.Rows {
		k, ok := joinKey(row, keys)
		if !ok {
			continue
		}
		if _, dup := index[k]; dup {
			return nil, 0, eris.Wrapf(ErrDuplicateKey, "right row %d key %s", i, k)
		}
		index[k] = row
	}

	// Output columns: left as is (overlaps suffixed), then right non-keys.
	leftName := make(map[string]string)
	rightName := make(map[string]string)
	out := table.New()
	for _, c := range left.Columns() {
		name := c.Name
		if !isKey[name] && right.Has(name) {
			name += "_x"
		}
		leftName[c.Name] = name
		out.AddColumn(table.Column{Name: name, Kind: c.Kind})
	}
	for _, c := range right.Columns() {
		if isKey[c.Name] {
			continue
		}
		name := c.Name
		if left.Has(name) {
			name += "_y"
		}
		rightName[c.Name] = name
		out.AddColumn(table.Column{Name: name, Kind: c.Kind})
	}

	seen := make(map[string]bool, left.Len())
	matched := 0
	for i, row := range left.Rows {
		merged := make(table.Row, len(leftName)+len(rightName))
		for from, to := range leftName {
			merged[to] = row[from]
		}
		for _, to := range rightName {
			merged[to] = nil
		}

		if k, ok := joinKey(row, keys); ok {
			if seen[k] {
				return nil, 0, eris.Wrapf(ErrDuplicateKey, "left row %d key %s", i, k)
			}
			seen[k] = true
			if match, ok := index[k]; ok {
				for from, to := range rightName {
					merged[to] = match[from]
				}
				matched++
			}
		}
		out.Rows = append(out.Rows, merged)
	}
	return out, matched, nil
}

// joinKey encodes the key cells of a row as JSON, so 7 and 7.0 compare equal.
// ok is false when any key cell is null.
func joinKey(row table.Row, keys []string) (string, bool) {
	parts := make([]interface{}, len(keys))
	for i, k := range keys {
		v := row[k]
		if v == nil {
			return "", false
		}
		parts[i] = v
	}
	b, err := json.Marshal(parts)
	if err != nil {
		return "", false
	}
	return string(b), true
}

// --------------------------------------------------------------------------
// Filtering
// --------------------------------------------------------------------------

// FilterOptions select events. Empty fields do not filter.
type FilterOptions struct {
	EventType  string
	PlayerName string
}

// Filter keeps the rows whose event type and player name equal the options,
// ignoring case. Both nested {"name": ...} references and plain names are
// understood. Rows lacking a requested field are dropped.
func Filter(t *table.Table, opts FilterOptions) *table.Table {
	return t.Select(func(row table.Row) bool {
		return nameMatches(row["type"], opts.EventType) && nameMatches(row["player"], opts.PlayerName)
	})
}

func nameMatches(v interface{}, want string) bool {
	if want == "" {
		return true
	}
	name, ok := provider.ExtractName(v)
	return ok && strings.EqualFold(name, want)
}
