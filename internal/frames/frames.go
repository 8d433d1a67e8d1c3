// Package frames condenses flat 360 tracking snapshots into one record per
// event, and converts those records to and from their tabular form.
package frames

import (
	"encoding/json"

	"github.com/rotisserie/eris"

	"github.com/albapepper/scoracle-events/internal/provider"
	"github.com/albapepper/scoracle-events/internal/table"
)

// ErrBadLocation is returned when a snapshot location is neither JSON text nor
// a decoded sequence of numbers.
var ErrBadLocation = eris.New("frames: unreadable location")

// Column names of the frames table.
const (
	ColID          = "id"
	ColMatchID     = "match_id"
	ColVisibleArea = "visible_area"
	ColFreezeFrame = "freeze_frame"

	// ColLegacyID is the event key used by files written before the rename to id.
	ColLegacyID = "event_uuid"
)

// Entry is one visible player at the moment of an event.
type Entry struct {
	Location []float64 `json:"location"`
	Teammate bool      `json:"teammate"`
	Actor    bool      `json:"actor"`
	Keeper   bool      `json:"keeper"`
}

// Record is the condensed 360 data of one event.
type Record struct {
	EventID     string
	MatchID     int64
	VisibleArea []float64
	FreezeFrame []Entry
}

type groupKey struct {
	eventID string
	matchID int64
}

// Condense groups snapshots by (event, match) into one Record per group.
//
// The visible area of a record is taken from the first snapshot of its group;
// later snapshots that disagree are ignored. Freeze-frame entries keep input
// order. Records come out in the order their group was first seen.
func Condense(snapshots []provider.TrackingSnapshot) ([]Record, error) {
	index := make(map[groupKey]int)
	var records []Record

	for i, s := range snapshots {
		loc, err := decodeLocation(s.Location)
		if err != nil {
			return nil, eris.Wrapf(err, "snapshot %d event %s", i, s.EventID)
		}
		entry := Entry{Location: loc, Teammate: s.Teammate, Actor: s.Actor, Keeper: s.Keeper}

		key := groupKey{eventID: s.EventID, matchID: s.MatchID}
		n, ok := index[key]
		if !ok {
			n = len(records)
			index[key] = n
			records = append(records, Record{
				EventID:     s.EventID,
				MatchID:     s.MatchID,
				VisibleArea: s.VisibleArea,
			})
		}
		records[n].FreezeFrame = append(records[n].FreezeFrame, entry)
	}
	return records, nil
}

func decodeLocation(v interface{}) ([]float64, error) {
	switch loc := v.(type) {
	case nil:
		return nil, nil
	case []float64:
		return loc, nil
	case string:
		var out []float64
		if err := json.Unmarshal([]byte(loc), &out); err != nil {
			return nil, eris.Wrapf(ErrBadLocation, "%q: %v", loc, err)
		}
		return out, nil
	case []interface{}:
		out := make([]float64, len(loc))
		for i, x := range loc {
			f, ok := provider.ExtractValue(x)
			if !ok {
				return nil, eris.Wrapf(ErrBadLocation, "element %d is %T", i, x)
			}
			out[i] = f
		}
		return out, nil
	default:
		return nil, eris.Wrapf(ErrBadLocation, "unsupported type %T", v)
	}
}

// --------------------------------------------------------------------------
// Tabular form
// --------------------------------------------------------------------------

// ToTable lays records out as rows of id, match_id, visible_area and
// freeze_frame. The last two are nested columns.
func ToTable(records []Record) *table.Table {
	t := table.New(
		table.Column{Name: ColID, Kind: table.KindString},
		table.Column{Name: ColMatchID, Kind: table.KindInt},
		table.Column{Name: ColVisibleArea, Kind: table.KindNested},
		table.Column{Name: ColFreezeFrame, Kind: table.KindNested},
	)
	for _, r := range records {
		var entries interface{}
		if len(r.FreezeFrame) > 0 {
			list := make([]interface{}, len(r.FreezeFrame))
			for i, e := range r.FreezeFrame {
				list[i] = map[string]interface{}{
					"location": floats(e.Location),
					"teammate": e.Teammate,
					"actor":    e.Actor,
					"keeper":   e.Keeper,
				}
			}
			entries = list
		}
		t.Append(table.Row{
			ColID:          r.EventID,
			ColMatchID:     r.MatchID,
			ColVisibleArea: floats(r.VisibleArea),
			ColFreezeFrame: entries,
		})
	}
	return t
}

// FromTable reads records back from a frames table, accepting the legacy
// event_uuid key.
func FromTable(t *table.Table) ([]Record, error) {
	idCol := ColID
	if !t.Has(ColID) && t.Has(ColLegacyID) {
		idCol = ColLegacyID
	}

	records := make([]Record, 0, t.Len())
	for i, row := range t.Rows {
		r := Record{}
		r.EventID, _ = row[idCol].(string)
		r.MatchID, _ = provider.ExtractInt64(row[ColMatchID])

		area, err := decodeLocation(row[ColVisibleArea])
		if err != nil {
			return nil, eris.Wrapf(err, "row %d visible_area", i)
		}
		r.VisibleArea = area

		entries, err := decodeEntries(row[ColFreezeFrame])
		if err != nil {
			return nil, eris.Wrapf(err, "row %d freeze_frame", i)
		}
		r.FreezeFrame = entries
		records = append(records, r)
	}
	return records, nil
}

func decodeEntries(v interface{}) ([]Entry, error) {
	switch ff := v.(type) {
	case nil:
		return nil, nil
	case string:
		var out []Entry
		if err := json.Unmarshal([]byte(ff), &out); err != nil {
			return nil, eris.Wrap(err, "decode freeze frame text")
		}
		return out, nil
	case []interface{}:
		out := make([]Entry, 0, len(ff))
		for i, item := range ff {
			m, ok := item.(map[string]interface{})
			if !ok {
				return nil, eris.Errorf("entry %d is %T", i, item)
			}
			loc, err := decodeLocation(m["location"])
			if err != nil {
				return nil, eris.Wrapf(err, "entry %d", i)
			}
			e := Entry{Location: loc}
			e.Teammate, _ = m["teammate"].(bool)
			e.Actor, _ = m["actor"].(bool)
			e.Keeper, _ = m["keeper"].(bool)
			out = append(out, e)
		}
		return out, nil
	default:
		return nil, eris.Errorf("unsupported freeze frame type %T", v)
	}
}

// floats converts to the generic form nested cells hold.
func floats(xs []float64) interface{} {
	if xs == nil {
		return nil
	}
	out := make([]interface{}, len(xs))
	for i, x := range xs {
		out[i] = x
	}
	return out
}
