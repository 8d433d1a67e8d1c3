package table

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppend_InfersAndWidensKinds(t *testing.T) {
	tbl := New(Column{Name: "id", Kind: KindString})
	tbl.Append(Row{"id": "a", "minute": 3, "x": nil})
	tbl.Append(Row{"id": "b", "minute": 4.5, "x": true})

	minute, ok := tbl.Column("minute")
	require.True(t, ok)
	assert.Equal(t, KindFloat, minute.Kind)

	x, ok := tbl.Column("x")
	require.True(t, ok)
	assert.Equal(t, KindBool, x.Kind, "a leading null must not fix the kind")

	assert.Equal(t, int64(3), tbl.Rows[0]["minute"])
	assert.Equal(t, []string{"id", "minute", "x"}, tbl.Names())
}

func TestAppend_MixedKindsBecomeNested(t *testing.T) {
	tbl := New()
	tbl.Append(Row{"v": "text"})
	tbl.Append(Row{"v": 2})

	c, _ := tbl.Column("v")
	assert.Equal(t, KindNested, c.Kind)
}

func TestAppend_JSONNumber(t *testing.T) {
	tbl := New()
	tbl.Append(Row{"i": json.Number("12"), "f": json.Number("1.5")})
	assert.Equal(t, int64(12), tbl.Rows[0]["i"])
	assert.Equal(t, 1.5, tbl.Rows[0]["f"])
}

func TestSetAndRename(t *testing.T) {
	tbl := New(Column{Name: "event_uuid", Kind: KindString})
	tbl.Append(Row{"event_uuid": "e1"})
	tbl.Append(Row{"event_uuid": "e2"})

	tbl.Set("match_id", 42)
	tbl.Rename("event_uuid", "id")

	assert.False(t, tbl.Has("event_uuid"))
	c, ok := tbl.Column("match_id")
	require.True(t, ok)
	assert.Equal(t, KindInt, c.Kind)
	for _, row := range tbl.Rows {
		assert.Equal(t, int64(42), row["match_id"])
		assert.Contains(t, row, "id")
		assert.NotContains(t, row, "event_uuid")
	}
	assert.Equal(t, []string{"id", "match_id"}, tbl.Names())
}

func TestRename_Missing(t *testing.T) {
	tbl := New(Column{Name: "id", Kind: KindString})
	tbl.Rename("event_uuid", "id")
	assert.Equal(t, []string{"id"}, tbl.Names())
}

func TestConcat_UnionOfColumns(t *testing.T) {
	a := New()
	a.Append(Row{"id": "a1", "minute": 1})
	b := New()
	b.Append(Row{"id": "b1", "shot": map[string]interface{}{"xg": 0.1}})

	out := Concat(a, nil, b)
	assert.Equal(t, 2, out.Len())
	assert.Equal(t, []string{"id", "minute", "shot"}, out.Names())
	c, _ := out.Column("shot")
	assert.Equal(t, KindNested, c.Kind)
}

func TestSelect(t *testing.T) {
	tbl := New()
	for i := 0; i < 5; i++ {
		tbl.Append(Row{"n": i})
	}
	even := tbl.Select(func(r Row) bool { return r["n"].(int64)%2 == 0 })
	assert.Equal(t, 3, even.Len())
	assert.Equal(t, tbl.Names(), even.Names())
	assert.Equal(t, 5, tbl.Len())
}

func TestMarshalJSON(t *testing.T) {
	b, err := json.Marshal(New())
	require.NoError(t, err)
	assert.Equal(t, "[]", string(b))
}

func TestParseKind(t *testing.T) {
	for _, k := range []Kind{KindString, KindInt, KindFloat, KindBool, KindNested} {
		got, err := ParseKind(k.String())
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	_, err := ParseKind("decimal")
	assert.Error(t, err)
}
