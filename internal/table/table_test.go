package table

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RejectsDuplicateColumns(t *testing.T) {
	_, err := New([]string{"a", "b", "a"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), `"a"`)
}

func TestFromRows(t *testing.T) {
	tbl, err := FromRows(
		[]string{"id", "age"},
		[][]string{{"1", "40"}, {"2"}},
	)
	require.NoError(t, err)

	assert.Equal(t, 2, tbl.Len())
	assert.Equal(t, "40", tbl.Get(0, "age"))
	assert.Equal(t, "", tbl.Get(1, "age"), "short rows pad with empty cells")
}

func TestFromRows_RejectsWideRows(t *testing.T) {
	_, err := FromRows([]string{"id"}, [][]string{{"1", "extra"}})
	require.Error(t, err)
}

func TestAddColumn(t *testing.T) {
	tbl, err := FromRows([]string{"id"}, [][]string{{"1"}, {"2"}})
	require.NoError(t, err)

	require.NoError(t, tbl.AddColumn("score"))
	assert.Equal(t, []string{"id", "score"}, tbl.Header())
	assert.Equal(t, "", tbl.Get(0, "score"))

	tbl.Set(0, "score", "95.5")
	assert.Equal(t, "95.5", tbl.Get(0, "score"))
	assert.Equal(t, "1", tbl.Get(0, "id"), "existing cells untouched")

	assert.Error(t, tbl.AddColumn("id"), "must not clobber source columns")
}

func TestFloat(t *testing.T) {
	tbl, err := FromRows(
		[]string{"v"},
		[][]string{{"42.5"}, {" 7 "}, {""}, {"n/a"}},
	)
	require.NoError(t, err)

	v, ok := tbl.Float(0, "v")
	assert.True(t, ok)
	assert.Equal(t, 42.5, v)

	v, ok = tbl.Float(1, "v")
	assert.True(t, ok, "whitespace-padded numbers parse")
	assert.Equal(t, 7.0, v)

	_, ok = tbl.Float(2, "v")
	assert.False(t, ok, "empty cell is missing")

	_, ok = tbl.Float(3, "v")
	assert.False(t, ok, "non-numeric cell is missing")

	_, ok = tbl.Float(0, "no_such_column")
	assert.False(t, ok)
}

func TestFilter_PreservesOrder(t *testing.T) {
	tbl, err := FromRows(
		[]string{"id"},
		[][]string{{"a"}, {"b"}, {"c"}, {"d"}},
	)
	require.NoError(t, err)

	kept := tbl.Filter(func(row int) bool { return row%2 == 0 })

	assert.Equal(t, 2, kept.Len())
	assert.Equal(t, "a", kept.Get(0, "id"))
	assert.Equal(t, "c", kept.Get(1, "id"))
	assert.Equal(t, 4, tbl.Len(), "receiver unchanged")
}

func TestFilter_IndependentColumns(t *testing.T) {
	tbl, err := FromRows([]string{"id"}, [][]string{{"a"}})
	require.NoError(t, err)

	kept := tbl.Filter(func(int) bool { return true })
	require.NoError(t, kept.AddColumn("extra"))

	assert.False(t, tbl.HasColumn("extra"), "filtered table owns its header")
}
