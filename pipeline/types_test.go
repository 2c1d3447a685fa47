package pipeline

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndexDecisions_DuplicateScope_ValidationError(t *testing.T) {
	_, err := IndexDecisions([]Decision{{Scope: "a"}, {Scope: "b"}, {Scope: "a"}})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrValidation))
	assert.Contains(t, err.Error(), "duplicate forecast_entity_id a")
}

func TestDecisionsAllows_UnknownScopeIsClosed(t *testing.T) {
	idx, err := IndexDecisions([]Decision{
		{Scope: "open", AllowAdjustment: true},
		{Scope: "shut", AllowAdjustment: false},
	})
	require.NoError(t, err)
	assert.True(t, idx.Allows("open"))
	assert.False(t, idx.Allows("shut"))
	assert.False(t, idx.Allows("never-seen"))
}

func TestTablePickAndRequire(t *testing.T) {
	tbl := &Table{Name: "dqc_v1", Columns: []string{"forecast_entity_id", "status", "class"}}

	col, idx, ok := tbl.Pick("dqc_class", "class", "status")
	require.True(t, ok)
	assert.Equal(t, "class", col, "priority follows candidate order, not header order")
	assert.Equal(t, 2, idx)

	_, err := tbl.Require("entity_id", "id")
	var se *SchemaError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, []string{"entity_id", "id"}, se.Missing)
	assert.Equal(t, tbl.Columns, se.Present)
	assert.True(t, errors.Is(err, ErrSchema))
}

func TestCell_ShortRow(t *testing.T) {
	assert.Equal(t, "", Cell([]string{"a"}, 3))
	assert.Equal(t, "", Cell([]string{"a"}, -1))
	assert.Equal(t, "a", Cell([]string{"a"}, 0))
}
