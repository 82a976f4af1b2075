package core_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/nebulaboard/pkg/core"
)

func TestParseSchema(t *testing.T) {
	s, err := core.ParseSchema("notes", "id, title, isPinned, createdDate, updatedDate, *tags")
	require.NoError(t, err)

	assert.Equal(t, "notes", s.Name)
	assert.Equal(t, "id", s.PrimaryKey)
	assert.Equal(t, []core.Index{
		{Field: "title"},
		{Field: "isPinned"},
		{Field: "createdDate"},
		{Field: "updatedDate"},
		{Field: "tags", Multi: true},
	}, s.Indexes)

	idx, ok := s.Lookup("tags")
	assert.True(t, ok)
	assert.True(t, idx.Multi)

	idx, ok = s.Lookup("id")
	assert.True(t, ok)
	assert.False(t, idx.Multi)

	_, ok = s.Lookup("content")
	assert.False(t, ok)
}

func TestParseSchema_PrimaryKeyOnly(t *testing.T) {
	s, err := core.ParseSchema("kv", "key")
	require.NoError(t, err)
	assert.Equal(t, "key", s.PrimaryKey)
	assert.Empty(t, s.Indexes)
}

func TestParseSchema_Invalid(t *testing.T) {
	tests := []struct {
		name string
		decl string
	}{
		{"empty declaration", ""},
		{"empty entry", "id,,title"},
		{"bare star", "id, *"},
		{"duplicate field", "id, title, title"},
		{"duplicate with star", "id, tags, *tags"},
		{"multi primary key", "*id, title"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := core.ParseSchema("bad", tt.decl)
			assert.Error(t, err)
		})
	}

	_, err := core.ParseSchema(" ", "id")
	assert.Error(t, err, "empty name")
}

func TestMustParseSchema_Panics(t *testing.T) {
	assert.Panics(t, func() { core.MustParseSchema("bad", "") })
}
