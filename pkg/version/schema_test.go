package version

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadCurrentSchema(t *testing.T) {
	s, err := LoadCurrentSchema()
	require.NoError(t, err)

	assert.Equal(t, Current, s.Version)
	assert.Equal(t, "parsed_messages", s.Table)
	assert.Len(t, s.Columns, 61)

	names := s.ColumnNames()
	assert.Equal(t, []string{"id", "device_hardware_id", "timestamp"}, names[:3])
	assert.Equal(t, "hlp", names[len(names)-1])
}

func TestLoadSchema_Cached(t *testing.T) {
	a, err := LoadSchema("1.0")
	require.NoError(t, err)
	b, err := LoadSchema("1.0")
	require.NoError(t, err)
	assert.Same(t, a, b)
}

func TestLoadSchema_Unknown(t *testing.T) {
	_, err := LoadSchema("9.9")
	assert.Error(t, err)
}

func TestAvailableSchemas(t *testing.T) {
	versions, err := AvailableSchemas()
	require.NoError(t, err)
	assert.Contains(t, versions, Current)
}

func TestSchemaManifest_Column(t *testing.T) {
	s, err := LoadCurrentSchema()
	require.NoError(t, err)

	tests := []struct {
		name     string
		typ      ColumnType
		nullable bool
	}{
		{"id", TypeInteger, false},
		{"timestamp", TypeDateTime, false},
		{"u", TypeText, true},
		{"ot1", TypeText, true},
		{"parsed_ot0", TypeJSON, true},
		{"parsed_ot3", TypeJSON, true},
		{"parsed_ot25", TypeReal, true},
		{"kp", TypeReal, true},
		{"otime", TypeInteger, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, ok := s.Column(tt.name)
			require.True(t, ok)
			assert.Equal(t, tt.typ, c.Type)
			assert.Equal(t, tt.nullable, c.Nullable)
		})
	}

	_, ok := s.Column("nope")
	assert.False(t, ok)
}

func TestSchemaManifest_Diff(t *testing.T) {
	s := &SchemaManifest{
		Table: "t",
		Columns: []ColumnDef{
			{Name: "a", Type: TypeText},
			{Name: "b", Type: TypeInteger},
		},
	}

	missing, extra := s.Diff([]string{"a", "c"})
	assert.Equal(t, []string{"b"}, missing)
	assert.Equal(t, []string{"c"}, extra)

	missing, extra = s.Diff([]string{"b", "a"})
	assert.Empty(t, missing)
	assert.Empty(t, extra)
}

func TestSchemaManifest_Validate(t *testing.T) {
	tests := []struct {
		name string
		s    SchemaManifest
	}{
		{"no table", SchemaManifest{}},
		{"empty column", SchemaManifest{Table: "t", Columns: []ColumnDef{{Type: TypeText}}}},
		{"duplicate", SchemaManifest{Table: "t", Columns: []ColumnDef{{Name: "a", Type: TypeText}, {Name: "a", Type: TypeText}}}},
		{"bad type", SchemaManifest{Table: "t", Columns: []ColumnDef{{Name: "a", Type: "blob"}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Error(t, tt.s.validate())
		})
	}
}
