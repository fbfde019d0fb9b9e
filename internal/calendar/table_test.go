package calendar

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTable_Embedded(t *testing.T) {
	table, err := ParseTable(embeddedTable)
	require.NoError(t, err)
	assert.Contains(t, table.Years, 2025)
	assert.Contains(t, table.Years, 2026)
}

func TestParseTable_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{
			name: "unknown field",
			yaml: "version: \"1\"\nyears:\n  2026:\n    holidays: []\n    workdays: []\n",
		},
		{
			name: "missing version",
			yaml: "years:\n  2026:\n    holidays: [\"2026-01-01\"]\n",
		},
		{
			name: "no years",
			yaml: "version: \"1\"\n",
		},
		{
			name: "bad date",
			yaml: "version: \"1\"\nyears:\n  2026:\n    holidays: [\"2026-13-01\"]\n",
		},
		{
			name: "date under wrong year",
			yaml: "version: \"1\"\nyears:\n  2026:\n    holidays: [\"2025-01-01\"]\n",
		},
		{
			name: "duplicate",
			yaml: "version: \"1\"\nyears:\n  2026:\n    holidays: [\"2026-01-01\", \"2026-01-01\"]\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseTable([]byte(tt.yaml))
			assert.Error(t, err)
		})
	}
}

func TestHash_OrderIndependent(t *testing.T) {
	a := &HolidayTable{Version: "v", Years: map[int]YearHolidays{
		2026: {Holidays: []string{"2026-01-01", "2026-05-01"}},
	}}
	b := &HolidayTable{Version: "v", Years: map[int]YearHolidays{
		2026: {Holidays: []string{"2026-05-01", "2026-01-01"}},
	}}

	ha, err := a.Hash()
	require.NoError(t, err)
	hb, err := b.Hash()
	require.NoError(t, err)
	assert.Equal(t, ha, hb)

	b.Version = "w"
	hc, err := b.Hash()
	require.NoError(t, err)
	assert.NotEqual(t, ha, hc)
}

func TestLoad_OverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "holidays.yaml")
	content := "version: \"test-1\"\nyears:\n  2027:\n    holidays:\n      - \"2027-01-01\"\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cal, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "test-1", cal.Version())
	assert.True(t, cal.Covers(2027))
	assert.False(t, cal.Covers(2026))
	assert.False(t, cal.IsTradingDay(day("2027-01-01")))
	// 2026 holidays are not part of this table
	assert.True(t, cal.IsTradingDay(day("2026-10-09")))
	assert.True(t, cal.IsTradingDay(day("2026-10-01")))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}
