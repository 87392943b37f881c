package dataset

import (
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"pkplot/pkg/contracts/domain"
)

func writeObservedWorkbook(t *testing.T, rows [][]interface{}) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}

	path := filepath.Join(t.TempDir(), "observed.xlsx")
	require.NoError(t, f.SaveAs(path))
	return path
}

func TestObservedLoader_Load(t *testing.T) {
	path := writeObservedWorkbook(t, [][]interface{}{
		{"Group Id", "Time [min]", "Value [%]", "Error [%]"},
		{"Aciclovir", 10, 5.5, 0.4},
		{"Aciclovir", 20, 8.1, nil}, // missing uncertainty
		{"Midazolam", 30, 6.0, 0.2},
	})

	loader := NewObservedLoader(slog.Default())
	observations, err := loader.Load(path, ObservedOptions{TimeUnit: domain.UnitMinute})
	require.NoError(t, err)
	require.Len(t, observations, 3)

	assert.Equal(t, domain.Observation{
		Group: "Aciclovir", Time: 10, Value: 5.5, ErrorBar: 0.4, TimeUnit: domain.UnitMinute,
	}, observations[0])
	assert.Equal(t, 0.0, observations[1].ErrorBar, "missing uncertainty normalizes to 0")
	assert.Equal(t, "Midazolam", observations[2].Group)
}

func TestObservedLoader_Load_GroupFilterAndRename(t *testing.T) {
	path := writeObservedWorkbook(t, [][]interface{}{
		{"Group Id", "Time [min]", "Value [%]"},
		{"Aciclovir", 10, 5.5},
		{"Midazolam", 20, 8.1},
		{"Digoxin", 30, 6.0},
	})

	loader := NewObservedLoader(nil)
	observations, err := loader.Load(path, ObservedOptions{
		GroupFilter: []string{"Aciclovir", "Midazolam"},
		GroupRename: map[string]string{"Aciclovir": "Aciclovir iv 250mg"},
	})
	require.NoError(t, err)
	require.Len(t, observations, 2)
	assert.Equal(t, "Aciclovir iv 250mg", observations[0].Group)
	assert.Equal(t, "Midazolam", observations[1].Group)
}

func TestObservedLoader_Load_MissingColumns(t *testing.T) {
	path := writeObservedWorkbook(t, [][]interface{}{
		{"Something", "Else"},
		{"x", "y"},
	})

	loader := NewObservedLoader(nil)
	_, err := loader.Load(path, ObservedOptions{})
	assert.Error(t, err)
}

func TestObservedLoader_Load_NamedSheet(t *testing.T) {
	path := writeObservedWorkbook(t, [][]interface{}{
		{"Group Id", "Time [min]", "Value [%]"},
		{"A", 1, 2},
	})

	loader := NewObservedLoader(nil)
	observations, err := loader.Load(path, ObservedOptions{Sheet: "Sheet1"})
	require.NoError(t, err)
	assert.Len(t, observations, 1)

	_, err = loader.Load(path, ObservedOptions{Sheet: "DoesNotExist"})
	assert.Error(t, err)
}

func TestObservedLoader_Load_TimeColumnBeforeTimeUnitColumn(t *testing.T) {
	// A "Time Unit" column ahead of the actual time column must not
	// capture the "time" fragment.
	path := writeObservedWorkbook(t, [][]interface{}{
		{"Group Id", "Time Unit", "Time [min]", "Value [%]"},
		{"A", "min", 10, 5.5},
		{"A", "min", 20, 8.1},
	})

	loader := NewObservedLoader(nil)
	observations, err := loader.Load(path, ObservedOptions{})
	require.NoError(t, err)
	require.Len(t, observations, 2)
	assert.Equal(t, 10.0, observations[0].Time)
	assert.Equal(t, 20.0, observations[1].Time)
}

func TestFindColumn(t *testing.T) {
	header := []string{"Group Id", "Time Unit", "Time [min]", "time", "Value [%]"}

	tests := []struct {
		fragment string
		want     int
	}{
		{"time", 3},       // exact match beats earlier substring hits
		{"value", 4},      // unit-annotated form
		{"group", 0},      // substring fallback
		{"time unit", 1},  // exact multi-word header
		{"missing", -1},
	}
	for _, tt := range tests {
		t.Run(tt.fragment, func(t *testing.T) {
			assert.Equal(t, tt.want, findColumn(header, tt.fragment))
		})
	}
}

func TestNormalizeTimeUnit(t *testing.T) {
	observations := []domain.Observation{
		{Group: "A", Time: 2, Value: 1, TimeUnit: domain.UnitHour},
		{Group: "A", Time: 30, Value: 2, TimeUnit: domain.UnitMinute},
	}

	converted, err := NormalizeTimeUnit(observations, domain.UnitMinute)
	require.NoError(t, err)
	assert.Equal(t, 120.0, converted[0].Time)
	assert.Equal(t, domain.UnitMinute, converted[0].TimeUnit)
	assert.Equal(t, 30.0, converted[1].Time)

	// Inputs stay untouched.
	assert.Equal(t, 2.0, observations[0].Time)
	assert.Equal(t, domain.UnitHour, observations[0].TimeUnit)
}
