package exporter

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pkplot/pkg/contracts/domain"
)

func TestCSVWriter_WriteResiduals(t *testing.T) {
	dir := t.TempDir()
	w := NewCSVWriter(dir, nil)

	matched := []domain.MatchedObservation{
		{
			Observation:  domain.Observation{Group: "A", Time: 10, Value: 5, TimeUnit: domain.UnitMinute},
			MatchedTime:  9,
			MatchedValue: 4,
			Residual:     -1,
		},
		{
			Observation:  domain.Observation{Group: "A", Time: 20, Value: 8, TimeUnit: domain.UnitMinute},
			MatchedTime:  21,
			MatchedValue: 9,
			Residual:     1,
		},
	}
	require.NoError(t, w.WriteResiduals("residuals.csv", matched))

	raw, err := os.ReadFile(filepath.Join(dir, "residuals.csv"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(raw), "\xEF\xBB\xBF"), "BOM prefix for Excel")

	reader := csv.NewReader(strings.NewReader(strings.TrimPrefix(string(raw), "\xEF\xBB\xBF")))
	records, err := reader.ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, []string{"group", "time", "observed", "matched_time", "simulated", "residual", "time_unit"}, records[0])
	assert.Equal(t, []string{"A", "10", "5", "9", "4", "-1", "min"}, records[1])
	assert.Equal(t, []string{"A", "20", "8", "21", "9", "1", "min"}, records[2])
}

func TestCSVWriter_WriteCSV_CreatesNestedDirectories(t *testing.T) {
	dir := t.TempDir()
	w := NewCSVWriter(dir, nil)

	err := w.WriteCSV(filepath.Join("nested", "out.csv"), WriteOptions{
		Headers: []string{"a", "b"},
		Records: [][]string{{"1", "2"}},
	})
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "nested", "out.csv"))
	assert.NoError(t, err)
}

func TestCSVWriter_WriteFigure(t *testing.T) {
	dir := t.TempDir()
	w := NewCSVWriter(dir, nil)

	png := []byte{0x89, 'P', 'N', 'G'}
	require.NoError(t, w.WriteFigure("figures/profile.png", png))

	raw, err := os.ReadFile(filepath.Join(dir, "figures", "profile.png"))
	require.NoError(t, err)
	assert.Equal(t, png, raw)
}
