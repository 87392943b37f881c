package dataset

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pkplot/pkg/contracts/domain"
)

const simulatedCSV = `IndividualId,Time [min],Organism|PeripheralVenousBlood|Aciclovir,Organism|Kidney|Aciclovir
0,0,0.0,0.0
0,10,4.2,1.1
0,20,9.3,2.7
1,10,4.0,1.0
`

func TestSimulatedLoader_Parse(t *testing.T) {
	loader := NewSimulatedLoader(nil)

	samples, err := loader.Parse(strings.NewReader(simulatedCSV), SimulatedOptions{
		PathGroups: map[string]string{
			"Organism|PeripheralVenousBlood|Aciclovir": "Aciclovir",
		},
	})
	require.NoError(t, err)
	require.Len(t, samples, 8, "two output columns, four data rows")

	assert.Equal(t, domain.SimulationSample{
		IndividualID: "0",
		Group:        "Aciclovir",
		Time:         0,
		Value:        0,
		TimeUnit:     domain.UnitMinute,
	}, samples[0])
	assert.Equal(t, "Organism|Kidney|Aciclovir", samples[1].Group,
		"unmapped path keeps the path as group")
	assert.Equal(t, "1", samples[6].IndividualID)
}

func TestSimulatedLoader_Parse_PathFilter(t *testing.T) {
	loader := NewSimulatedLoader(nil)

	samples, err := loader.Parse(strings.NewReader(simulatedCSV), SimulatedOptions{
		PathFilter: []string{"Organism|Kidney|Aciclovir"},
	})
	require.NoError(t, err)
	require.Len(t, samples, 4)
	for _, s := range samples {
		assert.Equal(t, "Organism|Kidney|Aciclovir", s.Group)
	}
}

func TestSimulatedLoader_Parse_Errors(t *testing.T) {
	loader := NewSimulatedLoader(nil)

	tests := []struct {
		name string
		csv  string
	}{
		{"no time column", "A,B\n1,2\n"},
		{"no output columns", "Time [min],IndividualId\n1,0\n"},
		{"invalid time value", "Time [min],Out\nabc,2\n"},
		{"invalid output value", "Time [min],Out\n1,xyz\n"},
		{"empty input", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loader.Parse(strings.NewReader(tt.csv), SimulatedOptions{})
			assert.Error(t, err)
		})
	}
}

func TestNormalizeSampleTimeUnit(t *testing.T) {
	samples := []domain.SimulationSample{
		{Group: "A", Time: 1.5, Value: 4, TimeUnit: domain.UnitHour},
		{Group: "A", Time: 45, Value: 7, TimeUnit: domain.UnitMinute},
	}

	converted, err := NormalizeSampleTimeUnit(samples, domain.UnitMinute)
	require.NoError(t, err)
	assert.Equal(t, 90.0, converted[0].Time)
	assert.Equal(t, domain.UnitMinute, converted[0].TimeUnit)
	assert.Equal(t, 45.0, converted[1].Time)

	// Inputs stay untouched.
	assert.Equal(t, 1.5, samples[0].Time)
	assert.Equal(t, domain.UnitHour, samples[0].TimeUnit)

	_, err = NormalizeSampleTimeUnit([]domain.SimulationSample{
		{Group: "A", Time: 1, TimeUnit: domain.TimeUnit("fortnight")},
	}, domain.UnitMinute)
	assert.Error(t, err)
}

func TestSimulatedLoader_Load(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results.csv")
	require.NoError(t, os.WriteFile(path, []byte(simulatedCSV), 0644))

	loader := NewSimulatedLoader(nil)
	samples, err := loader.Load(path, SimulatedOptions{})
	require.NoError(t, err)
	assert.Len(t, samples, 8)

	_, err = loader.Load(filepath.Join(t.TempDir(), "missing.csv"), SimulatedOptions{})
	assert.Error(t, err)
}
