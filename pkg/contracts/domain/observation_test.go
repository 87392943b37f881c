package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConvertTime(t *testing.T) {
	tests := []struct {
		name  string
		value float64
		from  TimeUnit
		to    TimeUnit
		want  float64
	}{
		{"same unit", 42, UnitMinute, UnitMinute, 42},
		{"hours to minutes", 2, UnitHour, UnitMinute, 120},
		{"minutes to hours", 90, UnitMinute, UnitHour, 1.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ConvertTime(tt.value, tt.from, tt.to)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("unknown unit fails", func(t *testing.T) {
		_, err := ConvertTime(1, TimeUnit("fortnight"), UnitMinute)
		assert.Error(t, err)
		_, err = ConvertTime(1, UnitMinute, TimeUnit("fortnight"))
		assert.Error(t, err)
	})
}
