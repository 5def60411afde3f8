package weather_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skycastlabs/skycast/internal/weather"
)

func TestParseUnitSystem(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected weather.UnitSystem
		wantErr  bool
	}{
		{"empty defaults to metric", "", weather.UnitsMetric, false},
		{"metric", "metric", weather.UnitsMetric, false},
		{"imperial", "imperial", weather.UnitsImperial, false},
		{"unknown", "kelvin", "", true},
		{"case sensitive", "Metric", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			units, err := weather.ParseUnitSystem(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, weather.ErrInvalidUnitSystem)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, units)
		})
	}
}

func TestSnapshot_IsNight(t *testing.T) {
	tests := []struct {
		name     string
		icon     string
		expected bool
	}{
		{"day icon", "01d", false},
		{"night icon", "01n", true},
		{"rain at night", "10n", true},
		{"rain by day", "10d", false},
		{"empty icon", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := &weather.Snapshot{Icon: tt.icon}
			assert.Equal(t, tt.expected, snap.IsNight())
		})
	}
}
