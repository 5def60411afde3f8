package airquality_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/skycastlabs/skycast/internal/airquality"
)

func TestCategoryForAQI(t *testing.T) {
	tests := []struct {
		name     string
		aqi      int
		expected airquality.Category
	}{
		{name: "zero", aqi: 0, expected: airquality.CategoryGood},
		{name: "good upper bound", aqi: 50, expected: airquality.CategoryGood},
		{name: "moderate lower bound", aqi: 51, expected: airquality.CategoryModerate},
		{name: "moderate upper bound", aqi: 100, expected: airquality.CategoryModerate},
		{name: "sensitive groups", aqi: 125, expected: airquality.CategorySensitive},
		{name: "sensitive upper bound", aqi: 150, expected: airquality.CategorySensitive},
		{name: "unhealthy", aqi: 175, expected: airquality.CategoryUnhealthy},
		{name: "very unhealthy", aqi: 250, expected: airquality.CategoryVeryUnhealthy},
		{name: "very unhealthy upper bound", aqi: 300, expected: airquality.CategoryVeryUnhealthy},
		{name: "hazardous", aqi: 301, expected: airquality.CategoryHazardous},
		{name: "extreme", aqi: 500, expected: airquality.CategoryHazardous},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, airquality.CategoryForAQI(tt.aqi))
		})
	}
}

func TestReading_Category(t *testing.T) {
	reading := &airquality.Reading{USAQI: 42}
	assert.Equal(t, airquality.CategoryGood, reading.Category())
}

func TestReading_Concentration(t *testing.T) {
	reading := &airquality.Reading{PM25: 8.5, PM10: 14.2, NO2: 18.3, O3: 61.0, CO: 153.0}

	assert.InDelta(t, 8.5, reading.Concentration(airquality.PollutantPM25), 0.01)
	assert.InDelta(t, 14.2, reading.Concentration(airquality.PollutantPM10), 0.01)
	assert.InDelta(t, 18.3, reading.Concentration(airquality.PollutantNO2), 0.01)
	assert.InDelta(t, 61.0, reading.Concentration(airquality.PollutantO3), 0.01)
	assert.InDelta(t, 153.0, reading.Concentration(airquality.PollutantCO), 0.01)
	assert.Zero(t, reading.Concentration(airquality.Pollutant("SO2")))
}

func TestReading_DominantPollutant(t *testing.T) {
	tests := []struct {
		name     string
		reading  airquality.Reading
		expected airquality.Pollutant
	}{
		{
			name:     "pm25 highest",
			reading:  airquality.Reading{PM25: 35.0, PM10: 20.0, NO2: 15.0, O3: 30.0, CO: 10.0},
			expected: airquality.PollutantPM25,
		},
		{
			name:     "ozone highest",
			reading:  airquality.Reading{PM25: 10.0, PM10: 20.0, NO2: 15.0, O3: 120.0, CO: 30.0},
			expected: airquality.PollutantO3,
		},
		{
			name:     "pm10 highest",
			reading:  airquality.Reading{PM25: 15.0, PM10: 80.0, NO2: 20.0, O3: 40.0, CO: 10.0},
			expected: airquality.PollutantPM10,
		},
		{
			name:     "carbon monoxide highest",
			reading:  airquality.Reading{PM25: 5.0, PM10: 8.0, NO2: 12.0, O3: 20.0, CO: 250.0},
			expected: airquality.PollutantCO,
		},
		{
			name:     "pm25 wins tie",
			reading:  airquality.Reading{PM25: 50.0, PM10: 50.0, NO2: 50.0, O3: 50.0, CO: 50.0},
			expected: airquality.PollutantPM25,
		},
		{
			name:     "all zero falls back to pm25",
			reading:  airquality.Reading{},
			expected: airquality.PollutantPM25,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.reading.DominantPollutant())
		})
	}
}
