package ai

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/skycastlabs/skycast/internal/airquality"
	"github.com/skycastlabs/skycast/internal/geocode"
	"github.com/skycastlabs/skycast/internal/weather"
)

func TestNeedsIntentParse(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		expected bool
	}{
		{name: "single token", query: "Paris", expected: false},
		{name: "two tokens", query: "New York", expected: false},
		{name: "three tokens", query: "rain in Paris", expected: true},
		{name: "exactly 20 characters", query: "12345678901234567890", expected: false},
		{name: "21 characters single token", query: "123456789012345678901", expected: true},
		{name: "empty", query: "", expected: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, needsIntentParse(tt.query))
		})
	}
}

func TestBuildInsightPrompt_ImperialUnits(t *testing.T) {
	snap := &weather.Snapshot{
		Location:    geocode.Location{Name: "Chicago", Country: "United States"},
		Description: "Clear sky",
		Temperature: 72.5,
		FeelsLike:   70.1,
		WindSpeed:   4.2,
		Units:       weather.UnitsImperial,
	}

	prompt := buildInsightPrompt(snap, "")
	assert.Contains(t, prompt, "72.5°F")
	// Wind stays metric whatever the temperature unit
	assert.Contains(t, prompt, "4.2 m/s")
}

func TestBuildInsightPrompt_OmitsMissingSections(t *testing.T) {
	snap := &weather.Snapshot{
		Location:    geocode.Location{Name: "Reykjavik", Country: "Iceland"},
		Description: "Overcast",
		Units:       weather.UnitsMetric,
	}

	prompt := buildInsightPrompt(snap, "")
	assert.NotContains(t, prompt, "US AQI", "no air quality line without a reading")
	assert.NotContains(t, prompt, "The user asked", "no intent line without an intent")
}

func TestBuildInsightPrompt_DominantPollutantConcentration(t *testing.T) {
	snap := &weather.Snapshot{
		Location:    geocode.Location{Name: "Delhi", Country: "India"},
		Description: "Fog",
		Units:       weather.UnitsMetric,
		AirQuality: &airquality.Reading{
			USAQI: 180,
			PM25:  95.5,
			PM10:  60.0,
		},
	}

	prompt := buildInsightPrompt(snap, "")
	assert.Contains(t, prompt, "US AQI 180")
	assert.Contains(t, prompt, "PM25 at 95.5")
}

func TestBuildScenePrompt(t *testing.T) {
	snap := &weather.Snapshot{
		Location:    geocode.Location{Name: "Tokyo", Country: "Japan"},
		Description: "Heavy snow fall",
		Icon:        "13n",
	}

	prompt := buildScenePrompt(snap)
	assert.Contains(t, prompt, "Tokyo")
	assert.Contains(t, prompt, "nighttime")
	assert.Contains(t, prompt, "heavy snow fall")
	assert.Contains(t, prompt, "photorealistic")
}

func TestBuildIntentPrompt(t *testing.T) {
	prompt := buildIntentPrompt("Is it raining in Paris")
	assert.Contains(t, prompt, `"Is it raining in Paris"`)
	assert.Contains(t, prompt, `"city"`)
	assert.Contains(t, prompt, `"intent"`)
}
