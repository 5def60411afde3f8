package ai

import (
	"fmt"
	"strings"

	"github.com/skycastlabs/skycast/internal/weather"
)

// buildIntentPrompt asks the model to split a search query into a city and a
// weather question. The reply must match the ParsedQuery JSON shape.
func buildIntentPrompt(query string) string {
	return fmt.Sprintf(`Extract the city name and the weather question from this search query: %q

Reply with a JSON object holding a "city" field with the place name and an "intent" field with what the user wants to know about the weather. Omit "intent" when the query is only a place name.`, query)
}

// buildInsightPrompt seeds the streamed conditions insight. Wind is always
// m/s in the snapshot, whatever the temperature unit.
func buildInsightPrompt(snap *weather.Snapshot, intent string) string {
	tempUnit := "°C"
	if snap.Units == weather.UnitsImperial {
		tempUnit = "°F"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Current weather in %s, %s: %s.\n", snap.Location.Name, snap.Location.Country, snap.Description)
	fmt.Fprintf(&b, "Temperature %.1f%s, feels like %.1f%s.\n", snap.Temperature, tempUnit, snap.FeelsLike, tempUnit)
	fmt.Fprintf(&b, "Wind %.1f m/s, humidity %.0f%%, UV index %.1f.\n", snap.WindSpeed, snap.Humidity, snap.UVIndex)

	if aq := snap.AirQuality; aq != nil {
		dominant := aq.DominantPollutant()
		fmt.Fprintf(&b, "Air quality: US AQI %d, dominant pollutant %s at %.1f µg/m³.\n",
			aq.USAQI, dominant, aq.Concentration(dominant))
	}

	if intent != "" {
		fmt.Fprintf(&b, "The user asked: %q.\n", intent)
	}

	b.WriteString("\nWrite a concise weather insight in 3 to 4 sentences. ")
	b.WriteString("Answer the user's question first when one is present. ")
	b.WriteString("Include a health warning when the AQI is above 100 or the UV index is 6 or higher. ")
	b.WriteString("Do not open with meta-commentary like \"Here is\" or \"Sure\".")
	return b.String()
}

// buildScenePrompt describes the background image to generate. Day or night
// comes from the icon's daylight marker.
func buildScenePrompt(snap *weather.Snapshot) string {
	timeOfDay := "daytime"
	if snap.IsNight() {
		timeOfDay = "nighttime"
	}

	return fmt.Sprintf("A photorealistic wide-angle photograph of %s at %s, %s. Natural lighting, no people in the foreground, no text or watermarks.",
		snap.Location.Name, timeOfDay, strings.ToLower(snap.Description))
}
