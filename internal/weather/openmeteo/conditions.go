package openmeteo

// descriptionUnknown is returned for any WMO code outside the table.
const descriptionUnknown = "Unknown"

// weatherDescriptions maps WMO weather interpretation codes to display text.
var weatherDescriptions = map[int]string{
	0:  "Clear sky",
	1:  "Mainly clear",
	2:  "Partly cloudy",
	3:  "Overcast",
	45: "Fog",
	48: "Depositing rime fog",
	51: "Light drizzle",
	53: "Moderate drizzle",
	55: "Dense drizzle",
	56: "Light freezing drizzle",
	57: "Dense freezing drizzle",
	61: "Slight rain",
	63: "Moderate rain",
	65: "Heavy rain",
	66: "Light freezing rain",
	67: "Heavy freezing rain",
	71: "Slight snow fall",
	73: "Moderate snow fall",
	75: "Heavy snow fall",
	77: "Snow grains",
	80: "Slight rain showers",
	81: "Moderate rain showers",
	82: "Violent rain showers",
	85: "Slight snow showers",
	86: "Heavy snow showers",
	95: "Thunderstorm",
	96: "Thunderstorm with slight hail",
	99: "Thunderstorm with heavy hail",
}

// describeCode returns the display text for a WMO code, or "Unknown".
func describeCode(code int) string {
	if desc, ok := weatherDescriptions[code]; ok {
		return desc
	}
	return descriptionUnknown
}

// iconForCode maps a WMO weather code to a 2-digit condition icon id with a
// day/night suffix. Codes outside the partition fall back to the clear-sky
// icon.
func iconForCode(code int, isDay bool) string {
	var id string
	switch code {
	case 0: // clear
		id = "01"
	case 1: // mainly clear
		id = "02"
	case 2: // partly cloudy
		id = "03"
	case 3: // overcast
		id = "04"
	case 45, 48: // fog
		id = "50"
	case 51, 53, 55, 56, 57: // drizzle
		id = "09"
	case 61, 63: // rain
		id = "10"
	case 65, 66, 67: // heavy and freezing rain
		id = "10"
	case 71, 73, 75, 77, 85, 86: // snow, snow grains, snow showers
		id = "13"
	case 80, 81, 82: // rain showers
		id = "09"
	case 95, 96, 99: // thunderstorm
		id = "11"
	default:
		id = "01"
	}

	if isDay {
		return id + "d"
	}
	return id + "n"
}
