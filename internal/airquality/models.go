// Package airquality holds the normalized air quality reading attached to a
// weather snapshot, plus US AQI banding used when describing conditions.
package airquality

// Pollutant represents an air quality pollutant type.
type Pollutant string

const (
	PollutantPM25 Pollutant = "PM25"
	PollutantPM10 Pollutant = "PM10"
	PollutantNO2  Pollutant = "NO2"
	PollutantO3   Pollutant = "O3"
	PollutantCO   Pollutant = "CO"
)

// Reading is a point-in-time air quality reading for one location.
// Concentrations are µg/m³. A nil *Reading means the provider had no air
// quality data for the location.
type Reading struct {
	// USAQI is the US EPA air quality index.
	USAQI int

	// Pollutant concentrations.
	PM25 float64
	PM10 float64
	NO2  float64
	O3   float64
	CO   float64
}

// Category represents a US AQI health band.
type Category string

const (
	CategoryGood          Category = "GOOD"
	CategoryModerate      Category = "MODERATE"
	CategorySensitive     Category = "UNHEALTHY_FOR_SENSITIVE_GROUPS"
	CategoryUnhealthy     Category = "UNHEALTHY"
	CategoryVeryUnhealthy Category = "VERY_UNHEALTHY"
	CategoryHazardous     Category = "HAZARDOUS"
)

// CategoryForAQI returns the US EPA band for an AQI value.
func CategoryForAQI(aqi int) Category {
	switch {
	case aqi <= 50:
		return CategoryGood
	case aqi <= 100:
		return CategoryModerate
	case aqi <= 150:
		return CategorySensitive
	case aqi <= 200:
		return CategoryUnhealthy
	case aqi <= 300:
		return CategoryVeryUnhealthy
	default:
		return CategoryHazardous
	}
}

// Category returns the US EPA band for the reading.
func (r *Reading) Category() Category {
	return CategoryForAQI(r.USAQI)
}

// Concentration returns the reading's concentration for a pollutant in
// µg/m³.
func (r *Reading) Concentration(p Pollutant) float64 {
	switch p {
	case PollutantPM25:
		return r.PM25
	case PollutantPM10:
		return r.PM10
	case PollutantNO2:
		return r.NO2
	case PollutantO3:
		return r.O3
	case PollutantCO:
		return r.CO
	}
	return 0
}

// DominantPollutant returns the pollutant with the highest concentration.
// PM2.5 wins ties since it is the usual AQI driver.
func (r *Reading) DominantPollutant() Pollutant {
	dominant := PollutantPM25
	highest := r.PM25

	candidates := []struct {
		pollutant Pollutant
		value     float64
	}{
		{PollutantPM10, r.PM10},
		{PollutantNO2, r.NO2},
		{PollutantO3, r.O3},
		{PollutantCO, r.CO},
	}

	for _, c := range candidates {
		if c.value > highest {
			dominant = c.pollutant
			highest = c.value
		}
	}

	return dominant
}
