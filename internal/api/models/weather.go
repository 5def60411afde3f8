package models

// Location is a resolved place.
type Location struct {
	Name      string  `json:"name"`
	Country   string  `json:"country"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// AirQuality is the air-quality block of a weather snapshot.
type AirQuality struct {
	USAQI             int     `json:"usAqi"`
	Category          string  `json:"category"`
	DominantPollutant string  `json:"dominantPollutant"`
	PM25              float64 `json:"pm25"`
	PM10              float64 `json:"pm10"`
	NO2               float64 `json:"no2"`
	O3                float64 `json:"o3"`
	CO                float64 `json:"co"`
}

// WeatherSnapshot is the current-conditions response.
type WeatherSnapshot struct {
	Location      Location    `json:"location"`
	Description   string      `json:"description"`
	Icon          string      `json:"icon"`
	Temperature   float64     `json:"temperature"`
	FeelsLike     float64     `json:"feelsLike"`
	TempMin       float64     `json:"tempMin"`
	TempMax       float64     `json:"tempMax"`
	Humidity      float64     `json:"humidity"`
	Pressure      float64     `json:"pressure"`
	WindSpeed     float64     `json:"windSpeed"`
	WindDirection float64     `json:"windDirection"`
	CloudCover    float64     `json:"cloudCover"`
	Visibility    float64     `json:"visibility"`
	DewPoint      float64     `json:"dewPoint"`
	UVIndex       float64     `json:"uvIndex"`
	Precipitation float64     `json:"precipitation"`
	AirQuality    *AirQuality `json:"airQuality,omitempty"`
	Sunrise       Timestamp   `json:"sunrise"`
	Sunset        Timestamp   `json:"sunset"`
	Units         string      `json:"units"`
	FetchedAt     Timestamp   `json:"fetchedAt"`
}

// DailyForecast is one day of the outlook.
type DailyForecast struct {
	Time        Timestamp `json:"time"`
	Temperature float64   `json:"temperature"`
	TempMin     float64   `json:"tempMin"`
	TempMax     float64   `json:"tempMax"`
	FeelsLike   float64   `json:"feelsLike"`
	Icon        string    `json:"icon"`
	Description string    `json:"description"`
	Humidity    float64   `json:"humidity"`
	Pressure    float64   `json:"pressure"`
	PrecipProb  float64   `json:"precipProb"`
}

// HourlyForecast is one hour of the outlook.
type HourlyForecast struct {
	Time        Timestamp `json:"time"`
	Temperature float64   `json:"temperature"`
	Icon        string    `json:"icon"`
	Description string    `json:"description"`
	PrecipProb  float64   `json:"precipProb"`
}

// ForecastSet is the forecast response.
type ForecastSet struct {
	Location  Location         `json:"location"`
	Daily     []DailyForecast  `json:"daily"`
	Hourly    []HourlyForecast `json:"hourly"`
	Units     string           `json:"units"`
	FetchedAt Timestamp        `json:"fetchedAt"`
}
