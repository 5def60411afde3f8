package handler

import (
	"github.com/skycastlabs/skycast/internal/airquality"
	"github.com/skycastlabs/skycast/internal/api/models"
	"github.com/skycastlabs/skycast/internal/dashboard"
	"github.com/skycastlabs/skycast/internal/geocode"
	"github.com/skycastlabs/skycast/internal/weather"
)

// Converters from domain types to API response models.

func toLocation(loc geocode.Location) models.Location {
	return models.Location{
		Name:      loc.Name,
		Country:   loc.Country,
		Latitude:  loc.Latitude,
		Longitude: loc.Longitude,
	}
}

func toAirQuality(reading *airquality.Reading) *models.AirQuality {
	if reading == nil {
		return nil
	}
	return &models.AirQuality{
		USAQI:             reading.USAQI,
		Category:          string(reading.Category()),
		DominantPollutant: string(reading.DominantPollutant()),
		PM25:              reading.PM25,
		PM10:              reading.PM10,
		NO2:               reading.NO2,
		O3:                reading.O3,
		CO:                reading.CO,
	}
}

func toWeatherSnapshot(snap *weather.Snapshot) *models.WeatherSnapshot {
	if snap == nil {
		return nil
	}
	return &models.WeatherSnapshot{
		Location:      toLocation(snap.Location),
		Description:   snap.Description,
		Icon:          snap.Icon,
		Temperature:   snap.Temperature,
		FeelsLike:     snap.FeelsLike,
		TempMin:       snap.TempMin,
		TempMax:       snap.TempMax,
		Humidity:      snap.Humidity,
		Pressure:      snap.Pressure,
		WindSpeed:     snap.WindSpeed,
		WindDirection: snap.WindDirection,
		CloudCover:    snap.CloudCover,
		Visibility:    snap.Visibility,
		DewPoint:      snap.DewPoint,
		UVIndex:       snap.UVIndex,
		Precipitation: snap.Precipitation,
		AirQuality:    toAirQuality(snap.AirQuality),
		Sunrise:       models.Timestamp(snap.Sunrise),
		Sunset:        models.Timestamp(snap.Sunset),
		Units:         string(snap.Units),
		FetchedAt:     models.Timestamp(snap.FetchedAt),
	}
}

func toForecastSet(forecast *weather.ForecastSet) *models.ForecastSet {
	if forecast == nil {
		return nil
	}

	daily := make([]models.DailyForecast, 0, len(forecast.Daily))
	for _, d := range forecast.Daily {
		daily = append(daily, models.DailyForecast{
			Time:        models.Timestamp(d.Time),
			Temperature: d.Temperature,
			TempMin:     d.TempMin,
			TempMax:     d.TempMax,
			FeelsLike:   d.FeelsLike,
			Icon:        d.Icon,
			Description: d.Description,
			Humidity:    d.Humidity,
			Pressure:    d.Pressure,
			PrecipProb:  d.PrecipProb,
		})
	}

	hourly := make([]models.HourlyForecast, 0, len(forecast.Hourly))
	for _, h := range forecast.Hourly {
		hourly = append(hourly, models.HourlyForecast{
			Time:        models.Timestamp(h.Time),
			Temperature: h.Temperature,
			Icon:        h.Icon,
			Description: h.Description,
			PrecipProb:  h.PrecipProb,
		})
	}

	return &models.ForecastSet{
		Location:  toLocation(forecast.Location),
		Daily:     daily,
		Hourly:    hourly,
		Units:     string(forecast.Units),
		FetchedAt: models.Timestamp(forecast.FetchedAt),
	}
}

func toDashboardState(state dashboard.State) models.DashboardState {
	return models.DashboardState{
		Phase:    string(state.Phase),
		Query:    state.Query,
		Intent:   state.Intent,
		Error:    state.Error,
		Snapshot: toWeatherSnapshot(state.Snapshot),
		Forecast: toForecastSet(state.Forecast),
		Insight: models.InsightState{
			Streaming: state.Insight.Streaming,
			Text:      state.Insight.Text,
			Status:    string(state.Insight.Status),
		},
		Scene: models.SceneState{
			Generating:        state.Scene.Generating,
			ImageDataURI:      state.Scene.ImageDataURI,
			QuotaExhausted:    state.Scene.QuotaExhausted,
			RetryAfterSeconds: state.Scene.RetryAfterSeconds,
		},
		Generation: state.Generation,
		UpdatedAt:  models.Timestamp(state.UpdatedAt),
	}
}
