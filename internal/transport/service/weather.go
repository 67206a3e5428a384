package service

import (
	"math/rand/v2"
)

var weatherSummaries = []string{
	"Freezing", "Bracing", "Chilly", "Cool", "Mild",
	"Warm", "Balmy", "Hot", "Sweltering", "Scorching",
}

// WeatherForecast is one day of the demo forecast.
type WeatherForecast struct {
	Date         string `json:"date"`
	TemperatureC int    `json:"temperatureC"`
	TemperatureF int    `json:"temperatureF"`
	Summary      string `json:"summary"`
}

// Forecast returns a 5-day forecast starting tomorrow.
func (s *ScheduleService) Forecast() []WeatherForecast {
	out := make([]WeatherForecast, 0, 5)
	for day := 1; day <= 5; day++ {
		celsius := rand.IntN(75) - 20
		out = append(out, WeatherForecast{
			Date:         s.now().AddDate(0, 0, day).Format(dateLayout),
			TemperatureC: celsius,
			TemperatureF: 32 + int(float64(celsius)/0.5556),
			Summary:      pick(weatherSummaries),
		})
	}
	return out
}
