package models

// WeatherData is a point-in-time weather observation
type WeatherData struct {
	Temperature   float64 `json:"temperature"` // Celsius
	FeelsLike     float64 `json:"feelsLike"`
	Condition     string  `json:"condition"`
	Precipitation int     `json:"precipitation"` // Percent chance
	Humidity      int     `json:"humidity"`      // Percent
	WindSpeed     float64 `json:"windSpeed"`     // km/h
}

// IsRainy reports whether precipitation is likely enough to matter for outfit choice
func (w WeatherData) IsRainy() bool {
	return w.Precipitation >= 50
}
