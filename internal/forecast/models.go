package forecast

// CityCandidate is one place-search match for a city name.
// CityName is nil when the upstream did not provide one.
type CityCandidate struct {
	ID       string  `json:"id"`
	Lat      string  `json:"lat"`
	Long     string  `json:"long"`
	CityName *string `json:"city_name"`
}

// DailyForecast is a single day of the forecast. Datetime is formatted as YYYY-MM-DD.
type DailyForecast struct {
	Datetime string  `json:"datetime"`
	TempMin  float64 `json:"temp_min"`
	TempMax  float64 `json:"temp_max"`
}

// EnrichedCity is a candidate together with its forecast, serialized flat.
type EnrichedCity struct {
	CityCandidate
	Weather []DailyForecast `json:"weather"`
}
