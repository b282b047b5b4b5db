package weather

// Entry is the weather annotation attached to one workout.
type Entry struct {
	Temperature  float64 `json:"temperature"`
	TempType     string  `json:"tempType"`
	WeatherState string  `json:"weatherState"`
}

// ForecastResponse is the subset of the open-meteo forecast response the
// service reads.
type ForecastResponse struct {
	Latitude            float64 `json:"latitude"`
	Longitude           float64 `json:"longitude"`
	Timezone            string  `json:"timezone"`
	CurrentWeatherUnits struct {
		Temperature string `json:"temperature"`
	} `json:"current_weather_units"`
	CurrentWeather struct {
		Time          string  `json:"time"`
		Temperature   float64 `json:"temperature"`
		WindSpeed     float64 `json:"windspeed"`
		WindDirection float64 `json:"winddirection"`
		WeatherCode   int     `json:"weathercode"`
		IsDay         int     `json:"is_day"`
	} `json:"current_weather"`
}

func (f *ForecastResponse) Entry() Entry {
	unit := f.CurrentWeatherUnits.Temperature
	if unit == "" {
		unit = "°C"
	}
	return Entry{
		Temperature:  f.CurrentWeather.Temperature,
		TempType:     unit,
		WeatherState: Describe(f.CurrentWeather.WeatherCode),
	}
}
