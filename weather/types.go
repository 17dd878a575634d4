package weather

// CurrentConditions is the subset of the OpenWeatherMap "weather" response the dashboard shows.
type CurrentConditions struct {
	Name    string      `json:"name"`
	Weather []Condition `json:"weather"`
	Main    struct {
		Temp    float64 `json:"temp"`
		TempMin float64 `json:"temp_min"`
		TempMax float64 `json:"temp_max"`
	} `json:"main"`
}

type Condition struct {
	ID          int    `json:"id"`
	Main        string `json:"main"`
	Description string `json:"description"`
}

// Forecast is the OpenWeatherMap daily forecast response.
type Forecast struct {
	City struct {
		Name string `json:"name"`
	} `json:"city"`
	List []DailyForecast `json:"list"`
}

type DailyForecast struct {
	Dt   int64 `json:"dt"`
	Temp struct {
		Min float64 `json:"min"`
		Max float64 `json:"max"`
	} `json:"temp"`
	Weather []Condition `json:"weather"`
}
