package weather

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the weather API settings, read from the environment.
type Config struct {
	AppID        string        `env:"WEATHER_APP_ID"`
	BaseURL      string        `env:"WEATHER_BASE_URL" envDefault:"http://api.openweathermap.org/data/2.5"`
	Units        string        `env:"WEATHER_UNITS" envDefault:"imperial"`
	Country      string        `env:"WEATHER_COUNTRY" envDefault:"us"`
	Timeout      time.Duration `env:"WEATHER_TIMEOUT" envDefault:"10s"`
	ForecastDays int           `env:"WEATHER_FORECAST_DAYS" envDefault:"5"`
}

// ConfigFromEnv loads Config from environment variables.
func ConfigFromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
