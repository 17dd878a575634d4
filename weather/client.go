package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Client calls the OpenWeatherMap REST API. It does not retry; callers decide.
type Client struct {
	cfg  Config
	http *http.Client
}

func NewClient(cfg Config, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.Timeout}
	}
	return &Client{cfg: cfg, http: httpClient}
}

// StatusError is returned for non-200 responses.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("weather api: HTTP %d: %s", e.StatusCode, e.Body)
}

// CurrentConditions fetches current conditions for a zip code.
func (c *Client) CurrentConditions(ctx context.Context, zip string) (CurrentConditions, error) {
	var out CurrentConditions
	err := c.get(ctx, "weather", url.Values{"zip": {c.zipQuery(zip)}}, &out)
	return out, err
}

// DailyForecast fetches the daily forecast for a zip code.
func (c *Client) DailyForecast(ctx context.Context, zip string) (Forecast, error) {
	var out Forecast
	err := c.get(ctx, "forecast/daily", url.Values{
		"zip": {c.zipQuery(zip)},
		"cnt": {strconv.Itoa(c.cfg.ForecastDays)},
	}, &out)
	return out, err
}

func (c *Client) zipQuery(zip string) string {
	if c.cfg.Country == "" {
		return zip
	}
	return zip + "," + c.cfg.Country
}

func (c *Client) get(ctx context.Context, path string, q url.Values, out any) error {
	if c.cfg.Units != "" {
		q.Set("units", c.cfg.Units)
	}
	if c.cfg.AppID != "" {
		q.Set("APPID", c.cfg.AppID)
	}
	u := strings.TrimRight(c.cfg.BaseURL, "/") + "/" + path + "?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("get %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}
