package weather

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"tripgen-service/internal/domain/entity"
	"tripgen-service/internal/domain/repository"
	"tripgen-service/pkg/logger"

	"github.com/go-resty/resty/v2"
)

const (
	cityLookupPath = "/v2/city/lookup"
	forecastPath   = "/v7/weather/7d"
)

// Client talks to the QWeather API: a geo endpoint for city lookup and a
// weather endpoint for the daily forecast.
type Client struct {
	geo    *resty.Client
	api    *resty.Client
	apiKey string
	logger logger.Logger
}

// NewClient creates a weather client over the two resty clients.
func NewClient(geo, api *resty.Client, apiKey string, log logger.Logger) repository.WeatherProvider {
	return &Client{geo: geo, api: api, apiKey: apiKey, logger: log}
}

type lookupResponse struct {
	Code     string `json:"code"`
	Location []struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	} `json:"location"`
}

// LookupCity resolves a free-text city name to the provider's location id.
func (c *Client) LookupCity(ctx context.Context, name string) (string, error) {
	var body lookupResponse
	resp, err := c.geo.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{"location": name, "key": c.apiKey}).
		SetResult(&body).
		Get(cityLookupPath)
	if err != nil {
		return "", fmt.Errorf("%w: city lookup: %v", entity.ErrTransport, err)
	}
	if resp.StatusCode() != 200 {
		return "", fmt.Errorf("%w: city lookup: status=%d", entity.ErrProvider, resp.StatusCode())
	}
	if body.Code != "200" || len(body.Location) == 0 {
		return "", fmt.Errorf("%w: city %q: code=%s", entity.ErrNotFound, name, body.Code)
	}
	c.logger.Debug("City resolved", "name", name, "locationId", body.Location[0].ID)
	return body.Location[0].ID, nil
}

type forecastResponse struct {
	Code  string `json:"code"`
	Daily []struct {
		FxDate       string `json:"fxDate"`
		TempMax      string `json:"tempMax"`
		TempMin      string `json:"tempMin"`
		TextDay      string `json:"textDay"`
		TextNight    string `json:"textNight"`
		WindDirDay   string `json:"windDirDay"`
		WindScaleDay string `json:"windScaleDay"`
		Humidity     string `json:"humidity"`
		Precip       string `json:"precip"`
	} `json:"daily"`
}

// Forecast fetches up to days of daily forecast for a resolved location id.
// The free API tier serves at most 7 days.
func (c *Client) Forecast(ctx context.Context, locationID string, days int) ([]entity.ForecastDay, error) {
	var body forecastResponse
	resp, err := c.api.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{"location": locationID, "key": c.apiKey}).
		SetResult(&body).
		Get(forecastPath)
	if err != nil {
		return nil, fmt.Errorf("%w: forecast: %v", entity.ErrTransport, err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("%w: forecast: status=%d", entity.ErrProvider, resp.StatusCode())
	}
	if body.Code != "200" {
		return nil, fmt.Errorf("%w: forecast: code=%s", entity.ErrProvider, body.Code)
	}

	if days <= 0 || days > len(body.Daily) {
		days = len(body.Daily)
	}
	out := make([]entity.ForecastDay, 0, days)
	for _, d := range body.Daily[:days] {
		date, err := time.Parse("2006-01-02", d.FxDate)
		if err != nil {
			continue
		}
		out = append(out, entity.ForecastDay{
			Date:          date,
			TempMin:       atoi(d.TempMin),
			TempMax:       atoi(d.TempMax),
			TextDay:       d.TextDay,
			TextNight:     d.TextNight,
			WindDir:       d.WindDirDay,
			WindScale:     d.WindScaleDay,
			Humidity:      atoi(d.Humidity),
			Precipitation: d.Precip,
		})
	}
	return out, nil
}

// atoi tolerates the provider's string-typed numbers.
func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
