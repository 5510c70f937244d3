package repository

import (
	"context"

	"tripgen-service/internal/domain/entity"
)

// WeatherProvider is the two-step city-then-forecast weather API.
type WeatherProvider interface {
	// LookupCity resolves a free-text city name to the provider's location
	// id. Returns entity.ErrNotFound when the provider knows no such city.
	LookupCity(ctx context.Context, name string) (string, error)
	Forecast(ctx context.Context, locationID string, days int) ([]entity.ForecastDay, error)
}

// RoutingProvider is the driving-route and live-congestion API.
type RoutingProvider interface {
	DrivingRoute(ctx context.Context, origin, dest entity.Coordinate) (*entity.RouteEstimate, error)
	// Congestion returns entity.CongestionUnavailable as the level when the
	// realtime endpoint declines (elevated API tier, quota and the like).
	Congestion(ctx context.Context, center entity.Coordinate) (level string, avgSpeed float64, err error)
}

// CompletionRequest is one call to the text generation service.
type CompletionRequest struct {
	System      string
	User        string
	Temperature float64
	MaxTokens   int
}

// GenerationProvider is the LLM completion API.
type GenerationProvider interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}
