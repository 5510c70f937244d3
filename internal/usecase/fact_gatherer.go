package usecase

import (
	"context"

	"tripgen-service/internal/domain/entity"
	"tripgen-service/internal/domain/repository"
	"tripgen-service/pkg/logger"
)

// forecastDays is what the weather provider's free tier serves.
const forecastDays = 7

// FactGatherer collects the live facts for a travel request. Weather and
// routing are both soft dependencies: each branch degrades to absence on any
// failure and neither can block the other.
type FactGatherer struct {
	weather repository.WeatherProvider
	routing repository.RoutingProvider
	cities  repository.CityRepository
	logger  logger.Logger
}

// NewFactGatherer creates a fact gatherer.
func NewFactGatherer(
	weather repository.WeatherProvider,
	routing repository.RoutingProvider,
	cities repository.CityRepository,
	log logger.Logger,
) *FactGatherer {
	return &FactGatherer{
		weather: weather,
		routing: routing,
		cities:  cities,
		logger:  log,
	}
}

// Gather resolves the fact set for a request. It always returns a usable
// FactSet; fields the providers could not deliver are simply absent.
func (g *FactGatherer) Gather(ctx context.Context, req *entity.TravelRequest) *entity.FactSet {
	facts := &entity.FactSet{}
	facts.Forecast = g.gatherForecast(ctx, req)
	facts.Route = g.gatherRoute(ctx, req)
	return facts
}

func (g *FactGatherer) gatherForecast(ctx context.Context, req *entity.TravelRequest) []entity.ForecastDay {
	locationID, err := g.weather.LookupCity(ctx, req.Destination)
	if err != nil {
		g.logger.Warn("Weather city lookup failed, skipping forecast",
			"destination", req.Destination, "error", err)
		return nil
	}

	days, err := g.weather.Forecast(ctx, locationID, forecastDays)
	if err != nil {
		g.logger.Warn("Weather forecast failed, skipping forecast",
			"destination", req.Destination, "error", err)
		return nil
	}

	// Keep only days inside the trip window. The free tier covers 7 days,
	// so a trip far in the future legitimately yields nothing.
	var inTrip []entity.ForecastDay
	for _, d := range days {
		if !d.Date.Before(req.StartDate) && !d.Date.After(req.EndDate) {
			inTrip = append(inTrip, d)
		}
	}
	if len(inTrip) == 0 {
		g.logger.Info("No forecast days inside trip window",
			"destination", req.Destination, "startDate", req.StartDate)
		return nil
	}
	return inTrip
}

func (g *FactGatherer) gatherRoute(ctx context.Context, req *entity.TravelRequest) *entity.RouteEstimate {
	origin, err := g.cities.FindByName(ctx, req.Origin)
	if err != nil || origin == nil {
		g.logger.Warn("Origin city not in coordinate table, skipping route",
			"origin", req.Origin, "error", err)
		return nil
	}
	dest, err := g.cities.FindByName(ctx, req.Destination)
	if err != nil || dest == nil {
		g.logger.Warn("Destination city not in coordinate table, skipping route",
			"destination", req.Destination, "error", err)
		return nil
	}

	route, err := g.routing.DrivingRoute(ctx, origin.Coord(), dest.Coord())
	if err != nil {
		g.logger.Warn("Driving route failed, skipping route",
			"origin", req.Origin, "destination", req.Destination, "error", err)
		return nil
	}

	// Live congestion is best effort on top of a valid route: a refusal
	// downgrades to the unavailable sentinel, never to a missing route.
	level, speed, err := g.routing.Congestion(ctx, dest.Coord())
	if err != nil {
		g.logger.Info("Congestion endpoint unavailable", "destination", req.Destination, "error", err)
		route.CongestionLevel = entity.CongestionUnavailable
	} else {
		route.CongestionLevel = level
		route.AverageSpeed = speed
	}
	return route
}
