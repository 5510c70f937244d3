package repository

import (
	"context"

	"tripgen-service/internal/domain/entity"
)

// CityRepository resolves city names to coordinates.
type CityRepository interface {
	// FindByName returns (nil, nil) when the city is not in the table.
	FindByName(ctx context.Context, name string) (*entity.City, error)
}
