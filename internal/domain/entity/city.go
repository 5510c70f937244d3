package entity

import (
	"time"

	"gorm.io/gorm"
)

// City is one row of the city coordinate lookup table used to resolve
// free-text city names for the routing provider.
type City struct {
	ID        uint
	Name      string
	Lng       float64
	Lat       float64
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt
}

// Coord returns the city position in provider coordinate order.
func (c *City) Coord() Coordinate {
	return Coordinate{Lng: c.Lng, Lat: c.Lat}
}
