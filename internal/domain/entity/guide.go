package entity

import "time"

// TravelGuide is one generated itinerary document. Guides are immutable:
// refining a guide produces a new TravelGuide with a fresh GuideID pointing
// back at the same RequestID.
type TravelGuide struct {
	GuideID     string
	RequestID   string
	Destination string
	// WeatherInfo is the serialized FactSet snapshot the guide was built from.
	WeatherInfo string
	Content     string
	CreatedAt   time.Time
}
