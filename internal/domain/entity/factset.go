package entity

import "time"

// CongestionUnavailable marks a route whose live congestion lookup was
// declined by the provider. It is distinct from a missing route: the route
// figures are valid, only the realtime picture is absent.
const CongestionUnavailable = "unavailable"

// ForecastDay is one day of the destination forecast.
type ForecastDay struct {
	Date          time.Time `json:"date"`
	TempMin       int       `json:"temp_min"`
	TempMax       int       `json:"temp_max"`
	TextDay       string    `json:"text_day"`
	TextNight     string    `json:"text_night"`
	WindDir       string    `json:"wind_dir"`
	WindScale     string    `json:"wind_scale"`
	Humidity      int       `json:"humidity"`
	Precipitation string    `json:"precip"`
}

// RouteEstimate is a driving estimate between origin and destination.
type RouteEstimate struct {
	DistanceKm      int     `json:"distance_km"`
	DurationMinutes int     `json:"duration_minutes"`
	TollYuan        int     `json:"toll_yuan"`
	TrafficLights   int     `json:"traffic_lights"`
	CongestionLevel string  `json:"congestion_level"`
	AverageSpeed    float64 `json:"average_speed,omitempty"`
}

// Coordinate is a longitude/latitude pair, Amap order.
type Coordinate struct {
	Lng float64 `json:"lng"`
	Lat float64 `json:"lat"`
}

// FactSet bundles the live facts fed into the prompt template. Both fields
// are soft dependencies: either may be nil without failing the pipeline.
type FactSet struct {
	Forecast []ForecastDay  `json:"forecast,omitempty"`
	Route    *RouteEstimate `json:"route,omitempty"`
}

// HasWeather reports whether any forecast days were gathered.
func (f *FactSet) HasWeather() bool {
	return f != nil && len(f.Forecast) > 0
}

// HasRoute reports whether a driving route was gathered.
func (f *FactSet) HasRoute() bool {
	return f != nil && f.Route != nil
}

// TempRange returns the min and max temperature across the forecast window.
func (f *FactSet) TempRange() (min, max int) {
	if !f.HasWeather() {
		return 0, 0
	}
	min, max = f.Forecast[0].TempMin, f.Forecast[0].TempMax
	for _, d := range f.Forecast[1:] {
		if d.TempMin < min {
			min = d.TempMin
		}
		if d.TempMax > max {
			max = d.TempMax
		}
	}
	return min, max
}

// ClothingAdvice maps a temperature band to packing advice. Thresholds follow
// the classic four-band rule used by weather portals.
func ClothingAdvice(tempMin, tempMax int) string {
	var advice string
	switch {
	case tempMax <= 5:
		advice = "建议穿着羽绒服、棉衣、厚毛衣等冬季服装"
	case tempMax <= 15:
		advice = "建议穿着夹克、毛衣、薄外套等春秋服装"
	case tempMax <= 25:
		advice = "建议穿着长袖衬衫、薄外套"
	default:
		advice = "建议穿着短袖、短裤等夏装"
	}
	if tempMin <= 10 && tempMax > 5 {
		advice += "，早晚温差较大，注意保暖"
	}
	return advice
}
