package routing

import (
	"context"
	"fmt"
	"strconv"

	"tripgen-service/internal/domain/entity"
	"tripgen-service/internal/domain/repository"
	"tripgen-service/pkg/logger"

	"github.com/go-resty/resty/v2"
)

const (
	drivingPath    = "/v3/direction/driving"
	congestionPath = "/v3/traffic/status/circle"

	// congestionRadius is the probe radius around the destination center, in
	// meters.
	congestionRadius = "3000"
)

// Client talks to the Amap REST API for driving routes and live congestion.
type Client struct {
	api    *resty.Client
	apiKey string
	logger logger.Logger
}

// NewClient creates a routing client.
func NewClient(api *resty.Client, apiKey string, log logger.Logger) repository.RoutingProvider {
	return &Client{api: api, apiKey: apiKey, logger: log}
}

func coordParam(c entity.Coordinate) string {
	return fmt.Sprintf("%f,%f", c.Lng, c.Lat)
}

type drivingResponse struct {
	Status string `json:"status"`
	Info   string `json:"info"`
	Route  struct {
		Paths []struct {
			Distance      string `json:"distance"`
			Duration      string `json:"duration"`
			Tolls         string `json:"tolls"`
			TrafficLights string `json:"traffic_lights"`
		} `json:"paths"`
	} `json:"route"`
}

// DrivingRoute plans a driving route between two coordinates. Distances come
// back in meters and durations in seconds; they are reduced to kilometers
// and minutes here. Toll figures arrive in fen and are reduced to yuan.
func (c *Client) DrivingRoute(ctx context.Context, origin, dest entity.Coordinate) (*entity.RouteEstimate, error) {
	var body drivingResponse
	resp, err := c.api.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"key":         c.apiKey,
			"origin":      coordParam(origin),
			"destination": coordParam(dest),
			"strategy":    "0",
			"extensions":  "all",
		}).
		SetResult(&body).
		Get(drivingPath)
	if err != nil {
		return nil, fmt.Errorf("%w: driving route: %v", entity.ErrTransport, err)
	}
	if resp.StatusCode() != 200 {
		return nil, fmt.Errorf("%w: driving route: status=%d", entity.ErrProvider, resp.StatusCode())
	}
	if body.Status != "1" || len(body.Route.Paths) == 0 {
		return nil, fmt.Errorf("%w: driving route: info=%s", entity.ErrProvider, body.Info)
	}

	path := body.Route.Paths[0]
	return &entity.RouteEstimate{
		DistanceKm:      atoi(path.Distance) / 1000,
		DurationMinutes: atoi(path.Duration) / 60,
		TollYuan:        atoi(path.Tolls) / 100,
		TrafficLights:   atoi(path.TrafficLights),
	}, nil
}

type congestionResponse struct {
	Status      string `json:"status"`
	Info        string `json:"info"`
	TrafficInfo struct {
		Evaluation struct {
			Index       string `json:"index"`
			Description string `json:"description"`
			Speed       string `json:"speed"`
			Status      string `json:"status"`
		} `json:"evaluation"`
	} `json:"trafficinfo"`
}

// Congestion probes the realtime traffic picture around a center point. The
// endpoint requires an elevated API tier; a declared refusal surfaces as a
// provider error and the caller downgrades to the unavailable sentinel.
func (c *Client) Congestion(ctx context.Context, center entity.Coordinate) (string, float64, error) {
	var body congestionResponse
	resp, err := c.api.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"key":    c.apiKey,
			"center": coordParam(center),
			"radius": congestionRadius,
		}).
		SetResult(&body).
		Get(congestionPath)
	if err != nil {
		return "", 0, fmt.Errorf("%w: congestion: %v", entity.ErrTransport, err)
	}
	if resp.StatusCode() != 200 {
		return "", 0, fmt.Errorf("%w: congestion: status=%d", entity.ErrProvider, resp.StatusCode())
	}
	eval := body.TrafficInfo.Evaluation
	if body.Status != "1" || eval.Description == "" {
		return "", 0, fmt.Errorf("%w: congestion: info=%s", entity.ErrProvider, body.Info)
	}

	speed, _ := strconv.ParseFloat(eval.Speed, 64)
	return eval.Description, speed, nil
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
