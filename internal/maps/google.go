package maps

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"time"

	"github.com/gurbanow/rideline/pkg/config"
	"github.com/gurbanow/rideline/pkg/httpclient"
	"github.com/gurbanow/rideline/pkg/logger"
	"github.com/gurbanow/rideline/pkg/models"
	"github.com/gurbanow/rideline/pkg/resilience"
	"go.uber.org/zap"
)

const (
	googleMapsBaseURL        = "https://maps.googleapis.com"
	googleDirectionsEndpoint = "/maps/api/directions/json"
)

// GoogleProvider implements RouteProvider against the Google Directions API.
type GoogleProvider struct {
	apiKey string
	client *httpclient.Client
}

// NewGoogleProvider creates a Google Directions route provider.
func NewGoogleProvider(cfg config.MapsConfig) *GoogleProvider {
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = googleMapsBaseURL
	}
	return &GoogleProvider{
		apiKey: cfg.GoogleAPIKey,
		client: httpclient.NewClient(baseURL, 30*time.Second,
			httpclient.WithRetry(resilience.DefaultRetryConfig())),
	}
}

type googleDirectionsResponse struct {
	Status       string `json:"status"`
	ErrorMessage string `json:"error_message"`
	Routes       []struct {
		OverviewPolyline struct {
			Points string `json:"points"`
		} `json:"overview_polyline"`
		Legs []struct {
			Distance struct {
				Value int `json:"value"`
			} `json:"distance"`
			Duration struct {
				Value int `json:"value"`
			} `json:"duration"`
			Steps []struct {
				Distance struct {
					Value int `json:"value"`
				} `json:"distance"`
				Duration struct {
					Value int `json:"value"`
				} `json:"duration"`
				HTMLInstructions string `json:"html_instructions"`
				StartLocation    struct {
					Lat float64 `json:"lat"`
					Lng float64 `json:"lng"`
				} `json:"start_location"`
				EndLocation struct {
					Lat float64 `json:"lat"`
					Lng float64 `json:"lng"`
				} `json:"end_location"`
				Polyline struct {
					Points string `json:"points"`
				} `json:"polyline"`
			} `json:"steps"`
		} `json:"legs"`
	} `json:"routes"`
}

// GetRoute calculates a driving route using the Directions API.
func (g *GoogleProvider) GetRoute(ctx context.Context, origin, destination Coordinate) (*Route, error) {
	params := url.Values{}
	params.Set("origin", formatCoordinate(origin))
	params.Set("destination", formatCoordinate(destination))
	params.Set("key", g.apiKey)
	params.Set("mode", "driving")
	params.Set("departure_time", "now")
	params.Set("units", "metric")

	resp, err := g.client.Get(ctx, googleDirectionsEndpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("google directions request failed: %w", err)
	}

	var googleResp googleDirectionsResponse
	if err := json.Unmarshal(resp, &googleResp); err != nil {
		return nil, fmt.Errorf("failed to parse directions response: %w", err)
	}

	if googleResp.Status != "OK" {
		return nil, fmt.Errorf("google directions error: %s - %s", googleResp.Status, googleResp.ErrorMessage)
	}
	if len(googleResp.Routes) == 0 || len(googleResp.Routes[0].Legs) == 0 {
		return nil, fmt.Errorf("no routes found")
	}

	route := googleResp.Routes[0]
	result := &Route{
		Polyline: route.OverviewPolyline.Points,
	}
	for _, leg := range route.Legs {
		result.DistanceMeters += leg.Distance.Value
		result.DurationSeconds += leg.Duration.Value
		for _, step := range leg.Steps {
			result.Steps = append(result.Steps, models.RouteStep{
				DistanceMeters: step.Distance.Value,
				DurationSecs:   step.Duration.Value,
				Instructions:   step.HTMLInstructions,
				StartLatitude:  step.StartLocation.Lat,
				StartLongitude: step.StartLocation.Lng,
				EndLatitude:    step.EndLocation.Lat,
				EndLongitude:   step.EndLocation.Lng,
				Polyline:       step.Polyline.Points,
			})
		}
	}

	logger.Debug("google route computed",
		zap.Int("distance_meters", result.DistanceMeters),
		zap.Int("duration_seconds", result.DurationSeconds),
		zap.Int("steps", len(result.Steps)),
	)

	return result, nil
}

func formatCoordinate(c Coordinate) string {
	return fmt.Sprintf("%f,%f", c.Latitude, c.Longitude)
}
