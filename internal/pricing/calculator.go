package pricing

import (
	"math"

	"github.com/gurbanow/rideline/pkg/config"
	"github.com/gurbanow/rideline/pkg/models"
)

// Calculator quotes fares from the configured per-vehicle-type rate tables.
// Quotes are computed once at ride creation and never recomputed afterwards.
type Calculator struct {
	cfg config.EngineConfig
}

// NewCalculator creates a fare calculator from the engine configuration.
func NewCalculator(cfg config.EngineConfig) *Calculator {
	return &Calculator{cfg: cfg}
}

// Quote computes the fare breakdown for a route. Unknown vehicle types fall
// back to the default rate table. All components are rounded to two decimal
// places; Total is the sum of the rounded components.
func (c *Calculator) Quote(vehicleType string, distanceMeters, durationSeconds int) models.Fare {
	base, perKm, perMinute := c.cfg.RatesFor(vehicleType)

	distanceKm := float64(distanceMeters) / 1000.0
	durationMinutes := float64(durationSeconds) / 60.0

	fare := models.Fare{
		Base:     round2(base),
		Distance: round2(distanceKm * perKm),
		Time:     round2(durationMinutes * perMinute),
	}
	fare.Total = round2(fare.Base + fare.Distance + fare.Time)
	return fare
}

// Normalize maps an empty or unknown vehicle type to the configured default.
func (c *Calculator) Normalize(vehicleType string) string {
	if vehicleType == "" {
		return c.cfg.DefaultVehicleType
	}
	if _, ok := c.cfg.BasePrices[vehicleType]; !ok {
		return c.cfg.DefaultVehicleType
	}
	return vehicleType
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
