package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gurbanow/rideline/pkg/config"
)

func testConfig() config.EngineConfig {
	return config.EngineConfig{
		CommissionRate:     0.20,
		DefaultVehicleType: "standard",
		BasePrices:         map[string]float64{"standard": 2.50, "premium": 5.00},
		PerKmRates:         map[string]float64{"standard": 1.20, "premium": 2.40},
		PerMinuteRates:     map[string]float64{"standard": 0.25, "premium": 0.50},
	}
}

func TestQuoteStandard(t *testing.T) {
	calc := NewCalculator(testConfig())

	// 5 km, 10 minutes
	fare := calc.Quote("standard", 5000, 600)

	assert.Equal(t, 2.50, fare.Base)
	assert.Equal(t, 6.00, fare.Distance)
	assert.Equal(t, 2.50, fare.Time)
	assert.Equal(t, 11.00, fare.Total)
}

func TestQuoteUnknownTypeFallsBackToDefault(t *testing.T) {
	calc := NewCalculator(testConfig())

	unknown := calc.Quote("hoverboard", 5000, 600)
	standard := calc.Quote("standard", 5000, 600)

	assert.Equal(t, standard, unknown)
}

func TestQuotePremiumCostsMore(t *testing.T) {
	calc := NewCalculator(testConfig())

	standard := calc.Quote("standard", 8000, 900)
	premium := calc.Quote("premium", 8000, 900)

	assert.Greater(t, premium.Total, standard.Total)
}

func TestQuoteZeroDistance(t *testing.T) {
	calc := NewCalculator(testConfig())

	fare := calc.Quote("standard", 0, 0)

	assert.Equal(t, 2.50, fare.Total)
	assert.Zero(t, fare.Distance)
	assert.Zero(t, fare.Time)
}

func TestQuoteRounding(t *testing.T) {
	calc := NewCalculator(testConfig())

	// 1234 m at 1.20/km = 1.4808 -> 1.48
	fare := calc.Quote("standard", 1234, 0)
	assert.Equal(t, 1.48, fare.Distance)
}

func TestNormalize(t *testing.T) {
	calc := NewCalculator(testConfig())

	assert.Equal(t, "standard", calc.Normalize(""))
	assert.Equal(t, "standard", calc.Normalize("boat"))
	assert.Equal(t, "premium", calc.Normalize("premium"))
}
