package notifications

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRideRequestTemplateRendersRouteAndFare(t *testing.T) {
	var body bytes.Buffer
	err := rideRequestTmpl.Execute(&body, emailData{
		RecipientName: "Maksat",
		Title:         "New ride request",
		Message:       "Pickup at 12 Harbor St, 400 m away",
		Data: map[string]interface{}{
			"PickupAddr":  "12 Harbor St",
			"DropoffAddr": "Airport Terminal 1",
			"Distance":    "400 m",
			"TripLength":  "5.0 km",
			"Fare":        "11.00",
		},
	})

	require.NoError(t, err)
	html := body.String()
	assert.Contains(t, html, "12 Harbor St")
	assert.Contains(t, html, "Airport Terminal 1")
	assert.Contains(t, html, "5.0 km")
	assert.Contains(t, html, "11.00")
}

func TestRideAcceptedTemplateRendersDriverAndETA(t *testing.T) {
	var body bytes.Buffer
	err := rideAcceptedTmpl.Execute(&body, emailData{
		RecipientName: "Aylar",
		Title:         "Driver on the way",
		Message:       "Merdan A is on the way, arriving in about 10 min",
		Data: map[string]interface{}{
			"DriverName":   "Merdan A",
			"DriverPhone":  "+99361234567",
			"DriverRating": "4.8",
			"VehicleMake":  "Toyota",
			"VehicleModel": "Camry",
			"VehicleColor": "White",
			"VehiclePlate": "AG 1234",
			"ETA":          "10 min",
		},
	})

	require.NoError(t, err)
	html := body.String()
	assert.Contains(t, html, "Merdan A")
	assert.Contains(t, html, "+99361234567")
	assert.Contains(t, html, "4.8")
	assert.Contains(t, html, "Toyota")
	assert.Contains(t, html, "10 min")
}
