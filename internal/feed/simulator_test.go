package feed

import (
	"testing"
	"time"

	"skyrescue-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateDeploymentFixedLayout(t *testing.T) {
	center := models.LatLng{Lat: 35.7796, Lng: -78.6382}
	dep := GenerateDeployment(center, time.Now())

	require.Len(t, dep.Hazards, 3)
	require.Len(t, dep.Persons, 4)
	require.Len(t, dep.Drones, 2)

	h1 := dep.Hazards[0]
	assert.Equal(t, "hazard1", h1.ID)
	assert.Equal(t, models.HazardPower, h1.Kind)
	assert.Equal(t, models.SeverityModerate, h1.Severity)
	assert.InDelta(t, center.Lat+0.005, h1.Location.Lat, 1e-9)
	assert.InDelta(t, center.Lng+0.007, h1.Location.Lng, 1e-9)

	assert.Equal(t, models.SeverityHigh, dep.Hazards[1].Severity)
	assert.Equal(t, models.SeverityCritical, dep.Hazards[2].Severity)

	confidences := []float64{0.95, 0.88, 0.92, 0.85}
	offsets := [][2]float64{
		{0.002, -0.004},
		{-0.006, 0.003},
		{0.002, 0.01},
		{-0.006, -0.003},
	}
	for i, p := range dep.Persons {
		assert.Equal(t, confidences[i], p.Confidence)
		assert.InDelta(t, center.Lat+offsets[i][0], p.BBox[0], 1e-9)
		assert.InDelta(t, center.Lng+offsets[i][1], p.BBox[1], 1e-9)
	}

	assert.Equal(t, "Drone X123", dep.Drones[0].Name)
	assert.Equal(t, 85, dep.Drones[0].BatteryLevel)
	assert.InDelta(t, center.Lat+0.004, dep.Drones[0].Position.Lat, 1e-9)
	assert.InDelta(t, center.Lng+0.005, dep.Drones[0].Position.Lng, 1e-9)

	assert.Equal(t, "Drone Y456", dep.Drones[1].Name)
	assert.Equal(t, 72, dep.Drones[1].BatteryLevel)
	assert.InDelta(t, center.Lat-0.005, dep.Drones[1].Position.Lat, 1e-9)
	assert.InDelta(t, center.Lng-0.002, dep.Drones[1].Position.Lng, 1e-9)

	assert.Equal(t, "35.7796° N, -78.6382° W", dep.Drones[0].StartingCoordinate)
}
