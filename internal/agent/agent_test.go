package agent

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skyrescue-backend/internal/models"
	"skyrescue-backend/internal/store"
)

func TestHighestSeverityHazard(t *testing.T) {
	hazards := []models.Hazard{
		{ID: "h1", Severity: models.SeverityModerate},
		{ID: "h2", Severity: models.SeverityCritical},
		{ID: "h3", Severity: models.SeverityHigh},
	}

	worst, ok := HighestSeverityHazard(hazards)
	require.True(t, ok)
	assert.Equal(t, "h2", worst.ID)

	_, ok = HighestSeverityHazard(nil)
	assert.False(t, ok)
}

func TestSituationPromptRendersLiveEntities(t *testing.T) {
	st := store.New()
	st.SetHazards([]models.Hazard{
		{
			ID:       "hazard1",
			Kind:     models.HazardFire,
			Location: models.LatLng{Lat: 35.7766, Lng: -78.6322},
			Severity: models.SeverityCritical,
			Details:  "Large fire spreading rapidly",
		},
	})
	st.SetPersons([]models.Person{
		{ID: "person1", Confidence: 0.95, BBox: [4]float64{35.7816, -78.6422, 0, 0}, DetectedAt: time.Now()},
	})
	st.SetDrones([]models.Drone{
		{Name: "Drone X123", IsConnected: true, BatteryLevel: 85, Position: models.LatLng{Lat: 35.78, Lng: -78.63}},
	})

	svc := NewService("test-key", st)
	prompt := svc.situationPrompt()

	assert.Contains(t, prompt, "Hazards (1):")
	assert.Contains(t, prompt, "hazard1")
	assert.Contains(t, prompt, "Most severe hazard: hazard1 (Critical)")
	assert.Contains(t, prompt, "person1")
	assert.Contains(t, prompt, "confidence 0.95")
	assert.Contains(t, prompt, "Drone X123")
	assert.Contains(t, prompt, "battery 85%")
}
