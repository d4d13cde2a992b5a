package feed

import (
	"time"

	"skyrescue-backend/internal/models"
)

// Deployment is one round of simulated entities around a center coordinate
type Deployment struct {
	Hazards []models.Hazard
	Persons []models.Person
	Drones  []models.Drone
}

// GenerateDeployment synthesizes the fixed simulation layout: 3 hazards,
// 4 persons and 2 drones at deterministic offsets from center. Offsets are
// design constants; tests and the demo script rely on them.
func GenerateDeployment(center models.LatLng, now time.Time) Deployment {
	start := center.DisplayString()

	hazards := []models.Hazard{
		{
			ID:        "hazard1",
			Kind:      models.HazardPower,
			Location:  models.LatLng{Lat: center.Lat + 0.005, Lng: center.Lng + 0.007},
			Severity:  models.SeverityModerate,
			Details:   "Potential structural damage detected",
			CreatedBy: "AI System",
			CreatedAt: now,
		},
		{
			ID:        "hazard2",
			Kind:      models.HazardFire,
			Location:  models.LatLng{Lat: center.Lat - 0.003, Lng: center.Lng + 0.006},
			Severity:  models.SeverityHigh,
			Details:   "Active fire detected in residential area",
			CreatedBy: "Thermal Sensor",
			CreatedAt: now,
		},
		{
			ID:        "hazard3",
			Kind:      models.HazardFire,
			Location:  models.LatLng{Lat: center.Lat, Lng: center.Lng + 0.003},
			Severity:  models.SeverityCritical,
			Details:   "Large fire spreading rapidly",
			CreatedBy: "Drone Camera",
			CreatedAt: now,
		},
	}

	persons := []models.Person{
		{
			ID:         "person1",
			Confidence: 0.95,
			BBox:       [4]float64{center.Lat + 0.002, center.Lng - 0.004, 0, 0},
			DetectedAt: now,
		},
		{
			ID:         "person2",
			Confidence: 0.88,
			BBox:       [4]float64{center.Lat - 0.006, center.Lng + 0.003, 0, 0},
			DetectedAt: now,
		},
		{
			ID:         "person3",
			Confidence: 0.92,
			BBox:       [4]float64{center.Lat + 0.002, center.Lng + 0.01, 0, 0},
			DetectedAt: now,
		},
		{
			ID:         "person4",
			Confidence: 0.85,
			BBox:       [4]float64{center.Lat - 0.006, center.Lng - 0.003, 0, 0},
			DetectedAt: now,
		},
	}

	drones := []models.Drone{
		{
			Name:               "Drone X123",
			IsConnected:        true,
			BatteryLevel:       85,
			Position:           models.LatLng{Lat: center.Lat + 0.004, Lng: center.Lng + 0.005},
			StartingCoordinate: start,
			LastUpdate:         now,
		},
		{
			Name:               "Drone Y456",
			IsConnected:        true,
			BatteryLevel:       72,
			Position:           models.LatLng{Lat: center.Lat - 0.005, Lng: center.Lng - 0.002},
			StartingCoordinate: start,
			LastUpdate:         now,
		},
	}

	return Deployment{Hazards: hazards, Persons: persons, Drones: drones}
}
