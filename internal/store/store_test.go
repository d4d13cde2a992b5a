package store

import (
	"testing"
	"time"

	"skyrescue-backend/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func drone(name string, battery int) models.Drone {
	return models.Drone{
		Name:         name,
		IsConnected:  true,
		BatteryLevel: battery,
		LastUpdate:   time.Now(),
	}
}

func TestUpsertDroneKeyedByName(t *testing.T) {
	s := New()
	s.UpsertDrone(drone("Drone X123", 85))
	s.UpsertDrone(drone("Drone Y456", 72))
	s.UpsertDrone(drone("Drone X123", 60))
	s.UpsertDrone(drone("Drone Y456", 40))
	s.UpsertDrone(drone("Drone Z789", 93))

	drones := s.Drones()
	require.Len(t, drones, 3)

	// order preserved, latest fields win
	assert.Equal(t, "Drone X123", drones[0].Name)
	assert.Equal(t, 60, drones[0].BatteryLevel)
	assert.Equal(t, "Drone Y456", drones[1].Name)
	assert.Equal(t, 40, drones[1].BatteryLevel)
	assert.Equal(t, "Drone Z789", drones[2].Name)
}

func TestSetPersonsSnapshotReplace(t *testing.T) {
	s := New()
	s.SetPersons([]models.Person{{ID: "person1"}, {ID: "person2"}})
	s.SetPersons([]models.Person{{ID: "person3"}})

	persons := s.Persons()
	require.Len(t, persons, 1)
	assert.Equal(t, "person3", persons[0].ID)

	// empty snapshot clears the set
	s.SetPersons(nil)
	assert.Empty(t, s.Persons())
}

func TestUpsertPersonsAdditiveByID(t *testing.T) {
	s := New()
	s.UpsertPersons([]models.Person{{ID: "a", Confidence: 0.5}})
	s.UpsertPersons([]models.Person{{ID: "a", Confidence: 0.9}, {ID: "b", Confidence: 0.7}})

	persons := s.Persons()
	require.Len(t, persons, 2)
	assert.Equal(t, 0.9, persons[0].Confidence)
	assert.Equal(t, "b", persons[1].ID)
}

func TestMarkDronesDisconnected(t *testing.T) {
	s := New()
	s.SetDrones([]models.Drone{drone("Drone X123", 85), drone("Drone Y456", 72)})
	s.MarkDronesDisconnected()

	for _, d := range s.Drones() {
		assert.False(t, d.IsConnected)
	}
}

func TestSubscribeReceivesUpdates(t *testing.T) {
	s := New()
	ch := s.Subscribe()

	s.SetHazards([]models.Hazard{{ID: "hazard1", Kind: models.HazardFire}})

	select {
	case u := <-ch:
		assert.Equal(t, UpdateHazards, u.Kind)
		require.Len(t, u.Hazards, 1)
		assert.Equal(t, "hazard1", u.Hazards[0].ID)
	case <-time.After(time.Second):
		t.Fatal("expected a hazard update")
	}
}

func TestSnapshotsAreCopies(t *testing.T) {
	s := New()
	s.SetHazards([]models.Hazard{{ID: "hazard1"}})

	hazards := s.Hazards()
	hazards[0].ID = "mutated"

	fresh := s.Hazards()
	assert.Equal(t, "hazard1", fresh[0].ID)
}
