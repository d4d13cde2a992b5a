package handlers

import (
	"net/http"

	"github.com/jmoiron/sqlx"

	"skyrescue-backend/internal/database"
	"skyrescue-backend/internal/store"
	"skyrescue-backend/pkg/utils"
)

// Persons returns the live person detections. Polling clients hit this
// once per second as a fallback when the push channel is down.
func Persons(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		utils.Success(w, st.Persons())
	}
}

// DroneStatus returns the live drone collection.
func DroneStatus(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		utils.Success(w, st.Drones())
	}
}

// Hazards returns the live hazard collection.
func Hazards(st *store.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		utils.Success(w, st.Hazards())
	}
}

// DetectionHistory returns every persisted detection, newest first.
func DetectionHistory(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		persons, err := database.ListDetections(db)
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, "Failed to load detection history")
			return
		}
		utils.Success(w, persons)
	}
}

// DroneHistory returns the last persisted status of every known drone,
// including ones no longer reporting.
func DroneHistory(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		drones, err := database.ListDroneStatus(db)
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, "Failed to load drone history")
			return
		}
		utils.Success(w, drones)
	}
}

// HazardHistory returns every persisted hazard, most severe first.
func HazardHistory(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hazards, err := database.ListHazards(db)
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, "Failed to load hazard history")
			return
		}
		utils.Success(w, hazards)
	}
}
