package database

import (
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"skyrescue-backend/internal/models"
)

// UpsertDetection stores the latest state of a person detection.
func UpsertDetection(db *sqlx.DB, p models.Person) error {
	row := p.ToRow()
	_, err := db.NamedExec(`
		INSERT INTO detections (id, confidence, latitude, longitude, image, detected_at)
		VALUES (:id, :confidence, :latitude, :longitude, :image, :detected_at)
		ON CONFLICT (id)
		DO UPDATE SET
			confidence = EXCLUDED.confidence,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			image = EXCLUDED.image,
			detected_at = EXCLUDED.detected_at,
			updated_at = EXTRACT(EPOCH FROM NOW())::BIGINT
	`, row)
	return err
}

// ListDetections returns all stored detections, newest first.
func ListDetections(db *sqlx.DB) ([]models.Person, error) {
	var rows []models.PersonRow
	if err := db.Select(&rows, `
		SELECT id, confidence, latitude, longitude, image, detected_at
		FROM detections
		ORDER BY detected_at DESC
	`); err != nil {
		return nil, fmt.Errorf("failed to list detections: %w", err)
	}
	persons := make([]models.Person, 0, len(rows))
	for _, r := range rows {
		persons = append(persons, r.ToPerson())
	}
	return persons, nil
}

// UpsertDroneStatus stores the latest status for a drone, keyed by name.
func UpsertDroneStatus(db *sqlx.DB, d models.Drone) error {
	_, err := db.Exec(`
		INSERT INTO drone_status (name, is_connected, battery_level, latitude, longitude, starting_coordinate, last_update)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (name)
		DO UPDATE SET
			is_connected = EXCLUDED.is_connected,
			battery_level = EXCLUDED.battery_level,
			latitude = EXCLUDED.latitude,
			longitude = EXCLUDED.longitude,
			starting_coordinate = EXCLUDED.starting_coordinate,
			last_update = EXCLUDED.last_update,
			updated_at = EXTRACT(EPOCH FROM NOW())::BIGINT
	`, d.Name, d.IsConnected, d.BatteryLevel, d.Position.Lat, d.Position.Lng, d.StartingCoordinate, d.LastUpdate.Unix())
	return err
}

// ListDroneStatus returns the latest known status of every drone.
func ListDroneStatus(db *sqlx.DB) ([]models.Drone, error) {
	var rows []models.DroneRow
	if err := db.Select(&rows, `
		SELECT name, is_connected, battery_level, latitude, longitude, starting_coordinate, last_update
		FROM drone_status
		ORDER BY name
	`); err != nil {
		return nil, fmt.Errorf("failed to list drone status: %w", err)
	}
	drones := make([]models.Drone, 0, len(rows))
	for _, r := range rows {
		drones = append(drones, r.ToDrone())
	}
	return drones, nil
}

// SaveHazard stores a hazard report. Re-reports of the same id update
// severity and details in place.
func SaveHazard(db *sqlx.DB, h models.Hazard) error {
	row := h.ToRow()
	_, err := db.NamedExec(`
		INSERT INTO hazards (id, kind, latitude, longitude, severity, details, created_by, created_at)
		VALUES (:id, :kind, :latitude, :longitude, :severity, :details, :created_by, :created_at)
		ON CONFLICT (id)
		DO UPDATE SET
			severity = EXCLUDED.severity,
			details = EXCLUDED.details
	`, row)
	return err
}

// ListHazards returns stored hazards, most severe first.
func ListHazards(db *sqlx.DB) ([]models.Hazard, error) {
	var rows []models.HazardRow
	if err := db.Select(&rows, `
		SELECT id, kind, latitude, longitude, severity, details, created_by, created_at
		FROM hazards
		ORDER BY CASE severity
			WHEN 'Critical' THEN 0
			WHEN 'High' THEN 1
			WHEN 'Moderate' THEN 2
			ELSE 3
		END, created_at DESC
	`); err != nil {
		return nil, fmt.Errorf("failed to list hazards: %w", err)
	}
	hazards := make([]models.Hazard, 0, len(rows))
	for _, r := range rows {
		hazards = append(hazards, r.ToHazard())
	}
	return hazards, nil
}

// PruneDetections deletes detections older than the cutoff. Returns the
// number of rows removed.
func PruneDetections(db *sqlx.DB, olderThan time.Time) (int64, error) {
	res, err := db.Exec(`DELETE FROM detections WHERE detected_at < $1`, olderThan.Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// PruneHazards deletes hazards older than the cutoff.
func PruneHazards(db *sqlx.DB, olderThan time.Time) (int64, error) {
	res, err := db.Exec(`DELETE FROM hazards WHERE created_at < $1`, olderThan.Unix())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// GetUserByEmail fetches an operator account for login.
func GetUserByEmail(db *sqlx.DB, email string) (*models.User, error) {
	var user models.User
	if err := db.Get(&user, `
		SELECT id, email, password, name, role, created_at
		FROM users WHERE email = $1
	`, email); err != nil {
		return nil, err
	}
	return &user, nil
}

// SaveFCMToken registers a device token for hazard alerts. Duplicate
// tokens re-bind to the latest user.
func SaveFCMToken(db *sqlx.DB, userID, token, deviceType string) error {
	_, err := db.Exec(`
		INSERT INTO fcm_tokens (user_id, token, device_type)
		VALUES ($1, $2, $3)
		ON CONFLICT (token)
		DO UPDATE SET
			user_id = EXCLUDED.user_id,
			device_type = EXCLUDED.device_type,
			updated_at = EXTRACT(EPOCH FROM NOW())::BIGINT
	`, userID, token, deviceType)
	return err
}

// GetAllFCMTokens returns every registered device token.
func GetAllFCMTokens(db *sqlx.DB) ([]string, error) {
	var tokens []string
	if err := db.Select(&tokens, `SELECT token FROM fcm_tokens`); err != nil {
		return nil, fmt.Errorf("failed to list fcm tokens: %w", err)
	}
	return tokens, nil
}

// DeleteFCMToken removes a stale device token.
func DeleteFCMToken(db *sqlx.DB, token string) error {
	_, err := db.Exec(`DELETE FROM fcm_tokens WHERE token = $1`, token)
	return err
}
