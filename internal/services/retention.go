package services

import (
	"log"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/robfig/cron/v3"

	"skyrescue-backend/internal/database"
)

// Detection thumbnails are large; hazards are small but pile up across
// operations. Both age out on different horizons.
const (
	detectionRetention = 7 * 24 * time.Hour
	hazardRetention    = 30 * 24 * time.Hour
)

// InitRetentionJobs starts the nightly cleanup of aged detections and
// hazards. Returns the scheduler so callers can stop it on shutdown.
func InitRetentionJobs(db *sqlx.DB) *cron.Cron {
	log.Println("⏰ Starting retention jobs")
	c := cron.New()

	// Nightly at 03:15, off-peak for rescue operations
	_, err := c.AddFunc("15 3 * * *", func() {
		log.Println("⏰ Retention job running")

		removed, err := database.PruneDetections(db, time.Now().Add(-detectionRetention))
		if err != nil {
			log.Printf("❌ Detection pruning failed: %v", err)
		} else if removed > 0 {
			log.Printf("🗑️  Pruned %d aged detections", removed)
		}

		removed, err = database.PruneHazards(db, time.Now().Add(-hazardRetention))
		if err != nil {
			log.Printf("❌ Hazard pruning failed: %v", err)
		} else if removed > 0 {
			log.Printf("🗑️  Pruned %d aged hazards", removed)
		}
	})
	if err != nil {
		log.Printf("❌ Failed to schedule retention job: %v", err)
	}

	c.Start()
	return c
}
