package database

import (
	"log"

	"github.com/jmoiron/sqlx"

	"skyrescue-backend/internal/store"
)

// Recorder persists entity store updates so the operational picture
// survives restarts and stays auditable. It never feeds data back into
// the store; the REST handlers read these tables directly.
type Recorder struct {
	db *sqlx.DB
}

// NewRecorder creates a recorder over the given database.
func NewRecorder(db *sqlx.DB) *Recorder {
	return &Recorder{db: db}
}

// Run consumes store updates until the subscription channel closes.
// Persistence failures are logged, never fatal; the worst case is a
// stale audit trail.
func (r *Recorder) Run(updates <-chan store.Update) {
	for u := range updates {
		switch u.Kind {
		case store.UpdatePersons:
			for _, p := range u.Persons {
				if err := UpsertDetection(r.db, p); err != nil {
					log.Printf("❌ Failed to persist detection %s: %v", p.ID, err)
				}
			}
		case store.UpdateDrones:
			for _, d := range u.Drones {
				if err := UpsertDroneStatus(r.db, d); err != nil {
					log.Printf("❌ Failed to persist drone status %s: %v", d.Name, err)
				}
			}
		case store.UpdateHazards:
			for _, h := range u.Hazards {
				if err := SaveHazard(r.db, h); err != nil {
					log.Printf("❌ Failed to persist hazard %s: %v", h.ID, err)
				}
			}
		}
	}
}
