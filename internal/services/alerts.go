package services

import (
	"log"
	"sync"

	"github.com/jmoiron/sqlx"

	"skyrescue-backend/internal/database"
	"skyrescue-backend/internal/models"
	"skyrescue-backend/internal/store"
)

// HazardAlerter watches the entity store and pushes an FCM alert the
// first time each Critical hazard appears. Lower severities stay on the
// dashboard only.
type HazardAlerter struct {
	fcm *FCMService
	db  *sqlx.DB

	mu      sync.Mutex
	alerted map[string]bool
}

// NewHazardAlerter creates an alerter. fcm may come from either
// credentials source; db supplies the registered device tokens.
func NewHazardAlerter(fcm *FCMService, db *sqlx.DB) *HazardAlerter {
	return &HazardAlerter{
		fcm:     fcm,
		db:      db,
		alerted: make(map[string]bool),
	}
}

// Run consumes store updates until the subscription channel closes.
func (a *HazardAlerter) Run(updates <-chan store.Update) {
	for u := range updates {
		if u.Kind != store.UpdateHazards {
			continue
		}
		for _, h := range u.Hazards {
			a.maybeAlert(h)
		}
	}
}

func (a *HazardAlerter) maybeAlert(h models.Hazard) {
	if h.Severity != models.SeverityCritical {
		return
	}

	a.mu.Lock()
	if a.alerted[h.ID] {
		a.mu.Unlock()
		return
	}
	a.alerted[h.ID] = true
	a.mu.Unlock()

	tokens, err := database.GetAllFCMTokens(a.db)
	if err != nil {
		log.Printf("❌ Failed to load FCM tokens for hazard alert: %v", err)
		return
	}
	if len(tokens) == 0 {
		return
	}

	log.Printf("🚨 Critical hazard %s, alerting %d devices", h.ID, len(tokens))
	stale, err := a.fcm.SendHazardAlert(tokens, h)
	if err != nil {
		log.Printf("❌ Hazard alert failed: %v", err)
		return
	}
	for _, token := range stale {
		if err := database.DeleteFCMToken(a.db, token); err != nil {
			log.Printf("❌ Failed to prune stale FCM token: %v", err)
		} else {
			log.Printf("🗑️  Pruned unregistered FCM token")
		}
	}
}
