package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"github.com/jmoiron/sqlx"

	"skyrescue-backend/internal/database"
	"skyrescue-backend/internal/middleware"
	"skyrescue-backend/pkg/utils"
)

type fcmTokenRequest struct {
	Token      string `json:"token"`
	DeviceType string `json:"device_type"`
}

// RegisterFCMToken stores a device token for hazard alerts. Requires
// the Auth middleware.
func RegisterFCMToken(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		claims, ok := middleware.GetUserFromContext(r)
		if !ok {
			utils.Error(w, http.StatusUnauthorized, "Unauthorized")
			return
		}

		var req fcmTokenRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			utils.Error(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if req.Token == "" {
			utils.Error(w, http.StatusBadRequest, "Token is required")
			return
		}
		switch req.DeviceType {
		case "ios", "android", "web":
		default:
			utils.Error(w, http.StatusBadRequest, "Invalid device type")
			return
		}

		if err := database.SaveFCMToken(db, claims.UserID, req.Token, req.DeviceType); err != nil {
			log.Printf("❌ Failed to save FCM token: %v", err)
			utils.Error(w, http.StatusInternalServerError, "Failed to register token")
			return
		}

		log.Printf("✅ FCM token registered for %s (%s)", claims.Email, req.DeviceType)
		utils.Success(w, map[string]bool{"ok": true})
	}
}

// ListFCMTokens returns every registered device token. Admin only; used
// to audit which devices receive hazard alerts.
func ListFCMTokens(db *sqlx.DB) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tokens, err := database.GetAllFCMTokens(db)
		if err != nil {
			utils.Error(w, http.StatusInternalServerError, "Failed to load tokens")
			return
		}
		utils.Success(w, map[string]interface{}{"count": len(tokens), "tokens": tokens})
	}
}
