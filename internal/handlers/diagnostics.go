package handlers

import (
	"encoding/json"
	"log"
	"net/http"

	"skyrescue-backend/internal/feed"
	"skyrescue-backend/internal/store"
	"skyrescue-backend/pkg/utils"
)

// DiagnosticLog represents a diagnostic log from the dashboard client
type DiagnosticLog struct {
	Timestamp string                 `json:"timestamp"`
	Context   string                 `json:"context"`
	Level     string                 `json:"level"`
	Message   string                 `json:"message"`
	Data      map[string]interface{} `json:"data"`
	Platform  string                 `json:"platform"`
}

// ReceiveDiagnosticLog handles diagnostic logs from the dashboard
// POST /api/logs/diagnostic
func ReceiveDiagnosticLog() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var logEntry DiagnosticLog
		if err := json.NewDecoder(r.Body).Decode(&logEntry); err != nil {
			http.Error(w, "Invalid request body", http.StatusBadRequest)
			return
		}

		prefix := "🖥️"
		switch logEntry.Level {
		case "ERROR":
			prefix = "🔴"
		case "WARNING":
			prefix = "🟡"
		case "INFO":
			prefix = "🔵"
		}

		log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		log.Printf("%s DASHBOARD DIAGNOSTIC [%s]", prefix, logEntry.Level)
		log.Printf("   Platform:  %s", logEntry.Platform)
		log.Printf("   Context:   %s", logEntry.Context)
		log.Printf("   Timestamp: %s", logEntry.Timestamp)
		log.Printf("   Message:   %s", logEntry.Message)
		log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")

		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{
			"status": "received",
		})
	}
}

// Health reports server liveness plus the feed and session state that
// matters when debugging a blank dashboard.
func Health(st *store.Store, adapter *feed.Adapter, clientCount func() int) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		utils.Success(w, map[string]interface{}{
			"status":         "ok",
			"feed_mode":      adapter.Mode(),
			"feed_connected": adapter.Connected(),
			"dashboards":     clientCount(),
			"persons":        len(st.Persons()),
			"drones":         len(st.Drones()),
			"hazards":        len(st.Hazards()),
		})
	}
}
