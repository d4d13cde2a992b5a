package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"strconv"

	"skyrescue-backend/internal/agent"
	"skyrescue-backend/internal/database"
	"skyrescue-backend/internal/feed"
	"skyrescue-backend/internal/handlers"
	"skyrescue-backend/internal/middleware"
	"skyrescue-backend/internal/models"
	"skyrescue-backend/internal/routing"
	"skyrescue-backend/internal/services"
	"skyrescue-backend/internal/store"
	"skyrescue-backend/internal/websocket"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
)

// Default operations center: downtown Raleigh, NC
const (
	defaultCenterLat = 35.7796
	defaultCenterLng = -78.6382
	defaultZoom      = 12
)

func main() {
	log.Println("═══════════════════════════════════════════════════════════════════")
	log.Println("🚁 SKYRESCUE BACKEND SERVER STARTING")
	log.Println("═══════════════════════════════════════════════════════════════════")

	// Load .env file
	log.Println("📂 Loading environment variables...")
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  Warning: .env file not found, using environment variables from system")
	} else {
		log.Println("✅ .env file loaded successfully")
	}

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		log.Println("❌ FATAL ERROR: DATABASE_URL environment variable is required")
		log.Println("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
		log.Fatal("DATABASE_URL environment variable is required")
	}

	db, err := database.Connect(dbURL)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	log.Println("🔄 Running database migrations...")
	if err := database.Migrate(db); err != nil {
		log.Fatal(err)
	}

	log.Println("🌱 Seeding database with initial data...")
	if err := database.SeedUsers(db); err != nil {
		log.Fatal(err)
	}

	// Operations center and initial viewport
	center := models.LatLng{
		Lat: envFloat("CENTER_LAT", defaultCenterLat),
		Lng: envFloat("CENTER_LNG", defaultCenterLng),
	}
	initialZoom := int(envFloat("INITIAL_ZOOM", defaultZoom))
	log.Printf("📍 Operations center: %s, zoom %d", center.DisplayString(), initialZoom)

	// Shared entity store
	st := store.New()

	// Persist entity updates for history endpoints and audit
	recorder := database.NewRecorder(db)
	go recorder.Run(st.Subscribe())

	// Feed adapter starts in fake mode; the dashboard toggles to real
	adapterCfg := feed.Config{
		TelemetryURL: os.Getenv("TELEMETRY_WS_URL"),
		AgentURL:     os.Getenv("AGENT_WS_URL"),
		Center:       center,
	}

	// Routing client
	hereKey := os.Getenv("HERE_API_KEY")
	if hereKey == "" {
		log.Println("⚠️  HERE_API_KEY not set, route planning will fail")
	}
	hereClient := routing.NewHereClient(hereKey)

	// Hub and adapter reference each other through the notifier, so the
	// hub is created first with a nil adapter slot filled right after.
	var hub *websocket.Hub
	adapter := feed.New(adapterCfg, st, func(title, body string) {
		if hub != nil {
			hub.Notify(title, body)
		}
	})
	hub = websocket.NewHub(st, adapter, hereClient, center, initialZoom)
	adapter.OnPlanRoute(hub.HandlePlanRoute)
	adapter.OnChatChunk(func(content string) {
		hub.Broadcast(map[string]interface{}{"event": "chat_chunk", "content": content})
	})
	go hub.Run()
	log.Println("✅ WebSocket hub started")

	// In-process agent, used when the external agent channel is absent
	if openaiKey := os.Getenv("OPENAI_API_KEY"); openaiKey != "" {
		hub.SetAgent(agent.NewService(openaiKey, st))
		log.Println("✅ In-process agent enabled")
	} else {
		log.Println("⚠️  OPENAI_API_KEY not set, queries require the agent channel")
	}

	// REST polling fallback for real mode
	if pollURL := os.Getenv("TELEMETRY_HTTP_URL"); pollURL != "" {
		poller := feed.NewPoller(pollURL, st, adapter.Mode)
		go poller.Run(context.Background())
		log.Printf("✅ Telemetry poller started against %s", pollURL)
	}

	// Initialize Firebase Cloud Messaging
	// Supports both file path and base64-encoded credentials (for Railway/cloud deployments)
	var fcmService *services.FCMService
	if fcmCredsBase64 := os.Getenv("FIREBASE_CREDENTIALS_BASE64"); fcmCredsBase64 != "" {
		fcmService, err = services.NewFCMServiceFromBase64(fcmCredsBase64)
		if err != nil {
			log.Printf("⚠️  Failed to initialize FCM from base64: %v (push notifications disabled)", err)
			fcmService = nil
		} else {
			log.Println("✅ Firebase Cloud Messaging initialized from base64 credentials")
		}
	} else {
		fcmCredentialsFile := os.Getenv("FIREBASE_CREDENTIALS_FILE")
		if fcmCredentialsFile == "" {
			fcmCredentialsFile = "./firebase-service-account.json"
		}
		fcmService, err = services.NewFCMService(fcmCredentialsFile)
		if err != nil {
			log.Printf("⚠️  Failed to initialize FCM from file: %v (push notifications disabled)", err)
			fcmService = nil
		} else {
			log.Println("✅ Firebase Cloud Messaging initialized from file")
		}
	}

	// Push Critical hazards to registered devices
	if fcmService != nil {
		alerter := services.NewHazardAlerter(fcmService, db)
		go alerter.Run(st.Subscribe())
		log.Println("✅ Hazard alerter started")
	}

	// Nightly cleanup of aged detections and hazards
	retention := services.InitRetentionJobs(db)
	defer retention.Stop()

	// Create router
	r := chi.NewRouter()

	// Middleware
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health check
	r.Get("/health", handlers.Health(st, adapter, hub.GetClientCount))

	// Authentication routes (no auth required)
	r.Post("/api/auth/login", handlers.Login(db))

	// WebSocket endpoint (authentication handled in handler via query param)
	r.Get("/ws", websocket.HandleWebSocket(hub))

	// API routes
	r.Route("/api", func(r chi.Router) {
		// Live entity snapshots (polling fallback for the dashboard)
		r.Get("/persons", handlers.Persons(st))
		r.Get("/drone_status", handlers.DroneStatus(st))
		r.Get("/hazards", handlers.Hazards(st))

		// Diagnostic logging endpoint (no auth required for easier debugging)
		r.Post("/logs/diagnostic", handlers.ReceiveDiagnosticLog())

		// Authenticated endpoints
		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth)

			r.Get("/history/detections", handlers.DetectionHistory(db))
			r.Get("/history/drones", handlers.DroneHistory(db))
			r.Get("/history/hazards", handlers.HazardHistory(db))
			r.Post("/fcm-token", handlers.RegisterFCMToken(db))

			// Admin-only endpoints
			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole("admin"))

				r.Get("/fcm-tokens", handlers.ListFCMTokens(db))
			})
		})
	})

	// Get port
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
		log.Printf("⚠️  PORT not set, using default: %s", port)
	}

	log.Println("═══════════════════════════════════════════════════════════════════")
	log.Println("✅ ALL INITIALIZATION COMPLETE")
	log.Printf("🚁 Server starting on http://localhost:%s", port)
	log.Println("🔌 Ready to accept requests!")
	log.Println("═══════════════════════════════════════════════════════════════════")

	if err := http.ListenAndServe(":"+port, r); err != nil {
		log.Fatal(err)
	}
}

func envFloat(key string, fallback float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return fallback
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Printf("⚠️  Invalid %s=%q, using default %.4f", key, raw, fallback)
		return fallback
	}
	return v
}
