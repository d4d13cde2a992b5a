package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"

	"skyrescue-backend/internal/agent"
	"skyrescue-backend/internal/feed"
	"skyrescue-backend/internal/models"
	"skyrescue-backend/internal/routing"
	"skyrescue-backend/internal/store"
)

// Hub maintains the connected dashboard sessions and fans entity
// updates out to all of them. Interaction state (selection, camera,
// route) is per client; the entity collections are shared.
type Hub struct {
	// Registered clients (session ID -> Client)
	clients map[string]*Client

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	store   *store.Store
	adapter *feed.Adapter
	routes  routing.RouteService
	agent   *agent.Service
	center  models.LatLng
	zoom    int

	// Mutex for thread-safe client map access
	mu sync.RWMutex
}

// NewHub creates a hub over the shared entity store and feed adapter.
func NewHub(st *store.Store, adapter *feed.Adapter, routes routing.RouteService, center models.LatLng, initialZoom int) *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		store:      st,
		adapter:    adapter,
		routes:     routes,
		center:     center,
		zoom:       initialZoom,
	}
}

// SetAgent attaches an in-process agent; without one, queries go out
// over the adapter's agent channel.
func (h *Hub) SetAgent(svc *agent.Service) {
	h.agent = svc
}

// Run starts the hub's main loop.
func (h *Hub) Run() {
	go h.watchStore()

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()
			log.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
			log.Printf("✅ [WEBSOCKET] Dashboard CONNECTED")
			log.Printf("   Session ID: %s", client.ID)
			log.Printf("   Operator: %s", client.UserID)
			log.Printf("   Total connected dashboards: %d", len(h.clients))
			log.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
			client.sendInitialState()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				close(client.send)
				log.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
				log.Printf("🔴 [WEBSOCKET] Dashboard DISCONNECTED")
				log.Printf("   Session ID: %s", client.ID)
				log.Printf("   Remaining connected dashboards: %d", len(h.clients))
				log.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━")
			}
			h.mu.Unlock()
		}
	}
}

// watchStore turns entity store updates into broadcast frames and lets
// each client's planner react to dropped destinations.
func (h *Hub) watchStore() {
	updates := h.store.Subscribe()
	for u := range updates {
		var payload map[string]interface{}
		switch u.Kind {
		case store.UpdatePersons:
			payload = map[string]interface{}{"event": "persons", "persons": u.Persons}
		case store.UpdateDrones:
			payload = map[string]interface{}{"event": "drones", "drones": u.Drones}
		case store.UpdateHazards:
			payload = map[string]interface{}{"event": "hazards", "hazards": u.Hazards}
		case store.UpdateFilter:
			payload = map[string]interface{}{"event": "display_filter", "filter": u.Filter}
		default:
			continue
		}
		h.Broadcast(payload)

		h.mu.RLock()
		for _, client := range h.clients {
			client.planner.HandleStoreUpdate(u)
		}
		h.mu.RUnlock()
	}
}

// HandlePlanRoute applies an agent routing directive to every
// connected dashboard. Wired to the feed adapter's plan_route events.
func (h *Hub) HandlePlanRoute(e feed.PlanRouteEvent) {
	h.mu.RLock()
	clients := make([]*Client, 0, len(h.clients))
	for _, client := range h.clients {
		clients = append(clients, client)
	}
	h.mu.RUnlock()

	for _, client := range clients {
		if err := client.planner.PlanTo(context.Background(), e.DestinationID, e.AvoidedKinds); err != nil {
			log.Printf("   ❌ Route directive failed for %s: %v", client.ID, err)
			client.Notify("Routing failed", err.Error())
		}
	}
}

// Broadcast sends a frame to every connected dashboard.
func (h *Hub) Broadcast(data interface{}) {
	dataBytes, err := json.Marshal(data)
	if err != nil {
		log.Printf("❌ Failed to marshal broadcast message: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, client := range h.clients {
		select {
		case client.send <- dataBytes:
		default:
			log.Printf("⚠️ Dashboard buffer full, skipping: %s", id)
		}
	}
}

// Notify raises a toast on every connected dashboard. The feed adapter
// uses it for agent summaries and timeout notices.
func (h *Hub) Notify(title, body string) {
	h.Broadcast(map[string]interface{}{
		"event": "notification",
		"title": title,
		"body":  body,
	})
}

// GetClientCount returns the number of connected dashboards.
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// GetConnectedClientIDs returns all active session IDs.
func (h *Hub) GetConnectedClientIDs() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ids := make([]string, 0, len(h.clients))
	for id := range h.clients {
		ids = append(ids, id)
	}
	return ids
}
