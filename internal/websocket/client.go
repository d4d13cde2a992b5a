package websocket

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"skyrescue-backend/internal/feed"
	"skyrescue-backend/internal/models"
	"skyrescue-backend/internal/routing"
	"skyrescue-backend/internal/session"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next pong message from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Maximum message size allowed from peer
	maxMessageSize = 4096
)

const initialZoomFallback = 12

// Client is one connected dashboard. It implements session.Renderer by
// turning render calls into JSON frames on its send queue, so the
// session core never touches the connection directly.
type Client struct {
	ID     string
	UserID string
	conn   *websocket.Conn
	hub    *Hub
	send   chan []byte

	session *session.Session
	camera  *session.Camera
	planner *routing.Planner
}

// IncomingMessage is a frame from the dashboard client.
type IncomingMessage struct {
	Event   string `json:"event"`
	ID      string `json:"id"`
	Name    string `json:"name"`
	Message string `json:"message"`
	Mode    string `json:"mode"`
	Level   int    `json:"level"`
	Multi   bool   `json:"multi"`
	Enabled bool   `json:"enabled"`
}

// NewClient creates a dashboard client with its own session state.
func NewClient(userID string, conn *websocket.Conn, hub *Hub) *Client {
	c := &Client{
		ID:     uuid.New().String(),
		UserID: userID,
		conn:   conn,
		hub:    hub,
		send:   make(chan []byte, 256),
	}

	zoom := hub.zoom
	if zoom == 0 {
		zoom = initialZoomFallback
	}
	c.camera = session.NewCamera(c, zoom)
	c.planner = routing.NewPlanner(hub.routes, hub.store, c, hub.center)
	c.session = session.New(hub.store, c.camera, c.planner, c)
	return c
}

func (c *Client) enqueue(data interface{}) {
	frame, err := json.Marshal(data)
	if err != nil {
		log.Printf("❌ Failed to marshal frame: %v", err)
		return
	}
	select {
	case c.send <- frame:
	default:
		log.Printf("⚠️ Dashboard %s send buffer full, dropping frame", c.ID)
	}
}

// sendInitialState pushes the current entity collections and selection
// so a fresh dashboard renders without waiting for the next update.
func (c *Client) sendInitialState() {
	c.enqueue(map[string]interface{}{"event": "persons", "persons": c.hub.store.Persons()})
	c.enqueue(map[string]interface{}{"event": "drones", "drones": c.hub.store.Drones()})
	c.enqueue(map[string]interface{}{"event": "hazards", "hazards": c.hub.store.Hazards()})
	c.enqueue(map[string]interface{}{"event": "display_filter", "filter": c.hub.store.Filter()})
	c.enqueue(map[string]interface{}{"event": "selection", "state": c.session.Selection()})
}

// PanTo implements session.Renderer.
func (c *Client) PanTo(pos models.LatLng) {
	c.enqueue(map[string]interface{}{"event": "pan_to", "location": pos})
}

// SetZoom implements session.Renderer.
func (c *Client) SetZoom(level int) {
	c.enqueue(map[string]interface{}{"event": "set_zoom", "level": level})
}

// FitBounds implements session.Renderer.
func (c *Client) FitBounds(b models.BoundingBox) {
	c.enqueue(map[string]interface{}{"event": "fit_bounds", "bounds": b})
}

// ShowRoute implements session.Renderer and routing.RouteView: the new
// polyline replaces the old one and the viewport frames it.
func (c *Client) ShowRoute(route models.Route) {
	c.enqueue(map[string]interface{}{"event": "show_route", "route": route})
	if b, ok := models.PathBounds(route.Path); ok {
		c.FitBounds(b)
	}
}

// ClearRoute implements session.Renderer and routing.RouteView.
func (c *Client) ClearRoute() {
	c.enqueue(map[string]interface{}{"event": "clear_route"})
}

// SelectionChanged implements session.Renderer.
func (c *Client) SelectionChanged(state session.SelectionState) {
	c.enqueue(map[string]interface{}{"event": "selection", "state": state})
}

// Notify implements session.Renderer.
func (c *Client) Notify(title, body string) {
	c.enqueue(map[string]interface{}{"event": "notification", "title": title, "body": body})
}

// ReadPump pumps messages from the WebSocket connection into the
// session, camera and feed adapter.
func (c *Client) ReadPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
			}
			break
		}

		var msg IncomingMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			log.Printf("Invalid message format: %v", err)
			continue
		}
		c.handleMessage(msg)
	}
}

func (c *Client) handleMessage(msg IncomingMessage) {
	ctx := context.Background()

	switch msg.Event {
	case "ping":
		c.enqueue(map[string]interface{}{
			"event":     "pong",
			"timestamp": time.Now().Format(time.RFC3339),
		})

	case "deploy":
		if err := c.hub.adapter.Deploy(); err != nil {
			c.Notify("Deploy failed", err.Error())
		}

	case "get_drones":
		if err := c.hub.adapter.RequestDrones(); err != nil {
			c.Notify("Drone status unavailable", err.Error())
		}

	case "query":
		if c.hub.agent != nil && c.hub.adapter.Mode() == feed.ModeFake {
			c.runLocalQuery(msg.Message)
		} else if err := c.hub.adapter.SendQuery(msg.Message); err != nil {
			c.Notify("Agent unavailable", err.Error())
		}

	case "set_mode":
		switch feed.Mode(msg.Mode) {
		case feed.ModeFake, feed.ModeReal:
			c.hub.adapter.SetMode(feed.Mode(msg.Mode))
		default:
			log.Printf("⚠️ Unknown feed mode %q from %s", msg.Mode, c.ID)
		}

	case "click_hazard":
		c.session.ClickHazard(msg.ID)

	case "click_drone":
		c.session.ClickDrone(msg.Name)

	case "click_person":
		c.session.ClickPerson(ctx, msg.ID, msg.Multi)

	case "select_mode":
		c.session.SetSelectMode(ctx, msg.Enabled)

	case "clear_focus":
		c.session.ClearFocus()

	case "zoom_changed":
		c.camera.OnZoomChanged(msg.Level)

	default:
		log.Printf("⚠️ Unknown event %q from dashboard %s", msg.Event, c.ID)
	}
}

// runLocalQuery answers a query with the in-process agent, feeding its
// chunks through the adapter so accumulation and the in-flight flag
// behave exactly as with a remote agent channel.
func (c *Client) runLocalQuery(text string) {
	adapter := c.hub.adapter
	question, err := adapter.BeginLocalQuery(text)
	if err != nil {
		c.Notify("Agent busy", err.Error())
		return
	}
	if question == "" {
		return
	}

	go func() {
		err := c.hub.agent.Answer(context.Background(), question,
			func(chunk string) { adapter.HandleEvent(feed.ChatChunkEvent{Content: chunk}) },
			func() { adapter.HandleEvent(feed.AgentCompleteEvent{}) },
		)
		if err != nil {
			log.Printf("   ❌ Local agent query failed: %v", err)
			c.Notify("Agent error", err.Error())
			adapter.HandleEvent(feed.AgentCompleteEvent{})
		}
	}()
}

// WritePump pumps frames from the send queue to the WebSocket
// connection.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			w, err := c.conn.NextWriter(websocket.TextMessage)
			if err != nil {
				return
			}
			w.Write(message)

			// Add queued messages to the current WebSocket message
			n := len(c.send)
			for i := 0; i < n; i++ {
				w.Write([]byte{'\n'})
				w.Write(<-c.send)
			}

			if err := w.Close(); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
