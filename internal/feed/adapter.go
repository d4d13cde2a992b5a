package feed

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"skyrescue-backend/internal/models"
	"skyrescue-backend/internal/store"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// Mode selects the data source feeding the entity store
type Mode string

const (
	ModeFake Mode = "fake" // local deterministic simulation
	ModeReal Mode = "real" // live telemetry + agent channels
)

const (
	defaultQueryTimeout = 30 * time.Second
	backoffBase         = time.Second
	backoffMax          = 30 * time.Second
)

// Notifier receives user-visible notifications (agent summaries,
// timeouts). The websocket hub forwards these to dashboard clients.
type Notifier func(title, body string)

// Config holds the adapter's connection settings
type Config struct {
	TelemetryURL string
	AgentURL     string
	Center       models.LatLng
	QueryTimeout time.Duration
}

// Adapter normalizes two mutually exclusive input sources, a live push
// channel and a local simulation generator, into entity store updates.
// It owns its upstream connections; they are created and torn down with
// the adapter's lifecycle, never shared process-wide.
type Adapter struct {
	cfg    Config
	store  *store.Store
	notify Notifier

	// onPlanRoute is invoked for plan_route directives from the agent
	onPlanRoute func(PlanRouteEvent)

	// onChatChunk is invoked for every streamed agent text chunk
	onChatChunk func(content string)

	mu         sync.Mutex
	mode       Mode
	connected  bool
	chatBuf    strings.Builder
	inFlight   bool
	queryTimer *time.Timer
	agentConn  *websocket.Conn
	telemConn  *websocket.Conn
	writeMu    sync.Mutex
	realCancel context.CancelFunc
}

// New creates an adapter in fake mode. Call SetMode(ModeReal) to dial the
// live channels.
func New(cfg Config, st *store.Store, notify Notifier) *Adapter {
	if cfg.QueryTimeout <= 0 {
		cfg.QueryTimeout = defaultQueryTimeout
	}
	if notify == nil {
		notify = func(string, string) {}
	}
	return &Adapter{
		cfg:    cfg,
		store:  st,
		notify: notify,
		mode:   ModeFake,
	}
}

// OnPlanRoute registers the callback for plan_route directives
func (a *Adapter) OnPlanRoute(fn func(PlanRouteEvent)) {
	a.mu.Lock()
	a.onPlanRoute = fn
	a.mu.Unlock()
}

// OnChatChunk registers the callback for streamed agent text chunks
func (a *Adapter) OnChatChunk(fn func(content string)) {
	a.mu.Lock()
	a.onChatChunk = fn
	a.mu.Unlock()
}

// Mode returns the active data-source mode
func (a *Adapter) Mode() Mode {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.mode
}

// Connected reports whether the telemetry channel is up
func (a *Adapter) Connected() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.connected
}

// QueryInFlight reports whether an agent query is awaiting completion
func (a *Adapter) QueryInFlight() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.inFlight
}

// SetMode switches between fake and real mode. Mode-dependent state
// (entities, chat buffer, in-flight flag) is reset so simulated data
// never contaminates live data or vice versa.
func (a *Adapter) SetMode(mode Mode) {
	a.mu.Lock()
	if a.mode == mode {
		a.mu.Unlock()
		return
	}
	a.mode = mode
	a.chatBuf.Reset()
	a.clearInFlightLocked()
	cancel := a.realCancel
	a.realCancel = nil
	a.mu.Unlock()

	log.Printf("🔀 [FEED] Data mode switched to %s", mode)
	a.store.Clear()

	if cancel != nil {
		cancel()
	}
	if mode == ModeReal {
		a.startReal()
	}
}

// Deploy triggers a deployment action: a fresh simulation round is
// applied as a full snapshot, and in real mode the DEPLOY command is
// forwarded upstream so the drones actually take off.
func (a *Adapter) Deploy() error {
	dep := GenerateDeployment(a.cfg.Center, time.Now())
	a.store.SetHazards(dep.Hazards)
	a.store.SetPersons(dep.Persons)
	a.store.SetDrones(dep.Drones)
	log.Printf("🚁 [FEED] Deployment applied: %d hazards, %d persons, %d drones",
		len(dep.Hazards), len(dep.Persons), len(dep.Drones))

	if a.Mode() != ModeReal {
		return nil
	}
	frame, err := CommandFrame(EventDeploy)
	if err != nil {
		return err
	}
	return a.writeTelemetry(frame)
}

// RequestDrones asks the upstream channel for the current drone list
func (a *Adapter) RequestDrones() error {
	if a.Mode() != ModeReal {
		return nil
	}
	frame, err := CommandFrame(EventGetDrones)
	if err != nil {
		return err
	}
	return a.writeTelemetry(frame)
}

// SendQuery transmits an operator query to the agent channel. Blank or
// whitespace-only input is silently ignored. Only one query may be in
// flight; the flag is cleared by AGENT_RESPONSE_COMPLETE or by the
// configured timeout.
func (a *Adapter) SendQuery(text string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}

	// Reserve the in-flight slot in the same critical section as the
	// check, before the write, so two concurrent calls cannot both pass.
	a.mu.Lock()
	if a.inFlight {
		a.mu.Unlock()
		return fmt.Errorf("a query is already in flight")
	}
	conn := a.agentConn
	if conn == nil {
		a.mu.Unlock()
		return fmt.Errorf("agent channel is not connected")
	}
	a.inFlight = true
	a.queryTimer = time.AfterFunc(a.cfg.QueryTimeout, a.expireQuery)
	a.mu.Unlock()

	frame, err := QueryFrame(text)
	if err == nil {
		err = a.write(conn, frame)
	}
	if err != nil {
		a.mu.Lock()
		a.clearInFlightLocked()
		a.mu.Unlock()
		return fmt.Errorf("failed to send query: %w", err)
	}

	log.Printf("💬 [FEED] Query sent: %q", text)
	return nil
}

// BeginLocalQuery reserves the in-flight slot for a query answered by
// the in-process agent instead of the agent channel. It returns the
// trimmed query text; blank input returns "" and reserves nothing.
func (a *Adapter) BeginLocalQuery(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", nil
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	if a.inFlight {
		return "", fmt.Errorf("a query is already in flight")
	}
	a.inFlight = true
	a.queryTimer = time.AfterFunc(a.cfg.QueryTimeout, a.expireQuery)
	return text, nil
}

// expireQuery clears a query that never completed
func (a *Adapter) expireQuery() {
	a.mu.Lock()
	if !a.inFlight {
		a.mu.Unlock()
		return
	}
	a.inFlight = false
	a.chatBuf.Reset()
	a.mu.Unlock()

	log.Printf("⚠️ [FEED] Agent query timed out after %s", a.cfg.QueryTimeout)
	a.notify("Agent timeout", "The agent did not answer in time. Please retry.")
}

func (a *Adapter) clearInFlightLocked() {
	a.inFlight = false
	if a.queryTimer != nil {
		a.queryTimer.Stop()
		a.queryTimer = nil
	}
}

// HandleEvent applies one decoded inbound event to the entity store.
// Events must be applied in arrival order; callers must not reorder or
// coalesce distinct event types.
func (a *Adapter) HandleEvent(ev Event) {
	switch e := ev.(type) {
	case TelemetryEvent:
		a.applyTelemetry(e)

	case DisplayHazardsEvent:
		a.store.SetFilter(e.Filter)

	case PlanRouteEvent:
		a.mu.Lock()
		fn := a.onPlanRoute
		a.mu.Unlock()
		if fn != nil {
			fn(e)
		}

	case ChatChunkEvent:
		a.mu.Lock()
		a.chatBuf.WriteString(e.Content)
		fn := a.onChatChunk
		a.mu.Unlock()
		if fn != nil {
			fn(e.Content)
		}

	case AgentCompleteEvent:
		a.mu.Lock()
		summary := a.chatBuf.String()
		a.chatBuf.Reset()
		a.clearInFlightLocked()
		a.mu.Unlock()
		a.notify("Summary", summary)
	}
}

// AgentBuffer exposes the in-progress agent message, for display
func (a *Adapter) AgentBuffer() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.chatBuf.String()
}

func (a *Adapter) applyTelemetry(e TelemetryEvent) {
	if len(e.Persons) > 0 {
		persons := make([]models.Person, len(e.Persons))
		copy(persons, e.Persons)
		for i := range persons {
			if persons[i].ID == "" {
				persons[i].ID = uuid.NewString()
			}
			if persons[i].Image == "" {
				persons[i].Image = e.Frame
			}
		}
		// push mode is additive, keyed by id
		a.store.UpsertPersons(persons)
	}
	if e.DroneStatus != nil {
		a.store.UpsertDrone(*e.DroneStatus)
	}
}

// startReal dials the telemetry and agent channels with independent
// reconnect loops
func (a *Adapter) startReal() {
	ctx, cancel := context.WithCancel(context.Background())
	a.mu.Lock()
	a.realCancel = cancel
	a.mu.Unlock()

	go a.runChannel(ctx, "telemetry", a.cfg.TelemetryURL, a.setTelemetryConn)
	if a.cfg.AgentURL != "" {
		go a.runChannel(ctx, "agent", a.cfg.AgentURL, a.setAgentConn)
	}
}

// Stop tears down any live connections
func (a *Adapter) Stop() {
	a.mu.Lock()
	cancel := a.realCancel
	a.realCancel = nil
	a.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

func (a *Adapter) setTelemetryConn(conn *websocket.Conn) {
	a.mu.Lock()
	a.telemConn = conn
	a.connected = conn != nil
	a.mu.Unlock()
	if conn == nil {
		// connectivity-dependent display state resets synchronously
		a.store.MarkDronesDisconnected()
	}
}

func (a *Adapter) setAgentConn(conn *websocket.Conn) {
	a.mu.Lock()
	a.agentConn = conn
	if conn == nil {
		a.clearInFlightLocked()
		a.chatBuf.Reset()
	}
	a.mu.Unlock()
}

// runChannel maintains one upstream connection, reconnecting with
// exponential backoff capped at backoffMax.
func (a *Adapter) runChannel(ctx context.Context, name, url string, setConn func(*websocket.Conn)) {
	backoff := backoffBase
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
		if err != nil {
			log.Printf("❌ [FEED] %s dial failed: %v (retrying in %s)", name, err, backoff)
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			backoff = min(backoff*2, backoffMax)
			continue
		}

		log.Printf("✅ [FEED] %s channel connected: %s", name, url)
		backoff = backoffBase
		setConn(conn)
		a.readLoop(ctx, name, conn)
		setConn(nil)
		conn.Close()

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, backoffMax)
	}
}

func (a *Adapter) readLoop(ctx context.Context, name string, conn *websocket.Conn) {
	go func() {
		<-ctx.Done()
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("🔴 [FEED] %s channel closed: %v", name, err)
			}
			return
		}

		ev, err := DecodeEvent(data, time.Now())
		if err != nil {
			log.Printf("⚠️ [FEED] skipping %s frame: %v", name, err)
			continue
		}
		a.HandleEvent(ev)
	}
}

func (a *Adapter) writeTelemetry(frame []byte) error {
	a.mu.Lock()
	conn := a.telemConn
	a.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("telemetry channel is not connected")
	}
	return a.write(conn, frame)
}

func (a *Adapter) write(conn *websocket.Conn, frame []byte) error {
	a.writeMu.Lock()
	defer a.writeMu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return conn.WriteMessage(websocket.TextMessage, frame)
}
