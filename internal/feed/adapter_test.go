package feed

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"skyrescue-backend/internal/models"
	"skyrescue-backend/internal/store"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedNotification struct {
	title string
	body  string
}

func newTestAdapter(t *testing.T) (*Adapter, *store.Store, *[]capturedNotification) {
	t.Helper()
	st := store.New()
	var notes []capturedNotification
	a := New(Config{Center: models.LatLng{Lat: 35.7796, Lng: -78.6382}}, st, func(title, body string) {
		notes = append(notes, capturedNotification{title: title, body: body})
	})
	return a, st, &notes
}

func TestChatAccumulation(t *testing.T) {
	a, _, notes := newTestAdapter(t)

	a.HandleEvent(ChatChunkEvent{Content: "A"})
	a.HandleEvent(ChatChunkEvent{Content: "B"})
	a.HandleEvent(AgentCompleteEvent{})

	require.Len(t, *notes, 1)
	assert.Equal(t, "Summary", (*notes)[0].title)
	assert.Equal(t, "AB", (*notes)[0].body)

	// buffer resets; a later exchange starts clean
	assert.Equal(t, "", a.AgentBuffer())
	a.HandleEvent(ChatChunkEvent{Content: "C"})
	a.HandleEvent(AgentCompleteEvent{})
	require.Len(t, *notes, 2)
	assert.Equal(t, "C", (*notes)[1].body)
}

func TestAgentCompleteClearsInFlight(t *testing.T) {
	a, _, _ := newTestAdapter(t)

	a.mu.Lock()
	a.inFlight = true
	a.mu.Unlock()

	a.HandleEvent(AgentCompleteEvent{})
	assert.False(t, a.QueryInFlight())
}

func TestSendQueryBlankIsNoOp(t *testing.T) {
	a, _, _ := newTestAdapter(t)

	require.NoError(t, a.SendQuery(""))
	require.NoError(t, a.SendQuery("   \t\n"))
	assert.False(t, a.QueryInFlight())
}

func TestSendQuerySingleFlightUnderContention(t *testing.T) {
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()

	a, _, _ := newTestAdapter(t)
	a.mu.Lock()
	a.agentConn = conn
	a.mu.Unlock()

	for round := 0; round < 200; round++ {
		start := make(chan struct{})
		results := make(chan error, 2)
		for i := 0; i < 2; i++ {
			go func() {
				<-start
				results <- a.SendQuery("status report")
			}()
		}
		close(start)

		succeeded := 0
		for i := 0; i < 2; i++ {
			if <-results == nil {
				succeeded++
			}
		}
		require.Equal(t, 1, succeeded, "exactly one concurrent query may be in flight")

		a.mu.Lock()
		a.clearInFlightLocked()
		a.mu.Unlock()
	}
}

func TestTelemetryMergeRules(t *testing.T) {
	a, st, _ := newTestAdapter(t)

	a.HandleEvent(TelemetryEvent{
		Persons: []models.Person{{ID: "p1", Confidence: 0.8}},
		Frame:   "frame-1",
		DroneStatus: &models.Drone{
			Name: "Drone X123", IsConnected: true, BatteryLevel: 90,
		},
	})
	a.HandleEvent(TelemetryEvent{
		Persons: []models.Person{{ID: "p1", Confidence: 0.95}, {ID: "p2", Confidence: 0.7}},
		Frame:   "frame-2",
		DroneStatus: &models.Drone{
			Name: "Drone X123", IsConnected: true, BatteryLevel: 88,
		},
	})

	persons := st.Persons()
	require.Len(t, persons, 2)
	assert.Equal(t, 0.95, persons[0].Confidence)
	assert.Equal(t, "frame-2", persons[0].Image) // latest frame becomes the thumbnail

	drones := st.Drones()
	require.Len(t, drones, 1)
	assert.Equal(t, 88, drones[0].BatteryLevel)
}

func TestDisplayHazardsReplacesFilter(t *testing.T) {
	a, st, _ := newTestAdapter(t)

	a.HandleEvent(DisplayHazardsEvent{
		Filter: models.DisplayFilter{HazardKinds: []string{"fire"}, ShowDrones: false, ShowPeople: true},
	})

	f := st.Filter()
	assert.True(t, f.ShowsHazard(models.HazardFire))
	assert.False(t, f.ShowsHazard(models.HazardPower))
	assert.False(t, f.ShowDrones)
	assert.True(t, f.ShowPeople)
}

func TestPlanRouteDirectiveForwarded(t *testing.T) {
	a, _, _ := newTestAdapter(t)

	var got PlanRouteEvent
	a.OnPlanRoute(func(e PlanRouteEvent) { got = e })

	a.HandleEvent(PlanRouteEvent{
		AvoidedKinds:  []models.HazardKind{models.HazardFire},
		DestinationID: "person3",
	})

	assert.Equal(t, "person3", got.DestinationID)
	assert.Equal(t, []models.HazardKind{models.HazardFire}, got.AvoidedKinds)
}

func TestDeployPopulatesStore(t *testing.T) {
	a, st, _ := newTestAdapter(t)

	require.NoError(t, a.Deploy())

	assert.Len(t, st.Hazards(), 3)
	assert.Len(t, st.Persons(), 4)
	assert.Len(t, st.Drones(), 2)

	h1, ok := st.FindHazard("hazard1")
	require.True(t, ok)
	assert.Equal(t, models.SeverityModerate, h1.Severity)
	assert.InDelta(t, 35.7796+0.005, h1.Location.Lat, 1e-9)
	assert.InDelta(t, -78.6382+0.007, h1.Location.Lng, 1e-9)
}

func TestModeSwitchResetsState(t *testing.T) {
	a, st, _ := newTestAdapter(t)

	require.NoError(t, a.Deploy())
	a.HandleEvent(ChatChunkEvent{Content: "partial"})

	a.SetMode(ModeReal)
	defer a.Stop()

	assert.Empty(t, st.Persons())
	assert.Empty(t, st.Drones())
	assert.Empty(t, st.Hazards())
	assert.Equal(t, "", a.AgentBuffer())
	assert.False(t, a.QueryInFlight())
}

func TestQueryTimeoutClearsFlag(t *testing.T) {
	st := store.New()
	var notes []capturedNotification
	a := New(Config{
		Center:       models.LatLng{},
		QueryTimeout: 10 * time.Millisecond,
	}, st, func(title, body string) {
		notes = append(notes, capturedNotification{title: title, body: body})
	})

	a.mu.Lock()
	a.inFlight = true
	a.queryTimer = time.AfterFunc(a.cfg.QueryTimeout, a.expireQuery)
	a.mu.Unlock()

	require.Eventually(t, func() bool { return !a.QueryInFlight() }, time.Second, 5*time.Millisecond)
	require.Len(t, notes, 1)
	assert.Equal(t, "Agent timeout", notes[0].title)
}
