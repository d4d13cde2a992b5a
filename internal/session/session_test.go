package session

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skyrescue-backend/internal/models"
	"skyrescue-backend/internal/routing"
	"skyrescue-backend/internal/store"
)

type fixedRouteService struct {
	lastReq routing.RouteRequest
}

func (s *fixedRouteService) CalculateRoute(_ context.Context, req routing.RouteRequest) (*routing.RouteResult, error) {
	s.lastReq = req
	return &routing.RouteResult{
		Path:           []models.LatLng{req.Origin, req.Destination},
		DistanceMeters: 500,
	}, nil
}

func newTestSession(t *testing.T) (*Session, *recorder, *store.Store, *fixedRouteService) {
	t.Helper()
	st := store.New()
	st.SetPersons([]models.Person{
		{ID: "p1", Confidence: 0.95, BBox: [4]float64{35.7816, -78.6422, 0, 0}},
		{ID: "p2", Confidence: 0.88, BBox: [4]float64{35.7736, -78.6352, 0, 0}},
	})
	st.SetDrones([]models.Drone{
		{Name: "Drone X123", IsConnected: true, BatteryLevel: 85, Position: models.LatLng{Lat: 35.7836, Lng: -78.6332}},
	})
	st.SetHazards([]models.Hazard{
		{ID: "h1", Kind: models.HazardFire, Severity: models.SeverityHigh, Location: models.LatLng{Lat: 35.7766, Lng: -78.6322}},
	})

	rec := &recorder{autoAck: true}
	camera := NewCamera(rec, 12)
	rec.camera = camera
	camera.stepDelay = 0

	svc := &fixedRouteService{}
	planner := routing.NewPlanner(svc, st, rec, models.LatLng{Lat: 35.7796, Lng: -78.6382})
	return New(st, camera, planner, rec), rec, st, svc
}

func TestSelectModeOffClearsSelection(t *testing.T) {
	s, rec, _, _ := newTestSession(t)
	ctx := context.Background()

	s.SetSelectMode(ctx, true)
	s.ClickPerson(ctx, "p1", false)
	s.ClickPerson(ctx, "p2", true)
	require.Equal(t, []string{"p1", "p2"}, s.Selection().SelectedPersons)

	s.SetSelectMode(ctx, false)
	assert.Empty(t, s.Selection().SelectedPersons)
	assert.False(t, s.Selection().SelectMode)

	// Dropping the selection also drops the route.
	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Equal(t, 1, rec.cleared)
}

func TestReclickRemovesSelectedPerson(t *testing.T) {
	s, _, _, _ := newTestSession(t)
	ctx := context.Background()
	s.SetSelectMode(ctx, true)

	// Removal happens with and without the multi-select modifier.
	s.ClickPerson(ctx, "p1", false)
	s.ClickPerson(ctx, "p1", true)
	assert.Empty(t, s.Selection().SelectedPersons)

	s.ClickPerson(ctx, "p1", true)
	s.ClickPerson(ctx, "p1", false)
	assert.Empty(t, s.Selection().SelectedPersons)
}

func TestClickPersonReplacesWithoutModifier(t *testing.T) {
	s, _, _, _ := newTestSession(t)
	ctx := context.Background()
	s.SetSelectMode(ctx, true)

	s.ClickPerson(ctx, "p1", false)
	s.ClickPerson(ctx, "p2", false)
	assert.Equal(t, []string{"p2"}, s.Selection().SelectedPersons)

	s.ClickPerson(ctx, "p1", true)
	assert.Equal(t, []string{"p2", "p1"}, s.Selection().SelectedPersons)
}

func TestFocusDrivesPanels(t *testing.T) {
	s, _, _, _ := newTestSession(t)
	ctx := context.Background()

	s.ClickHazard("h1")
	sel := s.Selection()
	assert.Equal(t, FocusHazard, sel.Focus)
	assert.True(t, sel.DetailPanelOpen())
	assert.False(t, sel.HumanPanelOpen())

	s.ClickPerson(ctx, "p1", false)
	sel = s.Selection()
	assert.Equal(t, FocusPerson, sel.Focus)
	assert.True(t, sel.HumanPanelOpen())
	assert.False(t, sel.DetailPanelOpen())

	s.ClickDrone("Drone X123")
	sel = s.Selection()
	assert.Equal(t, FocusDrone, sel.Focus)
	assert.True(t, sel.DetailPanelOpen())

	s.ClearFocus()
	sel = s.Selection()
	assert.Equal(t, FocusNone, sel.Focus)
	assert.False(t, sel.DetailPanelOpen())
	assert.False(t, sel.HumanPanelOpen())
}

func TestUnknownEntityClicksIgnored(t *testing.T) {
	s, rec, _, _ := newTestSession(t)
	ctx := context.Background()

	s.ClickHazard("nope")
	s.ClickDrone("nope")
	s.ClickPerson(ctx, "nope", false)

	assert.Equal(t, FocusNone, s.Selection().Focus)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	assert.Empty(t, rec.pans)
	assert.Empty(t, rec.selections)
}

func TestFocusPansToEntity(t *testing.T) {
	s, rec, _, _ := newTestSession(t)

	s.ClickHazard("h1")

	rec.mu.Lock()
	require.Len(t, rec.pans, 1)
	assert.InDelta(t, 35.7766, rec.pans[0].Lat, 1e-9)
	assert.InDelta(t, -78.6322, rec.pans[0].Lng, 1e-9)
	rec.mu.Unlock()

	require.Eventually(t, func() bool {
		calls := rec.zoomCalls()
		return len(calls) > 0 && calls[len(calls)-1] == hazardZoomLevel
	}, time.Second, 2*time.Millisecond)
}

func TestSelectionDrivesRoutePlanning(t *testing.T) {
	s, rec, _, svc := newTestSession(t)
	ctx := context.Background()
	s.SetSelectMode(ctx, true)

	s.ClickPerson(ctx, "p1", false)
	rec.mu.Lock()
	require.Len(t, rec.routes, 1)
	assert.Equal(t, "p1", rec.routes[0].DestinationID)
	rec.mu.Unlock()
	assert.Nil(t, svc.lastReq.Via)

	// Second selection becomes the waypoint.
	s.ClickPerson(ctx, "p2", true)
	require.NotNil(t, svc.lastReq.Via)
	assert.InDelta(t, 35.7736, svc.lastReq.Via.Lat, 1e-9)
	assert.InDelta(t, 35.7816, svc.lastReq.Destination.Lat, 1e-9)
}
