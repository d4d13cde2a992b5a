package session

import (
	"context"
	"log"
	"sync"

	"github.com/google/uuid"

	"skyrescue-backend/internal/routing"
	"skyrescue-backend/internal/store"
)

// FocusKind identifies which entity kind currently drives the side
// panel and camera.
type FocusKind string

const (
	FocusNone   FocusKind = "none"
	FocusDrone  FocusKind = "drone"
	FocusHazard FocusKind = "hazard"
	FocusPerson FocusKind = "person"
)

// SelectionState is the single source of truth for what the operator
// has selected. All panel visibility is derived from it; the client
// never sets a panel flag directly.
type SelectionState struct {
	Focus           FocusKind `json:"focus"`
	FocusedID       string    `json:"focused_id"`
	SelectMode      bool      `json:"select_mode"`
	SelectedPersons []string  `json:"selected_persons"`
}

// DetailPanelOpen reports whether the drone/hazard side panel shows.
func (s SelectionState) DetailPanelOpen() bool {
	return s.Focus == FocusDrone || s.Focus == FocusHazard
}

// HumanPanelOpen reports whether the person detail panel shows. The two
// panels are mutually exclusive by construction.
func (s SelectionState) HumanPanelOpen() bool {
	return s.Focus == FocusPerson
}

// Zoom levels applied when the camera flies to a focused entity.
// Hazards get one level closer so the danger area fills the viewport.
const (
	hazardZoomLevel = 16
	droneZoomLevel  = 15
)

// Session holds the interaction state of one connected dashboard:
// selection, camera and the active route. Entity collections live in
// the shared store; a session only references them by id.
type Session struct {
	ID       string
	store    *store.Store
	camera   *Camera
	planner  *routing.Planner
	renderer Renderer

	mu  sync.Mutex
	sel SelectionState
}

// New creates a session with an empty selection.
func New(st *store.Store, camera *Camera, planner *routing.Planner, renderer Renderer) *Session {
	return &Session{
		ID:       uuid.New().String(),
		store:    st,
		camera:   camera,
		planner:  planner,
		renderer: renderer,
		sel:      SelectionState{Focus: FocusNone},
	}
}

// Selection returns a copy of the current selection state.
func (s *Session) Selection() SelectionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() SelectionState {
	out := s.sel
	out.SelectedPersons = append([]string(nil), s.sel.SelectedPersons...)
	return out
}

func (s *Session) pushSelection() {
	s.mu.Lock()
	snap := s.snapshotLocked()
	s.mu.Unlock()
	s.renderer.SelectionChanged(snap)
}

// ClickHazard focuses a hazard: detail panel opens, person focus drops,
// camera flies to the hazard. Unknown ids are ignored.
func (s *Session) ClickHazard(id string) {
	hazard, ok := s.store.FindHazard(id)
	if !ok {
		log.Printf("⚠️ click on unknown hazard %s ignored", id)
		return
	}
	s.mu.Lock()
	s.sel.Focus = FocusHazard
	s.sel.FocusedID = id
	s.mu.Unlock()
	s.pushSelection()
	s.renderer.PanTo(hazard.Location)
	s.camera.SmoothZoom(hazardZoomLevel)
}

// ClickDrone focuses a drone, clearing any hazard focus.
func (s *Session) ClickDrone(name string) {
	drone, ok := s.store.FindDrone(name)
	if !ok {
		log.Printf("⚠️ click on unknown drone %s ignored", name)
		return
	}
	s.mu.Lock()
	s.sel.Focus = FocusDrone
	s.sel.FocusedID = name
	s.mu.Unlock()
	s.pushSelection()
	s.renderer.PanTo(drone.Position)
	s.camera.SmoothZoom(droneZoomLevel)
}

// ClickPerson handles a person marker click. Outside select mode it
// focuses the person and opens the human panel. In select mode it
// toggles set membership: a re-click always removes; otherwise the
// multi-select modifier decides between adding to the set and replacing
// it.
func (s *Session) ClickPerson(ctx context.Context, id string, multiSelect bool) {
	if _, ok := s.store.FindPerson(id); !ok {
		log.Printf("⚠️ click on unknown person %s ignored", id)
		return
	}

	s.mu.Lock()
	if !s.sel.SelectMode {
		s.sel.Focus = FocusPerson
		s.sel.FocusedID = id
		s.mu.Unlock()
		s.pushSelection()
		return
	}

	idx := -1
	for i, p := range s.sel.SelectedPersons {
		if p == id {
			idx = i
			break
		}
	}
	switch {
	case idx >= 0:
		s.sel.SelectedPersons = append(s.sel.SelectedPersons[:idx], s.sel.SelectedPersons[idx+1:]...)
	case multiSelect:
		s.sel.SelectedPersons = append(s.sel.SelectedPersons, id)
	default:
		s.sel.SelectedPersons = []string{id}
	}
	dest, waypoint := routeTargets(s.sel.SelectedPersons)
	s.mu.Unlock()

	s.pushSelection()
	s.syncRoute(ctx, dest, waypoint)
}

// SetSelectMode toggles multi-select. Turning it off always empties the
// selected set, so nothing stays silently selected.
func (s *Session) SetSelectMode(ctx context.Context, on bool) {
	s.mu.Lock()
	if s.sel.SelectMode == on {
		s.mu.Unlock()
		return
	}
	s.sel.SelectMode = on
	if !on {
		s.sel.SelectedPersons = nil
	}
	dest, waypoint := routeTargets(s.sel.SelectedPersons)
	s.mu.Unlock()

	s.pushSelection()
	s.syncRoute(ctx, dest, waypoint)
}

// ClearFocus closes whichever panel is open.
func (s *Session) ClearFocus() {
	s.mu.Lock()
	s.sel.Focus = FocusNone
	s.sel.FocusedID = ""
	s.mu.Unlock()
	s.pushSelection()
}

// routeTargets maps the ordered selection onto planner inputs: first
// entry is the destination, second the waypoint.
func routeTargets(selected []string) (dest, waypoint string) {
	if len(selected) > 0 {
		dest = selected[0]
	}
	if len(selected) > 1 {
		waypoint = selected[1]
	}
	return dest, waypoint
}

func (s *Session) syncRoute(ctx context.Context, dest, waypoint string) {
	if s.planner == nil {
		return
	}
	if err := s.planner.SetTargets(ctx, dest, waypoint); err != nil {
		log.Printf("   ❌ route update failed: %v", err)
		s.renderer.Notify("Routing failed", err.Error())
	}
}
