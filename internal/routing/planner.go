package routing

import (
	"context"
	"fmt"
	"log"
	"math"
	"sync"

	"github.com/paulmach/orb/geo"

	"skyrescue-backend/internal/models"
	"skyrescue-backend/internal/store"
)

// Rescue time assumes a 5 km/h walking pace plus a fixed on-site buffer.
const (
	walkingSpeedMetersPerMin = 83.33
	rescueBufferMinutes      = 10
	avoidAreaHalfWidth       = 0.0005
)

// RouteView receives the planner's output. The websocket layer
// implements it to push polylines down to the dashboard.
type RouteView interface {
	ShowRoute(route models.Route)
	ClearRoute()
}

// Planner owns the active rescue route: which person we are routing to,
// the waypoint in between, and which hazard kinds the operator has
// dismissed from route avoidance.
// Recomputes run concurrently; only the newest request may apply.
type Planner struct {
	service RouteService
	store   *store.Store
	view    RouteView

	mu         sync.Mutex
	origin     models.LatLng
	destID     string
	waypointID string
	avoided    []models.HazardKind
	route      *models.Route
	seq        uint64
}

// NewPlanner creates a planner routing from the given operator position.
func NewPlanner(service RouteService, st *store.Store, view RouteView, origin models.LatLng) *Planner {
	return &Planner{
		service: service,
		store:   st,
		view:    view,
		origin:  origin,
	}
}

// SetOrigin moves the operator position and recomputes the active route.
func (p *Planner) SetOrigin(ctx context.Context, origin models.LatLng) {
	p.mu.Lock()
	p.origin = origin
	p.mu.Unlock()
	p.recomputeIfActive(ctx)
}

// SetDestination routes to the given detected person, or clears the
// route when id is empty.
func (p *Planner) SetDestination(ctx context.Context, id string) error {
	return p.SetTargets(ctx, id, "")
}

// SetTargets replaces destination and waypoint together, triggering a
// single recompute. An empty destination clears the route.
func (p *Planner) SetTargets(ctx context.Context, destID, waypointID string) error {
	p.mu.Lock()
	p.destID = destID
	p.waypointID = waypointID
	if destID == "" {
		hadRoute := p.route != nil
		p.route = nil
		p.waypointID = ""
		p.seq++
		p.mu.Unlock()
		if hadRoute {
			p.view.ClearRoute()
		}
		return nil
	}
	p.mu.Unlock()
	return p.Recompute(ctx)
}

// SetWaypoint adds an intermediate person stop, or removes it when id
// is empty.
func (p *Planner) SetWaypoint(ctx context.Context, id string) error {
	p.mu.Lock()
	p.waypointID = id
	p.mu.Unlock()
	return p.recomputeIfActive(ctx)
}

// SetAvoidedKinds replaces the set of hazard kinds excluded from the
// route avoidance buffer.
func (p *Planner) SetAvoidedKinds(ctx context.Context, kinds []models.HazardKind) error {
	p.mu.Lock()
	p.avoided = append([]models.HazardKind(nil), kinds...)
	p.mu.Unlock()
	return p.recomputeIfActive(ctx)
}

// PlanTo is the one-shot entry point used by agent directives: set the
// avoided kinds and destination together, then compute.
func (p *Planner) PlanTo(ctx context.Context, destID string, kinds []models.HazardKind) error {
	p.mu.Lock()
	p.destID = destID
	p.avoided = append([]models.HazardKind(nil), kinds...)
	p.mu.Unlock()
	return p.Recompute(ctx)
}

// Route returns the current route, or nil when none is active.
func (p *Planner) Route() *models.Route {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.route == nil {
		return nil
	}
	r := *p.route
	r.Path = append([]models.LatLng(nil), p.route.Path...)
	return &r
}

// HandleStoreUpdate reacts to entity changes. When the destination
// person disappears from the store the route is dropped outright.
func (p *Planner) HandleStoreUpdate(u store.Update) {
	if u.Kind != store.UpdatePersons {
		return
	}
	p.mu.Lock()
	destID := p.destID
	p.mu.Unlock()
	if destID == "" {
		return
	}
	if _, ok := p.store.FindPerson(destID); ok {
		return
	}
	log.Printf("🧭 [Planner] Destination %s no longer detected, clearing route", destID)
	p.mu.Lock()
	p.destID = ""
	p.waypointID = ""
	p.route = nil
	p.seq++ // in-flight recomputes for the dropped destination must not land
	p.mu.Unlock()
	p.view.ClearRoute()
}

func (p *Planner) recomputeIfActive(ctx context.Context) error {
	p.mu.Lock()
	active := p.destID != ""
	p.mu.Unlock()
	if !active {
		return nil
	}
	return p.Recompute(ctx)
}

// Recompute calculates a fresh route for the current destination. A
// failed computation leaves the previous route on screen. A result that
// finishes after a newer request started is discarded.
func (p *Planner) Recompute(ctx context.Context) error {
	p.mu.Lock()
	destID := p.destID
	waypointID := p.waypointID
	origin := p.origin
	avoided := append([]models.HazardKind(nil), p.avoided...)
	p.seq++
	token := p.seq
	p.mu.Unlock()

	if destID == "" {
		return nil
	}
	dest, ok := p.store.FindPerson(destID)
	if !ok {
		return fmt.Errorf("destination person %s not found", destID)
	}

	req := RouteRequest{
		Origin:      origin,
		Destination: dest.Position(),
		AvoidAreas:  AvoidAreas(p.store.Hazards(), avoided),
	}
	if waypointID != "" {
		if via, ok := p.store.FindPerson(waypointID); ok {
			pos := via.Position()
			req.Via = &pos
		}
	}

	result, err := p.service.CalculateRoute(ctx, req)
	if err != nil {
		log.Printf("   ❌ [Planner] Route computation failed: %v", err)
		return err
	}
	if result.DistanceMeters == 0 {
		result.DistanceMeters = pathDistance(result.Path)
	}

	route := models.Route{
		DestinationID:    destID,
		Path:             result.Path,
		AvoidedKinds:     avoided,
		DistanceMeters:   result.DistanceMeters,
		EstimatedMinutes: EstimateRescueTime(result.DistanceMeters),
	}

	p.mu.Lock()
	if token != p.seq {
		p.mu.Unlock()
		log.Printf("🧭 [Planner] Discarding stale route result for %s", destID)
		return nil
	}
	p.route = &route
	p.mu.Unlock()

	p.view.ShowRoute(route)
	return nil
}

// AvoidAreas builds a bounding box around every hazard the route must
// steer around. Kinds in the excluded set are ones the operator has
// dismissed; those hazards get no box.
func AvoidAreas(hazards []models.Hazard, excluded []models.HazardKind) []models.BoundingBox {
	skip := make(map[models.HazardKind]bool, len(excluded))
	for _, k := range excluded {
		skip[k] = true
	}
	var areas []models.BoundingBox
	for _, h := range hazards {
		if skip[h.Kind] {
			continue
		}
		areas = append(areas, models.BoxAround(h.Location, avoidAreaHalfWidth))
	}
	return areas
}

// EstimateRescueTime converts a route length into a whole-minute ETA.
func EstimateRescueTime(distanceMeters float64) int {
	return int(math.Round(distanceMeters/walkingSpeedMetersPerMin + rescueBufferMinutes))
}

func pathDistance(path []models.LatLng) float64 {
	var total float64
	for i := 1; i < len(path); i++ {
		total += geo.Distance(path[i-1].Point(), path[i].Point())
	}
	return total
}
