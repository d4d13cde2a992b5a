package models

// Route is a planned walking route from the operator position to a
// destination person, optionally via a waypoint. Derived state: it is
// recomputed whole, never patched, and never persisted.
type Route struct {
	DestinationID string   `json:"destination_id"`
	Path          []LatLng `json:"path"`
	// AvoidedKinds lists hazard kinds the operator dismissed; hazards of
	// these kinds are not buffered when the route is computed.
	AvoidedKinds     []HazardKind `json:"avoided_hazard_kinds"`
	DistanceMeters   float64      `json:"distance_meters"`
	EstimatedMinutes int          `json:"estimated_minutes"`
}

// DisplayFilter controls which entity kinds the dashboard renders.
// HazardKinds holds kind names, or the single wildcard "all".
type DisplayFilter struct {
	HazardKinds []string `json:"hazards"`
	ShowDrones  bool     `json:"drones"`
	ShowPeople  bool     `json:"humans"`
}

// DefaultDisplayFilter shows everything
func DefaultDisplayFilter() DisplayFilter {
	return DisplayFilter{HazardKinds: []string{"all"}, ShowDrones: true, ShowPeople: true}
}

// ShowsHazard reports whether a hazard of the given kind is displayed
func (f DisplayFilter) ShowsHazard(kind HazardKind) bool {
	if len(f.HazardKinds) > 0 && f.HazardKinds[0] == "all" {
		return true
	}
	for _, k := range f.HazardKinds {
		if NormalizeHazardKind(k) == kind {
			return true
		}
	}
	return false
}
