package session

import "skyrescue-backend/internal/models"

// Renderer is the map surface a dashboard session draws on. The
// websocket layer implements it by emitting render-command frames;
// tests implement it with an in-memory recorder. The session core
// never knows which mapping SDK sits on the other end.
type Renderer interface {
	// PanTo recenters the viewport immediately, no interpolation.
	PanTo(pos models.LatLng)
	// SetZoom requests a single zoom step. The renderer answers with a
	// zoom-change acknowledgment routed to Camera.OnZoomChanged.
	SetZoom(level int)
	// FitBounds frames the viewport around a bounding box.
	FitBounds(b models.BoundingBox)
	// ShowRoute draws a route polyline, replacing any previous one.
	ShowRoute(route models.Route)
	// ClearRoute removes the active route polyline.
	ClearRoute()
	// SelectionChanged pushes the new selection state, from which the
	// client derives all panel visibility.
	SelectionChanged(state SelectionState)
	// Notify raises a user-visible toast.
	Notify(title, body string)
}
