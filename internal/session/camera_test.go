package session

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"skyrescue-backend/internal/models"
)

// recorder captures every render command; with autoAck set it
// acknowledges zoom steps immediately, like a healthy map client.
type recorder struct {
	mu         sync.Mutex
	camera     *Camera
	autoAck    bool
	pans       []models.LatLng
	zooms      []int
	fits       []models.BoundingBox
	routes     []models.Route
	cleared    int
	selections []SelectionState
	notices    []string
}

func (r *recorder) PanTo(pos models.LatLng) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pans = append(r.pans, pos)
}

func (r *recorder) SetZoom(level int) {
	r.mu.Lock()
	r.zooms = append(r.zooms, level)
	ack := r.autoAck
	r.mu.Unlock()
	if ack {
		r.camera.OnZoomChanged(level)
	}
}

func (r *recorder) FitBounds(b models.BoundingBox) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.fits = append(r.fits, b)
}

func (r *recorder) ShowRoute(route models.Route) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.routes = append(r.routes, route)
}

func (r *recorder) ClearRoute() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cleared++
}

func (r *recorder) SelectionChanged(state SelectionState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.selections = append(r.selections, state)
}

func (r *recorder) Notify(title, body string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, title+": "+body)
}

func (r *recorder) zoomCalls() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.zooms...)
}

func TestSmoothZoomStepsOneLevelAtATime(t *testing.T) {
	rec := &recorder{autoAck: true}
	c := NewCamera(rec, 10)
	rec.camera = c
	c.stepDelay = time.Millisecond

	c.SmoothZoom(15)

	require.Eventually(t, func() bool {
		return len(rec.zoomCalls()) == 5
	}, time.Second, 2*time.Millisecond)

	// Give a straggler stepper a chance to overshoot, then confirm it
	// stopped at exactly five single steps.
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, []int{11, 12, 13, 14, 15}, rec.zoomCalls())
	assert.Equal(t, 15, c.Level())
}

func TestSmoothZoomDownward(t *testing.T) {
	rec := &recorder{autoAck: true}
	c := NewCamera(rec, 12)
	rec.camera = c
	c.stepDelay = time.Millisecond

	c.SmoothZoom(9)

	require.Eventually(t, func() bool {
		return len(rec.zoomCalls()) == 3
	}, time.Second, 2*time.Millisecond)
	assert.Equal(t, []int{11, 10, 9}, rec.zoomCalls())
}

func TestSmoothZoomNoOpAtTarget(t *testing.T) {
	rec := &recorder{autoAck: true}
	c := NewCamera(rec, 14)
	rec.camera = c

	c.SmoothZoom(14)
	time.Sleep(10 * time.Millisecond)
	assert.Empty(t, rec.zoomCalls())
}

func TestSmoothZoomSuperseded(t *testing.T) {
	rec := &recorder{autoAck: false}
	c := NewCamera(rec, 10)
	rec.camera = c
	c.stepDelay = time.Millisecond
	c.ackTimeout = 10 * time.Millisecond

	// First stepper issues its first step and blocks on the ack.
	c.SmoothZoom(15)
	require.Eventually(t, func() bool {
		return len(rec.zoomCalls()) == 1
	}, time.Second, time.Millisecond)

	// A new target cancels it before it can issue a second step.
	c.SmoothZoom(13)

	require.Eventually(t, func() bool {
		calls := rec.zoomCalls()
		return len(calls) == 4 && calls[len(calls)-1] == 13
	}, time.Second, 2*time.Millisecond)

	time.Sleep(30 * time.Millisecond)
	calls := rec.zoomCalls()
	assert.Equal(t, []int{11, 11, 12, 13}, calls)
	assert.NotContains(t, calls, 14)
	assert.NotContains(t, calls, 15)
}
