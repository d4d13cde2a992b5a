package session

import (
	"log"
	"sync"
	"time"
)

const (
	defaultZoomStepDelay  = 80 * time.Millisecond
	defaultZoomAckTimeout = 2 * time.Second
)

// Camera drives viewport motion for one dashboard session. Pans are
// immediate; zooms walk one level at a time so the map never jumps.
// Each SmoothZoom call supersedes any stepper still in flight.
type Camera struct {
	renderer Renderer

	mu    sync.Mutex
	level int
	gen   uint64

	acks chan int

	stepDelay  time.Duration
	ackTimeout time.Duration
}

// NewCamera creates a camera at the given initial zoom level.
func NewCamera(renderer Renderer, level int) *Camera {
	return &Camera{
		renderer:   renderer,
		level:      level,
		acks:       make(chan int, 8),
		stepDelay:  defaultZoomStepDelay,
		ackTimeout: defaultZoomAckTimeout,
	}
}

// Level returns the last acknowledged zoom level.
func (c *Camera) Level() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.level
}

// OnZoomChanged records the map's zoom acknowledgment and unblocks the
// stepper waiting on it.
func (c *Camera) OnZoomChanged(level int) {
	c.mu.Lock()
	c.level = level
	c.mu.Unlock()
	select {
	case c.acks <- level:
	default:
	}
}

// SmoothZoom steps the zoom toward target one level at a time, waiting
// for each acknowledgment plus the inter-step delay. Returns
// immediately; the stepper runs in its own goroutine and stops early if
// a newer SmoothZoom supersedes it.
func (c *Camera) SmoothZoom(target int) {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	current := c.level
	c.mu.Unlock()

	if current == target {
		return
	}

	// Drop acks left over from a superseded stepper so the new one
	// only counts its own.
drain:
	for {
		select {
		case <-c.acks:
		default:
			break drain
		}
	}

	go c.run(gen, target)
}

func (c *Camera) run(gen uint64, target int) {
	// Bounded by the initial delta; a stale ack can never extend it.
	c.mu.Lock()
	steps := target - c.level
	c.mu.Unlock()
	if steps < 0 {
		steps = -steps
	}

	for i := 0; i < steps; i++ {
		c.mu.Lock()
		if gen != c.gen {
			c.mu.Unlock()
			return
		}
		current := c.level
		c.mu.Unlock()

		if current == target {
			return
		}
		next := current + 1
		if target < current {
			next = current - 1
		}
		c.renderer.SetZoom(next)

		select {
		case <-c.acks:
		case <-time.After(c.ackTimeout):
			log.Printf("⚠️ zoom step to %d not acknowledged", next)
			c.mu.Lock()
			c.level = next
			c.mu.Unlock()
		}
		time.Sleep(c.stepDelay)
	}
}
