// Package autoscroll drives the continuous vertical scroll of the plant table:
// scroll to an edge, pause, reverse, and get out of the way while the user is
// interacting with it.
package autoscroll

import (
	"fmt"
	"time"

	"github.com/raterudder/solarkiosk/pkg/loop"
)

const (
	// Speed is the distance moved per animation frame, in pixels.
	Speed = 0.5
	// EdgeThreshold is how close to an edge counts as reaching it.
	EdgeThreshold = 2.0
	// EdgeNudge is how far the offset is moved off an edge after reversing.
	// It is capped at half the overflow.
	EdgeNudge = 5.0
	// EdgePause is how long the table rests at an edge.
	EdgePause = 2 * time.Second
	// QuietPeriod is how long after the last interaction scrolling resumes.
	QuietPeriod = 3 * time.Second
)

// Metrics are live measurements of the scroll container.
type Metrics struct {
	ScrollHeight float64 `json:"scrollHeight"`
	ClientHeight float64 `json:"clientHeight"`
	ScrollTop    float64 `json:"scrollTop"`
}

// MaxScroll is the largest valid scroll offset.
func (m Metrics) MaxScroll() float64 {
	return max(m.ScrollHeight-m.ClientHeight, 0)
}

// Overflows reports whether there is anything to scroll.
func (m Metrics) Overflows() bool {
	return m.ScrollHeight > m.ClientHeight
}

// Viewport is the scroll container being driven.
type Viewport interface {
	Measure() Metrics
	ScrollTo(top float64)
}

// Interaction is a user gesture on the table.
type Interaction string

const (
	HoverStart Interaction = "hover_start"
	HoverEnd   Interaction = "hover_end"
	Wheel      Interaction = "wheel"
	Touch      Interaction = "touch"
)

// ParseInteraction validates an interaction kind coming off the wire.
func ParseInteraction(s string) (Interaction, error) {
	switch i := Interaction(s); i {
	case HoverStart, HoverEnd, Wheel, Touch:
		return i, nil
	}
	return "", fmt.Errorf("unknown interaction: %q", s)
}

// Phase is the externally visible state of the controller.
type Phase string

const (
	PhaseIdle         Phase = "idle"
	PhaseScrolling    Phase = "scrolling"
	PhasePausedAtEdge Phase = "paused_at_edge"
	PhasePausedByUser Phase = "paused_by_user"
)

// State is a copy of the controller's scroll state.
type State struct {
	Direction       int  `json:"direction"`
	IsActive        bool `json:"isActive"`
	IsPausedAtEdge  bool `json:"isPausedAtEdge"`
	SuspendedByUser bool `json:"suspendedByUser"`
	Hovering        bool `json:"hovering"`
}

// Controller is the auto-scroll state machine. All methods must be called
// from the loop.
type Controller struct {
	sched    loop.Scheduler
	viewport Viewport

	state State

	frame loop.Handle
	pause loop.Handle
	quiet loop.Handle
}

// New returns an idle Controller.
func New(sched loop.Scheduler, viewport Viewport) *Controller {
	return &Controller{
		sched:    sched,
		viewport: viewport,
		state:    State{Direction: 1},
	}
}

// Start (re)starts scrolling from the current offset heading down. Any
// pending frame or timer is dropped first.
func (c *Controller) Start() {
	c.cancelAll()
	c.state.Direction = 1
	c.state.IsPausedAtEdge = false
	c.state.SuspendedByUser = false

	if !c.viewport.Measure().Overflows() {
		c.state.IsActive = false
		return
	}
	c.state.IsActive = true
	if c.state.Hovering {
		// resumes once the quiet period after hover_end passes
		c.state.SuspendedByUser = true
		return
	}
	c.frame = c.sched.Frame(c.step)
}

// Stop cancels every pending frame and timer and goes idle.
func (c *Controller) Stop() {
	c.cancelAll()
	c.state.IsActive = false
	c.state.IsPausedAtEdge = false
	c.state.SuspendedByUser = false
}

// ScrollToTop moves the offset to 0 without changing the state.
func (c *Controller) ScrollToTop() {
	c.viewport.ScrollTo(0)
}

// Interact records a user gesture. Hover holds the table until it ends, a
// wheel or touch holds it for QuietPeriod.
func (c *Controller) Interact(kind Interaction) {
	switch kind {
	case HoverStart:
		c.state.Hovering = true
	case HoverEnd:
		c.state.Hovering = false
	}
	if !c.state.IsActive {
		return
	}

	c.cancel(&c.frame)
	c.cancel(&c.pause)
	c.cancel(&c.quiet)
	c.state.IsPausedAtEdge = false
	c.state.SuspendedByUser = true
	if kind != HoverStart {
		c.quiet = c.sched.After(QuietPeriod, c.resume)
	}
}

// State returns a copy of the scroll state.
func (c *Controller) State() State {
	return c.state
}

// Phase returns the current phase.
func (c *Controller) Phase() Phase {
	switch {
	case !c.state.IsActive:
		return PhaseIdle
	case c.state.SuspendedByUser:
		return PhasePausedByUser
	case c.state.IsPausedAtEdge:
		return PhasePausedAtEdge
	default:
		return PhaseScrolling
	}
}

func (c *Controller) step() {
	c.frame = nil
	if !c.state.IsActive || c.state.SuspendedByUser || c.state.IsPausedAtEdge {
		return
	}
	m := c.viewport.Measure()
	if !m.Overflows() {
		c.Stop()
		return
	}

	maxScroll := m.MaxScroll()
	top := min(max(m.ScrollTop+Speed*float64(c.state.Direction), 0), maxScroll)
	switch {
	case c.state.Direction > 0 && top >= maxScroll-EdgeThreshold:
		c.pauseAt(maxScroll)
	case c.state.Direction < 0 && top <= EdgeThreshold:
		c.pauseAt(0)
	default:
		c.viewport.ScrollTo(top)
		c.frame = c.sched.Frame(c.step)
	}
}

func (c *Controller) pauseAt(edge float64) {
	c.viewport.ScrollTo(edge)
	c.state.IsPausedAtEdge = true
	c.pause = c.sched.After(EdgePause, c.reverse)
}

func (c *Controller) reverse() {
	c.pause = nil
	c.state.IsPausedAtEdge = false
	m := c.viewport.Measure()
	if !m.Overflows() {
		c.Stop()
		return
	}
	c.state.Direction = -c.state.Direction

	maxScroll := m.MaxScroll()
	nudge := min(EdgeNudge, maxScroll/2)
	top := min(max(m.ScrollTop+nudge*float64(c.state.Direction), 0), maxScroll)
	c.viewport.ScrollTo(top)
	c.frame = c.sched.Frame(c.step)
}

func (c *Controller) resume() {
	c.quiet = nil
	if !c.state.IsActive || c.state.Hovering {
		return
	}
	if !c.viewport.Measure().Overflows() {
		c.Stop()
		return
	}
	c.state.SuspendedByUser = false
	c.frame = c.sched.Frame(c.step)
}

func (c *Controller) cancel(h *loop.Handle) {
	if *h != nil {
		(*h).Cancel()
		*h = nil
	}
}

func (c *Controller) cancelAll() {
	c.cancel(&c.frame)
	c.cancel(&c.pause)
	c.cancel(&c.quiet)
}
