// Package countdown renders the time left until the next scheduled fetch.
package countdown

import (
	"fmt"
	"math"
	"time"

	"github.com/raterudder/solarkiosk/pkg/loop"
)

// Severity is the display class of the countdown.
type Severity string

const (
	SeverityNormal   Severity = "normal"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

const (
	// WarningBelow and CriticalBelow are the severity thresholds.
	WarningBelow  = 60 * time.Second
	CriticalBelow = 30 * time.Second

	// BusyText replaces the countdown while a fetch is in flight.
	BusyText = "⟳"
)

// Display receives every rendered tick.
type Display interface {
	SetCountdown(text string, severity Severity)
}

// Format renders remaining as m:ss, rounding up to the next whole second.
func Format(remaining time.Duration) string {
	secs := seconds(remaining)
	return fmt.Sprintf("%d:%02d", secs/60, secs%60)
}

// SeverityOf classifies remaining using the same whole seconds Format shows.
func SeverityOf(remaining time.Duration) Severity {
	secs := time.Duration(seconds(remaining)) * time.Second
	switch {
	case secs < CriticalBelow:
		return SeverityCritical
	case secs < WarningBelow:
		return SeverityWarning
	default:
		return SeverityNormal
	}
}

func seconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds()))
}

// Timer ticks once a second. At most one ticker is live at a time.
type Timer struct {
	sched    loop.Scheduler
	display  Display
	interval time.Duration

	nextFireAt time.Time
	ticker     loop.Handle
	held       bool
}

// New returns a stopped Timer. interval is used to re-derive the next fire time
// when the countdown runs out before the scheduler fires.
func New(sched loop.Scheduler, display Display, interval time.Duration) *Timer {
	return &Timer{
		sched:    sched,
		display:  display,
		interval: interval,
	}
}

// Start replaces any live ticker with a new one counting down to nextFireAt and
// renders immediately.
func (t *Timer) Start(nextFireAt time.Time) {
	t.Stop()
	t.nextFireAt = nextFireAt
	t.held = false
	t.tick()
	t.ticker = t.sched.Every(time.Second, t.tick)
}

// Hold keeps the ticker running but shows BusyText until the next Start.
func (t *Timer) Hold() {
	t.held = true
	t.display.SetCountdown(BusyText, SeverityNormal)
}

// Stop cancels the ticker. It is safe to call when already stopped.
func (t *Timer) Stop() {
	if t.ticker != nil {
		t.ticker.Cancel()
		t.ticker = nil
	}
}

// NextFireAt returns the time the countdown is heading to.
func (t *Timer) NextFireAt() time.Time {
	return t.nextFireAt
}

func (t *Timer) tick() {
	now := t.sched.Now()
	remaining := max(t.nextFireAt.Sub(now), 0)
	if remaining == 0 {
		// never sit on 0:00, the next tick starts a fresh interval
		t.nextFireAt = now.Add(t.interval)
	}
	if t.held {
		return
	}
	t.display.SetCountdown(Format(remaining), SeverityOf(remaining))
}
