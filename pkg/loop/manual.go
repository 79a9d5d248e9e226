package loop

import (
	"time"
)

// Manual is a virtual-time Scheduler for tests. Time only moves when Advance
// is called and callbacks run on the goroutine calling Advance or AwaitPost.
type Manual struct {
	now           time.Time
	frameInterval time.Duration
	queue         queue
	posted        chan func()
}

var _ Scheduler = (*Manual)(nil)

// NewManual returns a Manual starting at start with the default frame interval.
func NewManual(start time.Time) *Manual {
	return &Manual{
		now:           start,
		frameInterval: DefaultFrameInterval,
		posted:        make(chan func(), 256),
	}
}

// FrameInterval returns the virtual duration of one animation frame.
func (m *Manual) FrameInterval() time.Duration {
	return m.frameInterval
}

// Now implements Scheduler.
func (m *Manual) Now() time.Time {
	return m.now
}

// After implements Scheduler.
func (m *Manual) After(d time.Duration, fn func()) Handle {
	return m.queue.add(m.now.Add(d), 0, fn)
}

// Every implements Scheduler.
func (m *Manual) Every(d time.Duration, fn func()) Handle {
	return m.queue.add(m.now.Add(d), d, fn)
}

// Frame implements Scheduler.
func (m *Manual) Frame(fn func()) Handle {
	return m.queue.add(m.now.Add(m.frameInterval), 0, fn)
}

// Post implements Scheduler. Posted callbacks only run from AwaitPost or
// Drain.
func (m *Manual) Post(fn func()) {
	m.posted <- fn
}

// Advance moves virtual time forward by d, running every callback that comes
// due along the way in order. The clock is set to each callback's due time
// before it runs.
func (m *Manual) Advance(d time.Duration) {
	end := m.now.Add(d)
	for {
		due, ok := m.queue.next()
		if !ok || due.After(end) {
			break
		}
		t := m.queue.popDue(due)
		if t == nil {
			break
		}
		m.now = due
		t.fn()
	}
	m.now = end
}

// AwaitPost blocks until a posted callback arrives or timeout passes. It runs
// the callback and reports whether one ran.
func (m *Manual) AwaitPost(timeout time.Duration) bool {
	select {
	case fn := <-m.posted:
		fn()
		return true
	case <-time.After(timeout):
		return false
	}
}

// Drain runs every posted callback that is already queued and returns how
// many ran.
func (m *Manual) Drain() int {
	n := 0
	for {
		select {
		case fn := <-m.posted:
			fn()
			n++
		default:
			return n
		}
	}
}

// Pending returns the number of live scheduled callbacks.
func (m *Manual) Pending() int {
	return m.queue.len()
}
