// Package loop provides the single cooperative thread of execution the kiosk
// core runs on. Timers, repeating timers and animation frames are all
// callbacks run one at a time by the loop, so the state they touch needs no
// locking. Background work hands its results back with Post.
package loop

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/levenlabs/go-lflag"
	"github.com/raterudder/solarkiosk/pkg/log"
)

// DefaultFrameInterval approximates a 60Hz display refresh.
const DefaultFrameInterval = 16 * time.Millisecond

// Handle cancels a scheduled callback.
type Handle interface {
	Cancel()
}

// Scheduler is the scheduling capability handed to the core components. All
// methods except Post must be called from a callback running on the loop (or
// before the loop starts).
type Scheduler interface {
	// Now returns the loop's notion of the current time.
	Now() time.Time
	// After runs fn once after d.
	After(d time.Duration, fn func()) Handle
	// Every runs fn every d, starting d from now.
	Every(d time.Duration, fn func()) Handle
	// Frame runs fn on the next animation frame.
	Frame(fn func()) Handle
	// Post queues fn to run on the loop. It is safe to call from any goroutine.
	Post(fn func())
}

// Loop is the real-time Scheduler.
type Loop struct {
	frameInterval time.Duration

	mu    sync.Mutex
	queue queue

	posted chan func()
	wake   chan struct{}
}

var _ Scheduler = (*Loop)(nil)

// Configured returns a Loop whose frame interval comes from flags.
func Configured() *Loop {
	l := New(DefaultFrameInterval)
	frameInterval := lflag.Duration("frame-interval", DefaultFrameInterval, "Interval between auto-scroll animation frames")
	lflag.Do(func() {
		if *frameInterval <= 0 {
			panic("frame-interval must be positive")
		}
		l.frameInterval = *frameInterval
	})
	return l
}

// New returns a Loop that runs animation frames every frameInterval.
func New(frameInterval time.Duration) *Loop {
	return &Loop{
		frameInterval: frameInterval,
		posted:        make(chan func(), 256),
		wake:          make(chan struct{}, 1),
	}
}

// Now implements Scheduler.
func (l *Loop) Now() time.Time {
	return time.Now()
}

// After implements Scheduler.
func (l *Loop) After(d time.Duration, fn func()) Handle {
	return l.schedule(d, 0, fn)
}

// Every implements Scheduler.
func (l *Loop) Every(d time.Duration, fn func()) Handle {
	return l.schedule(d, d, fn)
}

// Frame implements Scheduler.
func (l *Loop) Frame(fn func()) Handle {
	return l.schedule(l.frameInterval, 0, fn)
}

// Post implements Scheduler.
func (l *Loop) Post(fn func()) {
	l.posted <- fn
}

func (l *Loop) schedule(d, every time.Duration, fn func()) Handle {
	l.mu.Lock()
	t := l.queue.add(time.Now().Add(d), every, fn)
	l.mu.Unlock()
	select {
	case l.wake <- struct{}{}:
	default:
	}
	return t
}

// Run executes callbacks until ctx is canceled. It returns nil on a clean
// shutdown.
func (l *Loop) Run(ctx context.Context) error {
	timer := time.NewTimer(time.Hour)
	defer timer.Stop()

	log.Ctx(ctx).DebugContext(ctx, "loop started", slog.Duration("frameInterval", l.frameInterval))
	for {
		l.runDue()

		l.mu.Lock()
		due, ok := l.queue.next()
		l.mu.Unlock()
		wait := time.Hour
		if ok {
			wait = max(time.Until(due), 0)
		}
		timer.Reset(wait)

		select {
		case <-ctx.Done():
			log.Ctx(ctx).DebugContext(ctx, "loop stopped")
			return nil
		case fn := <-l.posted:
			fn()
		case <-l.wake:
		case <-timer.C:
		}
	}
}

func (l *Loop) runDue() {
	for {
		l.mu.Lock()
		t := l.queue.popDue(time.Now())
		l.mu.Unlock()
		if t == nil {
			return
		}
		t.fn()
	}
}
