// Package scheduler runs the refresh cycle: fetch the live data on a fixed
// cadence and fan each outcome out to the connection badge, the countdown,
// the widgets and the table auto-scroll.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/levenlabs/go-lflag"

	"github.com/raterudder/solarkiosk/pkg/connection"
	"github.com/raterudder/solarkiosk/pkg/countdown"
	"github.com/raterudder/solarkiosk/pkg/daygrid"
	"github.com/raterudder/solarkiosk/pkg/log"
	"github.com/raterudder/solarkiosk/pkg/loop"
	"github.com/raterudder/solarkiosk/pkg/types"
	"github.com/raterudder/solarkiosk/pkg/view"
)

const (
	DefaultInterval     = 5 * time.Minute
	DefaultLayoutSettle = 500 * time.Millisecond
	DefaultScrollSettle = time.Second
)

// Renderer is what the cycle draws on.
type Renderer interface {
	RenderKPIs(view.KPIs)
	RenderAlerts(view.Alerts)
	RenderTable([]view.Row)
	RenderChart(view.Chart)
	SetConnection(view.Badge)
	SetCountdown(text string, severity countdown.Severity)
	SetUpdating(updating bool)
}

// Scroller is the table auto-scroll.
type Scroller interface {
	Start()
	Stop()
	ScrollToTop()
}

// Fetcher performs one live-data request.
type Fetcher interface {
	Fetch(ctx context.Context) (types.Snapshot, error)
}

// Config holds the cycle timings.
type Config struct {
	// Interval between fetches.
	Interval time.Duration
	// LayoutSettle is the wait after the table repaints before it is scrolled
	// back to the top.
	LayoutSettle time.Duration
	// ScrollSettle is the wait after scrolling to the top before auto-scroll
	// starts.
	ScrollSettle time.Duration
}

// Scheduler owns the fetch cadence. Apart from the constructors, every
// method must be called from the loop.
type Scheduler struct {
	cfg      Config
	sched    loop.Scheduler
	fetcher  Fetcher
	renderer Renderer
	scroll   Scroller

	conn      *connection.Machine
	countdown *countdown.Timer

	ctx         context.Context
	running     bool
	ticker      loop.Handle
	restart     loop.Handle
	inFlight    bool
	cancelFetch context.CancelFunc
	// gen identifies the outstanding fetch so stale results can be dropped
	gen         uint64
	snapshot    types.Snapshot
}

// Configured registers the scheduler flags and returns the scheduler.
func Configured(sched loop.Scheduler, fetcher Fetcher, renderer Renderer, scroll Scroller) *Scheduler {
	s := New(Config{
		Interval:     DefaultInterval,
		LayoutSettle: DefaultLayoutSettle,
		ScrollSettle: DefaultScrollSettle,
	}, sched, fetcher, renderer, scroll)
	interval := lflag.Duration("poll-interval", DefaultInterval, "Interval between live-data fetches")

	lflag.Do(func() {
		if *interval <= 0 {
			panic(fmt.Sprintf("poll-interval must be positive: %s", *interval))
		}
		s.cfg.Interval = *interval
		s.countdown = countdown.New(sched, renderer, *interval)
	})
	return s
}

// New returns a stopped scheduler.
func New(cfg Config, sched loop.Scheduler, fetcher Fetcher, renderer Renderer, scroll Scroller) *Scheduler {
	return &Scheduler{
		cfg:       cfg,
		sched:     sched,
		fetcher:   fetcher,
		renderer:  renderer,
		scroll:    scroll,
		conn:      connection.NewMachine(),
		countdown: countdown.New(sched, renderer, cfg.Interval),
	}
}

// Start fetches immediately and then once per interval until Stop. Calling
// it while running does nothing.
func (s *Scheduler) Start(ctx context.Context) {
	if s.running {
		return
	}
	s.running = true
	s.ctx = ctx
	s.renderer.SetConnection(view.BuildBadge(s.conn.State()))
	log.Ctx(ctx).InfoContext(ctx, "starting refresh cycle", slog.Duration("interval", s.cfg.Interval))

	s.ticker = s.sched.Every(s.cfg.Interval, s.cycle)
	s.cycle()
}

// Stop cancels the cadence, any in-flight fetch and any pending auto-scroll
// restart.
func (s *Scheduler) Stop() {
	if !s.running {
		return
	}
	s.running = false
	cancel(&s.ticker)
	cancel(&s.restart)
	if s.cancelFetch != nil {
		s.cancelFetch()
		s.cancelFetch = nil
	}
	s.inFlight = false
	s.gen++
	s.countdown.Stop()
	s.scroll.Stop()
}

// Connection returns the connection state.
func (s *Scheduler) Connection() connection.State {
	return s.conn.State()
}

// Snapshot returns the most recently rendered snapshot.
func (s *Scheduler) Snapshot() types.Snapshot {
	return s.snapshot
}

func (s *Scheduler) cycle() {
	if s.inFlight {
		log.Ctx(s.ctx).WarnContext(s.ctx, "previous fetch still in flight, skipping cycle")
		return
	}
	s.inFlight = true
	s.gen++
	gen := s.gen

	ctx := log.WithAttrs(s.ctx, slog.String("cycleID", uuid.NewString()))
	fetchCtx, cancelFetch := context.WithCancel(ctx)
	s.cancelFetch = cancelFetch

	// the table is about to repaint
	cancel(&s.restart)
	s.scroll.Stop()

	s.renderer.SetUpdating(true)
	s.countdown.Hold()

	go func() {
		snap, err := s.fetcher.Fetch(fetchCtx)
		s.sched.Post(func() {
			cancelFetch()
			if gen != s.gen || !s.running {
				// stopped while the fetch was outstanding
				return
			}
			s.complete(ctx, snap, err)
		})
	}()
}

func (s *Scheduler) complete(ctx context.Context, snap types.Snapshot, err error) {
	s.inFlight = false
	s.cancelFetch = nil
	now := s.sched.Now()

	if err != nil {
		st := s.conn.OnFailure(now, err)
		log.Ctx(ctx).WarnContext(
			ctx,
			"live data fetch failed",
			slog.Any("error", err),
			slog.Int("consecutiveFailures", st.ConsecutiveFailures),
		)
		s.renderer.SetConnection(view.BuildBadge(st))
		// nothing was repainted so the table can resume right away
		s.scroll.Start()
	} else {
		st := s.conn.OnSuccess(now)
		s.snapshot = snap
		s.render(ctx, snap)
		s.renderer.SetConnection(view.BuildBadge(st))
		log.Ctx(ctx).DebugContext(
			ctx,
			"live data rendered",
			slog.Int("plants", len(snap.Statuses)),
			slog.Int("alerts", len(snap.Alerts)),
		)
		s.restart = s.sched.After(s.cfg.LayoutSettle, func() {
			s.scroll.ScrollToTop()
			s.restart = s.sched.After(s.cfg.ScrollSettle, func() {
				s.restart = nil
				s.scroll.Start()
			})
		})
	}

	s.countdown.Start(now.Add(s.cfg.Interval))
	s.renderer.SetUpdating(false)
}

func (s *Scheduler) render(ctx context.Context, snap types.Snapshot) {
	s.renderer.RenderKPIs(view.BuildKPIs(snap))
	s.renderer.RenderAlerts(view.BuildAlerts(snap))
	s.renderer.RenderTable(view.BuildRows(snap))

	aligned, ok := daygrid.Align(snap.Chart)
	if !ok {
		log.Ctx(ctx).DebugContext(ctx, "chart series incomplete, keeping previous chart")
		return
	}
	s.renderer.RenderChart(view.BuildChart(aligned))
}

func cancel(h *loop.Handle) {
	if *h != nil {
		(*h).Cancel()
		*h = nil
	}
}
