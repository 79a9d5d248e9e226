// Package surface is the display side of the kiosk: a WebSocket hub that
// pushes render messages to the dashboard page and takes the table layout and
// user interactions back from it.
package surface

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/raterudder/solarkiosk/pkg/autoscroll"
	"github.com/raterudder/solarkiosk/pkg/countdown"
	"github.com/raterudder/solarkiosk/pkg/log"
	"github.com/raterudder/solarkiosk/pkg/view"
	"github.com/raterudder/solarkiosk/pkg/weather"
)

// Message types sent to the page.
const (
	TypeKPIs       = "kpis"
	TypeAlerts     = "alerts"
	TypeTable      = "table"
	TypeChart      = "chart"
	TypeConnection = "connection"
	TypeCountdown  = "countdown"
	TypeUpdating   = "updating"
	TypeScroll     = "scroll"
	TypeWeather    = "weather"
)

// replayOrder is the order the latest messages are sent to a new page. The
// table goes before the scroll offset that applies to it.
var replayOrder = []string{
	TypeConnection,
	TypeWeather,
	TypeKPIs,
	TypeAlerts,
	TypeTable,
	TypeChart,
	TypeCountdown,
	TypeUpdating,
	TypeScroll,
}

// envelope is the wire format of every message in both directions.
type envelope struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Countdown is the payload of a countdown message.
type Countdown struct {
	Text     string             `json:"text"`
	Severity countdown.Severity `json:"severity"`
}

// Scroll is the payload of a scroll message.
type Scroll struct {
	Top float64 `json:"top"`
}

// State is everything that was last rendered.
type State struct {
	KPIs       *view.KPIs          `json:"kpis,omitempty"`
	Alerts     *view.Alerts        `json:"alerts,omitempty"`
	Table      []view.Row          `json:"table"`
	Chart      *view.Chart         `json:"chart,omitempty"`
	Connection *view.Badge         `json:"connection,omitempty"`
	Countdown  *Countdown          `json:"countdown,omitempty"`
	Updating   bool                `json:"updating"`
	Weather    *weather.Conditions `json:"weather,omitempty"`
	Layout     autoscroll.Metrics  `json:"layout"`
	Clients    int                 `json:"clients"`
}

// Hub fans render messages out to every connected page. Render methods are
// called from the kiosk loop, the WebSocket handlers run on their own
// goroutines.
type Hub struct {
	ctx context.Context

	mu            sync.Mutex
	clients       map[*client]struct{}
	latest        map[string][]byte
	state         State
	onInteraction func(autoscroll.Interaction)
}

// New returns an empty hub. ctx carries the logger used by the connection
// handlers.
func New(ctx context.Context) *Hub {
	return &Hub{
		ctx:     ctx,
		clients: make(map[*client]struct{}),
		latest:  make(map[string][]byte),
		state:   State{Table: []view.Row{}},
	}
}

// OnInteraction sets the callback for user interactions on the table. It is
// called from a connection goroutine.
func (h *Hub) OnInteraction(fn func(autoscroll.Interaction)) {
	h.mu.Lock()
	h.onInteraction = fn
	h.mu.Unlock()
}

// RenderKPIs implements scheduler.Renderer.
func (h *Hub) RenderKPIs(k view.KPIs) {
	h.publish(TypeKPIs, k, func(s *State) { s.KPIs = &k })
}

// RenderAlerts implements scheduler.Renderer.
func (h *Hub) RenderAlerts(a view.Alerts) {
	h.publish(TypeAlerts, a, func(s *State) { s.Alerts = &a })
}

// RenderTable implements scheduler.Renderer.
func (h *Hub) RenderTable(rows []view.Row) {
	h.publish(TypeTable, rows, func(s *State) { s.Table = rows })
}

// RenderChart implements scheduler.Renderer.
func (h *Hub) RenderChart(c view.Chart) {
	h.publish(TypeChart, c, func(s *State) { s.Chart = &c })
}

// SetConnection implements scheduler.Renderer.
func (h *Hub) SetConnection(b view.Badge) {
	h.publish(TypeConnection, b, func(s *State) { s.Connection = &b })
}

// SetCountdown implements scheduler.Renderer.
func (h *Hub) SetCountdown(text string, severity countdown.Severity) {
	c := Countdown{Text: text, Severity: severity}
	h.publish(TypeCountdown, c, func(s *State) { s.Countdown = &c })
}

// SetUpdating implements scheduler.Renderer.
func (h *Hub) SetUpdating(updating bool) {
	h.publish(TypeUpdating, updating, func(s *State) { s.Updating = updating })
}

// RenderWeather implements scheduler.WeatherDisplay.
func (h *Hub) RenderWeather(c weather.Conditions) {
	h.publish(TypeWeather, c, func(s *State) { s.Weather = &c })
}

// Measure implements autoscroll.Viewport with the layout the page last
// reported.
func (h *Hub) Measure() autoscroll.Metrics {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state.Layout
}

// ScrollTo implements autoscroll.Viewport.
func (h *Hub) ScrollTo(top float64) {
	h.mu.Lock()
	unchanged := h.state.Layout.ScrollTop == top && h.latest[TypeScroll] != nil
	h.mu.Unlock()
	if unchanged {
		return
	}
	h.publish(TypeScroll, Scroll{Top: top}, func(s *State) { s.Layout.ScrollTop = top })
}

// State returns a copy of the last rendered state.
func (h *Hub) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	st := h.state
	st.Clients = len(h.clients)
	return st
}

func (h *Hub) publish(typ string, data any, apply func(*State)) {
	b, err := json.Marshal(envelope{Type: typ, Data: data})
	if err != nil {
		log.Ctx(h.ctx).ErrorContext(h.ctx, "failed to encode message", slog.String("type", typ), slog.Any("error", err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	apply(&h.state)
	h.latest[typ] = b
	for c := range h.clients {
		if !c.enqueue(b) {
			// too slow to keep up, it can reconnect and replay
			h.removeLocked(c)
		}
	}
}

// register adds c and queues the latest message of every type for it.
func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[c] = struct{}{}
	for _, typ := range replayOrder {
		if b, ok := h.latest[typ]; ok {
			c.enqueue(b)
		}
	}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.removeLocked(c)
}

func (h *Hub) removeLocked(c *client) {
	if _, ok := h.clients[c]; !ok {
		return
	}
	delete(h.clients, c)
	close(c.send)
}

func (h *Hub) setLayout(m autoscroll.Metrics, withTop bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.state.Layout.ScrollHeight = m.ScrollHeight
	h.state.Layout.ClientHeight = m.ClientHeight
	if withTop {
		h.state.Layout.ScrollTop = m.ScrollTop
	}
}

func (h *Hub) interaction(kind autoscroll.Interaction, top *float64) {
	h.mu.Lock()
	if top != nil {
		h.state.Layout.ScrollTop = *top
	}
	fn := h.onInteraction
	h.mu.Unlock()
	if fn != nil {
		fn(kind)
	}
}
