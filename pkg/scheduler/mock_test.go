package scheduler

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/raterudder/solarkiosk/pkg/countdown"
	"github.com/raterudder/solarkiosk/pkg/types"
	"github.com/raterudder/solarkiosk/pkg/view"
	"github.com/raterudder/solarkiosk/pkg/weather"
)

// mockSurface records both the renderer and the scroller calls so their
// relative order can be asserted.
type mockSurface struct {
	mock.Mock
}

func newMockSurface() *mockSurface {
	m := &mockSurface{}
	for _, method := range []string{"RenderKPIs", "RenderAlerts", "RenderTable", "RenderChart", "SetConnection", "SetUpdating"} {
		m.On(method, mock.Anything).Return().Maybe()
	}
	m.On("SetCountdown", mock.Anything, mock.Anything).Return().Maybe()
	for _, method := range []string{"Start", "Stop", "ScrollToTop"} {
		m.On(method).Return().Maybe()
	}
	return m
}

func (m *mockSurface) RenderKPIs(k view.KPIs) { m.Called(k) }
func (m *mockSurface) RenderAlerts(a view.Alerts) { m.Called(a) }
func (m *mockSurface) RenderTable(rows []view.Row) { m.Called(rows) }
func (m *mockSurface) RenderChart(c view.Chart) { m.Called(c) }
func (m *mockSurface) SetConnection(b view.Badge) { m.Called(b) }
func (m *mockSurface) SetUpdating(updating bool) { m.Called(updating) }
func (m *mockSurface) Start() { m.Called() }
func (m *mockSurface) Stop() { m.Called() }
func (m *mockSurface) ScrollToTop() { m.Called() }
func (m *mockSurface) SetCountdown(text string, severity countdown.Severity) {
	m.Called(text, severity)
}

// sequence lists the calls in order, leaving out the countdown ticks.
func (m *mockSurface) sequence() []string {
	var out []string
	for _, c := range m.Calls {
		if c.Method == "SetCountdown" {
			continue
		}
		out = append(out, c.Method)
	}
	return out
}

func (m *mockSurface) args(method string) []mock.Arguments {
	var out []mock.Arguments
	for _, c := range m.Calls {
		if c.Method == method {
			out = append(out, c.Arguments)
		}
	}
	return out
}

func (m *mockSurface) count(method string, args ...any) int {
	n := 0
	for _, a := range m.args(method) {
		if len(args) == 0 {
			n++
			continue
		}
		if _, diffs := mock.Arguments(args).Diff(a); diffs == 0 {
			n++
		}
	}
	return n
}

func (m *mockSurface) lastCountdown() string {
	all := m.args("SetCountdown")
	if len(all) == 0 {
		return ""
	}
	return all[len(all)-1].String(0)
}

type result struct {
	snap types.Snapshot
	err  error
}

type fakeFetcher struct {
	results chan result
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{results: make(chan result, 8)}
}

func (f *fakeFetcher) Fetch(ctx context.Context) (types.Snapshot, error) {
	select {
	case r := <-f.results:
		return r.snap, r.err
	case <-ctx.Done():
		return types.Snapshot{}, ctx.Err()
	}
}

type weatherResult struct {
	cond weather.Conditions
	err  error
}

type fakeWeather struct {
	results chan weatherResult
}

func (f *fakeWeather) Current(ctx context.Context) (weather.Conditions, error) {
	select {
	case r := <-f.results:
		return r.cond, r.err
	case <-ctx.Done():
		return weather.Conditions{}, ctx.Err()
	}
}

type mockWeatherDisplay struct {
	mock.Mock
}

func (m *mockWeatherDisplay) RenderWeather(c weather.Conditions) {
	m.Called(c)
}
