package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/raterudder/solarkiosk/pkg/loop"
	"github.com/raterudder/solarkiosk/pkg/weather"
)

func TestWeatherRefresher(t *testing.T) {
	ctx := context.Background()
	sunny := weather.Conditions{TemperatureC: 24, Code: 0, Icon: weather.Icon(0)}

	t.Run("Refreshes on the interval", func(t *testing.T) {
		m := loop.NewManual(start)
		src := &fakeWeather{results: make(chan weatherResult, 4)}
		display := &mockWeatherDisplay{}
		display.On("RenderWeather", sunny).Return()

		w := NewWeatherRefresher(m, src, display, 30*time.Minute)
		w.Start(ctx)
		src.results <- weatherResult{cond: sunny}
		require.True(t, m.AwaitPost(wait))
		display.AssertNumberOfCalls(t, "RenderWeather", 1)

		m.Advance(30 * time.Minute)
		src.results <- weatherResult{cond: sunny}
		require.True(t, m.AwaitPost(wait))
		display.AssertNumberOfCalls(t, "RenderWeather", 2)
	})

	t.Run("Failure keeps the previous weather", func(t *testing.T) {
		m := loop.NewManual(start)
		src := &fakeWeather{results: make(chan weatherResult, 4)}
		display := &mockWeatherDisplay{}
		display.On("RenderWeather", mock.Anything).Return()

		w := NewWeatherRefresher(m, src, display, time.Minute)
		w.Start(ctx)
		src.results <- weatherResult{err: errors.New("timeout")}
		require.True(t, m.AwaitPost(wait))
		display.AssertNotCalled(t, "RenderWeather", mock.Anything)
	})

	t.Run("Stop", func(t *testing.T) {
		m := loop.NewManual(start)
		src := &fakeWeather{results: make(chan weatherResult, 4)}
		display := &mockWeatherDisplay{}

		w := NewWeatherRefresher(m, src, display, time.Minute)
		w.Start(ctx)
		w.Stop()
		assert.Zero(t, m.Pending())

		src.results <- weatherResult{cond: sunny}
		require.True(t, m.AwaitPost(wait))
		display.AssertNotCalled(t, "RenderWeather", mock.Anything)
	})
}
