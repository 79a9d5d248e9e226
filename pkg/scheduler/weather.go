package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/raterudder/solarkiosk/pkg/log"
	"github.com/raterudder/solarkiosk/pkg/loop"
	"github.com/raterudder/solarkiosk/pkg/weather"
)

// WeatherSource looks up the current weather.
type WeatherSource interface {
	Current(ctx context.Context) (weather.Conditions, error)
}

// WeatherDisplay shows the current weather.
type WeatherDisplay interface {
	RenderWeather(weather.Conditions)
}

// WeatherRefresher keeps the weather widget current. It runs on the loop like
// the Scheduler but is independent of the live-data cycle; a failed lookup
// leaves the previous weather displayed.
type WeatherRefresher struct {
	sched    loop.Scheduler
	source   WeatherSource
	display  WeatherDisplay
	interval time.Duration

	ctx      context.Context
	ticker   loop.Handle
	inFlight bool
}

// NewWeatherRefresher returns a stopped refresher.
func NewWeatherRefresher(sched loop.Scheduler, source WeatherSource, display WeatherDisplay, interval time.Duration) *WeatherRefresher {
	return &WeatherRefresher{
		sched:    sched,
		source:   source,
		display:  display,
		interval: interval,
	}
}

// Start looks up the weather now and then once per interval.
func (w *WeatherRefresher) Start(ctx context.Context) {
	if w.ticker != nil {
		return
	}
	w.ctx = ctx
	w.ticker = w.sched.Every(w.interval, w.refresh)
	w.refresh()
}

// Stop cancels the refresh timer.
func (w *WeatherRefresher) Stop() {
	cancel(&w.ticker)
}

func (w *WeatherRefresher) refresh() {
	if w.inFlight {
		return
	}
	w.inFlight = true
	ctx := w.ctx
	go func() {
		cond, err := w.source.Current(ctx)
		w.sched.Post(func() {
			w.inFlight = false
			if err != nil {
				log.Ctx(ctx).WarnContext(ctx, "failed to refresh weather", slog.Any("error", err))
				return
			}
			if w.ticker == nil {
				return
			}
			w.display.RenderWeather(cond)
		})
	}()
}
