package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/raterudder/solarkiosk/pkg/autoscroll"
	"github.com/raterudder/solarkiosk/pkg/log"
	"github.com/raterudder/solarkiosk/pkg/loop"
	"github.com/raterudder/solarkiosk/pkg/scheduler"
	"github.com/raterudder/solarkiosk/pkg/server"
	"github.com/raterudder/solarkiosk/pkg/surface"
	"github.com/raterudder/solarkiosk/pkg/telemetry"
	"github.com/raterudder/solarkiosk/pkg/weather"

	"github.com/levenlabs/go-lflag"
	"github.com/levenlabs/go-llog"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// init packages
	tc := telemetry.Configured()
	wc := weather.Configured()
	lp := loop.Configured()
	hub := surface.New(ctx)
	scroll := autoscroll.New(lp, hub)
	sched := scheduler.Configured(lp, tc, hub, scroll)

	// init server
	srv := server.Configured(hub)

	// parse flags
	lflag.Configure()

	// lflag automatically sets llog's level, but we need to set the slog level
	level, err := log.FromLLog(llog.GetLevel())
	if err != nil {
		panic(err)
	}
	// packages log through log.Ctx, which falls back to pkg/log's logger
	log.SetDefaultLogLevel(level)
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)
	slog.Debug("logger configured", slog.String("level", level.String()))

	if err := tc.Validate(); err != nil {
		log.Ctx(ctx).ErrorContext(ctx, "invalid telemetry configuration", slog.Any("error", err))
		os.Exit(1)
	}

	refresher := scheduler.NewWeatherRefresher(lp, wc, hub, wc.Interval())

	// the controller only runs on the loop
	hub.OnInteraction(func(i autoscroll.Interaction) {
		lp.Post(func() { scroll.Interact(i) })
	})
	lp.Post(func() {
		sched.Start(ctx)
		refresher.Start(ctx)
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return lp.Run(gctx)
	})
	g.Go(func() error {
		// Run will block until context is canceled or error happens
		return srv.Run(gctx)
	})
	if err := g.Wait(); err != nil && ctx.Err() == nil {
		log.Ctx(ctx).ErrorContext(ctx, "kiosk failed", slog.Any("error", err))
		os.Exit(1)
	}
	log.Ctx(ctx).InfoContext(ctx, "kiosk exited cleanly")
}
