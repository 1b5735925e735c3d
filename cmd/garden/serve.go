package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/Waldgeist-49/Garden/adc"
	"github.com/Waldgeist-49/Garden/cmd/garden/console"
	"github.com/Waldgeist-49/Garden/scan"
	"github.com/Waldgeist-49/Garden/telemetry"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = cli.Command{
	Name:  "serve",
	Usage: "expose the station readings over http",
	Flags: []cli.Flag{
		&cli.StringFlag{Name: "listen", Aliases: []string{"l"}, Usage: "http listen address"},
	},
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return console.Fail(err, "invalid configuration")
		}
		loc, err := cfg.Location()
		if err != nil {
			return console.Fail(err, "invalid timezone")
		}
		ctx, stop := signal.NotifyContext(commandContext(c), os.Interrupt, syscall.SIGTERM)
		defer stop()

		hw := openHardware(cfg)
		defer func() {
			if err := hw.Close(); err != nil {
				slog.Warn("could not release hardware", "error", err)
			}
		}()

		var reader telemetry.ChannelReader
		var scanner telemetry.Scanner
		if a, err := hw.ads1115(ctx); err != nil {
			slog.Error("analog inputs unavailable", "error", err)
		} else {
			reader = a
			b, _ := hw.twoWire(ctx)
			scanner = scan.New(b)
		}
		var env telemetry.EnvironmentSensor
		if s, err := hw.bmp280(ctx); err != nil {
			slog.Error("environment sensor unavailable", "error", err)
		} else {
			// a failed init is retried on the next poll
			if err := s.Init(ctx); err != nil {
				slog.Error("environment sensor initialization failed", "error", err)
			}
			env = s
		}

		station := telemetry.NewStation(reader, env,
			telemetry.WithChannels(adc.Channel(cfg.ADS1115.Channels[0]), adc.Channel(cfg.ADS1115.Channels[1])))
		srv := &http.Server{
			Addr:              cfg.HTTP.Listen,
			Handler:           telemetry.Handler(station, scanner, telemetry.WithLocation(loc)),
			ReadHeaderTimeout: 5 * time.Second,
			BaseContext:       func(net.Listener) context.Context { return ctx },
		}
		errc := make(chan error, 1)
		go func() {
			slog.Info("serving station readings", "listen", cfg.HTTP.Listen, "timezone", loc.String())
			errc <- srv.ListenAndServe()
		}()
		select {
		case err := <-errc:
			if !errors.Is(err, http.ErrServerClosed) {
				return console.Fail(err, "http server error")
			}
			return nil
		case <-ctx.Done():
		}
		slog.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return console.Fail(err, "shutdown error")
		}
		return nil
	},
}
