package main

import (
	"context"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/Waldgeist-49/Garden/cmd/garden/console"
	"github.com/Waldgeist-49/Garden/environment"
	"github.com/Waldgeist-49/Garden/snsctx"
)

var envCmd = cli.Command{
	Name:  "env",
	Usage: "BMP280 temperature and pressure",
	Subcommands: cli.Commands{
		&envReadCmd,
		&envCalibrationCmd,
		&envResetCmd,
	},
}

var envReadCmd = cli.Command{
	Name: "read",
	Action: func(c *cli.Context) error {
		return withBMP280(c, func(ctx context.Context, s *environment.BMP280) error {
			r, err := s.Sense(ctx)
			if err != nil {
				return console.Fail(err, "measurement error")
			}
			console.PInfof(console.PictoThermometer, "%s °C", console.White(r.Celsius()))
			console.PInfof(console.PictoPressure, "%s hPa", console.White(r.HectoPascal()))
			return nil
		})
	},
}

var envCalibrationCmd = cli.Command{
	Name:  "calibration",
	Usage: "dump the factory trimming parameters",
	Action: func(c *cli.Context) error {
		return withBMP280(c, func(ctx context.Context, s *environment.BMP280) error {
			calib, err := s.Calibration()
			if err != nil {
				return console.Fail(err, "calibration unavailable")
			}
			enc := yaml.NewEncoder(console.Output())
			defer func() { _ = enc.Close() }()
			if err := enc.Encode(calib); err != nil {
				return console.Exit(console.CodeFailure, "encoding error: %s", console.Red(err))
			}
			return nil
		})
	},
}

var envResetCmd = cli.Command{
	Name:  "reset",
	Usage: "soft reset the sensor",
	Action: func(c *cli.Context) error {
		ctx := commandContext(c)
		if !snsctx.AssumeYes(ctx) {
			ok, err := console.Confirm("The sensor will stop measuring until it is initialized again. Continue?")
			if err != nil {
				return console.Exit(console.CodeFailure, "prompt error: %s", console.Red(err))
			}
			if !ok {
				console.PInfof(console.PictoStop, "aborted")
				return nil
			}
		}
		return withBMP280(c, func(ctx context.Context, s *environment.BMP280) error {
			if err := s.Reset(ctx); err != nil {
				return console.Fail(err, "reset error")
			}
			console.Infof("sensor state: %s", console.Cyan(s.State()))
			return nil
		})
	},
}

// withBMP280 initializes the sensor on the configured four-wire bus and runs fn.
func withBMP280(c *cli.Context, fn func(ctx context.Context, s *environment.BMP280) error) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return console.Fail(err, "invalid configuration")
	}
	ctx := commandContext(c)
	hw := openHardware(cfg)
	defer func() { _ = hw.Close() }()
	s, err := hw.bmp280(ctx)
	if err != nil {
		return console.Fail(err, "bus initialization error")
	}
	if err := s.Init(ctx); err != nil {
		return console.Fail(err, "sensor initialization error")
	}
	return fn(ctx, s)
}
