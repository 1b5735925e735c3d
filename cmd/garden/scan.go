package main

import (
	"github.com/urfave/cli/v2"

	"github.com/Waldgeist-49/Garden/cmd/garden/console"
	"github.com/Waldgeist-49/Garden/scan"
)

var scanCmd = cli.Command{
	Name:  "scan",
	Usage: "probe the two-wire bus for responding devices",
	Flags: []cli.Flag{
		&cli.DurationFlag{Name: "probe-timeout", Value: scan.DefaultProbeTimeout},
	},
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return console.Fail(err, "invalid configuration")
		}
		ctx := commandContext(c)
		hw := openHardware(cfg)
		defer func() { _ = hw.Close() }()
		b, err := hw.twoWire(ctx)
		if err != nil {
			return console.Fail(err, "bus initialization error")
		}
		found, err := scan.New(b, scan.WithProbeTimeout(c.Duration("probe-timeout"))).Scan(ctx)
		if err != nil {
			return console.Fail(err, "scan interrupted")
		}
		if len(found) == 0 {
			console.Warnf("no devices found on %s", cfg.I2C.Device)
			return nil
		}
		for _, addr := range found.Strings() {
			console.PInfof(console.PictoPin, "%s", console.Green(addr))
		}
		return nil
	},
}
