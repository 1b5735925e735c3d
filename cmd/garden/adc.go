package main

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/Waldgeist-49/Garden/adc"
	"github.com/Waldgeist-49/Garden/cmd/garden/console"
)

var adcCmd = cli.Command{
	Name:  "adc",
	Usage: "ADS1115 analog inputs",
	Subcommands: cli.Commands{
		&adcReadCmd,
	},
}

var adcReadCmd = cli.Command{
	Name:  "read",
	Usage: "convert one input, or the exported inputs when no channel is given",
	Flags: []cli.Flag{
		&cli.IntSliceFlag{Name: "channel", Aliases: []string{"ch"}},
	},
	Action: func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return console.Fail(err, "invalid configuration")
		}
		channels := cfg.ADS1115.Channels
		if c.IsSet("channel") {
			channels = c.IntSlice("channel")
		}
		ctx := commandContext(c)
		hw := openHardware(cfg)
		defer func() { _ = hw.Close() }()
		a, err := hw.ads1115(ctx)
		if err != nil {
			return console.Fail(err, "bus initialization error")
		}
		for _, n := range channels {
			ch := adc.Channel(n)
			if n < 0 || !ch.Valid() {
				return console.Exit(console.CodeFailure, "invalid channel %d", n)
			}
			code, err := a.ReadChannel(ctx, ch)
			if err != nil {
				return console.Fail(err, fmt.Sprintf("error reading %s", ch))
			}
			console.PInfof(console.PictoSoil, "%s %s (%s)", ch, console.White(code), adc.Voltage(code))
		}
		return nil
	},
}
