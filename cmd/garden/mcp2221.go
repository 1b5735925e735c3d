package main

import (
	"context"

	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"

	"github.com/Waldgeist-49/Garden/adapter"
	"github.com/Waldgeist-49/Garden/cmd/garden/console"
)

var mcp2221Cmd = cli.Command{
	Name:  "mcp2221",
	Usage: "USB bridge maintenance",
	Flags: []cli.Flag{
		&cli.IntFlag{Name: "index", Value: -1, Usage: "bridge index as listed by usb detect"},
	},
	Subcommands: cli.Commands{
		&mcp2221StatusCmd,
		&mcp2221ReleaseCmd,
	},
}

var mcp2221StatusCmd = cli.Command{
	Name: "status",
	Action: func(c *cli.Context) error {
		return bridgeStatus(c, func(ctx context.Context, a *adapter.MCP2221) (*adapter.MCP2221Status, error) {
			return a.Status(ctx)
		})
	},
}

var mcp2221ReleaseCmd = cli.Command{
	Name:  "release",
	Usage: "cancel a stuck transfer and free the bus",
	Action: func(c *cli.Context) error {
		return bridgeStatus(c, func(ctx context.Context, a *adapter.MCP2221) (*adapter.MCP2221Status, error) {
			return a.ReleaseBus(ctx)
		})
	},
}

func bridgeStatus(c *cli.Context, fn func(ctx context.Context, a *adapter.MCP2221) (*adapter.MCP2221Status, error)) error {
	a := adapter.NewMCP2221(adapter.WithIndex(c.Int("index")))
	status, err := fn(commandContext(c), a)
	if err != nil {
		return console.Exit(console.CodeFailure, "adapter communication error: %s", console.Red(err))
	}
	enc := yaml.NewEncoder(console.Output())
	defer func() { _ = enc.Close() }()
	if err := enc.Encode(status); err != nil {
		return console.Exit(console.CodeFailure, "encoding error: %s", console.Red(err))
	}
	return nil
}
