package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"
	"periph.io/x/conn/v3/physic"

	"github.com/Waldgeist-49/Garden/adapter"
	"github.com/Waldgeist-49/Garden/adc"
	"github.com/Waldgeist-49/Garden/bus"
	"github.com/Waldgeist-49/Garden/environment"
	"github.com/Waldgeist-49/Garden/nanopi"
	"github.com/Waldgeist-49/Garden/pkg/config"
	"github.com/Waldgeist-49/Garden/snsctx"
)

const (
	twoWireID  = "i2c0"
	fourWireID = "spi0"
)

var errNoFourWire = errors.New("mcp2221 bridge has no four-wire bus")

// loadConfig reads --config and applies the global flag overrides.
func loadConfig(c *cli.Context) (config.Config, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return cfg, err
	}
	if c.IsSet("adapter") {
		cfg.Adapter = config.Adapter(c.String("adapter"))
	}
	if c.IsSet("listen") {
		cfg.HTTP.Listen = c.String("listen")
	}
	return cfg, cfg.Validate()
}

func commandContext(c *cli.Context) context.Context {
	ctx := snsctx.SetVerbose(c.Context, c.Bool("verbose"))
	return snsctx.SetAssumeYes(ctx, c.Bool("yes"))
}

// hardware opens buses and devices on demand and closes them together.
type hardware struct {
	cfg     config.Config
	manager *bus.Manager
	board   *nanopi.Board
}

func openHardware(cfg config.Config) *hardware {
	h := &hardware{cfg: cfg}
	switch cfg.Adapter {
	case config.AdapterMCP2221:
		h.manager = bus.NewManager(
			bus.WithI2COpener(func(ctx context.Context, bc bus.Config) (bus.I2CBackend, error) {
				a := adapter.NewMCP2221()
				if err := a.SetSpeed(ctx, int(bc.Speed/physic.Hertz)); err != nil {
					return nil, err
				}
				return a, nil
			}),
			bus.WithSPIOpener(func(ctx context.Context, bc bus.Config) (bus.SPIBackend, error) {
				return nil, errNoFourWire
			}),
		)
	case config.AdapterNanoPi:
		h.board = nanopi.NewBoard()
		h.manager = bus.NewManager(bus.WithI2COpener(h.board.OpenI2C), bus.WithSPIOpener(h.board.OpenSPI))
	default:
		h.manager = bus.NewManager()
	}
	return h
}

func (h *hardware) twoWire(ctx context.Context) (*bus.SharedI2C, error) {
	bc, err := h.cfg.I2C.Config(twoWireID, bus.KindTwoWire)
	if err != nil {
		return nil, err
	}
	return h.manager.InitI2C(ctx, twoWireID, bc)
}

func (h *hardware) fourWire(ctx context.Context) (*bus.SharedSPI, error) {
	bc, err := h.cfg.SPI.Config(fourWireID, bus.KindFourWire)
	if err != nil {
		return nil, err
	}
	return h.manager.InitSPI(ctx, fourWireID, bc)
}

func (h *hardware) ads1115(ctx context.Context) (*adc.ADS1115, error) {
	b, err := h.twoWire(ctx)
	if err != nil {
		return nil, err
	}
	return adc.NewADS1115(b,
		adc.WithAddress(h.cfg.ADS1115.Address),
		adc.WithConversionDelay(h.cfg.ADS1115.ConversionDelay),
	), nil
}

// bmp280 returns the sensor without initializing it.
func (h *hardware) bmp280(ctx context.Context) (*environment.BMP280, error) {
	conn, err := h.fourWire(ctx)
	if err != nil {
		return nil, err
	}
	return environment.NewBMP280(conn,
		environment.WithResetDelay(h.cfg.BMP280.ResetDelay),
		environment.WithReadDelay(h.cfg.BMP280.ReadDelay),
	), nil
}

func (h *hardware) Close() error {
	err := h.manager.Close()
	if h.board != nil {
		if berr := h.board.Close(); berr != nil {
			err = errors.Join(err, fmt.Errorf("could not finalize board: %w", berr))
		}
	}
	return err
}
