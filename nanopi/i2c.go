package nanopi

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"gobot.io/x/gobot/v2/drivers/i2c"

	garden "github.com/Waldgeist-49/Garden"
	"github.com/Waldgeist-49/Garden/bus"
)

// addressed is the part of a gobot generic driver bound to one device address.
type addressed interface {
	Start() error
	Halt() error
	Write(data []byte) error
	Read(data []byte) error
}

// I2C is a two-wire backend over gobot generic drivers. gobot binds a driver to one
// address, so a driver is started lazily for every address in use. Tx is a write
// followed by a separate read, without a repeated start.
type I2C struct {
	mx      sync.Mutex
	name    string
	drivers map[byte]addressed
	open    func(addr byte) addressed
}

var _ bus.I2CBackend = &I2C{}

// OpenI2C matches bus.I2COpener. The bus speed is fixed by the board overlay.
func (b *Board) OpenI2C(ctx context.Context, cfg bus.Config) (bus.I2CBackend, error) {
	n, err := i2cBusNumber(cfg.Device)
	if err != nil {
		return nil, err
	}
	if err := b.connect(); err != nil {
		return nil, err
	}
	slog.Debug("speed is set by the device tree", "bus", cfg.Device, "requested", cfg.Speed.String())
	return newI2C(cfg.Device, func(addr byte) addressed {
		return i2c.NewGenericDriver(b.adaptor, fmt.Sprintf("garden-%#02x", addr), int(addr), func(c i2c.Config) {
			c.SetBus(n)
		})
	}), nil
}

func newI2C(name string, open func(addr byte) addressed) *I2C {
	return &I2C{name: name, drivers: make(map[byte]addressed), open: open}
}

func (b *I2C) driver(addr byte) (addressed, error) {
	if d, ok := b.drivers[addr]; ok {
		return d, nil
	}
	d := b.open(addr)
	if err := d.Start(); err != nil {
		return nil, fmt.Errorf("start error: %w", err)
	}
	b.drivers[addr] = d
	return d, nil
}

func (b *I2C) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	return b.Tx(ctx, address, buffer, nil)
}

func (b *I2C) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	return b.Tx(ctx, address, nil, buffer)
}

func (b *I2C) Tx(ctx context.Context, address byte, w, r []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(w) == 0 && len(r) == 0 {
		return fmt.Errorf("i2c transfer with %#02x: %w", address, garden.ErrEmptyTransfer)
	}
	b.mx.Lock()
	defer b.mx.Unlock()
	d, err := b.driver(address)
	if err != nil {
		return fmt.Errorf("i2c transfer with %#02x failed: %w", address, err)
	}
	if len(w) > 0 {
		if err := d.Write(w); err != nil {
			return fmt.Errorf("i2c write to %#02x failed: %w", address, err)
		}
	}
	if len(r) > 0 {
		if err := d.Read(r); err != nil {
			return fmt.Errorf("i2c read from %#02x failed: %w", address, err)
		}
	}
	return nil
}

func (b *I2C) Release(ctx context.Context) error { return nil }

func (b *I2C) String() string { return b.name }

// Close halts every started driver.
func (b *I2C) Close() error {
	b.mx.Lock()
	defer b.mx.Unlock()
	var errs []error
	for addr, d := range b.drivers {
		if err := d.Halt(); err != nil {
			errs = append(errs, fmt.Errorf("halt %#02x: %w", addr, err))
		}
		delete(b.drivers, addr)
	}
	return errors.Join(errs...)
}
