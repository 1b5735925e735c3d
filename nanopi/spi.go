package nanopi

import (
	"context"
	"fmt"
	"sync"

	"gobot.io/x/gobot/v2/drivers/spi"
	"periph.io/x/conn/v3/physic"

	"github.com/Waldgeist-49/Garden/bus"
)

// spiOps is the subset of the gobot SPI connection the backend needs.
type spiOps interface {
	ReadCommandData(command []byte, data []byte) error
	WriteBytes(data []byte) error
}

// SPI is a four-wire backend over the gobot SPI driver.
type SPI struct {
	mx     sync.Mutex
	name   string
	driver *spi.Driver
	ops    func() (spiOps, error)
}

var _ bus.SPIBackend = &SPI{}

// OpenSPI matches bus.SPIOpener.
func (b *Board) OpenSPI(ctx context.Context, cfg bus.Config) (bus.SPIBackend, error) {
	busNum, cs, err := spiBusNumber(cfg.Device)
	if err != nil {
		return nil, err
	}
	if err := b.connect(); err != nil {
		return nil, err
	}
	d := spi.NewDriver(b.adaptor, "garden-spi", func(c spi.Config) {
		c.SetBusNumber(busNum)
		c.SetChipNumber(cs)
		c.SetBitCount(cfg.WordBits())
	})
	d.SetMode(cfg.Mode)
	d.SetSpeed(int64(cfg.Speed / physic.Hertz))
	if err := d.Start(); err != nil {
		return nil, fmt.Errorf("SPI device start error: %w", err)
	}
	s := &SPI{name: cfg.Device, driver: d}
	s.ops = func() (spiOps, error) {
		ops, ok := d.Connection().(spiOps)
		if !ok {
			return nil, fmt.Errorf("spi connection does not support required operations")
		}
		return ops, nil
	}
	return s, nil
}

// Tx clocks w out on the bus. For reads the first byte of w is the command and the
// bytes clocked in after it land in r[1:]; r[0] is zeroed.
func (s *SPI) Tx(ctx context.Context, w, r []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(r) != 0 && len(r) != len(w) {
		return fmt.Errorf("tx/rx length mismatch: %d != %d", len(w), len(r))
	}
	s.mx.Lock()
	defer s.mx.Unlock()
	ops, err := s.ops()
	if err != nil {
		return err
	}
	if len(r) == 0 {
		if len(w) == 0 {
			return nil
		}
		return ops.WriteBytes(w)
	}
	data := make([]byte, len(w)-1)
	if err := ops.ReadCommandData(w[:1], data); err != nil {
		return fmt.Errorf("spi transfer failed: %w", err)
	}
	r[0] = 0
	copy(r[1:], data)
	return nil
}

func (s *SPI) String() string { return s.name }

func (s *SPI) Close() error {
	if s.driver == nil {
		return nil
	}
	return s.driver.Halt()
}
