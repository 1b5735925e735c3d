package spi

import (
	"context"
	"fmt"
	"log/slog"

	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"
	"periph.io/x/host/v3"

	garden "github.com/Waldgeist-49/Garden"
)

var _ garden.SPIConn = &GenericPort{}

// GenericPort is a four-wire connection opened through periph (spidev on Linux). The
// chip-select line is the one bound to the device node.
type GenericPort struct {
	port spi.PortCloser
	conn spi.Conn
}

func NewGenericPort(dev string, speed physic.Frequency, mode int, bits int) (*GenericPort, error) {
	state, err := host.Init()
	if err != nil {
		return nil, fmt.Errorf("could not init host: %w", err)
	}
	for _, driver := range state.Loaded {
		slog.Debug("host driver loaded", "driver", driver.String())
	}
	port, err := spireg.Open(dev)
	if err != nil {
		return nil, fmt.Errorf("could not open spi port: %w", err)
	}
	p, err := NewGenericPortFrom(port, speed, mode, bits)
	if err != nil {
		_ = port.Close()
		return nil, err
	}
	return p, nil
}

// NewGenericPortFrom connects an already opened periph port.
func NewGenericPortFrom(port spi.PortCloser, speed physic.Frequency, mode int, bits int) (*GenericPort, error) {
	if mode < 0 || mode > 3 {
		return nil, fmt.Errorf("invalid spi mode %d", mode)
	}
	conn, err := port.Connect(speed, spi.Mode(mode), bits)
	if err != nil {
		return nil, fmt.Errorf("could not connect spi port at %s mode %d: %w", speed, mode, err)
	}
	return &GenericPort{port: port, conn: conn}, nil
}

func (p *GenericPort) Tx(ctx context.Context, w, r []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(r) != 0 && len(r) != len(w) {
		return fmt.Errorf("tx/rx length mismatch: %d != %d", len(w), len(r))
	}
	if err := p.conn.Tx(w, r); err != nil {
		return fmt.Errorf("spi transfer failed: %w", err)
	}
	return nil
}

func (p *GenericPort) String() string {
	return p.port.String()
}

func (p *GenericPort) Close() error {
	return p.port.Close()
}
