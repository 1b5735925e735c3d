// Package nanopi opens the garden buses through the gobot NanoPi NEO platform. It is
// the backend of choice on FriendlyElec boards where the gobot sysfs drivers are already
// in use by other tooling.
//
// Typical usage:
//
//	board := nanopi.NewBoard()
//	defer board.Close()
//	m := bus.NewManager(bus.WithI2COpener(board.OpenI2C), bus.WithSPIOpener(board.OpenSPI))
package nanopi

import (
	"fmt"
	"strconv"
	"strings"
	"sync"

	"gobot.io/x/gobot/v2/platforms/friendlyelec/nanopi"
)

// Board shares one gobot adaptor between every bus opened on it.
type Board struct {
	mx        sync.Mutex
	adaptor   *nanopi.Adaptor
	connected bool
}

func NewBoard() *Board {
	return &Board{adaptor: nanopi.NewNeoAdaptor()}
}

func (b *Board) connect() error {
	b.mx.Lock()
	defer b.mx.Unlock()
	if b.connected {
		return nil
	}
	if err := b.adaptor.Connect(); err != nil {
		return fmt.Errorf("adaptor connect error: %w", err)
	}
	b.connected = true
	return nil
}

// Close finalizes the adaptor. Buses opened on the board must be closed first.
func (b *Board) Close() error {
	b.mx.Lock()
	defer b.mx.Unlock()
	if !b.connected {
		return nil
	}
	b.connected = false
	return b.adaptor.Finalize()
}

// i2cBusNumber extracts n from /dev/i2c-n.
func i2cBusNumber(device string) (int, error) {
	idx := strings.LastIndex(device, "i2c-")
	if idx < 0 {
		return 0, fmt.Errorf("unsupported i2c device %q", device)
	}
	n, err := strconv.Atoi(device[idx+len("i2c-"):])
	if err != nil {
		return 0, fmt.Errorf("unsupported i2c device %q: %w", device, err)
	}
	return n, nil
}

// spiBusNumber extracts bus and chip select from /dev/spidevB.C.
func spiBusNumber(device string) (int, int, error) {
	idx := strings.LastIndex(device, "spidev")
	if idx < 0 {
		return 0, 0, fmt.Errorf("unsupported spi device %q", device)
	}
	parts := strings.Split(device[idx+len("spidev"):], ".")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("unsupported spi device %q", device)
	}
	busNum, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, fmt.Errorf("unsupported spi device %q: %w", device, err)
	}
	cs, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("unsupported spi device %q: %w", device, err)
	}
	return busNum, cs, nil
}
