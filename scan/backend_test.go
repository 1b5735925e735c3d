package scan

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/i2c/i2ctest"
	"periph.io/x/conn/v3/physic"

	garden "github.com/Waldgeist-49/Garden"
	"github.com/Waldgeist-49/Garden/adapter"
	"github.com/Waldgeist-49/Garden/bus"
	"github.com/Waldgeist-49/Garden/i2c"
)

// hostBus behaves like the Linux i2c-dev driver: a transfer with nothing to write or
// read returns without touching the bus, anything else fails unless a device answers.
type hostBus struct {
	present map[uint16]bool
	reads   int
}

func (h *hostBus) String() string                    { return "host" }
func (h *hostBus) SetSpeed(f physic.Frequency) error { return nil }
func (h *hostBus) Close() error                      { return nil }

func (h *hostBus) Tx(addr uint16, w, r []byte) error {
	if len(w) == 0 && len(r) == 0 {
		return nil
	}
	h.reads++
	if h.present[addr] {
		return nil
	}
	return errors.New("remote I/O error")
}

func TestScan_HostBusWithoutDevices(t *testing.T) {
	host := &hostBus{}
	found, err := New(i2c.NewGenericBusFrom(host)).Scan(context.Background())
	require.NoError(t, err)
	assert.Empty(t, found)
	assert.Equal(t, 126, host.reads, "every address must reach the bus")
}

func TestScan_HostBusFindsDevices(t *testing.T) {
	host := &hostBus{present: map[uint16]bool{0x48: true, 0x76: true}}
	found, err := New(i2c.NewGenericBusFrom(host)).Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Addresses{0x48, 0x76}, found)
}

func TestScan_Playback(t *testing.T) {
	pb := &i2ctest.Playback{
		Ops:       []i2ctest.IO{{Addr: 0x48, R: []byte{0x00}}},
		DontPanic: true,
	}
	found, err := New(i2c.NewGenericBusFrom(pb)).Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Addresses{0x48}, found)
	assert.NoError(t, pb.Close())
}

// bridgeDevice answers MCP2221 reports; only addresses in present acknowledge.
type bridgeDevice struct {
	present map[byte]bool
	last    []byte
	addr    byte
}

func (b *bridgeDevice) Write(p []byte) (int, error) {
	b.last = append([]byte(nil), p...)
	return len(p), nil
}

func (b *bridgeDevice) Read(p []byte) (int, error) {
	res := make([]byte, 64)
	res[0] = b.last[0]
	switch b.last[0] {
	case 0x90, 0x91:
		b.addr = b.last[3] >> 1
	case 0x10:
		if b.last[2] == 0 && !b.present[b.addr] {
			res[8] = 0x25
		}
	case 0x40:
		if !b.present[b.addr] {
			res[1] = 0x41
			break
		}
		res[3] = 1
	}
	return copy(p, res), nil
}

func (b *bridgeDevice) Close() error { return nil }

func TestScan_MCP2221(t *testing.T) {
	dev := &bridgeDevice{present: map[byte]bool{0x48: true}}
	bridge := adapter.NewMCP2221(
		adapter.WithResponseWait(time.Microsecond),
		adapter.WithOpener(func() (adapter.Device, error) { return dev, nil }),
	)
	found, err := New(bridge).Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Addresses{0x48}, found)

	assert.Error(t, bridge.WriteToAddr(context.Background(), 0x50, []byte{0x00}))
	assert.NoError(t, bridge.WriteToAddr(context.Background(), 0x48, []byte{0x00}))
}

type backend struct{ *fakeBus }

func (backend) Close() error { return nil }

func TestScan_TimeoutExcludesBusWait(t *testing.T) {
	fake := &fakeBus{present: map[byte]bool{0x01: true, 0x48: true}, miss: errors.New("remote I/O error")}
	m := bus.NewManager(bus.WithI2COpener(func(ctx context.Context, cfg bus.Config) (bus.I2CBackend, error) {
		return backend{fake}, nil
	}))
	shared, err := m.InitI2C(context.Background(), "i2c0", bus.Config{
		Kind:   bus.KindTwoWire,
		Device: "/dev/i2c-1",
		Speed:  100 * physic.KiloHertz,
	})
	require.NoError(t, err)

	held := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = shared.Transaction(context.Background(), func(ctx context.Context, _ garden.I2CBus) error {
			close(held)
			time.Sleep(50 * time.Millisecond)
			return nil
		})
	}()
	<-held

	found, err := New(shared, WithProbeTimeout(5*time.Millisecond)).Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Addresses{0x01, 0x48}, found)
	wg.Wait()
	assert.NoError(t, m.Close())
}
