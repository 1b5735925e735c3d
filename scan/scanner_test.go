package scan

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	garden "github.com/Waldgeist-49/Garden"
)

// fakeBus acknowledges the addresses in present and fails the rest with miss.
type fakeBus struct {
	mx      sync.Mutex
	present map[byte]bool
	miss    error
	probed  []byte
	cancel  func()
	stopAt  byte
}

func (f *fakeBus) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	f.mx.Lock()
	defer f.mx.Unlock()
	f.probed = append(f.probed, address)
	if len(buffer) != 1 {
		return errors.New("probe must be a single byte read")
	}
	if f.cancel != nil && address == f.stopAt {
		f.cancel()
	}
	if f.present[address] {
		return nil
	}
	return f.miss
}

func (f *fakeBus) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	return errors.New("unexpected write")
}

func (f *fakeBus) Tx(ctx context.Context, address byte, w, r []byte) error {
	return errors.New("unexpected tx")
}

func (f *fakeBus) Release(ctx context.Context) error { return nil }

type countingBus struct {
	*fakeBus
	transactions int
}

func (c *countingBus) Transaction(ctx context.Context, fn func(ctx context.Context, bus garden.I2CBus) error) error {
	c.transactions++
	return fn(ctx, c.fakeBus)
}

func TestScan_EmptyBus(t *testing.T) {
	bus := &fakeBus{miss: garden.ErrNack}
	found, err := New(bus).Scan(context.Background())
	require.NoError(t, err)
	assert.Empty(t, found)
	assert.Len(t, bus.probed, 126)
	assert.Equal(t, byte(0x01), bus.probed[0])
	assert.Equal(t, byte(0x7E), bus.probed[125])

	out, err := json.Marshal(found)
	require.NoError(t, err)
	assert.Equal(t, "[]", string(out))
}

func TestScan_FindsDevices(t *testing.T) {
	tests := []struct {
		name string
		miss error
	}{
		{"nack", garden.ErrNack},
		{"timeout", garden.ErrTimeout},
		{"other error", errors.New("arbitration lost")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bus := &fakeBus{present: map[byte]bool{0x76: true, 0x48: true}, miss: tt.miss}
			found, err := New(bus).Scan(context.Background())
			require.NoError(t, err)
			assert.Equal(t, Addresses{0x48, 0x76}, found)

			out, err := json.Marshal(found)
			require.NoError(t, err)
			assert.Equal(t, `["0x48","0x76"]`, string(out))
		})
	}
}

func TestScan_EachProbeIsOneTransaction(t *testing.T) {
	bus := &countingBus{fakeBus: &fakeBus{miss: garden.ErrNack}}
	_, err := New(bus).Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 126, bus.transactions)
}

func TestScan_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	bus := &fakeBus{present: map[byte]bool{0x10: true}, miss: garden.ErrNack, cancel: cancel, stopAt: 0x20}
	found, err := New(bus).Scan(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, Addresses{0x10}, found)
	assert.Less(t, len(bus.probed), 126)
}

func TestAddresses_YAML(t *testing.T) {
	out, err := yaml.Marshal(Addresses{0x0A, 0x48})
	require.NoError(t, err)
	var back []string
	require.NoError(t, yaml.Unmarshal(out, &back))
	assert.Equal(t, []string{"0x0A", "0x48"}, back)
}
