package i2c

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/i2c/i2ctest"
	"periph.io/x/conn/v3/physic"

	garden "github.com/Waldgeist-49/Garden"
)

func TestGenericBus_Tx(t *testing.T) {
	pb := &i2ctest.Playback{
		Ops: []i2ctest.IO{
			{Addr: 0x48, W: []byte{0x01, 0xC3, 0x83}},
			{Addr: 0x48, W: []byte{0x00}, R: []byte{0x12, 0x34}},
			{Addr: 0x48, R: []byte{0x7F}},
		},
		DontPanic: true,
	}
	bus := NewGenericBusFrom(pb)
	ctx := context.Background()

	require.NoError(t, bus.SetSpeed(100*physic.KiloHertz))
	require.NoError(t, bus.WriteToAddr(ctx, 0x48, []byte{0x01, 0xC3, 0x83}))
	buf := make([]byte, 2)
	require.NoError(t, bus.Tx(ctx, 0x48, []byte{0x00}, buf))
	assert.Equal(t, []byte{0x12, 0x34}, buf)
	one := make([]byte, 1)
	require.NoError(t, bus.ReadFromAddr(ctx, 0x48, one))
	assert.Equal(t, byte(0x7F), one[0])
	assert.NoError(t, bus.Close())
}

func TestGenericBus_TxFailure(t *testing.T) {
	pb := &i2ctest.Playback{DontPanic: true}
	bus := NewGenericBusFrom(pb)
	err := bus.WriteToAddr(context.Background(), 0x48, []byte{0x01})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "0x48")
}

func TestGenericBus_CancelledContext(t *testing.T) {
	pb := &i2ctest.Playback{DontPanic: true}
	bus := NewGenericBusFrom(pb)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, bus.WriteToAddr(ctx, 0x48, nil), context.Canceled)
}

func TestGenericBus_EmptyTransferIsRejected(t *testing.T) {
	pb := &i2ctest.Playback{DontPanic: true}
	bus := NewGenericBusFrom(pb)
	err := bus.WriteToAddr(context.Background(), 0x48, nil)
	assert.ErrorIs(t, err, garden.ErrEmptyTransfer)
	assert.Equal(t, 0, pb.Count)
	assert.NoError(t, pb.Close())
}
