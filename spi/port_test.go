package spi

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/conntest"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi/spitest"
)

func TestGenericPort_Tx(t *testing.T) {
	pb := &spitest.Playback{Playback: conntest.Playback{
		Ops: []conntest.IO{
			{W: []byte{0xD0, 0x00}, R: []byte{0x00, 0x58}},
			{W: []byte{0x74, 0x57}},
		},
		DontPanic: true,
	}}
	port, err := NewGenericPortFrom(pb, physic.MegaHertz, 0, 8)
	require.NoError(t, err)
	ctx := context.Background()

	rx := make([]byte, 2)
	require.NoError(t, port.Tx(ctx, []byte{0xD0, 0x00}, rx))
	assert.Equal(t, byte(0x58), rx[1])
	require.NoError(t, port.Tx(ctx, []byte{0x74, 0x57}, nil))
	assert.NoError(t, port.Close())
}

func TestGenericPort_LengthMismatch(t *testing.T) {
	pb := &spitest.Playback{Playback: conntest.Playback{DontPanic: true}}
	port, err := NewGenericPortFrom(pb, physic.MegaHertz, 0, 8)
	require.NoError(t, err)
	err = port.Tx(context.Background(), []byte{0xD0, 0x00}, make([]byte, 1))
	assert.ErrorContains(t, err, "length mismatch")
}

func TestGenericPort_InvalidMode(t *testing.T) {
	pb := &spitest.Playback{Playback: conntest.Playback{DontPanic: true}}
	_, err := NewGenericPortFrom(pb, physic.MegaHertz, 4, 8)
	assert.Error(t, err)
}
