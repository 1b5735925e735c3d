package adapter

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	garden "github.com/Waldgeist-49/Garden"
)

// fakeDevice records every report and answers with reply.
type fakeDevice struct {
	requests [][]byte
	last     []byte
	reply    func(req []byte) []byte
}

func (f *fakeDevice) Write(b []byte) (int, error) {
	req := append([]byte(nil), b...)
	f.requests = append(f.requests, req)
	f.last = req
	return len(b), nil
}

func (f *fakeDevice) Read(b []byte) (int, error) {
	res := make([]byte, reportLen)
	res[0] = f.last[0]
	if f.reply != nil {
		copy(res, f.reply(f.last))
	}
	return copy(b, res), nil
}

func (f *fakeDevice) Close() error { return nil }

func newTestBridge(dev *fakeDevice) *MCP2221 {
	return NewMCP2221(
		WithResponseWait(time.Millisecond),
		WithOpener(func() (Device, error) { return dev, nil }),
	)
}

func TestBufferToStatus(t *testing.T) {
	buf := make([]byte, reportLen)
	buf[9], buf[10] = 0x03, 0x00
	buf[11], buf[12] = 0x02, 0x00
	buf[13] = 1
	buf[14] = 117
	buf[15] = 5
	buf[16], buf[17] = 0x90, 0x00
	buf[25] = 1
	status := bufferToStatus(buf)
	assert.Equal(t, &MCP2221Status{
		I2CDataBufferCounter:   1,
		I2CSpeedDivider:        117,
		I2CTimeout:             5,
		CurrentAddress:         "9000",
		LastWriteRequestedSize: 3,
		LastWriteSentSize:      2,
		ReadPending:            1,
	}, status)
}

func TestMCP2221_WriteToAddr(t *testing.T) {
	dev := &fakeDevice{}
	err := newTestBridge(dev).WriteToAddr(context.Background(), 0x48, []byte{0x01, 0xC3, 0x83})
	require.NoError(t, err)
	require.Len(t, dev.requests, 2)
	assert.Equal(t, []byte{0x90, 0x03, 0x00, 0x90, 0x01, 0xC3, 0x83}, dev.requests[0][:7])
	assert.Equal(t, []byte{cmdStatus, 0x00, 0x00}, dev.requests[1][:3], "engine state is checked after the write")
}

func TestMCP2221_WriteNack(t *testing.T) {
	dev := &fakeDevice{reply: func(req []byte) []byte {
		res := make([]byte, reportLen)
		res[0] = req[0]
		if req[0] == cmdStatus && req[2] == 0 {
			res[8] = stateAddrNack
		}
		return res
	}}
	err := newTestBridge(dev).WriteToAddr(context.Background(), 0x50, nil)
	assert.ErrorIs(t, err, garden.ErrNack)

	require.Len(t, dev.requests, 3)
	assert.Equal(t, []byte{cmdStatus, 0x00, statusCancelTransfer}, dev.requests[2][:3], "the hanging transfer is cancelled")
}

func TestMCP2221_Busy(t *testing.T) {
	dev := &fakeDevice{reply: func(req []byte) []byte { return []byte{req[0], 0x01} }}
	err := newTestBridge(dev).WriteToAddr(context.Background(), 0x48, []byte{0x00})
	assert.ErrorIs(t, err, garden.ErrBusBusy)
}

func TestMCP2221_Tx(t *testing.T) {
	dev := &fakeDevice{reply: func(req []byte) []byte {
		if req[0] == cmdGetI2CData {
			return []byte{cmdGetI2CData, 0x00, 0x00, 0x02, 0x12, 0x34}
		}
		return nil
	}}
	r := make([]byte, 2)
	err := newTestBridge(dev).Tx(context.Background(), 0x48, []byte{0x00}, r)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x12, 0x34}, r)

	require.Len(t, dev.requests, 4)
	assert.Equal(t, []byte{cmdWriteNoStop, 0x01, 0x00, 0x90, 0x00}, dev.requests[0][:5])
	assert.Equal(t, cmdStatus, dev.requests[1][0])
	assert.Equal(t, []byte{cmdReadRepeatStart, 0x02, 0x00, 0x91}, dev.requests[2][:4])
	assert.Equal(t, cmdGetI2CData, dev.requests[3][0])
}

func TestMCP2221_ReadNack(t *testing.T) {
	dev := &fakeDevice{reply: func(req []byte) []byte {
		if req[0] == cmdGetI2CData {
			return []byte{cmdGetI2CData, 0x41}
		}
		return nil
	}}
	err := newTestBridge(dev).ReadFromAddr(context.Background(), 0x50, make([]byte, 2))
	assert.ErrorIs(t, err, garden.ErrNack)
	assert.Equal(t, statusCancelTransfer, dev.last[2])
}

func TestMCP2221_ResponseWaitHonoursContext(t *testing.T) {
	dev := &fakeDevice{}
	bridge := NewMCP2221(WithResponseWait(time.Second), WithOpener(func() (Device, error) { return dev, nil }))
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	err := bridge.WriteToAddr(ctx, 0x48, nil)
	assert.ErrorIs(t, err, garden.ErrTimeout)
}

func TestMCP2221_OpenFailure(t *testing.T) {
	bridge := NewMCP2221(WithOpener(func() (Device, error) { return nil, ErrDeviceNotFound }))
	_, err := bridge.Status(context.Background())
	assert.ErrorIs(t, err, ErrDeviceNotFound)
}

func TestMCP2221_SetSpeed(t *testing.T) {
	dev := &fakeDevice{reply: func(req []byte) []byte { return []byte{req[0], 0x00, 0x00, statusSetSpeed} }}
	require.NoError(t, newTestBridge(dev).SetSpeed(context.Background(), 100_000))
	assert.Equal(t, byte(117), dev.requests[0][4])

	dev = &fakeDevice{}
	assert.ErrorIs(t, newTestBridge(dev).SetSpeed(context.Background(), 100_000), ErrCommandFailed)
}
