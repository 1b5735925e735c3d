package adapter

import (
	"context"
	"encoding/binary"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/karalabe/hid"

	garden "github.com/Waldgeist-49/Garden"
	"github.com/Waldgeist-49/Garden/snsctx"
)

const VendorID = 0x04D8
const ProductID = 0x00DD

// HID report commands
const (
	cmdStatus          byte = 0x10
	cmdGetI2CData      byte = 0x40
	cmdWriteData       byte = 0x90
	cmdReadData        byte = 0x91
	cmdReadRepeatStart byte = 0x93
	cmdWriteNoStop     byte = 0x94

	statusCancelTransfer byte = 0x10
	statusSetSpeed       byte = 0x20

	// byte 8 of a status response, set when the target did not acknowledge its address
	stateAddrNack byte = 0x25

	// the engine clock the speed divider is derived from
	clockHz = 12_000_000

	reportLen = 64
	// largest transfer that fits a single report
	maxPayload = 60
)

var ErrCommandFailed = errors.New("command failed")
var ErrDeviceNotFound = errors.New("MCP2221 device not found")

// Device is the part of a HID handle the bridge uses.
type Device interface {
	Write(b []byte) (int, error)
	Read(b []byte) (int, error)
	Close() error
}

// DeviceOpener opens the bridge for a single exchange.
type DeviceOpener func() (Device, error)

type MCP2221Status struct {
	I2CDataBufferCounter   int    `yaml:"i2c_data_buffer_counter"`
	I2CSpeedDivider        int    `yaml:"i2c_speed_divider"`
	I2CTimeout             int    `yaml:"i2c_timeout"`
	CurrentAddress         string `yaml:"current_address"`
	LastWriteRequestedSize uint16 `yaml:"last_write_requested_size"`
	LastWriteSentSize      uint16 `yaml:"last_write_sent_size"`
	ReadPending            int    `yaml:"read_pending"`
}

type MCP2221Opts struct {
	Index        int
	ResponseWait time.Duration
	Opener       DeviceOpener
}

type MCP2221Opt func(*MCP2221Opts)

// WithIndex selects the bridge when several are plugged in.
func WithIndex(index int) MCP2221Opt {
	return func(o *MCP2221Opts) {
		o.Index = index
	}
}

func WithResponseWait(d time.Duration) MCP2221Opt {
	return func(o *MCP2221Opts) {
		o.ResponseWait = d
	}
}

func WithOpener(opener DeviceOpener) MCP2221Opt {
	return func(o *MCP2221Opts) {
		o.Opener = opener
	}
}

var _ garden.I2CBus = &MCP2221{}

// MCP2221 is a Microchip USB to two-wire bridge. It lets the drivers run on a
// development machine without a native bus.
type MCP2221 struct {
	mx       sync.Mutex
	request  []byte
	response []byte
	config   MCP2221Opts
}

func NewMCP2221(opts ...MCP2221Opt) *MCP2221 {
	config := MCP2221Opts{
		Index:        -1,
		ResponseWait: 50 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(&config)
	}
	d := &MCP2221{
		request:  make([]byte, reportLen),
		response: make([]byte, reportLen),
		config:   config,
	}
	if d.config.Opener == nil {
		d.config.Opener = d.openHID
	}
	return d
}

// SetSpeed programs the engine clock divider.
func (d *MCP2221) SetSpeed(ctx context.Context, hz int) error {
	if hz <= 0 {
		return fmt.Errorf("invalid bus speed %d", hz)
	}
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = cmdStatus
	d.request[3] = statusSetSpeed
	d.request[4] = byte(clockHz/hz - 3)
	if err := d.send(ctx); err != nil {
		return fmt.Errorf("set speed failed: %w", err)
	}
	if d.response[3] != statusSetSpeed {
		return fmt.Errorf("set speed: %w", ErrCommandFailed)
	}
	return nil
}

func (d *MCP2221) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	return d.write(ctx, cmdWriteData, address, buffer)
}

func (d *MCP2221) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	return d.read(ctx, cmdReadData, address, buffer)
}

// Tx writes w without a stop condition and reads r after a repeated start.
func (d *MCP2221) Tx(ctx context.Context, address byte, w, r []byte) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	switch {
	case len(r) == 0:
		return d.write(ctx, cmdWriteData, address, w)
	case len(w) == 0:
		return d.read(ctx, cmdReadData, address, r)
	}
	if err := d.write(ctx, cmdWriteNoStop, address, w); err != nil {
		return err
	}
	return d.read(ctx, cmdReadRepeatStart, address, r)
}

func (d *MCP2221) write(ctx context.Context, cmd byte, address byte, buffer []byte) error {
	if len(buffer) > maxPayload {
		return fmt.Errorf("write of %d bytes exceeds %d", len(buffer), maxPayload)
	}
	d.resetBuffers()
	d.request[0] = cmd
	binary.LittleEndian.PutUint16(d.request[1:3], uint16(len(buffer)))
	d.request[3] = address << 1
	copy(d.request[4:], buffer)
	if err := d.send(ctx); err != nil {
		return fmt.Errorf("write to %#02x failed: %w", address, err)
	}
	if d.response[1] == 0x01 {
		slog.Debug("adapter busy", "addr", address)
		return garden.ErrBusBusy
	}
	// the write report completes before the address phase is known, the engine state says
	// whether the target answered
	d.resetBuffers()
	d.request[0] = cmdStatus
	if err := d.send(ctx); err != nil {
		return fmt.Errorf("write status of %#02x: %w", address, err)
	}
	if d.response[8] == stateAddrNack {
		return d.nack(ctx, address)
	}
	return nil
}

// nack cancels the transfer left hanging by an unacknowledged address.
func (d *MCP2221) nack(ctx context.Context, address byte) error {
	if _, err := d.releaseBus(ctx); err != nil {
		slog.Debug("could not cancel transfer", "addr", address, "error", err)
	}
	return fmt.Errorf("addressing %#02x: %w", address, garden.ErrNack)
}

func (d *MCP2221) read(ctx context.Context, cmd byte, address byte, buffer []byte) error {
	if len(buffer) > maxPayload {
		return fmt.Errorf("read of %d bytes exceeds %d", len(buffer), maxPayload)
	}
	d.resetBuffers()
	d.request[0] = cmd
	binary.LittleEndian.PutUint16(d.request[1:3], uint16(len(buffer)))
	d.request[3] = address<<1 | 1
	if err := d.send(ctx); err != nil {
		return fmt.Errorf("read from %#02x failed: %w", address, err)
	}
	if d.response[1] == 0x01 {
		return garden.ErrBusBusy
	}
	d.resetBuffers()
	d.request[0] = cmdGetI2CData
	if err := d.send(ctx); err != nil {
		return fmt.Errorf("error getting read data from adapter: %w", err)
	}
	if d.response[1] == 0x41 {
		return d.nack(ctx, address)
	}
	if d.response[3] == 127 || int(d.response[3]) != len(buffer) {
		return fmt.Errorf("invalid data size byte; expected %d, got %d", len(buffer), d.response[3])
	}
	copy(buffer, d.response[4:4+len(buffer)])
	return nil
}

func (d *MCP2221) Status(ctx context.Context) (*MCP2221Status, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	d.resetBuffers()
	d.request[0] = cmdStatus
	if err := d.send(ctx); err != nil {
		return nil, fmt.Errorf("status request failed: %w", err)
	}
	return bufferToStatus(d.response), nil
}

func bufferToStatus(buffer []byte) *MCP2221Status {
	/*
		9: Lower byte (16-bit value) of the requested I2C transfer length
		10: Higher byte (16-bit value) of the requested I2C transfer length
		11:	Lower byte (16-bit value) of the already transferred (through I2C) number of bytes
		12:	Higher byte (16-bit value) of the already transferred (through I2C) number of bytes
		13:	Internal I2C data buffer counter
		14: Current I2C communication speed divider value
		15: Current I2C timeout value
		16:	Lower byte (16-bit value) of the I2C address being used
		17:	Higher byte (16-bit value) of the I2C address being used
	*/
	return &MCP2221Status{
		I2CDataBufferCounter:   int(buffer[13]),
		I2CSpeedDivider:        int(buffer[14]),
		I2CTimeout:             int(buffer[15]),
		ReadPending:            int(buffer[25]),
		CurrentAddress:         hex.EncodeToString(buffer[16:18]),
		LastWriteRequestedSize: binary.LittleEndian.Uint16(buffer[9:11]),
		LastWriteSentSize:      binary.LittleEndian.Uint16(buffer[11:13]),
	}
}

// Release cancels a stuck transfer and frees the bus.
func (d *MCP2221) Release(ctx context.Context) error {
	d.mx.Lock()
	defer d.mx.Unlock()
	_, err := d.releaseBus(ctx)
	return err
}

func (d *MCP2221) ReleaseBus(ctx context.Context) (*MCP2221Status, error) {
	d.mx.Lock()
	defer d.mx.Unlock()
	return d.releaseBus(ctx)
}

func (d *MCP2221) releaseBus(ctx context.Context) (*MCP2221Status, error) {
	d.resetBuffers()
	d.request[0] = cmdStatus
	d.request[2] = statusCancelTransfer
	if err := d.send(ctx); err != nil {
		return nil, fmt.Errorf("release request failed: %w", err)
	}
	return bufferToStatus(d.response), nil
}

// Close is a no-op, the HID handle is held only for a single exchange.
func (d *MCP2221) Close() error { return nil }

func (d *MCP2221) String() string { return "mcp2221" }

func (d *MCP2221) openHID() (Device, error) {
	devs := hid.Enumerate(VendorID, ProductID)
	if len(devs) == 0 {
		return nil, ErrDeviceNotFound
	}
	index := d.config.Index
	if index < 0 {
		if len(devs) > 1 {
			return nil, fmt.Errorf("ambiguous device identification: %d bridges found", len(devs))
		}
		index = 0
	}
	if index >= len(devs) {
		return nil, fmt.Errorf("no device with id %d", index)
	}
	dev, err := devs[index].Open()
	if err != nil {
		return nil, fmt.Errorf("error opening device: %w", err)
	}
	return dev, nil
}

func (d *MCP2221) send(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	dev, err := d.config.Opener()
	if err != nil {
		return err
	}
	defer func() {
		if err := dev.Close(); err != nil {
			slog.Debug("could not close adapter", "error", err)
		}
	}()
	verbose := snsctx.IsVerbose(ctx)
	if verbose {
		slog.Debug("sending message to adapter", "report", hex.Dump(d.request))
	}
	n, err := dev.Write(d.request)
	if err != nil {
		return fmt.Errorf("could not write request: %w", err)
	}
	if n != reportLen {
		return fmt.Errorf("short write: %d", n)
	}
	timer := time.NewTimer(d.config.ResponseWait)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
		return fmt.Errorf("waiting for adapter: %w", garden.ErrTimeout)
	}
	n, err = dev.Read(d.response)
	if err != nil {
		return fmt.Errorf("could not read response: %w", err)
	}
	if n != reportLen {
		return fmt.Errorf("short read: %d", n)
	}
	if verbose {
		slog.Debug("read message from adapter", "report", hex.Dump(d.response))
	}
	return nil
}

func (d *MCP2221) resetBuffers() {
	clear(d.request)
	clear(d.response)
}
