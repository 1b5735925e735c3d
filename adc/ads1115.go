package adc

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"time"

	"periph.io/x/conn/v3/physic"

	garden "github.com/Waldgeist-49/Garden"
)

// ADS1115 default 7-bit I2C address (ADDR pin tied to GND).
const ADS1115DefaultAddress = 0x48

// register pointers
const (
	regConversion byte = 0x00
	regConfig     byte = 0x01
)

// Config register fields (datasheet table 8).
const (
	cfgStartConversion uint16 = 1 << 15
	cfgMuxSingleEnded  uint16 = 0b100 << 12
	cfgGain4V096       uint16 = 0b001 << 9
	cfgModeSingleShot  uint16 = 1 << 8
	cfgRate128SPS      uint16 = 0b100 << 5
	cfgComparatorOff   uint16 = 0b11

	cfgMuxMask uint16 = 0b111 << 12
)

// full scale range of the fixed ±4.096 V gain, one LSB is 125 µV
const lsb = 125 * physic.MicroVolt

var ErrInvalidChannel = errors.New("ads1115: channel out of range")

// Channel selects one of the four single-ended inputs AIN0..AIN3.
type Channel uint8

const (
	AIN0 Channel = iota
	AIN1
	AIN2
	AIN3
)

func (c Channel) Valid() bool { return c <= AIN3 }

func (c Channel) String() string { return fmt.Sprintf("AIN%d", uint8(c)) }

// ConfigWord returns the config register value that starts a single-shot conversion of
// ch at ±4.096 V full scale and 128 samples per second with the comparator disabled.
func ConfigWord(ch Channel) (uint16, error) {
	if !ch.Valid() {
		return 0, ErrInvalidChannel
	}
	mux := cfgMuxSingleEnded | uint16(ch)<<12
	return cfgStartConversion | mux | cfgGain4V096 | cfgModeSingleShot | cfgRate128SPS | cfgComparatorOff, nil
}

// MuxBits extracts the input multiplexer field from a config word.
func MuxBits(word uint16) uint16 {
	return (word & cfgMuxMask) >> 12
}

// Voltage converts a raw conversion code to the input voltage.
func Voltage(code int16) physic.ElectricPotential {
	return physic.ElectricPotential(code) * lsb
}

type ADS1115Opts struct {
	Address         byte
	ConversionDelay time.Duration
}

type ADS1115Opt func(*ADS1115Opts)

func WithAddress(address byte) ADS1115Opt {
	return func(o *ADS1115Opts) {
		o.Address = address
	}
}

func WithConversionDelay(delay time.Duration) ADS1115Opt {
	return func(o *ADS1115Opts) {
		o.ConversionDelay = delay
	}
}

// ADS1115 represents Texas Instruments ADS1115 16-bit delta-sigma ADC.
// Typical usage:
//
//	a := NewADS1115(bus)
//	code, err := a.ReadChannel(ctx, AIN0)
//
// Every read triggers one conversion and waits for it on the calling goroutine. The bus
// stays locked for the whole conversion.
type ADS1115 struct {
	transport garden.I2CBus
	config    ADS1115Opts
}

func NewADS1115(transport garden.I2CBus, opts ...ADS1115Opt) *ADS1115 {
	config := ADS1115Opts{
		Address: ADS1115DefaultAddress,
		// a conversion at 128 SPS takes 7.8 ms
		ConversionDelay: 10 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(&config)
	}
	return &ADS1115{transport: transport, config: config}
}

func (a *ADS1115) Address() byte { return a.config.Address }

// ReadChannel converts ch and returns the signed conversion code. On any bus failure it
// returns 0 together with a *garden.TransactionError; 0 must then be read as "no
// reading", not as zero volts.
func (a *ADS1115) ReadChannel(ctx context.Context, ch Channel) (int16, error) {
	word, err := ConfigWord(ch)
	if err != nil {
		return 0, err
	}
	var code int16
	err = garden.InI2CTransaction(ctx, a.transport, func(ctx context.Context, bus garden.I2CBus) error {
		cmd := []byte{regConfig, 0, 0}
		binary.BigEndian.PutUint16(cmd[1:], word)
		if err := bus.WriteToAddr(ctx, a.config.Address, cmd); err != nil {
			return &garden.TransactionError{Device: "ads1115", Op: "config write", Err: err}
		}
		if err := sleep(ctx, a.config.ConversionDelay); err != nil {
			return err
		}
		buf := make([]byte, 2)
		if err := bus.Tx(ctx, a.config.Address, []byte{regConversion}, buf); err != nil {
			return &garden.TransactionError{Device: "ads1115", Op: "conversion read", Err: err}
		}
		code = int16(binary.BigEndian.Uint16(buf))
		return nil
	})
	if err != nil {
		return 0, err
	}
	return code, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
