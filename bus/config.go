package bus

import (
	"fmt"

	"periph.io/x/conn/v3/physic"

	garden "github.com/Waldgeist-49/Garden"
)

type Kind string

const (
	KindTwoWire  Kind = "i2c"
	KindFourWire Kind = "spi"
)

// Pins records the board pin assignment of a bus. Linux selects pins through the device
// node, so the values are informational but take part in config equality.
type Pins struct {
	SDA  int `yaml:"sda,omitempty"`
	SCL  int `yaml:"scl,omitempty"`
	MISO int `yaml:"miso,omitempty"`
	MOSI int `yaml:"mosi,omitempty"`
	CLK  int `yaml:"clk,omitempty"`
	CS   int `yaml:"cs,omitempty"`
}

// Config describes one physical bus. It is comparable so that repeated initializations
// can be checked for compatibility with ==.
type Config struct {
	Kind   Kind
	Device string
	Speed  physic.Frequency
	// Mode and Bits apply to the four-wire bus only.
	Mode int
	Bits int
	Pins Pins
}

func (c Config) String() string {
	if c.Kind == KindFourWire {
		return fmt.Sprintf("%s{%s %s mode%d}", c.Kind, c.Device, c.Speed, c.Mode)
	}
	return fmt.Sprintf("%s{%s %s}", c.Kind, c.Device, c.Speed)
}

// Validate checks c against the expected bus kind.
func (c Config) Validate(id string, kind Kind) error {
	if c.Kind != kind {
		return &garden.BusConfigError{Bus: id, Reason: fmt.Sprintf("expected %s bus, got %q", kind, c.Kind)}
	}
	if c.Device == "" {
		return &garden.BusConfigError{Bus: id, Reason: "device name is empty"}
	}
	if c.Speed <= 0 {
		return &garden.BusConfigError{Bus: id, Reason: "clock rate must be positive"}
	}
	if kind == KindFourWire {
		if c.Mode < 0 || c.Mode > 3 {
			return &garden.BusConfigError{Bus: id, Reason: fmt.Sprintf("invalid spi mode %d", c.Mode)}
		}
		if c.Bits < 0 || c.Bits > 32 {
			return &garden.BusConfigError{Bus: id, Reason: fmt.Sprintf("invalid word size %d", c.Bits)}
		}
	}
	return nil
}

// WordBits returns the configured SPI word size, defaulting to 8.
func (c Config) WordBits() int {
	if c.Bits == 0 {
		return 8
	}
	return c.Bits
}
