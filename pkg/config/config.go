package config

import (
	"errors"
	"fmt"
	"os"
	"time"
	_ "time/tzdata"

	"gopkg.in/yaml.v3"
	"periph.io/x/conn/v3/physic"

	garden "github.com/Waldgeist-49/Garden"
	"github.com/Waldgeist-49/Garden/bus"
)

// injected at build time
var (
	Version = "latest"
	Commit  = "none"
	Date    = "unknown"
)

type Adapter string

const (
	AdapterPeriph  Adapter = "periph"
	AdapterMCP2221 Adapter = "mcp2221"
	AdapterNanoPi  Adapter = "nanopi"
)

// Bus is the file representation of a bus. Speed uses periph notation ("100kHz").
type Bus struct {
	Device string   `yaml:"device"`
	Speed  string   `yaml:"speed"`
	Mode   int      `yaml:"mode,omitempty"`
	Bits   int      `yaml:"bits,omitempty"`
	Pins   bus.Pins `yaml:"pins"`
}

// Config converts b to a bus configuration of the given kind and validates it.
func (b Bus) Config(id string, kind bus.Kind) (bus.Config, error) {
	var speed physic.Frequency
	if err := speed.Set(b.Speed); err != nil {
		return bus.Config{}, &garden.BusConfigError{Bus: id, Reason: fmt.Sprintf("invalid speed %q", b.Speed), Err: err}
	}
	cfg := bus.Config{Kind: kind, Device: b.Device, Speed: speed, Mode: b.Mode, Bits: b.Bits, Pins: b.Pins}
	if err := cfg.Validate(id, kind); err != nil {
		return bus.Config{}, err
	}
	return cfg, nil
}

type ADS1115 struct {
	Address         byte          `yaml:"address"`
	Channels        []int         `yaml:"channels"`
	ConversionDelay time.Duration `yaml:"conversion_delay"`
}

type BMP280 struct {
	ResetDelay time.Duration `yaml:"reset_delay"`
	ReadDelay  time.Duration `yaml:"read_delay"`
}

type HTTP struct {
	Listen string `yaml:"listen"`
}

type Config struct {
	Adapter  Adapter `yaml:"adapter"`
	I2C      Bus     `yaml:"i2c"`
	SPI      Bus     `yaml:"spi"`
	ADS1115  ADS1115 `yaml:"ads1115"`
	BMP280   BMP280  `yaml:"bmp280"`
	HTTP     HTTP    `yaml:"http"`
	Timezone string  `yaml:"timezone"`
}

// Default returns the wiring of the reference garden board.
func Default() Config {
	return Config{
		Adapter: AdapterPeriph,
		I2C: Bus{
			Device: "/dev/i2c-1",
			Speed:  "100kHz",
			Pins:   bus.Pins{SDA: 19, SCL: 18},
		},
		SPI: Bus{
			Device: "/dev/spidev0.0",
			Speed:  "1MHz",
			Mode:   0,
			Bits:   8,
			Pins:   bus.Pins{MISO: 1, MOSI: 2, CLK: 3, CS: 4},
		},
		ADS1115: ADS1115{
			Address:         0x48,
			Channels:        []int{0, 1},
			ConversionDelay: 10 * time.Millisecond,
		},
		BMP280: BMP280{
			ResetDelay: 20 * time.Millisecond,
			ReadDelay:  100 * time.Millisecond,
		},
		HTTP:     HTTP{Listen: ":8080"},
		Timezone: "Europe/Kyiv",
	}
}

// Load reads path over the defaults. An empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("could not read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("could not parse config %s: %w", path, err)
	}
	return cfg, cfg.Validate()
}

var ErrInvalidChannels = errors.New("exactly two adc channels in range 0..3 must be exported")

func (c Config) Validate() error {
	switch c.Adapter {
	case AdapterPeriph, AdapterMCP2221, AdapterNanoPi:
	default:
		return fmt.Errorf("unknown adapter %q", c.Adapter)
	}
	if _, err := c.I2C.Config("i2c", bus.KindTwoWire); err != nil {
		return err
	}
	if _, err := c.SPI.Config("spi", bus.KindFourWire); err != nil {
		return err
	}
	if len(c.ADS1115.Channels) != 2 {
		return ErrInvalidChannels
	}
	for _, ch := range c.ADS1115.Channels {
		if ch < 0 || ch > 3 {
			return ErrInvalidChannels
		}
	}
	if c.ADS1115.Address < 0x08 || c.ADS1115.Address > 0x77 {
		return fmt.Errorf("invalid ads1115 address %#02x", c.ADS1115.Address)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// posix TZ strings that have a single IANA equivalent
var posixZones = map[string]string{
	"EET-2EEST": "Europe/Kyiv",
	"CET-1CEST": "Europe/Warsaw",
	"UTC0":      "UTC",
}

// Location resolves Timezone. POSIX strings like "EET-2EEST,M3.5.0/3,M10.5.0/4" are
// matched on their zone part.
func (c Config) Location() (*time.Location, error) {
	name := c.Timezone
	if name == "" {
		return time.Local, nil
	}
	for posix, iana := range posixZones {
		if name == posix || len(name) > len(posix) && name[:len(posix)+1] == posix+"," {
			name = iana
			break
		}
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("invalid timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}
