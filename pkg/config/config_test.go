package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/physic"

	garden "github.com/Waldgeist-49/Garden"
	"github.com/Waldgeist-49/Garden/bus"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	i2c, err := cfg.I2C.Config("i2c", bus.KindTwoWire)
	require.NoError(t, err)
	assert.Equal(t, 100*physic.KiloHertz, i2c.Speed)
	assert.Equal(t, bus.Pins{SDA: 19, SCL: 18}, i2c.Pins)

	spi, err := cfg.SPI.Config("spi", bus.KindFourWire)
	require.NoError(t, err)
	assert.Equal(t, physic.MegaHertz, spi.Speed)
	assert.Equal(t, 0, spi.Mode)
	assert.Equal(t, bus.Pins{MISO: 1, MOSI: 2, CLK: 3, CS: 4}, spi.Pins)

	assert.Equal(t, byte(0x48), cfg.ADS1115.Address)
	assert.Equal(t, []int{0, 1}, cfg.ADS1115.Channels)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garden.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
adapter: mcp2221
i2c:
  speed: 400kHz
ads1115:
  address: 0x49
  channels: [2, 3]
bmp280:
  read_delay: 50ms
timezone: EET-2EEST,M3.5.0/3,M10.5.0/4
`), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, AdapterMCP2221, cfg.Adapter)
	assert.Equal(t, "/dev/i2c-1", cfg.I2C.Device, "unset fields keep defaults")
	assert.Equal(t, "400kHz", cfg.I2C.Speed)
	assert.Equal(t, byte(0x49), cfg.ADS1115.Address)
	assert.Equal(t, []int{2, 3}, cfg.ADS1115.Channels)
	assert.Equal(t, 50*time.Millisecond, cfg.BMP280.ReadDelay)
	assert.Equal(t, 20*time.Millisecond, cfg.BMP280.ResetDelay)

	loc, err := cfg.Location()
	require.NoError(t, err)
	assert.Equal(t, "Europe/Kyiv", loc.String())
}

func TestLoad_EmptyPath(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(c *Config)
		busErr bool
	}{
		{"adapter", func(c *Config) { c.Adapter = "ftdi" }, false},
		{"i2c speed", func(c *Config) { c.I2C.Speed = "fast" }, true},
		{"i2c device", func(c *Config) { c.I2C.Device = "" }, true},
		{"spi mode", func(c *Config) { c.SPI.Mode = 5 }, true},
		{"channels count", func(c *Config) { c.ADS1115.Channels = []int{0} }, false},
		{"channel range", func(c *Config) { c.ADS1115.Channels = []int{0, 4} }, false},
		{"address", func(c *Config) { c.ADS1115.Address = 0x7F }, false},
		{"timezone", func(c *Config) { c.Timezone = "Mars/Olympus" }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(&cfg)
			err := cfg.Validate()
			require.Error(t, err)
			var busErr *garden.BusConfigError
			assert.Equal(t, tt.busErr, errors.As(err, &busErr))
		})
	}
}
