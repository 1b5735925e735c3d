package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Waldgeist-49/Garden/cmd/garden/console"
	"github.com/Waldgeist-49/Garden/pkg/config"
)

func TestOpenHardware_MCP2221HasNoFourWire(t *testing.T) {
	cfg := config.Default()
	cfg.Adapter = config.AdapterMCP2221
	hw := openHardware(cfg)

	_, err := hw.bmp280(context.Background())
	assert.ErrorIs(t, err, errNoFourWire)
	assert.NoError(t, hw.Close())
}

func TestOpenHardware_InvalidBusNeverReachesBackend(t *testing.T) {
	cfg := config.Default()
	cfg.I2C.Device = ""
	hw := openHardware(cfg)

	_, err := hw.ads1115(context.Background())
	assert.Error(t, err)
	assert.Equal(t, console.CodeBusConfig, console.ExitCode(err))
	assert.NoError(t, hw.Close())
}
