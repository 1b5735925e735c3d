package bus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	garden "github.com/Waldgeist-49/Garden"
	"github.com/Waldgeist-49/Garden/i2c"
	"github.com/Waldgeist-49/Garden/spi"
)

// I2COpener opens the backend of a two-wire bus.
type I2COpener func(ctx context.Context, cfg Config) (I2CBackend, error)

// SPIOpener opens the backend of a four-wire bus.
type SPIOpener func(ctx context.Context, cfg Config) (SPIBackend, error)

type ManagerOpts struct {
	I2COpener I2COpener
	SPIOpener SPIOpener
}

type ManagerOpt func(*ManagerOpts)

func WithI2COpener(o I2COpener) ManagerOpt {
	return func(opts *ManagerOpts) {
		opts.I2COpener = o
	}
}

func WithSPIOpener(o SPIOpener) ManagerOpt {
	return func(opts *ManagerOpts) {
		opts.SPIOpener = o
	}
}

// PeriphI2C opens a two-wire bus through the periph host drivers.
func PeriphI2C(ctx context.Context, cfg Config) (I2CBackend, error) {
	b, err := i2c.NewGenericBus(cfg.Device)
	if err != nil {
		return nil, err
	}
	if err := b.SetSpeed(cfg.Speed); err != nil {
		_ = b.Close()
		return nil, err
	}
	return b, nil
}

// PeriphSPI opens a four-wire connection through the periph host drivers.
func PeriphSPI(ctx context.Context, cfg Config) (SPIBackend, error) {
	p, err := spi.NewGenericPort(cfg.Device, cfg.Speed, cfg.Mode, cfg.WordBits())
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Manager owns the lifecycle of every physical bus of the process. Initialization is
// idempotent per bus id and no other component may reconfigure a bus once it is open.
type Manager struct {
	mx     sync.Mutex
	config ManagerOpts
	i2c    map[string]*SharedI2C
	spi    map[string]*SharedSPI
}

func NewManager(opts ...ManagerOpt) *Manager {
	config := ManagerOpts{
		I2COpener: PeriphI2C,
		SPIOpener: PeriphSPI,
	}
	for _, opt := range opts {
		opt(&config)
	}
	return &Manager{
		config: config,
		i2c:    make(map[string]*SharedI2C),
		spi:    make(map[string]*SharedSPI),
	}
}

// InitI2C opens the two-wire bus id, or returns the handle opened by an earlier call with
// the same config. A failed attempt is not memoized, so the next call tries again.
func (m *Manager) InitI2C(ctx context.Context, id string, cfg Config) (*SharedI2C, error) {
	if err := cfg.Validate(id, KindTwoWire); err != nil {
		return nil, err
	}
	m.mx.Lock()
	defer m.mx.Unlock()
	if h, ok := m.i2c[id]; ok {
		if h.cfg != cfg {
			return nil, &garden.BusConfigError{Bus: id, Reason: fmt.Sprintf("requested %s, open as %s", cfg, h.cfg), Err: garden.ErrIncompatibleConfig}
		}
		return h, nil
	}
	backend, err := m.config.I2COpener(ctx, cfg)
	if err != nil && !(errors.Is(err, garden.ErrAlreadyConfigured) && backend != nil) {
		return nil, fmt.Errorf("could not initialize bus %s: %w", id, err)
	}
	h := newSharedI2C(id, cfg, backend)
	m.i2c[id] = h
	slog.Debug("bus initialized", "bus", id, "config", cfg.String())
	return h, nil
}

// InitSPI is the four-wire counterpart of InitI2C.
func (m *Manager) InitSPI(ctx context.Context, id string, cfg Config) (*SharedSPI, error) {
	if err := cfg.Validate(id, KindFourWire); err != nil {
		return nil, err
	}
	m.mx.Lock()
	defer m.mx.Unlock()
	if h, ok := m.spi[id]; ok {
		if h.cfg != cfg {
			return nil, &garden.BusConfigError{Bus: id, Reason: fmt.Sprintf("requested %s, open as %s", cfg, h.cfg), Err: garden.ErrIncompatibleConfig}
		}
		return h, nil
	}
	backend, err := m.config.SPIOpener(ctx, cfg)
	if err != nil && !(errors.Is(err, garden.ErrAlreadyConfigured) && backend != nil) {
		return nil, fmt.Errorf("could not initialize bus %s: %w", id, err)
	}
	h := newSharedSPI(id, cfg, backend)
	m.spi[id] = h
	slog.Debug("bus initialized", "bus", id, "config", cfg.String())
	return h, nil
}

// I2C returns the handle of an already initialized two-wire bus.
func (m *Manager) I2C(id string) (*SharedI2C, bool) {
	m.mx.Lock()
	defer m.mx.Unlock()
	h, ok := m.i2c[id]
	return h, ok
}

// SPI returns the handle of an already initialized four-wire bus.
func (m *Manager) SPI(id string) (*SharedSPI, bool) {
	m.mx.Lock()
	defer m.mx.Unlock()
	h, ok := m.spi[id]
	return h, ok
}

// Close closes every open bus. The manager can be reused afterwards.
func (m *Manager) Close() error {
	m.mx.Lock()
	defer m.mx.Unlock()
	var errs []error
	for id, h := range m.i2c {
		if err := h.close(); err != nil {
			errs = append(errs, fmt.Errorf("could not close bus %s: %w", id, err))
		}
		delete(m.i2c, id)
	}
	for id, h := range m.spi {
		if err := h.close(); err != nil {
			errs = append(errs, fmt.Errorf("could not close bus %s: %w", id, err))
		}
		delete(m.spi, id)
	}
	return errors.Join(errs...)
}
