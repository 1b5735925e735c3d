package environment

import (
	"context"
	"fmt"
	"sync"
	"time"

	garden "github.com/Waldgeist-49/Garden"
)

const (
	bmp280ChipID byte = 0x58

	regCalibration byte = 0x88
	regID          byte = 0xD0
	regReset       byte = 0xE0
	regCtrlMeas    byte = 0xF4
	regConfig      byte = 0xF5
	regPressMSB    byte = 0xF7

	resetCommand byte = 0xB6

	// osrs_t x2 (010), osrs_p x16 (101), mode normal (11)
	ctrlMeasNormal byte = 0b010<<5 | 0b101<<2 | 0b11
	// t_sb 1000 ms (101), filter x16 (100), spi3w off
	configStandby1s byte = 0b101<<5 | 0b100<<2

	spiRead  byte = 0x80
	spiWrite byte = 0x7F
)

// State is the lifecycle position of a BMP280.
type State int

const (
	StateUninitialized State = iota
	StateIdentityVerified
	StateCalibrationLoaded
	StateConfiguredContinuous
	// StateFaulted is terminal: another chip answered on the chip-select line.
	StateFaulted
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateIdentityVerified:
		return "identity verified"
	case StateCalibrationLoaded:
		return "calibration loaded"
	case StateConfiguredContinuous:
		return "configured continuous"
	case StateFaulted:
		return "faulted"
	}
	return fmt.Sprintf("state(%d)", int(s))
}

type BMP280Opts struct {
	ResetDelay time.Duration
	ReadDelay  time.Duration
}

type BMP280Opt func(*BMP280Opts)

// WithResetDelay sets how long to wait for the NVM copy after a soft reset.
func WithResetDelay(d time.Duration) BMP280Opt {
	return func(o *BMP280Opts) {
		o.ResetDelay = d
	}
}

// WithReadDelay sets the settle time before each data burst.
func WithReadDelay(d time.Duration) BMP280Opt {
	return func(o *BMP280Opts) {
		o.ReadDelay = d
	}
}

// BMP280 represents Bosch BMP280 pressure and temperature sensor on a four-wire bus.
// Typical usage:
//
//	s, err := Connect(ctx, conn)
//	r, err := s.Sense(ctx)
//
// The sensor runs in normal mode after Init so Sense only collects the latest result.
type BMP280 struct {
	conn   garden.SPIConn
	config BMP280Opts

	mx    sync.Mutex
	state State
	calib Calibration
	fault error
}

func NewBMP280(conn garden.SPIConn, opts ...BMP280Opt) *BMP280 {
	config := BMP280Opts{
		ResetDelay: 20 * time.Millisecond,
		// max measurement time at T x2 / P x16 is 43.2 ms
		ReadDelay: 100 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(&config)
	}
	return &BMP280{conn: conn, config: config}
}

// Connect creates the driver and runs Init.
func Connect(ctx context.Context, conn garden.SPIConn, opts ...BMP280Opt) (*BMP280, error) {
	s := NewBMP280(conn, opts...)
	if err := s.Init(ctx); err != nil {
		return s, err
	}
	return s, nil
}

func (s *BMP280) State() State {
	s.mx.Lock()
	defer s.mx.Unlock()
	return s.state
}

// Calibration returns the coefficients loaded by Init.
func (s *BMP280) Calibration() (Calibration, error) {
	s.mx.Lock()
	defer s.mx.Unlock()
	if s.state == StateFaulted {
		return Calibration{}, s.fault
	}
	if s.state < StateCalibrationLoaded {
		return Calibration{}, garden.ErrUninitialized
	}
	return s.calib, nil
}

// Init verifies the chip identity, resets the chip, loads calibration and starts
// continuous measurement. It is a no-op once the sensor is configured. An identity
// mismatch is latched and returned by every later call without bus traffic.
func (s *BMP280) Init(ctx context.Context) error {
	s.mx.Lock()
	defer s.mx.Unlock()
	switch s.state {
	case StateFaulted:
		return s.fault
	case StateConfiguredContinuous:
		return nil
	}
	err := garden.InSPITransaction(ctx, s.conn, func(ctx context.Context, conn garden.SPIConn) error {
		id, err := readRegs(ctx, conn, regID, 1)
		if err != nil {
			return &garden.TransactionError{Device: "bmp280", Op: "id read", Err: err}
		}
		if id[0] != bmp280ChipID {
			s.fault = &garden.IdentityMismatchError{Device: "bmp280", Want: bmp280ChipID, Got: id[0]}
			s.state = StateFaulted
			return s.fault
		}
		s.state = StateIdentityVerified

		if err := s.reset(ctx, conn); err != nil {
			return err
		}

		buf, err := readRegs(ctx, conn, regCalibration, calibrationLen)
		if err != nil {
			return &garden.TransactionError{Device: "bmp280", Op: "calibration read", Err: err}
		}
		calib, err := ParseCalibration(buf)
		if err != nil {
			return err
		}
		s.calib = calib
		s.state = StateCalibrationLoaded

		if err := writeReg(ctx, conn, regCtrlMeas, ctrlMeasNormal); err != nil {
			return &garden.TransactionError{Device: "bmp280", Op: "ctrl_meas write", Err: err}
		}
		if err := writeReg(ctx, conn, regConfig, configStandby1s); err != nil {
			return &garden.TransactionError{Device: "bmp280", Op: "config write", Err: err}
		}
		s.state = StateConfiguredContinuous
		return nil
	})
	if err != nil && s.state != StateFaulted {
		s.state = StateUninitialized
	}
	return err
}

// Sense waits for the measurement to settle, reads the latest raw sample and compensates
// it. Temperature is computed first and its t_fine feeds the pressure.
func (s *BMP280) Sense(ctx context.Context) (Reading, error) {
	s.mx.Lock()
	defer s.mx.Unlock()
	switch s.state {
	case StateFaulted:
		return Reading{}, s.fault
	case StateConfiguredContinuous:
	default:
		return Reading{}, garden.ErrUninitialized
	}
	var rawT, rawP int32
	err := garden.InSPITransaction(ctx, s.conn, func(ctx context.Context, conn garden.SPIConn) error {
		if err := sleep(ctx, s.config.ReadDelay); err != nil {
			return err
		}
		buf, err := readRegs(ctx, conn, regPressMSB, 6)
		if err != nil {
			return &garden.TransactionError{Device: "bmp280", Op: "data read", Err: err}
		}
		rawP = raw20(buf[0:3])
		rawT = raw20(buf[3:6])
		return nil
	})
	if err != nil {
		return Reading{}, err
	}
	return s.calib.Compensate(rawT, rawP), nil
}

// Reset issues a soft reset. The sensor must be initialized again afterwards.
func (s *BMP280) Reset(ctx context.Context) error {
	s.mx.Lock()
	defer s.mx.Unlock()
	if s.state == StateFaulted {
		return s.fault
	}
	err := garden.InSPITransaction(ctx, s.conn, s.reset)
	s.state = StateUninitialized
	return err
}

func (s *BMP280) reset(ctx context.Context, conn garden.SPIConn) error {
	if err := writeReg(ctx, conn, regReset, resetCommand); err != nil {
		return &garden.TransactionError{Device: "bmp280", Op: "reset", Err: err}
	}
	return sleep(ctx, s.config.ResetDelay)
}

// readRegs performs a burst read starting at reg. The first received byte is clocked out
// while the address is sent and is dropped.
func readRegs(ctx context.Context, conn garden.SPIConn, reg byte, n int) ([]byte, error) {
	w := make([]byte, n+1)
	w[0] = reg | spiRead
	r := make([]byte, n+1)
	if err := conn.Tx(ctx, w, r); err != nil {
		return nil, err
	}
	return r[1:], nil
}

func writeReg(ctx context.Context, conn garden.SPIConn, reg, value byte) error {
	return conn.Tx(ctx, []byte{reg & spiWrite, value}, nil)
}

// raw20 assembles msb, lsb and the upper nibble of xlsb.
func raw20(b []byte) int32 {
	return int32(b[0])<<12 | int32(b[1])<<4 | int32(b[2])>>4
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
