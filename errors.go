package garden

import (
	"errors"
	"fmt"
)

var ErrBusBusy = fmt.Errorf("I2C engine is busy (command not completed)")
var ErrTimeout = errors.New("bus transaction timed out")
var ErrNack = errors.New("device did not acknowledge")

// ErrEmptyTransfer is returned for a transfer with nothing to write or read. Host
// drivers skip such transfers without touching the bus, so they prove nothing.
var ErrEmptyTransfer = errors.New("empty bus transfer")

var ErrIncompatibleConfig = errors.New("bus already initialized with a different configuration")
var ErrAlreadyConfigured = errors.New("bus already configured")

// ErrUninitialized is returned by drivers asked to read before their identity and
// calibration have been established.
var ErrUninitialized = errors.New("device not initialized")

// BusConfigError reports invalid bus parameters.
type BusConfigError struct {
	Bus    string
	Reason string
	Err    error
}

func (e *BusConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("bus %s: %s: %v", e.Bus, e.Reason, e.Err)
	}
	return fmt.Sprintf("bus %s: %s", e.Bus, e.Reason)
}

func (e *BusConfigError) Unwrap() error { return e.Err }

// TransactionError wraps a failed write, read, timeout or NACK on a device.
type TransactionError struct {
	Device string
	Op     string
	Err    error
}

func (e *TransactionError) Error() string {
	return fmt.Sprintf("%s: %s failed: %v", e.Device, e.Op, e.Err)
}

func (e *TransactionError) Unwrap() error { return e.Err }

// IdentityMismatchError means a different chip answered on the bus. It is terminal for
// the device.
type IdentityMismatchError struct {
	Device string
	Want   byte
	Got    byte
}

func (e *IdentityMismatchError) Error() string {
	return fmt.Sprintf("%s: chip id mismatch: got %#02x, want %#02x", e.Device, e.Got, e.Want)
}

// IsTransaction reports whether err is a device transaction failure.
func IsTransaction(err error) bool {
	var te *TransactionError
	return errors.As(err, &te)
}

// IsIdentityMismatch reports whether err carries an IdentityMismatchError.
func IsIdentityMismatch(err error) bool {
	var ie *IdentityMismatchError
	return errors.As(err, &ie)
}
