package scan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	garden "github.com/Waldgeist-49/Garden"
)

// valid 7-bit addresses, reserved 0x00 and 0x7F are never probed
const (
	FirstAddress byte = 0x01
	LastAddress  byte = 0x7E
)

// Addresses is the list of responding devices, encoded as ["0x48","0x76"].
type Addresses []byte

func (a Addresses) Strings() []string {
	out := make([]string, 0, len(a))
	for _, addr := range a {
		out = append(out, fmt.Sprintf("0x%02X", addr))
	}
	return out
}

func (a Addresses) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.Strings())
}

func (a Addresses) MarshalYAML() (interface{}, error) {
	return a.Strings(), nil
}

const DefaultProbeTimeout = 100 * time.Millisecond

type Opts struct {
	ProbeTimeout time.Duration
}

type Opt func(*Opts)

// WithProbeTimeout bounds each single address probe.
func WithProbeTimeout(d time.Duration) Opt {
	return func(o *Opts) {
		o.ProbeTimeout = d
	}
}

// Scanner finds devices on a two-wire bus by reading a single byte from each address
// and checking for an acknowledge, like i2cdetect -r. Empty writes are skipped by host
// drivers without bus traffic and cannot serve as a probe.
type Scanner struct {
	bus    garden.I2CBus
	config Opts
}

func New(bus garden.I2CBus, opts ...Opt) *Scanner {
	config := Opts{ProbeTimeout: DefaultProbeTimeout}
	for _, opt := range opts {
		opt(&config)
	}
	return &Scanner{bus: bus, config: config}
}

// Scan probes every address in ascending order. Each probe holds the bus only for
// itself and ProbeTimeout bounds the transfer, not the wait for the bus. The scan stops
// when ctx is done.
func (s *Scanner) Scan(ctx context.Context) (Addresses, error) {
	found := Addresses{}
	for addr := FirstAddress; addr <= LastAddress; addr++ {
		if err := ctx.Err(); err != nil {
			return found, err
		}
		ok, err := s.probe(ctx, addr)
		if err != nil {
			return found, err
		}
		if ok {
			found = append(found, addr)
		}
	}
	return found, nil
}

func (s *Scanner) probe(ctx context.Context, addr byte) (bool, error) {
	var buf [1]byte
	err := garden.InI2CTransaction(ctx, s.bus, func(ctx context.Context, bus garden.I2CBus) error {
		probeCtx, cancel := context.WithTimeout(ctx, s.config.ProbeTimeout)
		defer cancel()
		return bus.ReadFromAddr(probeCtx, addr, buf[:])
	})
	switch {
	case err == nil:
		return true, nil
	case ctx.Err() != nil:
		return false, ctx.Err()
	case errors.Is(err, garden.ErrTimeout), errors.Is(err, garden.ErrNack), errors.Is(err, context.DeadlineExceeded):
		return false, nil
	default:
		slog.Debug("probe failed", "addr", fmt.Sprintf("0x%02X", addr), "error", err)
		return false, nil
	}
}
