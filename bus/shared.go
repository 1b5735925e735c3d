package bus

import (
	"context"
	"io"

	garden "github.com/Waldgeist-49/Garden"
)

// I2CBackend is an opened two-wire bus implementation.
type I2CBackend interface {
	garden.I2CBus
	io.Closer
}

// SPIBackend is an opened four-wire connection.
type SPIBackend interface {
	garden.SPIConn
	io.Closer
}

// lock is a mutex whose acquisition can be abandoned when ctx is done.
type lock chan struct{}

func newLock() lock { return make(lock, 1) }

func (l lock) acquire(ctx context.Context) error {
	select {
	case l <- struct{}{}:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (l lock) release() { <-l }

var (
	_ garden.I2CBus        = &SharedI2C{}
	_ garden.I2CTransactor = &SharedI2C{}
	_ garden.SPIConn       = &SharedSPI{}
	_ garden.SPITransactor = &SharedSPI{}
)

// SharedI2C is the process-wide handle of a two-wire bus. Every device on the bus uses the
// same handle; multi-phase protocols run inside Transaction.
type SharedI2C struct {
	id      string
	cfg     Config
	mx      lock
	backend I2CBackend
}

func newSharedI2C(id string, cfg Config, backend I2CBackend) *SharedI2C {
	return &SharedI2C{id: id, cfg: cfg, mx: newLock(), backend: backend}
}

func (s *SharedI2C) ID() string     { return s.id }
func (s *SharedI2C) Config() Config { return s.cfg }

// Transaction holds the bus for the whole of fn, including any settle delays fn waits on.
func (s *SharedI2C) Transaction(ctx context.Context, fn func(ctx context.Context, bus garden.I2CBus) error) error {
	if err := s.mx.acquire(ctx); err != nil {
		return err
	}
	defer s.mx.release()
	return fn(ctx, s.backend)
}

func (s *SharedI2C) ReadFromAddr(ctx context.Context, address byte, buffer []byte) error {
	return s.Transaction(ctx, func(ctx context.Context, bus garden.I2CBus) error {
		return bus.ReadFromAddr(ctx, address, buffer)
	})
}

func (s *SharedI2C) WriteToAddr(ctx context.Context, address byte, buffer []byte) error {
	return s.Transaction(ctx, func(ctx context.Context, bus garden.I2CBus) error {
		return bus.WriteToAddr(ctx, address, buffer)
	})
}

func (s *SharedI2C) Tx(ctx context.Context, address byte, w, r []byte) error {
	return s.Transaction(ctx, func(ctx context.Context, bus garden.I2CBus) error {
		return bus.Tx(ctx, address, w, r)
	})
}

func (s *SharedI2C) Release(ctx context.Context) error {
	return s.Transaction(ctx, func(ctx context.Context, bus garden.I2CBus) error {
		return bus.Release(ctx)
	})
}

func (s *SharedI2C) close() error {
	s.mx <- struct{}{}
	defer s.mx.release()
	return s.backend.Close()
}

// SharedSPI is the process-wide handle of a four-wire connection.
type SharedSPI struct {
	id      string
	cfg     Config
	mx      lock
	backend SPIBackend
}

func newSharedSPI(id string, cfg Config, backend SPIBackend) *SharedSPI {
	return &SharedSPI{id: id, cfg: cfg, mx: newLock(), backend: backend}
}

func (s *SharedSPI) ID() string     { return s.id }
func (s *SharedSPI) Config() Config { return s.cfg }

func (s *SharedSPI) Transaction(ctx context.Context, fn func(ctx context.Context, conn garden.SPIConn) error) error {
	if err := s.mx.acquire(ctx); err != nil {
		return err
	}
	defer s.mx.release()
	return fn(ctx, s.backend)
}

func (s *SharedSPI) Tx(ctx context.Context, w, r []byte) error {
	return s.Transaction(ctx, func(ctx context.Context, conn garden.SPIConn) error {
		return conn.Tx(ctx, w, r)
	})
}

func (s *SharedSPI) close() error {
	s.mx <- struct{}{}
	defer s.mx.release()
	return s.backend.Close()
}
