package garden

import (
	"context"
)

type AddressableReader interface {
	ReadFromAddr(ctx context.Context, address byte, buffer []byte) error
}

type AddressableWriter interface {
	WriteToAddr(ctx context.Context, address byte, buffer []byte) error
	Release(ctx context.Context) error
}

// I2CBus is a two-wire bus. Tx writes w and then reads into r using a repeated start
// where the backend supports it.
type I2CBus interface {
	AddressableReader
	AddressableWriter
	Tx(ctx context.Context, address byte, w, r []byte) error
}

// SPIConn is a connection to a single chip-select line of a four-wire bus.
// Tx is full duplex: len(r) is either 0 or len(w).
type SPIConn interface {
	Tx(ctx context.Context, w, r []byte) error
}

// I2CTransactor is implemented by shared two-wire handles. The bus passed to fn is held
// exclusively until fn returns.
type I2CTransactor interface {
	Transaction(ctx context.Context, fn func(ctx context.Context, bus I2CBus) error) error
}

// SPITransactor is the four-wire counterpart of I2CTransactor.
type SPITransactor interface {
	Transaction(ctx context.Context, fn func(ctx context.Context, conn SPIConn) error) error
}

// InI2CTransaction runs fn with exclusive access to bus when bus supports it and
// directly otherwise.
func InI2CTransaction(ctx context.Context, bus I2CBus, fn func(ctx context.Context, bus I2CBus) error) error {
	if t, ok := bus.(I2CTransactor); ok {
		return t.Transaction(ctx, fn)
	}
	return fn(ctx, bus)
}

// InSPITransaction runs fn with exclusive access to conn when conn supports it and
// directly otherwise.
func InSPITransaction(ctx context.Context, conn SPIConn, fn func(ctx context.Context, conn SPIConn) error) error {
	if t, ok := conn.(SPITransactor); ok {
		return t.Transaction(ctx, fn)
	}
	return fn(ctx, conn)
}
