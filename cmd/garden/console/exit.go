package console

import (
	"errors"
	"fmt"

	"github.com/urfave/cli/v2"

	garden "github.com/Waldgeist-49/Garden"
)

// exit codes
const (
	CodeFailure     = 1
	CodeBusConfig   = 2
	CodeWrongDevice = 3
	CodeTransaction = 4
)

func Exit(code int, msg string, args ...interface{}) cli.ExitCoder {
	return cli.Exit(fmt.Sprintf(msg, args...), code)
}

// ExitCode classifies err for the shell.
func ExitCode(err error) int {
	var cfgErr *garden.BusConfigError
	switch {
	case errors.As(err, &cfgErr):
		return CodeBusConfig
	case garden.IsIdentityMismatch(err):
		return CodeWrongDevice
	case garden.IsTransaction(err):
		return CodeTransaction
	}
	return CodeFailure
}

// Fail reports err under msg with an exit code derived from its kind.
func Fail(err error, msg string) cli.ExitCoder {
	return Exit(ExitCode(err), "%s: %s", msg, Red(err))
}
