package cmd

import (
	"fmt"
	"log/slog"

	"github.com/gophertribe/devtool/test"
	"github.com/spf13/cobra"
)

// step wraps a devtool quality gate into a command that logs and labels its failure.
func step(use, short string, run func() error) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		RunE: func(cmd *cobra.Command, args []string) error {
			slog.Info("running", "step", use)
			if err := run(); err != nil {
				return fmt.Errorf("%s failed: %w", use, err)
			}
			return nil
		},
	}
}

// TestCmd runs the unit tests. Drivers are exercised against bus playbacks so no board
// is needed.
func TestCmd() *cobra.Command {
	return step("test", "Run unit tests", func() error { return test.Test() })
}

func LintCmd() *cobra.Command {
	return step("lint", "Run linting", func() error { return test.Lint() })
}

// IntegrationTestCmd runs the tests that need the sensors attached.
func IntegrationTestCmd() *cobra.Command {
	return step("integration-test", "Run tests against attached hardware", func() error { return test.Integ() })
}
