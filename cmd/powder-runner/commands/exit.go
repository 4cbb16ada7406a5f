package commands

import (
	"github.com/powderci/powder-runner/cmd/powder-runner/handlers"
	"github.com/powderci/powder-runner/internal/runner"
)

// ExitCode maps a command error to the process exit code. The contract
// is the one CI consumers already script against: 0 success, 1 step
// failed, 2 experiment could not be started / node never reachable,
// 3 usage error.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return runner.ExitSuccess
	case handlers.IsUsageError(err):
		return runner.ExitUsage
	case handlers.IsUnreachableError(err):
		return runner.ExitNotStarted
	default:
		return runner.ExitCode(err)
	}
}
