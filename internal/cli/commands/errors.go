package commands

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlmine/internal/pipeline"
)

// Process exit codes.
const (
	ExitOK = 0
	// ExitIncomplete reports a run cancelled or stopped by a worker fault,
	// and any other failure.
	ExitIncomplete = 1
	// ExitUsage reports bad arguments or configuration.
	ExitUsage = 2
	// ExitOutputRefused reports a declined overwrite or an output path that
	// is not a regular file.
	ExitOutputRefused = 16
)

var (
	// ErrOverwriteDeclined is returned when the operator keeps an existing
	// output file.
	ErrOverwriteDeclined = errors.New("not overwriting file")
	// ErrOutputNotFile is returned when the output path exists but is not a
	// regular file.
	ErrOutputNotFile = errors.New("output path exists but is not a file")
)

// UsageError marks invalid arguments, flags or configuration.
type UsageError struct {
	Err error
}

func (e *UsageError) Error() string {
	return e.Err.Error()
}

func (e *UsageError) Unwrap() error {
	return e.Err
}

// Usage wraps err as a *UsageError. A nil err stays nil.
func Usage(err error) error {
	if err == nil {
		return nil
	}
	return &UsageError{Err: err}
}

// usageArgs marks positional argument failures as usage errors.
func usageArgs(check cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		return Usage(check(cmd, args))
	}
}

// ExitCode maps a command error to the process exit status.
func ExitCode(err error) int {
	var usage *UsageError
	switch {
	case err == nil:
		return ExitOK
	case errors.Is(err, ErrOverwriteDeclined), errors.Is(err, ErrOutputNotFile):
		return ExitOutputRefused
	case errors.Is(err, pipeline.ErrCancelled):
		return ExitIncomplete
	case errors.As(err, &usage):
		return ExitUsage
	default:
		return ExitIncomplete
	}
}
