package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

const (
	ExitCodeFailure = 1
	ExitCodeUsage   = 2
)

// ExitError carries the process exit code for a failed command. Printed is
// set when the command already reported the failure itself.
type ExitError struct {
	Code    int
	Err     error
	Printed bool
}

func (e *ExitError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("exit status %d", e.Code)
	}
	return e.Err.Error()
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// Exitf builds an ExitError from a format string.
func Exitf(code int, format string, args ...any) error {
	return &ExitError{Code: code, Err: fmt.Errorf(format, args...)}
}

func usageError(cmd *cobra.Command, msg string) error {
	return Exitf(ExitCodeUsage, "%s (see %s --help)", msg, cmd.CommandPath())
}
