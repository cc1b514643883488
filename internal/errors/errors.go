package errors

import (
	"errors"
	"fmt"
	"os"

	"github.com/julianstephens/gradually/internal/logger"
	"github.com/julianstephens/gradually/internal/storage"
	"github.com/julianstephens/gradually/internal/tz"
)

// ErrInvalidInput marks errors caused by bad caller input rather than system failure
var ErrInvalidInput = errors.New("invalid input")

// Exit codes returned by the CLI
const (
	ExitFailure        = 1
	ExitInvalidInput   = 2
	ExitNotInitialized = 3
)

// Invalid returns an error wrapping ErrInvalidInput
func Invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// IsInvalid reports whether err was caused by bad input. Unknown timezones
// count as bad input.
func IsInvalid(err error) bool {
	return errors.Is(err, ErrInvalidInput) || errors.Is(err, tz.ErrInvalidTimezone)
}

// ExitCode maps an error to the process exit status
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case IsInvalid(err):
		return ExitInvalidInput
	case errors.Is(err, storage.ErrNotInitialized):
		return ExitNotInitialized
	default:
		return ExitFailure
	}
}

// Format formats an error message with a consistent "Error: " prefix
func Format(err error) string {
	if err == nil {
		return ""
	}
	return fmt.Sprintf("Error: %v", err)
}

// Formatf formats an error message with a consistent "Error: " prefix using a format string
func Formatf(format string, args ...interface{}) string {
	return fmt.Sprintf("Error: "+format, args...)
}

// Fatal logs an error and exits with the code ExitCode assigns to it
func Fatal(err error) {
	if err != nil {
		logger.Error("Command execution failed", "error", err)
		fmt.Fprintf(os.Stderr, "%s\n", Format(err))
		os.Exit(ExitCode(err))
	}
}

// Fatalf logs and formats an error message, then exits the program with exit code 1
func Fatalf(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	logger.Error("Command execution failed", "error", msg)
	fmt.Fprintf(os.Stderr, "%s\n", Formatf(format, args...))
	os.Exit(ExitFailure)
}
