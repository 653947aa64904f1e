package errors

import (
	stderrors "errors"
	"fmt"
	"os"

	"github.com/julianstephens/hydratemate/internal/logger"
)

// Exit codes returned by Fatal
const (
	ExitFailure = 1
	// ExitUsage is returned when the command rejected its input
	ExitUsage = 2
)

// Format formats an error message with a consistent "Error: " prefix,
// followed by a hint line for failures the user can act on.
func Format(err error) string {
	if err == nil {
		return ""
	}
	msg := fmt.Sprintf("Error: %v", err)
	if hint := Hint(err); hint != "" {
		msg += "\nHint: " + hint
	}
	return msg
}

// Hint suggests a next step for err, or returns "" when there is none
func Hint(err error) string {
	switch {
	case stderrors.Is(err, ErrPermissionDenied):
		return "enable notifications with 'notifications.enabled: true' in the config file."
	case IsScheduling(err):
		return "run 'hydratemate settings reminders on' to retry."
	case IsPersistence(err):
		return "run 'hydratemate doctor' to check storage."
	default:
		return ""
	}
}

// ExitCode maps err to the process exit status
func ExitCode(err error) int {
	if IsValidation(err) {
		return ExitUsage
	}
	return ExitFailure
}

// Fatal logs err and exits. Rejected input is logged at debug level since
// the message on stderr already tells the user what to fix.
func Fatal(err error) {
	if err == nil {
		return
	}
	if IsValidation(err) {
		logger.Debug("Command rejected input", "error", err)
	} else {
		logger.Error("Command execution failed", "error", err)
	}
	fmt.Fprintf(os.Stderr, "%s\n", Format(err))
	os.Exit(ExitCode(err))
}
