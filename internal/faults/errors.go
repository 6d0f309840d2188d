// Package faults defines the error taxonomy shared by the watcher and viewer.
//
// Failures are tagged with one of the sentinel markers below so callers can
// decide, with errors.Is, whether a condition is fatal for the current run,
// reportable to the operator, or safe to log and ignore. Wrap keeps the
// component/operation context in the message while preserving both the marker
// and the underlying cause for inspection.
package faults

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrConfigurationMissing = errors.New("configuration missing")
	ErrExecutableNotFound   = errors.New("executable not found")
	ErrStoreUnavailable     = errors.New("store unavailable")
	ErrSaveFailed           = errors.New("save failed")
	ErrNotFound             = errors.New("not found")
	ErrProcessEnumeration   = errors.New("process enumeration failed")
	ErrInstanceHeld         = errors.New("instance already running")
)

// Wrap builds an error message that includes component context while tagging
// it with the provided marker. The marker should be one of the exported
// sentinel errors above; nil defaults to ErrStoreUnavailable.
func Wrap(marker error, component, operation, message string, err error) error {
	detail := buildDetail(component, operation, message)
	if marker == nil {
		marker = ErrStoreUnavailable
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Fatal reports whether err should end a watcher run.
func Fatal(err error) bool {
	if err == nil {
		return false
	}
	switch {
	case errors.Is(err, ErrProcessEnumeration):
		return false
	default:
		return true
	}
}

// ExitCode maps err to a watcher process status: 0 when nothing failed or
// the failure is non-fatal, 2 otherwise. Launch success (1) is decided by the
// caller.
func ExitCode(err error) int {
	if Fatal(err) {
		return 2
	}
	return 0
}

// Kind returns a short label for err, used as the log event type.
func Kind(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrConfigurationMissing):
		return "configuration_missing"
	case errors.Is(err, ErrExecutableNotFound):
		return "executable_not_found"
	case errors.Is(err, ErrStoreUnavailable):
		return "store_unavailable"
	case errors.Is(err, ErrSaveFailed):
		return "save_failed"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrProcessEnumeration):
		return "process_enumeration_failed"
	case errors.Is(err, ErrInstanceHeld):
		return "instance_held"
	default:
		return "unexpected"
	}
}

func buildDetail(component, operation, message string) string {
	parts := make([]string, 0, 3)
	if component = strings.TrimSpace(component); component != "" {
		parts = append(parts, component)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "failure"
	}
	return strings.Join(parts, ": ")
}
