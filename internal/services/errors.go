package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrExternalTool marks a non-zero exit or missing required artifact from
	// an external tool invocation.
	ErrExternalTool = errors.New("external tool error")
	// ErrValidation marks an artifact that was produced but failed a
	// pipeline validation rule (e.g. below the minimum size threshold).
	ErrValidation = errors.New("validation error")
	// ErrTimeout marks an external process that exceeded its stage deadline
	// and was killed.
	ErrTimeout = errors.New("timeout")
	// ErrNotFound marks a missing input or locator that no stage can act on.
	ErrNotFound = errors.New("not found")
	// ErrConfiguration marks unusable configuration detected at run time.
	ErrConfiguration = errors.New("configuration error")
	// ErrTransient marks unexpected orchestration failures contained at the
	// item boundary.
	ErrTransient = errors.New("transient failure")
)

// Wrap builds an error that carries stage context while tagging it with the
// provided sentinel for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrTransient
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Reason returns the human-readable journal reason for a stage error,
// stripping the sentinel prefix that Wrap prepends.
func Reason(err error) string {
	if err == nil {
		return ""
	}
	msg := err.Error()
	for _, sentinel := range []error{ErrExternalTool, ErrValidation, ErrTimeout, ErrNotFound, ErrConfiguration, ErrTransient} {
		prefix := sentinel.Error() + ": "
		if strings.HasPrefix(msg, prefix) {
			return strings.TrimSpace(strings.TrimPrefix(msg, prefix))
		}
	}
	return strings.TrimSpace(msg)
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "service failure"
	}
	return strings.Join(parts, ": ")
}
