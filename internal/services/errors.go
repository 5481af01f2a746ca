package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"murmur/internal/history"
)

var (
	ErrExternalTool  = errors.New("external tool error")
	ErrValidation    = errors.New("validation error")
	ErrConfiguration = errors.New("configuration error")
	ErrNotFound      = errors.New("not found")
	ErrTimeout       = errors.New("timeout")
	ErrTransient     = errors.New("transient failure")

	ErrProbe    = errors.New("probe error")
	ErrExtract  = errors.New("extract error")
	ErrProvider = errors.New("provider error")
	ErrLedger   = errors.New("ledger error")
	ErrWrite    = errors.New("write error")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
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

// FailureStatus maps a file-level error to the history status recorded for it.
func FailureStatus(err error) history.Status {
	if errors.Is(err, context.Canceled) {
		return history.StatusInterrupted
	}
	return history.StatusFailed
}

// FailureKind returns a short label naming the failure class carried by err.
func FailureKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, context.Canceled):
		return "cancelled"
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, ErrProbe):
		return "probe"
	case errors.Is(err, ErrExtract):
		return "extract"
	case errors.Is(err, ErrProvider):
		return "provider"
	case errors.Is(err, ErrLedger):
		return "ledger"
	case errors.Is(err, ErrWrite):
		return "write"
	case errors.Is(err, ErrConfiguration), errors.Is(err, ErrValidation):
		return "config"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrExternalTool):
		return "external_tool"
	default:
		return "unknown"
	}
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
