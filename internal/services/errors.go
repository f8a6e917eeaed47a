package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrValidation         = errors.New("validation error")
	ErrConfiguration      = errors.New("configuration error")
	ErrNotUnderRoot       = errors.New("not under a source root")
	ErrAlreadyExists      = errors.New("already exists")
	ErrTransfer           = errors.New("transfer error")
	ErrExternalTool       = errors.New("external tool error")
	ErrProcessFailed      = errors.New("process failed")
	ErrVerificationFailed = errors.New("verification failed")
	ErrStopRequested      = errors.New("stop requested")
	ErrProgressTimedOut   = errors.New("progress timed out")
)

// Wrap builds an error message that includes stage context while tagging it with
// the provided marker for later classification. The marker should be one of the
// exported sentinel errors above.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrExternalTool
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

var kinds = []struct {
	marker error
	name   string
}{
	{ErrStopRequested, "StopRequested"},
	{ErrNotUnderRoot, "NotUnderRoot"},
	{ErrValidation, "ValidationError"},
	{ErrAlreadyExists, "AlreadyExists"},
	{ErrTransfer, "TransferError"},
	{ErrProcessFailed, "ProcessFailed"},
	{ErrVerificationFailed, "VerificationFailed"},
	{ErrProgressTimedOut, "ProgressTimedOut"},
	{ErrConfiguration, "ConfigurationError"},
	{ErrExternalTool, "ExternalToolError"},
}

// Kind names the taxonomy entry carried by err, or "Error" for untagged failures.
func Kind(err error) string {
	if err == nil {
		return ""
	}
	for _, k := range kinds {
		if errors.Is(err, k.marker) {
			return k.name
		}
	}
	return "Error"
}

// IsFatal reports whether err must end the run. Only a missing source root and
// a progress timeout are absorbed where they occur.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, ErrNotUnderRoot) && !errors.Is(err, ErrProgressTimedOut)
}

// ExitCode maps a run error to the process exit status. A requested stop is a
// clean exit.
func ExitCode(err error) int {
	if err == nil || errors.Is(err, ErrStopRequested) {
		return 0
	}
	return 1
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
		return "pipeline failure"
	}
	return strings.Join(parts, ": ")
}
