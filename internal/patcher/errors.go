package patcher

import (
	"errors"
	"fmt"
	"strings"

	"github.com/roach88/pbxpatch/internal/pbxproj"
)

// RunError represents a failure of the patching workflow.
//
// Failures include:
//   - Missing descriptor: the project file does not exist or is unreadable
//   - Backup failed: the pre-patch copy could not be written
//   - Anchor missing: a strict run missed the anchor in at least one section
//   - Write failed: the patched descriptor could not be written back
//
// RunError includes structured fields for diagnostics and exit code mapping.
type RunError struct {
	// Code identifies the failure category.
	Code RunErrorCode

	// Message is a human-readable description.
	Message string

	// Project is the descriptor path the run targeted.
	Project string

	// Sections lists the section categories that missed the anchor
	// (anchor-missing errors only).
	Sections []pbxproj.Section

	// Err is the underlying cause, if any.
	Err error
}

// RunErrorCode categorizes run failures.
type RunErrorCode string

const (
	// ErrCodeDescriptorMissing indicates the descriptor could not be read.
	ErrCodeDescriptorMissing RunErrorCode = "DESCRIPTOR_MISSING"

	// ErrCodeBackupFailed indicates the backup copy could not be written.
	ErrCodeBackupFailed RunErrorCode = "BACKUP_FAILED"

	// ErrCodeAnchorMissing indicates a strict run missed the anchor in at
	// least one section category.
	ErrCodeAnchorMissing RunErrorCode = "ANCHOR_MISSING"

	// ErrCodeWriteFailed indicates the patched descriptor could not be
	// written back.
	ErrCodeWriteFailed RunErrorCode = "WRITE_FAILED"
)

// Error implements the error interface.
func (e *RunError) Error() string {
	if len(e.Sections) > 0 {
		names := make([]string, len(e.Sections))
		for i, s := range e.Sections {
			names[i] = string(s)
		}
		return fmt.Sprintf("%s: %s (sections: %s)", e.Code, e.Message, strings.Join(names, ", "))
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *RunError) Unwrap() error {
	return e.Err
}

// IsDescriptorMissing returns true if the error is a missing-descriptor error.
// Uses errors.As to handle wrapped errors.
func IsDescriptorMissing(err error) bool {
	var re *RunError
	if errors.As(err, &re) {
		return re.Code == ErrCodeDescriptorMissing
	}
	return false
}

// IsAnchorMissing returns true if the error is a strict anchor-miss error.
// Uses errors.As to handle wrapped errors.
func IsAnchorMissing(err error) bool {
	var re *RunError
	if errors.As(err, &re) {
		return re.Code == ErrCodeAnchorMissing
	}
	return false
}
