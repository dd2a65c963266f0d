package services

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a record id does not exist or is not visible
// to the caller.
var ErrNotFound = errors.New("achievement not found")

// FieldError identifies a single invalid input field.
type FieldError struct {
	Field  string `json:"field"`
	Reason string `json:"reason"`
}

// ValidationErrors accumulates every policy violation in a submission so the
// caller can report them together.
type ValidationErrors []FieldError

func (e ValidationErrors) Error() string {
	parts := make([]string, 0, len(e))
	for _, fe := range e {
		parts = append(parts, fe.Field+": "+fe.Reason)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// TransitionError reports a status change that is not permitted from the
// record's current state or for the caller's role. Conflict marks the case
// where the record moved concurrently between the read and the guarded write.
type TransitionError struct {
	AchievementID int    `json:"achievement_id"`
	From          string `json:"from"`
	To            string `json:"to"`
	Reason        string `json:"reason"`
	Conflict      bool   `json:"conflict"`
}

func (e *TransitionError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("invalid transition %s -> %s: %s", e.From, e.To, e.Reason)
	}
	return fmt.Sprintf("invalid transition %s -> %s", e.From, e.To)
}

// StorageError wraps a persistence failure. It is the only engine error a
// caller may reasonably retry; the engine itself never retries.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage unavailable during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// storageErr classifies a gorm error: missing rows become ErrNotFound,
// anything else surfaces as a retryable StorageError.
func storageErr(op string, err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return &StorageError{Op: op, Err: err}
}
