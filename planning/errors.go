/*
errors.go - Centralized error types for the planning engine

PURPOSE:
  All error values in one place for consistency and discoverability.
  The core degrades gracefully on numeric edge cases (zero weight, zero
  rate, empty roles, negative delta) and reserves errors for the one
  condition that has no well-defined result: a date range that contains
  no business days to schedule on.

USAGE:
  if errors.Is(err, planning.ErrInvalidRange) {
      // reject the request as client error
  }
*/
package planning

import "errors"

var (
	// ErrInvalidRange is returned when to < from, or when the requested
	// range contains zero business days (e.g. a single weekend day). No
	// schedule entry has a valid date in that case, so the call is
	// rejected rather than guessing a silent fallback.
	ErrInvalidRange = errors.New("invalid range: no business days between from and to")

	// ErrPeriodNotFound is returned when no settings exist for a billing
	// period. Surfaced by stores, defined here so callers can match it
	// without importing the storage package.
	ErrPeriodNotFound = errors.New("period settings not found")
)

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidRange) || errors.Is(err, ErrPeriodNotFound)
}
