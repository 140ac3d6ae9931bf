/*
errors.go - Centralized error types for the drawer engine

PURPOSE:
  All error kinds in one place. Every public operation returns either a
  value or one of these, detectable with errors.Is / errors.As.

ERROR CATEGORIES:
  1. Validation errors - bad float, amount, concept, method, kind, owner
  2. State errors - session already open, not found, not open
  3. Store errors - failures of the Ledger Store, wrapped as StoreUnavailable

USAGE:
  _, err := engine.CloseSession(ctx, id, declared)
  if errors.Is(err, drawer.ErrSessionNotOpen) {
      // already closed or never opened
  }

SEE ALSO:
  - validate.go: Produces ValidationError
  - engine.go: Produces state and store errors
  - api/handlers.go: Maps errors to HTTP status codes
*/
package drawer

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidFloat is returned when an opening float is negative.
	ErrInvalidFloat = errors.New("invalid opening float")

	// ErrInvalidAmount is returned for a movement amount that is not a finite
	// number greater than zero, or a negative declared cash count.
	ErrInvalidAmount = errors.New("invalid amount")

	// ErrMissingConcept is returned when a movement concept is blank.
	ErrMissingConcept = errors.New("missing concept")

	// ErrInvalidPaymentMethod is returned for an unrecognized payment method.
	ErrInvalidPaymentMethod = errors.New("invalid payment method")

	// ErrInvalidKind is returned when a movement kind is neither income nor expense.
	ErrInvalidKind = errors.New("invalid movement kind")

	// ErrMissingOwner is returned when a session is opened without owner id or name.
	ErrMissingOwner = errors.New("missing owner")

	// ErrSessionAlreadyOpen is returned when the owner already has an open
	// session for the day.
	ErrSessionAlreadyOpen = errors.New("session already open")

	// ErrSessionNotFound is returned when a referenced session doesn't exist.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionNotOpen covers both "never opened" and "already closed".
	ErrSessionNotOpen = errors.New("session not open")

	// ErrMovementNotFound is returned when a referenced movement doesn't exist.
	ErrMovementNotFound = errors.New("movement not found")

	// ErrStoreUnavailable wraps any Ledger Store failure.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrForbidden is returned when the actor's role does not allow a report.
	ErrForbidden = errors.New("forbidden")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ValidationError names the field that failed. Unwraps to the sentinel.
type ValidationError struct {
	Field string
	Value string
	Err   error
}

func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("%s %q: %v", e.Field, e.Value, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// SessionAlreadyOpenError reports the session that blocks a new open.
type SessionAlreadyOpenError struct {
	OwnerID    OwnerID
	Date       Date
	ExistingID SessionID
}

func (e *SessionAlreadyOpenError) Error() string {
	if e.ExistingID == "" {
		return fmt.Sprintf("session already open for %s on %s", e.OwnerID, e.Date)
	}
	return fmt.Sprintf("session already open for %s on %s (session: %s)", e.OwnerID, e.Date, e.ExistingID)
}

func (e *SessionAlreadyOpenError) Unwrap() error { return ErrSessionAlreadyOpen }

// SessionNotOpenError reports the actual status of the session.
type SessionNotOpenError struct {
	SessionID SessionID
	Status    SessionStatus
}

func (e *SessionNotOpenError) Error() string {
	return fmt.Sprintf("session %s is %s", e.SessionID, e.Status)
}

func (e *SessionNotOpenError) Unwrap() error { return ErrSessionNotOpen }

// StoreError wraps a Ledger Store failure. It matches both ErrStoreUnavailable
// and the underlying cause.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store unavailable: %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() []error { return []error{ErrStoreUnavailable, e.Err} }

// storeErr wraps err unless it is already one of ours.
func storeErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrStoreUnavailable) ||
		errors.Is(err, ErrSessionNotFound) ||
		errors.Is(err, ErrMovementNotFound) ||
		errors.Is(err, ErrSessionAlreadyOpen) {
		return err
	}
	return &StoreError{Op: op, Err: err}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsValidation returns true if the error is a rejected input.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidFloat) ||
		errors.Is(err, ErrInvalidAmount) ||
		errors.Is(err, ErrMissingConcept) ||
		errors.Is(err, ErrInvalidPaymentMethod) ||
		errors.Is(err, ErrInvalidKind) ||
		errors.Is(err, ErrMissingOwner)
}

// IsConflict returns true if the error is a lifecycle violation.
func IsConflict(err error) bool {
	return errors.Is(err, ErrSessionAlreadyOpen) ||
		errors.Is(err, ErrSessionNotOpen)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrSessionNotFound) ||
		errors.Is(err, ErrMovementNotFound)
}

// IsClientError returns true if the error is due to the caller's input.
func IsClientError(err error) bool {
	return IsValidation(err) || IsConflict(err) || IsNotFound(err) || errors.Is(err, ErrForbidden)
}
