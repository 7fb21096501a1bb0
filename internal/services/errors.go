// Package services defines the business logic for demand aggregation: event
// application, boost administration, queue ranking, and lifecycle control.
// This file centralizes common service-level error values so that they can be
// consistently returned by service methods and checked by callers.
//
// These errors are intended for internal use by the service layer and
// translation into user-facing messages or HTTP status codes should be
// performed at the handler/controller layer.
package services

import "errors"

// Event application errors.
var (
	// ErrInvalidEventType is returned when an event kind is not one of
	// search, scan, member_scan, or photo_contribution. No mutation is
	// applied.
	ErrInvalidEventType = errors.New("invalid event type")

	// ErrMissingVoterKey is returned when an event arrives without a stable
	// voter identity.
	ErrMissingVoterKey = errors.New("voter key is required")

	// ErrMissingBarcode is returned when an event arrives without a barcode.
	ErrMissingBarcode = errors.New("barcode is required")

	// ErrMissingSubmissionID is returned when a photo contribution omits its
	// submission id, which is required for idempotent retries.
	ErrMissingSubmissionID = errors.New("submission id is required for photo contributions")

	// ErrConcurrencyConflict is returned when the bounded optimistic retry
	// loop is exhausted. It is transient: the caller may safely retry the
	// same event.
	ErrConcurrencyConflict = errors.New("concurrent update conflict, retry")
)

// Read-side errors.
var (
	// ErrUnknownBarcode indicates a read-only query referenced a barcode no
	// event has ever been recorded for. ApplyEvent never returns it; it
	// creates on first use.
	ErrUnknownBarcode = errors.New("unknown barcode")
)

// Boost administration errors.
var (
	// ErrBoostNotFound indicates the requested boost does not exist.
	ErrBoostNotFound = errors.New("boost not found")

	// ErrInvalidMultiplier is returned when a boost multiplier falls outside
	// the allowed 1–10 range.
	ErrInvalidMultiplier = errors.New("multiplier must be between 1 and 10")

	// ErrInvalidBoostWindow is returned when a boost window ends before it
	// starts.
	ErrInvalidBoostWindow = errors.New("boost window ends before it starts")

	// ErrMissingBoostLabel is returned when a boost has no category label.
	ErrMissingBoostLabel = errors.New("boost label is required")
)

// Lifecycle errors.
var (
	// ErrInvalidTransition is returned when a requested status change would
	// skip a state or move backward outside an administrative override.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrUnknownStatus is returned when a status value is not part of the
	// lifecycle.
	ErrUnknownStatus = errors.New("unknown status")

	// ErrInvalidWeightCorrection is returned when an administrative weight
	// correction would set a negative total.
	ErrInvalidWeightCorrection = errors.New("corrected total must be non-negative")
)
