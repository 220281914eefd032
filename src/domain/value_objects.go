package domain

import (
	"errors"
)

var (
	// ErrInvariantViolation marks a programming error on an entity, such as persisting
	// one without an id or tracking a field it does not have.
	ErrInvariantViolation = errors.New("entity invariant violation")

	// ErrNotFound is returned by lookups on stores that do not synthesize defaults.
	ErrNotFound = errors.New("record not found")

	// ErrBackendUnavailable wraps connection and resource acquisition failures.
	ErrBackendUnavailable = errors.New("backend unavailable")

	ErrEmptyUpdateRequest = errors.New("selective update requested with no tracked fields")

	// ErrDeliveryFailure covers destination resolution and send failures.
	ErrDeliveryFailure = errors.New("delivery failed")

	ErrScanConsumed = errors.New("scan sequence already consumed")

	ErrUnknownTable = errors.New("unknown table")

	ErrInvalidReminder = errors.New("invalid reminder")
	ErrReminderLimit   = errors.New("too many pending reminders")

	ErrUnavailableServer = errors.New("Oops, something unexpected happened. Please try again later.")
)
