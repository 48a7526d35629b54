package service

import "errors"

var (
	// ErrInvalidBookingID is returned when the booking ID is empty.
	ErrInvalidBookingID = errors.New("invalid booking id")

	// ErrInvalidCoordinates is returned when submitted coordinates are out of range.
	ErrInvalidCoordinates = errors.New("invalid coordinates")

	// ErrHandoffNotStarted is returned when no handoff session exists for the booking.
	ErrHandoffNotStarted = errors.New("handoff not started")

	// ErrHandoffIncomplete is returned when trip-start is attempted before the
	// handoff reached a completing state.
	ErrHandoffIncomplete = errors.New("handoff not complete")

	// ErrHandoffExpired is returned when trip-start is attempted over an expired
	// session without the explicit acknowledgement flag.
	ErrHandoffExpired = errors.New("handoff expired; acknowledgement required to continue")

	// ErrHandoffNotVerified is returned when host confirmation arrives before
	// the guest has verified proximity.
	ErrHandoffNotVerified = errors.New("guest has not verified proximity")

	// ErrBypassDisabled is returned when the bypass escape valve is invoked but
	// not enabled by configuration.
	ErrBypassDisabled = errors.New("handoff bypass is disabled")

	// ErrHandoffBusy is returned when a concurrent mutation holds the session lock.
	ErrHandoffBusy = errors.New("handoff session is being updated")

	// ErrTripAlreadyStarted is returned when trip-start is re-attempted for a
	// booking whose trip already started.
	ErrTripAlreadyStarted = errors.New("trip already started")

	// ErrTripNotStarted is returned when trip-end is attempted before trip-start.
	ErrTripNotStarted = errors.New("trip not started")

	// ErrTripAlreadyEnded is returned when trip-end is re-attempted for an
	// already ended trip.
	ErrTripAlreadyEnded = errors.New("trip already ended")
)
