package repository

import (
	"context"
	"time"

	"driveshare/internal/domain"
)

// BookingRepository defines the persistence operations for bookings.
// Bookings are created by the reservation flow; this core only reads them and
// advances the trip lifecycle markers.
type BookingRepository interface {
	// GetByID retrieves a booking by ID.
	GetByID(ctx context.Context, id string) (*domain.Booking, error)

	// MarkTripStarted stamps the trip-start marker. Returns ErrConflict if
	// the marker is already set.
	MarkTripStarted(ctx context.Context, id string, at time.Time) error

	// MarkTripEnded stamps the trip-end marker. Returns ErrConflict if the
	// marker is already set or the trip was never started.
	MarkTripEnded(ctx context.Context, id string, at time.Time) error
}
