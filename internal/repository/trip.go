package repository

import (
	"context"

	"driveshare/internal/domain"
)

// TripRepository defines the persistence operations for trip records.
type TripRepository interface {
	// Create persists a new trip record.
	Create(ctx context.Context, trip *domain.TripRecord) error

	// GetByID retrieves a trip record by ID.
	GetByID(ctx context.Context, id string) (*domain.TripRecord, error)

	// GetByBookingID retrieves the trip record for a booking.
	// Returns nil if no trip has been started for the booking.
	GetByBookingID(ctx context.Context, bookingID string) (*domain.TripRecord, error)

	// Update updates an existing trip record.
	Update(ctx context.Context, trip *domain.TripRecord) error
}
