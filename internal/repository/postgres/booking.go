package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"driveshare/internal/domain"
	"driveshare/internal/repository"
)

// BookingRepository is a PostgreSQL implementation of repository.BookingRepository.
type BookingRepository struct {
	q Querier
}

// NewBookingRepository creates a new PostgreSQL booking repository.
func NewBookingRepository(db *sql.DB) *BookingRepository {
	return &BookingRepository{q: db}
}

// NewBookingRepositoryWithTx creates a booking repository using a transaction.
func NewBookingRepositoryWithTx(tx *sql.Tx) *BookingRepository {
	return &BookingRepository{q: tx}
}

// GetByID retrieves a booking by ID.
func (r *BookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	query := `
		SELECT id, vehicle_id, guest_id, host_id, start_date, end_date, number_of_days,
		       daily_rate, deposit_amount, start_mileage, fuel_level_start,
		       vehicle_address, vehicle_lat, vehicle_lng, is_instant_book,
		       key_instructions, trip_started_at, trip_ended_at
		FROM bookings WHERE id = $1
	`

	var booking domain.Booking
	var fuelLevel string
	var keyInstructions sql.NullString
	var tripStartedAt sql.NullTime
	var tripEndedAt sql.NullTime

	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&booking.ID,
		&booking.VehicleID,
		&booking.GuestID,
		&booking.HostID,
		&booking.StartDate,
		&booking.EndDate,
		&booking.NumberOfDays,
		&booking.DailyRate,
		&booking.DepositAmount,
		&booking.StartMileage,
		&fuelLevel,
		&booking.VehicleAddress,
		&booking.VehicleLat,
		&booking.VehicleLng,
		&booking.IsInstantBook,
		&keyInstructions,
		&tripStartedAt,
		&tripEndedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	level, err := domain.ParseFuelLevel(fuelLevel)
	if err != nil {
		return nil, err
	}
	booking.FuelLevelStart = level

	if keyInstructions.Valid {
		booking.KeyInstructions = keyInstructions.String
	}
	if tripStartedAt.Valid {
		booking.TripStartedAt = tripStartedAt.Time
	}
	if tripEndedAt.Valid {
		booking.TripEndedAt = tripEndedAt.Time
	}

	return &booking, nil
}

// MarkTripStarted stamps the trip-start marker.
func (r *BookingRepository) MarkTripStarted(ctx context.Context, id string, at time.Time) error {
	query := `
		UPDATE bookings SET trip_started_at = $1
		WHERE id = $2 AND trip_started_at IS NULL
	`

	result, err := r.q.ExecContext(ctx, query, at, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return repository.ErrConflict
	}

	return nil
}

// MarkTripEnded stamps the trip-end marker.
func (r *BookingRepository) MarkTripEnded(ctx context.Context, id string, at time.Time) error {
	query := `
		UPDATE bookings SET trip_ended_at = $1
		WHERE id = $2 AND trip_started_at IS NOT NULL AND trip_ended_at IS NULL
	`

	result, err := r.q.ExecContext(ctx, query, at, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return repository.ErrConflict
	}

	return nil
}

// Ensure BookingRepository implements repository.BookingRepository.
var _ repository.BookingRepository = (*BookingRepository)(nil)
