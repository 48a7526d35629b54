package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"driveshare/internal/domain"
	"driveshare/internal/repository"
)

// TripRepository is a PostgreSQL implementation of repository.TripRepository.
type TripRepository struct {
	q Querier
}

// NewTripRepository creates a new PostgreSQL trip repository.
func NewTripRepository(db *sql.DB) *TripRepository {
	return &TripRepository{q: db}
}

// NewTripRepositoryWithTx creates a trip repository using a transaction.
func NewTripRepositoryWithTx(tx *sql.Tx) *TripRepository {
	return &TripRepository{q: tx}
}

const tripColumns = `
	id, booking_id, status, start_mileage, end_mileage,
	fuel_level_start, fuel_level_end, start_date, scheduled_end, actual_return,
	damage_reported, damage_photo_count, number_of_days, handoff_kind,
	disputed_items, started_at, ended_at
`

// Create persists a new trip record.
func (r *TripRepository) Create(ctx context.Context, trip *domain.TripRecord) error {
	query := `
		INSERT INTO trips (` + tripColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	_, err := r.q.ExecContext(ctx, query,
		trip.ID,
		trip.BookingID,
		trip.Status,
		trip.StartMileage,
		nullableInt(trip.EndMileage, trip.Status == domain.TripStatusEnded),
		trip.FuelLevelStart.String(),
		nullableString(trip.FuelLevelEnd.String(), trip.Status == domain.TripStatusEnded),
		trip.StartDate,
		trip.ScheduledEnd,
		nullableTime(trip.ActualReturn),
		trip.DamageReported,
		trip.DamagePhotoCount,
		trip.NumberOfDays,
		string(trip.HandoffKind),
		strings.Join(trip.DisputedItems, ","),
		trip.StartedAt,
		nullableTime(trip.EndedAt),
	)

	return err
}

// GetByID retrieves a trip record by ID.
func (r *TripRepository) GetByID(ctx context.Context, id string) (*domain.TripRecord, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE id = $1`

	trip, err := r.scanTrip(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return trip, nil
}

// GetByBookingID retrieves the trip record for a booking.
// Returns nil if no trip has been started for the booking.
func (r *TripRepository) GetByBookingID(ctx context.Context, bookingID string) (*domain.TripRecord, error) {
	query := `SELECT ` + tripColumns + ` FROM trips WHERE booking_id = $1 LIMIT 1`

	trip, err := r.scanTrip(r.q.QueryRowContext(ctx, query, bookingID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}

	return trip, nil
}

// Update updates an existing trip record.
func (r *TripRepository) Update(ctx context.Context, trip *domain.TripRecord) error {
	query := `
		UPDATE trips
		SET status = $1, end_mileage = $2, fuel_level_end = $3, actual_return = $4,
		    damage_reported = $5, damage_photo_count = $6, disputed_items = $7,
		    ended_at = $8
		WHERE id = $9
	`

	result, err := r.q.ExecContext(ctx, query,
		trip.Status,
		nullableInt(trip.EndMileage, trip.Status == domain.TripStatusEnded),
		nullableString(trip.FuelLevelEnd.String(), trip.Status == domain.TripStatusEnded),
		nullableTime(trip.ActualReturn),
		trip.DamageReported,
		trip.DamagePhotoCount,
		strings.Join(trip.DisputedItems, ","),
		nullableTime(trip.EndedAt),
		trip.ID,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func (r *TripRepository) scanTrip(row rowScanner) (*domain.TripRecord, error) {
	var trip domain.TripRecord
	var endMileage sql.NullInt64
	var fuelLevelStart string
	var fuelLevelEnd sql.NullString
	var actualReturn sql.NullTime
	var handoffKind string
	var disputedItems string
	var endedAt sql.NullTime

	err := row.Scan(
		&trip.ID,
		&trip.BookingID,
		&trip.Status,
		&trip.StartMileage,
		&endMileage,
		&fuelLevelStart,
		&fuelLevelEnd,
		&trip.StartDate,
		&trip.ScheduledEnd,
		&actualReturn,
		&trip.DamageReported,
		&trip.DamagePhotoCount,
		&trip.NumberOfDays,
		&handoffKind,
		&disputedItems,
		&trip.StartedAt,
		&endedAt,
	)
	if err != nil {
		return nil, err
	}

	start, err := domain.ParseFuelLevel(fuelLevelStart)
	if err != nil {
		return nil, err
	}
	trip.FuelLevelStart = start

	if fuelLevelEnd.Valid {
		end, err := domain.ParseFuelLevel(fuelLevelEnd.String)
		if err != nil {
			return nil, err
		}
		trip.FuelLevelEnd = end
	}

	if endMileage.Valid {
		trip.EndMileage = int(endMileage.Int64)
	}
	if actualReturn.Valid {
		trip.ActualReturn = actualReturn.Time
	}
	if endedAt.Valid {
		trip.EndedAt = endedAt.Time
	}

	trip.HandoffKind = domain.CompletionKind(handoffKind)
	if disputedItems != "" {
		trip.DisputedItems = strings.Split(disputedItems, ",")
	}

	return &trip, nil
}

func nullableTime(t time.Time) any {
	if t.IsZero() {
		return nil
	}
	return t
}

func nullableInt(v int, valid bool) any {
	if !valid {
		return nil
	}
	return v
}

func nullableString(s string, valid bool) any {
	if !valid {
		return nil
	}
	return s
}

// Ensure TripRepository implements repository.TripRepository.
var _ repository.TripRepository = (*TripRepository)(nil)
