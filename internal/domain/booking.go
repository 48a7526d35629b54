package domain

import "time"

// Booking represents a confirmed reservation between a guest and a host.
// Bookings are created by the reservation flow and are read-only here except
// for the trip lifecycle markers.
type Booking struct {
	ID              string
	VehicleID       string
	GuestID         string
	HostID          string
	StartDate       time.Time
	EndDate         time.Time
	NumberOfDays    int
	DailyRate       float64
	DepositAmount   float64
	StartMileage    int
	FuelLevelStart  FuelLevel
	VehicleAddress  string
	VehicleLat      float64
	VehicleLng      float64
	IsInstantBook   bool
	KeyInstructions string
	TripStartedAt   time.Time // zero until trip-start submission is accepted
	TripEndedAt     time.Time // zero until trip-end submission is accepted
}

// TripStarted reports whether a trip has already been started for this booking.
func (b *Booking) TripStarted() bool {
	return !b.TripStartedAt.IsZero()
}

// TripEnded reports whether the trip for this booking has already been ended.
func (b *Booking) TripEnded() bool {
	return !b.TripEndedAt.IsZero()
}
