package domain

import "time"

// TripStatus represents the current status of a trip.
type TripStatus string

const (
	TripStatusStarted TripStatus = "STARTED"
	TripStatusEnded   TripStatus = "ENDED"
)

// TripRecord holds the telemetry collected across a trip's lifetime.
// Start fields are captured at trip-start submission, end fields at trip-end;
// the record is immutable once the trip is marked ended.
type TripRecord struct {
	ID               string
	BookingID        string
	Status           TripStatus
	StartMileage     int
	EndMileage       int
	FuelLevelStart   FuelLevel
	FuelLevelEnd     FuelLevel
	StartDate        time.Time
	ScheduledEnd     time.Time
	ActualReturn     time.Time
	DamageReported   bool
	DamagePhotoCount int
	NumberOfDays     int
	HandoffKind      CompletionKind // audit flag: how the handoff completed
	DisputedItems    []string
	StartedAt        time.Time
	EndedAt          time.Time
}

// StatutoryNotice is the static disclosure payload attached to every trip-end
// submission. It is configuration, not computed.
type StatutoryNotice struct {
	Statutes            []string `json:"statutes"`
	ItemizationRequired bool     `json:"itemization_required"`
	DisputeWindowDays   int      `json:"dispute_window_days"`
}
