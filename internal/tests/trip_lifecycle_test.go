package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"driveshare/internal/config"
	"driveshare/internal/domain"
	"driveshare/internal/repository"
	"driveshare/internal/service"
)

// ──────────────────────────────────────────────
// TRIP LIFECYCLE: START GATING
// ──────────────────────────────────────────────

type tripFixture struct {
	*handoffFixture
	trips      *MockTripRepository
	controller *service.TripLifecycleController
}

// newTripFixture wires the controller with a nil *sql.DB. The transactional
// start/end paths need a real database; these tests cover the gating and
// computation that run before any transaction begins.
func newTripFixture() *tripFixture {
	f := &tripFixture{
		handoffFixture: newHandoffFixture(defaultHandoffConfig()),
		trips:          NewMockTripRepository(),
	}

	settlementCfg := config.SettlementConfig{
		DailyMileageAllowance: 200,
		PerMileRate:           0.45,
		FuelShortfallFee:      75,
		LateHourlyRate:        25,
		LateGrace:             15 * time.Minute,
		MinimumDamagePhotos:   2,
		Statutes:              []string{"A.R.S. 28-9601", "A.R.S. 28-9611"},
		ItemizationRequired:   true,
		DisputeWindowDays:     30,
	}

	engine := service.NewSettlementEngine(service.NewChargePolicy(settlementCfg), service.NewTaxTable())
	f.controller = service.NewTripLifecycleController(nil, f.trips, f.bookings, f.svc, engine, service.NewNotificationService(), settlementCfg)
	return f
}

// seedActiveTrip installs a started booking and its trip record.
func (f *tripFixture) seedActiveTrip(bookingID string) *domain.TripRecord {
	booking := testBooking(bookingID, false)
	booking.TripStartedAt = time.Now().Add(-72 * time.Hour)
	f.bookings.AddBooking(booking)

	trip := &domain.TripRecord{
		ID:             "trip-" + bookingID,
		BookingID:      bookingID,
		Status:         domain.TripStatusStarted,
		StartMileage:   booking.StartMileage,
		FuelLevelStart: booking.FuelLevelStart,
		StartDate:      booking.TripStartedAt,
		ScheduledEnd:   booking.TripStartedAt.Add(72 * time.Hour),
		NumberOfDays:   booking.NumberOfDays,
		HandoffKind:    domain.CompletionHostConfirmed,
		StartedAt:      booking.TripStartedAt,
	}
	f.trips.Create(context.Background(), trip)
	return trip
}

func TestStartTrip_HandoffIncomplete_Blocked(t *testing.T) {
	t.Parallel()

	f := newTripFixture()
	f.bookings.AddBooking(testBooking("booking-1", false))
	f.sessions.SeedSession(&domain.HandoffSession{
		BookingID: "booking-1",
		Status:    domain.HandoffStatusVerifying,
	})

	_, err := f.controller.StartTrip(context.Background(), service.StartTripRequest{BookingID: "booking-1"})
	if !errors.Is(err, service.ErrHandoffIncomplete) {
		t.Errorf("expected ErrHandoffIncomplete, got %v", err)
	}
	if f.trips.CountTrips() != 0 {
		t.Error("no trip record may be created while the handoff is incomplete")
	}
}

func TestStartTrip_NoHandoffSession_Blocked(t *testing.T) {
	t.Parallel()

	f := newTripFixture()
	f.bookings.AddBooking(testBooking("booking-1", false))

	_, err := f.controller.StartTrip(context.Background(), service.StartTripRequest{BookingID: "booking-1"})
	if !errors.Is(err, service.ErrHandoffNotStarted) {
		t.Errorf("expected ErrHandoffNotStarted, got %v", err)
	}
}

func TestStartTrip_ExpiredHandoff_RequiresAcknowledgement(t *testing.T) {
	t.Parallel()

	f := newTripFixture()
	f.bookings.AddBooking(testBooking("booking-1", false))
	f.sessions.SeedSession(&domain.HandoffSession{
		BookingID: "booking-1",
		Status:    domain.HandoffStatusExpired,
	})

	_, err := f.controller.StartTrip(context.Background(), service.StartTripRequest{BookingID: "booking-1"})
	if !errors.Is(err, service.ErrHandoffExpired) {
		t.Errorf("expected ErrHandoffExpired, got %v", err)
	}
}

func TestStartTrip_AlreadyStarted_Conflict(t *testing.T) {
	t.Parallel()

	f := newTripFixture()
	booking := testBooking("booking-1", false)
	booking.TripStartedAt = time.Now()
	f.bookings.AddBooking(booking)

	_, err := f.controller.StartTrip(context.Background(), service.StartTripRequest{BookingID: "booking-1"})
	if !errors.Is(err, service.ErrTripAlreadyStarted) {
		t.Errorf("expected ErrTripAlreadyStarted, got %v", err)
	}
}

func TestStartTrip_UnknownBooking_NotFound(t *testing.T) {
	t.Parallel()

	f := newTripFixture()

	_, err := f.controller.StartTrip(context.Background(), service.StartTripRequest{BookingID: "nope"})
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestGetTrip_NotStarted(t *testing.T) {
	t.Parallel()

	f := newTripFixture()
	f.bookings.AddBooking(testBooking("booking-1", false))

	_, err := f.controller.GetTrip(context.Background(), "booking-1")
	if !errors.Is(err, service.ErrTripNotStarted) {
		t.Errorf("expected ErrTripNotStarted, got %v", err)
	}
}

func TestGetTrip_ReturnsRecord(t *testing.T) {
	t.Parallel()

	f := newTripFixture()
	seeded := f.seedActiveTrip("booking-1")

	trip, err := f.controller.GetTrip(context.Background(), "booking-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if trip.ID != seeded.ID {
		t.Errorf("expected trip %s, got %s", seeded.ID, trip.ID)
	}
	if trip.HandoffKind != domain.CompletionHostConfirmed {
		t.Errorf("expected handoff kind %s, got %s", domain.CompletionHostConfirmed, trip.HandoffKind)
	}
}

// ──────────────────────────────────────────────
// TRIP LIFECYCLE: SETTLEMENT PREVIEW
// ──────────────────────────────────────────────

func TestPreviewSettlement_MileageOverage(t *testing.T) {
	t.Parallel()

	f := newTripFixture()
	trip := f.seedActiveTrip("booking-1")

	// 3-day trip with a 200 mi/day allowance: 650 miles driven is 50 over.
	input := service.TripEndInput{
		EndMileage:   trip.StartMileage + 650,
		FuelLevelEnd: "FULL",
		ActualReturn: trip.ScheduledEnd,
	}

	settlement, rec, err := f.controller.PreviewSettlement(context.Background(), "booking-1", input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(settlement.LineItems) != 1 {
		t.Fatalf("expected 1 line item, got %d", len(settlement.LineItems))
	}
	if settlement.LineItems[0].Label != "Mileage overage" {
		t.Errorf("unexpected label %q", settlement.LineItems[0].Label)
	}
	if settlement.Total != 22.50 {
		t.Errorf("expected total 22.50, got %.2f", settlement.Total)
	}

	if rec.AmountToRelease != 177.50 {
		t.Errorf("expected release 177.50, got %.2f", rec.AmountToRelease)
	}
	if rec.AdditionalChargeNeeded != 0 {
		t.Errorf("expected no additional charge, got %.2f", rec.AdditionalChargeNeeded)
	}
}

func TestPreviewSettlement_UsesBookingJurisdiction(t *testing.T) {
	t.Parallel()

	f := newTripFixture()
	trip := f.seedActiveTrip("booking-1")

	input := service.TripEndInput{
		EndMileage:   trip.StartMileage + 10,
		FuelLevelEnd: "FULL",
		ActualReturn: trip.ScheduledEnd,
	}

	settlement, _, err := f.controller.PreviewSettlement(context.Background(), "booking-1", input)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if settlement.TaxJurisdiction != "Phoenix, AZ (8.6%)" {
		t.Errorf("expected Phoenix jurisdiction from booking address, got %q", settlement.TaxJurisdiction)
	}
}

func TestPreviewSettlement_DamageWithoutPhotos_Fault(t *testing.T) {
	t.Parallel()

	f := newTripFixture()
	trip := f.seedActiveTrip("booking-1")

	input := service.TripEndInput{
		EndMileage:       trip.StartMileage + 10,
		FuelLevelEnd:     "FULL",
		ActualReturn:     trip.ScheduledEnd,
		DamageReported:   true,
		DamagePhotoCount: 1,
	}

	_, _, err := f.controller.PreviewSettlement(context.Background(), "booking-1", input)
	var faults service.ValidationErrors
	if !errors.As(err, &faults) {
		t.Fatalf("expected ValidationErrors, got %v", err)
	}

	found := false
	for _, field := range faults.Fields() {
		if field == "damagePhotos" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a damagePhotos fault, got fields %v", faults.Fields())
	}
}

func TestPreviewSettlement_NotStarted(t *testing.T) {
	t.Parallel()

	f := newTripFixture()
	f.bookings.AddBooking(testBooking("booking-1", false))

	_, _, err := f.controller.PreviewSettlement(context.Background(), "booking-1", service.TripEndInput{})
	if !errors.Is(err, service.ErrTripNotStarted) {
		t.Errorf("expected ErrTripNotStarted, got %v", err)
	}
}

// ──────────────────────────────────────────────
// TRIP LIFECYCLE: END VALIDATION
// ──────────────────────────────────────────────

func TestEndTrip_TermsNotAccepted_Blocked(t *testing.T) {
	t.Parallel()

	f := newTripFixture()
	trip := f.seedActiveTrip("booking-1")

	input := service.TripEndInput{
		EndMileage:   trip.StartMileage + 10,
		FuelLevelEnd: "FULL",
		ActualReturn: trip.ScheduledEnd,
		// TermsAccepted deliberately false.
	}

	_, err := f.controller.EndTrip(context.Background(), "booking-1", input)
	var faults service.ValidationErrors
	if !errors.As(err, &faults) {
		t.Fatalf("expected ValidationErrors, got %v", err)
	}

	found := false
	for _, field := range faults.Fields() {
		if field == "termsAccepted" {
			found = true
		}
	}
	if !found {
		t.Errorf("expected a termsAccepted fault, got fields %v", faults.Fields())
	}
}

func TestEndTrip_CollectsAllFaultsAtOnce(t *testing.T) {
	t.Parallel()

	f := newTripFixture()
	f.seedActiveTrip("booking-1")

	// Unparseable fuel, missing return timestamp, and unaccepted terms must
	// all surface together, not one per submission.
	input := service.TripEndInput{
		EndMileage:   12010,
		FuelLevelEnd: "MOSTLY",
	}

	_, err := f.controller.EndTrip(context.Background(), "booking-1", input)
	var faults service.ValidationErrors
	if !errors.As(err, &faults) {
		t.Fatalf("expected ValidationErrors, got %v", err)
	}
	if len(faults) != 3 {
		t.Errorf("expected 3 faults, got %d: %v", len(faults), faults.Fields())
	}
}

func TestApplyTripEnd_FoldsCommandsIntoSubmission(t *testing.T) {
	t.Parallel()

	f := newTripFixture()
	f.seedActiveTrip("booking-1")

	// The corrected odometer reading must win over the earlier typo; with
	// terms never accepted, validation must fail on exactly the terms and
	// return-timestamp fields.
	_, err := f.controller.ApplyTripEnd(context.Background(), "booking-1",
		service.StartPhoto{PhotoCount: 3},
		service.SetOdometer{Mileage: 11000},
		service.SetOdometer{Mileage: 12010},
		service.SetFuel{Level: "FULL"},
	)

	var faults service.ValidationErrors
	if !errors.As(err, &faults) {
		t.Fatalf("expected ValidationErrors, got %v", err)
	}

	fields := faults.Fields()
	want := []string{"actualReturn", "termsAccepted"}
	if len(fields) != len(want) {
		t.Fatalf("expected faults %v, got %v", want, fields)
	}
	for i, field := range want {
		if fields[i] != field {
			t.Errorf("expected fault %q at %d, got %q", field, i, fields[i])
		}
	}
}

func TestEndTrip_NegativeMileageDelta_Fault(t *testing.T) {
	t.Parallel()

	f := newTripFixture()
	trip := f.seedActiveTrip("booking-1")

	input := service.TripEndInput{
		EndMileage:    trip.StartMileage - 5,
		FuelLevelEnd:  "FULL",
		ActualReturn:  trip.ScheduledEnd,
		TermsAccepted: true,
	}

	_, err := f.controller.EndTrip(context.Background(), "booking-1", input)
	var faults service.ValidationErrors
	if !errors.As(err, &faults) {
		t.Fatalf("expected ValidationErrors, got %v", err)
	}
	if faults.Fields()[0] != "endMileage" {
		t.Errorf("expected endMileage fault, got %v", faults.Fields())
	}
}

func TestEndTrip_AlreadyEnded_Conflict(t *testing.T) {
	t.Parallel()

	f := newTripFixture()
	booking := testBooking("booking-1", false)
	booking.TripStartedAt = time.Now().Add(-72 * time.Hour)
	booking.TripEndedAt = time.Now()
	f.bookings.AddBooking(booking)

	_, err := f.controller.EndTrip(context.Background(), "booking-1", service.TripEndInput{})
	if !errors.Is(err, service.ErrTripAlreadyEnded) {
		t.Errorf("expected ErrTripAlreadyEnded, got %v", err)
	}
}

func TestEndTrip_BeforeStart_Blocked(t *testing.T) {
	t.Parallel()

	f := newTripFixture()
	f.bookings.AddBooking(testBooking("booking-1", false))

	_, err := f.controller.EndTrip(context.Background(), "booking-1", service.TripEndInput{})
	if !errors.Is(err, service.ErrTripNotStarted) {
		t.Errorf("expected ErrTripNotStarted, got %v", err)
	}
}

// ──────────────────────────────────────────────
// BOOKING MARKERS
// ──────────────────────────────────────────────

func TestBookingMarkers_SingleUse(t *testing.T) {
	t.Parallel()

	repo := NewMockBookingRepository()
	repo.AddBooking(testBooking("booking-1", false))

	ctx := context.Background()
	now := time.Now()

	if err := repo.MarkTripStarted(ctx, "booking-1", now); err != nil {
		t.Fatalf("first start marker failed: %v", err)
	}
	if err := repo.MarkTripStarted(ctx, "booking-1", now); !errors.Is(err, repository.ErrConflict) {
		t.Errorf("expected ErrConflict on second start marker, got %v", err)
	}

	if err := repo.MarkTripEnded(ctx, "booking-1", now); err != nil {
		t.Fatalf("first end marker failed: %v", err)
	}
	if err := repo.MarkTripEnded(ctx, "booking-1", now); !errors.Is(err, repository.ErrConflict) {
		t.Errorf("expected ErrConflict on second end marker, got %v", err)
	}
}

func TestBookingMarkers_EndBeforeStart_Conflict(t *testing.T) {
	t.Parallel()

	repo := NewMockBookingRepository()
	repo.AddBooking(testBooking("booking-1", false))

	err := repo.MarkTripEnded(context.Background(), "booking-1", time.Now())
	if !errors.Is(err, repository.ErrConflict) {
		t.Errorf("expected ErrConflict when ending an unstarted trip, got %v", err)
	}
}
