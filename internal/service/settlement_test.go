package service

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"driveshare/internal/domain"
)

func testEngine() *SettlementEngine {
	return NewSettlementEngine(testPolicy(), NewTaxTable())
}

// returnedTrip builds a trip record with a clean return; tests override the
// fields they exercise.
func returnedTrip() *domain.TripRecord {
	start := time.Date(2026, time.March, 7, 10, 0, 0, 0, time.UTC)
	return &domain.TripRecord{
		ID:             "trip-1",
		BookingID:      "booking-1",
		Status:         domain.TripStatusStarted,
		StartMileage:   12000,
		EndMileage:     12100,
		FuelLevelStart: domain.FuelFull,
		FuelLevelEnd:   domain.FuelFull,
		StartDate:      start,
		ScheduledEnd:   start.Add(72 * time.Hour),
		ActualReturn:   start.Add(72 * time.Hour),
		NumberOfDays:   3,
	}
}

func TestComputeCharges_CleanReturn_NoCharges(t *testing.T) {
	t.Parallel()

	e := testEngine()

	settlement, err := e.ComputeCharges(returnedTrip(), "Phoenix")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(settlement.LineItems) != 0 {
		t.Errorf("expected no line items, got %+v", settlement.LineItems)
	}
	if settlement.Total != 0 {
		t.Errorf("expected zero total, got %v", settlement.Total)
	}
}

func TestComputeCharges_CanonicalOrder(t *testing.T) {
	t.Parallel()

	e := testEngine()

	trip := returnedTrip()
	trip.EndMileage = trip.StartMileage + 650  // mileage overage
	trip.FuelLevelEnd = domain.FuelHalf        // fuel shortfall
	trip.ActualReturn = trip.ScheduledEnd.Add(time.Hour) // late
	trip.DamageReported = true
	trip.DamagePhotoCount = 3

	settlement, err := e.ComputeCharges(trip, "Phoenix")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	labels := make([]string, len(settlement.LineItems))
	for i, item := range settlement.LineItems {
		labels[i] = item.Label
	}
	want := []string{"Mileage overage", "Fuel refill fee", "Late return fee", "Damage under review"}
	if !reflect.DeepEqual(labels, want) {
		t.Errorf("expected canonical order %v, got %v", want, labels)
	}

	// 22.50 + 75 + 25 + 0
	if settlement.Total != 122.50 {
		t.Errorf("expected total 122.50, got %v", settlement.Total)
	}
}

func TestComputeCharges_Deterministic(t *testing.T) {
	t.Parallel()

	e := testEngine()
	trip := returnedTrip()
	trip.EndMileage = trip.StartMileage + 700
	trip.FuelLevelEnd = domain.FuelQuarter

	first, err := e.ComputeCharges(trip, "Phoenix")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := e.ComputeCharges(trip, "Phoenix")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("same telemetry must settle identically:\n%+v\n%+v", first, second)
	}
}

func TestComputeCharges_TaxExcludedFromTotal(t *testing.T) {
	t.Parallel()

	e := testEngine()
	trip := returnedTrip()
	trip.EndMileage = trip.StartMileage + 650

	settlement, err := e.ComputeCharges(trip, "Phoenix")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// The jurisdiction rate rides along for display; 22.50 stays 22.50.
	if settlement.TaxRate != 0.086 {
		t.Errorf("expected Phoenix rate 0.086, got %v", settlement.TaxRate)
	}
	if settlement.Total != 22.50 {
		t.Errorf("tax must not inflate the total: got %v", settlement.Total)
	}
}

func TestComputeCharges_CollectsEveryFault(t *testing.T) {
	t.Parallel()

	e := testEngine()
	trip := returnedTrip()
	trip.EndMileage = trip.StartMileage - 10 // mileage fault
	trip.ActualReturn = time.Time{}          // missing return
	trip.DamageReported = true               // photo fault
	trip.DamagePhotoCount = 0

	settlement, err := e.ComputeCharges(trip, "Phoenix")
	if settlement != nil {
		t.Errorf("expected no partial settlement on faults, got %+v", settlement)
	}

	var faults ValidationErrors
	if !errors.As(err, &faults) {
		t.Fatalf("expected ValidationErrors, got %v", err)
	}
	want := []string{"endMileage", "actualReturn", "damagePhotos"}
	if !reflect.DeepEqual(faults.Fields(), want) {
		t.Errorf("expected faults %v, got %v", want, faults.Fields())
	}
}

func TestReconcile_ChargesUnderDeposit(t *testing.T) {
	t.Parallel()

	e := testEngine()

	testCases := []struct {
		name        string
		deposit     float64
		charges     float64
		wantRelease float64
	}{
		{name: "standard deposit", deposit: 200, charges: 120, wantRelease: 80},
		{name: "premium deposit", deposit: 500, charges: 300, wantRelease: 200},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			rec := e.Reconcile(tc.deposit, &domain.SettlementResult{Total: tc.charges})
			if rec.AmountToRelease != tc.wantRelease {
				t.Errorf("expected release %v, got %v", tc.wantRelease, rec.AmountToRelease)
			}
			if rec.AdditionalChargeNeeded != 0 {
				t.Errorf("expected no additional charge, got %v", rec.AdditionalChargeNeeded)
			}
		})
	}
}

func TestReconcile_ChargesExceedDeposit(t *testing.T) {
	t.Parallel()

	e := testEngine()

	testCases := []struct {
		name           string
		deposit        float64
		charges        float64
		wantAdditional float64
	}{
		{name: "standard deposit", deposit: 200, charges: 250, wantAdditional: 50},
		{name: "premium deposit", deposit: 500, charges: 650, wantAdditional: 150},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			rec := e.Reconcile(tc.deposit, &domain.SettlementResult{Total: tc.charges})
			if rec.AdditionalChargeNeeded != tc.wantAdditional {
				t.Errorf("expected additional charge %v, got %v", tc.wantAdditional, rec.AdditionalChargeNeeded)
			}
			if rec.AmountToRelease != 0 {
				t.Errorf("expected nothing released, got %v", rec.AmountToRelease)
			}
		})
	}
}

func TestReconcile_ExactlyOneSideNonZero(t *testing.T) {
	t.Parallel()

	e := testEngine()

	for charges := 0.0; charges <= 400; charges += 12.5 {
		rec := e.Reconcile(200, &domain.SettlementResult{Total: charges})
		if rec.AmountToRelease*rec.AdditionalChargeNeeded != 0 {
			t.Fatalf("both sides non-zero at charges=%v: %+v", charges, rec)
		}
		if rec.AmountToRelease < 0 || rec.AdditionalChargeNeeded < 0 {
			t.Fatalf("negative reconciliation at charges=%v: %+v", charges, rec)
		}
	}
}

func TestReconcile_ZeroCharges_FullRelease(t *testing.T) {
	t.Parallel()

	e := testEngine()

	rec := e.Reconcile(200, &domain.SettlementResult{Total: 0})
	if rec.AmountToRelease != 200 {
		t.Errorf("expected full deposit release, got %v", rec.AmountToRelease)
	}
}

func TestBookingTax_AppliesJurisdictionRate(t *testing.T) {
	t.Parallel()

	e := testEngine()

	tax, entry := e.BookingTax(165, "123 Main St, Phoenix, AZ 85004")
	if entry.Rate != 0.086 {
		t.Errorf("expected Phoenix rate, got %v", entry.Rate)
	}
	if tax != 14.19 {
		t.Errorf("expected 14.19, got %v", tax)
	}
}

func TestFormatStatement_ItemizesCharges(t *testing.T) {
	t.Parallel()

	e := testEngine()
	trip := returnedTrip()
	trip.EndMileage = trip.StartMileage + 650

	settlement, err := e.ComputeCharges(trip, "Phoenix")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rec := e.Reconcile(200, settlement)

	statement := e.FormatStatement(trip, settlement, rec)

	for _, want := range []string{"Mileage overage", "$22.50", "Released:", "$177.50", "Phoenix"} {
		if !strings.Contains(statement, want) {
			t.Errorf("statement missing %q:\n%s", want, statement)
		}
	}
}
