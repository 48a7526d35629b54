package service

import (
	"errors"
	"testing"
	"time"

	"driveshare/internal/config"
	"driveshare/internal/domain"
)

func testPolicy() ChargePolicy {
	return NewChargePolicy(config.SettlementConfig{
		DailyMileageAllowance: 200,
		PerMileRate:           0.45,
		FuelShortfallFee:      75,
		LateHourlyRate:        25,
		LateGrace:             15 * time.Minute,
		MinimumDamagePhotos:   2,
	})
}

func TestMileageOverage_FiftyMilesOver(t *testing.T) {
	t.Parallel()

	p := testPolicy()

	// 3 days, 200 mi/day allowance, 650 miles driven: 50 over at $0.45/mi.
	item, err := p.MileageOverage(12000, 12650, 3)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item == nil {
		t.Fatal("expected a line item")
	}
	if item.Amount != 22.50 {
		t.Errorf("expected 22.50 exactly, got %v", item.Amount)
	}
}

func TestMileageOverage_WithinAllowance_NoCharge(t *testing.T) {
	t.Parallel()

	p := testPolicy()

	testCases := []struct {
		name       string
		endMileage int
	}{
		{"well under", 12100},
		{"exactly at allowance", 12600},
		{"zero miles driven", 12000},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			item, err := p.MileageOverage(12000, tc.endMileage, 3)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if item != nil {
				t.Errorf("expected no charge, got %+v", item)
			}
		})
	}
}

func TestMileageOverage_NegativeDelta_ValidationFailure(t *testing.T) {
	t.Parallel()

	p := testPolicy()

	item, err := p.MileageOverage(12000, 11990, 3)
	if item != nil {
		t.Errorf("a negative delta must never produce a charge, got %+v", item)
	}

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Field != "endMileage" {
		t.Errorf("expected field endMileage, got %s", verr.Field)
	}
}

func TestMileageOverage_NeverNegativeAmount(t *testing.T) {
	t.Parallel()

	p := testPolicy()

	// Sweep plausible inputs; any produced charge must be positive.
	for days := 1; days <= 14; days++ {
		for miles := 0; miles <= 3000; miles += 137 {
			item, err := p.MileageOverage(10000, 10000+miles, days)
			if err != nil {
				t.Fatalf("unexpected error for days=%d miles=%d: %v", days, miles, err)
			}
			if item != nil && item.Amount <= 0 {
				t.Fatalf("non-positive charge %v for days=%d miles=%d", item.Amount, days, miles)
			}
		}
	}
}

func TestFuelShortfall_StepFunction(t *testing.T) {
	t.Parallel()

	p := testPolicy()

	testCases := []struct {
		name       string
		start, end domain.FuelLevel
		charged    bool
	}{
		{"full to full", domain.FuelFull, domain.FuelFull, false},
		{"full to three quarters", domain.FuelFull, domain.FuelThreeQuarters, true},
		{"full to empty", domain.FuelFull, domain.FuelEmpty, true},
		{"half to full", domain.FuelHalf, domain.FuelFull, false},
		{"quarter to quarter", domain.FuelQuarter, domain.FuelQuarter, false},
		{"half to quarter", domain.FuelHalf, domain.FuelQuarter, true},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			item := p.FuelShortfall(tc.start, tc.end)
			if tc.charged {
				if item == nil {
					t.Fatal("expected fuel charge")
				}
				// Flat callout fee regardless of shortfall size.
				if item.Amount != 75 {
					t.Errorf("expected flat 75, got %v", item.Amount)
				}
			} else if item != nil {
				t.Errorf("expected no charge, got %+v", item)
			}
		})
	}
}

func TestLateReturn_GraceWindow(t *testing.T) {
	t.Parallel()

	p := testPolicy()
	scheduled := time.Date(2026, time.March, 10, 10, 0, 0, 0, time.UTC)

	testCases := []struct {
		name   string
		offset time.Duration
		amount float64
	}{
		{"on time", 0, 0},
		{"early", -2 * time.Hour, 0},
		{"inside grace", 10 * time.Minute, 0},
		{"at grace boundary", 15 * time.Minute, 0},
		{"just past grace", 16 * time.Minute, 25},
		{"two and a half hours late", 2*time.Hour + 35*time.Minute, 75},
		{"exactly one hour late", time.Hour, 25},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			item := p.LateReturn(scheduled, scheduled.Add(tc.offset))
			if tc.amount == 0 {
				if item != nil {
					t.Errorf("expected no charge, got %+v", item)
				}
				return
			}
			if item == nil {
				t.Fatal("expected late charge")
			}
			if item.Amount != tc.amount {
				t.Errorf("expected %v, got %v", tc.amount, item.Amount)
			}
		})
	}
}

func TestDamageSurcharge_PhotoEvidence(t *testing.T) {
	t.Parallel()

	p := testPolicy()

	// No report, no charge.
	item, err := p.DamageSurcharge(false, 0)
	if err != nil || item != nil {
		t.Errorf("expected nothing for no report, got %+v, %v", item, err)
	}

	// Report with insufficient photos is a validation failure, never a
	// silent zero-amount charge.
	item, err = p.DamageSurcharge(true, 1)
	if item != nil {
		t.Errorf("expected no item on validation failure, got %+v", item)
	}
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if verr.Field != "damagePhotos" {
		t.Errorf("expected field damagePhotos, got %s", verr.Field)
	}

	// Sufficient evidence yields the placeholder line item.
	item, err = p.DamageSurcharge(true, 2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if item == nil || item.Amount != 0 {
		t.Errorf("expected zero-amount placeholder, got %+v", item)
	}
}
