package service

import (
	"fmt"
	"strings"

	"driveshare/internal/domain"
)

// SettlementEngine converts raw trip telemetry into an itemized charge list
// and reconciles it against the held deposit. Computation is synchronous,
// pure and side-effect-free; it may run on every odometer keystroke.
type SettlementEngine struct {
	policy ChargePolicy
	taxes  *TaxTable
}

// NewSettlementEngine creates a new SettlementEngine.
func NewSettlementEngine(policy ChargePolicy, taxes *TaxTable) *SettlementEngine {
	return &SettlementEngine{
		policy: policy,
		taxes:  taxes,
	}
}

// ComputeCharges runs every charge rule over the trip record and collects the
// non-nil line items in canonical order: mileage, fuel, late return, damage.
// Taxes are never added to the total; post-trip fees are service penalties,
// not taxable sales. On malformed input it returns every field fault found
// and no partial settlement.
func (e *SettlementEngine) ComputeCharges(trip *domain.TripRecord, taxCity string) (*domain.SettlementResult, error) {
	var faults ValidationErrors
	var items []domain.ChargeLineItem

	mileage, err := e.policy.MileageOverage(trip.StartMileage, trip.EndMileage, trip.NumberOfDays)
	if verr := asValidation(err); verr != nil {
		faults = append(faults, verr)
	} else if mileage != nil {
		items = append(items, *mileage)
	}

	if fuel := e.policy.FuelShortfall(trip.FuelLevelStart, trip.FuelLevelEnd); fuel != nil {
		items = append(items, *fuel)
	}

	if trip.ActualReturn.IsZero() {
		faults = append(faults, invalidField("actualReturn", "actual return timestamp is required"))
	} else if late := e.policy.LateReturn(trip.ScheduledEnd, trip.ActualReturn); late != nil {
		items = append(items, *late)
	}

	damage, err := e.policy.DamageSurcharge(trip.DamageReported, trip.DamagePhotoCount)
	if verr := asValidation(err); verr != nil {
		faults = append(faults, verr)
	} else if damage != nil {
		items = append(items, *damage)
	}

	if len(faults) > 0 {
		return nil, faults
	}

	var total float64
	for _, item := range items {
		total += item.Amount
	}

	entry := e.taxes.RateFor(taxCity)

	return &domain.SettlementResult{
		LineItems:       items,
		Total:           roundCents(total),
		TaxJurisdiction: entry.Display,
		TaxRate:         entry.Rate,
	}, nil
}

// Reconcile resolves the computed charges against the held deposit. Charges
// exceeding the deposit are a normal outcome, surfaced as an additional
// charge, never an error.
func (e *SettlementEngine) Reconcile(deposit float64, settlement *domain.SettlementResult) domain.DepositReconciliation {
	charges := settlement.Total

	return domain.DepositReconciliation{
		DepositAmount:          deposit,
		TotalCharges:           charges,
		AmountToRelease:        roundCents(max(0, deposit-charges)),
		AdditionalChargeNeeded: roundCents(max(0, charges-deposit)),
	}
}

// BookingTax returns the tax owed on the original booking subtotal for the
// booking's jurisdiction. Used for display on the final statement only.
func (e *SettlementEngine) BookingTax(subtotal float64, address string) (float64, TaxEntry) {
	entry := e.taxes.RateFor(address)
	return roundCents(subtotal * entry.Rate), entry
}

// FormatStatement renders the settlement as a plain-text statement for
// email or print.
func (e *SettlementEngine) FormatStatement(trip *domain.TripRecord, settlement *domain.SettlementResult, rec domain.DepositReconciliation) string {
	var b strings.Builder

	b.WriteString("=====================================\n")
	b.WriteString("        TRIP SETTLEMENT\n")
	b.WriteString("=====================================\n")
	fmt.Fprintf(&b, "Trip ID: %s\n", trip.ID)
	fmt.Fprintf(&b, "Booking ID: %s\n", trip.BookingID)
	fmt.Fprintf(&b, "Returned: %s\n\n", trip.ActualReturn.Format("Jan 02, 2006 3:04 PM"))

	b.WriteString("CHARGES\n")
	b.WriteString("-------------------------------------\n")
	if len(settlement.LineItems) == 0 {
		b.WriteString("No post-trip charges.\n")
	}
	for _, item := range settlement.LineItems {
		fmt.Fprintf(&b, "%-24s $%.2f\n", item.Label+":", item.Amount)
	}
	b.WriteString("-------------------------------------\n")
	fmt.Fprintf(&b, "%-24s $%.2f\n\n", "TOTAL:", settlement.Total)

	b.WriteString("DEPOSIT\n")
	b.WriteString("-------------------------------------\n")
	fmt.Fprintf(&b, "%-24s $%.2f\n", "Held:", rec.DepositAmount)
	if rec.AdditionalChargeNeeded > 0 {
		fmt.Fprintf(&b, "%-24s $%.2f\n", "Additional charge:", rec.AdditionalChargeNeeded)
	} else {
		fmt.Fprintf(&b, "%-24s $%.2f\n", "Released:", rec.AmountToRelease)
	}
	fmt.Fprintf(&b, "\nJurisdiction: %s\n", settlement.TaxJurisdiction)
	b.WriteString("=====================================\n")

	return b.String()
}

// asValidation unwraps a charge-rule error into its field fault.
func asValidation(err error) *ValidationError {
	if err == nil {
		return nil
	}
	if verr, ok := err.(*ValidationError); ok {
		return verr
	}
	return &ValidationError{Field: "trip", Message: err.Error()}
}
