package domain

// ChargeLineItem is one itemized post-trip charge. Amounts are decimal
// currency, always non-negative.
type ChargeLineItem struct {
	Label  string  `json:"label"`
	Amount float64 `json:"amount"`
}

// SettlementResult is the itemized charge computation for a finished trip.
// It is a pure projection of the trip record plus policy constants and is
// never persisted independently. Line items appear in canonical order
// (mileage, fuel, late return, damage) so totals are stable.
//
// Taxes are not part of Total: post-trip charges are service penalties, not
// taxable sales. The jurisdiction fields carry the booking-side tax rate for
// display only.
type SettlementResult struct {
	LineItems       []ChargeLineItem `json:"line_items"`
	Total           float64          `json:"total"`
	TaxJurisdiction string           `json:"tax_jurisdiction"`
	TaxRate         float64          `json:"tax_rate"`
}

// DepositReconciliation resolves trip-end charges against the held deposit.
// Exactly one of AmountToRelease and AdditionalChargeNeeded is non-zero.
// Charges exceeding the deposit are a normal outcome, never an error.
type DepositReconciliation struct {
	DepositAmount          float64 `json:"deposit_amount"`
	TotalCharges           float64 `json:"total_charges"`
	AmountToRelease        float64 `json:"amount_to_release"`
	AdditionalChargeNeeded float64 `json:"additional_charge_needed"`
}
