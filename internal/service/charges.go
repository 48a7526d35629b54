package service

import (
	"math"
	"time"

	"driveshare/internal/config"
	"driveshare/internal/domain"
)

// ChargePolicy holds the post-trip charge constants. Each rule is a pure
// function of trip telemetry and policy; each returns zero or one line item.
type ChargePolicy struct {
	DailyMileageAllowance int
	PerMileRate           float64
	FuelShortfallFee      float64
	LateHourlyRate        float64
	LateGrace             time.Duration
	MinimumDamagePhotos   int
}

// NewChargePolicy builds a policy from configuration.
func NewChargePolicy(cfg config.SettlementConfig) ChargePolicy {
	return ChargePolicy{
		DailyMileageAllowance: cfg.DailyMileageAllowance,
		PerMileRate:           cfg.PerMileRate,
		FuelShortfallFee:      cfg.FuelShortfallFee,
		LateHourlyRate:        cfg.LateHourlyRate,
		LateGrace:             cfg.LateGrace,
		MinimumDamagePhotos:   cfg.MinimumDamagePhotos,
	}
}

// MileageOverage charges for miles driven beyond the trip allowance.
// A negative mileage delta is a validation failure, never a negative charge.
func (p ChargePolicy) MileageOverage(startMileage, endMileage, numberOfDays int) (*domain.ChargeLineItem, error) {
	if endMileage < startMileage {
		return nil, invalidField("endMileage", "end mileage %d is below start mileage %d", endMileage, startMileage)
	}

	miles := endMileage - startMileage
	allowance := numberOfDays * p.DailyMileageAllowance
	overage := miles - allowance
	if overage <= 0 {
		return nil, nil
	}

	return &domain.ChargeLineItem{
		Label:  "Mileage overage",
		Amount: roundCents(float64(overage) * p.PerMileRate),
	}, nil
}

// FuelShortfall charges the flat refueling-service fee when the vehicle comes
// back with less fuel than it left with. The fee is a step function; the
// refueling service charges the same callout regardless of how much is missing.
func (p ChargePolicy) FuelShortfall(levelStart, levelEnd domain.FuelLevel) *domain.ChargeLineItem {
	if levelEnd >= levelStart {
		return nil
	}

	return &domain.ChargeLineItem{
		Label:  "Fuel refill fee",
		Amount: p.FuelShortfallFee,
	}
}

// LateReturn charges per started hour past the scheduled end. Deltas inside
// the grace window count as on time; clock skew between devices must not
// produce a fee.
func (p ChargePolicy) LateReturn(scheduledEnd, actualReturn time.Time) *domain.ChargeLineItem {
	delta := actualReturn.Sub(scheduledEnd)
	if delta <= p.LateGrace {
		return nil
	}

	hours := int(math.Ceil(delta.Hours()))

	return &domain.ChargeLineItem{
		Label:  "Late return fee",
		Amount: roundCents(float64(hours) * p.LateHourlyRate),
	}
}

// DamageSurcharge records a reported damage claim. The actual cost is set by
// the claims process, so the line item is a zero-amount placeholder; a report
// without enough photo evidence is a validation failure.
func (p ChargePolicy) DamageSurcharge(damageReported bool, damagePhotoCount int) (*domain.ChargeLineItem, error) {
	if !damageReported {
		return nil, nil
	}

	if damagePhotoCount < p.MinimumDamagePhotos {
		return nil, invalidField("damagePhotos", "at least %d photos required, got %d", p.MinimumDamagePhotos, damagePhotoCount)
	}

	return &domain.ChargeLineItem{
		Label:  "Damage under review",
		Amount: 0,
	}, nil
}

// roundCents rounds to two decimal places.
func roundCents(amount float64) float64 {
	return math.Round(amount*100) / 100
}
