package service

import "time"

// TripEndCommand is one step-specific message from the trip-end flow. The
// flow used to pass an untyped bag of per-step handlers; a closed union keeps
// the controller the single source of truth for sequencing.
type TripEndCommand interface {
	isTripEndCommand()
}

// StartPhoto records that the return-photo step ran; photo capture itself is
// handled out of band and only the count matters for evidence rules.
type StartPhoto struct {
	PhotoCount int
}

// SetOdometer records the return odometer reading.
type SetOdometer struct {
	Mileage int
}

// SetFuel records the return fuel gauge reading.
type SetFuel struct {
	Level string
}

// ReportDamage flags new damage and its photo evidence count.
type ReportDamage struct {
	Reported   bool
	PhotoCount int
}

// SelectDisputes records which line items the guest disputes.
type SelectDisputes struct {
	Items []string
}

// AcceptTerms records acceptance of the settlement terms and fixes the
// return timestamp.
type AcceptTerms struct {
	At time.Time
}

func (StartPhoto) isTripEndCommand()     {}
func (SetOdometer) isTripEndCommand()    {}
func (SetFuel) isTripEndCommand()        {}
func (ReportDamage) isTripEndCommand()   {}
func (SelectDisputes) isTripEndCommand() {}
func (AcceptTerms) isTripEndCommand()    {}

// FoldTripEnd applies a sequence of commands onto trip-end input. The fold is
// pure; callers preview or submit the result through the controller.
func FoldTripEnd(base TripEndInput, commands ...TripEndCommand) TripEndInput {
	input := base
	for _, command := range commands {
		switch cmd := command.(type) {
		case StartPhoto:
			if cmd.PhotoCount > input.DamagePhotoCount {
				input.DamagePhotoCount = cmd.PhotoCount
			}
		case SetOdometer:
			input.EndMileage = cmd.Mileage
		case SetFuel:
			input.FuelLevelEnd = cmd.Level
		case ReportDamage:
			input.DamageReported = cmd.Reported
			if cmd.PhotoCount > 0 {
				input.DamagePhotoCount = cmd.PhotoCount
			}
		case SelectDisputes:
			input.DisputedItems = append([]string(nil), cmd.Items...)
		case AcceptTerms:
			input.TermsAccepted = true
			input.ActualReturn = cmd.At
		}
	}
	return input
}
