package service

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"driveshare/internal/config"
	"driveshare/internal/domain"
	"driveshare/internal/repository"
	"driveshare/internal/repository/postgres"
)

// TripLifecycleController sequences the trip: handoff must reach a completing
// state before trip-start data is accepted, and trip-end data must settle
// cleanly before submission is allowed.
type TripLifecycleController struct {
	db            *sql.DB
	tripRepo      repository.TripRepository
	bookingRepo   repository.BookingRepository
	handoff       *HandoffService
	engine        *SettlementEngine
	notifications *NotificationService
	notice        domain.StatutoryNotice
}

// NewTripLifecycleController creates a new TripLifecycleController.
func NewTripLifecycleController(
	db *sql.DB,
	tripRepo repository.TripRepository,
	bookingRepo repository.BookingRepository,
	handoff *HandoffService,
	engine *SettlementEngine,
	notifications *NotificationService,
	cfg config.SettlementConfig,
) *TripLifecycleController {
	return &TripLifecycleController{
		db:            db,
		tripRepo:      tripRepo,
		bookingRepo:   bookingRepo,
		handoff:       handoff,
		engine:        engine,
		notifications: notifications,
		notice: domain.StatutoryNotice{
			Statutes:            cfg.Statutes,
			ItemizationRequired: cfg.ItemizationRequired,
			DisputeWindowDays:   cfg.DisputeWindowDays,
		},
	}
}

// StatutoryNotice returns the static disclosure payload attached to trip-end
// submissions.
func (c *TripLifecycleController) StatutoryNotice() domain.StatutoryNotice {
	return c.notice
}

// StartTripRequest contains the parameters for starting a trip.
type StartTripRequest struct {
	BookingID string

	// AcceptExpiredHandoff acknowledges continuing over an expired handoff
	// session (degraded completion).
	AcceptExpiredHandoff bool
}

// StartTrip creates the trip record once the handoff has completed.
func (c *TripLifecycleController) StartTrip(ctx context.Context, req StartTripRequest) (*domain.TripRecord, error) {
	if req.BookingID == "" {
		return nil, ErrInvalidBookingID
	}

	booking, err := c.bookingRepo.GetByID(ctx, req.BookingID)
	if err != nil {
		return nil, err
	}

	if booking.TripStarted() {
		return nil, ErrTripAlreadyStarted
	}

	kind, err := c.handoff.ResolveForTripStart(ctx, req.BookingID, req.AcceptExpiredHandoff)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	trip := &domain.TripRecord{
		ID:             uuid.New().String(),
		BookingID:      booking.ID,
		Status:         domain.TripStatusStarted,
		StartMileage:   booking.StartMileage,
		FuelLevelStart: booking.FuelLevelStart,
		StartDate:      now,
		ScheduledEnd:   now.Add(time.Duration(booking.NumberOfDays) * 24 * time.Hour),
		NumberOfDays:   booking.NumberOfDays,
		HandoffKind:    kind,
		StartedAt:      now,
	}

	// Create trip and stamp the booking marker in one transaction.
	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	txTripRepo := postgres.NewTripRepositoryWithTx(tx)
	txBookingRepo := postgres.NewBookingRepositoryWithTx(tx)

	if err = txTripRepo.Create(ctx, trip); err != nil {
		return nil, err
	}

	if err = txBookingRepo.MarkTripStarted(ctx, booking.ID, now); err != nil {
		if err == repository.ErrConflict {
			err = ErrTripAlreadyStarted
		}
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	if c.notifications != nil {
		_ = c.notifications.NotifyTripStarted(ctx, trip, booking.HostID)
	}

	return trip, nil
}

// GetTrip retrieves the trip record for a booking.
func (c *TripLifecycleController) GetTrip(ctx context.Context, bookingID string) (*domain.TripRecord, error) {
	if bookingID == "" {
		return nil, ErrInvalidBookingID
	}

	trip, err := c.tripRepo.GetByBookingID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if trip == nil {
		return nil, ErrTripNotStarted
	}

	return trip, nil
}

// TripEndInput carries the return telemetry collected by the trip-end flow.
type TripEndInput struct {
	EndMileage       int
	FuelLevelEnd     string
	ActualReturn     time.Time
	DamageReported   bool
	DamagePhotoCount int
	DisputedItems    []string
	TermsAccepted    bool
}

// PreviewSettlement recomputes the settlement for in-progress trip-end input
// without persisting anything. Safe to call on every keystroke.
func (c *TripLifecycleController) PreviewSettlement(ctx context.Context, bookingID string, input TripEndInput) (*domain.SettlementResult, domain.DepositReconciliation, error) {
	booking, trip, err := c.loadActiveTrip(ctx, bookingID)
	if err != nil {
		return nil, domain.DepositReconciliation{}, err
	}

	draft, err := c.applyInput(trip, input, false)
	if err != nil {
		return nil, domain.DepositReconciliation{}, err
	}

	settlement, err := c.engine.ComputeCharges(draft, booking.VehicleAddress)
	if err != nil {
		return nil, domain.DepositReconciliation{}, err
	}

	return settlement, c.engine.Reconcile(booking.DepositAmount, settlement), nil
}

// EndTripResponse contains the result of a trip-end submission.
type EndTripResponse struct {
	Trip           *domain.TripRecord
	Settlement     *domain.SettlementResult
	Reconciliation domain.DepositReconciliation
	Notice         domain.StatutoryNotice
	Statement      string
}

// EndTrip validates the return telemetry, computes the final settlement, and
// submits it. Validation failures block submission entirely; a partial or
// estimated settlement is never recorded.
func (c *TripLifecycleController) EndTrip(ctx context.Context, bookingID string, input TripEndInput) (*EndTripResponse, error) {
	booking, trip, err := c.loadActiveTrip(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	ended, err := c.applyInput(trip, input, true)
	if err != nil {
		return nil, err
	}

	settlement, err := c.engine.ComputeCharges(ended, booking.VehicleAddress)
	if err != nil {
		return nil, err
	}

	rec := c.engine.Reconcile(booking.DepositAmount, settlement)

	now := time.Now()
	ended.Status = domain.TripStatusEnded
	ended.EndedAt = now

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}

	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	txTripRepo := postgres.NewTripRepositoryWithTx(tx)
	txBookingRepo := postgres.NewBookingRepositoryWithTx(tx)

	if err = txTripRepo.Update(ctx, ended); err != nil {
		return nil, err
	}

	if err = txBookingRepo.MarkTripEnded(ctx, booking.ID, now); err != nil {
		if err == repository.ErrConflict {
			err = ErrTripAlreadyEnded
		}
		return nil, err
	}

	if err = tx.Commit(); err != nil {
		return nil, err
	}

	if c.notifications != nil {
		_ = c.notifications.NotifyTripEnded(ctx, ended, booking.GuestID, rec)
	}

	return &EndTripResponse{
		Trip:           ended,
		Settlement:     settlement,
		Reconciliation: rec,
		Notice:         c.notice,
		Statement:      c.engine.FormatStatement(ended, settlement, rec),
	}, nil
}

// ApplyTripEnd folds the trip-end flow's step commands into submission input
// and ends the trip. Later commands win over earlier ones, so a resubmitted
// step simply replaces its field before validation runs.
func (c *TripLifecycleController) ApplyTripEnd(ctx context.Context, bookingID string, commands ...TripEndCommand) (*EndTripResponse, error) {
	return c.EndTrip(ctx, bookingID, FoldTripEnd(TripEndInput{}, commands...))
}

// loadActiveTrip fetches the booking and its started, not-yet-ended trip.
func (c *TripLifecycleController) loadActiveTrip(ctx context.Context, bookingID string) (*domain.Booking, *domain.TripRecord, error) {
	if bookingID == "" {
		return nil, nil, ErrInvalidBookingID
	}

	booking, err := c.bookingRepo.GetByID(ctx, bookingID)
	if err != nil {
		return nil, nil, err
	}

	if !booking.TripStarted() {
		return nil, nil, ErrTripNotStarted
	}
	if booking.TripEnded() {
		return nil, nil, ErrTripAlreadyEnded
	}

	trip, err := c.tripRepo.GetByBookingID(ctx, bookingID)
	if err != nil {
		return nil, nil, err
	}
	if trip == nil {
		return nil, nil, ErrTripNotStarted
	}
	if trip.Status == domain.TripStatusEnded {
		return nil, nil, ErrTripAlreadyEnded
	}

	return booking, trip, nil
}

// applyInput folds trip-end input onto a copy of the trip record, validating
// the fields the charge rules cannot check themselves. For final submission
// the terms acceptance is also required.
func (c *TripLifecycleController) applyInput(trip *domain.TripRecord, input TripEndInput, final bool) (*domain.TripRecord, error) {
	var faults ValidationErrors

	draft := *trip
	draft.EndMileage = input.EndMileage
	draft.ActualReturn = input.ActualReturn
	draft.DamageReported = input.DamageReported
	draft.DamagePhotoCount = input.DamagePhotoCount
	draft.DisputedItems = append([]string(nil), input.DisputedItems...)

	level, err := domain.ParseFuelLevel(input.FuelLevelEnd)
	if err != nil {
		faults = append(faults, invalidField("fuelLevelEnd", "unparseable fuel level %q", input.FuelLevelEnd))
	} else {
		draft.FuelLevelEnd = level
	}

	if input.ActualReturn.IsZero() {
		faults = append(faults, invalidField("actualReturn", "actual return timestamp is required"))
	}

	if final && !input.TermsAccepted {
		faults = append(faults, invalidField("termsAccepted", "terms must be accepted before submission"))
	}

	if len(faults) > 0 {
		return nil, faults
	}

	return &draft, nil
}
