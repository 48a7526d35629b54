package service

import (
	"context"
	"log"
	"time"

	"driveshare/internal/config"
	"driveshare/internal/domain"
	"driveshare/internal/geo"
	internalredis "driveshare/internal/redis"
	"driveshare/internal/repository"
)

// sessionLockTTL bounds how long a crashed mutation can wedge a session.
const sessionLockTTL = 5 * time.Second

// HandoffService owns the server-held handoff session: the single shared
// resource both participants' clients mutate via requests and observe via
// polling. Sessions are created implicitly by the first verify attempt.
//
// Deadlines are stored as absolute timestamps and resolved lazily on every
// read, so no server-side timer goroutine is needed and every client derives
// the countdown from the same wall clock.
type HandoffService struct {
	cfg           config.HandoffConfig
	bookings      repository.BookingRepository
	sessions      internalredis.HandoffStoreInterface
	locks         internalredis.HandoffLockInterface
	vehicles      internalredis.VehicleLocationStoreInterface
	notifications *NotificationService
}

// NewHandoffService creates a new HandoffService.
func NewHandoffService(
	cfg config.HandoffConfig,
	bookings repository.BookingRepository,
	sessions internalredis.HandoffStoreInterface,
	locks internalredis.HandoffLockInterface,
	vehicles internalredis.VehicleLocationStoreInterface,
	notifications *NotificationService,
) *HandoffService {
	return &HandoffService{
		cfg:           cfg,
		bookings:      bookings,
		sessions:      sessions,
		locks:         locks,
		vehicles:      vehicles,
		notifications: notifications,
	}
}

// Verify performs the proximity check for a submitted guest location and
// advances the session when the guest is within the handoff radius. Acting on
// an already-terminal session is a no-op success returning the last verdict.
func (s *HandoffService) Verify(ctx context.Context, bookingID string, lat, lng float64) (*domain.HandoffVerdict, error) {
	if bookingID == "" {
		return nil, ErrInvalidBookingID
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return nil, ErrInvalidCoordinates
	}

	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	ok, err := s.locks.Acquire(ctx, bookingID, sessionLockTTL)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrHandoffBusy
	}
	defer func() {
		if err := s.locks.Release(ctx, bookingID); err != nil {
			log.Printf("handoff: failed to release lock for booking %s: %v", bookingID, err)
		}
	}()

	session, err := s.sessions.Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		session = s.newSession(booking)
	}

	now := time.Now()
	changed := s.resolveDeadlines(session, now)

	if session.Status.Terminal() {
		if changed {
			if err := s.sessions.Save(ctx, session); err != nil {
				return nil, err
			}
		}
		return &domain.HandoffVerdict{
			Verified:       session.Status != domain.HandoffStatusExpired,
			DistanceMeters: session.DistanceMeters,
			IsInstantBook:  session.IsInstantBook,
		}, nil
	}

	vehicleLat, vehicleLng := s.vehiclePosition(ctx, booking)
	distance := geo.DistanceMeters(lat, lng, vehicleLat, vehicleLng)

	session.GuestLat = lat
	session.GuestLng = lng
	session.HasGuestLocation = true
	session.DistanceMeters = distance

	verified := distance <= s.cfg.RadiusMeters
	if verified && session.Status != domain.HandoffStatusGuestVerified {
		session.Status = domain.HandoffStatusGuestVerified
		session.VerifiedAt = now
		if session.IsInstantBook {
			session.FallbackDeadline = now.Add(s.cfg.FallbackWindow)
		} else {
			session.ExpiryDeadline = now.Add(s.cfg.ExpiryWindow)
		}

		if s.notifications != nil {
			_ = s.notifications.NotifyGuestVerified(ctx, booking, distance)
		}
	}

	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}

	return &domain.HandoffVerdict{
		Verified:       verified,
		DistanceMeters: distance,
		IsInstantBook:  session.IsInstantBook,
	}, nil
}

// Status returns the session projection both clients poll. Deadline
// transitions (auto-fallback completion, expiry) are applied here.
func (s *HandoffService) Status(ctx context.Context, bookingID string) (*domain.HandoffStatusView, error) {
	if bookingID == "" {
		return nil, ErrInvalidBookingID
	}

	session, err := s.sessions.Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrHandoffNotStarted
	}

	now := time.Now()
	if s.resolveDeadlines(session, now) {
		// Persist best-effort; a failed save just means the next reader
		// resolves the same transition again.
		s.persistResolved(ctx, session)
	}

	view := &domain.HandoffStatusView{
		Status:                  session.Status,
		AutoFallbackRemainingMS: session.AutoFallbackRemaining(now),
	}
	if session.Status == domain.HandoffStatusComplete || session.Status == domain.HandoffStatusBypassed {
		view.KeyInstructions = session.KeyInstructions
	}

	return view, nil
}

// Confirm records the host's confirmation that the guest has the vehicle.
// Confirming an already-terminal session is a no-op success.
func (s *HandoffService) Confirm(ctx context.Context, bookingID string) (*domain.HandoffSession, error) {
	if bookingID == "" {
		return nil, ErrInvalidBookingID
	}

	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	ok, err := s.locks.Acquire(ctx, bookingID, sessionLockTTL)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrHandoffBusy
	}
	defer func() {
		if err := s.locks.Release(ctx, bookingID); err != nil {
			log.Printf("handoff: failed to release lock for booking %s: %v", bookingID, err)
		}
	}()

	session, err := s.sessions.Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, ErrHandoffNotStarted
	}

	changed := s.resolveDeadlines(session, time.Now())
	if session.Status.Terminal() {
		if changed {
			if err := s.sessions.Save(ctx, session); err != nil {
				return nil, err
			}
		}
		return session, nil
	}

	if session.Status != domain.HandoffStatusGuestVerified {
		return nil, ErrHandoffNotVerified
	}

	session.Status = domain.HandoffStatusComplete
	session.CompletionKind = domain.CompletionHostConfirmed

	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}

	if s.notifications != nil {
		_ = s.notifications.NotifyHandoffComplete(ctx, session, booking.GuestID)
	}

	return session, nil
}

// Bypass short-circuits the handoff straight to a terminal state. It is a
// configuration-gated escape valve for non-production use. Coordinates, when
// provided, are recorded for audit, but the transition does not depend on
// that submission.
func (s *HandoffService) Bypass(ctx context.Context, bookingID string, lat, lng float64, hasCoords bool) (*domain.HandoffSession, error) {
	if !s.cfg.BypassEnabled {
		return nil, ErrBypassDisabled
	}
	if bookingID == "" {
		return nil, ErrInvalidBookingID
	}

	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}

	ok, err := s.locks.Acquire(ctx, bookingID, sessionLockTTL)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrHandoffBusy
	}
	defer func() {
		if err := s.locks.Release(ctx, bookingID); err != nil {
			log.Printf("handoff: failed to release lock for booking %s: %v", bookingID, err)
		}
	}()

	session, err := s.sessions.Get(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		session = s.newSession(booking)
	}

	s.resolveDeadlines(session, time.Now())
	if session.Status.Terminal() {
		return session, nil
	}

	if hasCoords {
		session.GuestLat = lat
		session.GuestLng = lng
		session.HasGuestLocation = true
		session.DistanceMeters = geo.DistanceMeters(lat, lng, booking.VehicleLat, booking.VehicleLng)
	}

	session.Status = domain.HandoffStatusBypassed
	session.CompletionKind = domain.CompletionBypassed

	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, err
	}

	log.Printf("handoff: bypass used for booking %s", bookingID)
	return session, nil
}

// ResolveForTripStart decides whether the handoff unblocks trip-start and
// with which audit kind. An expired session can still unblock when the guest
// explicitly acknowledges continuing without confirmation.
func (s *HandoffService) ResolveForTripStart(ctx context.Context, bookingID string, acceptExpired bool) (domain.CompletionKind, error) {
	session, err := s.sessions.Get(ctx, bookingID)
	if err != nil {
		return "", err
	}
	if session == nil {
		return "", ErrHandoffNotStarted
	}

	if s.resolveDeadlines(session, time.Now()) {
		s.persistResolved(ctx, session)
	}

	switch session.Status {
	case domain.HandoffStatusComplete:
		if session.CompletionKind != "" {
			return session.CompletionKind, nil
		}
		return domain.CompletionHostConfirmed, nil
	case domain.HandoffStatusBypassed:
		return domain.CompletionBypassed, nil
	case domain.HandoffStatusExpired:
		if acceptExpired {
			return domain.CompletionDegraded, nil
		}
		return "", ErrHandoffExpired
	default:
		return "", ErrHandoffIncomplete
	}
}

// newSession builds the initial session record for a booking. The key
// instructions are copied in up front but only released by the status
// projection once the handoff completes.
func (s *HandoffService) newSession(booking *domain.Booking) *domain.HandoffSession {
	return &domain.HandoffSession{
		BookingID:       booking.ID,
		Status:          domain.HandoffStatusVerifying,
		IsInstantBook:   booking.IsInstantBook,
		KeyInstructions: booking.KeyInstructions,
	}
}

// resolveDeadlines applies deadline-driven transitions: instant-book sessions
// complete autonomously when the fallback window elapses; others expire when
// the host confirmation window elapses. Returns true if the session changed.
func (s *HandoffService) resolveDeadlines(session *domain.HandoffSession, now time.Time) bool {
	if session.Status != domain.HandoffStatusGuestVerified {
		return false
	}

	if session.IsInstantBook {
		if !session.FallbackDeadline.IsZero() && !now.Before(session.FallbackDeadline) {
			session.Status = domain.HandoffStatusComplete
			session.CompletionKind = domain.CompletionAutoFallback
			return true
		}
		return false
	}

	if !session.ExpiryDeadline.IsZero() && !now.Before(session.ExpiryDeadline) {
		session.Status = domain.HandoffStatusExpired
		return true
	}

	return false
}

// persistResolved saves a lazily-resolved transition under the session lock.
// Failure is tolerated: deadlines are absolute, so any later reader reaches
// the same conclusion.
func (s *HandoffService) persistResolved(ctx context.Context, session *domain.HandoffSession) {
	ok, err := s.locks.Acquire(ctx, session.BookingID, sessionLockTTL)
	if err != nil || !ok {
		return
	}
	defer func() {
		_ = s.locks.Release(ctx, session.BookingID)
	}()

	if err := s.sessions.Save(ctx, session); err != nil {
		log.Printf("handoff: failed to persist resolved session for booking %s: %v", session.BookingID, err)
	}
}

// vehiclePosition reads the vehicle's registered position from the geo index,
// falling back to the booking row and seeding the index for later attempts.
func (s *HandoffService) vehiclePosition(ctx context.Context, booking *domain.Booking) (float64, float64) {
	pos, err := s.vehicles.GetPosition(ctx, booking.ID)
	if err == nil && pos != nil {
		return pos.Lat, pos.Lng
	}
	if err != nil {
		log.Printf("handoff: vehicle position lookup failed for booking %s: %v", booking.ID, err)
	}

	if err := s.vehicles.SetPosition(ctx, booking.ID, booking.VehicleLat, booking.VehicleLng); err != nil {
		log.Printf("handoff: failed to index vehicle position for booking %s: %v", booking.ID, err)
	}

	return booking.VehicleLat, booking.VehicleLng
}
