package domain

import "time"

// HandoffStatus represents the current status of a handoff session.
// The enum is shared between server and clients; LOCATING and ERROR are only
// ever held client-side but are part of the common vocabulary.
type HandoffStatus string

const (
	HandoffStatusLocating      HandoffStatus = "LOCATING"
	HandoffStatusVerifying     HandoffStatus = "VERIFYING"
	HandoffStatusGuestVerified HandoffStatus = "GUEST_VERIFIED"
	HandoffStatusComplete      HandoffStatus = "HANDOFF_COMPLETE"
	HandoffStatusExpired       HandoffStatus = "EXPIRED"
	HandoffStatusBypassed      HandoffStatus = "BYPASSED"
	HandoffStatusError         HandoffStatus = "ERROR"
)

// Terminal reports whether no further transition is accepted for this status.
func (s HandoffStatus) Terminal() bool {
	return s == HandoffStatusComplete || s == HandoffStatusExpired || s == HandoffStatusBypassed
}

// CompletionKind records how a handoff reached a trip-start-unblocking state.
// All kinds unblock trip-start equally; the kind is kept for audit.
type CompletionKind string

const (
	CompletionHostConfirmed CompletionKind = "HOST_CONFIRMED"
	CompletionAutoFallback  CompletionKind = "AUTO_FALLBACK"
	CompletionBypassed      CompletionKind = "BYPASSED"
	CompletionDegraded      CompletionKind = "DEGRADED"
)

// HandoffSession is the server-held status record for one trip-start attempt.
// It is stored in Redis keyed by booking ID and mutated only through the
// handoff service. Deadlines are absolute timestamps so that every reader
// derives remaining time from the wall clock instead of a local countdown.
type HandoffSession struct {
	BookingID        string         `json:"booking_id"`
	Status           HandoffStatus  `json:"status"`
	GuestLat         float64        `json:"guest_lat"`
	GuestLng         float64        `json:"guest_lng"`
	HasGuestLocation bool           `json:"has_guest_location"`
	DistanceMeters   float64        `json:"distance_meters"`
	IsInstantBook    bool           `json:"is_instant_book"`
	VerifiedAt       time.Time      `json:"verified_at,omitempty"`
	FallbackDeadline time.Time      `json:"fallback_deadline,omitempty"`
	ExpiryDeadline   time.Time      `json:"expiry_deadline,omitempty"`
	CompletionKind   CompletionKind `json:"completion_kind,omitempty"`
	KeyInstructions  string         `json:"key_instructions,omitempty"`
	UpdatedAt        time.Time      `json:"updated_at"`
}

// AutoFallbackRemaining returns the countdown surfaced to clients, in
// milliseconds. Only meaningful for instant-book sessions.
func (s *HandoffSession) AutoFallbackRemaining(now time.Time) int64 {
	if !s.IsInstantBook || s.FallbackDeadline.IsZero() {
		return 0
	}
	remaining := s.FallbackDeadline.Sub(now).Milliseconds()
	if remaining < 0 {
		return 0
	}
	return remaining
}

// HandoffStatusView is the projection returned by the status endpoint.
// Key instructions are released only once the handoff is complete.
type HandoffStatusView struct {
	Status                  HandoffStatus
	AutoFallbackRemainingMS int64
	KeyInstructions         string
}

// HandoffVerdict is the result of a proximity check, returned to the caller
// verbatim for display.
type HandoffVerdict struct {
	Verified       bool
	DistanceMeters float64
	IsInstantBook  bool
}
