// Package handoff implements the client-side handoff verification state
// machine. Each participant runs one machine per trip-start attempt; the
// machines never share memory and coordinate only through the server-held
// session, observed via polling.
package handoff

import (
	"context"
	"log"
	"sync"
	"time"

	"driveshare/internal/domain"
)

// State is a client-side machine state.
type State string

const (
	StateLocating      State = "LOCATING"
	StateVerifying     State = "VERIFYING"
	StateGuestVerified State = "GUEST_VERIFIED"
	StateTooFar        State = "TOO_FAR"
	StateError         State = "ERROR"
	StateExpired       State = "EXPIRED"
	StateComplete      State = "HANDOFF_COMPLETE"
)

// Terminal reports whether the machine has no outgoing transitions left.
// Only HANDOFF_COMPLETE is terminal client-side; ERROR, TOO_FAR and EXPIRED
// all accept a user-driven transition.
func (s State) Terminal() bool {
	return s == StateComplete
}

// Position is a device location fix.
type Position struct {
	Lat float64
	Lng float64
}

// Geolocator acquires the device position. Implementations wrap the platform
// location API.
type Geolocator interface {
	CurrentPosition(ctx context.Context, highAccuracy bool, timeout time.Duration) (Position, error)
}

// SessionAPI is the server surface the machine drives: the verify, status and
// bypass endpoints.
type SessionAPI interface {
	Verify(ctx context.Context, bookingID string, lat, lng float64) (*domain.HandoffVerdict, error)
	Status(ctx context.Context, bookingID string) (*domain.HandoffStatusView, error)
	Bypass(ctx context.Context, bookingID string, lat, lng float64, hasCoords bool) (*domain.HandoffSession, error)
}

// Update is emitted on every state change for observers (the UI layer).
type Update struct {
	State                   State
	DistanceMeters          float64
	AutoFallbackRemainingMS int64
	KeyInstructions         string
	Err                     error
}

// Config holds the per-attempt machine parameters.
type Config struct {
	BookingID     string
	PollInterval  time.Duration
	GeoTimeout    time.Duration
	BypassAllowed bool
}

// Machine drives one participant's handoff attempt: geolocation acquisition
// with a high-to-low accuracy fallback, the proximity check, and polling the
// shared session until a terminal status is observed.
//
// The machine is cooperative: Begin, Retry and ContinueAnyway are invoked by
// the owning client; only the polling goroutine runs in the background, and
// Close tears it down.
type Machine struct {
	cfg Config
	geo Geolocator
	api SessionAPI

	mu       sync.Mutex
	state    State
	lastPos  *Position
	stopPoll context.CancelFunc

	updates chan Update
	closed  bool
}

// New creates a machine in the LOCATING state.
func New(cfg Config, geo Geolocator, api SessionAPI) *Machine {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 5 * time.Second
	}
	if cfg.GeoTimeout <= 0 {
		cfg.GeoTimeout = 10 * time.Second
	}
	return &Machine{
		cfg:     cfg,
		geo:     geo,
		api:     api,
		state:   StateLocating,
		updates: make(chan Update, 16),
	}
}

// State returns the current machine state.
func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Updates returns the state-change stream. The channel is buffered; slow
// observers lose intermediate updates, never block the machine.
func (m *Machine) Updates() <-chan Update {
	return m.updates
}

// Begin runs the locate-and-verify sequence from LOCATING. It returns the
// state reached once the sequence settles; when that state is GUEST_VERIFIED
// the machine keeps polling in the background. Calling Begin again after the
// machine has moved on is a no-op returning the current state.
func (m *Machine) Begin(ctx context.Context) State {
	m.mu.Lock()
	if m.state != StateLocating {
		state := m.state
		m.mu.Unlock()
		return state
	}
	m.mu.Unlock()

	return m.locateAndVerify(ctx)
}

// Retry restarts the sequence after TOO_FAR or ERROR.
func (m *Machine) Retry(ctx context.Context) State {
	m.mu.Lock()
	if m.state != StateTooFar && m.state != StateError {
		state := m.state
		m.mu.Unlock()
		return state
	}
	m.state = StateLocating
	m.mu.Unlock()

	m.emit(Update{State: StateLocating})
	return m.locateAndVerify(ctx)
}

// ContinueAnyway acknowledges an expired session and proceeds to a degraded
// completion. Only valid from EXPIRED.
func (m *Machine) ContinueAnyway() State {
	m.mu.Lock()
	if m.state != StateExpired {
		state := m.state
		m.mu.Unlock()
		return state
	}
	m.state = StateComplete
	m.mu.Unlock()

	m.emit(Update{State: StateComplete})
	return StateComplete
}

// Close tears the machine down, cancelling any in-flight polling. Safe to
// call more than once.
func (m *Machine) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stopPoll != nil {
		m.stopPoll()
		m.stopPoll = nil
	}
	if !m.closed {
		m.closed = true
		close(m.updates)
	}
}

// locateAndVerify acquires a position and submits the proximity check.
func (m *Machine) locateAndVerify(ctx context.Context) State {
	pos, err := m.acquirePosition(ctx)
	if err != nil {
		if m.cfg.BypassAllowed {
			return m.bypass(ctx)
		}
		return m.setState(StateError, Update{State: StateError, Err: err})
	}

	m.mu.Lock()
	m.lastPos = &pos
	m.state = StateVerifying
	m.mu.Unlock()
	m.emit(Update{State: StateVerifying})

	verdict, err := m.api.Verify(ctx, m.cfg.BookingID, pos.Lat, pos.Lng)
	if err != nil {
		return m.setState(StateError, Update{State: StateError, Err: err})
	}

	if !verdict.Verified {
		return m.setState(StateTooFar, Update{State: StateTooFar, DistanceMeters: verdict.DistanceMeters})
	}

	m.mu.Lock()
	m.state = StateGuestVerified
	pollCtx, cancel := context.WithCancel(ctx)
	m.stopPoll = cancel
	m.mu.Unlock()

	m.emit(Update{State: StateGuestVerified, DistanceMeters: verdict.DistanceMeters})

	go m.poll(pollCtx)

	return StateGuestVerified
}

// acquirePosition is the two-stage location attempt: high accuracy first,
// then a low-accuracy retry before giving up.
func (m *Machine) acquirePosition(ctx context.Context) (Position, error) {
	pos, err := m.geo.CurrentPosition(ctx, true, m.cfg.GeoTimeout)
	if err == nil {
		return pos, nil
	}

	log.Printf("handoff: high-accuracy fix failed for booking %s, retrying low accuracy: %v", m.cfg.BookingID, err)

	return m.geo.CurrentPosition(ctx, false, m.cfg.GeoTimeout)
}

// bypass drives the shared session to its bypassed terminal state and
// short-circuits locally to HANDOFF_COMPLETE. A position captured earlier is
// submitted for record-keeping, but the local transition does not depend on
// the server call succeeding.
func (m *Machine) bypass(ctx context.Context) State {
	m.mu.Lock()
	pos := m.lastPos
	m.mu.Unlock()

	var lat, lng float64
	hasCoords := pos != nil
	if hasCoords {
		lat, lng = pos.Lat, pos.Lng
	}
	if _, err := m.api.Bypass(ctx, m.cfg.BookingID, lat, lng, hasCoords); err != nil {
		log.Printf("handoff: bypass submission failed for booking %s: %v", m.cfg.BookingID, err)
	}

	return m.setState(StateComplete, Update{State: StateComplete})
}

// poll watches the shared session until a terminal status is observed or the
// machine is torn down. The first poll fires immediately; failures are
// swallowed so a single dropped request never aborts the wait.
func (m *Machine) poll(ctx context.Context) {
	if m.observe(ctx) {
		return
	}

	ticker := time.NewTicker(m.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if m.observe(ctx) {
				return
			}
		}
	}
}

// observe issues one status request and applies any terminal observation.
// Returns true when polling should stop.
func (m *Machine) observe(ctx context.Context) bool {
	view, err := m.api.Status(ctx, m.cfg.BookingID)
	if err != nil {
		log.Printf("handoff: poll failed for booking %s: %v", m.cfg.BookingID, err)
		return false
	}

	switch view.Status {
	case domain.HandoffStatusComplete, domain.HandoffStatusBypassed:
		m.finishPolling(StateComplete, Update{
			State:                   StateComplete,
			KeyInstructions:         view.KeyInstructions,
			AutoFallbackRemainingMS: 0,
		})
		return true
	case domain.HandoffStatusExpired:
		m.finishPolling(StateExpired, Update{State: StateExpired})
		return true
	default:
		m.emit(Update{
			State:                   StateGuestVerified,
			AutoFallbackRemainingMS: view.AutoFallbackRemainingMS,
		})
		return false
	}
}

// finishPolling records a terminal observation and releases the poll timer.
func (m *Machine) finishPolling(state State, update Update) {
	m.mu.Lock()
	m.state = state
	if m.stopPoll != nil {
		m.stopPoll()
		m.stopPoll = nil
	}
	m.mu.Unlock()

	m.emit(update)
}

func (m *Machine) setState(state State, update Update) State {
	m.mu.Lock()
	m.state = state
	m.mu.Unlock()

	m.emit(update)
	return state
}

// emit delivers an update without ever blocking the machine.
func (m *Machine) emit(update Update) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return
	}
	select {
	case m.updates <- update:
	default:
	}
}
