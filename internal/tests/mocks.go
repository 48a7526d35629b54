package tests

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"driveshare/internal/domain"
	"driveshare/internal/redis"
	"driveshare/internal/repository"
)

// ──────────────────────────────────────────────
// MOCK BOOKING REPOSITORY
// ──────────────────────────────────────────────

// MockBookingRepository is a mock implementation of BookingRepository.
type MockBookingRepository struct {
	mu       sync.RWMutex
	bookings map[string]*domain.Booking

	// Counters for verification
	MarkTripStartedCallCount int32
	MarkTripEndedCallCount   int32

	// Error injection
	GetError             error
	MarkTripStartedError error
	MarkTripEndedError   error
}

// NewMockBookingRepository creates a new mock booking repository.
func NewMockBookingRepository() *MockBookingRepository {
	return &MockBookingRepository{
		bookings: make(map[string]*domain.Booking),
	}
}

// AddBooking adds a booking to the mock repository.
func (m *MockBookingRepository) AddBooking(booking *domain.Booking) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bookings[booking.ID] = booking
}

func (m *MockBookingRepository) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	booking, ok := m.bookings[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	// Return a copy to avoid mutation issues.
	copy := *booking
	return &copy, nil
}

func (m *MockBookingRepository) MarkTripStarted(ctx context.Context, id string, at time.Time) error {
	atomic.AddInt32(&m.MarkTripStartedCallCount, 1)
	if m.MarkTripStartedError != nil {
		return m.MarkTripStartedError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	booking, ok := m.bookings[id]
	if !ok {
		return repository.ErrNotFound
	}
	if !booking.TripStartedAt.IsZero() {
		return repository.ErrConflict
	}
	booking.TripStartedAt = at
	return nil
}

func (m *MockBookingRepository) MarkTripEnded(ctx context.Context, id string, at time.Time) error {
	atomic.AddInt32(&m.MarkTripEndedCallCount, 1)
	if m.MarkTripEndedError != nil {
		return m.MarkTripEndedError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	booking, ok := m.bookings[id]
	if !ok {
		return repository.ErrNotFound
	}
	if booking.TripStartedAt.IsZero() || !booking.TripEndedAt.IsZero() {
		return repository.ErrConflict
	}
	booking.TripEndedAt = at
	return nil
}

// GetBooking returns the booking by ID (for test assertions).
func (m *MockBookingRepository) GetBooking(id string) *domain.Booking {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.bookings[id]
}

// ──────────────────────────────────────────────
// MOCK TRIP REPOSITORY
// ──────────────────────────────────────────────

// MockTripRepository is a mock implementation of TripRepository.
type MockTripRepository struct {
	mu    sync.RWMutex
	trips map[string]*domain.TripRecord

	// Counters
	CreateCallCount int32
	UpdateCallCount int32

	// Error injection
	CreateError error
	UpdateError error
}

// NewMockTripRepository creates a new mock trip repository.
func NewMockTripRepository() *MockTripRepository {
	return &MockTripRepository{
		trips: make(map[string]*domain.TripRecord),
	}
}

func (m *MockTripRepository) Create(ctx context.Context, trip *domain.TripRecord) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.trips[trip.ID] = trip
	return nil
}

func (m *MockTripRepository) GetByID(ctx context.Context, id string) (*domain.TripRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	trip, ok := m.trips[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *trip
	return &copy, nil
}

func (m *MockTripRepository) GetByBookingID(ctx context.Context, bookingID string) (*domain.TripRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, t := range m.trips {
		if t.BookingID == bookingID {
			copy := *t
			return &copy, nil
		}
	}
	return nil, nil // No trip started for this booking.
}

func (m *MockTripRepository) Update(ctx context.Context, trip *domain.TripRecord) error {
	atomic.AddInt32(&m.UpdateCallCount, 1)
	if m.UpdateError != nil {
		return m.UpdateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.trips[trip.ID]; !ok {
		return repository.ErrNotFound
	}
	m.trips[trip.ID] = trip
	return nil
}

// GetTrip returns the trip by ID (for test assertions).
func (m *MockTripRepository) GetTrip(id string) *domain.TripRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.trips[id]
}

// CountTrips returns the number of trips.
func (m *MockTripRepository) CountTrips() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.trips)
}

// ──────────────────────────────────────────────
// MOCK HANDOFF SESSION STORE
// ──────────────────────────────────────────────

// MockHandoffStore is a mock implementation of the handoff session store.
type MockHandoffStore struct {
	mu       sync.RWMutex
	sessions map[string]*domain.HandoffSession

	// Counters
	SaveCallCount int32

	// Error injection
	GetError  error
	SaveError error
}

// NewMockHandoffStore creates a new mock handoff session store.
func NewMockHandoffStore() *MockHandoffStore {
	return &MockHandoffStore{
		sessions: make(map[string]*domain.HandoffSession),
	}
}

// SeedSession installs a session directly (for test setup).
func (m *MockHandoffStore) SeedSession(session *domain.HandoffSession) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sessions[session.BookingID] = session
}

func (m *MockHandoffStore) Get(ctx context.Context, bookingID string) (*domain.HandoffSession, error) {
	if m.GetError != nil {
		return nil, m.GetError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	session, ok := m.sessions[bookingID]
	if !ok {
		return nil, nil
	}
	copy := *session
	return &copy, nil
}

func (m *MockHandoffStore) Save(ctx context.Context, session *domain.HandoffSession) error {
	atomic.AddInt32(&m.SaveCallCount, 1)
	if m.SaveError != nil {
		return m.SaveError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *session
	m.sessions[session.BookingID] = &copy
	return nil
}

func (m *MockHandoffStore) Delete(ctx context.Context, bookingID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, bookingID)
	return nil
}

// GetSession returns the stored session (for test assertions).
func (m *MockHandoffStore) GetSession(bookingID string) *domain.HandoffSession {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sessions[bookingID]
}

// ──────────────────────────────────────────────
// MOCK HANDOFF LOCK
// ──────────────────────────────────────────────

// MockHandoffLock is a mock implementation of the session mutation lock.
type MockHandoffLock struct {
	mu    sync.Mutex
	locks map[string]time.Time

	// Counters
	AcquireCallCount int32
	ReleaseCallCount int32

	// Error injection
	AcquireError error

	// Force lock failure
	ForceAcquireFailure bool
}

// NewMockHandoffLock creates a new mock handoff lock.
func NewMockHandoffLock() *MockHandoffLock {
	return &MockHandoffLock{
		locks: make(map[string]time.Time),
	}
}

func (m *MockHandoffLock) Acquire(ctx context.Context, bookingID string, ttl time.Duration) (bool, error) {
	atomic.AddInt32(&m.AcquireCallCount, 1)
	if m.AcquireError != nil {
		return false, m.AcquireError
	}
	if m.ForceAcquireFailure {
		return false, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if expiry, exists := m.locks[bookingID]; exists {
		if time.Now().Before(expiry) {
			return false, nil // Lock still held.
		}
	}

	m.locks[bookingID] = time.Now().Add(ttl)
	return true, nil
}

func (m *MockHandoffLock) Release(ctx context.Context, bookingID string) error {
	atomic.AddInt32(&m.ReleaseCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, bookingID)
	return nil
}

// IsLocked checks whether a booking's session is locked (for test assertions).
func (m *MockHandoffLock) IsLocked(bookingID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	expiry, exists := m.locks[bookingID]
	return exists && time.Now().Before(expiry)
}

// ──────────────────────────────────────────────
// MOCK VEHICLE LOCATION STORE
// ──────────────────────────────────────────────

// MockVehicleLocationStore is a mock implementation of the vehicle geo index.
type MockVehicleLocationStore struct {
	mu        sync.RWMutex
	positions map[string]redis.VehiclePosition

	// Counters
	SetPositionCallCount int32

	// Error injection
	GetPositionError error
}

// NewMockVehicleLocationStore creates a new mock vehicle location store.
func NewMockVehicleLocationStore() *MockVehicleLocationStore {
	return &MockVehicleLocationStore{
		positions: make(map[string]redis.VehiclePosition),
	}
}

func (m *MockVehicleLocationStore) SetPosition(ctx context.Context, bookingID string, lat, lng float64) error {
	atomic.AddInt32(&m.SetPositionCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.positions[bookingID] = redis.VehiclePosition{BookingID: bookingID, Lat: lat, Lng: lng}
	return nil
}

func (m *MockVehicleLocationStore) GetPosition(ctx context.Context, bookingID string) (*redis.VehiclePosition, error) {
	if m.GetPositionError != nil {
		return nil, m.GetPositionError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	pos, ok := m.positions[bookingID]
	if !ok {
		return nil, nil
	}
	copy := pos
	return &copy, nil
}

func (m *MockVehicleLocationStore) RemovePosition(ctx context.Context, bookingID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.positions, bookingID)
	return nil
}

// HasPosition checks if a position is indexed (for test assertions).
func (m *MockVehicleLocationStore) HasPosition(bookingID string) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.positions[bookingID]
	return ok
}

// ──────────────────────────────────────────────
// HELPER ERRORS
// ──────────────────────────────────────────────

var (
	ErrMockRedisDown = errors.New("mock: redis connection refused")
	ErrMockTimeout   = errors.New("mock: operation timeout")
)
