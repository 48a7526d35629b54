package redis

import (
	"context"
	"time"

	"driveshare/internal/domain"
)

// HandoffStoreInterface defines the interface for handoff session storage.
type HandoffStoreInterface interface {
	Get(ctx context.Context, bookingID string) (*domain.HandoffSession, error)
	Save(ctx context.Context, session *domain.HandoffSession) error
	Delete(ctx context.Context, bookingID string) error
}

// HandoffLockInterface defines the interface for session mutation locking.
type HandoffLockInterface interface {
	Acquire(ctx context.Context, bookingID string, ttl time.Duration) (bool, error)
	Release(ctx context.Context, bookingID string) error
}

// VehicleLocationStoreInterface defines the interface for the vehicle
// position geo index.
type VehicleLocationStoreInterface interface {
	SetPosition(ctx context.Context, bookingID string, lat, lng float64) error
	GetPosition(ctx context.Context, bookingID string) (*VehiclePosition, error)
	RemovePosition(ctx context.Context, bookingID string) error
}

// Ensure concrete types implement interfaces.
var (
	_ HandoffStoreInterface         = (*HandoffStore)(nil)
	_ HandoffLockInterface          = (*HandoffLock)(nil)
	_ VehicleLocationStoreInterface = (*VehicleLocationStore)(nil)
)
