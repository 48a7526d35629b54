package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// HandoffLock serializes mutations of a handoff session. Verify, confirm and
// bypass all read-modify-write the same value; the lock keeps the terminal
// status check and the write atomic across instances.
type HandoffLock struct {
	client *redis.Client
}

// NewHandoffLock creates a new HandoffLock.
func NewHandoffLock(client *redis.Client) *HandoffLock {
	return &HandoffLock{client: client}
}

// Acquire attempts to acquire the mutation lock for the given booking.
// Returns true if the lock was acquired, false if already held.
func (s *HandoffLock) Acquire(ctx context.Context, bookingID string, ttl time.Duration) (bool, error) {
	key := fmt.Sprintf("lock:handoff:%s", bookingID)

	ok, err := s.client.SetNX(ctx, key, "1", ttl).Result()
	if err != nil {
		return false, err
	}

	return ok, nil
}

// Release releases the mutation lock for the given booking.
func (s *HandoffLock) Release(ctx context.Context, bookingID string) error {
	key := fmt.Sprintf("lock:handoff:%s", bookingID)

	return s.client.Del(ctx, key).Err()
}
