package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"driveshare/internal/domain"
)

const (
	handoffSessionPrefix = "handoff:session:"

	// HandoffSessionTTL bounds how long an abandoned session lingers.
	// Comfortably longer than any confirmation or fallback window.
	HandoffSessionTTL = 24 * time.Hour
)

// HandoffStore persists handoff sessions in Redis. The session is the only
// state shared between the guest and host clients; both observe it through
// polling, so a plain JSON value with a TTL is enough.
type HandoffStore struct {
	client *redis.Client
}

// NewHandoffStore creates a new HandoffStore.
func NewHandoffStore(client *redis.Client) *HandoffStore {
	return &HandoffStore{client: client}
}

// Get retrieves the session for a booking. Returns nil on a miss.
func (s *HandoffStore) Get(ctx context.Context, bookingID string) (*domain.HandoffSession, error) {
	key := handoffSessionPrefix + bookingID
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var session domain.HandoffSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// Save stores the session, refreshing its TTL.
func (s *HandoffStore) Save(ctx context.Context, session *domain.HandoffSession) error {
	session.UpdatedAt = time.Now()

	key := handoffSessionPrefix + session.BookingID
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, key, data, HandoffSessionTTL).Err()
}

// Delete removes the session for a booking.
func (s *HandoffStore) Delete(ctx context.Context, bookingID string) error {
	return s.client.Del(ctx, handoffSessionPrefix+bookingID).Err()
}
