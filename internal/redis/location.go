package redis

import (
	"context"

	"github.com/redis/go-redis/v9"
)

const vehiclePositionKey = "vehicles:positions"

// VehiclePosition represents a parked vehicle's registered position.
type VehiclePosition struct {
	BookingID string
	Lat       float64
	Lng       float64
}

// VehicleLocationStore keeps a geo index of vehicle parking positions so the
// proximity check does not hit PostgreSQL on every verify attempt.
type VehicleLocationStore struct {
	client *redis.Client
}

// NewVehicleLocationStore creates a new VehicleLocationStore.
func NewVehicleLocationStore(client *redis.Client) *VehicleLocationStore {
	return &VehicleLocationStore{client: client}
}

// SetPosition stores a vehicle's position using GEOADD, keyed by booking.
func (s *VehicleLocationStore) SetPosition(ctx context.Context, bookingID string, lat, lng float64) error {
	return s.client.GeoAdd(ctx, vehiclePositionKey, &redis.GeoLocation{
		Name:      bookingID,
		Longitude: lng,
		Latitude:  lat,
	}).Err()
}

// GetPosition returns the stored position for a booking's vehicle.
// Returns nil if no position has been indexed.
func (s *VehicleLocationStore) GetPosition(ctx context.Context, bookingID string) (*VehiclePosition, error) {
	positions, err := s.client.GeoPos(ctx, vehiclePositionKey, bookingID).Result()
	if err != nil {
		return nil, err
	}

	if len(positions) == 0 || positions[0] == nil {
		return nil, nil
	}

	return &VehiclePosition{
		BookingID: bookingID,
		Lat:       positions[0].Latitude,
		Lng:       positions[0].Longitude,
	}, nil
}

// RemovePosition removes a vehicle's position from the geo index.
func (s *VehicleLocationStore) RemovePosition(ctx context.Context, bookingID string) error {
	return s.client.ZRem(ctx, vehiclePositionKey, bookingID).Err()
}
