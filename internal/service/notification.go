package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"driveshare/internal/domain"
)

// NotificationType represents the type of notification.
type NotificationType string

const (
	NotificationGuestVerified   NotificationType = "GUEST_VERIFIED"
	NotificationHandoffComplete NotificationType = "HANDOFF_COMPLETE"
	NotificationHandoffExpired  NotificationType = "HANDOFF_EXPIRED"
	NotificationTripStarted     NotificationType = "TRIP_STARTED"
	NotificationTripEnded       NotificationType = "TRIP_ENDED"
	NotificationDepositReleased NotificationType = "DEPOSIT_RELEASED"
	NotificationDepositShort    NotificationType = "DEPOSIT_SHORT"
)

// Notification represents a notification to be sent.
type Notification struct {
	Type        NotificationType
	RecipientID string // guest or host ID
	Title       string
	Message     string
	Data        map[string]interface{}
	CreatedAt   time.Time
}

// NotificationService handles notification delivery.
type NotificationService struct {
	// In a real system, this would have:
	// - Push notification client (FCM, APNS)
	// - SMS client (Twilio)
	// - Email client (SendGrid)
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService() *NotificationService {
	return &NotificationService{}
}

// NotifyGuestVerified tells the host their guest is at the vehicle.
func (s *NotificationService) NotifyGuestVerified(ctx context.Context, booking *domain.Booking, distanceMeters float64) error {
	notification := Notification{
		Type:        NotificationGuestVerified,
		RecipientID: booking.HostID,
		Title:       "Guest Arrived",
		Message:     fmt.Sprintf("Your guest is %.0fm from the vehicle and ready for handoff", distanceMeters),
		Data: map[string]interface{}{
			"booking_id":      booking.ID,
			"distance_meters": distanceMeters,
		},
		CreatedAt: time.Now(),
	}
	return s.send(ctx, notification)
}

// NotifyHandoffComplete tells the guest the handoff completed and keys are
// released.
func (s *NotificationService) NotifyHandoffComplete(ctx context.Context, session *domain.HandoffSession, guestID string) error {
	notification := Notification{
		Type:        NotificationHandoffComplete,
		RecipientID: guestID,
		Title:       "Handoff Complete",
		Message:     "The handoff is confirmed. Key instructions are now available.",
		Data: map[string]interface{}{
			"booking_id":      session.BookingID,
			"completion_kind": string(session.CompletionKind),
		},
		CreatedAt: time.Now(),
	}
	return s.send(ctx, notification)
}

// NotifyTripStarted tells the host the trip is underway.
func (s *NotificationService) NotifyTripStarted(ctx context.Context, trip *domain.TripRecord, hostID string) error {
	notification := Notification{
		Type:        NotificationTripStarted,
		RecipientID: hostID,
		Title:       "Trip Started",
		Message:     fmt.Sprintf("Trip started at %d miles", trip.StartMileage),
		Data: map[string]interface{}{
			"trip_id":    trip.ID,
			"booking_id": trip.BookingID,
			"started_at": trip.StartedAt,
		},
		CreatedAt: time.Now(),
	}
	return s.send(ctx, notification)
}

// NotifyTripEnded tells the guest how the deposit resolved.
func (s *NotificationService) NotifyTripEnded(ctx context.Context, trip *domain.TripRecord, guestID string, rec domain.DepositReconciliation) error {
	notifType := NotificationDepositReleased
	message := fmt.Sprintf("Your trip has ended. $%.2f of your deposit will be released.", rec.AmountToRelease)
	if rec.AdditionalChargeNeeded > 0 {
		notifType = NotificationDepositShort
		message = fmt.Sprintf("Your trip has ended. Charges exceed your deposit by $%.2f.", rec.AdditionalChargeNeeded)
	}

	notification := Notification{
		Type:        notifType,
		RecipientID: guestID,
		Title:       "Trip Ended",
		Message:     message,
		Data: map[string]interface{}{
			"trip_id":       trip.ID,
			"booking_id":    trip.BookingID,
			"total_charges": rec.TotalCharges,
		},
		CreatedAt: time.Now(),
	}
	return s.send(ctx, notification)
}

// send delivers a notification (mock implementation).
func (s *NotificationService) send(ctx context.Context, notification Notification) error {
	// A real implementation would store the notification and push it via
	// FCM/APNS, SMS, or email.
	log.Printf("[NOTIFICATION] Type=%s, Recipient=%s, Title=%s, Message=%s",
		notification.Type, notification.RecipientID, notification.Title, notification.Message)

	return nil
}
