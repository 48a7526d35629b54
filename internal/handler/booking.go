package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"driveshare/internal/repository"
)

// BookingHandler handles HTTP requests for bookings.
type BookingHandler struct {
	bookingRepo repository.BookingRepository
}

// NewBookingHandler creates a new BookingHandler.
func NewBookingHandler(bookingRepo repository.BookingRepository) *BookingHandler {
	return &BookingHandler{bookingRepo: bookingRepo}
}

// BookingResponse is the HTTP response for booking reads. Key instructions
// are withheld; they are released through the handoff status endpoint only.
type BookingResponse struct {
	ID             string  `json:"id"`
	VehicleID      string  `json:"vehicle_id"`
	GuestID        string  `json:"guest_id"`
	HostID         string  `json:"host_id"`
	StartDate      string  `json:"start_date"`
	EndDate        string  `json:"end_date"`
	NumberOfDays   int     `json:"number_of_days"`
	DailyRate      float64 `json:"daily_rate"`
	DepositAmount  float64 `json:"deposit_amount"`
	StartMileage   int     `json:"start_mileage"`
	FuelLevelStart string  `json:"fuel_level_start"`
	VehicleAddress string  `json:"vehicle_address"`
	IsInstantBook  bool    `json:"is_instant_book"`
	TripStartedAt  string  `json:"trip_started_at,omitempty"`
	TripEndedAt    string  `json:"trip_ended_at,omitempty"`
}

// GetBooking handles GET /v1/bookings/:id
func (h *BookingHandler) GetBooking(c *gin.Context) {
	bookingID := c.Param("id")

	booking, err := h.bookingRepo.GetByID(c.Request.Context(), bookingID)
	if err != nil {
		respondError(c, err)
		return
	}

	resp := BookingResponse{
		ID:             booking.ID,
		VehicleID:      booking.VehicleID,
		GuestID:        booking.GuestID,
		HostID:         booking.HostID,
		StartDate:      booking.StartDate.Format(time.RFC3339),
		EndDate:        booking.EndDate.Format(time.RFC3339),
		NumberOfDays:   booking.NumberOfDays,
		DailyRate:      booking.DailyRate,
		DepositAmount:  booking.DepositAmount,
		StartMileage:   booking.StartMileage,
		FuelLevelStart: booking.FuelLevelStart.String(),
		VehicleAddress: booking.VehicleAddress,
		IsInstantBook:  booking.IsInstantBook,
	}

	if booking.TripStarted() {
		resp.TripStartedAt = booking.TripStartedAt.Format(time.RFC3339)
	}
	if booking.TripEnded() {
		resp.TripEndedAt = booking.TripEndedAt.Format(time.RFC3339)
	}

	respondJSON(c, http.StatusOK, resp)
}
